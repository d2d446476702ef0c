package repo

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Ashen-sam/issue-tracker-api/internal/domain"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// In-memory store implementations mirroring the Mongo-backed semantics,
// used by tests and local runs without a database. Aggregations behave
// like their pipeline counterparts: group-bys emit no zero buckets and
// unassigned issues never join an assignee bucket.

type MemIssueStore struct {
	mu     sync.RWMutex
	issues map[primitive.ObjectID]domain.Issue
	order  []primitive.ObjectID
}

func NewMemIssueStore() *MemIssueStore {
	return &MemIssueStore{issues: make(map[primitive.ObjectID]domain.Issue)}
}

func (s *MemIssueStore) Insert(_ context.Context, i *domain.Issue) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i.ID.IsZero() {
		i.ID = primitive.NewObjectID()
	}
	s.issues[i.ID] = *i
	s.order = append(s.order, i.ID)
	return nil
}

func (s *MemIssueStore) Get(_ context.Context, id primitive.ObjectID) (domain.Issue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.issues[id]
	if !ok {
		return domain.Issue{}, domain.ErrNotFound
	}
	return i, nil
}

// ApplyUpdate mutates under the store lock, the in-memory stand-in for
// the Mongo store's single-document pipeline update.
func (s *MemIssueStore) ApplyUpdate(_ context.Context, id primitive.ObjectID, upd domain.IssueUpdate, now time.Time) (domain.Issue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.issues[id]
	if !ok {
		return domain.Issue{}, domain.ErrNotFound
	}
	upd.Apply(&i, now)
	s.issues[id] = i
	return i, nil
}

func (s *MemIssueStore) Delete(_ context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.issues[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.issues, id)
	for n, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:n], s.order[n+1:]...)
			break
		}
	}
	return nil
}

// all returns issues in insertion order so ties sort deterministically.
func (s *MemIssueStore) all() []domain.Issue {
	out := make([]domain.Issue, 0, len(s.order))
	for _, id := range s.order {
		if i, ok := s.issues[id]; ok {
			out = append(out, i)
		}
	}
	return out
}

func matchScope(scope domain.Scope, i domain.Issue) bool {
	switch scope.Kind {
	case domain.ScopeCreated:
		return i.CreatedBy == scope.User
	case domain.ScopeAssigned:
		return i.AssignedTo != nil && *i.AssignedTo == scope.User
	case domain.ScopeInvolved:
		return i.CreatedBy == scope.User || (i.AssignedTo != nil && *i.AssignedTo == scope.User)
	}
	return true
}

func (s *MemIssueStore) inScope(scope domain.Scope) []domain.Issue {
	var out []domain.Issue
	for _, i := range s.all() {
		if matchScope(scope, i) {
			out = append(out, i)
		}
	}
	return out
}

func (s *MemIssueStore) List(_ context.Context, q domain.ListQuery) ([]domain.Issue, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var matched []domain.Issue
	needle := strings.ToLower(q.Search)
	for _, i := range s.all() {
		if q.Status != "" && i.Status != q.Status {
			continue
		}
		if q.Priority != "" && i.Priority != q.Priority {
			continue
		}
		if q.Severity != "" && i.Severity != q.Severity {
			continue
		}
		if needle != "" &&
			!strings.Contains(strings.ToLower(i.Title), needle) &&
			!strings.Contains(strings.ToLower(i.Description), needle) {
			continue
		}
		matched = append(matched, i)
	}
	asc := q.SortOrder == "asc"
	sort.SliceStable(matched, func(a, b int) bool {
		if asc {
			return issueLess(matched[a], matched[b], q.SortBy)
		}
		return issueLess(matched[b], matched[a], q.SortBy)
	})
	total := int64(len(matched))
	start := (q.Page - 1) * q.Limit
	if start >= total {
		return []domain.Issue{}, total, nil
	}
	end := start + q.Limit
	if end > total {
		end = total
	}
	return append([]domain.Issue{}, matched[start:end]...), total, nil
}

func issueLess(a, b domain.Issue, field string) bool {
	switch field {
	case "updatedAt":
		return a.UpdatedAt.Before(b.UpdatedAt)
	case "title":
		return a.Title < b.Title
	case "status":
		return a.Status < b.Status
	case "priority":
		return a.Priority < b.Priority
	case "severity":
		return a.Severity < b.Severity
	default:
		return a.CreatedAt.Before(b.CreatedAt)
	}
}

func (s *MemIssueStore) Count(_ context.Context, scope domain.Scope) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.inScope(scope))), nil
}

func (s *MemIssueStore) CountCreatedSince(_ context.Context, scope domain.Scope, since time.Time) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, i := range s.inScope(scope) {
		if !i.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

func (s *MemIssueStore) CountByStatus(_ context.Context, scope domain.Scope) (map[domain.Status]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := map[domain.Status]int64{}
	for _, i := range s.inScope(scope) {
		out[i.Status]++
	}
	return out, nil
}

func (s *MemIssueStore) CountByPriority(_ context.Context, scope domain.Scope) (map[domain.Priority]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := map[domain.Priority]int64{}
	for _, i := range s.inScope(scope) {
		out[i.Priority]++
	}
	return out, nil
}

func (s *MemIssueStore) CountBySeverity(_ context.Context, scope domain.Scope) (map[domain.Severity]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := map[domain.Severity]int64{}
	for _, i := range s.inScope(scope) {
		out[i.Severity]++
	}
	return out, nil
}

func (s *MemIssueStore) ResolutionAggregate(_ context.Context, scope domain.Scope) (domain.ResolutionAggregate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var agg domain.ResolutionAggregate
	var sum float64
	for _, i := range s.inScope(scope) {
		if i.ResolvedAt == nil {
			continue
		}
		ms := float64(i.ResolvedAt.Sub(i.CreatedAt).Milliseconds())
		if agg.Count == 0 || ms < agg.MinMS {
			agg.MinMS = ms
		}
		if agg.Count == 0 || ms > agg.MaxMS {
			agg.MaxMS = ms
		}
		sum += ms
		agg.Count++
	}
	if agg.Count > 0 {
		agg.AvgMS = sum / float64(agg.Count)
	}
	return agg, nil
}

func (s *MemIssueStore) MonthlyCounts(_ context.Context, scope domain.Scope, since time.Time) ([]domain.MonthCount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := map[[2]int]int64{}
	for _, i := range s.inScope(scope) {
		if i.CreatedAt.Before(since) {
			continue
		}
		t := i.CreatedAt.UTC()
		counts[[2]int{t.Year(), int(t.Month())}]++
	}
	keys := make([][2]int, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(a, b int) bool {
		if keys[a][0] != keys[b][0] {
			return keys[a][0] < keys[b][0]
		}
		return keys[a][1] < keys[b][1]
	})
	out := make([]domain.MonthCount, 0, len(keys))
	for _, k := range keys {
		out = append(out, domain.MonthCount{Year: k[0], Month: k[1], Count: counts[k]})
	}
	return out, nil
}

func (s *MemIssueStore) TopActors(_ context.Context, field domain.ActorField, limit int) ([]domain.ActorCount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := map[primitive.ObjectID]int64{}
	for _, i := range s.all() {
		switch field {
		case domain.ActorCreator:
			counts[i.CreatedBy]++
		case domain.ActorAssignee:
			if i.AssignedTo != nil {
				counts[*i.AssignedTo]++
			}
		}
	}
	out := make([]domain.ActorCount, 0, len(counts))
	for id, n := range counts {
		out = append(out, domain.ActorCount{UserID: id, Count: n})
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].Count != out[b].Count {
			return out[a].Count > out[b].Count
		}
		return out[a].UserID.Hex() < out[b].UserID.Hex()
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemIssueStore) Recent(_ context.Context, scope domain.Scope, limit int) ([]domain.Issue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	issues := s.inScope(scope)
	sort.SliceStable(issues, func(a, b int) bool { return issues[a].CreatedAt.After(issues[b].CreatedAt) })
	if len(issues) > limit {
		issues = issues[:limit]
	}
	return issues, nil
}

func (s *MemIssueStore) RecentActivity(_ context.Context, scope domain.Scope, limit int) ([]domain.Issue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	issues := s.inScope(scope)
	sort.SliceStable(issues, func(a, b int) bool { return issues[a].UpdatedAt.After(issues[b].UpdatedAt) })
	if len(issues) > limit {
		issues = issues[:limit]
	}
	return issues, nil
}

func (s *MemIssueStore) HighPriorityAssigned(_ context.Context, userID primitive.ObjectID, limit int) ([]domain.Issue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Issue
	for _, i := range s.inScope(domain.AssignedScope(userID)) {
		if i.Status == domain.StatusClosed {
			continue
		}
		if i.Priority != domain.PriorityHigh && i.Priority != domain.PriorityCritical {
			continue
		}
		out = append(out, i)
	}
	sort.SliceStable(out, func(a, b int) bool {
		if out[a].Priority.Rank() != out[b].Priority.Rank() {
			return out[a].Priority.Rank() > out[b].Priority.Rank()
		}
		return out[a].CreatedAt.After(out[b].CreatedAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type MemUserStore struct {
	mu    sync.RWMutex
	users map[primitive.ObjectID]domain.User
}

func NewMemUserStore() *MemUserStore {
	return &MemUserStore{users: make(map[primitive.ObjectID]domain.User)}
}

func (s *MemUserStore) Insert(_ context.Context, u *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, other := range s.users {
		if other.Email == u.Email {
			return domain.ErrEmailTaken
		}
	}
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	s.users[u.ID] = *u
	return nil
}

func (s *MemUserStore) GetByID(_ context.Context, id primitive.ObjectID) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return domain.User{}, domain.ErrNotFound
	}
	return u, nil
}

func (s *MemUserStore) GetByEmail(_ context.Context, email string) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return domain.User{}, domain.ErrNotFound
}

func (s *MemUserStore) Update(_ context.Context, u domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.ID]; !ok {
		return domain.ErrNotFound
	}
	for id, other := range s.users {
		if id != u.ID && other.Email == u.Email {
			return domain.ErrEmailTaken
		}
	}
	s.users[u.ID] = u
	return nil
}

func (s *MemUserStore) Delete(_ context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.users, id)
	return nil
}

func (s *MemUserStore) GetMany(_ context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]domain.UserInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[primitive.ObjectID]domain.UserInfo, len(ids))
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			out[id] = u.Info()
		}
	}
	return out, nil
}

type MemSnapshotStore struct {
	mu    sync.Mutex
	snaps []domain.Snapshot
}

func NewMemSnapshotStore() *MemSnapshotStore { return &MemSnapshotStore{} }

func (s *MemSnapshotStore) Insert(_ context.Context, snap *domain.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if snap.ID.IsZero() {
		snap.ID = primitive.NewObjectID()
	}
	s.snaps = append(s.snaps, *snap)
	return nil
}

func (s *MemSnapshotStore) Last(_ context.Context) (domain.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.snaps) == 0 {
		return domain.Snapshot{}, domain.ErrNotFound
	}
	last := s.snaps[0]
	for _, snap := range s.snaps[1:] {
		if !snap.TakenAt.Before(last.TakenAt) {
			last = snap
		}
	}
	return last, nil
}

type MemLocker struct {
	mu     sync.Mutex
	leases map[string]time.Time
}

func NewMemLocker() *MemLocker { return &MemLocker{leases: make(map[string]time.Time)} }

func (l *MemLocker) TryLock(_ context.Context, name string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := time.Now()
	if exp, ok := l.leases[name]; ok && exp.After(now) {
		return false, nil
	}
	l.leases[name] = now.Add(ttl)
	return true, nil
}

func (l *MemLocker) Unlock(_ context.Context, name string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.leases, name)
	return nil
}
