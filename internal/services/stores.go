package services

import (
	"context"
	"time"

	"github.com/Ashen-sam/issue-tracker-api/internal/domain"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// IssueStore is the persistence surface the issue, dashboard and
// analytics services consume. Every aggregation is a named query so each
// can be exercised on its own.
type IssueStore interface {
	Insert(ctx context.Context, i *domain.Issue) error
	Get(ctx context.Context, id primitive.ObjectID) (domain.Issue, error)
	// ApplyUpdate applies a partial update as one atomic read-modify-
	// write, including the one-shot resolvedAt stamp, and returns the
	// updated document.
	ApplyUpdate(ctx context.Context, id primitive.ObjectID, upd domain.IssueUpdate, now time.Time) (domain.Issue, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	List(ctx context.Context, q domain.ListQuery) ([]domain.Issue, int64, error)

	Count(ctx context.Context, scope domain.Scope) (int64, error)
	CountCreatedSince(ctx context.Context, scope domain.Scope, since time.Time) (int64, error)
	CountByStatus(ctx context.Context, scope domain.Scope) (map[domain.Status]int64, error)
	CountByPriority(ctx context.Context, scope domain.Scope) (map[domain.Priority]int64, error)
	CountBySeverity(ctx context.Context, scope domain.Scope) (map[domain.Severity]int64, error)
	ResolutionAggregate(ctx context.Context, scope domain.Scope) (domain.ResolutionAggregate, error)
	MonthlyCounts(ctx context.Context, scope domain.Scope, since time.Time) ([]domain.MonthCount, error)
	TopActors(ctx context.Context, field domain.ActorField, limit int) ([]domain.ActorCount, error)
	Recent(ctx context.Context, scope domain.Scope, limit int) ([]domain.Issue, error)
	RecentActivity(ctx context.Context, scope domain.Scope, limit int) ([]domain.Issue, error)
	HighPriorityAssigned(ctx context.Context, userID primitive.ObjectID, limit int) ([]domain.Issue, error)
}

// UserStore is the account persistence surface.
type UserStore interface {
	Insert(ctx context.Context, u *domain.User) error
	GetByID(ctx context.Context, id primitive.ObjectID) (domain.User, error)
	GetByEmail(ctx context.Context, email string) (domain.User, error)
	Update(ctx context.Context, u domain.User) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	GetMany(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]domain.UserInfo, error)
}

// SnapshotStore keeps the analytics job's run history.
type SnapshotStore interface {
	Insert(ctx context.Context, snap *domain.Snapshot) error
	Last(ctx context.Context) (domain.Snapshot, error)
}

// Locker hands out named leases so only one snapshot run happens at a
// time across instances.
type Locker interface {
	TryLock(ctx context.Context, name string, ttl time.Duration) (bool, error)
	Unlock(ctx context.Context, name string) error
}
