package services

import (
	"context"
	"time"

	"github.com/Ashen-sam/issue-tracker-api/internal/domain"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

var sortFields = map[string]bool{
	"createdAt": true,
	"updatedAt": true,
	"title":     true,
	"status":    true,
	"priority":  true,
	"severity":  true,
}

// NewIssue carries the creation fields. Zero-valued enums fall back to
// the documented defaults.
type NewIssue struct {
	Title       string
	Description string
	Status      domain.Status
	Priority    domain.Priority
	Severity    domain.Severity
	AssignedTo  *primitive.ObjectID
}

// IssueService owns the issue lifecycle, including the one-shot
// resolvedAt stamp on the first transition into a terminal status.
type IssueService struct {
	issues IssueStore
	users  UserStore
	log    zerolog.Logger
	now    func() time.Time
}

func NewIssueService(log zerolog.Logger, issues IssueStore, users UserStore) *IssueService {
	return &IssueService{issues: issues, users: users, log: log, now: time.Now}
}

func (s *IssueService) Create(ctx context.Context, createdBy primitive.ObjectID, in NewIssue) (domain.Issue, error) {
	if in.Status == "" {
		in.Status = domain.StatusOpen
	}
	if in.Priority == "" {
		in.Priority = domain.PriorityMedium
	}
	if in.Severity == "" {
		in.Severity = domain.SeverityMinor
	}
	now := s.now()
	issue := domain.Issue{
		Title:       in.Title,
		Description: in.Description,
		Status:      in.Status,
		Priority:    in.Priority,
		Severity:    in.Severity,
		CreatedBy:   createdBy,
		AssignedTo:  in.AssignedTo,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.issues.Insert(ctx, &issue); err != nil {
		return domain.Issue{}, err
	}
	return issue, nil
}

// Get returns the issue with creator and assignee profiles attached.
func (s *IssueService) Get(ctx context.Context, id primitive.ObjectID) (domain.IssueWithUsers, error) {
	issue, err := s.issues.Get(ctx, id)
	if err != nil {
		return domain.IssueWithUsers{}, err
	}
	profiles, err := s.users.GetMany(ctx, collectActorIDs([]domain.Issue{issue}))
	if err != nil {
		return domain.IssueWithUsers{}, err
	}
	return attachUsers([]domain.Issue{issue}, profiles, true, true)[0], nil
}

// Update applies a partial update as one atomic store operation, so a
// concurrent writer can never push a stale full document back over the
// resolvedAt stamp. The stamping rule itself lives with the stores:
// domain.IssueUpdate.Apply for in-memory, a single pipeline update for
// Mongo.
func (s *IssueService) Update(ctx context.Context, id primitive.ObjectID, upd domain.IssueUpdate) (domain.Issue, error) {
	return s.issues.ApplyUpdate(ctx, id, upd, s.now())
}

func (s *IssueService) Delete(ctx context.Context, id primitive.ObjectID) error {
	return s.issues.Delete(ctx, id)
}

// List pages through issues with the filters normalized: page ≥ 1, limit
// bounded, sort field whitelisted. Alongside the page it returns the
// unfiltered status-count summary.
func (s *IssueService) List(ctx context.Context, q domain.ListQuery) ([]domain.Issue, domain.Pagination, map[domain.Status]int64, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = defaultPageSize
	}
	if q.Limit > maxPageSize {
		q.Limit = maxPageSize
	}
	if !sortFields[q.SortBy] {
		q.SortBy = "createdAt"
	}
	if q.SortOrder != "asc" {
		q.SortOrder = "desc"
	}
	issues, total, err := s.issues.List(ctx, q)
	if err != nil {
		return nil, domain.Pagination{}, nil, err
	}
	byStatus, err := s.issues.CountByStatus(ctx, domain.GlobalScope())
	if err != nil {
		return nil, domain.Pagination{}, nil, err
	}
	counts := make(map[domain.Status]int64, len(domain.Statuses))
	for _, st := range domain.Statuses {
		counts[st] = byStatus[st]
	}
	p := domain.Pagination{
		Total: total,
		Page:  q.Page,
		Pages: (total + q.Limit - 1) / q.Limit,
		Limit: q.Limit,
	}
	return issues, p, counts, nil
}
