package services

import (
	"context"
	"time"

	"github.com/Ashen-sam/issue-tracker-api/internal/domain"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"
)

const (
	recentLimit       = 10
	highPriorityLimit = 5
)

// DashboardService computes a user's personal snapshot. The sub-queries
// are independent reads, so they fan out concurrently and join before
// the response is assembled; any failure aborts the whole snapshot.
type DashboardService struct {
	issues IssueStore
	users  UserStore
	log    zerolog.Logger
	now    func() time.Time
}

func NewDashboardService(log zerolog.Logger, issues IssueStore, users UserStore) *DashboardService {
	return &DashboardService{issues: issues, users: users, log: log, now: time.Now}
}

func (s *DashboardService) Get(ctx context.Context, userID primitive.ObjectID) (domain.Dashboard, error) {
	created := domain.CreatedScope(userID)
	assigned := domain.AssignedScope(userID)
	involved := domain.InvolvedScope(userID)
	now := s.now()

	var (
		createdByStatus  map[domain.Status]int64
		assignedByStatus map[domain.Status]int64
		byPriority       map[domain.Priority]int64
		bySeverity       map[domain.Severity]int64

		today, week, month int64

		recentMine     []domain.Issue
		recentAssigned []domain.Issue
		recentActivity []domain.Issue
		highPriority   []domain.Issue
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		createdByStatus, err = s.issues.CountByStatus(gctx, created)
		return err
	})
	g.Go(func() (err error) {
		assignedByStatus, err = s.issues.CountByStatus(gctx, assigned)
		return err
	})
	g.Go(func() (err error) {
		byPriority, err = s.issues.CountByPriority(gctx, created)
		return err
	})
	g.Go(func() (err error) {
		bySeverity, err = s.issues.CountBySeverity(gctx, created)
		return err
	})
	g.Go(func() (err error) {
		today, err = s.issues.CountCreatedSince(gctx, created, startOfDay(now))
		return err
	})
	g.Go(func() (err error) {
		week, err = s.issues.CountCreatedSince(gctx, created, weekAgo(now))
		return err
	})
	g.Go(func() (err error) {
		month, err = s.issues.CountCreatedSince(gctx, created, monthAgo(now))
		return err
	})
	g.Go(func() (err error) {
		recentMine, err = s.issues.Recent(gctx, created, recentLimit)
		return err
	})
	g.Go(func() (err error) {
		recentAssigned, err = s.issues.Recent(gctx, assigned, recentLimit)
		return err
	})
	g.Go(func() (err error) {
		recentActivity, err = s.issues.RecentActivity(gctx, involved, recentLimit)
		return err
	})
	g.Go(func() (err error) {
		highPriority, err = s.issues.HighPriorityAssigned(gctx, userID, highPriorityLimit)
		return err
	})
	if err := g.Wait(); err != nil {
		s.log.Error().Err(err).Str("user", userID.Hex()).Msg("dashboard: aggregation failed")
		return domain.Dashboard{}, err
	}

	profiles, err := s.users.GetMany(ctx, collectActorIDs(recentMine, recentAssigned, recentActivity))
	if err != nil {
		s.log.Error().Err(err).Msg("dashboard: profile join failed")
		return domain.Dashboard{}, err
	}

	totalCreated := sumCounts(createdByStatus)
	totalAssigned := sumCounts(assignedByStatus)

	byStatus := make(map[domain.Status]int64, len(domain.Statuses))
	for _, st := range domain.Statuses {
		byStatus[st] = createdByStatus[st]
	}

	return domain.Dashboard{
		MyIssues:           totalCreated,
		MyOpenIssues:       createdByStatus[domain.StatusOpen],
		MyInProgressIssues: createdByStatus[domain.StatusInProgress],
		MyResolvedIssues:   createdByStatus[domain.StatusResolved],
		MyClosedIssues:     createdByStatus[domain.StatusClosed],
		MyIssuesByStatus:   byStatus,

		AssignedToMe:       totalAssigned,
		AssignedOpen:       assignedByStatus[domain.StatusOpen],
		AssignedInProgress: assignedByStatus[domain.StatusInProgress],
		AssignedUnresolved: totalAssigned - assignedByStatus[domain.StatusResolved] - assignedByStatus[domain.StatusClosed],

		TimeStats: domain.DashboardTimeStats{Today: today, ThisWeek: week, ThisMonth: month},

		StatusBreakdown:   statusBreakdown(createdByStatus, totalCreated),
		PriorityBreakdown: priorityBreakdown(byPriority, totalCreated),
		SeverityBreakdown: severityBreakdown(bySeverity, totalCreated),

		RecentMyIssues:       attachUsers(recentMine, profiles, false, true),
		RecentAssignedIssues: attachUsers(recentAssigned, profiles, true, false),
		RecentActivity:       attachUsers(recentActivity, profiles, true, true),
		HighPriorityAssigned: highPriority,
	}, nil
}
