/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package services

import (
	"context"
	"time"

	"github.com/Ashen-sam/issue-tracker-api/internal/domain"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"
)

const topContributorLimit = 10

// AnalyticsService computes the system-wide report and the per-user
// report. Sub-queries never depend on each other's results, so both
// entry points fan out concurrently and fail as a whole if any read
// fails; sequential execution would yield identical numbers.
type AnalyticsService struct {
	issues IssueStore
	users  UserStore
	log    zerolog.Logger
	now    func() time.Time
}

func NewAnalyticsService(log zerolog.Logger, issues IssueStore, users UserStore) *AnalyticsService {
	return &AnalyticsService{issues: issues, users: users, log: log, now: time.Now}
}

// General reports over the entire issue collection.
func (s *AnalyticsService) General(ctx context.Context) (domain.GeneralAnalytics, error) {
	scope := domain.GlobalScope()
	now := s.now()

	var (
		total      int64
		byStatus   map[domain.Status]int64
		byPriority map[domain.Priority]int64
		bySeverity map[domain.Severity]int64

		today, week, month, year int64

		resolution domain.ResolutionAggregate
		creators   []domain.ActorCount
		assignees  []domain.ActorCount
		months     []domain.MonthCount
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		total, err = s.issues.Count(gctx, scope)
		return err
	})
	g.Go(func() (err error) {
		byStatus, err = s.issues.CountByStatus(gctx, scope)
		return err
	})
	g.Go(func() (err error) {
		byPriority, err = s.issues.CountByPriority(gctx, scope)
		return err
	})
	g.Go(func() (err error) {
		bySeverity, err = s.issues.CountBySeverity(gctx, scope)
		return err
	})
	g.Go(func() (err error) {
		today, err = s.issues.CountCreatedSince(gctx, scope, startOfDay(now))
		return err
	})
	g.Go(func() (err error) {
		week, err = s.issues.CountCreatedSince(gctx, scope, weekAgo(now))
		return err
	})
	g.Go(func() (err error) {
		month, err = s.issues.CountCreatedSince(gctx, scope, monthAgo(now))
		return err
	})
	g.Go(func() (err error) {
		year, err = s.issues.CountCreatedSince(gctx, scope, yearAgo(now))
		return err
	})
	g.Go(func() (err error) {
		resolution, err = s.issues.ResolutionAggregate(gctx, scope)
		return err
	})
	g.Go(func() (err error) {
		creators, err = s.issues.TopActors(gctx, domain.ActorCreator, topContributorLimit)
		return err
	})
	g.Go(func() (err error) {
		assignees, err = s.issues.TopActors(gctx, domain.ActorAssignee, topContributorLimit)
		return err
	})
	g.Go(func() (err error) {
		months, err = s.issues.MonthlyCounts(gctx, scope, yearAgo(now))
		return err
	})
	if err := g.Wait(); err != nil {
		s.log.Error().Err(err).Msg("analytics: general aggregation failed")
		return domain.GeneralAnalytics{}, err
	}

	ids := make([]primitive.ObjectID, 0, len(creators)+len(assignees))
	for _, c := range creators {
		ids = append(ids, c.UserID)
	}
	for _, a := range assignees {
		ids = append(ids, a.UserID)
	}
	profiles, err := s.users.GetMany(ctx, ids)
	if err != nil {
		s.log.Error().Err(err).Msg("analytics: contributor join failed")
		return domain.GeneralAnalytics{}, err
	}

	return domain.GeneralAnalytics{
		TotalIssues:       total,
		StatusBreakdown:   statusBreakdown(byStatus, total),
		PriorityBreakdown: priorityBreakdown(byPriority, total),
		SeverityBreakdown: severityBreakdown(bySeverity, total),
		TimeStats:         domain.TimeStats{Today: today, ThisWeek: week, ThisMonth: month, ThisYear: year},
		ResolutionStats:   resolutionStats(resolution, total),
		TopCreators:       joinContributors(creators, profiles),
		TopAssignees:      joinContributors(assignees, profiles),
		MonthlyTrend:      trendSeries(months),
	}, nil
}

// ForUser reports on one target user: the full scoped report over issues
// they created, and only a status breakdown over issues assigned to
// them. The thin assigned side is intentional, not an oversight.
func (s *AnalyticsService) ForUser(ctx context.Context, userID primitive.ObjectID) (domain.UserAnalytics, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return domain.UserAnalytics{}, err
	}
	created := domain.CreatedScope(userID)
	assigned := domain.AssignedScope(userID)
	now := s.now()

	var (
		byStatus   map[domain.Status]int64
		byPriority map[domain.Priority]int64
		bySeverity map[domain.Severity]int64

		today, week, month, year int64

		resolution       domain.ResolutionAggregate
		months           []domain.MonthCount
		assignedByStatus map[domain.Status]int64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		byStatus, err = s.issues.CountByStatus(gctx, created)
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
		year, err = s.issues.CountCreatedSince(gctx, created, yearAgo(now))
		return err
	})
	g.Go(func() (err error) {
		resolution, err = s.issues.ResolutionAggregate(gctx, created)
		return err
	})
	g.Go(func() (err error) {
		months, err = s.issues.MonthlyCounts(gctx, created, yearAgo(now))
		return err
	})
	g.Go(func() (err error) {
		assignedByStatus, err = s.issues.CountByStatus(gctx, assigned)
		return err
	})
	if err := g.Wait(); err != nil {
		s.log.Error().Err(err).Str("user", userID.Hex()).Msg("analytics: user aggregation failed")
		return domain.UserAnalytics{}, err
	}

	createdTotal := sumCounts(byStatus)
	assignedTotal := sumCounts(assignedByStatus)

	return domain.UserAnalytics{
		User: u.Info(),
		Created: domain.ScopedAnalytics{
			Total:             createdTotal,
			StatusBreakdown:   statusBreakdown(byStatus, createdTotal),
			PriorityBreakdown: priorityBreakdown(byPriority, createdTotal),
			SeverityBreakdown: severityBreakdown(bySeverity, createdTotal),
			TimeStats:         domain.TimeStats{Today: today, ThisWeek: week, ThisMonth: month, ThisYear: year},
			ResolutionStats:   resolutionStats(resolution, createdTotal),
			MonthlyTrend:      trendSeries(months),
		},
		Assigned: domain.AssignedAnalytics{
			Total:           assignedTotal,
			StatusBreakdown: statusBreakdown(assignedByStatus, assignedTotal),
		},
	}, nil
}
