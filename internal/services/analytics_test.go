package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/Ashen-sam/issue-tracker-api/internal/domain"
	"github.com/Ashen-sam/issue-tracker-api/internal/repo"
	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestGeneralAnalytics_BreakdownsAndResolution(t *testing.T) {
	ctx := context.Background()
	issues := repo.NewMemIssueStore()
	users := repo.NewMemUserStore()

	alice := domain.User{Name: "Alice", Email: "alice@example.com"}
	if err := users.Insert(ctx, &alice); err != nil {
		t.Fatalf("seed: %v", err)
	}

	now := time.Now()
	created := now.Add(-72 * time.Hour)
	resolved := created.Add(36 * time.Hour)
	rows := []domain.Issue{
		{Title: "a", Status: domain.StatusOpen, Priority: domain.PriorityHigh, Severity: domain.SeverityMajor, CreatedBy: alice.ID, CreatedAt: created, UpdatedAt: created},
		{Title: "b", Status: domain.StatusOpen, Priority: domain.PriorityLow, Severity: domain.SeverityMinor, CreatedBy: alice.ID, CreatedAt: created, UpdatedAt: created},
		{Title: "c", Status: domain.StatusResolved, Priority: domain.PriorityMedium, Severity: domain.SeverityMinor, CreatedBy: alice.ID, CreatedAt: created, UpdatedAt: resolved, ResolvedAt: &resolved},
	}
	for n := range rows {
		if err := issues.Insert(ctx, &rows[n]); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	report, err := NewAnalyticsService(zerolog.Nop(), issues, users).General(ctx)
	if err != nil {
		t.Fatalf("general: %v", err)
	}
	if report.TotalIssues != 3 {
		t.Fatalf("total = %d", report.TotalIssues)
	}
	wantStatus := []domain.BreakdownEntry{
		{Label: "Open", Count: 2, Percentage: "66.7"},
		{Label: "Resolved", Count: 1, Percentage: "33.3"},
	}
	if diff := cmp.Diff(wantStatus, report.StatusBreakdown); diff != "" {
		t.Fatalf("status breakdown (-want +got):\n%s", diff)
	}
	wantRes := domain.ResolutionStats{
		TotalResolved:     1,
		AvgResolutionDays: 1.5,
		MinResolutionDays: 1.5,
		MaxResolutionDays: 1.5,
		ResolutionRate:    "33.3",
	}
	if report.ResolutionStats != wantRes {
		t.Fatalf("resolution = %#v, want %#v", report.ResolutionStats, wantRes)
	}
	if report.TimeStats.ThisWeek != 3 || report.TimeStats.Today != 0 {
		t.Fatalf("timeStats = %#v", report.TimeStats)
	}
	if len(report.TopCreators) != 1 || report.TopCreators[0].Count != 3 || report.TopCreators[0].Name != "Alice" {
		t.Fatalf("topCreators = %#v", report.TopCreators)
	}
	if len(report.TopAssignees) != 0 {
		t.Fatalf("no assignments were seeded: %#v", report.TopAssignees)
	}
}

func TestGeneralAnalytics_EmptyCollection(t *testing.T) {
	svc := NewAnalyticsService(zerolog.Nop(), repo.NewMemIssueStore(), repo.NewMemUserStore())
	report, err := svc.General(context.Background())
	if err != nil {
		t.Fatalf("general over empty collection: %v", err)
	}
	if report.TotalIssues != 0 {
		t.Fatalf("total = %d", report.TotalIssues)
	}
	if len(report.StatusBreakdown) != 0 || len(report.MonthlyTrend) != 0 || len(report.TopCreators) != 0 {
		t.Fatalf("expected empty series: %#v", report)
	}
	if report.ResolutionStats.ResolutionRate != "0" {
		t.Fatalf("resolutionRate = %q, want \"0\"", report.ResolutionStats.ResolutionRate)
	}
}

func TestGeneralAnalytics_TimeStatsKeepAllWindowsAtZero(t *testing.T) {
	svc := NewAnalyticsService(zerolog.Nop(), repo.NewMemIssueStore(), repo.NewMemUserStore())
	report, err := svc.General(context.Background())
	if err != nil {
		t.Fatalf("general: %v", err)
	}
	// Zero counts render as 0 on the wire, never as a missing key.
	raw, err := json.Marshal(report.TimeStats)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"today":0,"thisWeek":0,"thisMonth":0,"thisYear":0}`
	if string(raw) != want {
		t.Fatalf("timeStats = %s, want %s", raw, want)
	}
}

func TestGeneralAnalytics_Idempotent(t *testing.T) {
	ctx := context.Background()
	issues := repo.NewMemIssueStore()
	users := repo.NewMemUserStore()
	u := domain.User{Name: "A", Email: "a@example.com"}
	if err := users.Insert(ctx, &u); err != nil {
		t.Fatalf("seed: %v", err)
	}
	now := time.Now()
	for n := 0; n < 5; n++ {
		i := domain.Issue{Title: "x", Status: domain.StatusOpen, Priority: domain.PriorityMedium, Severity: domain.SeverityMinor, CreatedBy: u.ID, CreatedAt: now.Add(-time.Duration(n) * time.Hour), UpdatedAt: now}
		if err := issues.Insert(ctx, &i); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	svc := NewAnalyticsService(zerolog.Nop(), issues, users)
	first, err := svc.General(ctx)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	second, err := svc.General(ctx)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("two runs with no writes differ (-first +second):\n%s", diff)
	}
}

func TestGeneralAnalytics_MonthlyTrendAscendingWithinYear(t *testing.T) {
	ctx := context.Background()
	issues := repo.NewMemIssueStore()
	users := repo.NewMemUserStore()
	creator := primitive.NewObjectID()

	now := time.Now().UTC()
	ages := []time.Duration{
		14 * 24 * time.Hour,
		80 * 24 * time.Hour,
		200 * 24 * time.Hour,
		// outside the trailing year, must not appear
		400 * 24 * time.Hour,
	}
	for _, age := range ages {
		at := now.Add(-age)
		i := domain.Issue{Title: "x", Status: domain.StatusOpen, Priority: domain.PriorityMedium, Severity: domain.SeverityMinor, CreatedBy: creator, CreatedAt: at, UpdatedAt: at}
		if err := issues.Insert(ctx, &i); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	report, err := NewAnalyticsService(zerolog.Nop(), issues, users).General(ctx)
	if err != nil {
		t.Fatalf("general: %v", err)
	}
	trend := report.MonthlyTrend
	if len(trend) != 3 {
		t.Fatalf("trend = %#v, want 3 in-window months", trend)
	}
	cutoff := now.AddDate(-1, 0, 0).Format("2006-01")
	for n, e := range trend {
		if e.Month < cutoff {
			t.Fatalf("entry %q is older than the trailing year", e.Month)
		}
		if n > 0 && trend[n-1].Month >= e.Month {
			t.Fatalf("trend not strictly ascending: %#v", trend)
		}
	}
}

func TestGeneralAnalytics_DropsUnresolvableContributors(t *testing.T) {
	ctx := context.Background()
	issues := repo.NewMemIssueStore()
	users := repo.NewMemUserStore()

	known := domain.User{Name: "Known", Email: "known@example.com"}
	if err := users.Insert(ctx, &known); err != nil {
		t.Fatalf("seed: %v", err)
	}
	ghost := primitive.NewObjectID() // deleted account, dangling reference

	now := time.Now()
	for _, creator := range []primitive.ObjectID{known.ID, known.ID, ghost} {
		i := domain.Issue{Title: "x", Status: domain.StatusOpen, Priority: domain.PriorityMedium, Severity: domain.SeverityMinor, CreatedBy: creator, CreatedAt: now, UpdatedAt: now}
		if err := issues.Insert(ctx, &i); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	report, err := NewAnalyticsService(zerolog.Nop(), issues, users).General(ctx)
	if err != nil {
		t.Fatalf("general: %v", err)
	}
	if len(report.TopCreators) != 1 || report.TopCreators[0].UserID != known.ID {
		t.Fatalf("ghost creator should be dropped: %#v", report.TopCreators)
	}
}

func TestUserAnalytics_ScopesAndAsymmetry(t *testing.T) {
	ctx := context.Background()
	issues := repo.NewMemIssueStore()
	users := repo.NewMemUserStore()

	target := domain.User{Name: "Target", Email: "target@example.com"}
	other := domain.User{Name: "Other", Email: "other@example.com"}
	if err := users.Insert(ctx, &target); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := users.Insert(ctx, &other); err != nil {
		t.Fatalf("seed: %v", err)
	}

	now := time.Now()
	resolved := now.Add(-time.Hour)
	rows := []domain.Issue{
		// created by target
		{Title: "a", Status: domain.StatusOpen, Priority: domain.PriorityHigh, Severity: domain.SeverityMajor, CreatedBy: target.ID, CreatedAt: now.Add(-48 * time.Hour), UpdatedAt: now},
		{Title: "b", Status: domain.StatusResolved, Priority: domain.PriorityLow, Severity: domain.SeverityMinor, CreatedBy: target.ID, CreatedAt: now.Add(-48 * time.Hour), UpdatedAt: resolved, ResolvedAt: &resolved},
		// created by someone else, assigned to target
		{Title: "c", Status: domain.StatusInProgress, Priority: domain.PriorityCritical, Severity: domain.SeverityCritical, CreatedBy: other.ID, AssignedTo: &target.ID, CreatedAt: now.Add(-24 * time.Hour), UpdatedAt: now},
	}
	for n := range rows {
		if err := issues.Insert(ctx, &rows[n]); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	report, err := NewAnalyticsService(zerolog.Nop(), issues, users).ForUser(ctx, target.ID)
	if err != nil {
		t.Fatalf("forUser: %v", err)
	}
	if report.User.Name != "Target" || report.User.Email != "target@example.com" {
		t.Fatalf("profile = %#v", report.User)
	}
	if report.Created.Total != 2 || report.Assigned.Total != 1 {
		t.Fatalf("totals: created %d assigned %d", report.Created.Total, report.Assigned.Total)
	}
	if report.Created.ResolutionStats.TotalResolved != 1 {
		t.Fatalf("created resolution = %#v", report.Created.ResolutionStats)
	}
	if len(report.Assigned.StatusBreakdown) != 1 || report.Assigned.StatusBreakdown[0].Label != "In Progress" {
		t.Fatalf("assigned breakdown = %#v", report.Assigned.StatusBreakdown)
	}
	var createdSum, assignedSum int64
	for _, e := range report.Created.StatusBreakdown {
		createdSum += e.Count
	}
	for _, e := range report.Assigned.StatusBreakdown {
		assignedSum += e.Count
	}
	if createdSum != report.Created.Total || assignedSum != report.Assigned.Total {
		t.Fatalf("breakdown sums: created %d/%d assigned %d/%d", createdSum, report.Created.Total, assignedSum, report.Assigned.Total)
	}
}

func TestUserAnalytics_UnknownUser(t *testing.T) {
	svc := NewAnalyticsService(zerolog.Nop(), repo.NewMemIssueStore(), repo.NewMemUserStore())
	_, err := svc.ForUser(context.Background(), primitive.NewObjectID())
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

// failingIssues makes the total count fail so the fan-out's fail-fast
// join can be observed from the outside.
type failingIssues struct {
	*repo.MemIssueStore
}

var errStoreDown = errors.New("store down")

func (f failingIssues) Count(context.Context, domain.Scope) (int64, error) {
	return 0, errStoreDown
}

func TestGeneralAnalytics_SubQueryFailureFailsWhole(t *testing.T) {
	svc := NewAnalyticsService(zerolog.Nop(), failingIssues{repo.NewMemIssueStore()}, repo.NewMemUserStore())
	_, err := svc.General(context.Background())
	if !errors.Is(err, errStoreDown) {
		t.Fatalf("err = %v, want the sub-query error", err)
	}
}
