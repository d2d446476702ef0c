package services

import (
	"context"
	"testing"
	"time"

	"github.com/Ashen-sam/issue-tracker-api/internal/domain"
	"github.com/Ashen-sam/issue-tracker-api/internal/repo"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fixture struct {
	issues *repo.MemIssueStore
	users  *repo.MemUserStore
	userA  domain.User
	userB  domain.User
}

// seedScenario loads the canonical two-user data set: A created three
// issues (two Open, one Resolved), one of the open ones is assigned to B
// with priority Critical.
func seedScenario(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()
	f := fixture{issues: repo.NewMemIssueStore(), users: repo.NewMemUserStore()}

	f.userA = domain.User{Name: "Alice", Email: "alice@example.com"}
	f.userB = domain.User{Name: "Bob", Email: "bob@example.com"}
	if err := f.users.Insert(ctx, &f.userA); err != nil {
		t.Fatalf("seed user A: %v", err)
	}
	if err := f.users.Insert(ctx, &f.userB); err != nil {
		t.Fatalf("seed user B: %v", err)
	}

	now := time.Now()
	created := now.Add(-48 * time.Hour)
	resolvedAt := created.Add(24 * time.Hour)
	rows := []domain.Issue{
		{
			Title: "crash on login", Description: "d",
			Status: domain.StatusOpen, Priority: domain.PriorityCritical, Severity: domain.SeverityMajor,
			CreatedBy: f.userA.ID, AssignedTo: &f.userB.ID,
			CreatedAt: created, UpdatedAt: created,
		},
		{
			Title: "typo on banner", Description: "d",
			Status: domain.StatusOpen, Priority: domain.PriorityLow, Severity: domain.SeverityMinor,
			CreatedBy: f.userA.ID,
			CreatedAt: created.Add(time.Hour), UpdatedAt: created.Add(time.Hour),
		},
		{
			Title: "slow dashboard", Description: "d",
			Status: domain.StatusResolved, Priority: domain.PriorityMedium, Severity: domain.SeverityMinor,
			CreatedBy: f.userA.ID,
			CreatedAt: created, UpdatedAt: resolvedAt, ResolvedAt: &resolvedAt,
		},
	}
	for n := range rows {
		if err := f.issues.Insert(ctx, &rows[n]); err != nil {
			t.Fatalf("seed issue %d: %v", n, err)
		}
	}
	return f
}

func TestDashboard_CreatorCounts(t *testing.T) {
	f := seedScenario(t)
	svc := NewDashboardService(zerolog.Nop(), f.issues, f.users)

	d, err := svc.Get(context.Background(), f.userA.ID)
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if d.MyIssues != 3 || d.MyOpenIssues != 2 || d.MyResolvedIssues != 1 {
		t.Fatalf("counts: %#v", d)
	}
	want := map[domain.Status]int64{
		domain.StatusOpen:       2,
		domain.StatusInProgress: 0,
		domain.StatusResolved:   1,
		domain.StatusClosed:     0,
	}
	for st, n := range want {
		if d.MyIssuesByStatus[st] != n {
			t.Fatalf("myIssuesByStatus[%s] = %d, want %d", st, d.MyIssuesByStatus[st], n)
		}
	}

	var sum int64
	for _, e := range d.StatusBreakdown {
		sum += e.Count
	}
	if sum != d.MyIssues {
		t.Fatalf("breakdown sums to %d, total is %d", sum, d.MyIssues)
	}
	if len(d.RecentMyIssues) != 3 {
		t.Fatalf("recentMyIssues: %#v", d.RecentMyIssues)
	}
	// The assigned issue carries Bob's profile in the join.
	for _, e := range d.RecentMyIssues {
		if e.AssignedTo != nil && (e.Assignee == nil || e.Assignee.Name != "Bob") {
			t.Fatalf("assignee join missing: %#v", e)
		}
	}
}

func TestDashboard_AssigneeCounts(t *testing.T) {
	f := seedScenario(t)
	svc := NewDashboardService(zerolog.Nop(), f.issues, f.users)

	d, err := svc.Get(context.Background(), f.userB.ID)
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if d.AssignedToMe != 1 || d.AssignedOpen != 1 || d.AssignedUnresolved != 1 {
		t.Fatalf("assigned counts: %#v", d)
	}
	if len(d.HighPriorityAssigned) != 1 {
		t.Fatalf("highPriorityAssigned: %#v", d.HighPriorityAssigned)
	}
	if d.HighPriorityAssigned[0].Priority != domain.PriorityCritical {
		t.Fatalf("expected the Critical issue, got %#v", d.HighPriorityAssigned[0])
	}
	// B created nothing.
	if d.MyIssues != 0 || len(d.StatusBreakdown) != 0 {
		t.Fatalf("expected empty creator side: %#v", d)
	}
	if len(d.RecentAssignedIssues) != 1 || d.RecentAssignedIssues[0].Creator == nil || d.RecentAssignedIssues[0].Creator.Name != "Alice" {
		t.Fatalf("creator join missing: %#v", d.RecentAssignedIssues)
	}
}

func TestDashboard_ZeroIssueUser(t *testing.T) {
	f := seedScenario(t)
	svc := NewDashboardService(zerolog.Nop(), f.issues, f.users)

	d, err := svc.Get(context.Background(), primitive.NewObjectID())
	if err != nil {
		t.Fatalf("dashboard must tolerate zero-issue users: %v", err)
	}
	if d.MyIssues != 0 || d.AssignedToMe != 0 {
		t.Fatalf("counts: %#v", d)
	}
	if len(d.StatusBreakdown) != 0 || len(d.PriorityBreakdown) != 0 || len(d.SeverityBreakdown) != 0 {
		t.Fatalf("breakdowns not empty: %#v", d)
	}
	if len(d.RecentMyIssues) != 0 || len(d.RecentActivity) != 0 || len(d.HighPriorityAssigned) != 0 {
		t.Fatalf("lists not empty: %#v", d)
	}
}

func TestDashboard_HighPriorityOrdering(t *testing.T) {
	ctx := context.Background()
	issues := repo.NewMemIssueStore()
	users := repo.NewMemUserStore()
	me := primitive.NewObjectID()

	now := time.Now()
	rows := []domain.Issue{
		{Title: "old high", Status: domain.StatusOpen, Priority: domain.PriorityHigh, Severity: domain.SeverityMinor, CreatedBy: me, AssignedTo: &me, CreatedAt: now.Add(-3 * time.Hour), UpdatedAt: now},
		{Title: "critical", Status: domain.StatusOpen, Priority: domain.PriorityCritical, Severity: domain.SeverityMinor, CreatedBy: me, AssignedTo: &me, CreatedAt: now.Add(-5 * time.Hour), UpdatedAt: now},
		{Title: "new high", Status: domain.StatusOpen, Priority: domain.PriorityHigh, Severity: domain.SeverityMinor, CreatedBy: me, AssignedTo: &me, CreatedAt: now.Add(-1 * time.Hour), UpdatedAt: now},
		{Title: "closed critical", Status: domain.StatusClosed, Priority: domain.PriorityCritical, Severity: domain.SeverityMinor, CreatedBy: me, AssignedTo: &me, CreatedAt: now, UpdatedAt: now},
		{Title: "medium", Status: domain.StatusOpen, Priority: domain.PriorityMedium, Severity: domain.SeverityMinor, CreatedBy: me, AssignedTo: &me, CreatedAt: now, UpdatedAt: now},
	}
	for n := range rows {
		if err := issues.Insert(ctx, &rows[n]); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	d, err := NewDashboardService(zerolog.Nop(), issues, users).Get(ctx, me)
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	got := make([]string, 0, len(d.HighPriorityAssigned))
	for _, i := range d.HighPriorityAssigned {
		got = append(got, i.Title)
	}
	want := []string{"critical", "new high", "old high"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for n := range want {
		if got[n] != want[n] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}
