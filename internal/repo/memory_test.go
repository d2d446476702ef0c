package repo

import (
	"context"
	"testing"
	"time"

	"github.com/Ashen-sam/issue-tracker-api/internal/domain"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestMemLocker_OneHolderUntilExpiry(t *testing.T) {
	l := NewMemLocker()
	ctx := context.Background()

	ok, err := l.TryLock(ctx, "job", 50*time.Millisecond)
	if err != nil || !ok {
		t.Fatalf("first acquire: ok=%v err=%v", ok, err)
	}
	ok, err = l.TryLock(ctx, "job", 50*time.Millisecond)
	if err != nil || ok {
		t.Fatalf("second acquire should fail while held: ok=%v err=%v", ok, err)
	}
	// A different name is a different lease.
	ok, err = l.TryLock(ctx, "other", 50*time.Millisecond)
	if err != nil || !ok {
		t.Fatalf("unrelated lease blocked: ok=%v err=%v", ok, err)
	}

	time.Sleep(60 * time.Millisecond)
	ok, err = l.TryLock(ctx, "job", time.Minute)
	if err != nil || !ok {
		t.Fatalf("expired lease not reclaimable: ok=%v err=%v", ok, err)
	}

	if err := l.Unlock(ctx, "job"); err != nil {
		t.Fatalf("unlock: %v", err)
	}
	ok, err = l.TryLock(ctx, "job", time.Minute)
	if err != nil || !ok {
		t.Fatalf("released lease not reclaimable: ok=%v err=%v", ok, err)
	}
}

func TestMemIssueStore_TopActorsSkipsUnassigned(t *testing.T) {
	s := NewMemIssueStore()
	ctx := context.Background()
	creator := primitive.NewObjectID()
	assignee := primitive.NewObjectID()
	now := time.Now()

	rows := []domain.Issue{
		{Title: "a", Status: domain.StatusOpen, Priority: domain.PriorityMedium, Severity: domain.SeverityMinor, CreatedBy: creator, AssignedTo: &assignee, CreatedAt: now, UpdatedAt: now},
		{Title: "b", Status: domain.StatusOpen, Priority: domain.PriorityMedium, Severity: domain.SeverityMinor, CreatedBy: creator, CreatedAt: now, UpdatedAt: now},
	}
	for n := range rows {
		if err := s.Insert(ctx, &rows[n]); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	got, err := s.TopActors(ctx, domain.ActorAssignee, 10)
	if err != nil {
		t.Fatalf("topActors: %v", err)
	}
	if len(got) != 1 || got[0].UserID != assignee || got[0].Count != 1 {
		t.Fatalf("assignee buckets = %#v", got)
	}

	got, err = s.TopActors(ctx, domain.ActorCreator, 10)
	if err != nil {
		t.Fatalf("topActors: %v", err)
	}
	if len(got) != 1 || got[0].Count != 2 {
		t.Fatalf("creator buckets = %#v", got)
	}
}
