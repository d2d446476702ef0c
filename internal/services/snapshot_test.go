package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Ashen-sam/issue-tracker-api/internal/domain"
	"github.com/Ashen-sam/issue-tracker-api/internal/repo"
	"github.com/rs/zerolog"
)

func newSnapshotService(issues IssueStore) (*SnapshotService, *repo.MemSnapshotStore, *repo.MemLocker) {
	users := repo.NewMemUserStore()
	analytics := NewAnalyticsService(zerolog.Nop(), issues, users)
	snaps := repo.NewMemSnapshotStore()
	locker := repo.NewMemLocker()
	return NewSnapshotService(zerolog.Nop(), analytics, snaps, locker), snaps, locker
}

func TestSnapshotRun_PersistsReportWithMetadata(t *testing.T) {
	svc, _, _ := newSnapshotService(repo.NewMemIssueStore())
	snap, err := svc.Run(context.Background(), "manual")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !snap.Success || snap.Trigger != "manual" || snap.Report == nil {
		t.Fatalf("snapshot = %#v", snap)
	}
	if snap.TakenAt.IsZero() || snap.DurationMS < 0 {
		t.Fatalf("run metadata missing: %#v", snap)
	}

	last, err := svc.Last(context.Background())
	if err != nil {
		t.Fatalf("last: %v", err)
	}
	if last.ID != snap.ID {
		t.Fatalf("last run is %s, want %s", last.ID.Hex(), snap.ID.Hex())
	}
}

func TestSnapshotRun_SkipsWhenLeaseHeldElsewhere(t *testing.T) {
	svc, snaps, locker := newSnapshotService(repo.NewMemIssueStore())
	ctx := context.Background()
	if ok, err := locker.TryLock(ctx, snapshotLockName, time.Minute); err != nil || !ok {
		t.Fatalf("pre-lock: %v", err)
	}
	_, err := svc.Run(ctx, "cron")
	if !errors.Is(err, ErrSnapshotBusy) {
		t.Fatalf("err = %v, want ErrSnapshotBusy", err)
	}
	if _, err := snaps.Last(ctx); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("skipped run must not persist a record")
	}
}

func TestSnapshotRun_RecordsFailedAggregation(t *testing.T) {
	svc, snaps, _ := newSnapshotService(failingIssues{repo.NewMemIssueStore()})
	ctx := context.Background()
	_, err := svc.Run(ctx, "cron")
	if !errors.Is(err, errStoreDown) {
		t.Fatalf("err = %v, want the aggregation error", err)
	}
	last, err := snaps.Last(ctx)
	if err != nil {
		t.Fatalf("failed run must still persist: %v", err)
	}
	if last.Success || last.Error == "" || last.Report != nil {
		t.Fatalf("failure record = %#v", last)
	}
}

func TestSnapshotRun_ReleasesLease(t *testing.T) {
	svc, _, locker := newSnapshotService(repo.NewMemIssueStore())
	ctx := context.Background()
	if _, err := svc.Run(ctx, "cron"); err != nil {
		t.Fatalf("run: %v", err)
	}
	ok, err := locker.TryLock(ctx, snapshotLockName, time.Minute)
	if err != nil || !ok {
		t.Fatalf("lease not released after run: ok=%v err=%v", ok, err)
	}
}
