package services

import (
	"context"
	"errors"
	"time"

	"github.com/Ashen-sam/issue-tracker-api/internal/domain"
	"github.com/rs/zerolog"
)

const (
	snapshotLockName = "analytics_snapshot"
	snapshotLockTTL  = 5 * time.Minute
)

// ErrSnapshotBusy reports that another instance holds the snapshot lease.
var ErrSnapshotBusy = errors.New("snapshot already running")

// SnapshotService runs the scheduled analytics capture: take the lease,
// compute the general report, persist the run record either way.
type SnapshotService struct {
	analytics *AnalyticsService
	snaps     SnapshotStore
	locker    Locker
	log       zerolog.Logger
	now       func() time.Time
}

func NewSnapshotService(log zerolog.Logger, analytics *AnalyticsService, snaps SnapshotStore, locker Locker) *SnapshotService {
	return &SnapshotService{analytics: analytics, snaps: snaps, locker: locker, log: log, now: time.Now}
}

// Run captures one snapshot. trigger records what started the run
// ("cron" or "manual"). Failed aggregations still persist a run record
// carrying the error.
func (s *SnapshotService) Run(ctx context.Context, trigger string) (domain.Snapshot, error) {
	ok, err := s.locker.TryLock(ctx, snapshotLockName, snapshotLockTTL)
	if err != nil {
		return domain.Snapshot{}, err
	}
	if !ok {
		s.log.Info().Str("trigger", trigger).Msg("snapshot: lease held elsewhere, skipping")
		return domain.Snapshot{}, ErrSnapshotBusy
	}
	defer func() {
		if err := s.locker.Unlock(ctx, snapshotLockName); err != nil {
			s.log.Warn().Err(err).Msg("snapshot: unlock failed")
		}
	}()

	start := s.now()
	report, runErr := s.analytics.General(ctx)
	snap := domain.Snapshot{
		TakenAt:    start,
		DurationMS: s.now().Sub(start).Milliseconds(),
		Trigger:    trigger,
		Success:    runErr == nil,
	}
	if runErr != nil {
		snap.Error = runErr.Error()
	} else {
		snap.Report = &report
	}
	if err := s.snaps.Insert(ctx, &snap); err != nil {
		s.log.Error().Err(err).Msg("snapshot: persist failed")
		return domain.Snapshot{}, err
	}
	if runErr != nil {
		s.log.Error().Err(runErr).Str("trigger", trigger).Msg("snapshot: aggregation failed")
		return snap, runErr
	}
	s.log.Info().Str("trigger", trigger).Int64("duration_ms", snap.DurationMS).Msg("snapshot: captured")
	return snap, nil
}

// Last returns the most recent run record.
func (s *SnapshotService) Last(ctx context.Context) (domain.Snapshot, error) {
	return s.snaps.Last(ctx)
}
