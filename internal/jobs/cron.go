package jobs

import (
	"context"
	"errors"
	"time"

	"github.com/Ashen-sam/issue-tracker-api/internal/config"
	"github.com/Ashen-sam/issue-tracker-api/internal/services"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Cron fires the scheduled analytics snapshot. The store lease inside
// SnapshotService keeps replicas from capturing the same run twice, so
// the schedule itself needs no coordination.
type Cron struct {
	cfg  config.Config
	log  zerolog.Logger
	snap *services.SnapshotService
	c    *cron.Cron
}

func NewCron(cfg config.Config, log zerolog.Logger, snap *services.SnapshotService) *Cron {
	loc, _ := time.LoadLocation(cfg.TZ)
	c := cron.New(cron.WithLocation(loc), cron.WithParser(cron.NewParser(cron.Minute|cron.Hour|cron.Dom|cron.Month|cron.Dow)))
	cr := &Cron{cfg: cfg, log: log, snap: snap, c: c}
	if _, err := c.AddFunc(cfg.SnapshotCron, cr.capture); err != nil {
		log.Error().Err(err).Str("spec", cfg.SnapshotCron).Msg("cron: bad snapshot schedule")
	}
	return cr
}

func (cr *Cron) Start() { cr.c.Start() }
func (cr *Cron) Stop()  { cr.c.Stop() }

func (cr *Cron) capture() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	cr.log.Info().Msg("cron: analytics snapshot")
	if _, err := cr.snap.Run(ctx, "cron"); err != nil && !errors.Is(err, services.ErrSnapshotBusy) {
		cr.log.Error().Err(err).Msg("cron: snapshot failed")
	}
}
