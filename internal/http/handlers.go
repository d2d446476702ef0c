/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/Ashen-sam/issue-tracker-api/internal/config"
	"github.com/Ashen-sam/issue-tracker-api/internal/domain"
	"github.com/Ashen-sam/issue-tracker-api/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Handlers binds the service layer to the HTTP surface. Each handler
// validates the request shape, calls exactly one service entry point and
// maps its error onto the status-code contract.
type Handlers struct {
	cfg       config.Config
	log       zerolog.Logger
	auth      *services.AuthService
	issues    *services.IssueService
	dashboard *services.DashboardService
	analytics *services.AnalyticsService
	snapshots *services.SnapshotService
}

func NewHandlers(cfg config.Config, log zerolog.Logger,
	auth *services.AuthService, issues *services.IssueService,
	dashboard *services.DashboardService, analytics *services.AnalyticsService,
	snapshots *services.SnapshotService) *Handlers {
	return &Handlers{
		cfg: cfg, log: log,
		auth: auth, issues: issues,
		dashboard: dashboard, analytics: analytics,
		snapshots: snapshots,
	}
}

func (h *Handlers) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handlers) LastRun(c *gin.Context) {
	snap, err := h.snapshots.Last(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (h *Handlers) RunNow(c *gin.Context) {
	// Detached from the request context so a client disconnect doesn't
	// cancel the run mid-aggregation, but bounded like the cron path so
	// a hung store call can't outlive the lease.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		if _, err := h.snapshots.Run(ctx, "manual"); err != nil && !errors.Is(err, services.ErrSnapshotBusy) {
			h.log.Error().Err(err).Msg("manual snapshot failed")
		}
	}()
	c.JSON(http.StatusAccepted, gin.H{"status": "queued"})
}

// fail translates a service error into the wire contract: conflict and
// credential errors carry a field-level list, lookup failures a message,
// everything else a generic 500 with the cause logged server-side only.
// Shape validation never reaches here; handlers reject it inline before
// calling a service.
func (h *Handlers) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrEmailTaken):
		c.JSON(http.StatusBadRequest, gin.H{"errors": []domain.FieldError{{Field: "email", Msg: "email already registered"}}})
	case errors.Is(err, domain.ErrInvalidCredentials):
		c.JSON(http.StatusBadRequest, gin.H{"errors": []domain.FieldError{{Msg: "invalid credentials"}}})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"msg": "not found"})
	default:
		h.log.Error().Err(err).Str("p", c.FullPath()).Msg("handler error")
		c.JSON(http.StatusInternalServerError, gin.H{"msg": "server error"})
	}
}
