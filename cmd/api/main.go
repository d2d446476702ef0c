/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Ashen-sam/issue-tracker-api/internal/config"
	apihttp "github.com/Ashen-sam/issue-tracker-api/internal/http"
	"github.com/Ashen-sam/issue-tracker-api/internal/jobs"
	"github.com/Ashen-sam/issue-tracker-api/internal/logger"
	"github.com/Ashen-sam/issue-tracker-api/internal/repo"
	"github.com/Ashen-sam/issue-tracker-api/internal/services"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db := repo.MustOpen(ctx, cfg, log)
	defer db.Close()
	if err := db.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("index setup failed")
	}

	// Stores
	issueStore := repo.NewIssueStore(db, log)
	userStore := repo.NewUserStore(db, log)
	snapStore := repo.NewSnapshotStore(db, log)

	// Services
	tokens := services.NewTokenManager(cfg)
	auth := services.NewAuthService(cfg, log, userStore, tokens)
	issues := services.NewIssueService(log, issueStore, userStore)
	dashboard := services.NewDashboardService(log, issueStore, userStore)
	analytics := services.NewAnalyticsService(log, issueStore, userStore)
	snapshots := services.NewSnapshotService(log, analytics, snapStore, db)

	// HTTP server (Gin)
	h := apihttp.NewHandlers(cfg, log, auth, issues, dashboard, analytics, snapshots)
	router := apihttp.NewRouter(cfg, log, h, tokens)
	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router, ReadHeaderTimeout: cfg.HTTPTimeout}

	// Cron
	if cfg.SnapshotEnabled {
		cron := jobs.NewCron(cfg, log, snapshots)
		cron.Start()
		defer cron.Stop()
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	log.Info().Str("addr", cfg.HTTPAddr).Msg("listening")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigCh:
		log.Info().Msg("shutting down...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("http server error")
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown incomplete")
	}
}
