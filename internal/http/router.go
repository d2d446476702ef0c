/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package http

import (
	"github.com/Ashen-sam/issue-tracker-api/internal/config"
	"github.com/Ashen-sam/issue-tracker-api/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

func NewRouter(cfg config.Config, log zerolog.Logger, h *Handlers, tokens *services.TokenManager) *gin.Engine {
	if cfg.AppEnv != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestID())
	r.Use(accessLog(log))
	r.Use(corsMiddleware(cfg))

	r.GET("/healthz", h.Healthz)
	r.GET("/admin/last-run", h.LastRun)
	r.POST("/admin/run", h.RunNow)

	api := r.Group("/api")

	auth := api.Group("/auth")
	auth.POST("/register", h.Register)
	auth.POST("/login", h.Login)
	me := auth.Group("/me", requireAuth(tokens))
	me.GET("", h.Me)
	me.PUT("", h.UpdateMe)
	me.DELETE("", h.DeleteMe)

	issues := api.Group("/issues", requireAuth(tokens))
	issues.GET("", h.ListIssues)
	issues.POST("", h.CreateIssue)
	issues.GET("/:id", h.GetIssue)
	issues.PUT("/:id", h.UpdateIssue)
	issues.DELETE("/:id", h.DeleteIssue)

	api.GET("/dashboard", requireAuth(tokens), h.Dashboard)
	api.GET("/analytics", requireAuth(tokens), h.GeneralAnalytics)
	api.GET("/analytics/user/:userId", requireAuth(tokens), h.UserAnalytics)

	return r
}
