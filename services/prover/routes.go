// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package prover

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/AleutianAI/AleutianProve/services/prover/telemetry"
)

// RegisterRoutes registers all prover routes with the router.
//
// Description:
//
//	Registers all /v1/prover/* endpoints with the given Gin router
//	group. The router group should already have any required
//	middleware applied.
//
// Inputs:
//
//	rg - Gin router group (typically /v1)
//	handlers - The handlers instance
//
// Session Endpoints:
//
//	POST   /v1/prover/sessions - Open a proof session
//	GET    /v1/prover/sessions/:id - Describe a session
//	DELETE /v1/prover/sessions/:id - Close a session
//	POST   /v1/prover/sessions/:id/hyps - Insert a hypothesis
//	DELETE /v1/prover/sessions/:id/hyps/:name - Erase a hypothesis
//	POST   /v1/prover/sessions/:id/prove - Search for a proof
//
// Index Endpoints:
//
//	GET  /v1/prover/lemmas/:name - Lemmas for a conclusion head
//	GET  /v1/prover/heads - List indexed head symbols
//	GET  /v1/prover/stats - Build and session statistics
//	POST /v1/prover/rebuild - Force an index rebuild
//
// Event Endpoints:
//
//	GET /v1/prover/ws/events - Websocket event stream
//
// Health Endpoints:
//
//	GET /v1/prover/health - Health check
//	GET /v1/prover/ready - Readiness check
//
// Example:
//
//	svc, _ := prover.NewService(cfg)
//	handlers := prover.NewHandlers(svc)
//
//	v1 := router.Group("/v1")
//	prover.RegisterRoutes(v1, handlers)
func RegisterRoutes(rg *gin.RouterGroup, handlers *Handlers) {
	prover := rg.Group("/prover")
	{
		// Session lifecycle
		prover.POST("/sessions", handlers.HandleCreateSession)
		prover.GET("/sessions/:id", handlers.HandleGetSession)
		prover.DELETE("/sessions/:id", handlers.HandleCloseSession)

		// Hypothesis management
		prover.POST("/sessions/:id/hyps", handlers.HandleInsertHypothesis)
		prover.DELETE("/sessions/:id/hyps/:name", handlers.HandleEraseHypothesis)

		// Proof search
		prover.POST("/sessions/:id/prove", handlers.HandleProve)

		// Index queries
		prover.GET("/lemmas/:name", handlers.HandleFindLemmas)
		prover.GET("/heads", handlers.HandleHeads)
		prover.GET("/stats", handlers.HandleStats)
		prover.POST("/rebuild", handlers.HandleRebuild)

		// Event stream
		prover.GET("/ws/events", handlers.HandleEvents)

		// Health checks
		prover.GET("/health", handlers.HandleHealth)
		prover.GET("/ready", handlers.HandleReady)
	}
}

// NewRouter builds the service router with tracing middleware, the
// Prometheus scrape endpoint when metrics are enabled, and all prover
// routes under /v1.
func NewRouter(handlers *Handlers, cfg ServiceConfig) *gin.Engine {
	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("prove-service"))

	if cfg.EnableMetrics {
		if mh := telemetry.MetricsHandler(); mh != nil {
			router.GET("/metrics", gin.WrapH(mh))
		}
	}

	v1 := router.Group("/v1")
	RegisterRoutes(v1, handlers)
	return router
}
