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
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/AleutianAI/AleutianProve/services/prover/backchain"
	"github.com/AleutianAI/AleutianProve/services/prover/declstore"
	"github.com/AleutianAI/AleutianProve/services/prover/env"
	"github.com/AleutianAI/AleutianProve/services/prover/telemetry"
)

// ServiceVersion is the prover service version.
const ServiceVersion = "0.1.0"

// Handlers contains the HTTP handlers for the prover service.
type Handlers struct {
	svc *Service
}

// NewHandlers creates handlers for the given service.
func NewHandlers(svc *Service) *Handlers {
	return &Handlers{svc: svc}
}

// HandleCreateSession handles POST /v1/prover/sessions.
//
// Description:
//
//	Opens a proof session over the current global index snapshot.
//	The session sees the snapshot as of open time; later rebuilds do
//	not change it.
//
// Response:
//
//	200 OK: SessionResponse
//	429 Too Many Requests: Session limit reached
//	503 Service Unavailable: Index not built yet
func (h *Handlers) HandleCreateSession(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleCreateSession")

	ctx, span := startRequestSpan(c.Request.Context(), "CreateSession")
	defer span.End()

	resp, err := h.svc.CreateSession(ctx)
	if err != nil {
		statusCode := http.StatusInternalServerError
		errCode := "SESSION_CREATE_FAILED"

		if errors.Is(err, ErrNotReady) {
			statusCode = http.StatusServiceUnavailable
			errCode = "NOT_READY"
		} else if errors.Is(err, ErrTooManySessions) {
			statusCode = http.StatusTooManyRequests
			errCode = "TOO_MANY_SESSIONS"
		}

		logger.Error("Session create failed", "error", err)
		c.JSON(statusCode, h.errorResponse(c, err, errCode))
		return
	}

	c.JSON(http.StatusOK, resp)
}

// HandleGetSession handles GET /v1/prover/sessions/:id.
//
// Response:
//
//	200 OK: SessionResponse
//	404 Not Found: Unknown session
func (h *Handlers) HandleGetSession(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleGetSession")

	resp, err := h.svc.Session(c.Param("id"))
	if err != nil {
		logger.Warn("Session lookup failed", "error", err)
		c.JSON(http.StatusNotFound, h.errorResponse(c, err, "SESSION_NOT_FOUND"))
		return
	}

	c.JSON(http.StatusOK, resp)
}

// HandleCloseSession handles DELETE /v1/prover/sessions/:id.
//
// Response:
//
//	200 OK: {"session_id": ..., "closed": true}
//	404 Not Found: Unknown session
func (h *Handlers) HandleCloseSession(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleCloseSession")

	ctx, span := startRequestSpan(c.Request.Context(), "CloseSession")
	defer span.End()

	id := c.Param("id")
	if err := h.svc.CloseSession(ctx, id); err != nil {
		logger.Warn("Session close failed", "error", err)
		c.JSON(http.StatusNotFound, h.errorResponse(c, err, "SESSION_NOT_FOUND"))
		return
	}

	logger.Info("Closed proof session", "session_id", id)
	c.JSON(http.StatusOK, gin.H{"session_id": id, "closed": true})
}

// HandleInsertHypothesis handles POST /v1/prover/sessions/:id/hyps.
//
// Description:
//
//	Adds a local hypothesis to the session index. The hypothesis is
//	retrievable under the head symbol of its stated type. Types
//	without a head symbol are accepted but not indexed.
//
// Request Body:
//
//	HypInsertRequest
//
// Response:
//
//	200 OK: HypResponse
//	400 Bad Request: Malformed term or untypeable hypothesis
//	404 Not Found: Unknown session
//	409 Conflict: Hypothesis name already in use
func (h *Handlers) HandleInsertHypothesis(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleInsertHypothesis")

	var req HypInsertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "Invalid request body",
			Code:  "INVALID_REQUEST",
		})
		return
	}

	typ, err := declstore.DecodeTerm(req.Type)
	if err != nil {
		logger.Warn("Malformed hypothesis type", "error", err)
		c.JSON(http.StatusBadRequest, h.errorResponse(c, err, "INVALID_TERM"))
		return
	}

	ctx, span := startRequestSpan(c.Request.Context(), "InsertHypothesis")
	defer span.End()

	id := c.Param("id")
	resp, err := h.svc.InsertHypothesis(ctx, id, req.Name, typ)
	if err != nil {
		statusCode := http.StatusInternalServerError
		errCode := "HYP_INSERT_FAILED"

		if errors.Is(err, ErrSessionNotFound) {
			statusCode = http.StatusNotFound
			errCode = "SESSION_NOT_FOUND"
		} else if errors.Is(err, ErrHypothesisExists) {
			statusCode = http.StatusConflict
			errCode = "HYP_EXISTS"
		} else if errors.Is(err, env.ErrCannotInfer) || errors.Is(err, env.ErrUnknownDecl) {
			statusCode = http.StatusBadRequest
			errCode = "INVALID_TERM"
		}

		logger.Warn("Hypothesis insert failed", "session_id", id, "name", req.Name, "error", err)
		c.JSON(statusCode, h.errorResponse(c, err, errCode))
		return
	}

	logger.Info("Inserted hypothesis",
		"session_id", id,
		"name", req.Name,
		"head", resp.Head)
	c.JSON(http.StatusOK, resp)
}

// HandleProve handles POST /v1/prover/sessions/:id/prove.
//
// Description:
//
//	Runs depth-bounded backward chaining for a goal against the
//	session's extended index. Lemmas apply by structural match of
//	their stated conclusion; session hypotheses close matching goals
//	directly.
//
// Request Body:
//
//	ProveRequest
//
// Response:
//
//	200 OK: ProveResponse
//	400 Bad Request: Malformed goal term
//	404 Not Found: Unknown session
//	422 Unprocessable Entity: No proof at the requested depth
func (h *Handlers) HandleProve(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleProve")

	var req ProveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "Invalid request body",
			Code:  "INVALID_REQUEST",
		})
		return
	}

	goal, err := declstore.DecodeTerm(req.Goal)
	if err != nil {
		logger.Warn("Malformed goal term", "error", err)
		c.JSON(http.StatusBadRequest, h.errorResponse(c, err, "INVALID_TERM"))
		return
	}

	ctx, span := startRequestSpan(c.Request.Context(), "Prove")
	defer span.End()

	id := c.Param("id")
	resp, err := h.svc.ProveGoal(ctx, id, goal, req.MaxDepth)
	if err != nil {
		statusCode := http.StatusInternalServerError
		errCode := "PROVE_FAILED"

		if errors.Is(err, ErrSessionNotFound) {
			statusCode = http.StatusNotFound
			errCode = "SESSION_NOT_FOUND"
		} else if errors.Is(err, backchain.ErrNoProof) {
			statusCode = http.StatusUnprocessableEntity
			errCode = "NO_PROOF"
		} else if errors.Is(err, backchain.ErrDepthExhausted) {
			statusCode = http.StatusUnprocessableEntity
			errCode = "DEPTH_EXHAUSTED"
		}

		logger.Warn("Proof search failed", "session_id", id, "error", err)
		c.JSON(statusCode, h.errorResponse(c, err, errCode))
		return
	}

	logger.Info("Proof found",
		"session_id", id,
		"goal", resp.Goal,
		"steps", resp.Steps)
	c.JSON(http.StatusOK, resp)
}

// HandleEraseHypothesis handles DELETE /v1/prover/sessions/:id/hyps/:name.
//
// Response:
//
//	200 OK: HypResponse
//	404 Not Found: Unknown session or hypothesis
func (h *Handlers) HandleEraseHypothesis(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleEraseHypothesis")

	ctx, span := startRequestSpan(c.Request.Context(), "EraseHypothesis")
	defer span.End()

	id := c.Param("id")
	name := c.Param("name")
	resp, err := h.svc.EraseHypothesis(ctx, id, name)
	if err != nil {
		statusCode := http.StatusInternalServerError
		errCode := "HYP_ERASE_FAILED"

		if errors.Is(err, ErrSessionNotFound) {
			statusCode = http.StatusNotFound
			errCode = "SESSION_NOT_FOUND"
		} else if errors.Is(err, ErrHypothesisNotFound) {
			statusCode = http.StatusNotFound
			errCode = "HYP_NOT_FOUND"
		}

		logger.Warn("Hypothesis erase failed", "session_id", id, "name", name, "error", err)
		c.JSON(statusCode, h.errorResponse(c, err, errCode))
		return
	}

	c.JSON(http.StatusOK, resp)
}

// HandleFindLemmas handles GET /v1/prover/lemmas/:name.
//
// Description:
//
//	Returns the lemmas whose conclusion head is the named constant,
//	ordered by descending priority with newest first on ties.
//
// Query Parameters:
//
//	session_id: Query a session's extended index instead of the
//	            global snapshot (optional)
//
// Response:
//
//	200 OK: LemmasResponse
//	404 Not Found: Unknown session
//	503 Service Unavailable: Index not built yet
func (h *Handlers) HandleFindLemmas(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleFindLemmas")

	ctx, span := startRequestSpan(c.Request.Context(), "FindLemmas")
	defer span.End()

	name := c.Param("name")
	sessionID := c.Query("session_id")
	resp, err := h.svc.FindLemmas(ctx, sessionID, name)
	if err != nil {
		statusCode, errCode := lookupErrorStatus(err)
		logger.Warn("Lemma lookup failed", "name", name, "error", err)
		c.JSON(statusCode, h.errorResponse(c, err, errCode))
		return
	}

	c.JSON(http.StatusOK, resp)
}

// HandleHeads handles GET /v1/prover/heads.
//
// Query Parameters:
//
//	session_id: Inspect a session's extended index (optional)
//
// Response:
//
//	200 OK: HeadsResponse
//	404 Not Found: Unknown session
//	503 Service Unavailable: Index not built yet
func (h *Handlers) HandleHeads(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleHeads")

	ctx, span := startRequestSpan(c.Request.Context(), "Heads")
	defer span.End()

	resp, err := h.svc.Heads(ctx, c.Query("session_id"))
	if err != nil {
		statusCode, errCode := lookupErrorStatus(err)
		logger.Warn("Head listing failed", "error", err)
		c.JSON(statusCode, h.errorResponse(c, err, errCode))
		return
	}

	c.JSON(http.StatusOK, resp)
}

// HandleStats handles GET /v1/prover/stats.
//
// Response:
//
//	200 OK: StatsResponse
//	503 Service Unavailable: Index not built yet
func (h *Handlers) HandleStats(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleStats")

	resp, err := h.svc.Stats(c.Request.Context())
	if err != nil {
		logger.Warn("Stats unavailable", "error", err)
		c.JSON(http.StatusServiceUnavailable, h.errorResponse(c, err, "NOT_READY"))
		return
	}

	c.JSON(http.StatusOK, resp)
}

// HandleRebuild handles POST /v1/prover/rebuild.
//
// Description:
//
//	Forces an index rebuild from the snapshot directory. Concurrent
//	requests collapse into one build.
//
// Response:
//
//	200 OK: RebuildResponse
//	500 Internal Server Error: Build failure
func (h *Handlers) HandleRebuild(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleRebuild")

	ctx, span := startRequestSpan(c.Request.Context(), "Rebuild")
	defer span.End()

	resp, err := h.svc.Rebuild(ctx)
	if err != nil {
		logger.Error("Rebuild failed", "error", err)
		c.JSON(http.StatusInternalServerError, h.errorResponse(c, err, "REBUILD_FAILED"))
		return
	}

	logger.Info("Rebuilt index",
		"build_id", resp.BuildID,
		"lemmas", resp.Lemmas,
		"partial", resp.Partial)
	c.JSON(http.StatusOK, resp)
}

// HandleHealth handles GET /v1/prover/health.
func (h *Handlers) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:  "healthy",
		Version: ServiceVersion,
	})
}

// HandleReady handles GET /v1/prover/ready.
//
// Response:
//
//	200 OK: ReadyResponse (Ready=true) - First build has completed
//	503 Service Unavailable: ReadyResponse (Ready=false)
func (h *Handlers) HandleReady(c *gin.Context) {
	resp := ReadyResponse{
		Ready:    h.svc.Ready(),
		Sessions: h.svc.SessionCount(),
	}
	if snap := h.svc.Snapshot(); snap != nil {
		resp.BuildID = snap.BuildID
	}

	status := http.StatusOK
	if !resp.Ready {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, resp)
}

// errorResponse builds an ErrorResponse, echoing the active trace so
// clients can correlate failures with spans.
func (h *Handlers) errorResponse(c *gin.Context, err error, code string) ErrorResponse {
	return ErrorResponse{
		Error:   err.Error(),
		Code:    code,
		TraceID: telemetry.TraceID(c.Request.Context()),
	}
}

// lookupErrorStatus maps index lookup failures to HTTP status codes.
func lookupErrorStatus(err error) (int, string) {
	if errors.Is(err, ErrNotReady) {
		return http.StatusServiceUnavailable, "NOT_READY"
	}
	if errors.Is(err, ErrSessionNotFound) {
		return http.StatusNotFound, "SESSION_NOT_FOUND"
	}
	return http.StatusInternalServerError, "LOOKUP_FAILED"
}

// getOrCreateRequestID returns the X-Request-ID header, generating one
// when absent, and echoes it on the response.
func getOrCreateRequestID(c *gin.Context) string {
	requestID := c.GetHeader("X-Request-ID")
	if requestID == "" {
		requestID = uuid.NewString()
	}
	c.Header("X-Request-ID", requestID)
	return requestID
}
