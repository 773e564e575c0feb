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
	"time"

	"github.com/AleutianAI/AleutianProve/services/prover/declstore"
)

// HypInsertRequest is the request body for POST /v1/prover/sessions/:id/hyps.
type HypInsertRequest struct {
	// Name is the hypothesis name, unique within the session. Required.
	Name string `json:"name" binding:"required,max=256"`

	// Type is the hypothesis proposition in snapshot term syntax. Required.
	Type declstore.Term `json:"type" binding:"required"`
}

// ProveRequest is the request body for POST /v1/prover/sessions/:id/prove.
type ProveRequest struct {
	// Goal is the proposition to prove, in snapshot term syntax. Required.
	Goal declstore.Term `json:"goal" binding:"required"`

	// MaxDepth bounds the search. Zero means the engine default.
	MaxDepth uint `json:"max_depth" binding:"max=64"`
}

// ProofNode is one node of a rendered proof tree. A node with no
// lemma was closed directly by a session hypothesis.
type ProofNode struct {
	Goal     string       `json:"goal"`
	Lemma    string       `json:"lemma,omitempty"`
	Premises []*ProofNode `json:"premises,omitempty"`
}

// ProveResponse is the response for POST /v1/prover/sessions/:id/prove.
type ProveResponse struct {
	SessionID string `json:"session_id"`

	// Goal echoes the goal that was proved.
	Goal string `json:"goal"`

	// Depth is the search bound that was applied.
	Depth uint `json:"depth"`

	// Steps counts the nodes of the proof tree.
	Steps int `json:"steps"`

	// Proof is the proof tree, root goal first.
	Proof *ProofNode `json:"proof"`
}

// SessionResponse describes a proof session.
type SessionResponse struct {
	// SessionID identifies the session in later calls.
	SessionID string `json:"session_id"`

	// CreatedAt is when the session was opened.
	CreatedAt time.Time `json:"created_at"`

	// BuildID is the global index build the session started from.
	BuildID string `json:"build_id"`

	// LemmaCount is the current number of lemmas visible to the session.
	LemmaCount int `json:"lemma_count"`

	// Hypotheses lists the session's hypothesis names, oldest first.
	Hypotheses []string `json:"hypotheses,omitempty"`
}

// HypResponse is the response for hypothesis insert and erase.
type HypResponse struct {
	SessionID string `json:"session_id"`

	// Name is the hypothesis name.
	Name string `json:"name"`

	// Head is the indexed head symbol, empty when the hypothesis type
	// has no head and was not indexed.
	Head string `json:"head,omitempty"`

	// LemmaCount is the session lemma count after the operation.
	LemmaCount int `json:"lemma_count"`
}

// LemmaInfo describes one indexed lemma.
type LemmaInfo struct {
	// Name is set for declaration references.
	Name string `json:"name,omitempty"`

	// Term is set for concrete proof terms (session hypotheses).
	Term string `json:"term,omitempty"`

	// Priority orders lemmas under one head, larger first.
	Priority uint `json:"priority"`
}

// LemmasResponse is the response for GET /v1/prover/lemmas/:name.
type LemmasResponse struct {
	// Name is the constant head that was queried.
	Name string `json:"name"`

	// SessionID is echoed when the query ran against a session index.
	SessionID string `json:"session_id,omitempty"`

	// Lemmas is ordered by descending priority, ties newest first.
	Lemmas []LemmaInfo `json:"lemmas"`
}

// HeadInfo describes one head bucket of the index.
type HeadInfo struct {
	// Kind is "const" or "local".
	Kind string `json:"kind"`

	// Name is the constant name for const heads, the display name for
	// local heads.
	Name string `json:"name"`

	// ID disambiguates local heads.
	ID uint64 `json:"id,omitempty"`

	// Lemmas is the number of lemmas under this head.
	Lemmas int `json:"lemmas"`
}

// HeadsResponse is the response for GET /v1/prover/heads.
type HeadsResponse struct {
	SessionID string     `json:"session_id,omitempty"`
	Heads     []HeadInfo `json:"heads"`
}

// StatsResponse is the response for GET /v1/prover/stats.
type StatsResponse struct {
	BuildID      string    `json:"build_id"`
	BuiltAt      time.Time `json:"built_at"`
	Partial      bool      `json:"partial"`
	Declarations int       `json:"declarations"`
	Lemmas       int       `json:"lemmas"`
	Heads        int       `json:"heads"`
	Sessions     int       `json:"sessions"`
}

// RebuildResponse is the response for POST /v1/prover/rebuild.
type RebuildResponse struct {
	BuildID      string    `json:"build_id"`
	BuiltAt      time.Time `json:"built_at"`
	Partial      bool      `json:"partial"`
	Declarations int       `json:"declarations"`
	Lemmas       int       `json:"lemmas"`
}

// HealthResponse is the response for GET /v1/prover/health.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// ReadyResponse is the response for GET /v1/prover/ready.
type ReadyResponse struct {
	Ready    bool   `json:"ready"`
	BuildID  string `json:"build_id,omitempty"`
	Sessions int    `json:"sessions"`
}

// ErrorResponse is the standard error body.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`

	// TraceID correlates the failure with a trace when telemetry is on.
	TraceID string `json:"trace_id,omitempty"`
}
