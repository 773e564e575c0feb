// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package backchain searches for proofs by applying indexed lemmas
// backward from a goal.
//
// # Description
//
// The engine walks a goal top-down: a goal is closed directly when the
// caller's Reducer reports it solved, otherwise every lemma indexed
// under the goal's head symbol is tried in priority order, recursing on
// the subgoals the Reducer produces. The first candidate whose subgoals
// all close wins; a failed candidate backtracks to the next one. The
// search depth is bounded by fuel, so the engine terminates even on
// looping lemma sets.
//
// # Ownership Model
//
// The engine borrows the index and never mutates it. Solutions returned
// by Prove are owned by the caller.
//
// # Thread Safety
//
// An Engine is immutable after construction and safe for concurrent
// Prove calls, provided the supplied Reducer is.
package backchain

import "errors"

var (
	// ErrDepthExhausted reports that the search ran out of depth before
	// closing a goal. Retrying with a larger maximum depth may succeed.
	ErrDepthExhausted = errors.New("backchain: maximum search depth exhausted")

	// ErrNoProof reports that every candidate lemma for some goal
	// failed within the allotted depth.
	ErrNoProof = errors.New("backchain: no proof found")
)
