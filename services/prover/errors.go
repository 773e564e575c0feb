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

import "errors"

// Sentinel errors for the prover service.
var (
	// ErrNotReady indicates the first index build has not completed.
	ErrNotReady = errors.New("index not built yet")

	// ErrSessionNotFound indicates the session ID is unknown or closed.
	ErrSessionNotFound = errors.New("session not found")

	// ErrTooManySessions indicates the session cap has been reached.
	ErrTooManySessions = errors.New("too many open sessions")

	// ErrHypothesisExists indicates the session already holds a
	// hypothesis under that name.
	ErrHypothesisExists = errors.New("hypothesis already exists")

	// ErrHypothesisNotFound indicates no hypothesis with that name.
	ErrHypothesisNotFound = errors.New("hypothesis not found")
)
