// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package declstore loads and persists declaration catalogs.
//
// # Description
//
// A catalog arrives as JSON snapshot files, each carrying a format
// version, a list of declarations, and a list of attribute
// applications. Snapshots feed an env.Environment plus attr.Registry,
// can be cached in an embedded Badger store, and can be fetched from a
// GCS bucket.
//
// # Ownership Model
//
// Loaded environments are immutable values owned by the caller. The
// Store owns its Badger handle until Close.
//
// # Thread Safety
//
// Parsing and applying snapshots is safe to run concurrently on
// distinct inputs. A Store is safe for concurrent use; a DirLock is
// not, it belongs to one owner at a time by construction.
package declstore

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedSnapshot reports JSON or term-shape problems in a
	// snapshot file.
	ErrMalformedSnapshot = errors.New("declstore: malformed snapshot")

	// ErrUnsupportedVersion reports a snapshot whose format major
	// version this build does not read.
	ErrUnsupportedVersion = errors.New("declstore: unsupported snapshot format version")

	// ErrNotFound reports a missing key in the store.
	ErrNotFound = errors.New("declstore: not found")

	// ErrLocked reports that another process holds the catalog lock.
	ErrLocked = errors.New("declstore: catalog is locked")
)

// BatchError collects the per-item failures of a partially successful
// load. The loaded result remains usable; the batch records what was
// skipped.
type BatchError struct {
	Errs []error
}

func (e *BatchError) Error() string {
	if len(e.Errs) == 1 {
		return fmt.Sprintf("declstore: 1 load failure: %v", e.Errs[0])
	}
	return fmt.Sprintf("declstore: %d load failures, first: %v", len(e.Errs), e.Errs[0])
}

// Unwrap exposes the collected failures to errors.Is and errors.As.
func (e *BatchError) Unwrap() []error {
	return e.Errs
}
