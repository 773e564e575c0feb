// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package env holds the declaration environment the lemma index is
// built from.
//
// # Ownership Model
//
// An Environment is a persistent value: Add returns a new Environment
// and the receiver keeps its prior contents. Holders of older
// snapshots are never affected by later additions.
//
// # Thread Safety
//
// Environments are safe for concurrent reads and concurrent derivation
// of new snapshots without synchronization.
package env

import "errors"

var (
	// ErrDuplicateDecl is returned when adding a declaration whose
	// name is already present.
	ErrDuplicateDecl = errors.New("declaration already exists")

	// ErrInvalidDecl is returned when adding a declaration that is
	// structurally unusable, for example one without a name.
	ErrInvalidDecl = errors.New("invalid declaration")

	// ErrUnknownDecl is returned when resolving a name with no
	// declaration.
	ErrUnknownDecl = errors.New("unknown declaration")

	// ErrCannotInfer is returned by the core elaborator for term forms
	// whose types it does not compute.
	ErrCannotInfer = errors.New("cannot infer type")
)
