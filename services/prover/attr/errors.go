// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package attr tracks attribute applications on declarations.
//
// # Ownership Model
//
// A Registry owns its instance records. Attribute kinds are registered
// once at startup; applications accumulate as catalogs load. Readers
// receive copies and may hold them across later applications.
//
// # Thread Safety
//
// All Registry methods are safe for concurrent use.
package attr

import "errors"

var (
	// ErrUnknownAttr is returned when applying or querying via an
	// attribute kind that was never registered.
	ErrUnknownAttr = errors.New("unknown attribute")

	// ErrDuplicateAttr is returned when registering an attribute kind
	// twice.
	ErrDuplicateAttr = errors.New("attribute already registered")

	// ErrInvalidAttr is returned when an attribute application is
	// rejected by the kind's validator. This is a hard error: the
	// application is refused at application time, not at use time.
	ErrInvalidAttr = errors.New("invalid attribute")
)
