// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package backward maintains the backward-chaining lemma index: a
// persistent multimap from the head symbol of a lemma's conclusion to
// a priority-ordered lemma list.
//
// # Ownership Model
//
// An Index is a persistent value. Insert and Erase return new
// snapshots; the receiver is never modified. A global index can be
// shared by any number of sessions, each extending it with local
// hypotheses without affecting the others.
//
// # Thread Safety
//
// All Index operations are safe for concurrent use on shared
// snapshots. Swapping a "current" snapshot for new readers is the
// caller's concern.
package backward

import "errors"

// ErrBuildFailed is returned when an index build cannot complete, for
// example when an attribute instance references a declaration missing
// from the environment. Individual lemmas with unindexable conclusion
// heads do not fail a build; they are discarded with a trace event.
var ErrBuildFailed = errors.New("index build failed")
