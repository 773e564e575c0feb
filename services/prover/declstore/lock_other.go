// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

//go:build !unix

package declstore

import (
	"fmt"
	"os"
	"path/filepath"
)

const lockFileName = ".prove.lock"

// DirLock is a no-op on platforms without flock. The catalog relies on
// operational discipline there.
type DirLock struct {
	path string
}

// AcquireDirLock records the lock path without taking an OS lock.
func AcquireDirLock(dir string) (*DirLock, error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("create catalog directory %s: %w", dir, err)
	}
	return &DirLock{path: filepath.Join(dir, lockFileName)}, nil
}

// Path returns the lock file location.
func (l *DirLock) Path() string {
	return l.path
}

// Release is a no-op.
func (l *DirLock) Release() error {
	return nil
}
