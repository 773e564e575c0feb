// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package declstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/AleutianAI/AleutianProve/services/prover/attr"
	"github.com/AleutianAI/AleutianProve/services/prover/env"
)

// LoadFile loads a single snapshot file into an environment.
func LoadFile(ctx context.Context, path string, e env.Environment, reg *attr.Registry) (env.Environment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return e, fmt.Errorf("read snapshot %s: %w", path, err)
	}
	snap, err := ParseSnapshot(data)
	if err != nil {
		return e, fmt.Errorf("snapshot %s: %w", path, err)
	}
	return snap.Apply(ctx, e, reg)
}

// LoadDir loads every *.json snapshot in dir, in lexical file order.
//
// # Description
//
// Files are read and parsed in parallel, then applied sequentially in
// lexical order so that declaration and attribute registration order
// is a pure function of the directory contents. Files or items that
// fail are skipped and collected; the returned environment holds
// everything that applied. The error is a *BatchError for partial
// failures, or a plain error when the directory itself is unreadable.
//
// # Inputs
//   - ctx: cancels the parallel parse phase.
//   - dir: directory holding *.json snapshot files.
//   - reg: registry receiving attribute applications; attribute kinds
//     must be registered beforehand.
//
// # Outputs
//   - The loaded environment and nil, or the partial environment and a
//     *BatchError.
func LoadDir(ctx context.Context, dir string, reg *attr.Registry) (env.Environment, error) {
	start := time.Now()

	entries, err := os.ReadDir(dir)
	if err != nil {
		return env.New(), fmt.Errorf("read snapshot dir %s: %w", dir, err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}

	parsed := make([]*Snapshot, len(paths))
	parseErrs := make([]error, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			data, err := os.ReadFile(path)
			if err != nil {
				parseErrs[i] = fmt.Errorf("read snapshot %s: %w", path, err)
				return nil
			}
			snap, err := ParseSnapshot(data)
			if err != nil {
				parseErrs[i] = fmt.Errorf("snapshot %s: %w", path, err)
				return nil
			}
			parsed[i] = snap
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return env.New(), err
	}

	e := env.New()
	var errs []error
	for i, snap := range parsed {
		if parseErrs[i] != nil {
			errs = append(errs, parseErrs[i])
			continue
		}
		next, err := snap.Apply(ctx, e, reg)
		e = next
		if err != nil {
			var batch *BatchError
			if errors.As(err, &batch) {
				for _, itemErr := range batch.Errs {
					errs = append(errs, fmt.Errorf("snapshot %s: %w", paths[i], itemErr))
				}
			} else {
				errs = append(errs, fmt.Errorf("snapshot %s: %w", paths[i], err))
			}
		}
	}

	slog.Info("Loaded declaration snapshots",
		"dir", dir,
		"files", len(paths),
		"declarations", e.Len(),
		"failures", len(errs),
		"duration", time.Since(start))

	if len(errs) > 0 {
		return e, &BatchError{Errs: errs}
	}
	return e, nil
}
