// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/AleutianAI/AleutianProve/services/prover/config"
	"github.com/AleutianAI/AleutianProve/services/prover/watch"
)

// resolveSnapshotDir picks the snapshot directory: the --snapshot-dir
// flag wins over the config file.
func resolveSnapshotDir(cfg config.ProveConfig) (string, error) {
	dir := snapshotDir
	if dir == "" {
		dir = cfg.Snapshots.Dir
	}
	if dir == "" {
		return "", fmt.Errorf("no snapshot directory configured; run 'prove init' or pass --snapshot-dir")
	}
	return dir, nil
}

// resolveStorePath picks the catalog store path: the --store flag wins
// over the config file.
func resolveStorePath(cfg config.ProveConfig) (string, error) {
	path := storePath
	if path == "" {
		path = cfg.Store.Path
	}
	if path == "" {
		return "", fmt.Errorf("no catalog store configured; set store.path or pass --store")
	}
	return path, nil
}

// buildSnapshot runs one in-process index build over the snapshot
// directory and returns the resulting snapshot.
func buildSnapshot(ctx context.Context, cfg config.ProveConfig) (*watch.IndexSnapshot, error) {
	dir, err := resolveSnapshotDir(cfg)
	if err != nil {
		return nil, err
	}
	rb := watch.NewRebuilder(dir)
	snap, err := rb.Rebuild(ctx)
	if err != nil {
		return nil, fmt.Errorf("index build from %s: %w", dir, err)
	}
	return snap, nil
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
