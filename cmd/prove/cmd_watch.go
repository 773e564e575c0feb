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
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/AleutianProve/pkg/ux"
	"github.com/AleutianAI/AleutianProve/services/prover/config"
	"github.com/AleutianAI/AleutianProve/services/prover/watch"
)

// runWatch rebuilds the index whenever the snapshot directory changes,
// printing one line per rebuild until interrupted.
func runWatch(cmd *cobra.Command, args []string) {
	ctx, cancel := signalContext()
	defer cancel()

	dir, err := resolveSnapshotDir(config.Global)
	if err != nil {
		ux.Error(err.Error())
		os.Exit(1)
	}

	rb := watch.NewRebuilder(dir)
	if _, err := rb.Rebuild(ctx); err != nil {
		ux.Error(fmt.Sprintf("Initial index build failed: %v", err))
		os.Exit(1)
	}

	opts := watch.DefaultOptions()
	if config.Global.Snapshots.DebounceMS > 0 {
		opts.DebounceWindow = time.Duration(config.Global.Snapshots.DebounceMS) * time.Millisecond
	}
	w, err := rb.Watch(ctx, &opts)
	if err != nil {
		ux.Error(fmt.Sprintf("Watcher start failed: %v", err))
		os.Exit(1)
	}
	defer w.Stop()

	snaps, unsubscribe := rb.Subscribe()
	defer unsubscribe()

	ux.Success(fmt.Sprintf("Watching %s", dir))
	if snap := rb.Current(); snap != nil {
		ux.Info(fmt.Sprintf("build %s: %d lemmas", snap.BuildID, snap.Index.Len()))
	}

	for {
		select {
		case <-ctx.Done():
			ux.Muted("Watch stopped")
			return
		case snap, ok := <-snaps:
			if !ok {
				return
			}
			status := ux.IconSuccess
			reason := ""
			if snap.Partial {
				status = ux.IconWarning
				reason = "partial load"
			}
			ux.FileStatus(fmt.Sprintf("build %s: %d lemmas", snap.BuildID, snap.Index.Len()),
				status, reason)
		}
	}
}
