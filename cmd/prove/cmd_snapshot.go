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
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/AleutianProve/pkg/ux"
	"github.com/AleutianAI/AleutianProve/services/prover/config"
	"github.com/AleutianAI/AleutianProve/services/prover/declstore"
)

var storePath string // --store override

// openCatalogStore opens the badger-backed catalog under the process
// directory lock so imports and watchers do not interleave.
func openCatalogStore(cfg config.ProveConfig) (*declstore.Store, *declstore.DirLock, error) {
	path, err := resolveStorePath(cfg)
	if err != nil {
		return nil, nil, err
	}
	if err := os.MkdirAll(path, 0o750); err != nil {
		return nil, nil, fmt.Errorf("create store dir %s: %w", path, err)
	}
	lock, err := declstore.AcquireDirLock(path)
	if err != nil {
		return nil, nil, err
	}
	scfg := declstore.DefaultConfig()
	scfg.Path = path
	store, err := declstore.OpenStore(scfg)
	if err != nil {
		_ = lock.Release()
		return nil, nil, err
	}
	return store, lock, nil
}

// runSnapshotImport loads snapshot files from a directory into the
// local catalog store.
func runSnapshotImport(cmd *cobra.Command, args []string) {
	ctx := context.Background()

	dir := ""
	if len(args) > 0 {
		dir = args[0]
	} else {
		var err error
		dir, err = resolveSnapshotDir(config.Global)
		if err != nil {
			ux.Error(err.Error())
			os.Exit(1)
		}
	}

	store, lock, err := openCatalogStore(config.Global)
	if err != nil {
		ux.Error(fmt.Sprintf("Store open failed: %v", err))
		os.Exit(1)
	}
	defer lock.Release()
	defer store.Close()

	paths, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		ux.Error(fmt.Sprintf("Snapshot scan failed: %v", err))
		os.Exit(1)
	}
	sort.Strings(paths)
	if len(paths) == 0 {
		ux.Warning(fmt.Sprintf("No snapshot files in %s", dir))
		return
	}

	var loaded, failed int
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			ux.FileStatus(path, ux.IconError, err.Error())
			failed++
			continue
		}
		snap, err := declstore.ParseSnapshot(data)
		if err != nil {
			ux.FileStatus(path, ux.IconError, err.Error())
			failed++
			continue
		}
		if err := store.ImportSnapshot(ctx, snap); err != nil {
			ux.FileStatus(path, ux.IconError, err.Error())
			failed++
			continue
		}
		ux.FileStatus(path, ux.IconSuccess, "")
		loaded++
	}
	ux.Summary(loaded, failed, len(paths))
	if failed > 0 {
		os.Exit(1)
	}
}

// runSnapshotExport writes the whole catalog store to one snapshot
// file.
func runSnapshotExport(cmd *cobra.Command, args []string) {
	ctx := context.Background()
	outPath := args[0]

	store, lock, err := openCatalogStore(config.Global)
	if err != nil {
		ux.Error(fmt.Sprintf("Store open failed: %v", err))
		os.Exit(1)
	}
	defer lock.Release()
	defer store.Close()

	snap, err := store.ExportSnapshot(ctx)
	if err != nil {
		ux.Error(fmt.Sprintf("Export failed: %v", err))
		os.Exit(1)
	}
	data, err := snap.Marshal()
	if err != nil {
		ux.Error(fmt.Sprintf("Snapshot encode failed: %v", err))
		os.Exit(1)
	}
	if err := os.WriteFile(outPath, data, 0o640); err != nil {
		ux.Error(fmt.Sprintf("Write %s failed: %v", outPath, err))
		os.Exit(1)
	}
	ux.Success(fmt.Sprintf("Exported %d declarations to %s", len(snap.Declarations), outPath))
}

// runSnapshotFetch downloads a snapshot object from GCS into the
// snapshot directory.
func runSnapshotFetch(cmd *cobra.Command, args []string) {
	ctx := context.Background()
	object := args[0]

	cfg := config.Global
	if cfg.Snapshots.GCSBucket == "" {
		ux.Error("No GCS bucket configured; set snapshots.gcs_bucket")
		os.Exit(1)
	}
	dir, err := resolveSnapshotDir(cfg)
	if err != nil {
		ux.Error(err.Error())
		os.Exit(1)
	}

	client, err := declstore.NewGCSClient(ctx, cfg.Snapshots.GCSBucket, cfg.Snapshots.GCSKeyFile)
	if err != nil {
		ux.Error(fmt.Sprintf("GCS client failed: %v", err))
		os.Exit(1)
	}
	defer client.Close()

	var local string
	err = ux.WithSpinner(fmt.Sprintf("Fetching %s", object), func() error {
		var err error
		local, err = client.FetchSnapshot(ctx, object, dir)
		return err
	})
	if err != nil {
		ux.Error(fmt.Sprintf("Fetch failed: %v", err))
		os.Exit(1)
	}
	ux.Success(fmt.Sprintf("Fetched gs://%s/%s to %s", cfg.Snapshots.GCSBucket, object, local))
}

// runSnapshotPush uploads a local snapshot file to GCS.
func runSnapshotPush(cmd *cobra.Command, args []string) {
	ctx := context.Background()
	local := args[0]

	cfg := config.Global
	if cfg.Snapshots.GCSBucket == "" {
		ux.Error("No GCS bucket configured; set snapshots.gcs_bucket")
		os.Exit(1)
	}

	client, err := declstore.NewGCSClient(ctx, cfg.Snapshots.GCSBucket, cfg.Snapshots.GCSKeyFile)
	if err != nil {
		ux.Error(fmt.Sprintf("GCS client failed: %v", err))
		os.Exit(1)
	}
	defer client.Close()

	object := filepath.Base(local)
	if err := client.UploadSnapshot(ctx, local, object); err != nil {
		ux.Error(fmt.Sprintf("Upload failed: %v", err))
		os.Exit(1)
	}
	ux.Success(fmt.Sprintf("Uploaded %s to gs://%s/%s", local, cfg.Snapshots.GCSBucket, object))
}
