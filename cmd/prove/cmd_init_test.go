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
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/AleutianProve/services/prover/config"
)

func TestBuildProveConfig(t *testing.T) {
	t.Run("maps answers onto config", func(t *testing.T) {
		cfg, err := buildProveConfig(initAnswers{
			SnapshotDir:  "/var/lib/prove/snapshots",
			Port:         "9999",
			WatchEnabled: true,
			LogLevel:     "debug",
			AdvisorOn:    true,
			AdvisorModel: "gpt-4o",
		})
		require.NoError(t, err)
		assert.Equal(t, "/var/lib/prove/snapshots", cfg.Snapshots.Dir)
		assert.Equal(t, 9999, cfg.Service.Port)
		assert.Equal(t, "debug", cfg.Logging.Level)
		assert.True(t, cfg.Advisor.Enabled)
		assert.Equal(t, "gpt-4o", cfg.Advisor.Model)
	})

	t.Run("rejects a non-numeric port", func(t *testing.T) {
		_, err := buildProveConfig(initAnswers{
			SnapshotDir: "/tmp/snaps",
			Port:        "eighty",
			LogLevel:    "info",
		})
		require.Error(t, err)
	})

	t.Run("rejects an unknown log level", func(t *testing.T) {
		_, err := buildProveConfig(initAnswers{
			SnapshotDir: "/tmp/snaps",
			Port:        "8080",
			LogLevel:    "loud",
		})
		require.Error(t, err)
	})

	t.Run("watch disabled zeroes the debounce", func(t *testing.T) {
		cfg, err := buildProveConfig(initAnswers{
			SnapshotDir:  "/tmp/snaps",
			Port:         "8080",
			WatchEnabled: false,
			LogLevel:     "info",
		})
		require.NoError(t, err)
		assert.Zero(t, cfg.Snapshots.DebounceMS)
	})
}

func TestWriteConfigRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "prove.yaml")

	want := config.DefaultConfig()
	want.Snapshots.Dir = "/tmp/snaps"
	want.Service.Port = 4321

	require.NoError(t, writeConfig(path, want))

	got, err := config.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, want.Snapshots.Dir, got.Snapshots.Dir)
	assert.Equal(t, want.Service.Port, got.Service.Port)
}
