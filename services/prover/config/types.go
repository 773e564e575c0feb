// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config loads the prover configuration from ~/.aleutian/prove.yaml.
//
// The file is created with defaults on first run. Values are validated
// after loading; a config that fails validation aborts startup rather
// than limping along with a bad port or an empty snapshot directory.
package config

import (
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
)

// ProveConfig is the root of the prover configuration file.
type ProveConfig struct {
	// Service configures the HTTP service.
	Service ServiceConfig `yaml:"service" validate:"required"`

	// Snapshots configures where declaration snapshots live and how
	// the watcher reacts to changes.
	Snapshots SnapshotConfig `yaml:"snapshots" validate:"required"`

	// Search configures the backward-chaining engine.
	Search SearchConfig `yaml:"search"`

	// Store configures the optional local badger store.
	Store StoreConfig `yaml:"store"`

	// Advisor configures the optional LLM lemma advisor.
	Advisor AdvisorConfig `yaml:"advisor"`

	// Logging configures log output.
	Logging LoggingConfig `yaml:"logging"`
}

// ServiceConfig configures the HTTP surface.
type ServiceConfig struct {
	Host string `yaml:"host" validate:"required"`
	Port int    `yaml:"port" validate:"min=1,max=65535"`

	// GinMode is "debug", "release", or "test".
	GinMode string `yaml:"gin_mode" validate:"oneof=debug release test"`
}

// SnapshotConfig configures snapshot storage and watching.
type SnapshotConfig struct {
	// Dir is the directory containing *.json snapshot files.
	Dir string `yaml:"dir" validate:"required"`

	// DebounceMS is the watcher debounce window in milliseconds.
	DebounceMS int `yaml:"debounce_ms" validate:"min=0"`

	// GCSBucket, if set, enables snapshot fetch/upload against GCS.
	GCSBucket string `yaml:"gcs_bucket,omitempty"`

	// GCSKeyFile is an optional service account key path. Empty uses
	// ambient credentials.
	GCSKeyFile string `yaml:"gcs_key_file,omitempty"`
}

// SearchConfig configures proof search.
type SearchConfig struct {
	// MaxDepth bounds backward-chaining recursion.
	MaxDepth int `yaml:"max_depth" validate:"min=1,max=64"`
}

// StoreConfig configures the badger-backed declaration store.
type StoreConfig struct {
	// Path is the badger directory. Empty disables the store.
	Path string `yaml:"path,omitempty"`
}

// AdvisorConfig configures the lemma advisor. The advisor is an
// opt-in hint surface; the prover works without it.
type AdvisorConfig struct {
	Enabled bool   `yaml:"enabled"`
	Model   string `yaml:"model,omitempty"`
	BaseURL string `yaml:"base_url,omitempty"`
}

// LoggingConfig configures log output.
type LoggingConfig struct {
	// Level is "debug", "info", "warn", or "error".
	Level string `yaml:"level" validate:"oneof=debug info warn error"`

	// File, if set, duplicates logs to a rotating file.
	File string `yaml:"file,omitempty"`
}

// proveValidate is the validator instance for config structs.
var proveValidate = validator.New()

// Validate checks the configuration against its struct tags.
func (c *ProveConfig) Validate() error {
	return proveValidate.Struct(c)
}

// DefaultConfig returns the configuration written on first run.
//
// Snapshot and store paths default to subdirectories of
// ~/.aleutian/prove so one directory holds all prover state.
func DefaultConfig() ProveConfig {
	base := ""
	if home, err := os.UserHomeDir(); err == nil {
		base = filepath.Join(home, ".aleutian", "prove")
	}
	return ProveConfig{
		Service: ServiceConfig{
			Host:    "127.0.0.1",
			Port:    12270,
			GinMode: "release",
		},
		Snapshots: SnapshotConfig{
			Dir:        filepath.Join(base, "snapshots"),
			DebounceMS: 100,
		},
		Search: SearchConfig{
			MaxDepth: 8,
		},
		Store: StoreConfig{
			Path: "",
		},
		Advisor: AdvisorConfig{
			Enabled: false,
			Model:   "gpt-4o-mini",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}
