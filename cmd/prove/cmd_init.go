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
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/AleutianProve/pkg/ux"
	"github.com/AleutianAI/AleutianProve/services/prover/config"
)

var initForce bool // --force overwrites an existing config

// initAnswers collects the wizard inputs before they are mapped onto
// the typed configuration.
type initAnswers struct {
	SnapshotDir  string
	Port         string
	WatchEnabled bool
	LogLevel     string
	AdvisorOn    bool
	AdvisorModel string
}

// runInitCommand walks the user through creating ~/.aleutian/prove.yaml.
func runInitCommand(cmd *cobra.Command, args []string) {
	home, err := os.UserHomeDir()
	if err != nil {
		ux.Error(fmt.Sprintf("Cannot resolve home directory: %v", err))
		os.Exit(1)
	}
	configPath := filepath.Join(home, ".aleutian", "prove.yaml")

	if _, err := os.Stat(configPath); err == nil && !initForce {
		ux.Warning(fmt.Sprintf("Config already exists at %s (use --force to overwrite)", configPath))
		os.Exit(1)
	}

	defaults := config.DefaultConfig()
	answers := initAnswers{
		SnapshotDir:  defaults.Snapshots.Dir,
		Port:         strconv.Itoa(defaults.Service.Port),
		WatchEnabled: true,
		LogLevel:     defaults.Logging.Level,
		AdvisorModel: defaults.Advisor.Model,
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Snapshot directory").
				Description("Directory holding *.json declaration snapshots").
				Value(&answers.SnapshotDir).
				Validate(func(s string) error {
					if s == "" {
						return errors.New("snapshot directory is required")
					}
					return nil
				}),
			huh.NewInput().
				Title("Service port").
				Value(&answers.Port).
				Validate(func(s string) error {
					p, err := strconv.Atoi(s)
					if err != nil || p < 1 || p > 65535 {
						return errors.New("port must be between 1 and 65535")
					}
					return nil
				}),
			huh.NewConfirm().
				Title("Watch snapshots for changes?").
				Description("Rebuild the index automatically when snapshot files change").
				Value(&answers.WatchEnabled),
			huh.NewSelect[string]().
				Title("Log level").
				Options(
					huh.NewOption("debug", "debug"),
					huh.NewOption("info", "info"),
					huh.NewOption("warn", "warn"),
					huh.NewOption("error", "error"),
				).
				Value(&answers.LogLevel),
		),
		huh.NewGroup(
			huh.NewConfirm().
				Title("Enable the lemma advisor?").
				Description("Uses an OpenAI-compatible endpoint to rank lemma hints in browse").
				Value(&answers.AdvisorOn),
			huh.NewInput().
				Title("Advisor model").
				Value(&answers.AdvisorModel),
		),
	)

	if err := form.Run(); err != nil {
		ux.Error(fmt.Sprintf("Setup aborted: %v", err))
		os.Exit(1)
	}

	cfg, err := buildProveConfig(answers)
	if err != nil {
		ux.Error(fmt.Sprintf("Invalid configuration: %v", err))
		os.Exit(1)
	}

	if err := writeConfig(configPath, cfg); err != nil {
		ux.Error(fmt.Sprintf("Config write failed: %v", err))
		os.Exit(1)
	}

	ux.Success(fmt.Sprintf("Configuration written to %s", configPath))
	ux.Muted("Run 'prove index build' to build your first index")
}

// buildProveConfig maps the wizard answers onto a validated
// configuration, starting from the defaults.
func buildProveConfig(a initAnswers) (config.ProveConfig, error) {
	cfg := config.DefaultConfig()
	cfg.Snapshots.Dir = a.SnapshotDir
	port, err := strconv.Atoi(a.Port)
	if err != nil {
		return cfg, fmt.Errorf("invalid port %q: %w", a.Port, err)
	}
	cfg.Service.Port = port
	if !a.WatchEnabled {
		cfg.Snapshots.DebounceMS = 0
	}
	cfg.Logging.Level = a.LogLevel
	cfg.Advisor.Enabled = a.AdvisorOn
	if a.AdvisorModel != "" {
		cfg.Advisor.Model = a.AdvisorModel
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// writeConfig marshals the config to YAML at path, creating parent
// directories as needed.
func writeConfig(path string, cfg config.ProveConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
