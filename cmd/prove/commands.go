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

	"github.com/spf13/cobra"

	"github.com/AleutianAI/AleutianProve/pkg/ux"
	"github.com/AleutianAI/AleutianProve/services/prover/config"
)

// version is stamped at build time via -ldflags.
var version = "dev"

// --- Global Command Variables ---
var (
	snapshotDir      string // CLI override for snapshots.dir
	jsonOutput       bool   // Machine-readable output for scripting
	personalityLevel string // UX personality level (full/standard/minimal/machine)

	rootCmd = &cobra.Command{
		Use:   "prove",
		Short: "A cli to manage the Aleutian Prove lemma index and service",
		Long: `Prove builds and serves a priority-ordered backward lemma index
				over declaration snapshots, for use by interactive tactics.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Initialize UX personality from flag or environment
			if personalityLevel != "" {
				ux.SetPersonalityLevel(ux.ParsePersonalityLevel(personalityLevel))
			} else {
				ux.InitPersonality()
			}
			// init writes the config; every other command reads it.
			if cmd.Name() == "init" || cmd.Name() == "version" {
				return
			}
			if err := config.Load(); err != nil {
				ux.Error(fmt.Sprintf("Config load failed: %v", err))
			}
		},
	}

	// --- Index ---
	indexCmd = &cobra.Command{
		Use:   "index",
		Short: "Build and query the backward lemma index",
	}
	indexBuildCmd = &cobra.Command{
		Use:   "build",
		Short: "Build the lemma index from the snapshot directory",
		Run:   runIndexBuild, // Defined in cmd_index.go
	}
	indexFindCmd = &cobra.Command{
		Use:   "find [constant]",
		Short: "List indexed lemmas whose conclusion head is the given constant",
		Args:  cobra.ExactArgs(1),
		Run:   runIndexFind, // Defined in cmd_index.go
	}
	indexStatsCmd = &cobra.Command{
		Use:   "stats",
		Short: "Show declaration, head, and lemma counts for the built index",
		Run:   runIndexStats, // Defined in cmd_index.go
	}

	// --- Service ---
	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the prover HTTP service",
		Run:   runServe, // Defined in cmd_serve.go
	}
	watchCmd = &cobra.Command{
		Use:   "watch",
		Short: "Watch the snapshot directory and rebuild the index on change",
		Run:   runWatch, // Defined in cmd_watch.go
	}

	// --- Snapshots ---
	snapshotCmd = &cobra.Command{
		Use:   "snapshot",
		Short: "Import, export, and transfer declaration snapshots",
	}
	snapshotImportCmd = &cobra.Command{
		Use:   "import [dir]",
		Short: "Import snapshot files from a directory into the local catalog store",
		Args:  cobra.MaximumNArgs(1),
		Run:   runSnapshotImport, // Defined in cmd_snapshot.go
	}
	snapshotExportCmd = &cobra.Command{
		Use:   "export [file]",
		Short: "Export the local catalog store to a single snapshot file",
		Args:  cobra.ExactArgs(1),
		Run:   runSnapshotExport, // Defined in cmd_snapshot.go
	}
	snapshotFetchCmd = &cobra.Command{
		Use:   "fetch [object]",
		Short: "Fetch a snapshot object from GCS into the snapshot directory",
		Args:  cobra.ExactArgs(1),
		Run:   runSnapshotFetch, // Defined in cmd_snapshot.go
	}
	snapshotPushCmd = &cobra.Command{
		Use:   "push [file]",
		Short: "Upload a local snapshot file to GCS",
		Args:  cobra.ExactArgs(1),
		Run:   runSnapshotPush, // Defined in cmd_snapshot.go
	}

	// --- Setup / Inspection ---
	initCmd = &cobra.Command{
		Use:   "init",
		Short: "Interactively create the prove configuration file",
		Run:   runInitCommand, // Defined in cmd_init.go
	}
	browseCmd = &cobra.Command{
		Use:   "browse",
		Short: "Browse the lemma index in an interactive terminal UI",
		Run:   runBrowseCommand, // Defined in cmd_browse.go
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the prove version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("prove %s\n", version)
		},
	}
)

// init runs when the Go program starts
func init() {
	// Global UX personality flag
	rootCmd.PersistentFlags().StringVar(&personalityLevel, "personality", "",
		"Output style: full (default, rich nautical), standard, minimal, or machine (scripting)")
	rootCmd.PersistentFlags().StringVar(&snapshotDir, "snapshot-dir", "",
		"Override the snapshot directory from the config file")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false,
		"Output as JSON for scripting")

	// index commands
	rootCmd.AddCommand(indexCmd)
	indexCmd.AddCommand(indexBuildCmd)
	indexCmd.AddCommand(indexFindCmd)
	indexCmd.AddCommand(indexStatsCmd)
	indexFindCmd.Flags().IntVar(&findLimit, "limit", 0,
		"Maximum lemmas to print (0 = all)")

	// service commands
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntVar(&servePort, "port", 0,
		"Override the service port from the config file")
	serveCmd.Flags().BoolVar(&serveNoWatch, "no-watch", false,
		"Disable the snapshot watcher; rebuild only on request")
	rootCmd.AddCommand(watchCmd)

	// snapshot commands
	rootCmd.AddCommand(snapshotCmd)
	snapshotCmd.AddCommand(snapshotImportCmd)
	snapshotCmd.AddCommand(snapshotExportCmd)
	snapshotCmd.AddCommand(snapshotFetchCmd)
	snapshotCmd.AddCommand(snapshotPushCmd)
	snapshotImportCmd.Flags().StringVar(&storePath, "store", "",
		"Override the catalog store path from the config file")
	snapshotExportCmd.Flags().StringVar(&storePath, "store", "",
		"Override the catalog store path from the config file")

	// setup and inspection
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().BoolVar(&initForce, "force", false,
		"Overwrite an existing configuration file")
	rootCmd.AddCommand(browseCmd)
	rootCmd.AddCommand(versionCmd)
}
