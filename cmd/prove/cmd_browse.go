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

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/AleutianAI/AleutianProve/pkg/ux"
	"github.com/AleutianAI/AleutianProve/services/prover/advisor"
	"github.com/AleutianAI/AleutianProve/services/prover/config"
)

// runBrowseCommand builds the index and opens the interactive
// browser.
func runBrowseCommand(cmd *cobra.Command, args []string) {
	if !isatty.IsTerminal(os.Stdout.Fd()) {
		ux.Error("browse needs an interactive terminal; use 'prove index find' for scripting")
		os.Exit(1)
	}

	ctx := context.Background()
	snap, err := buildSnapshot(ctx, config.Global)
	if err != nil {
		ux.Error(fmt.Sprintf("Index build failed: %v", err))
		os.Exit(1)
	}

	// The advisor is a hint surface. Missing credentials degrade to
	// browsing without it, never to a failed command.
	var adv *advisor.Advisor
	if config.Global.Advisor.Enabled {
		adv, err = advisor.New()
		if err != nil {
			ux.Warning(fmt.Sprintf("Advisor unavailable: %v", err))
			adv = nil
		}
	}

	model := newBrowseModel(snap.Index, adv)
	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		ux.Error(fmt.Sprintf("Browser failed: %v", err))
		os.Exit(1)
	}
}
