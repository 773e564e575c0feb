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
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/AleutianProve/pkg/ux"
	"github.com/AleutianAI/AleutianProve/services/prover/backward"
	"github.com/AleutianAI/AleutianProve/services/prover/config"
	"github.com/AleutianAI/AleutianProve/services/prover/expr"
	"github.com/AleutianAI/AleutianProve/services/prover/watch"
)

var findLimit int // --limit for index find

// runIndexBuild builds the index once and reports the result.
func runIndexBuild(cmd *cobra.Command, args []string) {
	ctx := context.Background()

	var snap *watch.IndexSnapshot
	err := ux.WithSpinner("Building lemma index", func() error {
		var err error
		snap, err = buildSnapshot(ctx, config.Global)
		return err
	})
	if err != nil {
		ux.Error(fmt.Sprintf("Index build failed: %v", err))
		os.Exit(1)
	}

	if jsonOutput {
		out := map[string]any{
			"build_id":     snap.BuildID,
			"built_at":     snap.BuiltAt,
			"declarations": snap.Env.Len(),
			"lemmas":       snap.Index.Len(),
			"heads":        snap.Index.HeadCount(),
			"partial":      snap.Partial,
		}
		_ = json.NewEncoder(os.Stdout).Encode(out)
		return
	}

	ux.Title("Index build")
	ux.Info(fmt.Sprintf("build %s", snap.BuildID))
	if snap.Partial {
		ux.Warning("Some snapshot files failed to load; the index is partial")
	}
	ux.Success(fmt.Sprintf("%d declarations, %d lemmas under %d heads",
		snap.Env.Len(), snap.Index.Len(), snap.Index.HeadCount()))
}

// runIndexFind prints the lemmas indexed under a constant head,
// highest priority first.
func runIndexFind(cmd *cobra.Command, args []string) {
	ctx := context.Background()
	constName := expr.Name(args[0])

	snap, err := buildSnapshot(ctx, config.Global)
	if err != nil {
		ux.Error(fmt.Sprintf("Index build failed: %v", err))
		os.Exit(1)
	}

	lemmas := snap.Index.FindConst(ctx, constName)
	if findLimit > 0 && len(lemmas) > findLimit {
		lemmas = lemmas[:findLimit]
	}

	if jsonOutput {
		type lemmaOut struct {
			Name string `json:"name"`
			Prio uint   `json:"priority"`
		}
		out := make([]lemmaOut, 0, len(lemmas))
		for _, l := range lemmas {
			out = append(out, lemmaOut{Name: lemmaLabel(l), Prio: l.Prio})
		}
		_ = json.NewEncoder(os.Stdout).Encode(out)
		return
	}

	if len(lemmas) == 0 {
		ux.Muted(fmt.Sprintf("No lemmas indexed under %s", constName))
		return
	}
	ux.Title(fmt.Sprintf("Lemmas for %s", constName))
	for _, l := range lemmas {
		ux.LemmaLine(lemmaLabel(l), l.Prio)
	}
}

// runIndexStats summarizes the built index, including the heads with
// the most lemmas.
func runIndexStats(cmd *cobra.Command, args []string) {
	ctx := context.Background()

	snap, err := buildSnapshot(ctx, config.Global)
	if err != nil {
		ux.Error(fmt.Sprintf("Index build failed: %v", err))
		os.Exit(1)
	}

	type headStat struct {
		Head   string `json:"head"`
		Lemmas int    `json:"lemmas"`
	}
	stats := make([]headStat, 0, snap.Index.HeadCount())
	_ = snap.Index.ForEach(func(h expr.HeadIndex, lemmas []backward.Lemma) error {
		stats = append(stats, headStat{Head: h.String(), Lemmas: len(lemmas)})
		return nil
	})
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Lemmas != stats[j].Lemmas {
			return stats[i].Lemmas > stats[j].Lemmas
		}
		return stats[i].Head < stats[j].Head
	})

	if jsonOutput {
		out := map[string]any{
			"build_id":     snap.BuildID,
			"declarations": snap.Env.Len(),
			"lemmas":       snap.Index.Len(),
			"heads":        stats,
		}
		_ = json.NewEncoder(os.Stdout).Encode(out)
		return
	}

	ux.Title("Index statistics")
	ux.Info(fmt.Sprintf("%d declarations", snap.Env.Len()))
	ux.Info(fmt.Sprintf("%d lemmas under %d heads", snap.Index.Len(), len(stats)))
	top := stats
	if len(top) > 10 {
		top = top[:10]
	}
	for _, st := range top {
		ux.LemmaLine(st.Head, uint(st.Lemmas))
	}
}

// lemmaLabel renders a lemma for display: the declaration name for
// global lemmas, the proof term for local hypotheses.
func lemmaLabel(l backward.Lemma) string {
	if l.Name != "" {
		return string(l.Name)
	}
	if l.Proof != nil {
		return l.Proof.String()
	}
	return "<unnamed>"
}
