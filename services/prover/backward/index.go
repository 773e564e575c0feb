// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package backward

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/AleutianAI/AleutianProve/services/prover/attr"
	"github.com/AleutianAI/AleutianProve/services/prover/env"
	"github.com/AleutianAI/AleutianProve/services/prover/expr"
	"github.com/AleutianAI/AleutianProve/services/prover/rbtree"
)

// Index maps conclusion heads to priority-ordered lemma lists.
//
// Within one head the list is priority-descending; among equal
// priorities the most recently inserted lemma comes first, so a freshly
// introduced hypothesis is tried before older rules of the same rank.
type Index struct {
	entries rbtree.Map[expr.HeadIndex, []Lemma]
	size    int
}

// New returns an empty index.
func New() Index {
	return Index{entries: rbtree.NewMap[expr.HeadIndex, []Lemma](expr.HeadIndexCompare)}
}

// BuildConfig carries the tunables of Build.
type BuildConfig struct {
	// Attribute is the attribute kind enumerated for lemmas.
	Attribute string
	// Concurrency caps the parallel type resolutions. Zero means
	// GOMAXPROCS.
	Concurrency int
}

// BuildOption adjusts a BuildConfig.
type BuildOption func(*BuildConfig)

// WithAttribute selects a different attribute kind than intro.
func WithAttribute(name string) BuildOption {
	return func(c *BuildConfig) { c.Attribute = name }
}

// WithConcurrency caps the parallel type resolutions during a build.
func WithConcurrency(n int) BuildOption {
	return func(c *BuildConfig) { c.Concurrency = n }
}

type buildTarget struct {
	inst attr.Instance
	head expr.HeadIndex
	ok   bool
}

// Build indexes every instance of the intro attribute.
//
// # Description
//
// Instances are processed in registration order, earliest first. Each
// declaration's type is resolved through elab, its conclusion head is
// extracted, and the lemma is inserted under that head by name.
// Declarations whose conclusion head is not a constant are discarded
// with a trace event; they never fail the build. Resolution runs in
// parallel, insertion stays sequential so the priority and recency
// ordering is deterministic.
//
// # Inputs
//   - e: environment the instances refer to.
//   - reg: attribute registry enumerated for instances.
//   - elab: type resolution for the referenced declarations.
//
// # Outputs
//   - The built index, or ErrBuildFailed wrapping the first resolution
//     failure.
func Build(ctx context.Context, e env.Environment, reg *attr.Registry, elab env.Elaborator, opts ...BuildOption) (Index, error) {
	cfg := BuildConfig{Attribute: AttrIntro}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = runtime.GOMAXPROCS(0)
	}

	ctx, span := startOperationSpan(ctx, "Build")
	defer span.End()
	start := time.Now()

	insts := reg.Instances(cfg.Attribute)
	targets := make([]buildTarget, len(insts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Concurrency)
	for i, inst := range insts {
		g.Go(func() error {
			typ, err := elab.Infer(gctx, expr.Const{Name: inst.Decl})
			if err != nil {
				return fmt.Errorf("resolving %s lemma %s: %w", cfg.Attribute, inst.Decl, err)
			}
			h, ok := expr.NewHeadIndex(expr.PiBody(typ))
			targets[i] = buildTarget{inst: inst, head: h, ok: ok && h.Kind == expr.HeadConst}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		recordOperationMetrics(ctx, "Build", time.Since(start), false)
		return New(), fmt.Errorf("%w: %v", ErrBuildFailed, err)
	}

	idx := New()
	for _, tgt := range targets {
		if !tgt.ok {
			slog.Debug("Discarding lemma, failed to find target type",
				"attr", cfg.Attribute, "lemma", tgt.inst.Decl)
			recordDiscard(ctx, "build")
			continue
		}
		idx = idx.insertLemma(tgt.head, ByName(tgt.inst.Decl, tgt.inst.Prio))
	}

	slog.Info("Built backward lemma index",
		"attr", cfg.Attribute,
		"instances", len(insts),
		"lemmas", idx.size,
		"heads", idx.entries.Len(),
		"duration", time.Since(start))
	recordOperationMetrics(ctx, "Build", time.Since(start), true)
	recordIndexSize(ctx, idx.size)
	return idx, nil
}

// insertLemma places l under h: after every strictly higher priority,
// before every equal or lower one.
func (x Index) insertLemma(h expr.HeadIndex, l Lemma) Index {
	cur, _ := x.entries.Find(h)
	pos := 0
	for pos < len(cur) && cur[pos].Prio > l.Prio {
		pos++
	}
	out := make([]Lemma, 0, len(cur)+1)
	out = append(out, cur[:pos]...)
	out = append(out, l)
	out = append(out, cur[pos:]...)
	return Index{entries: x.entries.Insert(h, out), size: x.size + 1}
}

// Insert extends the index with a hypothesis term at default priority.
// The hypothesis type is inferred through elab and indexed under its
// conclusion head; constant and free-variable heads are both
// indexable. A term with no indexable head leaves the index unchanged.
func (x Index) Insert(ctx context.Context, elab env.Elaborator, proof expr.Expr) (Index, error) {
	ctx, span := startOperationSpan(ctx, "Insert")
	defer span.End()
	start := time.Now()

	typ, err := elab.Infer(ctx, proof)
	if err != nil {
		span.RecordError(err)
		recordOperationMetrics(ctx, "Insert", time.Since(start), false)
		return x, fmt.Errorf("inferring hypothesis type: %w", err)
	}
	h, ok := expr.NewHeadIndex(expr.PiBody(typ))
	if !ok {
		slog.Debug("Skipping hypothesis, no indexable conclusion head", "hyp", proof.String())
		recordDiscard(ctx, "insert")
		recordOperationMetrics(ctx, "Insert", time.Since(start), true)
		return x, nil
	}

	next := x.insertLemma(h, ByProof(proof))
	recordOperationMetrics(ctx, "Insert", time.Since(start), true)
	recordIndexSize(ctx, next.size)
	return next, nil
}

// Erase removes every lemma under proof's conclusion head that equals
// the proof term. Absent heads and unmatched terms leave the index
// unchanged.
func (x Index) Erase(ctx context.Context, elab env.Elaborator, proof expr.Expr) (Index, error) {
	ctx, span := startOperationSpan(ctx, "Erase")
	defer span.End()
	start := time.Now()

	typ, err := elab.Infer(ctx, proof)
	if err != nil {
		span.RecordError(err)
		recordOperationMetrics(ctx, "Erase", time.Since(start), false)
		return x, fmt.Errorf("inferring hypothesis type: %w", err)
	}
	h, ok := expr.NewHeadIndex(expr.PiBody(typ))
	if !ok {
		recordOperationMetrics(ctx, "Erase", time.Since(start), true)
		return x, nil
	}

	cur, found := x.entries.Find(h)
	if !found {
		recordOperationMetrics(ctx, "Erase", time.Since(start), true)
		return x, nil
	}
	target := Lemma{Proof: proof}
	kept := make([]Lemma, 0, len(cur))
	for _, l := range cur {
		if !l.Equal(target) {
			kept = append(kept, l)
		}
	}
	if len(kept) == len(cur) {
		recordOperationMetrics(ctx, "Erase", time.Since(start), true)
		return x, nil
	}

	next := Index{entries: x.entries.Insert(h, kept), size: x.size - (len(cur) - len(kept))}
	recordOperationMetrics(ctx, "Erase", time.Since(start), true)
	recordIndexSize(ctx, next.size)
	return next, nil
}

// Find returns the lemmas indexed under h, highest priority first. An
// unknown head yields an empty list.
func (x Index) Find(ctx context.Context, h expr.HeadIndex) []Lemma {
	ctx, span := startOperationSpan(ctx, "Find")
	defer span.End()

	cur, _ := x.entries.Find(h)
	out := make([]Lemma, len(cur))
	copy(out, cur)
	recordFindResults(ctx, len(out))
	return out
}

// FindConst returns the lemmas indexed under the named constant.
func (x Index) FindConst(ctx context.Context, n expr.Name) []Lemma {
	return x.Find(ctx, expr.ConstHead(n))
}

// FindGoal returns the lemmas whose conclusion head matches the head
// of goal's application spine. Goals without an indexable head yield
// an empty list.
func (x Index) FindGoal(ctx context.Context, goal expr.Expr) []Lemma {
	h, ok := expr.NewHeadIndex(goal)
	if !ok {
		return nil
	}
	return x.Find(ctx, h)
}

// Len counts the lemmas across all heads.
func (x Index) Len() int {
	return x.size
}

// Heads lists the heads that currently hold at least one lemma, in
// index order.
func (x Index) Heads() []expr.HeadIndex {
	return rbtree.Fold(x.entries.Root(), []expr.HeadIndex(nil),
		func(h expr.HeadIndex, ls []Lemma, acc []expr.HeadIndex) []expr.HeadIndex {
			if len(ls) == 0 {
				return acc
			}
			return append(acc, h)
		})
}

// HeadCount counts the heads that currently hold at least one lemma.
func (x Index) HeadCount() int {
	return len(x.Heads())
}

// ForEach visits heads in index order with their lemma lists, skipping
// heads emptied by erasure. It stops at the first error.
func (x Index) ForEach(f func(h expr.HeadIndex, lemmas []Lemma) error) error {
	return x.entries.ForEach(func(h expr.HeadIndex, ls []Lemma) error {
		if len(ls) == 0 {
			return nil
		}
		cp := make([]Lemma, len(ls))
		copy(cp, ls)
		return f(h, cp)
	})
}
