// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package backchain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/AleutianAI/AleutianProve/services/prover/backward"
	"github.com/AleutianAI/AleutianProve/services/prover/expr"
	"github.com/AleutianAI/AleutianProve/services/prover/fix"
)

// DefaultMaxDepth bounds the search when no explicit depth is given.
const DefaultMaxDepth uint = 8

// Reducer supplies the logic the engine itself is agnostic about: when
// a goal counts as closed, and what subgoals applying a lemma leaves.
//
// # Description
//
// Unify attempts to apply a lemma to a goal. It returns the remaining
// subgoals and true on success, or false when the lemma does not apply
// (the engine moves to the next candidate). A non-nil error aborts the
// whole search; use it for resource failures, not for ordinary
// non-applicability.
type Reducer interface {
	Unify(ctx context.Context, goal expr.Expr, lemma backward.Lemma) ([]expr.Expr, bool, error)
	Solved(goal expr.Expr) bool
}

// PreStep runs before lemma selection on every goal. Returning true
// closes the goal without consulting the index.
type PreStep func(ctx context.Context, goal expr.Expr) (bool, error)

// Solution is one node of a proof tree. A nil Lemma means the goal was
// closed directly (by Solved or a PreStep) rather than by applying a
// lemma.
type Solution struct {
	Goal     expr.Expr
	Lemma    *backward.Lemma
	Premises []*Solution
}

// Steps returns the number of nodes in the proof tree.
func (s *Solution) Steps() int {
	if s == nil {
		return 0
	}
	n := 1
	for _, p := range s.Premises {
		n += p.Steps()
	}
	return n
}

// Engine performs depth-bounded backward chaining over a lemma index.
type Engine struct {
	reducer  Reducer
	maxDepth uint
	preStep  PreStep
}

// Option configures an Engine.
type Option func(*Engine)

// WithMaxDepth sets the maximum search depth.
func WithMaxDepth(depth uint) Option {
	return func(e *Engine) { e.maxDepth = depth }
}

// WithPreStep installs a hook tried on every goal before the index is
// consulted.
func WithPreStep(f PreStep) Option {
	return func(e *Engine) { e.preStep = f }
}

// NewEngine builds an engine around the given reducer. The reducer
// must be non-nil.
func NewEngine(r Reducer, opts ...Option) *Engine {
	e := &Engine{reducer: r, maxDepth: DefaultMaxDepth}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Prove searches for a proof of goal using the lemmas in idx.
//
// # Description
//
// The search is a bounded fixpoint over goals: each level of recursion
// consumes one unit of depth, and a goal reached with no depth left
// fails with ErrDepthExhausted. Candidates for a goal come from the
// index in priority order; the first candidate whose subgoals all
// close, left to right, wins.
//
// # Inputs
//   - ctx: cancels the search between steps.
//   - idx: the lemma index to draw candidates from.
//   - goal: the goal to close.
//
// # Outputs
//   - The proof tree, or an error. ErrDepthExhausted means a deeper
//     search might succeed; ErrNoProof means the candidates are
//     exhausted at this depth.
func (e *Engine) Prove(ctx context.Context, idx backward.Index, goal expr.Expr) (*Solution, error) {
	ctx, span := startOperationSpan(ctx, "Prove")
	defer span.End()
	start := time.Now()

	base := func(g expr.Expr) (*Solution, error) {
		return nil, fmt.Errorf("%w at goal %s", ErrDepthExhausted, g)
	}
	rec := func(deeper func(expr.Expr) (*Solution, error), g expr.Expr) (*Solution, error) {
		return e.step(ctx, idx, deeper, g)
	}

	sol, err := fix.BfixE(base, rec, e.maxDepth, goal)
	recordSearchMetrics(ctx, time.Since(start), err == nil)
	if err != nil {
		slog.Debug("Backward chaining failed",
			"goal", goal.String(),
			"max_depth", e.maxDepth,
			"error", err)
		return nil, err
	}

	recordSolutionSteps(ctx, sol.Steps())
	slog.Debug("Backward chaining succeeded",
		"goal", goal.String(),
		"steps", sol.Steps())
	return sol, nil
}

// step closes a single goal, recursing through deeper for subgoals.
func (e *Engine) step(ctx context.Context, idx backward.Index, deeper func(expr.Expr) (*Solution, error), g expr.Expr) (*Solution, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if e.preStep != nil {
		done, err := e.preStep(ctx, g)
		if err != nil {
			return nil, err
		}
		if done {
			return &Solution{Goal: g}, nil
		}
	}
	if e.reducer.Solved(g) {
		return &Solution{Goal: g}, nil
	}

	candidates := idx.FindGoal(ctx, g)
	var depthErr error
	for _, lem := range candidates {
		recordCandidateTried(ctx)
		subgoals, ok, err := e.reducer.Unify(ctx, g, lem)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}

		slog.Debug("Applying backward lemma",
			"goal", g.String(),
			"lemma", lem.String(),
			"subgoals", len(subgoals))

		premises := make([]*Solution, 0, len(subgoals))
		for _, sub := range subgoals {
			sol, err := deeper(sub)
			if err != nil {
				if errors.Is(err, ErrDepthExhausted) {
					depthErr = err
				}
				premises = nil
				break
			}
			premises = append(premises, sol)
		}
		if premises == nil && len(subgoals) > 0 {
			continue
		}

		l := lem
		return &Solution{Goal: g, Lemma: &l, Premises: premises}, nil
	}

	// Prefer the depth signal: the caller can retry deeper, whereas
	// ErrNoProof is final for this index.
	if depthErr != nil {
		return nil, depthErr
	}
	return nil, fmt.Errorf("%w: no applicable lemma for %s", ErrNoProof, g)
}
