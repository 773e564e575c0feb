// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package prover

import (
	"context"
	"fmt"
	"time"

	"github.com/AleutianAI/AleutianProve/services/prover/backchain"
	"github.com/AleutianAI/AleutianProve/services/prover/backward"
	"github.com/AleutianAI/AleutianProve/services/prover/env"
	"github.com/AleutianAI/AleutianProve/services/prover/expr"
)

// MaxProveDepth caps the per-request search depth.
const MaxProveDepth uint = 64

// structReducer applies lemmas by shape alone: a lemma whose stated
// conclusion is structurally equal to the goal applies, and its
// premise types become the subgoals in order. A goal equal to a
// session hypothesis type counts as closed.
//
// Dependent binders are carried through verbatim, so a premise that
// mentions an earlier binder will only close if it appears literally
// among the hypotheses.
type structReducer struct {
	environ env.Environment
	hyps    []expr.Expr
}

func (r *structReducer) Solved(g expr.Expr) bool {
	for _, h := range r.hyps {
		if expr.Equal(g, h) {
			return true
		}
	}
	return false
}

func (r *structReducer) Unify(_ context.Context, goal expr.Expr, lem backward.Lemma) ([]expr.Expr, bool, error) {
	stmt, ok := r.statement(lem)
	if !ok {
		return nil, false, nil
	}
	premises, concl := splitPis(stmt)
	if !expr.Equal(concl, goal) {
		return nil, false, nil
	}
	return premises, true, nil
}

// statement returns the proposition a lemma proves.
func (r *structReducer) statement(lem backward.Lemma) (expr.Expr, bool) {
	if lem.IsByName() {
		d, ok := r.environ.Find(lem.Name)
		if !ok {
			return nil, false
		}
		return d.Type, true
	}
	if local, ok := lem.Proof.(expr.Local); ok {
		return local.Type, true
	}
	return nil, false
}

// splitPis strips leading Pi binders, returning the binder types in
// order and the conclusion.
func splitPis(e expr.Expr) ([]expr.Expr, expr.Expr) {
	var premises []expr.Expr
	for {
		pi, ok := e.(expr.Pi)
		if !ok {
			return premises, e
		}
		premises = append(premises, pi.Dom)
		e = pi.Body
	}
}

// ProveGoal runs depth-bounded backward chaining for a goal inside a
// session. Candidate lemmas come from the session index, so inserted
// hypotheses participate both as candidates and as closers.
func (s *Service) ProveGoal(ctx context.Context, id string, goal expr.Expr, maxDepth uint) (*ProveResponse, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	if !ok {
		s.mu.RUnlock()
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	idx := sess.index
	red := &structReducer{environ: sess.environ, hyps: make([]expr.Expr, 0, len(sess.hyps))}
	for _, name := range sess.order {
		red.hyps = append(red.hyps, sess.hyps[name].(expr.Local).Type)
	}
	s.mu.RUnlock()

	if maxDepth == 0 {
		maxDepth = backchain.DefaultMaxDepth
	}
	if maxDepth > MaxProveDepth {
		maxDepth = MaxProveDepth
	}

	eng := backchain.NewEngine(red, backchain.WithMaxDepth(maxDepth))
	sol, err := eng.Prove(ctx, idx, goal)
	if err != nil {
		return nil, err
	}

	s.hub.publish(Event{
		Type:      EventProofFound,
		Time:      time.Now(),
		SessionID: id,
	})
	return &ProveResponse{
		SessionID: id,
		Goal:      goal.String(),
		Depth:     maxDepth,
		Steps:     sol.Steps(),
		Proof:     proofNode(sol),
	}, nil
}

// proofNode renders a solution tree for the wire.
func proofNode(sol *backchain.Solution) *ProofNode {
	if sol == nil {
		return nil
	}
	n := &ProofNode{Goal: sol.Goal.String()}
	if sol.Lemma != nil {
		n.Lemma = sol.Lemma.String()
	}
	for _, p := range sol.Premises {
		n.Premises = append(n.Premises, proofNode(p))
	}
	return n
}
