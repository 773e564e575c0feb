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
	"slices"
	"testing"

	"github.com/AleutianAI/AleutianProve/services/prover/attr"
	"github.com/AleutianAI/AleutianProve/services/prover/backward"
	"github.com/AleutianAI/AleutianProve/services/prover/env"
	"github.com/AleutianAI/AleutianProve/services/prover/expr"
)

// pGoal builds the goal p #k; the test reducer counts k down to zero.
func pGoal(k int) expr.Expr {
	return expr.Apply(expr.Const{Name: "p"}, expr.Var{Idx: k})
}

// chainReducer interprets three lemma names: p_step peels one level
// off a p goal, p_detour rewrites to an unprovable goal, p_bomb
// reports a hard failure.
type chainReducer struct {
	tried    []string
	unifyErr error
}

func (r *chainReducer) Solved(g expr.Expr) bool {
	return expr.Equal(g, pGoal(0))
}

func (r *chainReducer) Unify(_ context.Context, g expr.Expr, lem backward.Lemma) ([]expr.Expr, bool, error) {
	r.tried = append(r.tried, string(lem.Name))
	switch lem.Name {
	case "p_step":
		app, ok := g.(expr.App)
		if !ok {
			return nil, false, nil
		}
		v, ok := app.Arg.(expr.Var)
		if !ok || v.Idx == 0 {
			return nil, false, nil
		}
		return []expr.Expr{pGoal(v.Idx - 1)}, true, nil
	case "p_detour":
		return []expr.Expr{expr.Const{Name: "dead_end"}}, true, nil
	case "p_bomb":
		return nil, false, r.unifyErr
	}
	return nil, false, nil
}

// chainIndex builds an index whose lemmas all conclude in head p, at
// the given priorities.
func chainIndex(t *testing.T, prios map[expr.Name]uint) backward.Index {
	t.Helper()
	ctx := context.Background()

	e := env.New()
	var err error
	for name := range prios {
		e, err = e.Add(env.Declaration{
			Name: name,
			Type: expr.Arrow(expr.Const{Name: "p"}, expr.Const{Name: "p"}),
			Kind: env.KindTheorem,
		})
		if err != nil {
			t.Fatalf("Add(%s) failed: %v", name, err)
		}
	}

	reg := attr.NewRegistry()
	if err := reg.RegisterKind(backward.AttrIntro, nil); err != nil {
		t.Fatalf("RegisterKind failed: %v", err)
	}
	for name, prio := range prios {
		if err := reg.Apply(ctx, e, backward.AttrIntro, name, prio); err != nil {
			t.Fatalf("Apply(%s) failed: %v", name, err)
		}
	}

	idx, err := backward.Build(ctx, e, reg, env.NewCoreElaborator(e))
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	return idx
}

func TestProveChain(t *testing.T) {
	idx := chainIndex(t, map[expr.Name]uint{"p_step": attr.DefaultPriority})
	eng := NewEngine(&chainReducer{}, WithMaxDepth(5))

	sol, err := eng.Prove(context.Background(), idx, pGoal(3))
	if err != nil {
		t.Fatalf("Prove failed: %v", err)
	}
	if sol.Steps() != 4 {
		t.Errorf("Steps = %d, want 4", sol.Steps())
	}
	if sol.Lemma == nil || sol.Lemma.Name != "p_step" {
		t.Errorf("root lemma = %v, want p_step", sol.Lemma)
	}

	// The chain ends in a goal closed directly by the reducer.
	cur := sol
	for cur.Lemma != nil {
		if len(cur.Premises) != 1 {
			t.Fatalf("premises = %d, want 1", len(cur.Premises))
		}
		cur = cur.Premises[0]
	}
	if !expr.Equal(cur.Goal, pGoal(0)) {
		t.Errorf("leaf goal = %s, want %s", cur.Goal, pGoal(0))
	}
}

func TestProveDepthExhausted(t *testing.T) {
	idx := chainIndex(t, map[expr.Name]uint{"p_step": attr.DefaultPriority})

	t.Run("one_short", func(t *testing.T) {
		eng := NewEngine(&chainReducer{}, WithMaxDepth(3))
		if _, err := eng.Prove(context.Background(), idx, pGoal(3)); !errors.Is(err, ErrDepthExhausted) {
			t.Errorf("Prove error = %v, want ErrDepthExhausted", err)
		}
	})

	t.Run("exact", func(t *testing.T) {
		eng := NewEngine(&chainReducer{}, WithMaxDepth(4))
		if _, err := eng.Prove(context.Background(), idx, pGoal(3)); err != nil {
			t.Errorf("Prove at exact depth failed: %v", err)
		}
	})

	t.Run("zero", func(t *testing.T) {
		eng := NewEngine(&chainReducer{}, WithMaxDepth(0))
		if _, err := eng.Prove(context.Background(), idx, pGoal(0)); !errors.Is(err, ErrDepthExhausted) {
			t.Errorf("Prove error = %v, want ErrDepthExhausted", err)
		}
	})
}

func TestProveBacktracking(t *testing.T) {
	// The detour outranks the step lemma, leads to a dead end, and the
	// engine falls back to the next candidate.
	idx := chainIndex(t, map[expr.Name]uint{
		"p_detour": 2000,
		"p_step":   attr.DefaultPriority,
	})
	r := &chainReducer{}
	eng := NewEngine(r, WithMaxDepth(6))

	sol, err := eng.Prove(context.Background(), idx, pGoal(1))
	if err != nil {
		t.Fatalf("Prove failed: %v", err)
	}
	if sol.Lemma == nil || sol.Lemma.Name != "p_step" {
		t.Errorf("winning lemma = %v, want p_step", sol.Lemma)
	}
	if want := []string{"p_detour", "p_step"}; !slices.Equal(r.tried, want) {
		t.Errorf("candidates tried = %v, want %v", r.tried, want)
	}
}

func TestProveNoLemma(t *testing.T) {
	eng := NewEngine(&chainReducer{}, WithMaxDepth(4))

	_, err := eng.Prove(context.Background(), backward.New(), expr.Const{Name: "orphan"})
	if !errors.Is(err, ErrNoProof) {
		t.Errorf("Prove error = %v, want ErrNoProof", err)
	}
	if errors.Is(err, ErrDepthExhausted) {
		t.Error("candidate exhaustion misreported as a depth limit")
	}
}

func TestProvePreStep(t *testing.T) {
	preErr := errors.New("oracle offline")
	pre := func(_ context.Context, g expr.Expr) (bool, error) {
		switch {
		case expr.Equal(g, expr.Const{Name: "trivial"}):
			return true, nil
		case expr.Equal(g, expr.Const{Name: "broken"}):
			return false, preErr
		}
		return false, nil
	}
	eng := NewEngine(&chainReducer{}, WithMaxDepth(2), WithPreStep(pre))

	sol, err := eng.Prove(context.Background(), backward.New(), expr.Const{Name: "trivial"})
	if err != nil {
		t.Fatalf("Prove failed: %v", err)
	}
	if sol.Lemma != nil || sol.Steps() != 1 {
		t.Errorf("pre-step solution = %+v, want a single direct closure", sol)
	}

	if _, err := eng.Prove(context.Background(), backward.New(), expr.Const{Name: "broken"}); !errors.Is(err, preErr) {
		t.Errorf("pre-step error = %v, want %v", err, preErr)
	}
}

func TestProveUnifyError(t *testing.T) {
	bomb := errors.New("unify exploded")
	idx := chainIndex(t, map[expr.Name]uint{"p_bomb": attr.DefaultPriority})
	eng := NewEngine(&chainReducer{unifyErr: bomb}, WithMaxDepth(4))

	_, err := eng.Prove(context.Background(), idx, pGoal(2))
	if !errors.Is(err, bomb) {
		t.Errorf("Prove error = %v, want the reducer failure", err)
	}
	if errors.Is(err, ErrNoProof) {
		t.Error("hard reducer failure misreported as proof exhaustion")
	}
}

func TestProveContextCanceled(t *testing.T) {
	idx := chainIndex(t, map[expr.Name]uint{"p_step": attr.DefaultPriority})
	eng := NewEngine(&chainReducer{}, WithMaxDepth(4))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := eng.Prove(ctx, idx, pGoal(2)); !errors.Is(err, context.Canceled) {
		t.Errorf("Prove error = %v, want context.Canceled", err)
	}
}
