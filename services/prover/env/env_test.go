// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package env

import (
	"context"
	"errors"
	"testing"

	"github.com/AleutianAI/AleutianProve/services/prover/expr"
)

func decl(name expr.Name, typ expr.Expr) Declaration {
	return Declaration{Name: name, Type: typ, Kind: KindTheorem}
}

func TestEnvironmentAddFind(t *testing.T) {
	e := New()

	e, err := e.Add(decl("true.intro", expr.Const{Name: "true"}))
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	e, err = e.Add(decl("and.intro", expr.Const{Name: "and"}))
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	d, ok := e.Find("true.intro")
	if !ok {
		t.Fatal("Find missed an added declaration")
	}
	if !expr.Equal(d.Type, expr.Const{Name: "true"}) {
		t.Errorf("declaration type = %s, want true", d.Type)
	}
	if e.Len() != 2 {
		t.Errorf("Len = %d, want 2", e.Len())
	}
	if !e.Contains("and.intro") {
		t.Error("Contains missed an added declaration")
	}
	if e.Contains("or.intro") {
		t.Error("Contains reports an absent declaration")
	}
}

func TestEnvironmentDuplicate(t *testing.T) {
	e := New()
	e, _ = e.Add(decl("nat.zero_le", expr.Const{Name: "p"}))

	_, err := e.Add(decl("nat.zero_le", expr.Const{Name: "q"}))
	if !errors.Is(err, ErrDuplicateDecl) {
		t.Fatalf("duplicate Add error = %v, want ErrDuplicateDecl", err)
	}

	_, err = e.Add(Declaration{Type: expr.Const{Name: "p"}})
	if !errors.Is(err, ErrInvalidDecl) {
		t.Fatalf("anonymous Add error = %v, want ErrInvalidDecl", err)
	}
}

func TestEnvironmentSnapshots(t *testing.T) {
	base := New()
	base, _ = base.Add(decl("a", expr.Const{Name: "p"}))

	derived, _ := base.Add(decl("b", expr.Const{Name: "q"}))

	if base.Contains("b") {
		t.Error("base snapshot sees a declaration added to a derived snapshot")
	}
	if !derived.Contains("a") || !derived.Contains("b") {
		t.Error("derived snapshot is missing declarations")
	}
}

func TestCoreElaborator(t *testing.T) {
	e := New()
	natLe := expr.Arrow(expr.Const{Name: "nat"}, expr.Const{Name: "prop"})
	e, _ = e.Add(Declaration{Name: "nat.le", Type: natLe, Kind: KindDefinition})

	elab := NewCoreElaborator(e)
	ctx := context.Background()

	t.Run("constant", func(t *testing.T) {
		typ, err := elab.Infer(ctx, expr.Const{Name: "nat.le"})
		if err != nil {
			t.Fatalf("Infer failed: %v", err)
		}
		if !expr.Equal(typ, natLe) {
			t.Errorf("Infer = %s, want %s", typ, natLe)
		}
	})

	t.Run("unknown_constant", func(t *testing.T) {
		_, err := elab.Infer(ctx, expr.Const{Name: "nat.ge"})
		if !errors.Is(err, ErrUnknownDecl) {
			t.Fatalf("Infer error = %v, want ErrUnknownDecl", err)
		}
	})

	t.Run("local", func(t *testing.T) {
		h := expr.NewLocal("h", expr.Const{Name: "p"})
		typ, err := elab.Infer(ctx, h)
		if err != nil {
			t.Fatalf("Infer failed: %v", err)
		}
		if !expr.Equal(typ, expr.Const{Name: "p"}) {
			t.Errorf("Infer = %s, want p", typ)
		}
	})

	t.Run("untyped_local", func(t *testing.T) {
		_, err := elab.Infer(ctx, expr.Local{ID: 9, Name: "h"})
		if !errors.Is(err, ErrCannotInfer) {
			t.Fatalf("Infer error = %v, want ErrCannotInfer", err)
		}
	})

	t.Run("sort", func(t *testing.T) {
		typ, err := elab.Infer(ctx, expr.Sort{Level: 1})
		if err != nil {
			t.Fatalf("Infer failed: %v", err)
		}
		if !expr.Equal(typ, expr.Sort{Level: 2}) {
			t.Errorf("Infer = %s, want Sort 2", typ)
		}
	})

	t.Run("application_refused", func(t *testing.T) {
		_, err := elab.Infer(ctx, expr.Apply(expr.Const{Name: "f"}, expr.Const{Name: "a"}))
		if !errors.Is(err, ErrCannotInfer) {
			t.Fatalf("Infer error = %v, want ErrCannotInfer", err)
		}
	})

	t.Run("canceled_context", func(t *testing.T) {
		canceled, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := elab.Infer(canceled, expr.Const{Name: "nat.le"})
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Infer error = %v, want context.Canceled", err)
		}
	})
}
