// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package expr models the term language the lemma index operates on.
//
// The representation is deliberately small: just enough structure to
// state declaration types, strip binders, and extract the head symbol
// of a conclusion. Terms are immutable once built; sharing subterms
// across expressions is safe and expected.
package expr

import (
	"fmt"
	"strings"
	"sync/atomic"
)

// Name is a hierarchical declaration name with dot-separated
// components, for example "list.append_assoc".
type Name string

// Anonymous is the empty name.
const Anonymous Name = ""

// NameCompare orders names lexicographically. It satisfies the
// comparator contract of the rbtree package.
func NameCompare(a, b Name) int {
	return strings.Compare(string(a), string(b))
}

// IsAnonymous reports whether n is the empty name.
func (n Name) IsAnonymous() bool { return n == Anonymous }

func (n Name) String() string {
	if n.IsAnonymous() {
		return "[anonymous]"
	}
	return string(n)
}

// Expr is a term. The concrete types are Var, Sort, Const, Local,
// Meta, App, Lambda, and Pi; everything else in the system treats
// terms through type switches on this interface.
type Expr interface {
	isExpr()
	String() string
}

// Var is a bound variable referencing the idx-th enclosing binder.
type Var struct {
	Idx int
}

// Sort is a type universe.
type Sort struct {
	Level uint
}

// Const references a declaration by name, instantiated at the given
// universe levels.
type Const struct {
	Name   Name
	Levels []uint
}

// Local is a free variable, typically a hypothesis in scope. The ID is
// unique per variable; the user-facing Name may collide freely.
type Local struct {
	ID   uint64
	Name Name
	Type Expr
}

// Meta is an unresolved placeholder.
type Meta struct {
	ID   uint64
	Name Name
}

// App applies Fn to Arg. Multi-argument applications are left-nested
// App spines.
type App struct {
	Fn  Expr
	Arg Expr
}

// Lambda abstracts Body over a value of type Dom.
type Lambda struct {
	Binder Name
	Dom    Expr
	Body   Expr
}

// Pi is a dependent function type; the conclusion of a lemma sits
// under its trailing Pi telescope.
type Pi struct {
	Binder Name
	Dom    Expr
	Body   Expr
}

func (Var) isExpr()    {}
func (Sort) isExpr()   {}
func (Const) isExpr()  {}
func (Local) isExpr()  {}
func (Meta) isExpr()   {}
func (App) isExpr()    {}
func (Lambda) isExpr() {}
func (Pi) isExpr()     {}

func (e Var) String() string  { return fmt.Sprintf("#%d", e.Idx) }
func (e Sort) String() string { return fmt.Sprintf("Sort %d", e.Level) }
func (e Const) String() string {
	return e.Name.String()
}
func (e Local) String() string {
	if e.Name.IsAnonymous() {
		return fmt.Sprintf("_fvar.%d", e.ID)
	}
	return string(e.Name)
}
func (e Meta) String() string { return fmt.Sprintf("?m.%d", e.ID) }
func (e App) String() string {
	fn, args := Spine(e)
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, fn.String())
	for _, a := range args {
		parts = append(parts, a.String())
	}
	return "(" + strings.Join(parts, " ") + ")"
}
func (e Lambda) String() string {
	return fmt.Sprintf("fun (%s : %s) => %s", binderName(e.Binder), e.Dom, e.Body)
}
func (e Pi) String() string {
	return fmt.Sprintf("forall (%s : %s), %s", binderName(e.Binder), e.Dom, e.Body)
}

func binderName(n Name) string {
	if n.IsAnonymous() {
		return "_"
	}
	return string(n)
}

// localSeq hands out process-unique Local and Meta IDs.
var localSeq atomic.Uint64

// NextID returns a fresh unique ID for a Local or Meta.
func NextID() uint64 {
	return localSeq.Add(1)
}

// NewLocal builds a Local with a fresh ID.
func NewLocal(name Name, typ Expr) Local {
	return Local{ID: NextID(), Name: name, Type: typ}
}

// Apply left-nests args onto fn.
func Apply(fn Expr, args ...Expr) Expr {
	e := fn
	for _, a := range args {
		e = App{Fn: e, Arg: a}
	}
	return e
}

// Arrow is the non-dependent Pi from into out.
func Arrow(from, to Expr) Pi {
	return Pi{Binder: Anonymous, Dom: from, Body: to}
}

// Equal reports structural equality. Universe levels, Local IDs, and
// binder names all participate; alpha-equivalence is out of scope.
func Equal(a, b Expr) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch x := a.(type) {
	case Var:
		y, ok := b.(Var)
		return ok && x.Idx == y.Idx
	case Sort:
		y, ok := b.(Sort)
		return ok && x.Level == y.Level
	case Const:
		y, ok := b.(Const)
		if !ok || x.Name != y.Name || len(x.Levels) != len(y.Levels) {
			return false
		}
		for i := range x.Levels {
			if x.Levels[i] != y.Levels[i] {
				return false
			}
		}
		return true
	case Local:
		y, ok := b.(Local)
		return ok && x.ID == y.ID
	case Meta:
		y, ok := b.(Meta)
		return ok && x.ID == y.ID
	case App:
		y, ok := b.(App)
		return ok && Equal(x.Fn, y.Fn) && Equal(x.Arg, y.Arg)
	case Lambda:
		y, ok := b.(Lambda)
		return ok && x.Binder == y.Binder && Equal(x.Dom, y.Dom) && Equal(x.Body, y.Body)
	case Pi:
		y, ok := b.(Pi)
		return ok && x.Binder == y.Binder && Equal(x.Dom, y.Dom) && Equal(x.Body, y.Body)
	default:
		return false
	}
}
