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
	"fmt"

	"github.com/AleutianAI/AleutianProve/services/prover/expr"
	"github.com/AleutianAI/AleutianProve/services/prover/rbtree"
)

// DeclKind classifies a declaration.
type DeclKind string

const (
	KindAxiom      DeclKind = "axiom"
	KindDefinition DeclKind = "definition"
	KindTheorem    DeclKind = "theorem"
)

// Declaration is a named, typed entry of the environment.
type Declaration struct {
	Name  expr.Name
	Univs []expr.Name
	Type  expr.Expr
	Kind  DeclKind
}

// IsUnivPolymorphic reports whether the declaration takes universe
// parameters.
func (d Declaration) IsUnivPolymorphic() bool {
	return len(d.Univs) > 0
}

// Environment maps declaration names to declarations.
type Environment struct {
	decls rbtree.Map[expr.Name, Declaration]
}

// New returns an empty environment.
func New() Environment {
	return Environment{decls: rbtree.NewMap[expr.Name, Declaration](expr.NameCompare)}
}

// Add returns an environment extended with d. Adding a name twice
// fails with ErrDuplicateDecl.
func (e Environment) Add(d Declaration) (Environment, error) {
	if d.Name.IsAnonymous() {
		return e, fmt.Errorf("%w: declarations need a name", ErrInvalidDecl)
	}
	if e.decls.Contains(d.Name) {
		return e, fmt.Errorf("%w: %s", ErrDuplicateDecl, d.Name)
	}
	return Environment{decls: e.decls.Insert(d.Name, d)}, nil
}

// Find resolves a declaration by name.
func (e Environment) Find(n expr.Name) (Declaration, bool) {
	return e.decls.Find(n)
}

// Contains reports whether n is declared.
func (e Environment) Contains(n expr.Name) bool {
	return e.decls.Contains(n)
}

// Len counts the declarations.
func (e Environment) Len() int {
	return e.decls.Len()
}

// Names lists the declared names in ascending order.
func (e Environment) Names() []expr.Name {
	return e.decls.Keys()
}

// ForEach visits declarations in name order and stops at the first
// error.
func (e Environment) ForEach(f func(Declaration) error) error {
	return e.decls.ForEach(func(_ expr.Name, d Declaration) error { return f(d) })
}
