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

	"github.com/AleutianAI/AleutianProve/services/prover/attr"
	"github.com/AleutianAI/AleutianProve/services/prover/env"
	"github.com/AleutianAI/AleutianProve/services/prover/expr"
)

// AttrIntro is the attribute kind marking introduction rules for
// backward chaining.
const AttrIntro = "intro"

// Lemma is one index entry: either a reference to a declaration by
// name (universe polymorphic, instantiated at application time) or a
// concrete proof term such as a local hypothesis.
type Lemma struct {
	// Name is set for declaration references; Proof is nil then.
	Name expr.Name
	// Proof is set for concrete terms; Name is empty then.
	Proof expr.Expr
	// Prio orders lemmas under one head, larger first. Declaration
	// references carry their attribute priority; concrete terms always
	// carry attr.DefaultPriority.
	Prio uint
}

// ByName builds a declaration-reference lemma.
func ByName(n expr.Name, prio uint) Lemma {
	return Lemma{Name: n, Prio: prio}
}

// ByProof builds a concrete-term lemma at default priority.
func ByProof(proof expr.Expr) Lemma {
	return Lemma{Proof: proof, Prio: attr.DefaultPriority}
}

// IsByName reports whether the lemma references a declaration rather
// than carrying a concrete term.
func (l Lemma) IsByName() bool {
	return l.Proof == nil
}

// Term returns the lemma as a bare expression: the referenced constant
// for declaration references, the proof term otherwise.
func (l Lemma) Term() expr.Expr {
	if l.IsByName() {
		return expr.Const{Name: l.Name}
	}
	return l.Proof
}

// Equal reports whether two lemmas denote the same entry. A
// declaration reference never equals a concrete term, even for the
// same constant.
func (l Lemma) Equal(other Lemma) bool {
	if l.IsByName() != other.IsByName() {
		return false
	}
	if l.IsByName() {
		return l.Name == other.Name
	}
	return expr.Equal(l.Proof, other.Proof)
}

func (l Lemma) String() string {
	if l.IsByName() {
		return l.Name.String()
	}
	return l.Proof.String()
}

// RegisterIntroAttr registers the intro attribute kind on reg. The
// validator rejects, at application time, any declaration whose
// conclusion head is not a constant; such a declaration could never be
// retrieved by goal head.
func RegisterIntroAttr(reg *attr.Registry) error {
	return reg.RegisterKind(AttrIntro, func(_ context.Context, _ env.Environment, d env.Declaration) error {
		h, ok := expr.NewHeadIndex(expr.PiBody(d.Type))
		if !ok || h.Kind != expr.HeadConst {
			return fmt.Errorf("invalid [%s] attribute for '%s', head symbol of resulting type must be a constant", AttrIntro, d.Name)
		}
		return nil
	})
}
