// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package declstore

import (
	"context"
	"encoding/json"
	"fmt"

	"golang.org/x/mod/semver"

	"github.com/AleutianAI/AleutianProve/services/prover/attr"
	"github.com/AleutianAI/AleutianProve/services/prover/env"
	"github.com/AleutianAI/AleutianProve/services/prover/expr"
)

// CurrentFormatVersion is written into exported snapshots.
const CurrentFormatVersion = "v1.0.0"

// supportedMajor gates which snapshot files this build reads.
const supportedMajor = "v1"

// Snapshot is the on-disk catalog format: declarations in dependency
// order plus the attribute applications that mark them.
type Snapshot struct {
	FormatVersion string         `json:"format_version"`
	Declarations  []SnapshotDecl `json:"declarations"`
	Attributes    []SnapshotAttr `json:"attributes,omitempty"`
}

// SnapshotDecl is one serialized declaration.
type SnapshotDecl struct {
	Name  string   `json:"name"`
	Kind  string   `json:"kind"`
	Univs []string `json:"univs,omitempty"`
	Type  Term     `json:"type"`
}

// SnapshotAttr is one serialized attribute application. A zero
// Priority stands for the default. Seq preserves application order
// across export/import round trips.
type SnapshotAttr struct {
	Attr     string `json:"attr"`
	Decl     string `json:"decl"`
	Priority uint   `json:"priority,omitempty"`
	Seq      uint64 `json:"seq,omitempty"`
}

// Term is the JSON encoding of an expression. Exactly one of the
// shape fields is set; an application stores the spine with the
// function first.
type Term struct {
	Var    *int    `json:"var,omitempty"`
	Sort   *uint   `json:"sort,omitempty"`
	Const  *string `json:"const,omitempty"`
	Levels []uint  `json:"levels,omitempty"`
	App    []Term  `json:"app,omitempty"`
	Lam    *Binder `json:"lam,omitempty"`
	Pi     *Binder `json:"pi,omitempty"`
}

// Binder carries the shared shape of lambda and pi terms.
type Binder struct {
	Name string `json:"binder"`
	Dom  Term   `json:"dom"`
	Body Term   `json:"body"`
}

// DecodeTerm turns a serialized term into an expression.
func DecodeTerm(t Term) (expr.Expr, error) {
	switch {
	case t.Var != nil:
		if *t.Var < 0 {
			return nil, fmt.Errorf("%w: negative variable index %d", ErrMalformedSnapshot, *t.Var)
		}
		return expr.Var{Idx: *t.Var}, nil
	case t.Sort != nil:
		return expr.Sort{Level: *t.Sort}, nil
	case t.Const != nil:
		return expr.Const{Name: expr.Name(*t.Const), Levels: t.Levels}, nil
	case len(t.App) > 0:
		if len(t.App) < 2 {
			return nil, fmt.Errorf("%w: application needs a function and an argument", ErrMalformedSnapshot)
		}
		fn, err := DecodeTerm(t.App[0])
		if err != nil {
			return nil, err
		}
		args := make([]expr.Expr, 0, len(t.App)-1)
		for _, a := range t.App[1:] {
			arg, err := DecodeTerm(a)
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
		}
		return expr.Apply(fn, args...), nil
	case t.Lam != nil:
		dom, body, err := decodeBinder(*t.Lam)
		if err != nil {
			return nil, err
		}
		return expr.Lambda{Binder: expr.Name(t.Lam.Name), Dom: dom, Body: body}, nil
	case t.Pi != nil:
		dom, body, err := decodeBinder(*t.Pi)
		if err != nil {
			return nil, err
		}
		return expr.Pi{Binder: expr.Name(t.Pi.Name), Dom: dom, Body: body}, nil
	}
	return nil, fmt.Errorf("%w: term has no recognized shape", ErrMalformedSnapshot)
}

func decodeBinder(b Binder) (expr.Expr, expr.Expr, error) {
	dom, err := DecodeTerm(b.Dom)
	if err != nil {
		return nil, nil, err
	}
	body, err := DecodeTerm(b.Body)
	if err != nil {
		return nil, nil, err
	}
	return dom, body, nil
}

// EncodeTerm serializes an expression. Locals and metavariables are
// session state, not catalog material, and refuse to encode.
func EncodeTerm(e expr.Expr) (Term, error) {
	switch v := e.(type) {
	case expr.Var:
		idx := v.Idx
		return Term{Var: &idx}, nil
	case expr.Sort:
		lvl := v.Level
		return Term{Sort: &lvl}, nil
	case expr.Const:
		name := string(v.Name)
		return Term{Const: &name, Levels: v.Levels}, nil
	case expr.App:
		head, args := expr.Spine(v)
		spine := make([]Term, 0, len(args)+1)
		fn, err := EncodeTerm(head)
		if err != nil {
			return Term{}, err
		}
		spine = append(spine, fn)
		for _, a := range args {
			arg, err := EncodeTerm(a)
			if err != nil {
				return Term{}, err
			}
			spine = append(spine, arg)
		}
		return Term{App: spine}, nil
	case expr.Lambda:
		b, err := encodeBinder(string(v.Binder), v.Dom, v.Body)
		if err != nil {
			return Term{}, err
		}
		return Term{Lam: b}, nil
	case expr.Pi:
		b, err := encodeBinder(string(v.Binder), v.Dom, v.Body)
		if err != nil {
			return Term{}, err
		}
		return Term{Pi: b}, nil
	case expr.Local:
		return Term{}, fmt.Errorf("%w: local %s cannot appear in a catalog term", ErrMalformedSnapshot, v.Name)
	case expr.Meta:
		return Term{}, fmt.Errorf("%w: metavariable %s cannot appear in a catalog term", ErrMalformedSnapshot, v.Name)
	}
	return Term{}, fmt.Errorf("%w: unsupported term %T", ErrMalformedSnapshot, e)
}

func encodeBinder(name string, dom, body expr.Expr) (*Binder, error) {
	d, err := EncodeTerm(dom)
	if err != nil {
		return nil, err
	}
	b, err := EncodeTerm(body)
	if err != nil {
		return nil, err
	}
	return &Binder{Name: name, Dom: d, Body: b}, nil
}

// ParseSnapshot decodes and version-gates one snapshot document.
func ParseSnapshot(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedSnapshot, err)
	}
	if !semver.IsValid(s.FormatVersion) {
		return nil, fmt.Errorf("%w: format_version %q is not a semver string", ErrMalformedSnapshot, s.FormatVersion)
	}
	if semver.Major(s.FormatVersion) != supportedMajor {
		return nil, fmt.Errorf("%w: %s (supported major %s)", ErrUnsupportedVersion, s.FormatVersion, supportedMajor)
	}
	return &s, nil
}

// Apply folds a snapshot into an environment and registry.
//
// # Description
//
// Declarations are added in listed order, then attributes are applied
// in listed order, so the registry's registration sequence mirrors the
// file. Items that fail (duplicate names, unknown attribute kinds,
// validator rejections) are skipped and collected; the returned
// environment contains everything that applied. The error is a
// *BatchError when any item was skipped, nil otherwise.
func (s *Snapshot) Apply(ctx context.Context, e env.Environment, reg *attr.Registry) (env.Environment, error) {
	var errs []error

	for _, d := range s.Declarations {
		decl, err := decodeDecl(d)
		if err != nil {
			errs = append(errs, fmt.Errorf("declaration %s: %w", d.Name, err))
			continue
		}
		next, err := e.Add(decl)
		if err != nil {
			errs = append(errs, fmt.Errorf("declaration %s: %w", d.Name, err))
			continue
		}
		e = next
	}

	for _, a := range s.Attributes {
		prio := a.Priority
		if prio == 0 {
			prio = attr.DefaultPriority
		}
		if err := reg.Apply(ctx, e, a.Attr, expr.Name(a.Decl), prio); err != nil {
			errs = append(errs, fmt.Errorf("attribute [%s] %s: %w", a.Attr, a.Decl, err))
		}
	}

	if len(errs) > 0 {
		return e, &BatchError{Errs: errs}
	}
	return e, nil
}

func decodeDecl(d SnapshotDecl) (env.Declaration, error) {
	kind, err := parseKind(d.Kind)
	if err != nil {
		return env.Declaration{}, err
	}
	typ, err := DecodeTerm(d.Type)
	if err != nil {
		return env.Declaration{}, err
	}
	univs := make([]expr.Name, 0, len(d.Univs))
	for _, u := range d.Univs {
		univs = append(univs, expr.Name(u))
	}
	return env.Declaration{
		Name:  expr.Name(d.Name),
		Univs: univs,
		Type:  typ,
		Kind:  kind,
	}, nil
}

func parseKind(s string) (env.DeclKind, error) {
	switch k := env.DeclKind(s); k {
	case env.KindAxiom, env.KindDefinition, env.KindTheorem:
		return k, nil
	}
	return "", fmt.Errorf("%w: unknown declaration kind %q", ErrMalformedSnapshot, s)
}

// NewSnapshot captures an environment plus the named attribute kinds
// into an exportable snapshot. Declarations appear in name order;
// attribute applications keep their registration sequence.
func NewSnapshot(e env.Environment, reg *attr.Registry, kinds ...string) (*Snapshot, error) {
	s := &Snapshot{FormatVersion: CurrentFormatVersion}

	err := e.ForEach(func(d env.Declaration) error {
		t, err := EncodeTerm(d.Type)
		if err != nil {
			return fmt.Errorf("declaration %s: %w", d.Name, err)
		}
		univs := make([]string, 0, len(d.Univs))
		for _, u := range d.Univs {
			univs = append(univs, string(u))
		}
		s.Declarations = append(s.Declarations, SnapshotDecl{
			Name:  string(d.Name),
			Kind:  string(d.Kind),
			Univs: univs,
			Type:  t,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, kind := range kinds {
		for _, inst := range reg.Instances(kind) {
			s.Attributes = append(s.Attributes, SnapshotAttr{
				Attr:     inst.Attr,
				Decl:     string(inst.Decl),
				Priority: inst.Prio,
				Seq:      inst.Seq,
			})
		}
	}
	return s, nil
}

// Marshal renders the snapshot as indented JSON.
func (s *Snapshot) Marshal() ([]byte, error) {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}
	return data, nil
}
