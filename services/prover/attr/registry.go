// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package attr

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/AleutianAI/AleutianProve/services/prover/env"
	"github.com/AleutianAI/AleutianProve/services/prover/expr"
)

// DefaultPriority is assigned to applications that carry no explicit
// priority.
const DefaultPriority uint = 1000

// Validator vets an attribute application at application time. A
// non-nil error rejects the application.
type Validator func(ctx context.Context, e env.Environment, d env.Declaration) error

// Instance is one recorded attribute application.
type Instance struct {
	Attr string
	Decl expr.Name
	Prio uint

	// Seq is the registration sequence; later applications carry
	// larger values. Re-applying an attribute updates the priority but
	// keeps the original Seq.
	Seq uint64
}

// Registry stores attribute kinds and their applications.
type Registry struct {
	mu         sync.RWMutex
	validators map[string]Validator
	instances  map[string][]Instance
	seq        uint64
}

// NewRegistry returns an empty registry with no kinds.
func NewRegistry() *Registry {
	return &Registry{
		validators: make(map[string]Validator),
		instances:  make(map[string][]Instance),
	}
}

// RegisterKind adds an attribute kind. validate may be nil for kinds
// that accept every declaration.
func (r *Registry) RegisterKind(name string, validate Validator) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.validators[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateAttr, name)
	}
	r.validators[name] = validate
	slog.Debug("Registered attribute kind", "attr", name)
	return nil
}

// Apply records attribute on the named declaration at the given
// priority, running the kind's validator first.
//
// # Outputs
//   - ErrUnknownAttr when the kind was never registered.
//   - env.ErrUnknownDecl when the declaration is not in e.
//   - ErrInvalidAttr (wrapping the validator's message) when the
//     validator rejects the declaration.
func (r *Registry) Apply(ctx context.Context, e env.Environment, attribute string, declName expr.Name, prio uint) error {
	r.mu.RLock()
	validate, ok := r.validators[attribute]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownAttr, attribute)
	}

	d, found := e.Find(declName)
	if !found {
		return fmt.Errorf("%w: %s", env.ErrUnknownDecl, declName)
	}

	if validate != nil {
		if err := validate(ctx, e, d); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidAttr, err)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for i, inst := range r.instances[attribute] {
		if inst.Decl == declName {
			r.instances[attribute][i].Prio = prio
			slog.Debug("Updated attribute priority", "attr", attribute, "decl", declName, "prio", prio)
			return nil
		}
	}

	r.seq++
	r.instances[attribute] = append(r.instances[attribute], Instance{
		Attr: attribute,
		Decl: declName,
		Prio: prio,
		Seq:  r.seq,
	})
	return nil
}

// Has reports whether attribute is applied to declName.
func (r *Registry) Has(attribute string, declName expr.Name) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, inst := range r.instances[attribute] {
		if inst.Decl == declName {
			return true
		}
	}
	return false
}

// Priority returns the recorded priority for declName under attribute.
func (r *Registry) Priority(attribute string, declName expr.Name) (uint, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, inst := range r.instances[attribute] {
		if inst.Decl == declName {
			return inst.Prio, true
		}
	}
	return 0, false
}

// Instances returns the applications of attribute in registration
// order, earliest first. The slice is a copy.
func (r *Registry) Instances(attribute string) []Instance {
	r.mu.RLock()
	defer r.mu.RUnlock()

	src := r.instances[attribute]
	out := make([]Instance, len(src))
	copy(out, src)
	return out
}

// InstancesByPriority returns the applications of attribute ordered by
// descending priority; equal priorities rank the most recently
// registered first.
func (r *Registry) InstancesByPriority(attribute string) []Instance {
	out := r.Instances(attribute)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Prio != out[j].Prio {
			return out[i].Prio > out[j].Prio
		}
		return out[i].Seq > out[j].Seq
	})
	return out
}
