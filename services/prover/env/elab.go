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
	"fmt"

	"github.com/AleutianAI/AleutianProve/services/prover/expr"
)

// Elaborator infers the type of a term. Implementations may be backed
// by a full elaboration service; the index only needs Infer.
type Elaborator interface {
	Infer(ctx context.Context, e expr.Expr) (expr.Expr, error)
}

// CoreElaborator is the built-in minimal elaborator. It resolves
// constants from the environment, reads free-variable types off their
// binding, and lifts sorts. Forms whose types require substitution
// (applications, binders) are refused with ErrCannotInfer; indexing
// never needs them.
type CoreElaborator struct {
	env Environment
}

// NewCoreElaborator returns an elaborator reading from env.
func NewCoreElaborator(env Environment) *CoreElaborator {
	return &CoreElaborator{env: env}
}

// Infer implements Elaborator.
func (c *CoreElaborator) Infer(ctx context.Context, e expr.Expr) (expr.Expr, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	switch t := e.(type) {
	case expr.Const:
		d, ok := c.env.Find(t.Name)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownDecl, t.Name)
		}
		return d.Type, nil
	case expr.Local:
		if t.Type == nil {
			return nil, fmt.Errorf("%w: free variable %s carries no type", ErrCannotInfer, t)
		}
		return t.Type, nil
	case expr.Sort:
		return expr.Sort{Level: t.Level + 1}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrCannotInfer, e)
	}
}
