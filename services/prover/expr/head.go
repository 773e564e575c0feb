// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package expr

// AppFn strips applications and returns the head of the spine. A
// non-application returns itself.
func AppFn(e Expr) Expr {
	for {
		app, ok := e.(App)
		if !ok {
			return e
		}
		e = app.Fn
	}
}

// Spine decomposes a (possibly nested) application into its head and
// argument list, outermost argument last.
func Spine(e Expr) (Expr, []Expr) {
	var rev []Expr
	for {
		app, ok := e.(App)
		if !ok {
			break
		}
		rev = append(rev, app.Arg)
		e = app.Fn
	}
	args := make([]Expr, len(rev))
	for i, a := range rev {
		args[len(rev)-1-i] = a
	}
	return e, args
}

// PiBody strips every leading Pi binder and returns the conclusion.
func PiBody(e Expr) Expr {
	for {
		pi, ok := e.(Pi)
		if !ok {
			return e
		}
		e = pi.Body
	}
}

// HeadKind says which term form a HeadIndex was built from.
type HeadKind uint8

const (
	// HeadConst indexes by declaration name.
	HeadConst HeadKind = iota
	// HeadLocal indexes by free-variable ID, so hypotheses with
	// colliding user names stay distinct.
	HeadLocal
)

func (k HeadKind) String() string {
	if k == HeadLocal {
		return "local"
	}
	return "const"
}

// HeadIndex is the key a conclusion is indexed under: the head symbol
// of the conclusion's application spine. Only constants and free
// variables are indexable heads.
type HeadIndex struct {
	Kind HeadKind
	Name Name
	ID   uint64
}

// ConstHead is the HeadIndex for a named constant.
func ConstHead(n Name) HeadIndex {
	return HeadIndex{Kind: HeadConst, Name: n}
}

// LocalHead is the HeadIndex for a free variable.
func LocalHead(l Local) HeadIndex {
	return HeadIndex{Kind: HeadLocal, Name: l.Name, ID: l.ID}
}

// NewHeadIndex extracts the head symbol of e's application spine.
// ok=false when the head is not a constant or free variable.
func NewHeadIndex(e Expr) (HeadIndex, bool) {
	switch h := AppFn(e).(type) {
	case Const:
		return ConstHead(h.Name), true
	case Local:
		return LocalHead(h), true
	default:
		return HeadIndex{}, false
	}
}

// HeadIndexCompare orders heads for tree storage: locals before
// constants, locals by ID, constants by name. It satisfies the
// comparator contract of the rbtree package.
func HeadIndexCompare(a, b HeadIndex) int {
	if a.Kind != b.Kind {
		if a.Kind == HeadLocal {
			return -1
		}
		return 1
	}
	if a.Kind == HeadLocal {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		default:
			return 0
		}
	}
	return NameCompare(a.Name, b.Name)
}

func (h HeadIndex) String() string {
	if h.Kind == HeadLocal {
		if h.Name.IsAnonymous() {
			return Local{ID: h.ID}.String()
		}
		return string(h.Name)
	}
	return h.Name.String()
}
