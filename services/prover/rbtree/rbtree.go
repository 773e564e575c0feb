// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package rbtree implements a persistent red-black tree.
//
// # Ownership Model
//
// Trees are immutable values. An operation that would modify a tree
// instead returns a new root that shares every untouched subtree with
// its input; the input is never changed. A caller therefore owns each
// snapshot it holds and may keep, extend, or discard snapshots
// independently of every other holder.
//
// # Thread Safety
//
// Any number of goroutines may read and extend the same tree
// concurrently without synchronization. Publishing a fresh snapshot to
// other goroutines (swapping a current-index pointer, for example) is
// the caller's concern, not the tree's.
package rbtree

import "cmp"

// Compare orders keys. It returns a negative value when a sorts before
// b, zero when the keys are equal, and a positive value otherwise.
type Compare[K any] func(a, b K) int

// Ordered returns a Compare for any naturally ordered key type.
func Ordered[K cmp.Ordered]() Compare[K] {
	return func(a, b K) int { return cmp.Compare(a, b) }
}

// Color is a node color. The empty tree counts as black.
type Color uint8

const (
	Red Color = iota
	Black
)

func (c Color) String() string {
	if c == Red {
		return "red"
	}
	return "black"
}

// Node is one tree node. A nil *Node is the empty tree.
//
// No rebalancing happens at red nodes: a red parent rebuilds itself
// around the inserted child and defers repair to its black ancestor,
// which resolves any double red through balance1 (left side) or
// balance2 (right side).
type Node[K, V any] struct {
	color Color
	left  *Node[K, V]
	right *Node[K, V]
	key   K
	val   V
}

// Entry is a key-value pair produced by list conversions.
type Entry[K, V any] struct {
	Key K
	Val V
}

// Color reports the node color; a nil node is black.
func (n *Node[K, V]) Color() Color {
	if n == nil {
		return Black
	}
	return n.color
}

// Left returns the left child, nil for the empty tree.
func (n *Node[K, V]) Left() *Node[K, V] {
	if n == nil {
		return nil
	}
	return n.left
}

// Right returns the right child, nil for the empty tree.
func (n *Node[K, V]) Right() *Node[K, V] {
	if n == nil {
		return nil
	}
	return n.right
}

// Entry returns the node's key and value. Calling it on the empty tree
// returns zero values.
func (n *Node[K, V]) Entry() (K, V) {
	if n == nil {
		var k K
		var v V
		return k, v
	}
	return n.key, n.val
}

// balance1 repairs a double red on the left side of a black parent.
// (a, kx, vx, b) are the unpacked parts of the rebuilt left child,
// (ky, vy) the parent entry, and t the untouched right sibling. At most
// one of a, b is red; when neither is, no repair was needed and the
// parent is rebuilt black.
func balance1[K, V any](a *Node[K, V], kx K, vx V, b *Node[K, V], ky K, vy V, t *Node[K, V]) *Node[K, V] {
	if a.Color() == Red {
		return &Node[K, V]{
			color: Red,
			left:  &Node[K, V]{color: Black, left: a.left, right: a.right, key: a.key, val: a.val},
			key:   kx,
			val:   vx,
			right: &Node[K, V]{color: Black, left: b, right: t, key: ky, val: vy},
		}
	}
	if b.Color() == Red {
		return &Node[K, V]{
			color: Red,
			left:  &Node[K, V]{color: Black, left: a, right: b.left, key: kx, val: vx},
			key:   b.key,
			val:   b.val,
			right: &Node[K, V]{color: Black, left: b.right, right: t, key: ky, val: vy},
		}
	}
	return &Node[K, V]{
		color: Black,
		left:  &Node[K, V]{color: Red, left: a, right: b, key: kx, val: vx},
		key:   ky,
		val:   vy,
		right: t,
	}
}

// balance2 mirrors balance1 for the right side. t is the untouched
// LEFT sibling and ends up leftmost in every produced shape.
func balance2[K, V any](a *Node[K, V], kx K, vx V, b *Node[K, V], ky K, vy V, t *Node[K, V]) *Node[K, V] {
	if a.Color() == Red {
		return &Node[K, V]{
			color: Red,
			left:  &Node[K, V]{color: Black, left: t, right: a.left, key: ky, val: vy},
			key:   a.key,
			val:   a.val,
			right: &Node[K, V]{color: Black, left: a.right, right: b, key: kx, val: vx},
		}
	}
	if b.Color() == Red {
		return &Node[K, V]{
			color: Red,
			left:  &Node[K, V]{color: Black, left: t, right: a, key: ky, val: vy},
			key:   kx,
			val:   vx,
			right: &Node[K, V]{color: Black, left: b.left, right: b.right, key: b.key, val: b.val},
		}
	}
	return &Node[K, V]{
		color: Black,
		left:  t,
		key:   ky,
		val:   vy,
		right: &Node[K, V]{color: Red, left: a, right: b, key: kx, val: vx},
	}
}

// balance1Node unpacks the rebuilt left child n and dispatches to
// balance1. n is never nil on real insert paths; the nil arm keeps the
// function total.
func balance1Node[K, V any](n *Node[K, V], ky K, vy V, t *Node[K, V]) *Node[K, V] {
	if n == nil {
		return t
	}
	return balance1(n.left, n.key, n.val, n.right, ky, vy, t)
}

// balance2Node unpacks the rebuilt right child n and dispatches to
// balance2. t is the left sibling.
func balance2Node[K, V any](n *Node[K, V], ky K, vy V, t *Node[K, V]) *Node[K, V] {
	if n == nil {
		return t
	}
	return balance2(n.left, n.key, n.val, n.right, ky, vy, t)
}

// ins descends to the insertion point and rebuilds the spine on the way
// back up. Red parents rebuild without repair. Black parents check the
// pre-insert color of the child they descended into: a red child may
// have come back carrying a double red at its top, which balance1Node
// or balance2Node resolves. An equal key replaces the value in place,
// keeping shape and colors.
func ins[K, V any](cmp Compare[K], n *Node[K, V], k K, v V) *Node[K, V] {
	if n == nil {
		return &Node[K, V]{color: Red, key: k, val: v}
	}
	c := cmp(k, n.key)
	if n.color == Red {
		switch {
		case c < 0:
			return &Node[K, V]{color: Red, left: ins(cmp, n.left, k, v), right: n.right, key: n.key, val: n.val}
		case c > 0:
			return &Node[K, V]{color: Red, left: n.left, right: ins(cmp, n.right, k, v), key: n.key, val: n.val}
		default:
			return &Node[K, V]{color: Red, left: n.left, right: n.right, key: k, val: v}
		}
	}
	switch {
	case c < 0:
		if n.left.Color() == Red {
			return balance1Node(ins(cmp, n.left, k, v), n.key, n.val, n.right)
		}
		return &Node[K, V]{color: Black, left: ins(cmp, n.left, k, v), right: n.right, key: n.key, val: n.val}
	case c > 0:
		if n.right.Color() == Red {
			return balance2Node(ins(cmp, n.right, k, v), n.key, n.val, n.left)
		}
		return &Node[K, V]{color: Black, left: n.left, right: ins(cmp, n.right, k, v), key: n.key, val: n.val}
	default:
		return &Node[K, V]{color: Black, left: n.left, right: n.right, key: k, val: v}
	}
}

// mkInsertResult recolors the new root black when the pre-insert root
// was red and the rebuild came back red. In every other case the result
// is used as is, so a tree whose root was black may legitimately come
// out of an insert with a red root.
func mkInsertResult[K, V any](c Color, n *Node[K, V]) *Node[K, V] {
	if c == Red && n.Color() == Red {
		return &Node[K, V]{color: Black, left: n.left, right: n.right, key: n.key, val: n.val}
	}
	return n
}

// Insert returns a tree containing (k, v) in addition to everything in
// t. If k is already present its value is replaced and the shape and
// coloring of the result are identical to t's.
//
// # Inputs
//   - cmp: key ordering; must be consistent across every operation on
//     the same tree.
//   - t: the snapshot to extend; it is not modified.
//
// # Outputs
//   - The extended tree. Unmodified subtrees are shared with t.
func Insert[K, V any](cmp Compare[K], t *Node[K, V], k K, v V) *Node[K, V] {
	return mkInsertResult(t.Color(), ins(cmp, t, k, v))
}

// Find locates the value stored under k.
func Find[K, V any](cmp Compare[K], t *Node[K, V], k K) (V, bool) {
	for t != nil {
		switch c := cmp(k, t.key); {
		case c < 0:
			t = t.left
		case c > 0:
			t = t.right
		default:
			return t.val, true
		}
	}
	var zero V
	return zero, false
}

// Contains reports whether k is present in t.
func Contains[K, V any](cmp Compare[K], t *Node[K, V], k K) bool {
	_, ok := Find(cmp, t, k)
	return ok
}

// Min returns the smallest entry of t, ok=false on the empty tree.
func Min[K, V any](t *Node[K, V]) (K, V, bool) {
	if t == nil {
		var k K
		var v V
		return k, v, false
	}
	for t.left != nil {
		t = t.left
	}
	return t.key, t.val, true
}

// Max returns the largest entry of t, ok=false on the empty tree.
func Max[K, V any](t *Node[K, V]) (K, V, bool) {
	if t == nil {
		var k K
		var v V
		return k, v, false
	}
	for t.right != nil {
		t = t.right
	}
	return t.key, t.val, true
}

// Depth folds f over the child depths of every node, plus one per
// level. Depth(max) is the height; Depth(min) the shallowest leaf.
func Depth[K, V any](f func(l, r uint) uint, t *Node[K, V]) uint {
	if t == nil {
		return 0
	}
	return f(Depth(f, t.left), Depth(f, t.right)) + 1
}

// FromList inserts entries in order into the empty tree. Later
// duplicates replace earlier values.
func FromList[K, V any](cmp Compare[K], entries []Entry[K, V]) *Node[K, V] {
	var t *Node[K, V]
	for _, e := range entries {
		t = Insert(cmp, t, e.Key, e.Val)
	}
	return t
}
