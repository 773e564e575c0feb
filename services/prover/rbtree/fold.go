// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package rbtree

// Fold threads an accumulator through every entry in ascending key
// order.
func Fold[K, V, A any](t *Node[K, V], init A, f func(k K, v V, acc A) A) A {
	if t == nil {
		return init
	}
	return Fold(t.right, f(t.key, t.val, Fold(t.left, init, f)), f)
}

// RevFold threads an accumulator through every entry in descending key
// order.
func RevFold[K, V, A any](t *Node[K, V], init A, f func(k K, v V, acc A) A) A {
	if t == nil {
		return init
	}
	return RevFold(t.left, f(t.key, t.val, RevFold(t.right, init, f)), f)
}

// MFold is Fold with a fallible step. The traversal stops at the first
// error; on error the returned accumulator is the zero value and must
// not be used.
func MFold[K, V, A any](t *Node[K, V], init A, f func(k K, v V, acc A) (A, error)) (A, error) {
	if t == nil {
		return init, nil
	}
	acc, err := MFold(t.left, init, f)
	if err != nil {
		return acc, err
	}
	acc, err = f(t.key, t.val, acc)
	if err != nil {
		var zero A
		return zero, err
	}
	return MFold(t.right, acc, f)
}

// MFor visits every entry in ascending key order and stops at the
// first error, which it returns.
func MFor[K, V any](t *Node[K, V], f func(k K, v V) error) error {
	if t == nil {
		return nil
	}
	if err := MFor(t.left, f); err != nil {
		return err
	}
	if err := f(t.key, t.val); err != nil {
		return err
	}
	return MFor(t.right, f)
}

// ToList flattens t into ascending key order.
func ToList[K, V any](t *Node[K, V]) []Entry[K, V] {
	return Fold(t, []Entry[K, V](nil), func(k K, v V, acc []Entry[K, V]) []Entry[K, V] {
		return append(acc, Entry[K, V]{Key: k, Val: v})
	})
}

// Keys flattens t's keys into ascending order.
func Keys[K, V any](t *Node[K, V]) []K {
	return Fold(t, []K(nil), func(k K, _ V, acc []K) []K {
		return append(acc, k)
	})
}

// Len counts the entries in t.
func Len[K, V any](t *Node[K, V]) int {
	return Fold(t, 0, func(_ K, _ V, n int) int { return n + 1 })
}

// All reports whether p holds for every entry. It short-circuits on the
// first failure; the visit order is unspecified.
func All[K, V any](t *Node[K, V], p func(k K, v V) bool) bool {
	if t == nil {
		return true
	}
	return p(t.key, t.val) && All(t.left, p) && All(t.right, p)
}

// Any reports whether p holds for at least one entry. It
// short-circuits on the first hit; the visit order is unspecified.
func Any[K, V any](t *Node[K, V], p func(k K, v V) bool) bool {
	if t == nil {
		return false
	}
	return p(t.key, t.val) || Any(t.left, p) || Any(t.right, p)
}

// Subset reports whether every key of t1 is present in t2. Values are
// not compared.
func Subset[K, V any](cmp Compare[K], t1, t2 *Node[K, V]) bool {
	return All(t1, func(k K, _ V) bool { return Contains(cmp, t2, k) })
}

// Seteq reports whether t1 and t2 hold exactly the same key set.
func Seteq[K, V any](cmp Compare[K], t1, t2 *Node[K, V]) bool {
	return Subset(cmp, t1, t2) && Subset(cmp, t2, t1)
}
