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

// Map is a persistent ordered map. The zero Map is unusable; construct
// one with NewMap so the comparator travels with every snapshot.
//
// Map values are cheap to copy: a Map is a comparator plus a root
// pointer. Insert returns a new Map and leaves the receiver untouched.
type Map[K, V any] struct {
	cmp  Compare[K]
	root *Node[K, V]
}

// NewMap returns an empty map ordered by cmp.
//
// # Inputs
//   - cmp: key ordering; shared by every snapshot derived from this
//     map.
//
// # Outputs
//   - An empty persistent map.
func NewMap[K, V any](cmp Compare[K]) Map[K, V] {
	return Map[K, V]{cmp: cmp}
}

// MapOf builds a map from entries, inserted in order.
func MapOf[K, V any](cmp Compare[K], entries ...Entry[K, V]) Map[K, V] {
	return Map[K, V]{cmp: cmp, root: FromList(cmp, entries)}
}

// Insert returns a snapshot extended with (k, v). An existing key has
// its value replaced.
func (m Map[K, V]) Insert(k K, v V) Map[K, V] {
	return Map[K, V]{cmp: m.cmp, root: Insert(m.cmp, m.root, k, v)}
}

// Find returns the value stored under k.
func (m Map[K, V]) Find(k K) (V, bool) {
	return Find(m.cmp, m.root, k)
}

// Contains reports whether k is present.
func (m Map[K, V]) Contains(k K) bool {
	return Contains(m.cmp, m.root, k)
}

// Min returns the smallest entry, ok=false when the map is empty.
func (m Map[K, V]) Min() (K, V, bool) {
	return Min(m.root)
}

// Max returns the largest entry, ok=false when the map is empty.
func (m Map[K, V]) Max() (K, V, bool) {
	return Max(m.root)
}

// Len counts the entries.
func (m Map[K, V]) Len() int {
	return Len(m.root)
}

// Empty reports whether the map has no entries.
func (m Map[K, V]) Empty() bool {
	return m.root == nil
}

// Entries lists the map in ascending key order.
func (m Map[K, V]) Entries() []Entry[K, V] {
	return ToList(m.root)
}

// Keys lists the keys in ascending order.
func (m Map[K, V]) Keys() []K {
	return Keys(m.root)
}

// ForEach visits entries in ascending key order and stops at the first
// error.
func (m Map[K, V]) ForEach(f func(k K, v V) error) error {
	return MFor(m.root, f)
}

// Root exposes the underlying tree for the package-level fold
// operations.
func (m Map[K, V]) Root() *Node[K, V] {
	return m.root
}
