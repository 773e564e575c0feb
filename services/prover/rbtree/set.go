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

// Set is a persistent ordered set built on Map with empty values.
type Set[K any] struct {
	m Map[K, struct{}]
}

// NewSet returns an empty set ordered by cmp.
func NewSet[K any](cmp Compare[K]) Set[K] {
	return Set[K]{m: NewMap[K, struct{}](cmp)}
}

// SetOf builds a set from ks, inserted in order.
func SetOf[K any](cmp Compare[K], ks ...K) Set[K] {
	s := NewSet(cmp)
	for _, k := range ks {
		s = s.Insert(k)
	}
	return s
}

// Insert returns a snapshot extended with k.
func (s Set[K]) Insert(k K) Set[K] {
	return Set[K]{m: s.m.Insert(k, struct{}{})}
}

// Contains reports whether k is present.
func (s Set[K]) Contains(k K) bool {
	return s.m.Contains(k)
}

// Len counts the elements.
func (s Set[K]) Len() int {
	return s.m.Len()
}

// Empty reports whether the set has no elements.
func (s Set[K]) Empty() bool {
	return s.m.Empty()
}

// Elems lists the elements in ascending order.
func (s Set[K]) Elems() []K {
	return s.m.Keys()
}

// Min returns the smallest element, ok=false when the set is empty.
func (s Set[K]) Min() (K, bool) {
	k, _, ok := s.m.Min()
	return k, ok
}

// Max returns the largest element, ok=false when the set is empty.
func (s Set[K]) Max() (K, bool) {
	k, _, ok := s.m.Max()
	return k, ok
}

// ForEach visits elements in ascending order and stops at the first
// error.
func (s Set[K]) ForEach(f func(k K) error) error {
	return s.m.ForEach(func(k K, _ struct{}) error { return f(k) })
}

// Subset reports whether every element of s is in other.
func (s Set[K]) Subset(other Set[K]) bool {
	return Subset(s.m.cmp, s.m.root, other.m.root)
}

// Seteq reports whether s and other hold exactly the same elements.
func (s Set[K]) Seteq(other Set[K]) bool {
	return s.Subset(other) && other.Subset(s)
}
