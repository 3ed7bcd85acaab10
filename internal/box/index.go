// Copyright 2026 The Grafbox Authors
// SPDX-License-Identifier: Apache-2.0

// Package box implements the interning index (grafbox's component C1):
// a monotonic, insertion-ordered mapping between values of some type and
// small unsigned integer ids starting at 1. Id 0 is permanently reserved
// for "absent" — no value is ever interned at id 0.
package box

import "fmt"

// ID is a 1-based interning id. 0 denotes "absent" and is never assigned.
type ID uint64

// Index is an append-only, insertion-ordered interning table. The zero
// value is not usable; construct with New or NewFrom.
//
// Equality between candidate values is pluggable via the hash/equal pair
// passed to New, so the same Index implementation serves reference
// equality (objects), value equality (scalars, strings, GUIDs), and
// structural equality (array-metadata tuples) without three separate
// types. hash need not be collision-free: IndexOf falls back to equal
// to disambiguate within a bucket.
type Index[T any] struct {
	hash   func(v T) uint64
	equal  func(a, b T) bool
	values []T
	bucket map[uint64][]ID
}

// New creates an empty Index. hash assigns each value to a bucket; equal
// breaks ties within a bucket. Values that hash differently are assumed
// unequal.
func New[T any](hash func(v T) uint64, equal func(a, b T) bool) *Index[T] {
	return &Index[T]{
		hash:   hash,
		equal:  equal,
		bucket: make(map[uint64][]ID),
	}
}

// NewFrom constructs an Index already populated from an existing sequence,
// used during deserialization when ids are read back from an envelope's
// parallel lists. Ids correspond to 1-based positions in values.
func NewFrom[T any](hash func(v T) uint64, equal func(a, b T) bool, values []T) *Index[T] {
	idx := New(hash, equal)
	for _, v := range values {
		idx.values = append(idx.values, v)
		id := ID(len(idx.values))
		h := hash(v)
		idx.bucket[h] = append(idx.bucket[h], id)
	}
	return idx
}

// IndexOf returns the existing id for value if already present (by the
// index's equality), otherwise appends it and returns a fresh id.
func (idx *Index[T]) IndexOf(value T) ID {
	h := idx.hash(value)
	for _, candidate := range idx.bucket[h] {
		if idx.equal(idx.values[candidate-1], value) {
			return candidate
		}
	}

	idx.values = append(idx.values, value)
	id := ID(len(idx.values))
	idx.bucket[h] = append(idx.bucket[h], id)
	return id
}

// ValueOf returns the value at id. It panics for 0 or an out-of-range id —
// callers that need a non-panicking lookup should use TryValueOf.
func (idx *Index[T]) ValueOf(id ID) T {
	value, ok := idx.TryValueOf(id)
	if !ok {
		panic(fmt.Sprintf("box: index id %d out of range [1, %d]", id, len(idx.values)))
	}
	return value
}

// TryValueOf returns the value at id and true, or the zero value and
// false if id is 0 or out of range.
func (idx *Index[T]) TryValueOf(id ID) (T, bool) {
	if id == 0 || int(id) > len(idx.values) {
		var zero T
		return zero, false
	}
	return idx.values[id-1], true
}

// Values returns the interned values in insertion order. The returned
// slice must not be mutated by the caller.
func (idx *Index[T]) Values() []T {
	return idx.values
}

// Len returns the number of interned values.
func (idx *Index[T]) Len() int {
	return len(idx.values)
}
