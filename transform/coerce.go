// Copyright 2026 The Grafbox Authors
// SPDX-License-Identifier: Apache-2.0

package transform

import "reflect"

// coerceTo adapts a resolved child object to the reflect.Value shape a
// container or record slot expects.
//
// Every grafbox transformer that constructs a value type (a fixed-size Go
// array, or a storable struct stored by value rather than by pointer)
// must hand back a pointer to it during deserialization, since Phase B
// mutates the shell in place through a box table slot that otherwise
// holds an unaddressable copy. coerceTo undoes that indirection at the
// point the value is consumed — a struct member, a slice element, a map
// value — whose static type is the pointer's element type rather than
// the pointer itself.
func coerceTo(object any, target reflect.Type) reflect.Value {
	v := reflect.ValueOf(object)
	if !v.IsValid() {
		return reflect.Zero(target)
	}
	if v.Type() == target {
		return v
	}
	if v.Kind() == reflect.Pointer && v.Type().Elem() == target {
		return v.Elem()
	}
	return v
}

// wireElementType undoes typemeta's pointer-to-struct normalization (see
// typemeta.Metadata.build) when the array and map transformers rebuild a
// concrete Go container type from a resolved element/key/value type.
// TypeForMetadata always resolves a storable struct to its bare type, but
// every such type is boxed and constructed by pointer (registry.TypeInfo's
// Construct), so a container holding it must be rebuilt with a pointer
// element to match what its children actually resolve to.
func wireElementType(resolved reflect.Type) reflect.Type {
	if resolved.Kind() == reflect.Struct {
		return reflect.PointerTo(resolved)
	}
	return resolved
}

// boxable returns a value m.BoxIDFor can accept for v: the record
// transformer's Box always describes a struct by its pointer (see
// coerceTo), so a struct-kind member, slice element, or map entry must
// reach BoxIDFor as a pointer too. When v is already addressable (true
// for struct fields and slice elements, never for map keys or values —
// a quirk of what the reflect package lets you take the address of),
// its address is used directly; otherwise a fresh addressable copy is
// made first. Non-struct kinds pass through unchanged.
func boxable(v reflect.Value) reflect.Value {
	if v.Kind() != reflect.Struct {
		return v
	}
	if v.CanAddr() {
		return v.Addr()
	}
	tmp := reflect.New(v.Type())
	tmp.Elem().Set(v)
	return tmp
}
