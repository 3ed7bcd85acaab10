// Copyright 2026 The Grafbox Authors
// SPDX-License-Identifier: Apache-2.0

package transform

import (
	"github.com/grafbox/grafbox/guid"
	"github.com/grafbox/grafbox/registry"
)

// Fixed well-known GUIDs for Go's built-in scalar types. Every leaf value
// needs a registered type GUID the same way a user record does; these
// pin the primitive kinds to stable identities so two independently
// built grafbox processes agree on what "a bool" or "a float64" means
// on the wire, rather than generating them per process.
var (
	boolGUID    = guid.MustParse("00000000-0000-0000-0000-0000000b0001")
	intGUID     = guid.MustParse("00000000-0000-0000-0000-0000000b0002")
	int8GUID    = guid.MustParse("00000000-0000-0000-0000-0000000b0003")
	int16GUID   = guid.MustParse("00000000-0000-0000-0000-0000000b0004")
	int32GUID   = guid.MustParse("00000000-0000-0000-0000-0000000b0005")
	int64GUID   = guid.MustParse("00000000-0000-0000-0000-0000000b0006")
	uintGUID    = guid.MustParse("00000000-0000-0000-0000-0000000b0007")
	uint8GUID   = guid.MustParse("00000000-0000-0000-0000-0000000b0008")
	uint16GUID  = guid.MustParse("00000000-0000-0000-0000-0000000b0009")
	uint32GUID  = guid.MustParse("00000000-0000-0000-0000-0000000b000a")
	uint64GUID  = guid.MustParse("00000000-0000-0000-0000-0000000b000b")
	float32GUID = guid.MustParse("00000000-0000-0000-0000-0000000b000c")
	float64GUID = guid.MustParse("00000000-0000-0000-0000-0000000b000d")
	stringGUID  = guid.MustParse("00000000-0000-0000-0000-0000000b000e")
)

// registerBuiltinScalars pins a GUID for each of Go's built-in scalar
// types. registry.RegisterScalar has no way to iterate reflect.Kind
// generically (Go generics need a concrete type argument per call), so
// each kind is spelled out once here rather than looped.
func registerBuiltinScalars(reg *registry.Registry) {
	registry.RegisterScalar[bool](reg, registry.WithGUID(boolGUID))
	registry.RegisterScalar[int](reg, registry.WithGUID(intGUID))
	registry.RegisterScalar[int8](reg, registry.WithGUID(int8GUID))
	registry.RegisterScalar[int16](reg, registry.WithGUID(int16GUID))
	registry.RegisterScalar[int32](reg, registry.WithGUID(int32GUID))
	registry.RegisterScalar[int64](reg, registry.WithGUID(int64GUID))
	registry.RegisterScalar[uint](reg, registry.WithGUID(uintGUID))
	registry.RegisterScalar[uint8](reg, registry.WithGUID(uint8GUID))
	registry.RegisterScalar[uint16](reg, registry.WithGUID(uint16GUID))
	registry.RegisterScalar[uint32](reg, registry.WithGUID(uint32GUID))
	registry.RegisterScalar[uint64](reg, registry.WithGUID(uint64GUID))
	registry.RegisterScalar[float32](reg, registry.WithGUID(float32GUID))
	registry.RegisterScalar[float64](reg, registry.WithGUID(float64GUID))
	registry.RegisterScalar[string](reg, registry.WithGUID(stringGUID))
}
