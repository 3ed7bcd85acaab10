// Copyright 2026 The Grafbox Authors
// SPDX-License-Identifier: Apache-2.0

package transform

import (
	"reflect"

	"github.com/grafbox/grafbox/registry"
)

// Register wires grafbox's built-in transformers into reg for every Go
// kind the mapper boxes without a user-supplied strategy: the scalar
// kinds, slices and fixed arrays, maps, and storable structs.
//
// Call this once per registry, typically right after constructing it
// and before registering any application types. mapper.New calls it on
// every construction, so most callers never have to call it themselves;
// repeated calls against the same registry are harmless since every
// registration here uses a fixed GUID or a stable kind key.
func Register(reg *registry.Registry) {
	registerBuiltinScalars(reg)

	scalar := scalarTransformer{}
	for _, k := range []reflect.Kind{
		reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64,
		reflect.String,
	} {
		reg.RegisterKindTransformer(k, scalar)
	}

	array := arrayTransformer{}
	reg.RegisterKindTransformer(reflect.Slice, array)
	reg.RegisterKindTransformer(reflect.Array, array)

	reg.RegisterKindTransformer(reflect.Map, mapTransformer{})

	reg.RegisterKindTransformer(reflect.Struct, recordTransformer{reg: reg})
}
