// Copyright 2026 The Grafbox Authors
// SPDX-License-Identifier: Apache-2.0

// Package transform implements grafbox's built-in transformers: the
// scalar, array, map, and user-record strategies that satisfy
// registry.Transformer for every Go kind the mapper can box.
package transform

import (
	"fmt"
	"reflect"

	"github.com/grafbox/grafbox/guid"
	"github.com/grafbox/grafbox/registry"
	"github.com/grafbox/grafbox/wire"
)

// ScalarTransformerGUID is the fixed identity of grafbox's built-in
// scalar transformer. Fixed literal: every grafbox envelope that boxes a
// plain int or string references this exact GUID, so it must never
// change once shipped.
var ScalarTransformerGUID = guid.MustParse("00000000-0000-0000-0000-0000000005ca")

// scalarTransformer boxes every Go scalar kind (bool, the numeric kinds,
// string) directly into a ScalarPayload. One shared instance handles
// every scalar reflect.Kind; Register wires it in for each.
type scalarTransformer struct{}

func (scalarTransformer) GUID() guid.GUID { return ScalarTransformerGUID }

func (t scalarTransformer) CreateBox(object any, m registry.GraphMapper) (*wire.Box, error) {
	v := reflect.ValueOf(object)
	metadataID, err := m.MetadataIDFor(v.Type(), t)
	if err != nil {
		return nil, err
	}

	payload, err := encodeScalar(v, m)
	if err != nil {
		return nil, err
	}
	return &wire.Box{TypeMetadataID: metadataID, Scalar: payload}, nil
}

// FillBox is a no-op: CreateBox already wrote the complete payload, and
// scalars have no children to discover.
func (scalarTransformer) FillBox(*wire.Box, any, registry.GraphMapper) error {
	return nil
}

func (scalarTransformer) ToObject(b *wire.Box, m registry.GraphMapper) (any, error) {
	if b.Scalar == nil {
		return nil, fmt.Errorf("transform: box has no scalar payload")
	}
	target, ok := m.TypeForMetadata(b.TypeMetadataID)
	if !ok {
		return nil, fmt.Errorf("transform: cannot resolve scalar type for box")
	}
	v, err := decodeScalar(b.Scalar, target, m)
	if err != nil {
		return nil, err
	}
	return v.Interface(), nil
}

// FillFromBox is a no-op: scalars carry no references.
func (scalarTransformer) FillFromBox(any, *wire.Box, registry.GraphMapper) error {
	return nil
}

// encodeScalar encodes v (a scalar-kind reflect.Value) into the
// ScalarPayload slot matching its kind.
func encodeScalar(v reflect.Value, m registry.GraphMapper) (*wire.ScalarPayload, error) {
	switch v.Kind() {
	case reflect.Bool:
		b := v.Bool()
		return &wire.ScalarPayload{Bool: &b}, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n := v.Int()
		return &wire.ScalarPayload{ZigZag: &n}, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n := v.Uint()
		return &wire.ScalarPayload{Unsigned: &n}, nil
	case reflect.Float32:
		f := float32(v.Float())
		return &wire.ScalarPayload{Float32: &f}, nil
	case reflect.Float64:
		f := v.Float()
		return &wire.ScalarPayload{Float64: &f}, nil
	case reflect.String:
		id := m.StringIDFor(v.String())
		return &wire.ScalarPayload{StringID: &id}, nil
	default:
		return nil, fmt.Errorf("transform: %s is not a scalar kind", v.Type())
	}
}

// decodeScalar reverses encodeScalar, building a reflect.Value of
// exactly type t (which may be a named type over a scalar kind).
func decodeScalar(p *wire.ScalarPayload, t reflect.Type, m registry.GraphMapper) (reflect.Value, error) {
	v := reflect.New(t).Elem()

	switch t.Kind() {
	case reflect.Bool:
		if p.Bool != nil {
			v.SetBool(*p.Bool)
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if p.ZigZag != nil {
			v.SetInt(*p.ZigZag)
		}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if p.Unsigned != nil {
			v.SetUint(*p.Unsigned)
		}
	case reflect.Float32:
		if p.Float32 != nil {
			v.SetFloat(float64(*p.Float32))
		}
	case reflect.Float64:
		if p.Float64 != nil {
			v.SetFloat(*p.Float64)
		}
	case reflect.String:
		if p.StringID != nil {
			s, ok := m.StringFor(*p.StringID)
			if !ok {
				return reflect.Value{}, fmt.Errorf("transform: unresolved string id %d", *p.StringID)
			}
			v.SetString(s)
		}
	default:
		return reflect.Value{}, fmt.Errorf("transform: %s is not a scalar kind", t)
	}
	return v, nil
}
