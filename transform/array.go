// Copyright 2026 The Grafbox Authors
// SPDX-License-Identifier: Apache-2.0

package transform

import (
	"fmt"
	"reflect"

	"github.com/grafbox/grafbox/guid"
	"github.com/grafbox/grafbox/registry"
	"github.com/grafbox/grafbox/wire"
)

// ArrayTransformerGUID is the fixed identity of grafbox's built-in
// array/slice transformer.
var ArrayTransformerGUID = guid.MustParse("00000000-0000-0000-0000-0000000005aa")

// arrayTransformer boxes every Go slice and fixed-size array. One shared
// instance handles both reflect.Slice and reflect.Array; Register wires
// it in for each.
//
// Every array-shaped value, regardless of Go rank or fixed-vs-slice
// origin, interns a single TypeMetadata row keyed by its leaf element
// type: a [16][16]int32 field and a []int32 value of the
// same leaf type share one row. Flattening stops at a slice boundary, so
// a [][]int32 value's leaf is []int32 and it interns its own row. Rank, per-dimension lengths, and whether
// the origin was a fixed Go array live entirely in a separate
// ArrayMetadata record (see wire.ArrayMetadata.Fixed), not in nested
// TypeMetadata rows.
type arrayTransformer struct{}

func (arrayTransformer) GUID() guid.GUID { return ArrayTransformerGUID }

func (t arrayTransformer) CreateBox(object any, m registry.GraphMapper) (*wire.Box, error) {
	v := reflect.ValueOf(object)
	leaf, lengths, fixed := arrayShape(v.Type())

	metadataID, err := m.MetadataIDFor(reflect.SliceOf(leaf), t)
	if err != nil {
		return nil, err
	}

	// []byte stores its bytes directly rather than boxing one element at
	// a time. A fixed [N]byte array takes the ordinary element path.
	if !fixed && leaf.Kind() == reflect.Uint8 {
		data := append([]byte(nil), v.Bytes()...)
		return &wire.Box{TypeMetadataID: metadataID, Scalar: &wire.ScalarPayload{Bytes: data}}, nil
	}

	// A slice is rank 1; its length is a run-time property, not part of
	// its type, so arrayShape cannot supply it.
	if !fixed {
		lengths = []uint32{uint32(v.Len())}
	}

	arrayMetaID := m.ArrayMetadataIDFor(wire.ArrayMetadata{Lengths: lengths, Fixed: fixed})
	return &wire.Box{
		TypeMetadataID: metadataID,
		Repeated:       &wire.RepeatedPayload{ArrayMetadataID: arrayMetaID},
	}, nil
}

// FillBox discovers and records each element's box id. A no-op for the
// []byte fast path, whose elements CreateBox already wrote inline.
func (arrayTransformer) FillBox(b *wire.Box, object any, m registry.GraphMapper) error {
	if b.Scalar != nil {
		return nil
	}

	v := reflect.ValueOf(object)
	var elements []reflect.Value
	flattenArray(v, &elements)

	ids := make([]wire.BoxID, len(elements))
	for i, elem := range elements {
		id, err := m.BoxIDFor(boxable(elem).Interface())
		if err != nil {
			return fmt.Errorf("transform: boxing element %d of %s: %w", i, v.Type(), err)
		}
		ids[i] = id
	}
	b.Repeated.ElementBoxIDs = ids
	return nil
}

func (arrayTransformer) ToObject(b *wire.Box, m registry.GraphMapper) (any, error) {
	sliceType, ok := m.TypeForMetadata(b.TypeMetadataID)
	if !ok {
		return nil, fmt.Errorf("transform: cannot resolve array element type for box")
	}
	leaf := wireElementType(sliceType.Elem())

	if b.Scalar != nil {
		data := append([]byte(nil), b.Scalar.Bytes...)
		return reflect.ValueOf(data).Convert(reflect.SliceOf(leaf)).Interface(), nil
	}

	if b.Repeated == nil {
		return nil, fmt.Errorf("transform: array box has neither scalar nor repeated payload")
	}
	shape, ok := m.ArrayMetadataFor(b.Repeated.ArrayMetadataID)
	if !ok {
		return nil, fmt.Errorf("transform: cannot resolve array shape for box")
	}

	if !shape.Fixed {
		n := len(b.Repeated.ElementBoxIDs)
		return reflect.MakeSlice(reflect.SliceOf(leaf), n, n).Interface(), nil
	}

	arrType := leaf
	for i := len(shape.Lengths) - 1; i >= 0; i-- {
		arrType = reflect.ArrayOf(int(shape.Lengths[i]), arrType)
	}
	// Fixed arrays are value types; Phase B must mutate this shell in
	// place, so the box holds a pointer until coerceTo unwraps it for
	// whoever consumes it once reconstruction's second pass runs.
	return reflect.New(arrType).Interface(), nil
}

func (arrayTransformer) FillFromBox(object any, b *wire.Box, m registry.GraphMapper) error {
	if b.Scalar != nil {
		return nil
	}
	if b.Repeated == nil {
		return nil
	}

	v := reflect.ValueOf(object)
	if v.Kind() == reflect.Pointer {
		v = v.Elem()
	}

	var slots []reflect.Value
	flattenArray(v, &slots)

	if len(slots) != len(b.Repeated.ElementBoxIDs) {
		return fmt.Errorf("transform: array box has %d elements, shell has %d slots", len(b.Repeated.ElementBoxIDs), len(slots))
	}

	for i, id := range b.Repeated.ElementBoxIDs {
		elemObject, err := m.ObjectFor(id)
		if err != nil {
			return fmt.Errorf("transform: resolving element %d: %w", i, err)
		}
		if elemObject == nil {
			continue
		}
		slots[i].Set(coerceTo(elemObject, slots[i].Type()))
	}
	return nil
}

// arrayShape walks t's fixed-array nesting (if any) down to its leaf
// element type, collecting one length per nested rank. For a plain slice
// type it returns no lengths (the length is not part of the type) and
// fixed=false; CreateBox records the slice's run-time length as its one
// rank.
func arrayShape(t reflect.Type) (leaf reflect.Type, lengths []uint32, fixed bool) {
	if t.Kind() != reflect.Array {
		return t.Elem(), nil, false
	}

	lengths = append(lengths, uint32(t.Len()))
	elem := t.Elem()
	for elem.Kind() == reflect.Array {
		lengths = append(lengths, uint32(elem.Len()))
		elem = elem.Elem()
	}
	return elem, lengths, true
}

// flattenArray appends v's elements to out in row-major order, recursing
// through nested fixed-array ranks so a [16][16]int32 contributes 256
// leaf values rather than 16 array-typed ones. A plain slice or the
// innermost array rank contributes its elements directly.
func flattenArray(v reflect.Value, out *[]reflect.Value) {
	if v.Kind() == reflect.Array && v.Type().Elem().Kind() == reflect.Array {
		for i := 0; i < v.Len(); i++ {
			flattenArray(v.Index(i), out)
		}
		return
	}
	for i := 0; i < v.Len(); i++ {
		*out = append(*out, v.Index(i))
	}
}
