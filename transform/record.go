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

// RecordTransformerGUID is the fixed identity of grafbox's built-in
// user-record transformer.
var RecordTransformerGUID = guid.MustParse("00000000-0000-0000-0000-0000000005ad")

// recordTransformer boxes every type registered with
// registry.RegisterStorable. One shared instance is wired in for
// reflect.Struct; registry.ResolveTransformer routes to it only for
// types IsStorableUserType reports true for, so a plain unregistered
// struct still fails with UnserializableTypeError instead of silently
// reaching here.
type recordTransformer struct {
	reg *registry.Registry
}

func (recordTransformer) GUID() guid.GUID { return RecordTransformerGUID }

func (t recordTransformer) CreateBox(object any, m registry.GraphMapper) (*wire.Box, error) {
	v := reflect.ValueOf(object)
	structType := v.Type()
	if structType.Kind() == reflect.Pointer {
		structType = structType.Elem()
	}

	metadataID, err := m.MetadataIDFor(structType, t)
	if err != nil {
		return nil, err
	}
	layoutID, err := m.LayoutIDFor(structType)
	if err != nil {
		return nil, err
	}
	return &wire.Box{
		TypeMetadataID: metadataID,
		Record:         &wire.RecordPayload{LayoutID: layoutID},
	}, nil
}

func (t recordTransformer) FillBox(b *wire.Box, object any, m registry.GraphMapper) error {
	v := reflect.ValueOf(object)
	structType := v.Type()
	if structType.Kind() == reflect.Pointer {
		structType = structType.Elem()
	}

	members := t.reg.FlattenedMembers(structType)
	ids := make([]wire.BoxID, len(members))
	for i, member := range members {
		value := member.Get(v)
		if isNilReference(value) {
			ids[i] = 0
			continue
		}
		id, err := m.BoxIDFor(boxable(value).Interface())
		if err != nil {
			return fmt.Errorf("transform: boxing member %q of %s: %w", member.Name, structType, err)
		}
		ids[i] = id
	}
	b.Record.ValueBoxIDs = ids
	return nil
}

func (t recordTransformer) ToObject(b *wire.Box, m registry.GraphMapper) (any, error) {
	structType, ok := m.TypeForMetadata(b.TypeMetadataID)
	if !ok {
		return nil, fmt.Errorf("transform: cannot resolve record type for box")
	}
	info, ok := t.reg.TypeInfoFor(structType)
	if !ok || info.Construct == nil {
		return nil, fmt.Errorf("transform: %s is not a registered storable type", structType)
	}
	object, err := info.Construct()
	if err != nil {
		return nil, &registry.ConstructorError{Type: structType, Err: err}
	}
	return object, nil
}

func (t recordTransformer) FillFromBox(object any, b *wire.Box, m registry.GraphMapper) error {
	if b.Record == nil {
		return nil
	}

	v := reflect.ValueOf(object)
	structType := v.Type()
	if structType.Kind() == reflect.Pointer {
		structType = structType.Elem()
	}

	members := t.reg.FlattenedMembers(structType)
	if len(members) != len(b.Record.ValueBoxIDs) {
		return fmt.Errorf("transform: %s has %d members, box has %d values", structType, len(members), len(b.Record.ValueBoxIDs))
	}

	for i, member := range members {
		id := b.Record.ValueBoxIDs[i]
		if id == 0 {
			continue
		}
		fieldObject, err := m.ObjectFor(id)
		if err != nil {
			return fmt.Errorf("transform: resolving member %q of %s: %w", member.Name, structType, err)
		}
		if fieldObject == nil {
			continue
		}
		target := member.Get(v)
		member.Set(v, coerceTo(fieldObject, target.Type()))
	}
	return nil
}

// isNilReference reports whether v is a nil pointer, slice, map, chan,
// or func — the Go shapes that stand for grafbox's absent reference,
// boxed as id 0 rather than recursed into.
func isNilReference(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Pointer, reflect.Slice, reflect.Map, reflect.Chan, reflect.Func, reflect.Interface:
		return v.IsNil()
	default:
		return false
	}
}
