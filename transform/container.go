// Copyright 2026 The Grafbox Authors
// SPDX-License-Identifier: Apache-2.0

package transform

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/grafbox/grafbox/guid"
	"github.com/grafbox/grafbox/registry"
	"github.com/grafbox/grafbox/wire"
)

// MapTransformerGUID is the fixed identity of grafbox's built-in map
// transformer.
var MapTransformerGUID = guid.MustParse("00000000-0000-0000-0000-0000000005ba")

// mapTransformer boxes every Go map type. Entries are written key, value,
// key, value... interleaved in RepeatedPayload.ElementBoxIDs, sorted by
// the key's formatted text so that two invocations of Serialize on an
// equivalent map always produce byte-identical output (spec invariant:
// deterministic envelopes) despite Go's randomized map iteration order.
//
// Sorting by fmt.Sprintf("%v", key) rather than a type-aware comparison
// is a simplification: it orders scalar and string keys exactly, and
// gives any other comparable key type (a registered struct, say) a
// stable-enough order that is still deterministic run to run. See
// DESIGN.md.
type mapTransformer struct{}

func (mapTransformer) GUID() guid.GUID { return MapTransformerGUID }

func (t mapTransformer) CreateBox(object any, m registry.GraphMapper) (*wire.Box, error) {
	v := reflect.ValueOf(object)
	metadataID, err := m.MetadataIDFor(v.Type(), t)
	if err != nil {
		return nil, err
	}
	arrayMetaID := m.ArrayMetadataIDFor(wire.ArrayMetadata{Lengths: []uint32{uint32(v.Len())}})
	return &wire.Box{
		TypeMetadataID: metadataID,
		Repeated:       &wire.RepeatedPayload{ArrayMetadataID: arrayMetaID},
	}, nil
}

func (mapTransformer) FillBox(b *wire.Box, object any, m registry.GraphMapper) error {
	v := reflect.ValueOf(object)
	keys := v.MapKeys()
	sort.Slice(keys, func(i, j int) bool {
		return fmt.Sprintf("%v", keys[i].Interface()) < fmt.Sprintf("%v", keys[j].Interface())
	})

	ids := make([]wire.BoxID, 0, len(keys)*2)
	for _, key := range keys {
		keyID, err := m.BoxIDFor(boxable(key).Interface())
		if err != nil {
			return fmt.Errorf("transform: boxing map key %v: %w", key.Interface(), err)
		}
		valueID, err := m.BoxIDFor(boxable(v.MapIndex(key)).Interface())
		if err != nil {
			return fmt.Errorf("transform: boxing map value for key %v: %w", key.Interface(), err)
		}
		ids = append(ids, keyID, valueID)
	}
	b.Repeated.ElementBoxIDs = ids
	return nil
}

func (mapTransformer) ToObject(b *wire.Box, m registry.GraphMapper) (any, error) {
	resolved, ok := m.TypeForMetadata(b.TypeMetadataID)
	if !ok {
		return nil, fmt.Errorf("transform: cannot resolve map type for box")
	}
	mapType := reflect.MapOf(wireElementType(resolved.Key()), wireElementType(resolved.Elem()))

	n := 0
	if b.Repeated != nil {
		n = len(b.Repeated.ElementBoxIDs) / 2
	}
	return reflect.MakeMapWithSize(mapType, n).Interface(), nil
}

func (mapTransformer) FillFromBox(object any, b *wire.Box, m registry.GraphMapper) error {
	if b.Repeated == nil {
		return nil
	}
	v := reflect.ValueOf(object)
	keyType := v.Type().Key()
	valueType := v.Type().Elem()

	ids := b.Repeated.ElementBoxIDs
	for i := 0; i+1 < len(ids); i += 2 {
		keyObject, err := m.ObjectFor(ids[i])
		if err != nil {
			return fmt.Errorf("transform: resolving map key: %w", err)
		}
		valueObject, err := m.ObjectFor(ids[i+1])
		if err != nil {
			return fmt.Errorf("transform: resolving map value: %w", err)
		}
		v.SetMapIndex(coerceTo(keyObject, keyType), coerceTo(valueObject, valueType))
	}
	return nil
}
