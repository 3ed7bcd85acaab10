// Copyright 2026 The Grafbox Authors
// SPDX-License-Identifier: Apache-2.0

package typemeta

import (
	"reflect"
	"testing"

	"github.com/grafbox/grafbox/guid"
	"github.com/grafbox/grafbox/internal/box"
	"github.com/grafbox/grafbox/registry"
	"github.com/grafbox/grafbox/wire"
)

type point struct {
	X int `graf:"x"`
	Y int `graf:"y"`
}

// stubTransformer satisfies registry.Transformer minimally, enough to
// exercise Metadata's transformer-backfill path without a real codec.
type stubTransformer struct {
	id guid.GUID
}

func (s stubTransformer) GUID() guid.GUID { return s.id }
func (s stubTransformer) CreateBox(object any, m registry.GraphMapper) (*wire.Box, error) {
	return &wire.Box{}, nil
}
func (s stubTransformer) FillBox(b *wire.Box, object any, m registry.GraphMapper) error { return nil }
func (s stubTransformer) ToObject(b *wire.Box, m registry.GraphMapper) (any, error)     { return nil, nil }
func (s stubTransformer) FillFromBox(object any, b *wire.Box, m registry.GraphMapper) error {
	return nil
}

func guidIndex() *box.Index[guid.GUID] {
	return box.New(
		func(g guid.GUID) uint64 {
			var h uint64
			for _, b := range g {
				h = h*31 + uint64(b)
			}
			return h
		},
		func(a, b guid.GUID) bool { return a == b },
	)
}

func TestMetadataIDForInternsTypeByIdentity(t *testing.T) {
	reg := registry.New()
	registry.RegisterStorable[point](reg)

	m := New(reg, guidIndex(), guidIndex())

	id1, err := m.MetadataIDFor(reflect.TypeOf(point{}), nil)
	if err != nil {
		t.Fatalf("MetadataIDFor: %v", err)
	}
	id2, err := m.MetadataIDFor(reflect.TypeOf(point{}), nil)
	if err != nil {
		t.Fatalf("MetadataIDFor (second call): %v", err)
	}
	if id1 != id2 {
		t.Errorf("MetadataIDFor(point) = %d then %d, want same id", id1, id2)
	}
	if len(m.Rows()) != 1 {
		t.Fatalf("Rows() = %d entries, want 1", len(m.Rows()))
	}
}

func TestMetadataIDForArrayRecursesElement(t *testing.T) {
	reg := registry.New()
	registry.RegisterScalar[int](reg)

	m := New(reg, guidIndex(), guidIndex())

	id, err := m.MetadataIDFor(reflect.TypeOf([]int{}), nil)
	if err != nil {
		t.Fatalf("MetadataIDFor([]int): %v", err)
	}

	arrayRow := m.Rows()[id-1]
	if len(arrayRow.Arguments) != 1 {
		t.Fatalf("array metadata arguments = %v, want exactly one element id", arrayRow.Arguments)
	}
}

func TestMetadataIDForMapArgOrderIsKeyThenValue(t *testing.T) {
	reg := registry.New()
	registry.RegisterScalar[string](reg)
	registry.RegisterScalar[int](reg)

	m := New(reg, guidIndex(), guidIndex())

	id, err := m.MetadataIDFor(reflect.TypeOf(map[string]int{}), nil)
	if err != nil {
		t.Fatalf("MetadataIDFor(map[string]int): %v", err)
	}

	row := m.Rows()[id-1]
	if len(row.Arguments) != 2 {
		t.Fatalf("map metadata arguments = %v, want [key value]", row.Arguments)
	}

	keyType, ok := m.TypeFor(row.Arguments[0])
	if !ok || keyType != reflect.TypeOf("") {
		t.Errorf("map key metadata resolves to %v, want string", keyType)
	}
	valueType, ok := m.TypeFor(row.Arguments[1])
	if !ok || valueType != reflect.TypeOf(0) {
		t.Errorf("map value metadata resolves to %v, want int", valueType)
	}
}

func TestTypeForRoundtripsSlice(t *testing.T) {
	reg := registry.New()
	registry.RegisterScalar[int](reg)

	m := New(reg, guidIndex(), guidIndex())
	id, err := m.MetadataIDFor(reflect.TypeOf([]int{}), nil)
	if err != nil {
		t.Fatalf("MetadataIDFor: %v", err)
	}

	got, ok := m.TypeFor(id)
	if !ok || got != reflect.TypeOf([]int{}) {
		t.Errorf("TypeFor(%d) = (%v, %v), want ([]int, true)", id, got, ok)
	}
}

func TestMetadataBackfillPreservesID(t *testing.T) {
	reg := registry.New()
	registry.RegisterStorable[point](reg)

	m := New(reg, guidIndex(), guidIndex())
	pointType := reflect.TypeOf(point{})

	id, err := m.MetadataIDFor(pointType, nil)
	if err != nil {
		t.Fatalf("MetadataIDFor: %v", err)
	}
	if got := m.TransformerGUIDFor(id); got != 0 {
		t.Fatalf("TransformerGUIDFor before backfill = %d, want 0", got)
	}

	transformer := stubTransformer{id: guid.MustParse("22222222-2222-2222-2222-222222222222")}
	backfilled, err := m.MetadataIDFor(pointType, transformer)
	if err != nil {
		t.Fatalf("MetadataIDFor (backfill): %v", err)
	}
	if backfilled != id {
		t.Fatalf("backfill changed id: got %d, want %d", backfilled, id)
	}
	if got := m.TransformerGUIDFor(id); got == 0 {
		t.Error("TransformerGUIDFor after backfill = 0, want nonzero")
	}
}

func TestTypeForOutOfRangeIsAbsent(t *testing.T) {
	reg := registry.New()
	m := New(reg, guidIndex(), guidIndex())

	if _, ok := m.TypeFor(99); ok {
		t.Error("TypeFor(99) on empty Metadata resolved to a type, want absent")
	}
}

func TestUnresolvedGUIDRecoversTheFailingGUID(t *testing.T) {
	reg := registry.New()
	registry.RegisterScalar[int](reg)

	typeGUIDs := guidIndex()
	m := New(reg, typeGUIDs, guidIndex())

	elemID, err := m.MetadataIDFor(reflect.TypeOf(0), nil)
	if err != nil {
		t.Fatalf("MetadataIDFor(int): %v", err)
	}

	unknown := guid.New()
	m.rows = append(m.rows, wire.TypeMetadata{BaseTypeGUIDID: typeGUIDs.IndexOf(unknown)})
	leafID := wire.MetadataID(len(m.rows))

	if _, ok := m.TypeFor(leafID); ok {
		t.Fatal("TypeFor resolved an unregistered GUID, want absent")
	}
	got, ok := m.UnresolvedGUID(leafID)
	if !ok || got != unknown {
		t.Fatalf("UnresolvedGUID(leaf) = (%v, %v), want (%v, true)", got, ok, unknown)
	}

	m.rows = append(m.rows, wire.TypeMetadata{
		BaseTypeGUIDID: typeGUIDs.IndexOf(ArrayPseudoTypeGUID),
		Arguments:      []wire.MetadataID{leafID},
	})
	arrayID := wire.MetadataID(len(m.rows))

	if _, ok := m.TypeFor(arrayID); ok {
		t.Fatal("TypeFor resolved an array over an unregistered element, want absent")
	}
	got, ok = m.UnresolvedGUID(arrayID)
	if !ok || got != unknown {
		t.Fatalf("UnresolvedGUID(array of leaf) = (%v, %v), want (%v, true)", got, ok, unknown)
	}

	if _, ok := m.UnresolvedGUID(elemID); ok {
		t.Error("UnresolvedGUID(int) reported a failure for a perfectly resolvable type")
	}
}
