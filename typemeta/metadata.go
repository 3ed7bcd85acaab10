// Copyright 2026 The Grafbox Authors
// SPDX-License-Identifier: Apache-2.0

// Package typemeta implements grafbox's type-metadata encoder (C3) and
// member-layout encoder (C4): the recursive descriptors that let the
// envelope reference runtime types and user-record shapes compactly,
// without textual type names.
package typemeta

import (
	"fmt"
	"reflect"

	"github.com/grafbox/grafbox/guid"
	"github.com/grafbox/grafbox/internal/box"
	"github.com/grafbox/grafbox/registry"
	"github.com/grafbox/grafbox/wire"
)

// ArrayPseudoTypeGUID is the distinguished base type id used for every
// array-shaped metadata entry (both Go slices and fixed-size arrays; see
// ArrayMetadata.Fixed for how the two are told apart on reconstruction).
// Fixed literal: stable across processes and binary versions, since it
// never changes once shipped.
var ArrayPseudoTypeGUID = guid.MustParse("00000000-0000-0000-0000-00000000a22a")

// MapPseudoTypeGUID is the distinguished base type id for Go map types,
// grafbox's one built-in "generic constructed type": args are [key
// metadata, value metadata] in that order.
var MapPseudoTypeGUID = guid.MustParse("00000000-0000-0000-0000-00000000ba99")

// Metadata is the C3 encoder/decoder. One Metadata belongs to exactly one
// mapper session.
type Metadata struct {
	reg              *registry.Registry
	typeGUIDs        *box.Index[guid.GUID]
	transformerGUIDs *box.Index[guid.GUID]

	rows      []wire.TypeMetadata
	byType    map[reflect.Type]wire.MetadataID
	byContent map[string]wire.MetadataID
}

// New constructs a Metadata encoder sharing the given GUID interning
// tables with the rest of the mapper session.
func New(reg *registry.Registry, typeGUIDs, transformerGUIDs *box.Index[guid.GUID]) *Metadata {
	return &Metadata{
		reg:              reg,
		typeGUIDs:        typeGUIDs,
		transformerGUIDs: transformerGUIDs,
		byType:           make(map[reflect.Type]wire.MetadataID),
		byContent:        make(map[string]wire.MetadataID),
	}
}

// NewFromRows reconstructs a Metadata purely for reading back an
// envelope's type-metadata table during deserialization; MetadataIDFor is
// never called on the result.
func NewFromRows(reg *registry.Registry, typeGUIDs, transformerGUIDs *box.Index[guid.GUID], rows []wire.TypeMetadata) *Metadata {
	m := New(reg, typeGUIDs, transformerGUIDs)
	m.rows = append(m.rows, rows...)
	return m
}

// Rows returns the interned type-metadata records in id order, ready to
// flush into a Bundle.
func (m *Metadata) Rows() []wire.TypeMetadata {
	return m.rows
}

// MetadataIDFor resolves t's type metadata, interning a new record on
// first encounter. If t was seen before without a transformer and one is
// supplied now, the cached record is backfilled in place — its id
// never changes.
func (m *Metadata) MetadataIDFor(t reflect.Type, transformer registry.Transformer) (wire.MetadataID, error) {
	if id, ok := m.byType[t]; ok {
		m.backfill(id, transformer)
		return id, nil
	}

	meta, err := m.build(t, transformer)
	if err != nil {
		return 0, err
	}

	key := contentKey(meta)
	if id, ok := m.byContent[key]; ok {
		m.byType[t] = id
		m.backfill(id, transformer)
		return id, nil
	}

	m.rows = append(m.rows, meta)
	id := wire.MetadataID(len(m.rows))
	m.byType[t] = id
	m.byContent[key] = id
	return id, nil
}

// build constructs the (not-yet-interned) metadata record for t.
func (m *Metadata) build(t reflect.Type, transformer registry.Transformer) (wire.TypeMetadata, error) {
	var transformerGUIDID wire.GUIDID
	if transformer != nil {
		transformerGUIDID = m.transformerGUIDs.IndexOf(transformer.GUID())
	}

	switch t.Kind() {
	case reflect.Array, reflect.Slice:
		elemID, err := m.MetadataIDFor(t.Elem(), nil)
		if err != nil {
			return wire.TypeMetadata{}, err
		}
		return wire.TypeMetadata{
			BaseTypeGUIDID: m.typeGUIDs.IndexOf(ArrayPseudoTypeGUID),
			Arguments:      []wire.MetadataID{elemID},
			TransformerID:  transformerGUIDID,
		}, nil

	case reflect.Map:
		keyID, err := m.MetadataIDFor(t.Key(), nil)
		if err != nil {
			return wire.TypeMetadata{}, err
		}
		valueID, err := m.MetadataIDFor(t.Elem(), nil)
		if err != nil {
			return wire.TypeMetadata{}, err
		}
		return wire.TypeMetadata{
			BaseTypeGUIDID: m.typeGUIDs.IndexOf(MapPseudoTypeGUID),
			Arguments:      []wire.MetadataID{keyID, valueID},
			TransformerID:  transformerGUIDID,
		}, nil

	default:
		// A pointer to a registered storable struct resolves to the same
		// row as the bare struct: grafbox's storable transformer always
		// constructs and boxes such types by pointer (registry.TypeInfo's
		// Construct), so a slice element, map key, or map value of
		// pointer-to-struct shape describes the same type on the wire as
		// the struct itself.
		lookup := t
		if lookup.Kind() == reflect.Pointer {
			lookup = lookup.Elem()
		}
		info, ok := m.reg.TypeInfoFor(lookup)
		if !ok {
			return wire.TypeMetadata{}, fmt.Errorf("typemeta: type %s is not registered", t)
		}
		return wire.TypeMetadata{
			BaseTypeGUIDID: m.typeGUIDs.IndexOf(info.GUID),
			TransformerID:  transformerGUIDID,
		}, nil
	}
}

func (m *Metadata) backfill(id wire.MetadataID, transformer registry.Transformer) {
	if transformer == nil {
		return
	}
	row := &m.rows[id-1]
	if row.TransformerID != 0 {
		return
	}

	oldKey := contentKey(*row)
	row.TransformerID = m.transformerGUIDs.IndexOf(transformer.GUID())
	delete(m.byContent, oldKey)
	m.byContent[contentKey(*row)] = id
}

// contentKey builds a dedup key for structural interning of a
// (not-yet-assigned) type-metadata record.
func contentKey(meta wire.TypeMetadata) string {
	return fmt.Sprintf("%d|%v|%d", meta.BaseTypeGUIDID, meta.Arguments, meta.TransformerID)
}

// TypeFor reverses MetadataIDFor during deserialization: resolves a
// metadata id to the runtime Go type it describes. If the base type GUID
// is unknown to the registry, the result is (nil, false) and this must
// propagate — a generic whose argument resolves to absent also resolves
// to absent.
func (m *Metadata) TypeFor(id wire.MetadataID) (reflect.Type, bool) {
	if id == 0 || int(id) > len(m.rows) {
		return nil, false
	}
	meta := m.rows[id-1]

	baseGUID, ok := m.typeGUIDs.TryValueOf(meta.BaseTypeGUIDID)
	if !ok {
		return nil, false
	}

	switch baseGUID {
	case ArrayPseudoTypeGUID:
		if len(meta.Arguments) != 1 {
			return nil, false
		}
		elem, ok := m.TypeFor(meta.Arguments[0])
		if !ok {
			return nil, false
		}
		return reflect.SliceOf(elem), true

	case MapPseudoTypeGUID:
		if len(meta.Arguments) != 2 {
			return nil, false
		}
		key, ok := m.TypeFor(meta.Arguments[0])
		if !ok {
			return nil, false
		}
		value, ok := m.TypeFor(meta.Arguments[1])
		if !ok {
			return nil, false
		}
		return reflect.MapOf(key, value), true

	default:
		return m.reg.TryTypeForGUID(baseGUID)
	}
}

// TransformerGUIDFor returns the transformer GUID id recorded for a
// metadata id, or 0 if none was ever backfilled.
func (m *Metadata) TransformerGUIDFor(id wire.MetadataID) wire.GUIDID {
	if id == 0 || int(id) > len(m.rows) {
		return 0
	}
	return m.rows[id-1].TransformerID
}

// UnresolvedGUID walks the same chain TypeFor does and returns the
// specific base type GUID the registry failed to recognize, for a call
// to TypeFor(id) that returned false. The second return value is false
// if id itself is out of range or every GUID in its chain is actually
// known — callers use this only after TypeFor has already failed, to
// recover which GUID to report as unknown.
func (m *Metadata) UnresolvedGUID(id wire.MetadataID) (guid.GUID, bool) {
	if id == 0 || int(id) > len(m.rows) {
		return guid.GUID{}, false
	}
	meta := m.rows[id-1]

	baseGUID, ok := m.typeGUIDs.TryValueOf(meta.BaseTypeGUIDID)
	if !ok {
		return guid.GUID{}, false
	}

	switch baseGUID {
	case ArrayPseudoTypeGUID:
		if len(meta.Arguments) != 1 {
			return guid.GUID{}, false
		}
		return m.UnresolvedGUID(meta.Arguments[0])

	case MapPseudoTypeGUID:
		if len(meta.Arguments) != 2 {
			return guid.GUID{}, false
		}
		if g, ok := m.UnresolvedGUID(meta.Arguments[0]); ok {
			return g, true
		}
		return m.UnresolvedGUID(meta.Arguments[1])

	default:
		if _, ok := m.reg.TryTypeForGUID(baseGUID); ok {
			return guid.GUID{}, false
		}
		return baseGUID, true
	}
}
