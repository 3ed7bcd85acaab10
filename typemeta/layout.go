// Copyright 2026 The Grafbox Authors
// SPDX-License-Identifier: Apache-2.0

package typemeta

import (
	"fmt"
	"reflect"

	"github.com/grafbox/grafbox/guid"
	"github.com/grafbox/grafbox/internal/box"
	"github.com/grafbox/grafbox/registry"
	"github.com/grafbox/grafbox/wire"
)

// Layout is the C4 member-layout encoder/decoder: it interns one
// StorableTypeLayout record per registered user-record type, recording
// only that type's own members — ancestor members are reached by
// following ParentLayoutID, mirroring registry.AncestorChain.
type Layout struct {
	reg       *registry.Registry
	typeGUIDs *box.Index[guid.GUID]
	strings   *box.Index[string]

	rows   []wire.StorableTypeLayout
	byType map[reflect.Type]wire.LayoutID
}

// NewLayout constructs a Layout encoder sharing the mapper session's GUID
// and string interning tables.
func NewLayout(reg *registry.Registry, typeGUIDs *box.Index[guid.GUID], strings *box.Index[string]) *Layout {
	return &Layout{
		reg:       reg,
		typeGUIDs: typeGUIDs,
		strings:   strings,
		byType:    make(map[reflect.Type]wire.LayoutID),
	}
}

// NewLayoutFromRows reconstructs a Layout purely for reading back an
// envelope's layout table during deserialization.
func NewLayoutFromRows(reg *registry.Registry, typeGUIDs *box.Index[guid.GUID], strings *box.Index[string], rows []wire.StorableTypeLayout) *Layout {
	l := NewLayout(reg, typeGUIDs, strings)
	l.rows = append(l.rows, rows...)
	return l
}

// Rows returns the interned layout records in id order.
func (l *Layout) Rows() []wire.StorableTypeLayout {
	return l.rows
}

// LayoutIDFor interns (if necessary) and returns the layout id for t,
// which must be a registered storable user type. Parent layouts are
// interned first, depth-first, so ParentLayoutID always refers backward.
func (l *Layout) LayoutIDFor(t reflect.Type) (wire.LayoutID, error) {
	if id, ok := l.byType[t]; ok {
		return id, nil
	}

	info, ok := l.reg.TypeInfoFor(t)
	if !ok {
		return 0, fmt.Errorf("typemeta: type %s is not registered", t)
	}

	var parentID wire.LayoutID
	if info.Parent != nil {
		id, err := l.LayoutIDFor(info.Parent)
		if err != nil {
			return 0, err
		}
		parentID = id
	}

	memberIDs := make([]wire.StringID, len(info.Members))
	for i, member := range info.Members {
		memberIDs[i] = l.strings.IndexOf(member.Name)
	}

	l.rows = append(l.rows, wire.StorableTypeLayout{
		TypeGUIDID:     l.typeGUIDs.IndexOf(info.GUID),
		ParentLayoutID: parentID,
		MemberNameIDs:  memberIDs,
	})
	id := wire.LayoutID(len(l.rows))
	l.byType[t] = id
	return id, nil
}

// TypeFor resolves a layout id back to its runtime Go type. Absent
// propagates exactly as in Metadata.TypeFor.
func (l *Layout) TypeFor(id wire.LayoutID) (reflect.Type, bool) {
	if id == 0 || int(id) > len(l.rows) {
		return nil, false
	}
	row := l.rows[id-1]

	typeGUID, ok := l.typeGUIDs.TryValueOf(row.TypeGUIDID)
	if !ok {
		return nil, false
	}
	return l.reg.TryTypeForGUID(typeGUID)
}

// FlattenedNames returns the layout's complete, ancestor-then-own member
// name list as recorded on the wire, independent of what the current
// process's registry knows. The record transformer does not consult it:
// it matches member values to fields by position through
// registry.FlattenedMembers, not by name.
func (l *Layout) FlattenedNames(id wire.LayoutID) ([]string, error) {
	if id == 0 || int(id) > len(l.rows) {
		return nil, fmt.Errorf("typemeta: layout id %d out of range", id)
	}
	row := l.rows[id-1]

	var names []string
	if row.ParentLayoutID != 0 {
		parentNames, err := l.FlattenedNames(row.ParentLayoutID)
		if err != nil {
			return nil, err
		}
		names = append(names, parentNames...)
	}
	for _, nameID := range row.MemberNameIDs {
		name, ok := l.strings.TryValueOf(nameID)
		if !ok {
			return nil, fmt.Errorf("typemeta: layout id %d references unknown string id %d", id, nameID)
		}
		names = append(names, name)
	}
	return names, nil
}
