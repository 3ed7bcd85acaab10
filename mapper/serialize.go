// Copyright 2026 The Grafbox Authors
// SPDX-License-Identifier: Apache-2.0

package mapper

import (
	"fmt"
	"reflect"

	"github.com/grafbox/grafbox/guid"
	"github.com/grafbox/grafbox/internal/box"
	"github.com/grafbox/grafbox/registry"
	"github.com/grafbox/grafbox/typemeta"
	"github.com/grafbox/grafbox/wire"
)

// serializeSession is grafbox's component C6: a single Serialize call's
// working state. It satisfies registry.GraphMapper so transformers can
// discover children through it while it drives the breadth-first walk.
type serializeSession struct {
	reg *registry.Registry

	boxes     *boxTable
	wireBoxes []wire.Box
	queue     []wire.BoxID

	typeGUIDs        *box.Index[guid.GUID]
	transformerGUIDs *box.Index[guid.GUID]
	strings          *box.Index[string]
	arrayMeta        *box.Index[wire.ArrayMetadata]
	metadata         *typemeta.Metadata
	layout           *typemeta.Layout
}

func newSerializeSession(reg *registry.Registry) *serializeSession {
	typeGUIDs := newGUIDIndex()
	transformerGUIDs := newGUIDIndex()
	strings := newStringIndex()

	return &serializeSession{
		reg:              reg,
		boxes:            newBoxTable(),
		typeGUIDs:        typeGUIDs,
		transformerGUIDs: transformerGUIDs,
		strings:          strings,
		arrayMeta:        newArrayMetadataIndex(),
		metadata:         typemeta.New(reg, typeGUIDs, transformerGUIDs),
		layout:           typemeta.NewLayout(reg, typeGUIDs, strings),
	}
}

// BoxIDFor implements registry.GraphMapper. It assigns a box id to
// object, enqueuing it for CreateBox/FillBox processing the first time
// it is seen.
func (s *serializeSession) BoxIDFor(object any) (wire.BoxID, error) {
	before := s.boxes.Len()
	id, err := s.boxes.BoxIDFor(object)
	if err != nil {
		return 0, err
	}
	if int(id) > before {
		s.queue = append(s.queue, id)
	}
	return id, nil
}

// ObjectFor implements registry.GraphMapper. Transformers only call this
// during deserialization; serialize-side transformers never need it, but
// the boxTable answers coherently regardless.
func (s *serializeSession) ObjectFor(id wire.BoxID) (any, error) {
	obj, ok := s.boxes.ObjectFor(id)
	if !ok {
		return nil, fmt.Errorf("mapper: box %d has not been created yet", id)
	}
	return obj, nil
}

// MetadataIDFor implements registry.GraphMapper.
func (s *serializeSession) MetadataIDFor(t reflect.Type, transformer registry.Transformer) (wire.MetadataID, error) {
	return s.metadata.MetadataIDFor(t, transformer)
}

// TypeForMetadata implements registry.GraphMapper. No built-in
// transformer calls this while serializing (they already hold the Go
// value they are boxing); it answers from the session's metadata table
// regardless.
func (s *serializeSession) TypeForMetadata(id wire.MetadataID) (reflect.Type, bool) {
	return s.metadata.TypeFor(id)
}

// StringIDFor implements registry.GraphMapper.
func (s *serializeSession) StringIDFor(str string) wire.StringID {
	return s.strings.IndexOf(str)
}

// StringFor implements registry.GraphMapper.
func (s *serializeSession) StringFor(id wire.StringID) (string, bool) {
	return s.strings.TryValueOf(id)
}

// ArrayMetadataIDFor implements registry.GraphMapper.
func (s *serializeSession) ArrayMetadataIDFor(meta wire.ArrayMetadata) wire.ArrayMetadataID {
	return s.arrayMeta.IndexOf(meta)
}

// ArrayMetadataFor implements registry.GraphMapper.
func (s *serializeSession) ArrayMetadataFor(id wire.ArrayMetadataID) (wire.ArrayMetadata, bool) {
	return s.arrayMeta.TryValueOf(id)
}

// LayoutIDFor implements registry.GraphMapper.
func (s *serializeSession) LayoutIDFor(t reflect.Type) (wire.LayoutID, error) {
	return s.layout.LayoutIDFor(t)
}

// run drains the discovery queue breadth-first, producing one wire.Box
// per discovered object, and returns the root's box id.
func (s *serializeSession) run(root any) (wire.BoxID, error) {
	rootID, err := s.BoxIDFor(root)
	if err != nil {
		return 0, err
	}

	for len(s.queue) > 0 {
		id := s.queue[0]
		s.queue = s.queue[1:]

		object, _ := s.boxes.ObjectFor(id)
		t := reflect.TypeOf(object)

		transformer, ok := s.reg.ResolveTransformer(t)
		if !ok {
			return 0, &UnserializableTypeError{Type: t}
		}

		b, err := transformer.CreateBox(object, s)
		if err != nil {
			return 0, fmt.Errorf("mapper: creating box for %s: %w", t, err)
		}
		if err := transformer.FillBox(b, object, s); err != nil {
			return 0, fmt.Errorf("mapper: filling box for %s: %w", t, err)
		}
		s.setWireBox(id, *b)
	}

	return rootID, nil
}

func (s *serializeSession) setWireBox(id wire.BoxID, b wire.Box) {
	for wire.BoxID(len(s.wireBoxes)) < id {
		s.wireBoxes = append(s.wireBoxes, wire.Box{})
	}
	s.wireBoxes[id-1] = b
}

// bundle assembles the session's accumulated tables into a Bundle ready
// for envelope encoding.
func (s *serializeSession) bundle(rootID wire.BoxID) *wire.Bundle {
	return &wire.Bundle{
		TransformerGUIDs:    guidsToBytes(s.transformerGUIDs.Values()),
		TypeGUIDs:           guidsToBytes(s.typeGUIDs.Values()),
		RootBoxID:           rootID,
		Boxes:               s.wireBoxes,
		Strings:             s.strings.Values(),
		StorableTypeLayouts: s.layout.Rows(),
		TypeMetadata:        s.metadata.Rows(),
		ArrayMetadata:       s.arrayMeta.Values(),
	}
}

func guidsToBytes(guids []guid.GUID) [][16]byte {
	out := make([][16]byte, len(guids))
	for i, g := range guids {
		out[i] = g
	}
	return out
}
