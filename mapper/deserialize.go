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

// deserializeSession is grafbox's component C7: a single Deserialize
// call's working state, reconstructing the object graph in two phases so
// that cycles and forward references resolve correctly.
type deserializeSession struct {
	reg *registry.Registry

	bundle *wire.Bundle
	boxes  *boxTable

	typeGUIDs        *box.Index[guid.GUID]
	transformerGUIDs *box.Index[guid.GUID]
	strings          *box.Index[string]
	arrayMeta        *box.Index[wire.ArrayMetadata]
	metadata         *typemeta.Metadata
	layout           *typemeta.Layout

	// transformersByGUIDID is the envelope's TransformerGUIDs table,
	// resolved to registry.Transformer eagerly and in full at session
	// construction — unlike type GUID resolution, an unresolvable
	// transformer GUID is not legal and aborts before any box is touched.
	transformersByGUIDID []registry.Transformer

	unknownTypeGUIDs []guid.GUID
}

func newDeserializeSession(reg *registry.Registry, b *wire.Bundle) (*deserializeSession, error) {
	typeGUIDs := guidIndexFrom(b.TypeGUIDs)
	transformerGUIDs := guidIndexFrom(b.TransformerGUIDs)
	strings := stringIndexFrom(b.Strings)

	resolved := make([]registry.Transformer, transformerGUIDs.Len())
	for i, g := range transformerGUIDs.Values() {
		t, ok := reg.TransformerForGUID(g)
		if !ok {
			return nil, &UnknownTransformerError{GUID: g}
		}
		resolved[i] = t
	}

	return &deserializeSession{
		reg:                  reg,
		bundle:               b,
		boxes:                newBoxTable(),
		typeGUIDs:            typeGUIDs,
		transformerGUIDs:     transformerGUIDs,
		strings:              strings,
		arrayMeta:            arrayMetadataIndexFrom(b.ArrayMetadata),
		metadata:             typemeta.NewFromRows(reg, typeGUIDs, transformerGUIDs, b.TypeMetadata),
		layout:               typemeta.NewLayoutFromRows(reg, typeGUIDs, strings, b.StorableTypeLayouts),
		transformersByGUIDID: resolved,
	}, nil
}

// transformerForGUIDID resolves an already-validated transformer GUID
// table id. id 0 means the box's own type metadata never recorded a
// transformer at all — a malformed envelope, not an unknown GUID, since
// every id that does appear in the table was checked at construction.
func (s *deserializeSession) transformerForGUIDID(id wire.GUIDID) (registry.Transformer, bool) {
	if id == 0 || int(id) > len(s.transformersByGUIDID) {
		return nil, false
	}
	return s.transformersByGUIDID[id-1], true
}

// BoxIDFor implements registry.GraphMapper. Deserialization never
// discovers new objects from Go values, so this only exists to satisfy
// the interface; no transformer calls it while deserializing.
func (s *deserializeSession) BoxIDFor(object any) (wire.BoxID, error) {
	return s.boxes.BoxIDFor(object)
}

// ObjectFor implements registry.GraphMapper, resolving a child reference
// during the population phase. Box id 0 is the absent reference and
// resolves to (nil, nil) rather than an error.
func (s *deserializeSession) ObjectFor(id wire.BoxID) (any, error) {
	if id == 0 {
		return nil, nil
	}
	obj, ok := s.boxes.ObjectFor(id)
	if !ok {
		return nil, fmt.Errorf("mapper: box %d has not been constructed yet", id)
	}
	return obj, nil
}

// MetadataIDFor implements registry.GraphMapper. Transformers reading a
// Box never need to intern new type metadata; this only exists to
// satisfy the interface.
func (s *deserializeSession) MetadataIDFor(t reflect.Type, transformer registry.Transformer) (wire.MetadataID, error) {
	return s.metadata.MetadataIDFor(t, transformer)
}

// TypeForMetadata implements registry.GraphMapper. This is how every
// built-in transformer's ToObject recovers which concrete Go type to
// build for a box.
func (s *deserializeSession) TypeForMetadata(id wire.MetadataID) (reflect.Type, bool) {
	return s.metadata.TypeFor(id)
}

// StringIDFor implements registry.GraphMapper.
func (s *deserializeSession) StringIDFor(str string) wire.StringID {
	return s.strings.IndexOf(str)
}

// StringFor implements registry.GraphMapper.
func (s *deserializeSession) StringFor(id wire.StringID) (string, bool) {
	return s.strings.TryValueOf(id)
}

// ArrayMetadataIDFor implements registry.GraphMapper. Transformers reading
// a Box never need to intern a new shape record; this only exists to
// satisfy the interface.
func (s *deserializeSession) ArrayMetadataIDFor(meta wire.ArrayMetadata) wire.ArrayMetadataID {
	return s.arrayMeta.IndexOf(meta)
}

// ArrayMetadataFor implements registry.GraphMapper. The array transformer
// uses this to recover rank, lengths, and fixed-ness when reconstructing a
// RepeatedPayload.
func (s *deserializeSession) ArrayMetadataFor(id wire.ArrayMetadataID) (wire.ArrayMetadata, bool) {
	return s.arrayMeta.TryValueOf(id)
}

// LayoutIDFor implements registry.GraphMapper. Reading a Box never needs
// to intern a new layout; this only exists to satisfy the interface.
func (s *deserializeSession) LayoutIDFor(t reflect.Type) (wire.LayoutID, error) {
	return s.layout.LayoutIDFor(t)
}

// run reconstructs every box in the bundle, then returns the root object.
func (s *deserializeSession) run() (any, error) {
	n := len(s.bundle.Boxes)

	// Phase A: construct every shell before any FillFromBox runs, so
	// cycles and forward references always find an already-existing
	// object to point to.
	shellTypes := make([]reflect.Type, n)
	transformers := make([]registry.Transformer, n)

	for i := 0; i < n; i++ {
		id := wire.BoxID(i + 1)
		b := &s.bundle.Boxes[i]

		t, ok := s.metadata.TypeFor(b.TypeMetadataID)
		if !ok {
			if g, ok := s.metadata.UnresolvedGUID(b.TypeMetadataID); ok {
				s.unknownTypeGUIDs = append(s.unknownTypeGUIDs, g)
			}
			s.boxes.set(id, nil)
			continue
		}

		transformer, ok := s.transformerForGUIDID(s.metadata.TransformerGUIDFor(b.TypeMetadataID))
		if !ok {
			return nil, &MalformedBoxError{
				BoxID:  uint64(id),
				Reason: "type metadata carries no resolvable transformer id",
			}
		}

		object, err := transformer.ToObject(b, s)
		if err != nil {
			return nil, fmt.Errorf("mapper: constructing shell for box %d (%s): %w", id, t, err)
		}

		shellTypes[i] = t
		transformers[i] = transformer
		s.boxes.set(id, object)
	}

	// Phase B: populate references now that every shell exists.
	for i := 0; i < n; i++ {
		transformer := transformers[i]
		if transformer == nil {
			continue
		}
		id := wire.BoxID(i + 1)
		object, _ := s.boxes.ObjectFor(id)
		if object == nil {
			continue
		}
		if err := transformer.FillFromBox(object, &s.bundle.Boxes[i], s); err != nil {
			return nil, fmt.Errorf("mapper: populating box %d (%s): %w", id, shellTypes[i], err)
		}
	}

	// Post-deserialization hooks, root-to-derived ancestor order, after
	// every box is fully populated.
	for i := 0; i < n; i++ {
		t := shellTypes[i]
		if t == nil || !s.reg.IsStorableUserType(t) {
			continue
		}
		id := wire.BoxID(i + 1)
		object, _ := s.boxes.ObjectFor(id)
		if err := s.runHooks(t, object); err != nil {
			return nil, err
		}
	}

	if s.bundle.RootBoxID == 0 {
		return nil, nil
	}
	root, ok := s.boxes.ObjectFor(s.bundle.RootBoxID)
	if !ok {
		return nil, fmt.Errorf("mapper: root box %d was not constructed", s.bundle.RootBoxID)
	}
	return root, nil
}

func (s *deserializeSession) runHooks(t reflect.Type, instance any) error {
	for _, ancestor := range s.reg.AncestorChain(t) {
		info, ok := s.reg.TypeInfoFor(ancestor)
		if !ok {
			continue
		}
		for _, hook := range info.Hooks {
			if err := hook(instance); err != nil {
				return &HookError{Type: ancestor, Err: err}
			}
		}
	}
	return nil
}
