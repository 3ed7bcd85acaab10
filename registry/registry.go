// Copyright 2026 The Grafbox Authors
// SPDX-License-Identifier: Apache-2.0

// Package registry implements grafbox's static registry (component C2):
// the process-wide mapping from runtime type to stable GUID, transformer,
// zero-argument constructor, member descriptors, and post-deserialization
// hooks.
//
// The registry is a singleton by necessity — GUIDs are globally unique
// tokens that must mean the same thing no matter which mapper resolves
// them. Registration happens at process startup (typically from package
// init functions); Sync is called once per serialize/deserialize to give
// the registry a chance to lazily finish populating.
package registry

import (
	"reflect"
	"sync"

	"github.com/grafbox/grafbox/guid"
	"github.com/grafbox/grafbox/wire"
)

// GraphMapper is the minimal surface a Transformer needs from the engine
// driving it. Package mapper's per-call serialize and deserialize
// sessions satisfy this interface; defining it here
// (rather than importing package mapper) keeps registry free of a
// dependency on the engine that depends on registry.
type GraphMapper interface {
	// BoxIDFor returns the box id for object, assigning one and
	// enqueuing discovery work on first encounter.
	BoxIDFor(object any) (wire.BoxID, error)

	// ObjectFor returns the object already constructed for a box id
	// during deserialization. It does not construct one on demand: it
	// fails for a box whose shell has not been built yet.
	ObjectFor(id wire.BoxID) (any, error)

	// MetadataIDFor interns type metadata for t, optionally backfilling
	// the transformer on an existing cache entry.
	MetadataIDFor(t reflect.Type, transformer Transformer) (wire.MetadataID, error)

	// TypeForMetadata reverses MetadataIDFor during deserialization,
	// resolving a metadata id back to the Go type it describes. The
	// second return value is false if the type is unknown to this
	// process's registry — absence propagates up through a generic's
	// arguments rather than failing the whole lookup.
	TypeForMetadata(id wire.MetadataID) (reflect.Type, bool)

	// StringIDFor interns s into the mapper's string table.
	StringIDFor(s string) wire.StringID

	// StringFor resolves a previously interned string id back to text.
	StringFor(id wire.StringID) (string, bool)

	// ArrayMetadataIDFor interns an array/slice shape record, used by the
	// array transformer to record rank, lengths, and whether the Go
	// origin was a fixed-size array.
	ArrayMetadataIDFor(meta wire.ArrayMetadata) wire.ArrayMetadataID

	// ArrayMetadataFor resolves a previously interned shape record.
	ArrayMetadataFor(id wire.ArrayMetadataID) (wire.ArrayMetadata, bool)

	// LayoutIDFor interns t's member-layout record (and its ancestors',
	// transitively), used by the record transformer to fill
	// RecordPayload.LayoutID.
	LayoutIDFor(t reflect.Type) (wire.LayoutID, error)
}

// Transformer is the per-type strategy that produces and consumes Boxes
// for objects of one runtime type.
type Transformer interface {
	// GUID returns the transformer's own stable 16-byte identity,
	// registered once. Distinct from the GUID of the types it handles.
	GUID() guid.GUID

	// CreateBox returns a Box with the type-metadata id filled and the
	// payload empty or partial. It may read from object but must not
	// walk its children.
	CreateBox(object any, m GraphMapper) (*wire.Box, error)

	// FillBox populates the payload. It may call m.BoxIDFor for each
	// child reference, enqueuing further discovery.
	FillBox(box *wire.Box, object any, m GraphMapper) error

	// ToObject returns the shell: identity and intrinsic values, no
	// reference-typed fields populated.
	ToObject(box *wire.Box, m GraphMapper) (any, error)

	// FillFromBox populates references by resolving child box ids via
	// m.ObjectFor.
	FillFromBox(object any, box *wire.Box, m GraphMapper) error
}

// Member describes one named field of a storable user type.
type Member struct {
	// Name is the declared member name (before string interning).
	Name string

	// Get reads the member's current value off an instance.
	Get func(instance reflect.Value) reflect.Value

	// Set writes value into the member on an instance.
	Set func(instance reflect.Value, value reflect.Value)
}

// Hook is a post-deserialization callback registered for one storable
// ancestor level. See RegisterStorable's WithHook option.
type Hook func(instance any) error

// TypeInfo is everything the registry knows about one registered runtime
// type.
type TypeInfo struct {
	// GUID is the stable 16-byte identity assigned at registration.
	GUID guid.GUID

	// Construct allocates a zero-value shell of this type. Nil for
	// non-storable types (scalars, arrays, containers construct
	// directly in their transformer).
	Construct func() (any, error)

	// Members lists this type's own declared fields, in declaration
	// order — not including any parent's members.
	Members []Member

	// Parent is the runtime type of the storable ancestor this type
	// embeds, or nil if this type has no storable ancestor.
	Parent reflect.Type

	// TransformerGUID, if non-nil (non-zero), overrides the kind-level
	// default transformer for this exact type. Set by WithTransformer.
	TransformerGUID guid.GUID

	// ParentFieldIndex is the struct field index of the anonymous
	// embedding that introduces Parent. Meaningful only when Parent is
	// non-nil.
	ParentFieldIndex int

	// Hooks runs after this type's shell is fully populated during
	// deserialization of itself or of a derived type. See RegisterStorable.
	Hooks []Hook
}

// Registry is grafbox's process-wide type and transformer catalog. Use
// Default for the process singleton; construct a private Registry only in
// tests that must not pollute global registration state.
type Registry struct {
	mu              sync.RWMutex
	byType          map[reflect.Type]*TypeInfo
	byGUID          map[guid.GUID]reflect.Type
	transformers    map[guid.GUID]Transformer
	kindTransformers map[reflect.Kind]Transformer
	syncFuncs       []func()
}

// New constructs an empty Registry.
func New() *Registry {
	return &Registry{
		byType:          make(map[reflect.Type]*TypeInfo),
		byGUID:          make(map[guid.GUID]reflect.Type),
		transformers:    make(map[guid.GUID]Transformer),
		kindTransformers: make(map[reflect.Kind]Transformer),
	}
}

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
)

// Default returns the process-wide Registry singleton, lazily
// constructing it on first access under a single guard. Subsequent reads
// are lock-free past the sync.Once.
func Default() *Registry {
	defaultOnce.Do(func() {
		defaultRegistry = New()
	})
	return defaultRegistry
}

// RegisterTransformer makes t available to resolve by its own GUID. Most
// callers use the transform package's pre-registered defaults and never
// call this directly; RegisterStorable's WithTransformer option calls it
// for a type that needs a transformer other than its kind-level default.
func (r *Registry) RegisterTransformer(t Transformer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transformers[t.GUID()] = t
}

// RegisterDeferred adds f to the set of callbacks run by Sync. Used by
// collaborators (such as package transform) that need to finish wiring
// themselves lazily rather than at package-init time.
func (r *Registry) RegisterDeferred(f func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.syncFuncs = append(r.syncFuncs, f)
}

// Sync gives the registry a chance to lazily finish populating. The core
// calls this once at the start of each serialize/deserialize.
func (r *Registry) Sync() {
	r.mu.RLock()
	funcs := append([]func(){}, r.syncFuncs...)
	r.mu.RUnlock()

	for _, f := range funcs {
		f()
	}
}

// register stores info under t's registered GUID. Internal helper shared
// by RegisterStorable and RegisterScalar.
func (r *Registry) register(t reflect.Type, info *TypeInfo) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byType[t] = info
	r.byGUID[info.GUID] = t
}

// TypeInfoFor resolves t to its registered info. The second return value
// is false if t was never registered — the caller (mapper) raises an
// UnserializableType error in that case.
func (r *Registry) TypeInfoFor(t reflect.Type) (TypeInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	info, ok := r.byType[t]
	if !ok {
		return TypeInfo{}, false
	}
	return *info, true
}

// TryTypeForGUID resolves a GUID to its registered runtime type.
func (r *Registry) TryTypeForGUID(g guid.GUID) (reflect.Type, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.byGUID[g]
	return t, ok
}

// TransformerForGUID resolves a transformer GUID to its implementation.
func (r *Registry) TransformerForGUID(g guid.GUID) (Transformer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.transformers[g]
	return t, ok
}

// RegisterKindTransformer installs the transformer used for every type of
// a given reflect.Kind that has no more specific registration — grafbox's
// built-in scalar, array, and container transformers are wired this way
// by package transform, since they handle unbounded families of concrete
// Go types (every slice type, every map type) rather than one exact type.
func (r *Registry) RegisterKindTransformer(k reflect.Kind, t Transformer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.kindTransformers[k] = t
	r.transformers[t.GUID()] = t
}

// TransformerForKind resolves the kind-level fallback transformer for k,
// if one was registered.
func (r *Registry) TransformerForKind(k reflect.Kind) (Transformer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.kindTransformers[k]
	return t, ok
}

// ResolveTransformer picks the Transformer responsible for values of type
// t, accepting either a storable struct type directly or a pointer to
// one (serialization always walks pointers; typemeta.Metadata.TypeFor
// always returns the bare struct type). A type registered with
// WithTransformer resolves to its own exact transformer ahead of any
// kind-level fallback; otherwise this falls back to the kind-level
// transformer for t's reflect.Kind.
func (r *Registry) ResolveTransformer(t reflect.Type) (Transformer, bool) {
	lookup := t
	if lookup.Kind() == reflect.Pointer {
		lookup = lookup.Elem()
	}
	if info, ok := r.TypeInfoFor(lookup); ok && !info.TransformerGUID.IsNil() {
		if tr, ok := r.TransformerForGUID(info.TransformerGUID); ok {
			return tr, true
		}
	}

	switch {
	case t.Kind() == reflect.Struct:
		if !r.IsStorableUserType(t) {
			return nil, false
		}
		return r.TransformerForKind(reflect.Struct)
	case t.Kind() == reflect.Pointer && t.Elem().Kind() == reflect.Struct:
		if !r.IsStorableUserType(t.Elem()) {
			return nil, false
		}
		return r.TransformerForKind(reflect.Struct)
	default:
		return r.TransformerForKind(t.Kind())
	}
}

// IsStorableUserType reports whether t was registered via
// RegisterStorable (as opposed to RegisterScalar or a built-in container
// type handled entirely inside its own transformer).
func (r *Registry) IsStorableUserType(t reflect.Type) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	info, ok := r.byType[t]
	return ok && info.Construct != nil
}
