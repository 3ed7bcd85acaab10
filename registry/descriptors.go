// Copyright 2026 The Grafbox Authors
// SPDX-License-Identifier: Apache-2.0

package registry

import (
	"fmt"
	"reflect"

	"github.com/grafbox/grafbox/guid"
)

// StorableOption configures RegisterStorable.
type StorableOption func(*storableOptions)

type storableOptions struct {
	guid         guid.GUID
	hasGUID      bool
	hook         Hook
	memberFilter func(reflect.StructField) (name string, include bool)
	transformer  Transformer
	construct    func() (any, error)
}

// WithGUID pins the registered type's GUID instead of generating a fresh
// random one. Use this for types whose wire identity must survive across
// process restarts (anything persisted to disk rather than used only
// within one process's lifetime).
func WithGUID(g guid.GUID) StorableOption {
	return func(o *storableOptions) {
		o.guid = g
		o.hasGUID = true
	}
}

// WithHook registers a post-deserialization callback for this exact
// type level (not promoted from, or inherited by, an embedding parent or
// child).
func WithHook(hook Hook) StorableOption {
	return func(o *storableOptions) { o.hook = hook }
}

// WithTransformer overrides the kind-level default transformer for this
// exact type. t is registered under its own GUID as a side effect, so
// ResolveTransformer can find it by either path. Use this for a type
// that needs transformer behavior other than the registry's built-in
// scalar, array, map, or record handling.
func WithTransformer(t Transformer) StorableOption {
	return func(o *storableOptions) { o.transformer = t }
}

// WithConstructor supplies a fallible zero-argument constructor in place
// of the default reflect.New(t). Use this when building a shell requires
// work that can fail — an external resource lookup, a validated default
// state — so that failure surfaces as a ConstructorError during
// deserialization rather than a panic.
func WithConstructor(fn func() (any, error)) StorableOption {
	return func(o *storableOptions) { o.construct = fn }
}

// memberTag is the struct tag examined for an explicit member name or
// exclusion marker ("-").
const memberTag = "graf"

// RegisterScalar registers T as a leaf type with no members and no
// constructor: a built-in scalar (bool, the numeric kinds, string) or any
// other type whose transformer builds and reads it directly rather than
// through reflection over struct fields.
//
// Unlike RegisterStorable, T need not be a struct kind.
func RegisterScalar[T any](r *Registry, opts ...StorableOption) guid.GUID {
	var options storableOptions
	for _, opt := range opts {
		opt(&options)
	}

	t := reflect.TypeOf((*T)(nil)).Elem()

	typeGUID := options.guid
	if !options.hasGUID {
		typeGUID = guid.New()
	}

	info := &TypeInfo{GUID: typeGUID}
	if options.transformer != nil {
		info.TransformerGUID = options.transformer.GUID()
		r.RegisterTransformer(options.transformer)
	}

	r.register(t, info)
	return typeGUID
}

// RegisterStorable registers T as a storable user type: the registry
// builds its zero-argument constructor, its own member list (exported
// fields, in declaration order, skipping the parent's anonymous field and
// fields tagged `graf:"-"`), and — if T has exactly one anonymous field whose
// type is itself already registered as storable — its parent link.
//
// RegisterStorable must be called for a parent type before any type that
// embeds it; this matches Go's own requirement that an embedded type be
// fully defined already.
func RegisterStorable[T any](r *Registry, opts ...StorableOption) guid.GUID {
	var options storableOptions
	for _, opt := range opts {
		opt(&options)
	}

	t := reflect.TypeOf((*T)(nil)).Elem()
	if t.Kind() != reflect.Struct {
		panic(fmt.Sprintf("registry: RegisterStorable[%s]: not a struct", t))
	}

	typeGUID := options.guid
	if !options.hasGUID {
		typeGUID = guid.New()
	}

	members, parent, parentFieldIndex := buildMembers(r, t)

	construct := options.construct
	if construct == nil {
		construct = func() (any, error) {
			return reflect.New(t).Interface(), nil
		}
	}

	info := &TypeInfo{
		GUID:             typeGUID,
		Parent:           parent,
		ParentFieldIndex: parentFieldIndex,
		Construct:        construct,
		Members:          members,
	}
	if options.hook != nil {
		info.Hooks = []Hook{options.hook}
	}
	if options.transformer != nil {
		info.TransformerGUID = options.transformer.GUID()
		r.RegisterTransformer(options.transformer)
	}

	r.register(t, info)
	return typeGUID
}

// buildMembers walks t's fields. An anonymous field (exported or not)
// whose type is already registered becomes the parent link instead of
// a member; all other exported fields (not tagged graf:"-") become
// members, in declaration order. Accessors close over t's own field
// index — they expect an instance of exactly t, never a derived type;
// FlattenedMembers projects derived instances down to the declaring
// ancestor before calling them.
func buildMembers(r *Registry, t reflect.Type) ([]Member, reflect.Type, int) {
	var members []Member
	var parent reflect.Type
	parentFieldIndex := -1

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		// The parent link is detected before the exported check: an
		// embedded type with an unexported name is still a parent.
		if field.Anonymous {
			if _, ok := r.TypeInfoFor(field.Type); ok {
				parent = field.Type
				parentFieldIndex = i
				continue
			}
		}

		if !field.IsExported() {
			continue
		}

		name := field.Name
		if tag, ok := field.Tag.Lookup(memberTag); ok {
			if tag == "-" {
				continue
			}
			name = tag
		}

		index := i
		members = append(members, Member{
			Name: name,
			Get: func(instance reflect.Value) reflect.Value {
				return derefStruct(instance).Field(index)
			},
			Set: func(instance reflect.Value, value reflect.Value) {
				derefStruct(instance).Field(index).Set(value)
			},
		})
	}

	return members, parent, parentFieldIndex
}

// derefStruct follows a single pointer indirection so Member accessors
// work uniformly whether the registry handed them a *T shell (the common
// case, since Construct returns reflect.New(t).Interface()) or a T value.
func derefStruct(v reflect.Value) reflect.Value {
	if v.Kind() == reflect.Pointer {
		return v.Elem()
	}
	return v
}

// AncestorChain returns t's storable ancestors from the first storable
// ancestor (root) to t itself (most derived) — the order post-deserialization
// hooks run in.
func (r *Registry) AncestorChain(t reflect.Type) []reflect.Type {
	var chain []reflect.Type
	for current := t; current != nil; {
		chain = append(chain, current)
		info, ok := r.TypeInfoFor(current)
		if !ok || info.Parent == nil {
			break
		}
		current = info.Parent
	}

	// chain was built most-derived-first; reverse it.
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain
}

// FlattenedMembers returns t's complete member list: its ancestors'
// members (root-to-derived) followed by its own. Each returned Member's Get/Set
// accept an instance of t itself (or *t) — not of the declaring
// ancestor — projecting down through the embedding chain internally.
func (r *Registry) FlattenedMembers(t reflect.Type) []Member {
	chain := r.AncestorChain(t)

	var flattened []Member
	for _, ancestor := range chain {
		info, ok := r.TypeInfoFor(ancestor)
		if !ok {
			continue
		}
		for _, member := range info.Members {
			declaringType := ancestor
			innerGet, innerSet := member.Get, member.Set
			flattened = append(flattened, Member{
				Name: member.Name,
				Get: func(instance reflect.Value) reflect.Value {
					return innerGet(r.projectTo(instance, t, declaringType))
				},
				Set: func(instance reflect.Value, value reflect.Value) {
					innerSet(r.projectTo(instance, t, declaringType), value)
				},
			})
		}
	}
	return flattened
}

// projectTo walks instance (of type from, or *from) down through each
// embedded-parent field until it reaches a value of type to. Returns
// instance unchanged when from == to.
func (r *Registry) projectTo(instance reflect.Value, from, to reflect.Type) reflect.Value {
	current := derefStruct(instance)
	currentType := from

	for currentType != to {
		info, ok := r.TypeInfoFor(currentType)
		if !ok || info.Parent == nil {
			panic(fmt.Sprintf("registry: %s is not an ancestor of %s", to, from))
		}
		current = current.Field(info.ParentFieldIndex)
		currentType = info.Parent
	}
	return current
}
