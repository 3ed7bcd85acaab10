// Copyright 2026 The Grafbox Authors
// SPDX-License-Identifier: Apache-2.0

package registry

import (
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/grafbox/grafbox/guid"
	"github.com/grafbox/grafbox/wire"
)

type baseNode struct {
	ID int `graf:"id"`
}

type linkedNode struct {
	baseNode
	Next *linkedNode `graf:"next"`
}

func TestRegisterStorableBuildsConstructorAndMembers(t *testing.T) {
	r := New()
	RegisterStorable[baseNode](r)
	g := RegisterStorable[linkedNode](r)

	if g.IsNil() {
		t.Fatal("RegisterStorable returned a nil GUID")
	}

	nodeType := reflect.TypeOf(linkedNode{})
	info, ok := r.TypeInfoFor(nodeType)
	if !ok {
		t.Fatal("TypeInfoFor did not find linkedNode")
	}
	if len(info.Members) != 1 || info.Members[0].Name != "next" {
		t.Fatalf("linkedNode own members = %+v, want [next]", info.Members)
	}
	if info.Parent != reflect.TypeOf(baseNode{}) {
		t.Fatalf("linkedNode parent = %v, want baseNode", info.Parent)
	}

	instance, err := info.Construct()
	if err != nil {
		t.Fatalf("Construct: %v", err)
	}
	if _, ok := instance.(*linkedNode); !ok {
		t.Fatalf("Construct returned %T, want *linkedNode", instance)
	}
}

func TestFlattenedMembersIncludesAncestors(t *testing.T) {
	r := New()
	RegisterStorable[baseNode](r)
	RegisterStorable[linkedNode](r)

	members := r.FlattenedMembers(reflect.TypeOf(linkedNode{}))
	if len(members) != 2 {
		t.Fatalf("FlattenedMembers = %+v, want 2 entries", members)
	}
	if members[0].Name != "id" || members[1].Name != "next" {
		t.Fatalf("FlattenedMembers order = [%s %s], want [id next]", members[0].Name, members[1].Name)
	}

	instance := &linkedNode{baseNode: baseNode{ID: 7}}
	v := reflect.ValueOf(instance)

	idValue := members[0].Get(v)
	if idValue.Int() != 7 {
		t.Errorf("ancestor member Get returned %v, want 7", idValue)
	}

	members[0].Set(v, reflect.ValueOf(42))
	if instance.ID != 42 {
		t.Errorf("ancestor member Set did not write through: ID = %d, want 42", instance.ID)
	}
}

func TestAncestorChainRootToDerived(t *testing.T) {
	r := New()
	RegisterStorable[baseNode](r)
	RegisterStorable[linkedNode](r)

	chain := r.AncestorChain(reflect.TypeOf(linkedNode{}))
	if len(chain) != 2 {
		t.Fatalf("AncestorChain = %v, want 2 entries", chain)
	}
	if chain[0] != reflect.TypeOf(baseNode{}) || chain[1] != reflect.TypeOf(linkedNode{}) {
		t.Fatalf("AncestorChain = %v, want [baseNode linkedNode]", chain)
	}
}

func TestWithGUIDPinsIdentity(t *testing.T) {
	r := New()
	pinned := guid.MustParse("11111111-1111-1111-1111-111111111111")

	got := RegisterStorable[baseNode](r, WithGUID(pinned))
	if got != pinned {
		t.Errorf("RegisterStorable with WithGUID = %v, want %v", got, pinned)
	}
}

func TestTryTypeForGUIDResolvesBack(t *testing.T) {
	r := New()
	g := RegisterStorable[baseNode](r)

	got, ok := r.TryTypeForGUID(g)
	if !ok || got != reflect.TypeOf(baseNode{}) {
		t.Fatalf("TryTypeForGUID(%v) = (%v, %v), want (baseNode, true)", g, got, ok)
	}

	if _, ok := r.TryTypeForGUID(guid.New()); ok {
		t.Error("TryTypeForGUID found a type for an unregistered GUID")
	}
}

func TestIsStorableUserType(t *testing.T) {
	r := New()
	RegisterStorable[baseNode](r)

	if !r.IsStorableUserType(reflect.TypeOf(baseNode{})) {
		t.Error("IsStorableUserType(baseNode) = false, want true")
	}
	if r.IsStorableUserType(reflect.TypeOf(42)) {
		t.Error("IsStorableUserType(int) = true, want false")
	}
}

// fakeTransformer is a minimal Transformer stand-in for exercising
// registration and resolution; none of its methods are ever invoked by
// these tests.
type fakeTransformer struct {
	guid guid.GUID
}

func (f fakeTransformer) GUID() guid.GUID { return f.guid }
func (f fakeTransformer) CreateBox(any, GraphMapper) (*wire.Box, error) {
	panic("not called")
}
func (f fakeTransformer) FillBox(*wire.Box, any, GraphMapper) error {
	panic("not called")
}
func (f fakeTransformer) ToObject(*wire.Box, GraphMapper) (any, error) {
	panic("not called")
}
func (f fakeTransformer) FillFromBox(any, *wire.Box, GraphMapper) error {
	panic("not called")
}

func TestWithTransformerOverridesKindLevelResolution(t *testing.T) {
	r := New()
	custom := fakeTransformer{guid: guid.New()}

	RegisterStorable[baseNode](r, WithTransformer(custom))

	got, ok := r.ResolveTransformer(reflect.TypeOf(baseNode{}))
	if !ok || got.GUID() != custom.GUID() {
		t.Fatalf("ResolveTransformer(baseNode) = (%v, %v), want the WithTransformer override", got, ok)
	}

	// Registering the transformer under its own GUID is a side effect of
	// WithTransformer, so it also resolves directly by GUID.
	byGUID, ok := r.TransformerForGUID(custom.GUID())
	if !ok || byGUID.GUID() != custom.GUID() {
		t.Fatalf("TransformerForGUID(%v) = (%v, %v), want custom transformer", custom.GUID(), byGUID, ok)
	}
}

func TestWithConstructorPropagatesFailure(t *testing.T) {
	r := New()
	sentinel := fmt.Errorf("boom")

	RegisterStorable[baseNode](r, WithConstructor(func() (any, error) {
		return nil, sentinel
	}))

	info, ok := r.TypeInfoFor(reflect.TypeOf(baseNode{}))
	if !ok {
		t.Fatal("TypeInfoFor did not find baseNode")
	}

	_, err := info.Construct()
	if !errors.Is(err, sentinel) {
		t.Fatalf("Construct() error = %v, want %v", err, sentinel)
	}
}

func TestSyncRunsDeferredRegistrations(t *testing.T) {
	r := New()
	ran := false
	r.RegisterDeferred(func() { ran = true })

	r.Sync()

	if !ran {
		t.Error("Sync did not run the deferred registration")
	}
}
