// Copyright 2026 The Grafbox Authors
// SPDX-License-Identifier: Apache-2.0

package typemeta

import (
	"reflect"
	"testing"

	"github.com/grafbox/grafbox/internal/box"
	"github.com/grafbox/grafbox/registry"
)

type layoutBase struct {
	ID int `graf:"id"`
}

type layoutDerived struct {
	layoutBase
	Name string `graf:"name"`
}

func TestLayoutIDForOwnMembersOnly(t *testing.T) {
	reg := registry.New()
	registry.RegisterStorable[layoutBase](reg)
	registry.RegisterStorable[layoutDerived](reg)

	strings := box.New(
		func(s string) uint64 { return uint64(len(s)) },
		func(a, b string) bool { return a == b },
	)
	l := NewLayout(reg, guidIndex(), strings)

	derivedID, err := l.LayoutIDFor(reflect.TypeOf(layoutDerived{}))
	if err != nil {
		t.Fatalf("LayoutIDFor(layoutDerived): %v", err)
	}

	row := l.Rows()[derivedID-1]
	if len(row.MemberNameIDs) != 1 {
		t.Fatalf("layoutDerived own members = %d ids, want 1", len(row.MemberNameIDs))
	}
	if row.ParentLayoutID == 0 {
		t.Error("layoutDerived ParentLayoutID = 0, want a reference to layoutBase's layout")
	}
}

func TestFlattenedNamesWalksParentChain(t *testing.T) {
	reg := registry.New()
	registry.RegisterStorable[layoutBase](reg)
	registry.RegisterStorable[layoutDerived](reg)

	strings := box.New(
		func(s string) uint64 { return uint64(len(s)) },
		func(a, b string) bool { return a == b },
	)
	l := NewLayout(reg, guidIndex(), strings)

	derivedID, err := l.LayoutIDFor(reflect.TypeOf(layoutDerived{}))
	if err != nil {
		t.Fatalf("LayoutIDFor: %v", err)
	}

	names, err := l.FlattenedNames(derivedID)
	if err != nil {
		t.Fatalf("FlattenedNames: %v", err)
	}
	if len(names) != 2 || names[0] != "id" || names[1] != "name" {
		t.Fatalf("FlattenedNames = %v, want [id name]", names)
	}
}

func TestLayoutTypeForRoundtrips(t *testing.T) {
	reg := registry.New()
	registry.RegisterStorable[layoutBase](reg)

	strings := box.New(
		func(s string) uint64 { return uint64(len(s)) },
		func(a, b string) bool { return a == b },
	)
	l := NewLayout(reg, guidIndex(), strings)

	id, err := l.LayoutIDFor(reflect.TypeOf(layoutBase{}))
	if err != nil {
		t.Fatalf("LayoutIDFor: %v", err)
	}

	got, ok := l.TypeFor(id)
	if !ok || got != reflect.TypeOf(layoutBase{}) {
		t.Errorf("TypeFor(%d) = (%v, %v), want (layoutBase, true)", id, got, ok)
	}
}
