// Copyright 2026 The Grafbox Authors
// SPDX-License-Identifier: Apache-2.0

package mapper

import (
	"fmt"
	"reflect"

	"github.com/grafbox/grafbox/wire"
)

// boxTable is grafbox's component C5: the object-to-box-id mapping. Box
// identity uses reference equality for anything with a pointer-like
// identity (pointers, slices, maps) and value equality for scalars and
// strings — two equal ints anywhere in the graph share one box, but two
// structurally identical records behind distinct pointers do not.
//
// A boxTable serves both directions: during serialization, objects is
// filled eagerly as BoxIDFor discovers new objects; during
// deserialization, it is filled by the two-phase reconstruction driver as
// shells are built, and BoxIDFor is never called.
type boxTable struct {
	objects     []any
	scalarIndex map[string]wire.BoxID
	refIndex    map[string]wire.BoxID
}

func newBoxTable() *boxTable {
	return &boxTable{
		scalarIndex: make(map[string]wire.BoxID),
		refIndex:    make(map[string]wire.BoxID),
	}
}

// BoxIDFor returns the box id for a non-nil object, assigning a fresh one
// on first encounter. Callers are responsible for mapping a nil
// reference to box id 0 directly — boxTable never represents "absent".
func (bt *boxTable) BoxIDFor(object any) (wire.BoxID, error) {
	v := reflect.ValueOf(object)
	if !v.IsValid() {
		return 0, fmt.Errorf("mapper: cannot box a nil interface value")
	}

	if isScalarKind(v.Kind()) {
		key := scalarKey(v)
		if id, ok := bt.scalarIndex[key]; ok {
			return id, nil
		}
		id := bt.append(object)
		bt.scalarIndex[key] = id
		return id, nil
	}

	// Fixed-size Go arrays are value types: the language gives them no
	// way to alias one another short of an explicit pointer, which
	// arrives here as reflect.Pointer instead. Every array value is
	// therefore its own unshared box; there is nothing to dedup against.
	if v.Kind() == reflect.Array {
		return bt.append(object), nil
	}

	ptr, ok := referenceIdentity(v)
	if !ok {
		return 0, fmt.Errorf("mapper: %s has no stable identity for boxing (pass a pointer)", v.Type())
	}
	key := fmt.Sprintf("%s@%x", v.Type(), ptr)
	if id, ok := bt.refIndex[key]; ok {
		return id, nil
	}
	id := bt.append(object)
	bt.refIndex[key] = id
	return id, nil
}

func (bt *boxTable) append(object any) wire.BoxID {
	bt.objects = append(bt.objects, object)
	return wire.BoxID(len(bt.objects))
}

// ObjectFor returns the object currently recorded at id, or false if id
// is out of range or its slot has not been populated yet.
func (bt *boxTable) ObjectFor(id wire.BoxID) (any, bool) {
	if id == 0 || int(id) > len(bt.objects) {
		return nil, false
	}
	obj := bt.objects[id-1]
	return obj, obj != nil
}

// set assigns an object to a specific box id, growing the table as
// needed. Used by the deserialization driver's shell-construction phase,
// which must create slot id before populating its contents.
func (bt *boxTable) set(id wire.BoxID, object any) {
	for wire.BoxID(len(bt.objects)) < id {
		bt.objects = append(bt.objects, nil)
	}
	bt.objects[id-1] = object
}

// Len returns the number of boxes recorded so far.
func (bt *boxTable) Len() int {
	return len(bt.objects)
}

func isScalarKind(k reflect.Kind) bool {
	switch k {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64,
		reflect.String:
		return true
	default:
		return false
	}
}

func scalarKey(v reflect.Value) string {
	return fmt.Sprintf("%s:%v", v.Type(), v.Interface())
}

// referenceIdentity returns the address-like value that distinguishes
// object from any other value of the same type, for kinds where Go
// exposes one.
func referenceIdentity(v reflect.Value) (uintptr, bool) {
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Chan, reflect.Func, reflect.UnsafePointer:
		return v.Pointer(), true
	case reflect.Slice:
		if v.IsNil() {
			return 0, true
		}
		return v.Pointer(), true
	default:
		return 0, false
	}
}
