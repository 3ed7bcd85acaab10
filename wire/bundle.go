// Copyright 2026 The Grafbox Authors
// SPDX-License-Identifier: Apache-2.0

// Package wire defines the on-disk envelope format (grafbox's component
// C8) and its physical CBOR encoding. Nothing here carries business
// logic — Bundle is a plain data shape, and Encode/Decode are thin,
// mechanical wrappers.
package wire

import "github.com/grafbox/grafbox/internal/box"

// BoxID identifies one reachable object within a Bundle. 0 means the
// absent/null reference.
type BoxID = box.ID

// MetadataID identifies one entry in a Bundle's TypeMetadata table.
type MetadataID = box.ID

// StringID identifies one entry in a Bundle's Strings table.
type StringID = box.ID

// GUIDID identifies one entry in a Bundle's TransformerGUIDs or
// TypeGUIDs table (position = id - 1).
type GUIDID = box.ID

// LayoutID identifies one entry in a Bundle's StorableTypeLayouts table.
type LayoutID = box.ID

// ArrayMetadataID identifies one entry in a Bundle's ArrayMetadata table.
type ArrayMetadataID = box.ID

// TypeMetadata is the recursive type descriptor: a base type
// id plus an ordered list of generic argument metadata ids. For a
// non-generic, non-array type only BaseTypeGUIDID is meaningful. For an
// array type, BaseTypeGUIDID names the distinguished array pseudo-type
// and Arguments has exactly one entry: the element metadata.
type TypeMetadata struct {
	BaseTypeGUIDID GUIDID       `cbor:"1,keyasint"`
	Arguments      []MetadataID `cbor:"2,keyasint,omitempty"`
	TransformerID  GUIDID       `cbor:"3,keyasint"`
}

// ArrayMetadata describes the shape of one array or slice instance,
// interned by the full (rank, lengths, lower bounds) tuple so that
// arrays of the same shape share one record.
//
// Fixed is a Go-specific addition beyond the shape-only model: it
// records whether the originating Go value was a fixed-size array
// (reflect.Array) rather than a slice, since Go — unlike the source
// model this format was distilled from — encodes array length in the
// static type itself. See DESIGN.md.
type ArrayMetadata struct {
	Lengths     []uint32 `cbor:"1,keyasint"`
	LowerBounds []int32  `cbor:"2,keyasint,omitempty"`
	Fixed       bool     `cbor:"3,keyasint,omitempty"`
}

// Rank returns the array's dimensionality.
func (a ArrayMetadata) Rank() int { return len(a.Lengths) }

// StorableTypeLayout is a user-record layout: a GUID plus an ordered list
// of member-name string ids, and a parent layout id.
type StorableTypeLayout struct {
	TypeGUIDID      GUIDID     `cbor:"1,keyasint"`
	ParentLayoutID  LayoutID   `cbor:"2,keyasint,omitempty"`
	MemberNameIDs   []StringID `cbor:"3,keyasint,omitempty"`
}

// ScalarPayload is the union of scalar-value slots a Box may carry. Only
// one field is meaningful per Box; encoders pick the most compact
// applicable slot.
type ScalarPayload struct {
	Unsigned   *uint64 `cbor:"1,keyasint,omitempty"`
	ZigZag     *int64  `cbor:"2,keyasint,omitempty"`
	Float32    *float32 `cbor:"3,keyasint,omitempty"`
	Float64    *float64 `cbor:"4,keyasint,omitempty"`
	Bool       *bool    `cbor:"5,keyasint,omitempty"`
	StringID   *StringID `cbor:"6,keyasint,omitempty"`
	Bytes      []byte   `cbor:"7,keyasint,omitempty"`
}

// RepeatedPayload is the union of typed array/container payloads a Box
// may carry, plus the optional comparer fields reserved for
// custom-ordered containers. Grafbox's map transformer never sets the
// comparer fields, so both are always 0: a Go map has no pluggable key
// comparer to reference.
type RepeatedPayload struct {
	ElementBoxIDs         []BoxID         `cbor:"1,keyasint,omitempty"`
	ArrayMetadataID       ArrayMetadataID `cbor:"2,keyasint,omitempty"`
	ComparerBoxID         BoxID           `cbor:"3,keyasint,omitempty"`
	ComparerTypeMetadataID MetadataID     `cbor:"4,keyasint,omitempty"`
}

// RecordPayload is a user-record Box's payload: the storable layout it
// was built from, plus the box id of each member value in layout order.
type RecordPayload struct {
	LayoutID     LayoutID `cbor:"1,keyasint"`
	ValueBoxIDs  []BoxID  `cbor:"2,keyasint,omitempty"`
}

// Box is the wire-level record for one reachable object. Exactly one of
// Scalar, Repeated, or Record is non-nil.
type Box struct {
	TypeMetadataID MetadataID       `cbor:"1,keyasint"`
	Scalar         *ScalarPayload   `cbor:"2,keyasint,omitempty"`
	Repeated       *RepeatedPayload `cbor:"3,keyasint,omitempty"`
	Record         *RecordPayload   `cbor:"4,keyasint,omitempty"`
}

// Bundle is the outer record written to and read from bytes.
type Bundle struct {
	TransformerGUIDs    [][16]byte           `cbor:"1,keyasint,omitempty"`
	TypeGUIDs           [][16]byte           `cbor:"2,keyasint,omitempty"`
	RootBoxID           BoxID                `cbor:"3,keyasint"`
	Boxes               []Box                `cbor:"4,keyasint,omitempty"`
	Strings             []string             `cbor:"5,keyasint,omitempty"`
	StorableTypeLayouts []StorableTypeLayout `cbor:"6,keyasint,omitempty"`
	TypeMetadata        []TypeMetadata       `cbor:"7,keyasint,omitempty"`
	ArrayMetadata       []ArrayMetadata      `cbor:"8,keyasint,omitempty"`
}
