// Copyright 2026 The Grafbox Authors
// SPDX-License-Identifier: Apache-2.0

package mapper

import (
	"context"
	"testing"
	"time"

	"github.com/grafbox/grafbox/guid"
	"github.com/grafbox/grafbox/internal/clock"
	"github.com/grafbox/grafbox/registry"
	"github.com/grafbox/grafbox/transform"
	"github.com/grafbox/grafbox/wire"
)

type record struct {
	Name  string
	Count int
}

func TestSerializeDeserializeRoundtrip(t *testing.T) {
	reg := registry.New()
	registry.RegisterStorable[record](reg)

	m := New(reg)
	root := &record{Name: "widget", Count: 3}

	encoded, info, err := m.Serialize(context.Background(), root)
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	if info.BoxCount == 0 {
		t.Error("SerializeInfo.BoxCount = 0, want at least 1")
	}
	if info.EncodedSize != len(encoded) {
		t.Errorf("SerializeInfo.EncodedSize = %d, want %d", info.EncodedSize, len(encoded))
	}

	got, dinfo, err := m.Deserialize(context.Background(), encoded)
	if err != nil {
		t.Fatalf("Deserialize: %v", err)
	}
	out, ok := got.(*record)
	if !ok {
		t.Fatalf("Deserialize returned %T, want *record", got)
	}
	if out.Name != "widget" || out.Count != 3 {
		t.Errorf("Deserialize = %+v, want {widget 3}", out)
	}
	if len(dinfo.UnknownTypeGUIDs) != 0 {
		t.Errorf("DeserializeInfo.UnknownTypeGUIDs = %v, want empty", dinfo.UnknownTypeGUIDs)
	}
}

// TestDeserializeRecordsUnknownTypeGUIDs hand-modifies an envelope to
// reference a type GUID absent from the registry, with a transformer
// GUID that does resolve, and checks that the box deserializes to a nil
// slot whose GUID is surfaced rather than aborting the whole call.
func TestDeserializeRecordsUnknownTypeGUIDs(t *testing.T) {
	reg := registry.New()
	registry.RegisterStorable[record](reg)
	m := New(reg)

	encoded, _, err := m.Serialize(context.Background(), &record{Name: "widget", Count: 3})
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}

	bundle, err := wire.Unmarshal(encoded)
	if err != nil {
		t.Fatalf("wire.Unmarshal: %v", err)
	}

	var transformerGUIDID wire.GUIDID
	for i, g := range bundle.TransformerGUIDs {
		if guid.GUID(g) == transform.ScalarTransformerGUID {
			transformerGUIDID = wire.GUIDID(i + 1)
		}
	}
	if transformerGUIDID == 0 {
		t.Fatal("scalar transformer GUID not present in envelope")
	}

	unknownTypeGUID := guid.New()
	bundle.TypeGUIDs = append(bundle.TypeGUIDs, [16]byte(unknownTypeGUID))
	typeGUIDID := wire.GUIDID(len(bundle.TypeGUIDs))

	bundle.TypeMetadata = append(bundle.TypeMetadata, wire.TypeMetadata{
		BaseTypeGUIDID: typeGUIDID,
		TransformerID:  transformerGUIDID,
	})
	metadataID := wire.MetadataID(len(bundle.TypeMetadata))

	// Appended after the root so the root itself still deserializes
	// normally; this box is otherwise unreferenced, standing in for an
	// envelope written by a newer process that added a type this one
	// does not know.
	truth := true
	bundle.Boxes = append(bundle.Boxes, wire.Box{
		TypeMetadataID: metadataID,
		Scalar:         &wire.ScalarPayload{Bool: &truth},
	})

	reencoded, err := wire.Marshal(bundle)
	if err != nil {
		t.Fatalf("wire.Marshal: %v", err)
	}

	got, dinfo, err := m.Deserialize(context.Background(), reencoded)
	if err != nil {
		t.Fatalf("Deserialize: %v", err)
	}
	out, ok := got.(*record)
	if !ok || out.Name != "widget" || out.Count != 3 {
		t.Fatalf("Deserialize root = %+v, want {widget 3}", got)
	}
	if len(dinfo.UnknownTypeGUIDs) != 1 || dinfo.UnknownTypeGUIDs[0] != unknownTypeGUID {
		t.Errorf("UnknownTypeGUIDs = %v, want [%v]", dinfo.UnknownTypeGUIDs, unknownTypeGUID)
	}
}

func TestSerializeNilRootProducesEmptyBundleReference(t *testing.T) {
	reg := registry.New()
	m := New(reg)

	encoded, info, err := m.Serialize(context.Background(), nil)
	if err != nil {
		t.Fatalf("Serialize(nil): %v", err)
	}
	if info.BoxCount != 0 {
		t.Errorf("SerializeInfo.BoxCount = %d, want 0", info.BoxCount)
	}

	got, _, err := m.Deserialize(context.Background(), encoded)
	if err != nil {
		t.Fatalf("Deserialize: %v", err)
	}
	if got != nil {
		t.Errorf("Deserialize(nil root envelope) = %v, want nil", got)
	}
}

func TestWithCompressionShrinksRepetitiveEnvelopes(t *testing.T) {
	reg := registry.New()
	registry.RegisterStorable[record](reg)

	names := make([]*record, 0, 200)
	for i := 0; i < 200; i++ {
		names = append(names, &record{Name: "the same string over and over", Count: i})
	}

	plain := New(reg)
	plainEncoded, _, err := plain.Serialize(context.Background(), names)
	if err != nil {
		t.Fatalf("Serialize (plain): %v", err)
	}

	compressed := New(reg, WithCompression(wire.CompressZstd))
	compressedEncoded, _, err := compressed.Serialize(context.Background(), names)
	if err != nil {
		t.Fatalf("Serialize (compressed): %v", err)
	}

	if len(compressedEncoded) >= len(plainEncoded) {
		t.Errorf("compressed size %d not smaller than plain size %d", len(compressedEncoded), len(plainEncoded))
	}

	got, _, err := compressed.Deserialize(context.Background(), compressedEncoded)
	if err != nil {
		t.Fatalf("Deserialize (compressed): %v", err)
	}
	out, ok := got.([]*record)
	if !ok || len(out) != 200 {
		t.Fatalf("Deserialize (compressed) = %T len %d, want []*record len 200", got, len(out))
	}
}

func TestWithDigestPopulatesEnvelopeDigest(t *testing.T) {
	reg := registry.New()
	m := New(reg, WithDigest(true))

	_, info, err := m.Serialize(context.Background(), 42)
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	var zero [32]byte
	if info.EnvelopeDigest == zero {
		t.Error("EnvelopeDigest is zero with WithDigest(true)")
	}
}

func TestWithClockStampsDuration(t *testing.T) {
	reg := registry.New()
	fake := clock.Fake(time.Unix(0, 0))
	m := New(reg, WithClock(fake))

	_, info, err := m.Serialize(context.Background(), 1)
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	if info.Duration != 0 {
		t.Errorf("Duration = %v, want 0 (clock never advances)", info.Duration)
	}
}
