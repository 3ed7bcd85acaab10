// Copyright 2026 The Grafbox Authors
// SPDX-License-Identifier: Apache-2.0

package guid

import "testing"

func TestNewProducesDistinctNonNil(t *testing.T) {
	a := New()
	b := New()

	if a.IsNil() || b.IsNil() {
		t.Fatalf("New produced a nil GUID: a=%v b=%v", a, b)
	}
	if a == b {
		t.Fatalf("New produced the same GUID twice: %v", a)
	}
}

func TestTextRoundtrip(t *testing.T) {
	original := New()

	text, err := original.MarshalText()
	if err != nil {
		t.Fatalf("MarshalText: %v", err)
	}

	var decoded GUID
	if err := decoded.UnmarshalText(text); err != nil {
		t.Fatalf("UnmarshalText: %v", err)
	}

	if decoded != original {
		t.Errorf("roundtrip mismatch: got %v, want %v", decoded, original)
	}
}

func TestMustParsePanicsOnGarbage(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("MustParse did not panic on invalid input")
		}
	}()
	MustParse("not-a-guid")
}
