// Copyright 2026 The Grafbox Authors
// SPDX-License-Identifier: Apache-2.0

// Package guid provides the 16-byte stable type identity used throughout
// grafbox to name runtime types independently of their textual name.
package guid

import (
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
)

// GUID is a 16-byte stable identifier assigned once at registration time.
// Two distinct runtime types must never share a GUID.
type GUID [16]byte

// Nil is the zero GUID. It never identifies a registered type.
var Nil GUID

// New generates a fresh random GUID (UUIDv4). Registration call sites use
// this when a type is registered without an explicit, pinned identifier.
func New() GUID {
	return GUID(uuid.New())
}

// MustParse parses a canonical UUID string ("8-4-4-4-12" hex, with or
// without braces) into a GUID. It panics on malformed input: this is meant
// for fixed-constant GUIDs declared at package scope, where a malformed
// literal is a programmer error, not a runtime condition.
func MustParse(s string) GUID {
	parsed, err := uuid.Parse(s)
	if err != nil {
		panic("guid: invalid GUID literal " + s + ": " + err.Error())
	}
	return GUID(parsed)
}

// String returns the canonical "8-4-4-4-12" hex representation.
func (g GUID) String() string {
	return uuid.UUID(g).String()
}

// IsNil reports whether g is the zero GUID.
func (g GUID) IsNil() bool {
	return g == Nil
}

// MarshalText implements encoding.TextMarshaler so GUIDs can appear in
// YAML/JSON configuration and in diagnostic logging without a custom codec.
func (g GUID) MarshalText() ([]byte, error) {
	return []byte(g.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (g *GUID) UnmarshalText(text []byte) error {
	parsed, err := uuid.Parse(string(text))
	if err != nil {
		return fmt.Errorf("guid: parsing %q: %w", text, err)
	}
	*g = GUID(parsed)
	return nil
}

// Hex returns the raw 32-character lowercase hex encoding, with no
// separators — the compact form used inside diagnostic trace ids.
func (g GUID) Hex() string {
	return hex.EncodeToString(g[:])
}
