// Copyright 2026 The Grafbox Authors
// SPDX-License-Identifier: Apache-2.0

package mapper

import (
	"time"

	"github.com/grafbox/grafbox/guid"
)

// SerializeInfo summarizes one Serialize call, returned alongside the
// encoded envelope for logging and metrics.
type SerializeInfo struct {
	// BoxCount is the number of distinct boxes discovered and written.
	BoxCount int

	// StringCount is the number of interned strings.
	StringCount int

	// Duration is the wall-clock time Serialize spent walking the graph
	// and encoding the envelope.
	Duration time.Duration

	// EncodedSize is the size in bytes of the final (possibly
	// compressed) envelope.
	EncodedSize int

	// EnvelopeDigest is a blake3 content hash of the encoded envelope,
	// populated only when the Mapper was constructed WithDigest(true).
	EnvelopeDigest [32]byte
}

// DeserializeInfo summarizes one Deserialize call.
type DeserializeInfo struct {
	// BoxCount is the number of boxes read back from the envelope.
	BoxCount int

	// Duration is the wall-clock time Deserialize spent decoding the
	// envelope and reconstructing the object graph.
	Duration time.Duration

	// UnknownTypeGUIDs lists the type GUIDs this process's registry did
	// not recognize, one entry per affected box. Such boxes deserialize
	// to nil rather than failing the whole call, so an older process can
	// still read an envelope written by a newer one that added types it
	// doesn't know; this is how the caller finds out which types those
	// were.
	UnknownTypeGUIDs []guid.GUID
}
