// Copyright 2026 The Grafbox Authors
// SPDX-License-Identifier: Apache-2.0

package wire

import (
	"bytes"
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
)

// encMode is the CBOR encoder configured with Core Deterministic Encoding
// (RFC 8949 §4.2): sorted map keys, smallest integer encoding, no
// indefinite-length items. The same Bundle always produces identical
// bytes — this is what gives grafbox property 4 (deterministic ids ⇒
// byte-identical envelopes).
var encMode cbor.EncMode

// decMode is the CBOR decoder used to parse envelopes back into Bundle.
var decMode cbor.DecMode

func init() {
	var err error

	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("wire: CBOR encoder initialization failed: " + err.Error())
	}

	decMode, err = cbor.DecOptions{}.DecMode()
	if err != nil {
		panic("wire: CBOR decoder initialization failed: " + err.Error())
	}
}

// MalformedEnvelopeError is raised for an envelope that is not a valid
// framed CBOR Bundle, whose root box id is 0 while boxes are present or
// out of range, or that holds a Box with zero or more than one payload.
// Ids other than the root box id are not range-checked here.
type MalformedEnvelopeError struct {
	Reason string
}

func (e *MalformedEnvelopeError) Error() string {
	return fmt.Sprintf("wire: malformed envelope: %s", e.Reason)
}

// Encode writes b to w as a CBOR-encoded envelope, optionally compressed
// per opts.
func Encode(w io.Writer, b *Bundle, opts ...EncodeOption) error {
	if err := validate(b); err != nil {
		return err
	}

	var options encodeOptions
	for _, opt := range opts {
		opt(&options)
	}

	payload, err := encMode.Marshal(b)
	if err != nil {
		return fmt.Errorf("wire: marshaling envelope: %w", err)
	}

	framed, err := compress(payload, options.compression)
	if err != nil {
		return fmt.Errorf("wire: compressing envelope: %w", err)
	}

	if _, err := w.Write(framed); err != nil {
		return fmt.Errorf("wire: writing envelope: %w", err)
	}
	return nil
}

// Decode reads and parses a CBOR-encoded envelope from r, transparently
// decompressing it if it was written with compression.
func Decode(r io.Reader) (*Bundle, error) {
	framed, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("wire: reading envelope: %w", err)
	}

	payload, err := decompress(framed)
	if err != nil {
		return nil, fmt.Errorf("wire: decompressing envelope: %w", err)
	}

	var b Bundle
	if err := decMode.Unmarshal(payload, &b); err != nil {
		return nil, &MalformedEnvelopeError{Reason: err.Error()}
	}

	if err := validate(&b); err != nil {
		return nil, err
	}
	return &b, nil
}

// Marshal is Encode into a freshly allocated byte slice.
func Marshal(b *Bundle, opts ...EncodeOption) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, b, opts...); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal is Decode from a byte slice.
func Unmarshal(data []byte) (*Bundle, error) {
	return Decode(bytes.NewReader(data))
}

// validate enforces what makes an envelope malformed: a Box must carry
// exactly one payload kind, and RootBoxID must be non-zero once there
// is at least one box.
func validate(b *Bundle) error {
	if len(b.Boxes) > 0 && b.RootBoxID == 0 {
		return &MalformedEnvelopeError{Reason: "root box id is 0 but boxes are present"}
	}
	if int(b.RootBoxID) > len(b.Boxes) {
		return &MalformedEnvelopeError{Reason: "root box id out of range"}
	}

	for i, box := range b.Boxes {
		payloads := 0
		if box.Scalar != nil {
			payloads++
		}
		if box.Repeated != nil {
			payloads++
		}
		if box.Record != nil {
			payloads++
		}
		if payloads != 1 {
			return &MalformedEnvelopeError{
				Reason: fmt.Sprintf("box %d has %d payloads, want exactly 1", i+1, payloads),
			}
		}
	}
	return nil
}
