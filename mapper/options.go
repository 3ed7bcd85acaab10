// Copyright 2026 The Grafbox Authors
// SPDX-License-Identifier: Apache-2.0

package mapper

import (
	"log/slog"

	"github.com/grafbox/grafbox/internal/clock"
	"github.com/grafbox/grafbox/wire"
)

// Option configures a Mapper.
type Option func(*Mapper)

// WithLogger attaches a structured logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(m *Mapper) { m.logger = logger }
}

// WithClock overrides the clock used to stamp SerializeInfo.Duration and
// DeserializeInfo.Duration. Tests inject a fake clock for deterministic
// timings; production code has no reason to call this.
func WithClock(c clock.Clock) Option {
	return func(m *Mapper) { m.clock = c }
}

// WithCompression selects the envelope compression algorithm used by
// Serialize. The default is wire.CompressNone.
func WithCompression(c wire.Compression) Option {
	return func(m *Mapper) { m.compression = c }
}

// WithDigest enables content-hashing the encoded envelope into
// SerializeInfo.EnvelopeDigest, so two envelopes can be compared for
// byte-identity without re-encoding and diffing the raw bytes.
func WithDigest(enabled bool) Option {
	return func(m *Mapper) { m.digest = enabled }
}
