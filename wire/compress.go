// Copyright 2026 The Grafbox Authors
// SPDX-License-Identifier: Apache-2.0

package wire

import (
	"encoding/binary"
	"fmt"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression identifies the algorithm used to compress an encoded
// envelope. The tag is stored as the first byte of the framed output so
// Decode can self-select the inflate path.
type Compression uint8

const (
	// CompressNone stores the CBOR-encoded envelope as-is.
	CompressNone Compression = 0

	// CompressLZ4 is the fast option: good ratio on typical box/string
	// tables at very high decode speed.
	CompressLZ4 Compression = 1

	// CompressZstd trades encode speed for a better ratio, worthwhile
	// for envelopes dominated by repeated strings or similar scalars.
	CompressZstd Compression = 2
)

// EncodeOption configures Encode.
type EncodeOption func(*encodeOptions)

type encodeOptions struct {
	compression Compression
}

// WithCompression selects the envelope compression algorithm. The
// default (no option) is CompressNone.
func WithCompression(c Compression) EncodeOption {
	return func(o *encodeOptions) { o.compression = c }
}

// String returns the human-readable name of a compression tag.
func (c Compression) String() string {
	switch c {
	case CompressNone:
		return "none"
	case CompressLZ4:
		return "lz4"
	case CompressZstd:
		return "zstd"
	default:
		return fmt.Sprintf("unknown(%d)", c)
	}
}

// frameHeaderSize is the tag byte plus the uint32 uncompressed length
// recorded ahead of the compressed payload.
const frameHeaderSize = 5

func compress(payload []byte, c Compression) ([]byte, error) {
	if c == CompressNone {
		return append([]byte{byte(CompressNone)}, payload...), nil
	}

	var compressed []byte
	var err error

	switch c {
	case CompressLZ4:
		compressed, err = compressLZ4(payload)
	case CompressZstd:
		compressed, err = compressZstd(payload)
	default:
		return nil, fmt.Errorf("wire: unsupported compression tag %d", c)
	}
	if err != nil {
		return nil, err
	}
	if compressed == nil {
		// Incompressible: fall back to storing the payload raw rather
		// than paying the frame header for no benefit.
		return append([]byte{byte(CompressNone)}, payload...), nil
	}

	framed := make([]byte, frameHeaderSize+len(compressed))
	framed[0] = byte(c)
	binary.LittleEndian.PutUint32(framed[1:frameHeaderSize], uint32(len(payload)))
	copy(framed[frameHeaderSize:], compressed)
	return framed, nil
}

func decompress(framed []byte) ([]byte, error) {
	if len(framed) == 0 {
		return nil, &MalformedEnvelopeError{Reason: "empty envelope"}
	}

	tag := Compression(framed[0])
	if tag == CompressNone {
		return framed[1:], nil
	}

	if len(framed) < frameHeaderSize {
		return nil, &MalformedEnvelopeError{Reason: "truncated compression header"}
	}

	uncompressedSize := int(binary.LittleEndian.Uint32(framed[1:frameHeaderSize]))
	compressed := framed[frameHeaderSize:]

	switch tag {
	case CompressLZ4:
		return decompressLZ4(compressed, uncompressedSize)
	case CompressZstd:
		return decompressZstd(compressed, uncompressedSize)
	default:
		return nil, &MalformedEnvelopeError{Reason: fmt.Sprintf("unknown compression tag %d", tag)}
	}
}

func compressLZ4(data []byte) ([]byte, error) {
	bound := lz4.CompressBlockBound(len(data))
	destination := make([]byte, bound)

	written, err := lz4.CompressBlock(data, destination, nil)
	if err != nil {
		return nil, fmt.Errorf("lz4 compress: %w", err)
	}
	if written == 0 || written >= len(data) {
		// lz4 returns 0 when it determines the data is incompressible,
		// or when compression did not actually shrink it.
		return nil, nil
	}
	return destination[:written], nil
}

func decompressLZ4(compressed []byte, uncompressedSize int) ([]byte, error) {
	if uncompressedSize == 0 {
		return []byte{}, nil
	}
	destination := make([]byte, uncompressedSize)
	read, err := lz4.UncompressBlock(compressed, destination)
	if err != nil {
		return nil, fmt.Errorf("lz4 decompress: %w", err)
	}
	if read != uncompressedSize {
		return nil, fmt.Errorf("lz4 decompress: got %d bytes, expected %d", read, uncompressedSize)
	}
	return destination, nil
}

// zstdEncoder and zstdDecoder are reused across calls to avoid repeated
// initialization overhead. Both are safe for concurrent use.
var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("wire: zstd encoder initialization failed: " + err.Error())
	}

	zstdDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("wire: zstd decoder initialization failed: " + err.Error())
	}
}

func compressZstd(data []byte) ([]byte, error) {
	compressed := zstdEncoder.EncodeAll(data, nil)
	if len(compressed) >= len(data) {
		return nil, nil
	}
	return compressed, nil
}

func decompressZstd(compressed []byte, uncompressedSize int) ([]byte, error) {
	result, err := zstdDecoder.DecodeAll(compressed, make([]byte, 0, uncompressedSize))
	if err != nil {
		return nil, fmt.Errorf("zstd decompress: %w", err)
	}
	if len(result) != uncompressedSize {
		return nil, fmt.Errorf("zstd decompress: got %d bytes, expected %d", len(result), uncompressedSize)
	}
	return result, nil
}
