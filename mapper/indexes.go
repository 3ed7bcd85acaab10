// Copyright 2026 The Grafbox Authors
// SPDX-License-Identifier: Apache-2.0

package mapper

import (
	"fmt"

	"github.com/grafbox/grafbox/guid"
	"github.com/grafbox/grafbox/internal/box"
	"github.com/grafbox/grafbox/wire"
)

func newGUIDIndex() *box.Index[guid.GUID] {
	return box.New(
		func(g guid.GUID) uint64 {
			var h uint64
			for _, b := range g {
				h = h*31 + uint64(b)
			}
			return h
		},
		func(a, b guid.GUID) bool { return a == b },
	)
}

func guidIndexFrom(values [][16]byte) *box.Index[guid.GUID] {
	guids := make([]guid.GUID, len(values))
	for i, v := range values {
		guids[i] = v
	}
	return box.NewFrom(
		func(g guid.GUID) uint64 {
			var h uint64
			for _, b := range g {
				h = h*31 + uint64(b)
			}
			return h
		},
		func(a, b guid.GUID) bool { return a == b },
		guids,
	)
}

func newStringIndex() *box.Index[string] {
	return box.New(fnv64, func(a, b string) bool { return a == b })
}

func stringIndexFrom(values []string) *box.Index[string] {
	return box.NewFrom(fnv64, func(a, b string) bool { return a == b }, values)
}

func fnv64(s string) uint64 {
	const (
		offset uint64 = 14695981039346656037
		prime  uint64 = 1099511628211
	)
	h := offset
	for i := 0; i < len(s); i++ {
		h ^= uint64(s[i])
		h *= prime
	}
	return h
}

func newArrayMetadataIndex() *box.Index[wire.ArrayMetadata] {
	return box.New(arrayMetadataHash, arrayMetadataEqual)
}

func arrayMetadataIndexFrom(values []wire.ArrayMetadata) *box.Index[wire.ArrayMetadata] {
	return box.NewFrom(arrayMetadataHash, arrayMetadataEqual, values)
}

func arrayMetadataHash(a wire.ArrayMetadata) uint64 {
	h := fnv64(fmt.Sprintf("%v|%v|%v", a.Lengths, a.LowerBounds, a.Fixed))
	return h
}

func arrayMetadataEqual(a, b wire.ArrayMetadata) bool {
	if a.Fixed != b.Fixed || len(a.Lengths) != len(b.Lengths) || len(a.LowerBounds) != len(b.LowerBounds) {
		return false
	}
	for i := range a.Lengths {
		if a.Lengths[i] != b.Lengths[i] {
			return false
		}
	}
	for i := range a.LowerBounds {
		if a.LowerBounds[i] != b.LowerBounds[i] {
			return false
		}
	}
	return true
}
