// Copyright 2026 The Grafbox Authors
// SPDX-License-Identifier: Apache-2.0

// Package mapper ties together grafbox's box table (C5), serialization
// driver (C6), and deserialization driver (C7) into the public Mapper
// API: Serialize walks an object graph into a self-describing envelope,
// Deserialize walks one back.
package mapper

import (
	"context"
	"log/slog"

	"github.com/zeebo/blake3"

	"github.com/grafbox/grafbox/internal/clock"
	"github.com/grafbox/grafbox/registry"
	"github.com/grafbox/grafbox/transform"
	"github.com/grafbox/grafbox/wire"
)

// Mapper serializes and deserializes object graphs against one
// registry.Registry. The zero value is not usable; construct with New.
type Mapper struct {
	reg *registry.Registry

	logger      *slog.Logger
	clock       clock.Clock
	compression wire.Compression
	digest      bool
}

// New constructs a Mapper bound to reg. Most callers pass
// registry.Default().
func New(reg *registry.Registry, opts ...Option) *Mapper {
	transform.Register(reg)

	m := &Mapper{
		reg:    reg,
		logger: slog.Default(),
		clock:  clock.Real(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Serialize walks root's object graph and encodes it into a self-describing
// envelope. ctx is checked for cancellation once, before the walk
// begins; a cancellation that arrives during the walk is not observed.
func (m *Mapper) Serialize(ctx context.Context, root any) ([]byte, SerializeInfo, error) {
	start := m.clock.Now()
	m.reg.Sync()

	if err := ctx.Err(); err != nil {
		return nil, SerializeInfo{}, err
	}

	session := newSerializeSession(m.reg)
	var rootID wire.BoxID
	if root != nil {
		id, err := session.run(root)
		if err != nil {
			return nil, SerializeInfo{}, err
		}
		rootID = id
	}

	bundle := session.bundle(rootID)

	encoded, err := wire.Marshal(bundle, wire.WithCompression(m.compression))
	if err != nil {
		return nil, SerializeInfo{}, err
	}

	info := SerializeInfo{
		BoxCount:    len(bundle.Boxes),
		StringCount: len(bundle.Strings),
		Duration:    m.clock.Now().Sub(start),
		EncodedSize: len(encoded),
	}
	if m.digest {
		info.EnvelopeDigest = blake3.Sum256(encoded)
	}

	m.logger.Debug("grafbox: serialized object graph",
		"box_count", info.BoxCount,
		"encoded_size", info.EncodedSize,
		"duration", info.Duration)

	return encoded, info, nil
}

// Deserialize decodes an envelope produced by Serialize and reconstructs
// its object graph, returning the root object. Boxes whose type GUID is
// unknown to this process's registry deserialize to nil rather than
// failing the whole call; DeserializeInfo.UnknownTypeGUIDs reports which
// GUIDs were skipped. An unknown transformer GUID is not tolerated the
// same way — it aborts the call with an *UnknownTransformerError.
func (m *Mapper) Deserialize(ctx context.Context, envelope []byte) (any, DeserializeInfo, error) {
	start := m.clock.Now()
	m.reg.Sync()

	if err := ctx.Err(); err != nil {
		return nil, DeserializeInfo{}, err
	}

	bundle, err := wire.Unmarshal(envelope)
	if err != nil {
		return nil, DeserializeInfo{}, err
	}

	session, err := newDeserializeSession(m.reg, bundle)
	if err != nil {
		return nil, DeserializeInfo{}, err
	}
	root, err := session.run()
	if err != nil {
		return nil, DeserializeInfo{}, err
	}

	info := DeserializeInfo{
		BoxCount:         len(bundle.Boxes),
		Duration:         m.clock.Now().Sub(start),
		UnknownTypeGUIDs: session.unknownTypeGUIDs,
	}

	m.logger.Debug("grafbox: deserialized object graph",
		"box_count", info.BoxCount,
		"unknown_types", len(info.UnknownTypeGUIDs),
		"duration", info.Duration)

	return root, info, nil
}
