// Copyright 2026 The Grafbox Authors
// SPDX-License-Identifier: Apache-2.0

// Package wire defines grafbox's envelope format and its physical
// encoding. Bundle and its nested records are the wire schema; Encode
// and Decode move Bundle values to and from bytes, with optional
// compression.
package wire
