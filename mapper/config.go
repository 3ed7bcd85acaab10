// Copyright 2026 The Grafbox Authors
// SPDX-License-Identifier: Apache-2.0

package mapper

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/grafbox/grafbox/wire"
)

// Config is grafbox's on-disk mapper configuration. There are no
// fallbacks or automatic discovery — callers pass an explicit path to
// LoadFile, or set GRAFBOX_CONFIG for Load. This keeps envelope encoding
// behavior auditable: nothing about how an envelope was produced depends
// on ambient environment state.
type Config struct {
	// Compression selects the envelope compression algorithm: "none"
	// (default), "lz4", or "zstd".
	Compression string `yaml:"compression"`

	// Digest enables content-hashing each encoded envelope into
	// SerializeInfo.EnvelopeDigest.
	Digest bool `yaml:"digest"`
}

// DefaultConfig returns grafbox's zero-overhead defaults: no
// compression, no digest.
func DefaultConfig() *Config {
	return &Config{Compression: "none"}
}

// Load reads configuration from the path named by the GRAFBOX_CONFIG
// environment variable. It fails if the variable is unset.
func Load() (*Config, error) {
	path := os.Getenv("GRAFBOX_CONFIG")
	if path == "" {
		return nil, fmt.Errorf("mapper: GRAFBOX_CONFIG environment variable not set")
	}
	return LoadFile(path)
}

// LoadFile reads and parses configuration from an explicit path.
func LoadFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("mapper: reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("mapper: parsing config %s: %w", path, err)
	}
	return cfg, nil
}

// compression resolves the configured algorithm name to a wire.Compression
// tag, defaulting to wire.CompressNone for an unrecognized or empty value.
func (c *Config) compression() wire.Compression {
	switch c.Compression {
	case "lz4":
		return wire.CompressLZ4
	case "zstd":
		return wire.CompressZstd
	default:
		return wire.CompressNone
	}
}

// Options converts Config into the mapper.Option slice New expects.
func (c *Config) Options() []Option {
	return []Option{
		WithCompression(c.compression()),
		WithDigest(c.Digest),
	}
}
