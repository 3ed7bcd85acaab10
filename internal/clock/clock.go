// Copyright 2026 The Grafbox Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time source for testability.
//
// mapper.Serialize and mapper.Deserialize stamp their returned info
// records with a wall-clock duration. Production code reads real time;
// tests inject a Fake clock so the duration is deterministic and
// assertable instead of merely non-negative.
package clock

import "time"

// Clock abstracts time.Now for testability. Production code injects
// Real(); tests inject Fake() with a pinned, advanceable time.
type Clock interface {
	// Now returns the current time.
	Now() time.Time
}
