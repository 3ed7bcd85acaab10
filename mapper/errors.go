// Copyright 2026 The Grafbox Authors
// SPDX-License-Identifier: Apache-2.0

package mapper

import (
	"fmt"
	"reflect"

	"github.com/grafbox/grafbox/guid"
)

// UnserializableTypeError is returned when Serialize encounters an object
// whose runtime type was never registered with the collaborating
// registry.Registry.
type UnserializableTypeError struct {
	Type reflect.Type
}

func (e *UnserializableTypeError) Error() string {
	return fmt.Sprintf("mapper: type %s has no registered transformer", e.Type)
}

// UnknownTypeGUIDError describes an envelope reference to a type GUID
// this process's registry does not recognize. Deserialize does not return
// it: boxes of unknown types deserialize to nil and their GUIDs are
// reported in DeserializeInfo.UnknownTypeGUIDs.
type UnknownTypeGUIDError struct {
	GUID guid.GUID
}

func (e *UnknownTypeGUIDError) Error() string {
	return fmt.Sprintf("mapper: envelope references unknown type guid %s", e.GUID)
}

// UnknownTransformerError is returned by Deserialize when an envelope's
// TransformerGUIDs table references a transformer GUID this process's
// registry does not recognize. Unlike an unknown type GUID, this aborts
// deserialization outright: there is no tolerant fallback for a box
// whose transformer cannot be resolved.
type UnknownTransformerError struct {
	GUID guid.GUID
}

func (e *UnknownTransformerError) Error() string {
	return fmt.Sprintf("mapper: envelope references unknown transformer guid %s", e.GUID)
}

// HookError wraps a failure from a post-deserialization hook.
type HookError struct {
	Type reflect.Type
	Err  error
}

func (e *HookError) Error() string {
	return fmt.Sprintf("mapper: post-deserialization hook for %s: %v", e.Type, e.Err)
}

func (e *HookError) Unwrap() error { return e.Err }

// MalformedBoxError is returned by Deserialize when a Box's type metadata
// carries no transformer id that resolves in the envelope's transformer
// table.
type MalformedBoxError struct {
	BoxID  uint64
	Reason string
}

func (e *MalformedBoxError) Error() string {
	return fmt.Sprintf("mapper: box %d is malformed: %s", e.BoxID, e.Reason)
}
