// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 The Aviary Authors

package skytalk

// ObjectModel is the store that SkyTalk reads and writes objects through.
// The protocol core owns no object storage; it treats the model as an
// oracle keyed by 32-bit object ID and 16-bit instance ID.
//
// Implementations must be safe for concurrent use: the receive path and
// transmitting callers may touch the model at the same time.
type ObjectModel interface {
	// Exists reports whether an object with the given ID is known.
	Exists(id uint32) bool

	// SizeOf returns the fixed encoded size of one instance, or 0 for an
	// unknown object.
	SizeOf(id uint32) int

	// InstanceCount returns the number of live instances.
	InstanceCount(id uint32) int

	// IsSingleInstance reports whether the object has exactly one instance
	// and therefore no instance ID field on the wire.
	IsSingleInstance(id uint32) bool

	// Pack encodes the current value of (id, instID) into out, which is at
	// least SizeOf(id) bytes long.
	Pack(id uint32, instID uint16, out []byte) error

	// Unpack decodes data into (id, instID), creating the instance if it
	// does not exist yet.
	Unpack(id uint32, instID uint16, data []byte) error
}
