// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 The Aviary Authors

// Package skytalk implements the SkyTalk telemetry protocol used between a
// flight controller and a ground station or companion processor.
//
// SkyTalk is a framed, checksummed request/acknowledge protocol carrying
// typed objects over an unreliable, ordered byte link (serial or radio).
// The package provides the receive-side framing state machine, the frame
// encoder, the object dispatch logic, and a single-slot blocking
// transaction layer. Object storage itself lives behind the ObjectModel
// interface; see the uavobject package for a definition-driven
// implementation.
package skytalk

// Protocol framing
const (
	SyncVal = 0x3C // frame sync byte

	// The type byte carries the protocol version in its upper bits and the
	// message type in its lower bits.
	TypeMask = 0xF8
	TypeVer  = 0x20
)

// Message types
const (
	TypeObj    = TypeVer | 0x00 // object update, no ack wanted
	TypeObjAck = TypeVer | 0x01 // object update, ack wanted
	TypeObjReq = TypeVer | 0x02 // request for an object's current value
	TypeAck    = TypeVer | 0x03 // acknowledgment
	TypeNack   = TypeVer | 0x04 // negative acknowledgment (unknown object)
)

// Frame size limits. The length field in the header counts every byte from
// the sync byte up to but not including the trailing checksum.
const (
	MinHeaderLength  = 8  // sync + type + length(2) + objID(4)
	MaxHeaderLength  = 10 // header plus instance ID(2)
	MaxPayloadLength = 256
	ChecksumLength   = 1
	MaxPacketLength  = MaxHeaderLength + MaxPayloadLength + ChecksumLength
)

// AllInstances is the wildcard instance ID: "every instance" on a send or
// request, "any instance satisfies" on a transaction wait. It is never a
// valid target for an inbound object update.
const AllInstances uint16 = 0xFFFF

// Decoder states (internal)
const (
	stateSync = iota
	stateType
	stateSize
	stateObjID
	stateInstID
	stateData
	stateChecksum
)
