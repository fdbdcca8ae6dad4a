// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 The Aviary Authors

package skytalk

import "errors"

// Errors reported to callers of the send and request APIs. Framing errors
// on the receive path are never surfaced individually; they only show up in
// the statistics counters.
var (
	// ErrTimeout means no matching ack or object arrived within the
	// caller-supplied timeout. The transaction slot is already released
	// when this is returned.
	ErrTimeout = errors.New("skytalk: transaction timed out")

	// ErrUnknownObject means the object ID is not present in the model.
	ErrUnknownObject = errors.New("skytalk: unknown object")

	// ErrPayloadTooLarge means the object's encoded size does not fit in a
	// frame. Nothing is transmitted.
	ErrPayloadTooLarge = errors.New("skytalk: payload exceeds maximum frame size")

	// ErrInvalidInstance means the instance ID is not allowed for the
	// requested operation (e.g. the wildcard on an ack).
	ErrInvalidInstance = errors.New("skytalk: invalid instance ID")

	// ErrNoSink means the connection has no transport sink configured.
	ErrNoSink = errors.New("skytalk: no transport sink")
)
