// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 The Aviary Authors

package skytalk

import "fmt"

// Stats holds per-connection link counters. A copy is returned by
// Connection.Stats; the zero value is a freshly reset set of counters.
type Stats struct {
	TxBytes       uint32 // raw bytes handed to the sink
	RxBytes       uint32 // raw bytes fed into the decoder
	TxObjectBytes uint32 // payload bytes sent
	RxObjectBytes uint32 // payload bytes received in valid frames
	TxObjects     uint32 // frames sent
	RxObjects     uint32 // valid frames received
	RxErrors      uint32 // framing errors (resynchronizations counted as faults)
}

// String returns a one-line summary suitable for periodic logging.
func (s Stats) String() string {
	return fmt.Sprintf("tx: %d objs / %d B, rx: %d objs / %d B, rx errors: %d",
		s.TxObjects, s.TxBytes, s.RxObjects, s.RxBytes, s.RxErrors)
}
