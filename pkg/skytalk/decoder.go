// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 The Aviary Authors

package skytalk

// ProcessByte feeds one received byte through the framing state machine.
// It never blocks and performs a bounded amount of work per byte, so it is
// safe to call from a receive task draining a serial driver. A structural
// anomaly anywhere in the frame drops the decoder back to the Sync state;
// there is no other recovery on a serial link.
func (c *Connection) ProcessByte(b byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	rx := &c.rx
	c.stats.RxBytes++
	rx.packetLength++

	switch rx.state {
	case stateSync:
		if b != SyncVal {
			break
		}
		rx.cs = UpdateCRC(0, b)
		rx.packetLength = 1
		rx.state = stateType

	case stateType:
		rx.cs = UpdateCRC(rx.cs, b)

		// A version mismatch is a resynchronization, not a fault: the sync
		// byte can legitimately appear inside foreign payload bytes.
		if b&TypeMask != TypeVer {
			rx.state = stateSync
			break
		}

		rx.msgType = b
		rx.packetSize = 0
		rx.count = 0
		rx.state = stateSize

	case stateSize:
		rx.cs = UpdateCRC(rx.cs, b)

		if rx.count == 0 {
			rx.packetSize = uint16(b)
			rx.count++
			break
		}
		rx.packetSize |= uint16(b) << 8

		if rx.packetSize < MinHeaderLength || rx.packetSize > MaxHeaderLength+MaxPayloadLength {
			c.rxError()
			break
		}

		rx.count = 0
		rx.objID = 0
		rx.state = stateObjID

	case stateObjID:
		rx.cs = UpdateCRC(rx.cs, b)

		rx.objID |= uint32(b) << (8 * rx.count)
		rx.count++
		if rx.count < 4 {
			break
		}

		// An unknown object forces a resync, except for an OBJ_REQ: that
		// one completes so the dispatcher can answer it with a NACK.
		rx.objKnown = c.model.Exists(rx.objID)
		if !rx.objKnown && rx.msgType != TypeObjReq {
			c.rxError()
			break
		}

		switch rx.msgType {
		case TypeObjReq, TypeAck, TypeNack:
			rx.length = 0
		default:
			rx.length = c.model.SizeOf(rx.objID)
		}

		if rx.length >= MaxPayloadLength {
			c.rxError()
			break
		}

		// The declared length must equal the header bytes consumed so far
		// plus the instance field (when present) plus the payload.
		rx.instID = 0
		rx.count = 0
		switch {
		case !rx.objKnown:
			// NACK-bound request: no instance field, no payload.
			if rx.packetLength != int(rx.packetSize) {
				c.rxError()
				break
			}
			rx.state = stateChecksum
		case c.model.IsSingleInstance(rx.objID):
			if rx.packetLength+rx.length != int(rx.packetSize) {
				c.rxError()
				break
			}
			if rx.length > 0 {
				rx.state = stateData
			} else {
				rx.state = stateChecksum
			}
		default:
			if rx.packetLength+2+rx.length != int(rx.packetSize) {
				c.rxError()
				break
			}
			rx.state = stateInstID
		}

	case stateInstID:
		rx.cs = UpdateCRC(rx.cs, b)

		rx.instID |= uint16(b) << (8 * rx.count)
		rx.count++
		if rx.count < 2 {
			break
		}

		rx.count = 0
		if rx.length > 0 {
			rx.state = stateData
		} else {
			rx.state = stateChecksum
		}

	case stateData:
		rx.cs = UpdateCRC(rx.cs, b)

		c.rxBuf[rx.count] = b
		rx.count++
		if rx.count < rx.length {
			break
		}

		rx.count = 0
		rx.state = stateChecksum

	case stateChecksum:
		// The checksum byte itself is not folded into the running value.
		if b != rx.cs {
			c.rxError()
			break
		}
		if rx.packetLength != int(rx.packetSize)+ChecksumLength {
			c.rxError()
			break
		}

		c.receiveObject(rx.msgType, rx.objID, rx.instID, c.rxBuf[:rx.length])
		c.stats.RxObjectBytes += uint32(rx.length)
		c.stats.RxObjects++

		rx.state = stateSync

	default:
		c.rxError()
	}
}

// ProcessBytes feeds a received chunk through the decoder byte by byte.
func (c *Connection) ProcessBytes(p []byte) {
	for _, b := range p {
		c.ProcessByte(b)
	}
}

// rxError counts a framing fault and resynchronizes. Caller holds mu.
func (c *Connection) rxError() {
	c.stats.RxErrors++
	c.rx.state = stateSync
}
