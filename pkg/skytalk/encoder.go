// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 The Aviary Authors

package skytalk

import "encoding/binary"

// sendObject encodes and transmits an object, expanding the wildcard
// instance ID to every live instance. Caller holds mu.
func (c *Connection) sendObject(id uint32, instID uint16, msgType byte) error {
	// A wildcard on a single-instance object collapses to instance 0.
	if instID == AllInstances && c.model.IsSingleInstance(id) {
		instID = 0
	}

	switch msgType {
	case TypeObj, TypeObjAck:
		if instID == AllInstances {
			// Iterate over the currently live instances only.
			numInst := c.model.InstanceCount(id)
			for n := 0; n < numInst; n++ {
				if err := c.sendSingleObject(id, uint16(n), msgType); err != nil {
					return err
				}
			}
			return nil
		}
		return c.sendSingleObject(id, instID, msgType)

	case TypeObjReq:
		return c.sendSingleObject(id, instID, TypeObjReq)

	case TypeAck:
		if instID == AllInstances {
			return ErrInvalidInstance
		}
		return c.sendSingleObject(id, instID, TypeAck)

	default:
		return ErrInvalidInstance
	}
}

// sendSingleObject assembles one frame in the tx buffer and streams it to
// the sink. The instance ID field is omitted entirely for single-instance
// objects. Caller holds mu; instID must not be the wildcard.
func (c *Connection) sendSingleObject(id uint32, instID uint16, msgType byte) error {
	if !c.model.Exists(id) {
		return ErrUnknownObject
	}

	c.txBuf[0] = SyncVal
	c.txBuf[1] = msgType
	// length backfilled below
	binary.LittleEndian.PutUint32(c.txBuf[4:8], id)

	dataOffset := 8
	if !c.model.IsSingleInstance(id) {
		binary.LittleEndian.PutUint16(c.txBuf[8:10], instID)
		dataOffset = 10
	}

	length := 0
	if msgType == TypeObj || msgType == TypeObjAck {
		length = c.model.SizeOf(id)
	}
	if length >= MaxPayloadLength {
		return ErrPayloadTooLarge
	}

	if length > 0 {
		if err := c.model.Pack(id, instID, c.txBuf[dataOffset:dataOffset+length]); err != nil {
			return err
		}
	}

	binary.LittleEndian.PutUint16(c.txBuf[2:4], uint16(dataOffset+length))
	c.txBuf[dataOffset+length] = CalculateCRC(0, c.txBuf[:dataOffset+length])

	if err := c.txStream(c.txBuf[:dataOffset+length+ChecksumLength]); err != nil {
		return err
	}

	c.stats.TxObjects++
	c.stats.TxBytes += uint32(dataOffset + length + ChecksumLength)
	c.stats.TxObjectBytes += uint32(length)
	return nil
}

// sendNack answers a request for an object this side does not know. The
// frame carries the raw requested ID and nothing else. Caller holds mu.
func (c *Connection) sendNack(id uint32) error {
	c.txBuf[0] = SyncVal
	c.txBuf[1] = TypeNack
	binary.LittleEndian.PutUint32(c.txBuf[4:8], id)

	dataOffset := 8
	binary.LittleEndian.PutUint16(c.txBuf[2:4], uint16(dataOffset))
	c.txBuf[dataOffset] = CalculateCRC(0, c.txBuf[:dataOffset])

	if err := c.txStream(c.txBuf[:dataOffset+ChecksumLength]); err != nil {
		return err
	}

	c.stats.TxBytes += uint32(dataOffset + ChecksumLength)
	return nil
}

// txStream hands a frame to the sink in chunks no larger than the MTU.
func (c *Connection) txStream(frame []byte) error {
	if c.sink == nil {
		return ErrNoSink
	}
	for sent := 0; sent < len(frame); {
		sending := len(frame) - sent
		if sending > c.mtu {
			sending = c.mtu
		}
		if err := c.sink(frame[sent : sent+sending]); err != nil {
			return err
		}
		sent += sending
	}
	return nil
}
