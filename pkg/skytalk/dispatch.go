// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 The Aviary Authors

package skytalk

// receiveObject dispatches one complete, checksum-verified frame. Side
// effects are strictly: at most one object model mutation, at most one
// outbound frame, at most one transaction resolution. Caller holds mu.
func (c *Connection) receiveObject(msgType byte, id uint32, instID uint16, data []byte) {
	switch msgType {
	case TypeObj:
		// Inbound updates must target a single instance.
		if instID == AllInstances {
			c.stats.RxErrors++
			return
		}
		// A failed unpack is swallowed: the object is simply not updated.
		// The update still resolves a matching pending request.
		_ = c.model.Unpack(id, instID, data)
		c.resolveResponse(id, instID)

	case TypeObjAck:
		if instID == AllInstances {
			c.stats.RxErrors++
			return
		}
		// Ack only a successful unpack; on failure the peer times out,
		// which is its negative signal.
		if c.model.Unpack(id, instID, data) == nil {
			c.sendSingleObject(id, instID, TypeAck)
		}

	case TypeObjReq:
		if !c.model.Exists(id) {
			c.sendNack(id)
			return
		}
		c.sendObject(id, instID, TypeObj)

	case TypeAck:
		if instID == AllInstances {
			c.stats.RxErrors++
			return
		}
		c.resolveResponse(id, instID)

	case TypeNack:
		// Nothing to do: the requesting side observes its timeout.
	}
}
