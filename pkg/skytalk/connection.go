// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 The Aviary Authors

package skytalk

import (
	"sync"
	"time"
)

// Sink ships encoded frame bytes to the transport. It may be called several
// times per frame when the frame is larger than the connection MTU. A Sink
// must not call back into the Connection.
type Sink func(p []byte) error

// Connection is the protocol state for one physical link. It is created
// once at link bring-up and shared between the byte-feeding receive path
// and any number of sending callers.
//
// All shared state is guarded by mu. Transactions are serialized by a
// second lock so that the blocking wait for an ack never holds mu; the
// receive path needs mu to deliver the resolving frame.
type Connection struct {
	mu      sync.Mutex
	transMu sync.Mutex

	model ObjectModel
	sink  Sink
	mtu   int

	rxBuf []byte
	txBuf []byte

	rx    decodeState
	stats Stats

	// Transaction slot: the object and instance a caller is waiting on.
	// respPending gates resolution so a late ack after a timeout is
	// ignored. respCh acts as a binary semaphore.
	respObjID   uint32
	respInstID  uint16
	respPending bool
	respCh      chan struct{}
}

// decodeState is the receive state machine's working set, reset to the
// Sync state whenever a frame completes or framing is lost.
type decodeState struct {
	state        int
	cs           byte
	msgType      byte
	packetSize   uint16 // declared total length from the header
	objID        uint32
	instID       uint16
	length       int // payload length for this frame
	count        int // bytes accumulated in the current field
	packetLength int // bytes consumed since the sync byte
	objKnown     bool
}

// New creates a Connection that talks to the given object model and writes
// outbound frames through sink in chunks of at most mtu bytes. Both buffers
// are allocated here; the steady-state send and receive paths do not
// allocate.
func New(model ObjectModel, sink Sink, mtu int) *Connection {
	if mtu < 1 {
		mtu = MaxPacketLength
	}
	return &Connection{
		model:  model,
		sink:   sink,
		mtu:    mtu,
		rxBuf:  make([]byte, MaxPayloadLength),
		txBuf:  make([]byte, MaxPacketLength),
		respCh: make(chan struct{}, 1),
	}
}

// SetSink replaces the transport sink.
func (c *Connection) SetSink(sink Sink) {
	c.mu.Lock()
	c.sink = sink
	c.mu.Unlock()
}

// Sink returns the current transport sink.
func (c *Connection) Sink() Sink {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sink
}

// Stats returns a copy of the connection counters.
func (c *Connection) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// ResetStats clears the connection counters.
func (c *Connection) ResetStats() {
	c.mu.Lock()
	c.stats = Stats{}
	c.mu.Unlock()
}

// SendObject sends an object through the link. With acked set, it blocks
// until the peer acknowledges or the timeout expires. instID may be
// AllInstances to send every live instance.
func (c *Connection) SendObject(id uint32, instID uint16, acked bool, timeout time.Duration) error {
	if acked {
		return c.transact(id, instID, TypeObjAck, timeout)
	}
	return c.transact(id, instID, TypeObj, 0)
}

// RequestObject asks the peer for the current value of an object and blocks
// until the update arrives or the timeout expires. On success the received
// value has already been written into the object model. instID may be
// AllInstances; any arriving instance then satisfies the request.
func (c *Connection) RequestObject(id uint32, instID uint16, timeout time.Duration) error {
	return c.transact(id, instID, TypeObjReq, timeout)
}

// transact performs one protocol operation. TypeObjAck and TypeObjReq run
// as a transaction: acquire the single slot, send, wait. TypeObj is
// fire-and-forget.
func (c *Connection) transact(id uint32, instID uint16, msgType byte, timeout time.Duration) error {
	switch msgType {
	case TypeObjAck, TypeObjReq:
		// An acked update cannot fan out over the wildcard: a single ack
		// says nothing about how many instances the peer applied. The
		// wildcard on a single-instance object collapses to instance 0
		// in the encoder, so only multi-instance targets are rejected.
		if msgType == TypeObjAck && instID == AllInstances && !c.model.IsSingleInstance(id) {
			return ErrInvalidInstance
		}

		// One transaction in flight per connection. A second caller parks
		// here until the slot frees up.
		c.transMu.Lock()

		c.mu.Lock()
		c.respObjID = id
		c.respInstID = instID
		c.respPending = true
		err := c.sendObject(id, instID, msgType)
		c.mu.Unlock()

		if err != nil {
			c.abandon()
			c.transMu.Unlock()
			return err
		}

		timer := time.NewTimer(timeout)
		defer timer.Stop()
		select {
		case <-c.respCh:
			c.transMu.Unlock()
			return nil
		case <-timer.C:
			c.abandon()
			c.transMu.Unlock()
			return ErrTimeout
		}

	case TypeObj:
		c.mu.Lock()
		defer c.mu.Unlock()
		return c.sendObject(id, instID, TypeObj)

	default:
		return ErrInvalidInstance
	}
}

// abandon tears down the transaction slot after a timeout or send failure.
// A resolution that raced in is drained so it cannot satisfy the next
// transaction.
func (c *Connection) abandon() {
	c.mu.Lock()
	c.respPending = false
	c.respObjID = 0
	select {
	case <-c.respCh:
	default:
	}
	c.mu.Unlock()
}

// resolveResponse completes a pending transaction if the inbound object or
// ack matches what the caller is waiting on. Caller holds mu.
func (c *Connection) resolveResponse(id uint32, instID uint16) {
	if !c.respPending || c.respObjID != id {
		return
	}
	if c.respInstID != instID && c.respInstID != AllInstances {
		return
	}
	c.respPending = false
	c.respObjID = 0
	select {
	case c.respCh <- struct{}{}:
	default:
	}
}
