// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 The Aviary Authors

package skytalk

import (
	"errors"
	"testing"
	"time"
)

// crossLink wires two connections back to back. Frames are pumped through
// goroutines because a sink must not call back into a Connection.
func crossLink(t *testing.T, a, b *Connection) {
	t.Helper()
	aToB := make(chan []byte, 256)
	bToA := make(chan []byte, 256)
	a.SetSink(func(p []byte) error {
		cp := make([]byte, len(p))
		copy(cp, p)
		aToB <- cp
		return nil
	})
	b.SetSink(func(p []byte) error {
		cp := make([]byte, len(p))
		copy(cp, p)
		bToA <- cp
		return nil
	})
	done := make(chan struct{})
	t.Cleanup(func() { close(done) })
	go func() {
		for {
			select {
			case p := <-aToB:
				b.ProcessBytes(p)
			case <-done:
				return
			}
		}
	}()
	go func() {
		for {
			select {
			case p := <-bToA:
				a.ProcessBytes(p)
			case <-done:
				return
			}
		}
	}()
}

func TestTransactionTimeout(t *testing.T) {
	model := newFakeModel()
	model.add(0x1001, 4, true)
	conn := New(model, func([]byte) error { return nil }, 8) // peer never answers

	start := time.Now()
	err := conn.RequestObject(0x1001, 0, 50*time.Millisecond)
	elapsed := time.Since(start)

	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("RequestObject = %v, want ErrTimeout", err)
	}
	if elapsed < 50*time.Millisecond {
		t.Errorf("returned after %v, before the timeout", elapsed)
	}

	// The slot must be free immediately: a follow-up transaction starts
	// without waiting on the previous one.
	start = time.Now()
	if err := conn.RequestObject(0x1001, 0, 10*time.Millisecond); !errors.Is(err, ErrTimeout) {
		t.Fatalf("second RequestObject = %v, want ErrTimeout", err)
	}
	if elapsed := time.Since(start); elapsed > 40*time.Millisecond {
		t.Errorf("second transaction blocked for %v; slot was not released", elapsed)
	}
}

func TestAckedSendResolvedByPeer(t *testing.T) {
	gcs := newFakeModel()
	gcs.add(0x1001, 4, true)
	fc := newFakeModel()
	fc.add(0x1001, 4, true)

	a := New(gcs, nil, 16)
	b := New(fc, nil, 16)
	crossLink(t, a, b)

	if err := a.SendObject(0x1001, 0, true, time.Second); err != nil {
		t.Fatalf("acked send: %v", err)
	}
	if got := fc.unpackCount(); got != 1 {
		t.Errorf("peer unpacks = %d, want 1", got)
	}
}

func TestRequestResolvedByObjectUpdate(t *testing.T) {
	gcs := newFakeModel()
	gcs.add(0x1001, 4, true)
	fc := newFakeModel()
	fc.add(0x1001, 4, true)

	a := New(gcs, nil, 16)
	b := New(fc, nil, 16)
	crossLink(t, a, b)

	if err := a.RequestObject(0x1001, 0, time.Second); err != nil {
		t.Fatalf("request: %v", err)
	}
	// The peer's current value has been unpacked into our model.
	if got := gcs.unpackCount(); got != 1 {
		t.Errorf("local unpacks = %d, want 1", got)
	}
}

func TestWildcardRequestResolvedByAnyInstance(t *testing.T) {
	gcs := newFakeModel()
	o := gcs.add(0x2002, 4, false)
	o.instances = 0
	fc := newFakeModel()
	fcObj := fc.add(0x2002, 4, false)
	fcObj.instances = 2

	a := New(gcs, nil, 16)
	b := New(fc, nil, 16)
	crossLink(t, a, b)

	if err := a.RequestObject(0x2002, AllInstances, time.Second); err != nil {
		t.Fatalf("wildcard request: %v", err)
	}
}

func TestTransactionExclusivity(t *testing.T) {
	model := newFakeModel()
	model.add(0x1001, 4, true)

	frames := make(chan []byte, 16)
	conn := New(model, func(p []byte) error {
		cp := make([]byte, len(p))
		copy(cp, p)
		frames <- cp
		return nil
	}, MaxPacketLength)

	ack := buildFrame(TypeAck, 0x1001, nil, nil)

	first := make(chan error, 1)
	second := make(chan error, 1)
	secondSent := make(chan struct{})

	go func() { first <- conn.SendObject(0x1001, 0, true, time.Second) }()

	// Wait for the first frame to hit the wire, then start a competing
	// transaction. It must not transmit until the slot frees up.
	<-frames
	go func() {
		close(secondSent)
		second <- conn.SendObject(0x1001, 0, true, time.Second)
	}()
	<-secondSent
	time.Sleep(20 * time.Millisecond)

	select {
	case <-frames:
		t.Fatal("second transaction transmitted while the first was pending")
	default:
	}

	// Resolve the first; the second may now transmit and resolve.
	conn.ProcessBytes(ack)
	if err := <-first; err != nil {
		t.Fatalf("first transaction: %v", err)
	}

	<-frames // second frame goes out only now
	conn.ProcessBytes(ack)
	if err := <-second; err != nil {
		t.Fatalf("second transaction: %v", err)
	}
}

func TestLateAckIgnored(t *testing.T) {
	model := newFakeModel()
	model.add(0x1001, 4, true)
	conn := New(model, func([]byte) error { return nil }, 8)

	if err := conn.SendObject(0x1001, 0, true, 10*time.Millisecond); !errors.Is(err, ErrTimeout) {
		t.Fatalf("SendObject = %v, want ErrTimeout", err)
	}

	// The matching ack arrives after abandonment: no pending transaction,
	// nothing to resolve.
	conn.ProcessBytes(buildFrame(TypeAck, 0x1001, nil, nil))

	// A fresh transaction must still time out rather than being satisfied
	// by the stale ack.
	if err := conn.RequestObject(0x1001, 0, 20*time.Millisecond); !errors.Is(err, ErrTimeout) {
		t.Fatalf("RequestObject = %v, want ErrTimeout (stale ack must not satisfy)", err)
	}
}

func TestFireAndForgetDoesNotBlock(t *testing.T) {
	model := newFakeModel()
	model.add(0x1001, 4, true)
	sink := &frameSink{}
	conn := New(model, sink.sink, 8)

	done := make(chan error, 1)
	go func() { done <- conn.SendObject(0x1001, 0, false, 0) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("SendObject: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("fire-and-forget send blocked")
	}
	if len(sink.all()) == 0 {
		t.Error("nothing transmitted")
	}
}

func TestWildcardAckedSendRejected(t *testing.T) {
	model := newFakeModel()
	obj := model.add(0x2002, 6, false)
	obj.instances = 3
	model.add(0x1001, 4, true)
	sink := &frameSink{}
	conn := New(model, sink.sink, MaxPacketLength)

	if err := conn.SendObject(0x2002, AllInstances, true, time.Second); !errors.Is(err, ErrInvalidInstance) {
		t.Fatalf("wildcard acked send = %v, want ErrInvalidInstance", err)
	}
	if got := sink.all(); len(got) != 0 {
		t.Errorf("rejected send still transmitted: % X", got)
	}

	// Unacked wildcard fan-out stays legal.
	if err := conn.SendObject(0x2002, AllInstances, false, 0); err != nil {
		t.Fatalf("plain wildcard send: %v", err)
	}
	if got := conn.Stats().TxObjects; got != 3 {
		t.Errorf("TxObjects = %d, want 3", got)
	}

	// On a single-instance object the wildcard collapses to instance 0,
	// so the acked send goes out and times out like any other.
	sink.reset()
	if err := conn.SendObject(0x1001, AllInstances, true, 10*time.Millisecond); !errors.Is(err, ErrTimeout) {
		t.Fatalf("single-instance wildcard acked send = %v, want ErrTimeout", err)
	}
	if got := len(sink.all()); got != 13 {
		t.Errorf("tx bytes = %d, want 13 (one 4-byte update frame)", got)
	}
}

func TestPlainUpdateUnpackFailureSwallowed(t *testing.T) {
	model := newFakeModel()
	obj := model.add(0x1001, 4, true)
	obj.unpackErr = ErrInvalidInstance

	frames := make(chan []byte, 16)
	conn := New(model, func(p []byte) error {
		cp := make([]byte, len(p))
		copy(cp, p)
		frames <- cp
		return nil
	}, MaxPacketLength)

	done := make(chan error, 1)
	go func() { done <- conn.RequestObject(0x1001, 0, time.Second) }()

	// Answer the request with a plain update whose unpack will fail.
	<-frames
	conn.ProcessBytes(buildFrame(TypeObj, 0x1001, nil, []byte{1, 2, 3, 4}))

	// The update still resolves the pending request.
	if err := <-done; err != nil {
		t.Fatalf("RequestObject = %v, want resolution despite failed unpack", err)
	}

	// The failure is swallowed: nothing stored, nothing counted, nothing
	// transmitted in response.
	if got := model.unpackCount(); got != 0 {
		t.Errorf("unpacks = %d, want 0", got)
	}
	stats := conn.Stats()
	if stats.RxErrors != 0 {
		t.Errorf("RxErrors = %d, want 0", stats.RxErrors)
	}
	if stats.RxObjects != 1 {
		t.Errorf("RxObjects = %d, want 1 (frame itself was valid)", stats.RxObjects)
	}
	select {
	case p := <-frames:
		t.Errorf("failed unpack provoked output: % X", p)
	default:
	}
}

func TestStatsAndReset(t *testing.T) {
	model := newFakeModel()
	model.add(0x1001, 4, true)
	sink := &frameSink{}
	conn := New(model, sink.sink, 8)

	if err := conn.SendObject(0x1001, 0, false, 0); err != nil {
		t.Fatalf("SendObject: %v", err)
	}
	conn.ProcessBytes(buildFrame(TypeObj, 0x1001, nil, []byte{1, 2, 3, 4}))

	stats := conn.Stats()
	if stats.TxObjects != 1 || stats.TxBytes != 13 || stats.TxObjectBytes != 4 {
		t.Errorf("tx stats = %+v", stats)
	}
	if stats.RxObjects != 1 || stats.RxBytes != 13 || stats.RxObjectBytes != 4 {
		t.Errorf("rx stats = %+v", stats)
	}

	conn.ResetStats()
	if got := conn.Stats(); got != (Stats{}) {
		t.Errorf("stats after reset = %+v, want zero", got)
	}
}
