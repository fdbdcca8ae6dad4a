// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 The Aviary Authors

package skytalk

import (
	"bytes"
	"errors"
	"testing"
	"time"
)

// seededModel is a fakeModel whose Pack returns fixed payload bytes.
type seededModel struct {
	*fakeModel
	payload []byte
}

func (m *seededModel) Pack(id uint32, instID uint16, out []byte) error {
	copy(out, m.payload)
	return nil
}

func TestEncodeAckedUpdateWireFormat(t *testing.T) {
	// Object 0x1001, single instance, payload 01 02 03 04. The frame must
	// be sync, type, 2-byte length, 4-byte ID, payload, CRC, with no
	// instance field.
	model := &seededModel{fakeModel: newFakeModel(), payload: []byte{1, 2, 3, 4}}
	model.add(0x1001, 4, true)
	sink := &frameSink{}
	tx := New(model, sink.sink, MaxPacketLength)

	// No peer: the transaction times out, but the frame is on the wire.
	if err := tx.SendObject(0x1001, 0, true, 10*time.Millisecond); !errors.Is(err, ErrTimeout) {
		t.Fatalf("SendObject = %v, want ErrTimeout", err)
	}

	out := sink.all()
	want := []byte{SyncVal, TypeObjAck, 0x0C, 0x00, 0x01, 0x10, 0x00, 0x00, 1, 2, 3, 4}
	want = append(want, CalculateCRC(0, want))
	if !bytes.Equal(out, want) {
		t.Fatalf("frame:\n got % X\nwant % X", out, want)
	}
}

func TestReceiverAcksAckedUpdate(t *testing.T) {
	rxModel := newFakeModel()
	rxModel.add(0x1001, 4, true)
	sink := &frameSink{}
	rx := New(rxModel, sink.sink, MaxPacketLength)

	frame := []byte{SyncVal, TypeObjAck, 0x0C, 0x00, 0x01, 0x10, 0x00, 0x00, 1, 2, 3, 4}
	frame = append(frame, CalculateCRC(0, frame))
	for _, b := range frame {
		rx.ProcessByte(b)
	}

	wantAck := []byte{SyncVal, TypeAck, 0x08, 0x00, 0x01, 0x10, 0x00, 0x00}
	wantAck = append(wantAck, CalculateCRC(0, wantAck))
	if got := sink.all(); !bytes.Equal(got, wantAck) {
		t.Fatalf("ack frame:\n got % X\nwant % X", got, wantAck)
	}
}

func TestSingleInstanceFramingOmitsInstanceID(t *testing.T) {
	model := newFakeModel()
	model.add(0x1111, 8, true)
	model.add(0x2222, 8, false)

	sink := &frameSink{}
	tx := New(model, sink.sink, MaxPacketLength)

	if err := tx.SendObject(0x1111, 0, false, 0); err != nil {
		t.Fatalf("send single: %v", err)
	}
	singleLen := len(sink.all())

	sink.reset()
	if err := tx.SendObject(0x2222, 0, false, 0); err != nil {
		t.Fatalf("send multi: %v", err)
	}
	multiLen := len(sink.all())

	if multiLen-singleLen != 2 {
		t.Errorf("multi-instance frame is %d bytes, single %d; want a 2-byte difference", multiLen, singleLen)
	}
}

func TestSendAllInstances(t *testing.T) {
	model := newFakeModel()
	obj := model.add(0x2002, 4, false)
	obj.instances = 3
	sink := &frameSink{}
	tx := New(model, sink.sink, MaxPacketLength)

	if err := tx.SendObject(0x2002, AllInstances, false, 0); err != nil {
		t.Fatalf("SendObject: %v", err)
	}
	if got := tx.Stats().TxObjects; got != 3 {
		t.Errorf("TxObjects = %d, want 3", got)
	}
	// Each instance packs differently; check the instance IDs went out in
	// order by decoding them back.
	rxModel := newFakeModel()
	o := rxModel.add(0x2002, 4, false)
	o.instances = 3
	rx := New(rxModel, func([]byte) error { return nil }, 8)
	rx.ProcessBytes(sink.all())
	if got := rxModel.unpackCount(); got != 3 {
		t.Fatalf("dispatches = %d, want 3", got)
	}
	for i, rec := range rxModel.unpacks {
		if rec.instID != uint16(i) {
			t.Errorf("dispatch %d: instance %d, want %d", i, rec.instID, i)
		}
	}
}

func TestOversizePayloadRejectedLocally(t *testing.T) {
	model := newFakeModel()
	model.add(0x3003, MaxPayloadLength, true)
	sink := &frameSink{}
	tx := New(model, sink.sink, MaxPacketLength)

	err := tx.SendObject(0x3003, 0, false, 0)
	if !errors.Is(err, ErrPayloadTooLarge) {
		t.Fatalf("SendObject = %v, want ErrPayloadTooLarge", err)
	}
	if got := sink.all(); len(got) != 0 {
		t.Errorf("oversize frame partially transmitted: % X", got)
	}
}

func TestSendUnknownObject(t *testing.T) {
	tx := New(newFakeModel(), func([]byte) error { return nil }, 8)
	if err := tx.SendObject(0x4004, 0, false, 0); !errors.Is(err, ErrUnknownObject) {
		t.Fatalf("SendObject = %v, want ErrUnknownObject", err)
	}
}

func TestTxChunkedByMTU(t *testing.T) {
	model := newFakeModel()
	model.add(0x1001, 32, true)
	sink := &frameSink{}
	tx := New(model, sink.sink, 8) // frame is 41 bytes, MTU 8

	if err := tx.SendObject(0x1001, 0, false, 0); err != nil {
		t.Fatalf("SendObject: %v", err)
	}

	sink.mu.Lock()
	defer sink.mu.Unlock()
	if len(sink.chunks) != 6 {
		t.Fatalf("chunks = %d, want 6 (5x8 + 1x1)", len(sink.chunks))
	}
	for i, c := range sink.chunks {
		if len(c) > 8 {
			t.Errorf("chunk %d is %d bytes, exceeds MTU", i, len(c))
		}
	}
}

func TestNoSink(t *testing.T) {
	model := newFakeModel()
	model.add(0x1001, 4, true)
	tx := New(model, nil, 8)
	if err := tx.SendObject(0x1001, 0, false, 0); !errors.Is(err, ErrNoSink) {
		t.Fatalf("SendObject = %v, want ErrNoSink", err)
	}
}
