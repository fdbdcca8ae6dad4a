// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 The Aviary Authors

package skytalk

import "testing"

func TestCRCKnownValue(t *testing.T) {
	// Standard CRC-8 (poly 0x07, init 0) check value.
	if crc := CalculateCRC(0, []byte("123456789")); crc != 0xF4 {
		t.Errorf("CRC = 0x%02X, want 0xF4", crc)
	}
}

func TestCRCEmpty(t *testing.T) {
	if crc := CalculateCRC(0, nil); crc != 0 {
		t.Errorf("CRC of empty data = 0x%02X, want initial value 0", crc)
	}
}

func TestCRCIncrementalMatchesBlock(t *testing.T) {
	data := []byte{SyncVal, TypeObj, 0x0C, 0x00, 0x01, 0x10, 0x00, 0x00, 1, 2, 3, 4}

	block := CalculateCRC(0, data)
	incremental := byte(0)
	for _, b := range data {
		incremental = UpdateCRC(incremental, b)
	}

	if block != incremental {
		t.Errorf("block 0x%02X != incremental 0x%02X", block, incremental)
	}
}

func TestCRCDetectsSingleBitFlip(t *testing.T) {
	data := []byte{0x3C, 0x20, 0x08, 0x00, 0xAA, 0xBB, 0xCC, 0xDD}
	base := CalculateCRC(0, data)

	for i := range data {
		for bit := 0; bit < 8; bit++ {
			flipped := make([]byte, len(data))
			copy(flipped, data)
			flipped[i] ^= 1 << bit
			if CalculateCRC(0, flipped) == base {
				t.Errorf("flip of byte %d bit %d not detected", i, bit)
			}
		}
	}
}
