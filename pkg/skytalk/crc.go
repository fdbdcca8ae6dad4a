// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 The Aviary Authors

package skytalk

// CRC-8 configuration. Both sides of the link must agree; the polynomial is
// not negotiated on the wire.
const crcPolynomial = 0x07

var crcTable [256]byte

func init() {
	for i := 0; i < 256; i++ {
		c := byte(i)
		for bit := 0; bit < 8; bit++ {
			if c&0x80 != 0 {
				c = (c << 1) ^ crcPolynomial
			} else {
				c <<= 1
			}
		}
		crcTable[i] = c
	}
}

// UpdateCRC folds a single byte into a running CRC-8 value.
func UpdateCRC(crc, b byte) byte {
	return crcTable[crc^b]
}

// CalculateCRC computes the CRC-8 of data starting from crc. Feeding bytes
// one at a time through UpdateCRC yields the same result.
func CalculateCRC(crc byte, data []byte) byte {
	for _, b := range data {
		crc = crcTable[crc^b]
	}
	return crc
}
