// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package crc16 implements the CRC-16/CCITT-FALSE checksum, the variant
// auroradb uses as a per-event content hash, in the same shape as the
// standard library's hash/crc32.
package crc16 // import "github.com/go-daq/aurora66b/internal/crc16"

import "hash"

// Table is a 256-entry table representing the polynomial used to compute
// a CRC-16 checksum, one byte at a time.
type Table [256]uint16

// Predefined polynomials.
const (
	// CCITTFalse is the polynomial used by CRC-16/CCITT-FALSE
	// (x^16 + x^12 + x^5 + 1, init=0xFFFF, no reflect, no final xor).
	CCITTFalse = 0x1021
)

var ccittFalseTable = makeTable(CCITTFalse)

// MakeTable returns a Table constructed from the specified polynomial.
func MakeTable(poly uint16) *Table {
	t := makeTable(poly)
	return &t
}

func makeTable(poly uint16) Table {
	var t Table
	for i := 0; i < 256; i++ {
		crc := uint16(i) << 8
		for bit := 0; bit < 8; bit++ {
			if crc&0x8000 != 0 {
				crc = (crc << 1) ^ poly
			} else {
				crc <<= 1
			}
		}
		t[i] = crc
	}
	return t
}

// Hash16 is the common interface implemented by all CRC-16 hashes.
type Hash16 interface {
	hash.Hash
	Sum16() uint16
}

type digest struct {
	crc uint16
	tab *Table
}

// New creates a new Hash16 computing the CRC-16 checksum using the
// polynomial represented by tab. If tab is nil, the CCITT-FALSE table is
// used.
func New(tab *Table) Hash16 {
	if tab == nil {
		tab = &ccittFalseTable
	}
	d := &digest{tab: tab}
	d.Reset()
	return d
}

func (d *digest) Reset() { d.crc = 0xFFFF }

func (d *digest) Size() int      { return 2 }
func (d *digest) BlockSize() int { return 1 }

func (d *digest) Write(p []byte) (int, error) {
	crc := d.crc
	for _, b := range p {
		crc = (crc << 8) ^ d.tab[byte(crc>>8)^b]
	}
	d.crc = crc
	return len(p), nil
}

func (d *digest) Sum16() uint16 { return d.crc }

func (d *digest) Sum(in []byte) []byte {
	s := d.Sum16()
	return append(in, byte(s>>8), byte(s))
}
