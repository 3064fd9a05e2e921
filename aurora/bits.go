// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package aurora

import "golang.org/x/xerrors"

// syncIndex returns the index, in the 32-bit word buffer, of the word
// holding the first sync bit of frame k, for the given bitslip.
func syncIndex(bitslip uint8, k int) int {
	return (int(bitslip) + 66*k) / 32
}

// syncShift returns the bit offset, within the word returned by
// syncIndex, of the first sync bit of frame k.
func syncShift(bitslip uint8, k int) uint8 {
	return uint8((int(bitslip) + 66*k) % 32)
}

// syncBits reads the 2-bit sync header of frame k from buf, as the low two
// bits of the returned byte. It panics if the read would run past the end
// of buf (a BoundsViolation, per the receiver's frame-count invariant: the
// caller is responsible for never asking for more frames than the buffer
// can hold).
func syncBits(buf []uint32, bitslip uint8, k int) uint8 {
	i := syncIndex(bitslip, k)
	shift := syncShift(bitslip, k)

	if shift == 31 {
		checkBounds(buf, i+1)
		return uint8((buf[i]&0x00000001)<<1 | (buf[i+1]&0x80000000)>>31)
	}

	checkBounds(buf, i+1)
	return uint8((buf[i] & (0xC0000000 >> shift)) >> (30 - shift))
}

// rawPayload reads the 64-bit (still scrambled) payload of frame k from
// buf. It panics on a BoundsViolation, exactly as syncBits does.
func rawPayload(buf []uint32, bitslip uint8, k int) uint64 {
	i := syncIndex(bitslip, k)
	shift := syncShift(bitslip, k)

	if shift == 31 {
		checkBounds(buf, i+3)
		return 0 |
			uint64(buf[i+1]&0x7FFFFFFF)<<33 |
			uint64(buf[i+2])<<1 |
			uint64(buf[i+3]&0x80000000)>>31
	}

	checkBounds(buf, i+2)
	return 0 |
		uint64(buf[i]&(0x3FFFFFFF>>shift))<<(32+shift+2) |
		uint64(buf[i+1])<<(shift+2) |
		uint64(buf[i+2]&(0xFFFFFFFF<<(30-shift)))>>(30-shift)
}

func checkBounds(buf []uint32, lastIndex int) {
	if lastIndex >= len(buf) {
		panic(xerrors.Errorf("aurora: word %d out of bounds: %w",
			lastIndex, &BoundsViolation{Index: lastIndex, Len: len(buf)},
		))
	}
}
