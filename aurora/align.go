// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package aurora

// hasValidSync reports whether frame k has a valid (01 or 10) sync header
// under the given bitslip candidate.
func hasValidSync(buf []uint32, bitslip uint8, k int) bool {
	switch syncBits(buf, bitslip, k) {
	case 0b01, 0b10:
		return true
	default:
		return false
	}
}

// findBitslip searches bitslip candidates 0..63, ascending, and returns the
// first one for which frames 0..4 all have a valid sync header and at
// least threshold of the first sampleSize frames do. It never mutates buf
// and never rewinds; ok is false if no candidate satisfies the threshold.
// Only whole frames that buf holds at a candidate slip are read, so a
// buffer shorter than the sample window fails the search instead of
// running past its end.
func findBitslip(buf []uint32, sampleSize, threshold int) (bitslip uint8, ok bool) {
	for slip := 0; slip < 64; slip++ {
		s := uint8(slip)
		frames := (32*len(buf) - slip) / 66
		if frames < 5 {
			continue
		}
		if !(hasValidSync(buf, s, 0) &&
			hasValidSync(buf, s, 1) &&
			hasValidSync(buf, s, 2) &&
			hasValidSync(buf, s, 3) &&
			hasValidSync(buf, s, 4)) {
			continue
		}

		valid := 5
		if valid >= threshold {
			return s, true
		}
		for k := 5; k < sampleSize && k < frames; k++ {
			if hasValidSync(buf, s, k) {
				valid++
				if valid >= threshold {
					return s, true
				}
			}
		}
	}
	return 0, false
}
