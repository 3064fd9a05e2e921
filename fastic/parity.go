// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fastic

import (
	"math/bits"

	"golang.org/x/exp/constraints"
)

// parity returns the even-parity bit of v: 1 if v has an odd number of set
// bits, 0 otherwise. It is the Go counterpart of fastic.cpp's
// calculateParity<T> template.
func parity[T constraints.Unsigned](v T) bool {
	return bits.OnesCount64(uint64(v))%2 == 1
}
