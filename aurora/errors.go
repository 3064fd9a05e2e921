// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package aurora

import "fmt"

// BoundsViolation is raised (via panic, never a returned error) when a
// frame read would run past the end of the raw word buffer. Per spec, this
// indicates caller misuse -- typically forceBitSlip with a buffer too small
// for the requested frame count -- and is a fatal program error, not a
// recoverable decode condition.
type BoundsViolation struct {
	Index int // word index that was requested
	Len   int // length of the buffer, in words
}

func (e *BoundsViolation) Error() string {
	return fmt.Sprintf("aurora: bounds violation: word %d out of %d-word buffer", e.Index, e.Len)
}

// AlignmentFailure is returned by Receiver.AlignmentError when no candidate
// bitslip satisfies the acceptance threshold over the sample window.
type AlignmentFailure struct {
	SampleSize int
	Threshold  int
}

func (e *AlignmentFailure) Error() string {
	return fmt.Sprintf("aurora: no bitslip candidate reached threshold=%d over sample=%d", e.Threshold, e.SampleSize)
}
