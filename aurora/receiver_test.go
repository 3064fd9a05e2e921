// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package aurora

import (
	"errors"
	"testing"
)

// TestProcessBER is boundary scenario S6 from spec.md §8: 100 frames, 10
// with an invalid header, yields ber_counter == (10*100)/101 == 9.
func TestProcessBER(t *testing.T) {
	frames := make([]Frame, 100)
	for i := range frames {
		if i < 10 {
			frames[i] = Frame{Kind: Invalid, Payload: uint64(i)}
		} else {
			frames[i] = Frame{Kind: Data, Payload: uint64(i)}
		}
	}
	buf := EncodeFrames(0, frames)

	rx := NewReceiver(buf, 90, 100)
	rx.ForceBitSlip(0)
	rx.Process(false)

	if got := rx.BER(); got != 9 {
		t.Fatalf("BER: got=%d, want=9", got)
	}
}

// TestNewReceiverClampsPct checks invariant 3 from spec.md §8: for all
// pct > 100, the constructed receiver behaves as if pct == 100.
func TestNewReceiverClampsPct(t *testing.T) {
	buf := EncodeFrames(0, dataFrames(64))

	over := NewReceiver(buf, 250, 64)
	capped := NewReceiver(buf, 100, 64)

	if over.threshold != capped.threshold {
		t.Fatalf("threshold: pct=250 got=%d, pct=100(capped) want=%d", over.threshold, capped.threshold)
	}
}

// TestNewReceiverClampsSampleSize checks invariant 4 from spec.md §8: for
// all requested sample sizes at least as large as the buffer's length in
// words, sample_size is clamped to that word count.
func TestNewReceiverClampsSampleSize(t *testing.T) {
	buf := EncodeFrames(0, dataFrames(4))

	rx := NewReceiver(buf, 90, 1<<20)
	if rx.sampleSize != len(buf) {
		t.Fatalf("sampleSize: got=%d, want=%d (len(buf))", rx.sampleSize, len(buf))
	}
}

// TestAlignmentError checks that AlignmentError is nil once synchronized,
// and otherwise reports the sample window and threshold that were searched.
func TestAlignmentError(t *testing.T) {
	buf := make([]uint32, 64) // all-zero: no candidate bitslip ever syncs.
	rx := NewReceiver(buf, 90, 64)

	if err := rx.AlignmentError(); err == nil {
		t.Fatalf("AlignmentError: got nil, want non-nil before Synchronize")
	}

	if rx.Synchronize() {
		t.Fatalf("Synchronize: got true, want false on an all-zero buffer")
	}

	var fail *AlignmentFailure
	err := rx.AlignmentError()
	if !errors.As(err, &fail) {
		t.Fatalf("AlignmentError: got %T, want *AlignmentFailure", err)
	}
	if fail.SampleSize != rx.sampleSize || fail.Threshold != rx.threshold {
		t.Fatalf("AlignmentFailure: got sample=%d threshold=%d, want sample=%d threshold=%d",
			fail.SampleSize, fail.Threshold, rx.sampleSize, rx.threshold)
	}

	buf2 := EncodeFrames(0, dataFrames(64))
	rx.SetBuffer(buf2)
	if !rx.Synchronize() {
		t.Fatalf("Synchronize: got false, want true on a valid buffer")
	}
	if err := rx.AlignmentError(); err != nil {
		t.Fatalf("AlignmentError: got %v, want nil once synchronized", err)
	}
}

func TestNewReceiverDefaults(t *testing.T) {
	buf := EncodeFrames(0, dataFrames(64))

	rx := NewReceiver(buf, 0, 0)
	if rx.sampleSize != defaultSampleSize {
		t.Fatalf("sampleSize: got=%d, want=%d", rx.sampleSize, defaultSampleSize)
	}
	if rx.threshold != (defaultSampleSize*defaultThresholdPct)/100 {
		t.Fatalf("threshold: got=%d, want=%d", rx.threshold, (defaultSampleSize*defaultThresholdPct)/100)
	}
}

// TestProcessDiscardsControl checks that discardControl drops Control
// frames from the packet buffer while still counting them toward the
// frame walk (they are not invalid headers, so they never affect BER).
func TestProcessDiscardsControl(t *testing.T) {
	frames := []Frame{
		{Kind: Data, Payload: 1},
		{Kind: Control, Payload: 2},
		{Kind: Data, Payload: 3},
		{Kind: Control, Payload: 4},
		{Kind: Data, Payload: 5},
	}
	buf := EncodeFrames(0, frames)

	rx := NewReceiver(buf, 90, len(frames))
	rx.ForceBitSlip(0)

	rx.Process(true)
	if got := len(rx.PacketBuffer()); got != 3 {
		t.Fatalf("PacketBuffer with discardControl=true: got=%d frames, want=3", got)
	}
	if got := rx.BER(); got != 0 {
		t.Fatalf("BER: got=%d, want=0", got)
	}

	rx.Process(false)
	if got := len(rx.PacketBuffer()); got != len(frames) {
		t.Fatalf("PacketBuffer with discardControl=false: got=%d frames, want=%d", got, len(frames))
	}
}

// TestProcessFrameZeroUnscrambled checks that frame 0's payload is
// returned as transmitted, never run through Descramble -- there is no
// valid predecessor for it, per spec's design notes.
func TestProcessFrameZeroUnscrambled(t *testing.T) {
	frames := []Frame{
		{Kind: Data, Payload: 0x0123456789ABCDEF},
		{Kind: Data, Payload: 0xFEDCBA9876543210},
	}
	buf := EncodeFrames(0, frames)

	rx := NewReceiver(buf, 90, len(frames))
	rx.ForceBitSlip(0)
	rx.Process(false)

	got := rx.PacketBuffer()
	if len(got) != 2 {
		t.Fatalf("PacketBuffer: got=%d frames, want=2", len(got))
	}
	if got[0].Payload != frames[0].Payload {
		t.Fatalf("frame 0 payload: got=0x%x, want=0x%x (unscrambled)", got[0].Payload, frames[0].Payload)
	}
	if got[1].Payload != frames[1].Payload {
		t.Fatalf("frame 1 payload: got=0x%x, want=0x%x (descrambled back to original)", got[1].Payload, frames[1].Payload)
	}
}
