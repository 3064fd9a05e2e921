// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package aurora

// Receiver decodes an Aurora 64b/66b link carried in a caller-owned buffer
// of 32-bit, MSB-first words. It borrows the buffer -- it never copies or
// mutates it -- and holds the alignment and decode-result state described
// in the data model: bitslip, synced, sample parameters, the decoded
// packet buffer and the last BER measurement.
//
// Receiver is not safe for concurrent use: it is single-threaded and
// synchronous by design, like the link layer it decodes.
type Receiver struct {
	buf []uint32

	bitslip uint8
	synced  bool
	failed  bool // the last Synchronize call found no candidate

	sampleSize int
	threshold  int

	packets    []Frame
	berCounter int
}

const defaultSampleSize = 64
const defaultThresholdPct = 90

// NewReceiver constructs a Receiver over buf with the given threshold
// percentage and sample size. pct is clamped to 100; sampleSize is clamped
// to len(buf) if the buffer is smaller than requested. Pass pct<=0 or
// sampleSize<=0 to take the defaults (90%, 64 frames).
func NewReceiver(buf []uint32, pct, sampleSize int) *Receiver {
	if pct <= 0 {
		pct = defaultThresholdPct
	}
	if pct > 100 {
		pct = 100
	}
	if sampleSize <= 0 {
		sampleSize = defaultSampleSize
	}

	rx := &Receiver{}
	rx.SetBuffer(buf)
	if len(buf) <= sampleSize {
		rx.sampleSize = len(buf)
	} else {
		rx.sampleSize = sampleSize
	}
	rx.threshold = (rx.sampleSize * pct) / 100
	return rx
}

// SetBuffer re-points the receiver at a new raw word buffer. It does not
// reset the current bitslip or synced state -- a caller that needs a fresh
// alignment search after swapping buffers must call Synchronize again.
func (rx *Receiver) SetBuffer(buf []uint32) {
	rx.buf = buf
}

// ForceBitSlip forces the receiver's alignment to s, bypassing
// Synchronize. The forced value persists until the next successful
// Synchronize call.
func (rx *Receiver) ForceBitSlip(s uint8) {
	rx.bitslip = s % 64
}

// Synchronize runs the alignment search (component C) over the configured
// sample window. On success it updates the bitslip and marks the receiver
// synced, and returns true. On failure it leaves bitslip and synced
// unchanged and returns false -- the reason is never panicked, but is
// available afterwards from AlignmentError, matching spec: callers decide
// whether to retry.
func (rx *Receiver) Synchronize() bool {
	slip, ok := findBitslip(rx.buf, rx.sampleSize, rx.threshold)
	if !ok {
		rx.failed = true
		return false
	}
	rx.bitslip = slip
	rx.synced = true
	rx.failed = false
	return true
}

// AlignmentError reports why the alignment search is not currently
// satisfied: nil if the last Synchronize call succeeded, otherwise (no
// call yet, or the last call failed) an *AlignmentFailure naming the
// sample window and threshold that no bitslip candidate could satisfy.
func (rx *Receiver) AlignmentError() error {
	if rx.synced && !rx.failed {
		return nil
	}
	return &AlignmentFailure{SampleSize: rx.sampleSize, Threshold: rx.threshold}
}

// IsSynchronized reports whether a Synchronize call has succeeded on this
// receiver; a later failed call does not clear it.
func (rx *Receiver) IsSynchronized() bool {
	return rx.synced
}

// GetBitSlip returns the receiver's current alignment.
func (rx *Receiver) GetBitSlip() uint8 {
	return rx.bitslip
}

// maxFrames returns the maximum number of whole 66-bit frames readable
// from the current buffer at the current bitslip, per the data-model
// invariant in spec: a non-zero slip shifts the grid and the last frame
// may run past the buffer, so one fewer frame is readable.
func (rx *Receiver) maxFrames() int {
	n := (32 * len(rx.buf)) / 66
	if rx.bitslip != 0 && n > 0 {
		n--
	}
	return n
}

// nextFrame reads and classifies frame k (component D). prevRaw is the raw
// (still scrambled) payload of frame k-1, or ignored for k==0: the first
// frame after synchronization has no valid descrambler predecessor, so its
// payload is returned scrambled -- callers must not interpret its
// application-layer fields. See DESIGN.md for the rationale.
func (rx *Receiver) nextFrame(k int, prevRaw uint64) (frame Frame, raw uint64) {
	raw = rawPayload(rx.buf, rx.bitslip, k)

	var kind Kind
	switch syncBits(rx.buf, rx.bitslip, k) {
	case 0b01:
		kind = Data
	case 0b10:
		kind = Control
	default:
		kind = Invalid
	}

	payload := raw
	if k > 0 {
		payload = Descramble(raw, prevRaw)
	}

	return Frame{Kind: kind, Payload: payload}, raw
}

// Process walks the buffer from frame 0 to the maximum readable frame
// count, classifying and descrambling each one (component D), and fills
// the packet buffer (component F). Control frames are dropped from the
// result when discardControl is true. BER is left as the integer
// percentage of frames with an invalid header observed during this call.
func (rx *Receiver) Process(discardControl bool) {
	rx.packets = rx.packets[:0]
	rx.berCounter = 0

	max := rx.maxFrames()

	var prevRaw uint64
	for k := 0; k < max; k++ {
		frame, raw := rx.nextFrame(k, prevRaw)
		prevRaw = raw

		if frame.Kind == Invalid {
			rx.berCounter++
		}
		if discardControl && frame.Kind == Control {
			continue
		}
		rx.packets = append(rx.packets, frame)
	}

	rx.berCounter = (rx.berCounter * 100) / (max + 1)
}

// PacketBuffer returns a read-only view of the packets decoded by the last
// Process call. The returned slice is invalidated by the next call to
// Process or SetBuffer.
func (rx *Receiver) PacketBuffer() []Frame {
	return rx.packets
}

// BER returns the integer percentage of frames with an invalid sync header
// observed during the last Process call.
func (rx *Receiver) BER() int {
	return rx.berCounter
}
