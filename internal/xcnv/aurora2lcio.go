// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package xcnv converts decoded Aurora/FastIC+ packet streams to other
// on-disk formats.
package xcnv // import "github.com/go-daq/aurora66b/internal/xcnv"

import (
	"fmt"
	"log"

	"go-hep.org/x/hep/lcio"

	"github.com/go-daq/aurora66b/aurora"
	"github.com/go-daq/aurora66b/fastic"
)

// Aurora2LCIO walks the frames already decoded by rx and writes one LCIO
// event per Aurora data frame, packing the FastIC+ event packet fields
// into a generic object. Control and invalid frames are skipped; a run
// header is written ahead of the first event.
func Aurora2LCIO(w *lcio.Writer, rx *aurora.Receiver, run int32, msg *log.Logger) error {
	var (
		raw = &lcio.GenericObject{
			Data: []lcio.GenericObjectData{
				{I32s: nil},
			},
		}
		wroteHeader bool
		n           int
	)

	for i, frame := range rx.PacketBuffer() {
		if frame.Kind != aurora.Data {
			continue
		}

		if n%100 == 0 {
			msg.Printf("processing evt %d...", n)
		}

		if !wroteHeader {
			err := w.WriteRunHeader(&lcio.RunHeader{
				RunNumber: run,
				Detector:  "FastIC+",
				Params: lcio.Params{
					Ints: map[string][]int32{
						"BitSlip": {int32(rx.GetBitSlip())},
						"BER":     {int32(rx.BER())},
					},
				},
			})
			if err != nil {
				return fmt.Errorf("could not write run header: %w", err)
			}
			wroteHeader = true
		}

		evt := lcio.Event{
			RunNumber:   run,
			EventNumber: int32(n),
			Detector:    "FastIC+",
		}
		raw.Data[0].I32s = i32sFrom(i, fastic.NewEventPacket(frame.Payload))
		evt.Add("AURORA_EVT", raw)

		if err := w.WriteEvent(&evt); err != nil {
			return fmt.Errorf("could not write aurora event: %w", err)
		}
		n++
	}

	return nil
}

// i32sFrom packs one FastIC+ event packet into the int32 layout consumed
// downstream: frame index, channel, event type, timestamp, pulse width,
// debug bit, overall parity validity.
func i32sFrom(frameIdx int, ev fastic.EventPacket) []int32 {
	ch, chOK := ev.Channel()
	typ, typOK := ev.Type()
	ts, tsOK := ev.Timestamp()
	pw, pwOK := ev.PulseWidth()

	valid := int32(0)
	if chOK && typOK && tsOK && pwOK && ev.HasValidParity() {
		valid = 1
	}

	debug := int32(0)
	if ev.DebugBit() {
		debug = 1
	}

	return []int32{
		int32(frameIdx),
		int32(ch),
		int32(typ),
		int32(ts),
		int32(pw),
		debug,
		valid,
	}
}
