// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// aurora-dump decodes and displays an Aurora 64b/66b capture file.
//
// Usage: aurora-dump [OPTIONS] FILE1 [FILE2 [FILE3 ...]]
//
// Example:
//
//  $> aurora-dump -pct=90 -samplesize=64 ./testdata/run-001.aurora
//  === ./testdata/run-001.aurora: bitslip=3 ber=0 ===
//  frame[   0] data    payload=0000000000000000  ch=CH0(true) type=ToA+nonlinear-ToT(true) ts=0x000000(true) pw=0x0000(true) parity=true
//  frame[   1] data    payload=35555557ffcf0000  ch=CH3(true) type=ToA-only(true) ts=0x155555(true) pw=0x1fff(true) parity=true
//  frame[   2] control btf=idle
//  [...]
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/go-daq/aurora66b/aurora"
	"github.com/go-daq/aurora66b/fastic"
	"github.com/go-daq/aurora66b/internal/mmap"
	"golang.org/x/sys/unix"
)

func main() {
	log.SetPrefix("aurora-dump: ")
	log.SetFlags(0)

	pct := flag.Int("pct", 90, "alignment-search threshold, in percent")
	sampleSize := flag.Int("samplesize", 64, "alignment-search sample size, in frames")
	discardControl := flag.Bool("discard-control", false, "drop control frames from the dump")

	flag.Usage = func() {
		fmt.Printf(`aurora-dump decodes and displays an Aurora 64b/66b capture file.

Usage: aurora-dump [OPTIONS] FILE1 [FILE2 [FILE3 ...]]

`)
		flag.PrintDefaults()
	}

	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		log.Fatalf("missing path to input capture file")
	}

	for _, fname := range flag.Args() {
		err := process(os.Stdout, fname, *pct, *sampleSize, *discardControl)
		if err != nil {
			log.Fatalf("could not dump file %q: %+v", fname, err)
		}
	}
}

func process(w io.Writer, fname string, pct, sampleSize int, discardControl bool) error {
	buf, handle, err := readWords(fname)
	if err != nil {
		return fmt.Errorf("could not read %q: %w", fname, err)
	}
	defer handle.Close()

	rx := aurora.NewReceiver(buf, pct, sampleSize)
	if !rx.Synchronize() {
		return fmt.Errorf("could not synchronize on %q: %w", fname, rx.AlignmentError())
	}
	rx.Process(discardControl)

	fmt.Fprintf(w, "=== %s: bitslip=%d ber=%d ===\n", fname, rx.GetBitSlip(), rx.BER())
	for i, frame := range rx.PacketBuffer() {
		printFrame(w, i, frame)
	}

	return nil
}

func printFrame(w io.Writer, i int, frame aurora.Frame) {
	switch frame.Kind {
	case aurora.Control:
		btf, _ := frame.BTFValue()
		fmt.Fprintf(w, "frame[%4d] control btf=%v\n", i, btf)
	case aurora.Invalid:
		fmt.Fprintf(w, "frame[%4d] error   payload=%016x\n", i, frame.Payload)
	default:
		ev := fastic.NewEventPacket(frame.Payload)
		ch, chOK := ev.Channel()
		typ, typOK := ev.Type()
		ts, tsOK := ev.Timestamp()
		pw, pwOK := ev.PulseWidth()
		fmt.Fprintf(w, "frame[%4d] data    payload=%016x  ch=%v(%v) type=%v(%v) ts=0x%06x(%v) pw=0x%04x(%v) parity=%v\n",
			i, frame.Payload, ch, chOK, typ, typOK, ts, tsOK, pw, pwOK, ev.HasValidParity(),
		)
	}
}

// readWords mmaps fname read-only and reinterprets its bytes as a stream
// of big-endian 32-bit words, per the buffer contract in spec §6. The
// caller must Close the returned handle once done with buf.
func readWords(fname string) (buf []uint32, handle *mmap.Handle, err error) {
	f, err := os.Open(fname)
	if err != nil {
		return nil, nil, fmt.Errorf("could not open %q: %w", fname, err)
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, nil, fmt.Errorf("could not stat %q: %w", fname, err)
	}
	size := fi.Size()
	if size%4 != 0 {
		return nil, nil, fmt.Errorf("aurora-dump: %q size %d is not a multiple of 4 bytes", fname, size)
	}
	if size == 0 {
		return nil, nil, fmt.Errorf("aurora-dump: %q is empty", fname)
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_PRIVATE)
	if err != nil {
		return nil, nil, fmt.Errorf("could not mmap %q: %w", fname, err)
	}
	handle = mmap.HandleFrom(data)

	buf, err = handle.Words()
	if err != nil {
		handle.Close()
		return nil, nil, fmt.Errorf("could not read mmap'd %q: %w", fname, err)
	}

	return buf, handle, nil
}
