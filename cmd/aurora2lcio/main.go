// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command aurora2lcio converts an Aurora 64b/66b capture file to an LCIO
// one.
package main // import "github.com/go-daq/aurora66b/cmd/aurora2lcio"

import (
	"compress/flate"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"go-hep.org/x/hep/lcio"
	"golang.org/x/sys/unix"

	"github.com/go-daq/aurora66b/aurora"
	"github.com/go-daq/aurora66b/internal/mmap"
	"github.com/go-daq/aurora66b/internal/xcnv"
)

var (
	msg = log.New(os.Stdout, "aurora2lcio: ", 0)
)

func main() {
	var (
		oname      = flag.String("o", "out.lcio", "path to output LCIO file")
		compr      = flag.Int("lvl", flate.DefaultCompression, "compression level for output LCIO file")
		pct        = flag.Int("pct", 90, "alignment-search threshold, in percent")
		sampleSize = flag.Int("samplesize", 64, "alignment-search sample size, in frames")
	)

	flag.Usage = func() {
		fmt.Printf(`Usage: aurora2lcio [OPTIONS] file.aurora

ex:
 $> aurora2lcio -o out.lcio -lvl=9 ./run-001.aurora

options:
`)
		flag.PrintDefaults()
	}

	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		msg.Fatalf("missing input Aurora capture file")
	}

	if *oname == "" {
		flag.Usage()
		msg.Fatalf("invalid output LCIO file name")
	}

	err := process(*oname, *compr, flag.Arg(0), *pct, *sampleSize)
	if err != nil {
		msg.Fatalf("could not convert Aurora capture file: %+v", err)
	}
}

func process(oname string, lvl int, fname string, pct, sampleSize int) error {
	buf, handle, err := readWords(fname)
	if err != nil {
		return fmt.Errorf("could not read %q: %w", fname, err)
	}
	defer handle.Close()

	run, err := runNbrFrom(fname)
	if err != nil {
		return fmt.Errorf("could not infer run from %q: %w", fname, err)
	}

	rx := aurora.NewReceiver(buf, pct, sampleSize)
	if !rx.Synchronize() {
		return fmt.Errorf("could not synchronize on %q: %w", fname, rx.AlignmentError())
	}
	rx.Process(false)

	w, err := lcio.Create(oname)
	if err != nil {
		return fmt.Errorf("could not create output LCIO file: %w", err)
	}
	defer w.Close()

	w.SetCompressionLevel(lvl)

	err = xcnv.Aurora2LCIO(w, rx, run, msg)
	if err != nil {
		return fmt.Errorf("could not convert Aurora to LCIO: %w", err)
	}

	err = w.Close()
	if err != nil {
		return fmt.Errorf("could not close output LCIO file: %w", err)
	}

	return nil
}

func runNbrFrom(fname string) (int32, error) {
	var (
		name = filepath.Base(fname)
		run  int32
		itr  int32
	)
	_, err := fmt.Sscanf(name, "run-%d.%d.aurora", &run, &itr)
	if err != nil {
		// fall back to a single run number with no iteration suffix.
		_, err = fmt.Sscanf(name, "run-%d.aurora", &run)
	}
	return run, err
}

// readWords mmaps fname read-only and reinterprets its bytes as a stream
// of big-endian 32-bit words.
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
	if size%4 != 0 || size == 0 {
		return nil, nil, fmt.Errorf("aurora2lcio: %q size %d is not a positive multiple of 4 bytes", fname, size)
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
