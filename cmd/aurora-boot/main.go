// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command aurora-boot decodes every Aurora capture file in a directory
// concurrently, one worker per file, and writes a one-line summary log
// per file alongside it.
package main // import "github.com/go-daq/aurora66b/cmd/aurora-boot"

import (
	"encoding/binary"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sbinet/pmon"
	"golang.org/x/sync/errgroup"

	"github.com/go-daq/aurora66b/aurora"
)

func main() {
	var (
		dir     = flag.String("dir", ".", "directory of capture files to decode")
		glob    = flag.String("glob", "*.aurora", "glob pattern of capture files")
		pct     = flag.Int("pct", 90, "alignment-search threshold, in percent")
		samples = flag.Int("samplesize", 64, "alignment-search sample size, in frames")
		doMon   = flag.Bool("pmon", false, "enable pmon monitoring of this process")
		freq    = flag.Duration("freq", 1*time.Second, "pmon sampling frequency")
	)

	flag.Parse()

	log.SetPrefix("aurora-boot: ")
	log.SetFlags(0)

	files, err := filepath.Glob(filepath.Join(*dir, *glob))
	if err != nil {
		log.Fatalf("could not glob %q: %+v", *glob, err)
	}
	if len(files) == 0 {
		log.Fatalf("no capture files matching %q in %q", *glob, *dir)
	}

	err = run(files, *pct, *samples, *doMon, *freq)
	if err != nil {
		log.Fatalf("%+v", err)
	}
}

func run(files []string, pct, samples int, doMon bool, freq time.Duration) error {
	if doMon {
		stopMon, err := startSelfMon(filepath.Dir(files[0]), freq)
		if err != nil {
			log.Printf("could not start pmon: %+v", err)
		} else {
			defer stopMon()
		}
	}

	var grp errgroup.Group
	for _, fname := range files {
		fname := fname
		grp.Go(func() error {
			return decodeFile(fname, pct, samples)
		})
	}

	return grp.Wait()
}

func decodeFile(fname string, pct, samples int) error {
	log.Printf("decoding %q...", fname)

	raw, err := os.ReadFile(fname)
	if err != nil {
		return fmt.Errorf("could not read %q: %w", fname, err)
	}
	if len(raw)%4 != 0 {
		return fmt.Errorf("aurora-boot: %q size %d is not a multiple of 4 bytes", fname, len(raw))
	}

	buf := make([]uint32, len(raw)/4)
	for i := range buf {
		buf[i] = binary.BigEndian.Uint32(raw[4*i:])
	}

	rx := aurora.NewReceiver(buf, pct, samples)
	summary := &strings.Builder{}
	if !rx.Synchronize() {
		fmt.Fprintf(summary, "%s: could not synchronize: %+v\n", fname, rx.AlignmentError())
	} else {
		rx.Process(false)
		fmt.Fprintf(summary, "%s: bitslip=%d ber=%d frames=%d\n",
			fname, rx.GetBitSlip(), rx.BER(), len(rx.PacketBuffer()),
		)
	}

	out, err := os.Create(fname + ".log")
	if err != nil {
		return fmt.Errorf("could not create log for %q: %w", fname, err)
	}
	defer out.Close()

	_, err = out.WriteString(summary.String())
	if err != nil {
		return fmt.Errorf("could not write log for %q: %w", fname, err)
	}

	log.Printf("decoding %q... [done]", fname)
	return nil
}

// startSelfMon runs pmon against this process's own PID, the way daq-boot
// monitors its supervised subprocesses -- here there are no subprocesses,
// only decode workers sharing this process, so pmon watches the boot run
// as a whole.
func startSelfMon(dir string, freq time.Duration) (stop func(), err error) {
	p, err := pmon.Monitor(os.Getpid())
	if err != nil {
		return nil, fmt.Errorf("could not start monitoring this process: %w", err)
	}

	f, err := os.Create(filepath.Join(dir, "aurora-boot-pmon.log"))
	if err != nil {
		return nil, fmt.Errorf("could not create pmon log file: %w", err)
	}
	p.W = f
	p.Freq = freq

	go func() {
		log.Printf("run pmon...")
		if err := p.Run(); err != nil {
			log.Printf("could not run pmon: %+v", err)
		}
	}()

	return func() {
		if err := p.Kill(); err != nil {
			log.Printf("could not stop pmon: %+v", err)
		}
		f.Close()
	}, nil
}
