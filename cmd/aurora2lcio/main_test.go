// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"compress/flate"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-daq/aurora66b/aurora"
)

func TestRunNbrFrom(t *testing.T) {
	for _, tc := range []struct {
		fname string
		run   int32
	}{
		{
			fname: "./run-063.000.aurora",
			run:   63,
		},
		{
			fname: "/some/dir/run-663.000.aurora",
			run:   663,
		},
		{
			fname: "../some/dir/run-009.000.aurora",
			run:   9,
		},
		{
			fname: "./run-042.aurora",
			run:   42,
		},
	} {
		t.Run(tc.fname, func(t *testing.T) {
			got, err := runNbrFrom(tc.fname)
			if err != nil {
				t.Fatalf("could not infer run-nbr: %+v", err)
			}
			if got != tc.run {
				t.Fatalf("invalid run: got=%d, want=%d", got, tc.run)
			}
		})
	}
}

func TestProcess(t *testing.T) {
	tmp := t.TempDir()

	frames := []aurora.Frame{
		{Kind: aurora.Data, Payload: 1},
		{Kind: aurora.Data, Payload: 2},
		{Kind: aurora.Data, Payload: 3},
		{Kind: aurora.Data, Payload: 4},
		{Kind: aurora.Data, Payload: 5},
	}
	words := aurora.EncodeFrames(0, frames)
	raw := make([]byte, 4*len(words))
	for i, w := range words {
		binary.BigEndian.PutUint32(raw[4*i:], w)
	}

	fname := filepath.Join(tmp, "run-063.000.aurora")
	if err := os.WriteFile(fname, raw, 0644); err != nil {
		t.Fatalf("could not write fixture: %+v", err)
	}

	err := process(fname+".lcio", flate.DefaultCompression, fname, 90, len(frames))
	if err != nil {
		t.Fatalf("could not convert Aurora file: %+v", err)
	}
}
