// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-daq/aurora66b/aurora"
)

func TestDecodeFile(t *testing.T) {
	frames := []aurora.Frame{
		{Kind: aurora.Data, Payload: 1},
		{Kind: aurora.Data, Payload: 2},
		{Kind: aurora.Control, Payload: uint64(aurora.BTFIdle) << 56},
		{Kind: aurora.Data, Payload: 3},
		{Kind: aurora.Data, Payload: 4},
		{Kind: aurora.Data, Payload: 5},
	}
	words := aurora.EncodeFrames(0, frames)

	dir := t.TempDir()
	fname := filepath.Join(dir, "run.aurora")
	raw := make([]byte, 4*len(words))
	for i, w := range words {
		binary.BigEndian.PutUint32(raw[4*i:], w)
	}
	if err := os.WriteFile(fname, raw, 0644); err != nil {
		t.Fatalf("could not write fixture: %+v", err)
	}

	if err := decodeFile(fname, 90, len(frames)); err != nil {
		t.Fatalf("decodeFile: %+v", err)
	}

	log, err := os.ReadFile(fname + ".log")
	if err != nil {
		t.Fatalf("could not read log: %+v", err)
	}
	if got := string(log); got == "" {
		t.Fatalf("decodeFile: empty log")
	}
}

func TestRunAllFiles(t *testing.T) {
	dir := t.TempDir()
	frames := aurora.EncodeFrames(0, []aurora.Frame{
		{Kind: aurora.Data, Payload: 1},
		{Kind: aurora.Data, Payload: 2},
		{Kind: aurora.Data, Payload: 3},
		{Kind: aurora.Data, Payload: 4},
		{Kind: aurora.Data, Payload: 5},
	})
	raw := make([]byte, 4*len(frames))
	for i, w := range frames {
		binary.BigEndian.PutUint32(raw[4*i:], w)
	}

	var files []string
	for _, name := range []string{"a.aurora", "b.aurora"} {
		fname := filepath.Join(dir, name)
		if err := os.WriteFile(fname, raw, 0644); err != nil {
			t.Fatalf("could not write fixture: %+v", err)
		}
		files = append(files, fname)
	}

	if err := run(files, 90, 5, false, 0); err != nil {
		t.Fatalf("run: %+v", err)
	}

	for _, fname := range files {
		if _, err := os.Stat(fname + ".log"); err != nil {
			t.Fatalf("missing log for %q: %+v", fname, err)
		}
	}
}
