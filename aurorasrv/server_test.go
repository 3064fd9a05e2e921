// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package aurorasrv

import (
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-daq/aurora66b/aurora"
	"github.com/go-daq/aurora66b/auroradb"
	"github.com/go-daq/aurora66b/internal/fakedb"
)

func init() {
	auroradb.DriverName = "fakedb"
}

func writeFixture(t *testing.T, frames []aurora.Frame) string {
	t.Helper()
	words := aurora.EncodeFrames(0, frames)
	raw := make([]byte, 4*len(words))
	for i, w := range words {
		binary.BigEndian.PutUint32(raw[4*i:], w)
	}
	fname := filepath.Join(t.TempDir(), "run.aurora")
	if err := os.WriteFile(fname, raw, 0644); err != nil {
		t.Fatalf("could not write fixture: %+v", err)
	}
	return fname
}

func TestBufferFromMmapsFile(t *testing.T) {
	frames := []aurora.Frame{
		{Kind: aurora.Data, Payload: 1},
		{Kind: aurora.Data, Payload: 2},
		{Kind: aurora.Data, Payload: 3},
		{Kind: aurora.Data, Payload: 4},
		{Kind: aurora.Data, Payload: 5},
	}
	fname := writeFixture(t, frames)

	srv := &Server{}
	buf, err := srv.bufferFrom(fname)
	if err != nil {
		t.Fatalf("bufferFrom: %+v", err)
	}
	if len(buf) == 0 {
		t.Fatalf("bufferFrom: empty buffer")
	}
	defer srv.mmh.Close()
}

func TestBufferFromEmptyNameIsInMemory(t *testing.T) {
	srv := &Server{}
	buf, err := srv.bufferFrom("")
	if err != nil {
		t.Fatalf("bufferFrom: %+v", err)
	}
	if len(buf) != 0 {
		t.Fatalf("bufferFrom(\"\") = %v, want empty", buf)
	}
}

func TestConfigureStartProcess(t *testing.T) {
	frames := []aurora.Frame{
		{Kind: aurora.Data, Payload: 1},
		{Kind: aurora.Data, Payload: 2},
		{Kind: aurora.Data, Payload: 3},
		{Kind: aurora.Data, Payload: 4},
		{Kind: aurora.Data, Payload: 5},
	}
	fname := writeFixture(t, frames)

	srv := &Server{Pct: 90, SampleSize: len(frames)}
	buf, err := srv.bufferFrom(fname)
	if err != nil {
		t.Fatalf("bufferFrom: %+v", err)
	}
	defer srv.mmh.Close()

	srv.rx = aurora.NewReceiver(buf, srv.Pct, srv.SampleSize)
	if !srv.rx.Synchronize() {
		t.Fatalf("could not synchronize")
	}
	srv.rx.Process(false)

	if !srv.rx.IsSynchronized() {
		t.Fatalf("receiver lost synchronization after Process")
	}
	if got, want := len(srv.rx.PacketBuffer()), len(frames); got != want {
		t.Fatalf("PacketBuffer: got %d frames, want %d", got, want)
	}
}

// TestPersistBTFGating checks that persist only turns link-level control
// frames (idle, here) into nothing, a lone BTFK0 frame into an extension
// packet, and a BTFK1/BTFK1 pair into one statistics packet -- not every
// control frame or every adjacent control-frame pair.
func TestPersistBTFGating(t *testing.T) {
	db, err := auroradb.Open("fakedb")
	if err != nil {
		t.Fatalf("could not open auroradb: %+v", err)
	}
	defer db.Close()

	srv := &Server{RunID: "run-001", db: db}

	frames := []aurora.Frame{
		{Kind: aurora.Data, Payload: 0x35555557ffcf0000},
		{Kind: aurora.Control, Payload: uint64(aurora.BTFK0) << 56},
		{Kind: aurora.Control, Payload: uint64(aurora.BTFIdle) << 56},
		{Kind: aurora.Control, Payload: uint64(aurora.BTFK1) << 56},
		{Kind: aurora.Control, Payload: uint64(aurora.BTFK1)<<56 | 1},
	}

	before := fakedb.Execs()
	err = fakedb.Run(context.Background(), fakedb.Rows{}, func(ctx context.Context) error {
		return srv.persist(ctx, frames)
	})
	if err != nil {
		t.Fatalf("persist: %+v", err)
	}

	if got, want := fakedb.Execs()-before, 3; got != want {
		t.Fatalf("Execs: got %d inserts, want %d (event + extension + stats, idle skipped)", got, want)
	}
}
