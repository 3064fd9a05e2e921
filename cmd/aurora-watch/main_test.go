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

func TestCheckStalled(t *testing.T) {
	srv := newServer(t.TempDir(), "*.aurora", 0, 5, 90, 64)
	srv.sizes = map[string]int64{"a.aurora": 100}

	srv.checkStalled(map[string]int64{"a.aurora": 100})
	if srv.alerts["a.aurora"] != 1 {
		t.Fatalf("alerts[a.aurora] = %d, want 1", srv.alerts["a.aurora"])
	}

	srv.checkStalled(map[string]int64{"a.aurora": 140})
	if srv.alerts["a.aurora"] != 1 {
		t.Fatalf("alerts[a.aurora] = %d, want 1 (file grew, no new alert)", srv.alerts["a.aurora"])
	}
}

func TestCheckDecodeAlignmentFailure(t *testing.T) {
	dir := t.TempDir()
	fname := filepath.Join(dir, "bad.aurora")
	if err := os.WriteFile(fname, make([]byte, 64), 0644); err != nil {
		t.Fatalf("could not write fixture: %+v", err)
	}

	srv := newServer(dir, "*.aurora", 0, 5, 90, 64)

	for i := 0; i < syncFailAlertThreshold-1; i++ {
		srv.checkDecode(map[string]int64{fname: 64})
		if srv.alerts[fname] != 0 {
			t.Fatalf("alerts[%s] = %d after %d failure(s), want 0 before the threshold is reached", fname, srv.alerts[fname], i+1)
		}
	}

	srv.checkDecode(map[string]int64{fname: 64})
	if srv.alerts[fname] != 1 {
		t.Fatalf("alerts[%s] = %d, want 1 (all-zero buffer never synchronizes, %d consecutive failures)", fname, srv.alerts[fname], syncFailAlertThreshold)
	}
}

func TestCheckDecodeAlignmentRecovers(t *testing.T) {
	dir := t.TempDir()
	fname := filepath.Join(dir, "recovering.aurora")
	if err := os.WriteFile(fname, make([]byte, 64), 0644); err != nil {
		t.Fatalf("could not write fixture: %+v", err)
	}

	srv := newServer(dir, "*.aurora", 0, 5, 90, 64)

	srv.checkDecode(map[string]int64{fname: 64})
	srv.checkDecode(map[string]int64{fname: 64})
	if got, want := srv.syncFails[fname], 2; got != want {
		t.Fatalf("syncFails[%s] = %d, want %d", fname, got, want)
	}

	// 64 frames fill the 64-frame sample window; a shorter stream cannot
	// synchronize, since the sample size is clamped to the buffer's word
	// count (about twice its frame count).
	frames := make([]aurora.Frame, 64)
	for i := range frames {
		frames[i] = aurora.Frame{Kind: aurora.Data, Payload: uint64(i)}
	}
	words := aurora.EncodeFrames(0, frames)
	raw := make([]byte, 4*len(words))
	for i, w := range words {
		binary.BigEndian.PutUint32(raw[4*i:], w)
	}
	if err := os.WriteFile(fname, raw, 0644); err != nil {
		t.Fatalf("could not rewrite fixture: %+v", err)
	}

	srv.checkDecode(map[string]int64{fname: int64(len(raw))})
	if got, want := srv.syncFails[fname], 0; got != want {
		t.Fatalf("syncFails[%s] = %d, want %d (synchronized, counter resets)", fname, got, want)
	}
	if srv.alerts[fname] != 0 {
		t.Fatalf("alerts[%s] = %d, want 0 (recovered before reaching the threshold)", fname, srv.alerts[fname])
	}
}

func TestCheckDecodeHighBER(t *testing.T) {
	frames := make([]aurora.Frame, 100)
	for i := range frames {
		if i >= 5 && i < 13 {
			frames[i] = aurora.Frame{Kind: aurora.Invalid, Payload: uint64(i)}
		} else {
			frames[i] = aurora.Frame{Kind: aurora.Data, Payload: uint64(i)}
		}
	}
	words := aurora.EncodeFrames(0, frames)

	dir := t.TempDir()
	fname := filepath.Join(dir, "noisy.aurora")
	raw := make([]byte, 4*len(words))
	for i, w := range words {
		binary.BigEndian.PutUint32(raw[4*i:], w)
	}
	if err := os.WriteFile(fname, raw, 0644); err != nil {
		t.Fatalf("could not write fixture: %+v", err)
	}

	srv := newServer(dir, "*.aurora", 0, 5, 90, 100)
	srv.checkDecode(map[string]int64{fname: int64(len(raw))})

	if srv.alerts[fname] != 1 {
		t.Fatalf("alerts[%s] = %d, want 1 (BER should exceed the 5%% threshold)", fname, srv.alerts[fname])
	}
}
