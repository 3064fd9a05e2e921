// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package aurorasrv exposes an Aurora 64b/66b receiver as a tdaq
// component, driven by /configure, /start and /process commands.
package aurorasrv // import "github.com/go-daq/aurora66b/aurorasrv"

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/go-daq/tdaq"
	"golang.org/x/sys/unix"

	"github.com/go-daq/aurora66b/aurora"
	"github.com/go-daq/aurora66b/auroradb"
	"github.com/go-daq/aurora66b/fastic"
	"github.com/go-daq/aurora66b/internal/mmap"
)

// Server wraps an *aurora.Receiver and an *auroradb.DB behind a tdaq
// command surface.
type Server struct {
	RunID      string
	DBName     string
	Pct        int
	SampleSize int

	rx    *aurora.Receiver
	db    *auroradb.DB
	mmh   *mmap.Handle
	nproc int
}

// OnConfigure binds a new raw-word buffer -- an mmap'd capture file when
// req.Body names one, an in-memory buffer otherwise -- and opens the
// persistence layer.
func (srv *Server) OnConfigure(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /configure command...")

	dec := tdaq.NewDecoder(bytes.NewReader(req.Body))
	fname := dec.ReadStr()

	buf, err := srv.bufferFrom(fname)
	if err != nil {
		ctx.Msg.Errorf("could not build raw-word buffer: %+v", err)
		return fmt.Errorf("aurorasrv: could not build raw-word buffer: %w", err)
	}

	if srv.rx == nil {
		srv.rx = aurora.NewReceiver(buf, srv.Pct, srv.SampleSize)
	} else {
		srv.rx.SetBuffer(buf)
	}

	if srv.DBName != "" && srv.db == nil {
		db, err := auroradb.Open(srv.DBName)
		if err != nil {
			ctx.Msg.Errorf("could not open auroradb %q: %+v", srv.DBName, err)
			return fmt.Errorf("aurorasrv: could not open auroradb %q: %w", srv.DBName, err)
		}
		srv.db = db
	}

	return nil
}

// bufferFrom mmaps the named capture file, if non-empty, or returns an
// empty in-memory buffer otherwise.
func (srv *Server) bufferFrom(fname string) ([]uint32, error) {
	if fname == "" {
		return make([]uint32, 0), nil
	}

	f, err := os.OpenFile(fname, os.O_RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("could not open %q: %w", fname, err)
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("could not stat %q: %w", fname, err)
	}
	size := fi.Size()
	if size == 0 || size%4 != 0 {
		return nil, fmt.Errorf("%q size %d is not a positive multiple of 4 bytes", fname, size)
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_PRIVATE)
	if err != nil {
		return nil, fmt.Errorf("could not mmap %q: %w", fname, err)
	}

	if srv.mmh != nil {
		srv.mmh.Close()
	}
	srv.mmh = mmap.HandleFrom(data)

	buf, err := srv.mmh.Words()
	if err != nil {
		return nil, fmt.Errorf("could not read mmap'd %q: %w", fname, err)
	}

	return buf, nil
}

// OnStart searches for the Aurora word alignment on the configured
// buffer. Alignment failure is reported through the response, never a
// panic.
func (srv *Server) OnStart(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /start command...")

	if srv.rx == nil {
		ctx.Msg.Errorf("no buffer configured: call /configure first")
		return fmt.Errorf("aurorasrv: no buffer configured: call /configure first")
	}

	if !srv.rx.Synchronize() {
		err := srv.rx.AlignmentError()
		ctx.Msg.Errorf("could not synchronize: %+v", err)
		return fmt.Errorf("aurorasrv: could not synchronize: %w", err)
	}

	ctx.Msg.Infof("synchronized: bitslip=%d", srv.rx.GetBitSlip())
	return nil
}

// OnProcess decodes the configured buffer's frames and persists every
// event, statistics and extension packet through auroradb, then logs a
// one-line summary.
func (srv *Server) OnProcess(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /process command...")

	if srv.rx == nil || !srv.rx.IsSynchronized() {
		ctx.Msg.Errorf("receiver not synchronized: call /start first")
		return fmt.Errorf("aurorasrv: receiver not synchronized: call /start first")
	}

	srv.rx.Process(false)
	frames := srv.rx.PacketBuffer()

	if srv.db != nil {
		if err := srv.persist(ctx.Ctx, frames); err != nil {
			ctx.Msg.Errorf("could not persist decoded packets: %+v", err)
			return fmt.Errorf("aurorasrv: could not persist decoded packets: %w", err)
		}
	}

	srv.nproc++
	ctx.Msg.Infof("processed %d frames, ber=%d%%", len(frames), srv.rx.BER())
	return nil
}

// OnReset drops the current receiver and persistence handle so the next
// /configure starts clean.
func (srv *Server) OnReset(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /reset command...")
	srv.rx = nil
	if srv.db != nil {
		_ = srv.db.Close()
		srv.db = nil
	}
	if srv.mmh != nil {
		srv.mmh.Close()
		srv.mmh = nil
	}
	return nil
}

// OnStop is a no-op: decoding is one-shot per /process call, there is no
// running acquisition loop to stop.
func (srv *Server) OnStop(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /stop command...")
	return nil
}

// OnQuit closes the persistence layer and any mmap'd capture file.
func (srv *Server) OnQuit(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /quit command...")
	if srv.db != nil {
		_ = srv.db.Close()
	}
	if srv.mmh != nil {
		_ = srv.mmh.Close()
	}
	return nil
}

// persist walks the decoded frame buffer and inserts every application
// packet it carries. Data frames always carry an event packet. Among
// control frames, only the user k-block BTFs carry FastIC+ application
// data -- idle/nfc/ufc/sep/sep7 are link-level housekeeping with nothing
// to persist -- so BTFK0 is treated as a standalone extension packet and
// a BTFK1 frame immediately followed by a second BTFK1 frame is treated
// as one statistics packet. See DESIGN.md's Open Question decisions for
// why these two BTFs were picked.
func (srv *Server) persist(ctx context.Context, frames []aurora.Frame) error {
	for i := 0; i < len(frames); i++ {
		frame := frames[i]
		switch frame.Kind {
		case aurora.Data:
			ev := fastic.NewEventPacket(frame.Payload)
			if err := srv.db.InsertEvent(ctx, srv.RunID, i, ev); err != nil {
				return err
			}
		case aurora.Control:
			btf, _ := frame.BTFValue()
			switch btf {
			case aurora.BTFK0:
				ext := fastic.NewExtensionPacket(frame.Payload)
				if err := srv.db.InsertExtension(ctx, srv.RunID, i, ext); err != nil {
					return err
				}
			case aurora.BTFK1:
				if i+1 >= len(frames) {
					continue
				}
				next := frames[i+1]
				nextBTF, ok := next.BTFValue()
				if !ok || nextBTF != aurora.BTFK1 {
					continue
				}
				st := fastic.NewStatisticsPacket(frame.Payload, next.Payload)
				if err := srv.db.InsertStats(ctx, srv.RunID, i, st); err != nil {
					return err
				}
			}
		}
	}
	return nil
}
