// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package auroradb persists decoded Aurora/FastIC+ packets and bit-error
// rate history to a MySQL database.
package auroradb // import "github.com/go-daq/aurora66b/auroradb"

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/go-daq/aurora66b/fastic"
	"github.com/go-daq/aurora66b/internal/crc16"
)

const (
	host = "localhost"
)

var (
	usr = "username"
	pwd = "s3cr3t"

	// DriverName is the database/sql driver used by Open. Tests outside
	// this package override it to "fakedb" to exercise auroradb without
	// a real MySQL server.
	DriverName = "mysql"
)

// DB exposes convenience methods to persist decoded Aurora/FastIC+ packets
// and to retrieve bit-error-rate history.
type DB struct {
	db   *sql.DB
	name string
}

// Open opens a connection to the aurora database dbname.
func Open(dbname string) (*DB, error) {
	db, err := sql.Open(DriverName, dsn(dbname))
	if err != nil {
		return nil, fmt.Errorf("auroradb: could not open %q db: %w", dbname, err)
	}

	err = ping(db, dbname)
	if err != nil {
		return nil, fmt.Errorf("auroradb: could not ping %q db: %w", dbname, err)
	}

	return &DB{db: db, name: dbname}, nil
}

func dsn(db string) string {
	return fmt.Sprintf("%s:%s@tcp(%s)/%s", usr, pwd, host, db)
}

func ping(db *sql.DB, dbname string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := db.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("auroradb: could not ping %q db: %w", dbname, err)
	}
	return nil
}

func (db *DB) Close() error {
	return db.db.Close()
}

func (db *DB) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return db.db.QueryContext(ctx, query, args...)
}

// contentHash returns a CRC-16/CCITT-FALSE digest of buf, used as an
// idempotency key so re-ingesting the same capture file twice does not
// duplicate rows.
func contentHash(buf []byte) uint16 {
	h := crc16.New(nil)
	_, _ = h.Write(buf)
	return h.Sum16()
}

// InsertEvent persists one FastIC+ event packet decoded from run runID,
// frame frameIdx. It is idempotent: a row with the same (run, frame, hash)
// is not duplicated.
func (db *DB) InsertEvent(ctx context.Context, runID string, frameIdx int, ev fastic.EventPacket) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	ch, chOK := ev.Channel()
	typ, typOK := ev.Type()
	ts, tsOK := ev.Timestamp()
	pw, pwOK := ev.PulseWidth()

	hash := contentHash(eventBytes(ch, typ, ts, pw))

	_, err := db.db.ExecContext(ctx, `
INSERT INTO aurora_events
	(run, frame, channel, type, timestamp, pulsewidth, debug, parity_ok, hash)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE hash=hash
`,
		runID, frameIdx, uint8(ch), uint8(typ), ts, pw, ev.DebugBit(),
		chOK && typOK && tsOK && pwOK && ev.HasValidParity(), hash,
	)
	if err != nil {
		return fmt.Errorf("auroradb: could not insert event (run=%q, frame=%d): %w", runID, frameIdx, err)
	}
	return nil
}

// InsertStats persists a statistics packet decoded from run runID,
// starting at control frame pairIdx.
func (db *DB) InsertStats(ctx context.Context, runID string, pairIdx int, st fastic.StatisticsPacket) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := db.db.ExecContext(ctx, `
INSERT INTO aurora_stats
	(run, frame_pair, fifo_drop, pwidth_drop, dcount_drop, trigger_drop, pulse_error)
VALUES (?, ?, ?, ?, ?, ?, ?)
`,
		runID, pairIdx, st.FifoDrop, st.PWidthDrop, st.DCountDrop, st.TriggerDrop, st.PulseError,
	)
	if err != nil {
		return fmt.Errorf("auroradb: could not insert stats (run=%q, pair=%d): %w", runID, pairIdx, err)
	}
	return nil
}

// InsertExtension persists an extension packet decoded from run runID,
// control frame frameIdx.
func (db *DB) InsertExtension(ctx context.Context, runID string, frameIdx int, ext fastic.ExtensionPacket) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := db.db.ExecContext(ctx, `
INSERT INTO aurora_ext
	(run, frame, packet_count, coarse_counter, reset_flag)
VALUES (?, ?, ?, ?, ?)
`,
		runID, frameIdx, ext.PacketCount, ext.CoarseCounter, ext.Reset,
	)
	if err != nil {
		return fmt.Errorf("auroradb: could not insert extension (run=%q, frame=%d): %w", runID, frameIdx, err)
	}
	return nil
}

// InsertBER records one bit-error-rate sample for run runID.
func (db *DB) InsertBER(ctx context.Context, runID string, ber int, observedAt time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := db.db.ExecContext(ctx, `
INSERT INTO aurora_ber (run, ber, observed_at) VALUES (?, ?, ?)
`,
		runID, ber, observedAt,
	)
	if err != nil {
		return fmt.Errorf("auroradb: could not insert BER sample (run=%q): %w", runID, err)
	}
	return nil
}

// BERSample is one row of a run's bit-error-rate history.
type BERSample struct {
	BER        int
	ObservedAt time.Time
}

// BERHistory returns the bit-error-rate history recorded for run runID,
// ordered by observation time.
func (db *DB) BERHistory(ctx context.Context, runID string) ([]BERSample, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := db.db.QueryContext(ctx,
		"SELECT ber, observed_at FROM aurora_ber WHERE run=? ORDER BY observed_at", runID,
	)
	if err != nil {
		return nil, fmt.Errorf("auroradb: could not query BER history (run=%q): %w", runID, err)
	}
	defer rows.Close()

	var out []BERSample
	for rows.Next() {
		var s BERSample
		if err := rows.Scan(&s.BER, &s.ObservedAt); err != nil {
			return out, fmt.Errorf("auroradb: could not scan BER history row: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return out, fmt.Errorf("auroradb: could not scan BER history (run=%q): %w", runID, err)
	}
	if err := ctx.Err(); err != nil {
		return out, fmt.Errorf("auroradb: context error while retrieving BER history: %w", err)
	}

	return out, nil
}

func eventBytes(ch fastic.Channel, typ fastic.EventType, ts uint32, pw uint16) []byte {
	buf := make([]byte, 8)
	buf[0] = uint8(ch)
	buf[1] = uint8(typ)
	binary.BigEndian.PutUint32(buf[2:6], ts)
	binary.BigEndian.PutUint16(buf[6:8], pw)
	return buf
}
