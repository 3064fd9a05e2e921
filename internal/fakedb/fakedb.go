// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package fakedb holds types to fake an in-memory DB, for testing
// auroradb without a real MySQL server.
package fakedb // import "github.com/go-daq/aurora66b/internal/fakedb"

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"io"
	"sync"
)

var query struct {
	mu   sync.Mutex
	rows Rows

	// execMu guards execs separately from mu, which Run holds while f
	// runs, so an Exec issued inside f does not block on it.
	execMu sync.Mutex
	execs  int
}

// Run registers rows as the result of the next query run inside f, then
// runs f.
func Run(ctx context.Context, rows Rows, f func(ctx context.Context) error) error {
	query.mu.Lock()
	defer query.mu.Unlock()
	query.rows = rows

	return f(ctx)
}

// Execs returns the number of Exec/ExecContext calls observed by the fake
// driver since the process started.
func Execs() int {
	query.execMu.Lock()
	defer query.execMu.Unlock()
	return query.execs
}

func init() {
	sql.Register("fakedb", &Driver{})
}

type Driver struct{}

func (drv *Driver) Open(name string) (driver.Conn, error) {
	return &Conn{}, nil
}

type Conn struct{}

func (c *Conn) Prepare(query string) (driver.Stmt, error) {
	return &Stmt{}, nil
}

func (c *Conn) Close() error {
	return nil
}

// Begin starts and returns a new transaction.
//
// Deprecated: Drivers should implement ConnBeginTx instead (or additionally).
func (c *Conn) Begin() (driver.Tx, error) {
	panic("not implemented")
}

type Stmt struct{}

func (stmt *Stmt) Close() error {
	return nil
}

func (stmt *Stmt) NumInput() int {
	return -1
}

// Exec executes a query that doesn't return rows, such as INSERT: every
// call against the fake driver succeeds with a zero-valued Result.
//
// Deprecated: Drivers should implement StmtExecContext instead (or additionally).
func (stmt *Stmt) Exec(args []driver.Value) (driver.Result, error) {
	query.execMu.Lock()
	query.execs++
	query.execMu.Unlock()
	return &Result{}, nil
}

// Query executes a query that may return rows, such as a SELECT.
//
// Deprecated: Drivers should implement StmtQueryContext instead (or additionally).
func (stmt *Stmt) Query(args []driver.Value) (driver.Rows, error) {
	return &query.rows, nil
}

type Result struct{}

func (r *Result) LastInsertId() (int64, error) { return 0, nil }
func (r *Result) RowsAffected() (int64, error) { return 1, nil }

type StmtQueryContext struct{}

func (stmt *StmtQueryContext) QueryContext(ctx context.Context, args []driver.NamedValue) (driver.Rows, error) {
	panic("not implemented")
}

type Rows struct {
	Names  []string
	Values [][]driver.Value
}

func (rows *Rows) Columns() []string {
	return rows.Names
}

func (rows *Rows) Close() error {
	return nil
}

func (rows *Rows) Next(dest []driver.Value) error {
	if len(rows.Values) == 0 {
		return io.EOF
	}
	copy(dest, rows.Values[0])
	rows.Values = rows.Values[1:]
	return nil
}

var (
	_ driver.Driver           = (*Driver)(nil)
	_ driver.Conn             = (*Conn)(nil)
	_ driver.Stmt             = (*Stmt)(nil)
	_ driver.StmtQueryContext = (*StmtQueryContext)(nil)
	_ driver.Rows             = (*Rows)(nil)
	_ driver.Result           = (*Result)(nil)
)
