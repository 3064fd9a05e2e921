// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package fastic decodes the application-layer packet formats produced by
// a FastIC+ front-end ASIC: event packets carried in Aurora data frames,
// and statistics/extension packets carried in Aurora control frames.
//
// Every decoder here is a pure function of the frame payload(s) it is
// given; none of them touch aurora.Receiver state.
package fastic // import "github.com/go-daq/aurora66b/fastic"
