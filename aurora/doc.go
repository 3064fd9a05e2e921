// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package aurora decodes an Aurora 64b/66b serial link carried over a
// 32-bit-word-aligned buffer: bitslip search, frame extraction and
// self-synchronous descrambling.
//
// The wire unit is a 66-bit frame: a 2-bit sync header (01=data, 10=control)
// followed by a 64-bit payload, scrambled with the self-synchronous
// polynomial x^58 + x^39 + 1. Frames are not aligned to the 32-bit words
// they are stored in; the bitslip search in this package recovers that
// alignment before any frame can be read.
package aurora // import "github.com/go-daq/aurora66b/aurora"
