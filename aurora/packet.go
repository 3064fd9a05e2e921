// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package aurora

import "fmt"

// Kind identifies the classification of a decoded Frame's sync header.
type Kind uint8

const (
	// Data marks a frame whose sync header was 0b01.
	Data Kind = iota
	// Control marks a frame whose sync header was 0b10.
	Control
	// Invalid marks a frame whose sync header was 0b00 or 0b11
	// (a HeaderError).
	Invalid
)

func (k Kind) String() string {
	switch k {
	case Data:
		return "data"
	case Control:
		return "control"
	case Invalid:
		return "error"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// BTF is the 8-bit Block Type Field carried in bits [63:56] of a control
// frame's payload.
type BTF uint8

// BTF values, per the Aurora 64b/66b control-frame convention.
const (
	BTFIdle BTF = 0x78 // idle, not ready, or clock compensation
	BTFNFC  BTF = 0xAA // native flow control
	BTFUFC  BTF = 0x2D // user flow control
	BTFSep  BTF = 0x1E // separator
	BTFSep7 BTF = 0xE1 // separator 7
	BTFK0   BTF = 0xD2 // user k-block 0
	BTFK1   BTF = 0x99 // user k-block 1
	BTFK2   BTF = 0x55 // user k-block 2
	BTFK3   BTF = 0xB4 // user k-block 3
	BTFK4   BTF = 0xCC // user k-block 4
	BTFK5   BTF = 0x66 // user k-block 5
	BTFK6   BTF = 0x33 // user k-block 6
	BTFK7   BTF = 0x4B // user k-block 7
	BTFK8   BTF = 0x87 // user k-block 8
	BTFRes  BTF = 0xFF // reserved
)

func (b BTF) String() string {
	switch b {
	case BTFIdle:
		return "idle"
	case BTFNFC:
		return "nfc"
	case BTFUFC:
		return "ufc"
	case BTFSep:
		return "sep"
	case BTFSep7:
		return "sep7"
	case BTFK0:
		return "k0"
	case BTFK1:
		return "k1"
	case BTFK2:
		return "k2"
	case BTFK3:
		return "k3"
	case BTFK4:
		return "k4"
	case BTFK5:
		return "k5"
	case BTFK6:
		return "k6"
	case BTFK7:
		return "k7"
	case BTFK8:
		return "k8"
	case BTFRes:
		return "res"
	default:
		return fmt.Sprintf("BTF(0x%02x)", uint8(b))
	}
}

// Frame is one decoded 66-bit unit: a classification and its (for Data and
// Control frames, descrambled) 64-bit payload. It replaces the
// packet/dataPacket/controlPacket inheritance chain of the original
// implementation with a tagged variant, per spec.
type Frame struct {
	Kind    Kind
	Payload uint64
}

// BTFValue returns the Block Type Field carried in a Control frame's payload
// (bits [63:56]). Calling it on a non-Control frame is a programmer error
// and returns a zero value paired with ok=false.
func (f Frame) BTFValue() (BTF, bool) {
	if f.Kind != Control {
		return 0, false
	}
	return BTF(f.Payload >> 56), true
}
