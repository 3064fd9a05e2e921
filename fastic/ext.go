// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fastic

// ExtensionPacket decodes the coarse-counter extension a FastIC+ ASIC
// reports in a single Aurora control frame. Only the top 48 bits of the
// 64-bit payload are significant; the low 16 bits are unused by this
// packet.
type ExtensionPacket struct {
	PacketCount   uint32
	CoarseCounter uint32
	Reset         bool
}

// NewExtensionPacket decodes an ExtensionPacket from the descrambled
// payload of a single control frame.
func NewExtensionPacket(raw uint64) ExtensionPacket {
	return ExtensionPacket{
		PacketCount:   uint32((raw >> 41) & 0x7FFFFF),
		CoarseCounter: uint32((raw >> 17) & 0xFFFFFF),
		Reset:         (raw>>16)&1 == 1,
	}
}
