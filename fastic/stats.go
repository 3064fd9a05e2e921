// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fastic

// StatisticsPacket decodes the drop/error counters a FastIC+ ASIC reports
// across a pair of consecutive Aurora control frames.
type StatisticsPacket struct {
	FifoDrop    uint32
	PWidthDrop  uint32
	DCountDrop  uint32
	TriggerDrop uint32
	PulseError  uint16
}

// NewStatisticsPacket decodes a StatisticsPacket from the descrambled
// payloads of two consecutive control frames, concatenated MSB-first as
// hi||lo into a single 128-bit field per spec §4.E: hi supplies the first
// control frame's payload, lo the second. trigger-drop straddles the
// hi/lo boundary -- its top 4 bits come from hi, its low 16 from lo.
func NewStatisticsPacket(hi, lo uint64) StatisticsPacket {
	return StatisticsPacket{
		FifoDrop:    uint32((hi >> 44) & 0xFFFFF),
		PWidthDrop:  uint32((hi >> 24) & 0xFFFFF),
		DCountDrop:  uint32((hi >> 4) & 0xFFFFF),
		TriggerDrop: uint32((hi&0xF)<<16 | (lo>>48)&0xFFFF),
		PulseError:  uint16((lo >> 32) & 0xFFFF),
	}
}
