// graphdb - Persistent Hash Map: on-disk layout
// Copyright (C) 2026 GraphDB Authors
// Licensed under the GNU Affero General Public License v3 or later.

// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.

// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.

// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

// Package rhmap implements a persistent, memory-mapped, Robin Hood
// open-addressing hash table. It is a line-for-line Go port of the
// "mmap_map" C++ template this repository's map is modeled on: the same
// info-byte probe-distance encoding, the same try-increase-info-before-
// rehash growth strategy, the same backward-shift deletion.
package rhmap

import "encoding/binary"

// On-disk section layout, little-endian throughout:
//
//	[0x00] mask            uint64  capacity-1, capacity is always a power of two
//	[0x08] numElements     uint64  live record count
//	[0x10] maxAllowed      uint64  numElements threshold that triggers growth
//	[0x18] infoInc         uint32  probe-distance step currently encoded in info bytes (padded to 8)
//	[0x20] infoHashShift   uint32  shift applied to the hash's high bits for info (padded to 8)
//	[0x28] info[capacity+1]        one byte per slot, +1 sentinel, 0 means empty
//	[pad to 8 bytes]
//	[...]  records[capacity]       keyCodec.Size+valCodec.Size bytes per slot
const headerSize = 40

const (
	// InitialNumElements is the capacity a freshly created map starts at.
	InitialNumElements = 1024

	initialInfoNumBits   = 5
	initialInfoInc       = 1 << initialInfoNumBits // 32
	initialInfoHashShift  = 64 - initialInfoNumBits // 59, hash is a uint64
	maxLoadFactorPercent = 80
)

type header struct {
	mask          uint64
	numElements   uint64
	maxAllowed    uint64
	infoInc       uint32
	infoHashShift uint32
}

func readHeader(buf []byte) header {
	return header{
		mask:          binary.LittleEndian.Uint64(buf[0:8]),
		numElements:   binary.LittleEndian.Uint64(buf[8:16]),
		maxAllowed:    binary.LittleEndian.Uint64(buf[16:24]),
		infoInc:       binary.LittleEndian.Uint32(buf[24:28]),
		infoHashShift: binary.LittleEndian.Uint32(buf[32:36]),
	}
}

func writeHeader(buf []byte, h header) {
	binary.LittleEndian.PutUint64(buf[0:8], h.mask)
	binary.LittleEndian.PutUint64(buf[8:16], h.numElements)
	binary.LittleEndian.PutUint64(buf[16:24], h.maxAllowed)
	binary.LittleEndian.PutUint32(buf[24:28], h.infoInc)
	binary.LittleEndian.PutUint32(buf[32:36], h.infoHashShift)
}

// tableLayout pins down the byte offsets of the info array and the
// record array for one particular (capacity, recordSize) pair. It is
// recomputed whenever a map is opened or grown; nothing about it is
// persisted directly, it is derived entirely from the header fields
// and the caller-supplied codecs.
type tableLayout struct {
	capacity   uint64
	recordSize int
	infoOff    int
	recordsOff int
	totalSize  int64
}

func computeLayout(capacity uint64, recordSize int) tableLayout {
	infoOff := headerSize
	infoLen := int(capacity) + 1 // +1 sentinel slot
	recordsOff := infoOff + infoLen
	if rem := recordsOff % 8; rem != 0 {
		recordsOff += 8 - rem
	}
	total := int64(recordsOff) + int64(capacity)*int64(recordSize)
	return tableLayout{
		capacity:   capacity,
		recordSize: recordSize,
		infoOff:    infoOff,
		recordsOff: recordsOff,
		totalSize:  total,
	}
}

// EOF
