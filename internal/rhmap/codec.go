// graphdb - Persistent Hash Map: fixed-size record codecs
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

package rhmap

import "encoding/binary"

// Codec describes how a key or value type is packed into its fixed-size
// slot in the mmap-backed record array. Every value of a given type
// occupies exactly Size bytes; there is no variable-length record
// support, matching the original map's "fixed-size, bit-copyable value"
// requirement.
type Codec[T any] struct {
	Size   int
	Encode func(v T, buf []byte)
	Decode func(buf []byte) T
}

// Uint32Codec packs a uint32 key or value in 4 bytes.
var Uint32Codec = Codec[uint32]{
	Size:   4,
	Encode: func(v uint32, buf []byte) { binary.LittleEndian.PutUint32(buf, v) },
	Decode: func(buf []byte) uint32 { return binary.LittleEndian.Uint32(buf) },
}

// Uint64Codec packs a uint64 key or value in 8 bytes.
var Uint64Codec = Codec[uint64]{
	Size:   8,
	Encode: func(v uint64, buf []byte) { binary.LittleEndian.PutUint64(buf, v) },
	Decode: func(buf []byte) uint64 { return binary.LittleEndian.Uint64(buf) },
}

// FixedBytesCodec packs a fixed-length byte array, for keys such as a
// content digest. Callers needing arbitrary-length strings key the map
// by a hash instead and keep the actual bytes in a side arena.
func FixedBytesCodec(n int) Codec[[]byte] {
	return Codec[[]byte]{
		Size: n,
		Encode: func(v []byte, buf []byte) {
			copy(buf, v)
		},
		Decode: func(buf []byte) []byte {
			out := make([]byte, n)
			copy(out, buf)
			return out
		},
	}
}

// EOF
