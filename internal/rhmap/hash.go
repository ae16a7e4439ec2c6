// graphdb - Persistent Hash Map: hashing
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

import "hash/fnv"

// badHashPrevention is the same trick the original map applies before
// masking a caller-supplied hash down to a home slot: a caller whose hash
// function degenerates to, say, the identity function on small integers
// still gets its bits spread out across the table instead of clustering
// every key in the low-order slots.
const badHashPrevention = 0x9e3779b97f4a7c15

// keyToIdx derives a home slot and an info byte from a raw 64-bit hash,
// mirroring the original's keyToIdx: scramble first, mask for the slot,
// and take the unmasked high bits (shifted down) as the probe-distance
// base so two keys with the same home slot still get distinguishable
// info bytes for as long as infoHashShift allows.
func keyToIdx(h uint64, mask uint64, infoInc uint32, infoHashShift uint32) (idx uint64, info uint8) {
	scrambled := h * badHashPrevention
	idx = scrambled & mask
	info = uint8(infoInc + uint32(scrambled>>infoHashShift))
	return idx, info
}

// HashUint32 is the default hash for uint32 keys.
func HashUint32(v uint32) uint64 {
	x := uint64(v)
	x ^= x >> 33
	x *= 0xff51afd7ed558ccd
	x ^= x >> 33
	return x
}

// HashUint64 is the default hash for uint64 keys (splitmix64 finalizer).
func HashUint64(v uint64) uint64 {
	x := v
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}

// HashBytes is the default hash for variable-length byte keys, used by
// the string interning arena over the content of each interned string.
func HashBytes(b []byte) uint64 {
	h := fnv.New64a()
	h.Write(b) //nolint:errcheck // fnv.Write never errors
	return h.Sum64()
}

// HashString is HashBytes over the bytes of s.
func HashString(s string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(s)) //nolint:errcheck
	return h.Sum64()
}

// EOF
