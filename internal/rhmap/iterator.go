// graphdb - Persistent Hash Map: iteration
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

import "fmt"

// Iterator walks every live record in a Map. It holds the backing
// region's reference lock for its entire lifetime, so a Set/Erase/grow
// on the same Map from another goroutine blocks until Close — this is
// the reference-lock counter's whole purpose: an in-flight rehash must
// never swap the region out from underneath a live iterator.
type Iterator[K comparable, V any] struct {
	m     *Map[K, V]
	idx   uint64
	done  bool
	mask  uint64
	path  string
}

// Iterate begins a traversal. Callers must call Close exactly once.
func (m *Map[K, V]) Iterate() *Iterator[K, V] {
	if !m.region.RefLock() {
		panic(fmt.Sprintf("rhmap: %s: use of map after its backing region was reclaimed", m.path))
	}
	return &Iterator[K, V]{m: m, mask: m.mask, path: m.path}
}

// Next advances the iterator, returning false once exhausted.
func (it *Iterator[K, V]) Next() (K, V, bool) {
	if it.done {
		var zk K
		var zv V
		return zk, zv, false
	}
	for it.idx <= it.mask {
		idx := it.idx
		it.idx++
		if it.m.infoByte(idx) != 0 {
			return it.m.keyAt(idx), it.m.valAt(idx), true
		}
	}
	it.done = true
	var zk K
	var zv V
	return zk, zv, false
}

// Close releases the reference lock taken by Iterate.
func (it *Iterator[K, V]) Close() {
	if !it.done {
		it.done = true
	}
	it.m.region.RefUnlock()
}

// EOF
