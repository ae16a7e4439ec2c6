// graphdb - Persistent Hash Map
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

import (
	"fmt"
	"log"
	"os"

	"gohdl.dev/graphdb/internal/gcreg"
)

// Map is a persistent, memory-mapped Robin Hood hash table keyed by any
// comparable K with fixed-size values V. Every structural operation
// (Get/Set/Has/Erase/Len) ref-locks the backing gcreg.Region for its
// duration; the region's in-use flag is a single-holder mutex, not a
// rwlock, exactly matching the concurrency model this type is built on.
type Map[K comparable, V any] struct {
	region *gcreg.Region
	path   string

	hash     func(K) uint64
	keyCodec Codec[K]
	valCodec Codec[V]

	lay tableLayout

	mask          uint64
	numElements   uint64
	maxAllowed    uint64
	infoInc       uint32
	infoHashShift uint32
	forceGrow     bool
}

// Open opens the map backed by path, creating it at InitialNumElements
// capacity if it does not already exist.
func Open[K comparable, V any](path string, hash func(K) uint64, keyCodec Codec[K], valCodec Codec[V]) (*Map[K, V], error) {
	if _, err := os.Stat(path); err == nil {
		return openExisting(path, hash, keyCodec, valCodec)
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("rhmap: stat %s: %w", path, err)
	}
	return create[K, V](path, InitialNumElements, hash, keyCodec, valCodec)
}

func create[K comparable, V any](path string, capacity uint64, hash func(K) uint64, keyCodec Codec[K], valCodec Codec[V]) (*Map[K, V], error) {
	recSize := keyCodec.Size + valCodec.Size
	lay := computeLayout(capacity, recSize)

	region, err := gcreg.Mmap(path, lay.totalSize)
	if err != nil {
		return nil, fmt.Errorf("rhmap: create %s: %w", path, err)
	}

	m := &Map[K, V]{
		region:        region,
		path:          path,
		hash:          hash,
		keyCodec:      keyCodec,
		valCodec:      valCodec,
		lay:           lay,
		mask:          capacity - 1,
		maxAllowed:    capacity * maxLoadFactorPercent / 100,
		infoInc:       initialInfoInc,
		infoHashShift: initialInfoHashShift,
	}

	if !region.RefLock() {
		return nil, fmt.Errorf("rhmap: create %s: region unavailable immediately after creation", path)
	}
	m.writeHeaderFields()
	region.RefUnlock()

	return m, nil
}

func openExisting[K comparable, V any](path string, hash func(K) uint64, keyCodec Codec[K], valCodec Codec[V]) (*Map[K, V], error) {
	region, err := gcreg.Open(path)
	if err != nil {
		return nil, fmt.Errorf("rhmap: open %s: %w", path, err)
	}
	if !region.RefLock() {
		return nil, fmt.Errorf("rhmap: open %s: region unavailable", path)
	}
	defer region.RefUnlock()

	buf := region.Bytes()
	if len(buf) < headerSize {
		return nil, fmt.Errorf("rhmap: open %s: truncated header (%d bytes)", path, len(buf))
	}
	h := readHeader(buf)
	capacity := h.mask + 1
	recSize := keyCodec.Size + valCodec.Size
	lay := computeLayout(capacity, recSize)
	if int64(len(buf)) != lay.totalSize {
		return nil, fmt.Errorf("rhmap: open %s: on-disk size %d does not match expected layout %d for this key/value codec",
			path, len(buf), lay.totalSize)
	}

	return &Map[K, V]{
		region:        region,
		path:          path,
		hash:          hash,
		keyCodec:      keyCodec,
		valCodec:      valCodec,
		lay:           lay,
		mask:          h.mask,
		numElements:   h.numElements,
		maxAllowed:    h.maxAllowed,
		infoInc:       h.infoInc,
		infoHashShift: h.infoHashShift,
	}, nil
}

func (m *Map[K, V]) writeHeaderFields() {
	writeHeader(m.region.Bytes(), header{
		mask:          m.mask,
		numElements:   m.numElements,
		maxAllowed:    m.maxAllowed,
		infoInc:       m.infoInc,
		infoHashShift: m.infoHashShift,
	})
}

func (m *Map[K, V]) infoByte(idx uint64) uint8 {
	return m.region.Bytes()[m.lay.infoOff+int(idx)]
}

func (m *Map[K, V]) setInfoByte(idx uint64, v uint8) {
	m.region.Bytes()[m.lay.infoOff+int(idx)] = v
}

func (m *Map[K, V]) recordOff(idx uint64) int {
	return m.lay.recordsOff + int(idx)*m.lay.recordSize
}

func (m *Map[K, V]) keyAt(idx uint64) K {
	off := m.recordOff(idx)
	return m.keyCodec.Decode(m.region.Bytes()[off : off+m.keyCodec.Size])
}

func (m *Map[K, V]) valAt(idx uint64) V {
	off := m.recordOff(idx) + m.keyCodec.Size
	return m.valCodec.Decode(m.region.Bytes()[off : off+m.valCodec.Size])
}

func (m *Map[K, V]) setRecord(idx uint64, key K, val V) {
	off := m.recordOff(idx)
	buf := m.region.Bytes()
	m.keyCodec.Encode(key, buf[off:off+m.keyCodec.Size])
	m.valCodec.Encode(val, buf[off+m.keyCodec.Size:off+m.lay.recordSize])
}

func (m *Map[K, V]) next(idx uint64) uint64 {
	return (idx + 1) & m.mask
}

// find returns the slot index of key, using the Robin Hood early-exit
// rule: once a resident's probe distance is less than the distance the
// sought key would have at this slot, the key cannot be present, since
// insertion always keeps slots ordered by non-decreasing probe distance
// from each key's own home.
func (m *Map[K, V]) find(key K) (uint64, bool) {
	idx, info := keyToIdx(m.hash(key), m.mask, m.infoInc, m.infoHashShift)
	for {
		resident := m.infoByte(idx)
		if resident < info {
			return 0, false
		}
		if resident == info && m.keyAt(idx) == key {
			return idx, true
		}
		info += uint8(m.infoInc)
		idx = m.next(idx)
	}
}

// insert places a key known not to be present yet, displacing residents
// whose probe distance is smaller than the distance the incoming entry
// would have, and continuing to walk the displaced entry forward. This
// is the Robin Hood invariant: no slot is ever farther from its probe
// origin than a slot that could have moved instead.
func (m *Map[K, V]) insert(key K, val V) {
	idx, info := keyToIdx(m.hash(key), m.mask, m.infoInc, m.infoHashShift)
	for {
		resident := m.infoByte(idx)
		if resident == 0 {
			m.setRecord(idx, key, val)
			m.setInfoByte(idx, info)
			m.numElements++
			return
		}
		if resident < info {
			dispKey, dispVal := m.keyAt(idx), m.valAt(idx)
			m.setRecord(idx, key, val)
			m.setInfoByte(idx, info)
			key, val = dispKey, dispVal
			info = resident
		}
		if uint16(info)+uint16(m.infoInc) >= 0xff {
			m.forceGrow = true
		}
		info += uint8(m.infoInc)
		idx = m.next(idx)
	}
}

// eraseAt removes the record at idx and backward-shifts every
// subsequent slot that is not already at its own home (probe distance
// > 0), preserving the Robin Hood ordering invariant without touching
// any entry that doesn't need to move. It reports whether any shift
// happened.
func (m *Map[K, V]) eraseAt(idx uint64) bool {
	next := m.next(idx)
	overflowThreshold := uint8(2 * m.infoInc)
	shifted := false
	for m.infoByte(next) >= overflowThreshold {
		off, noff := m.recordOff(idx), m.recordOff(next)
		copy(m.region.Bytes()[off:off+m.lay.recordSize], m.region.Bytes()[noff:noff+m.lay.recordSize])
		m.setInfoByte(idx, m.infoByte(next)-uint8(m.infoInc))
		idx = next
		next = m.next(next)
		shifted = true
	}
	m.setInfoByte(idx, 0)
	m.numElements--
	return shifted
}

// Get returns the value stored for key, if any.
func (m *Map[K, V]) Get(key K) (V, bool) {
	m.lockOrPanic()
	defer func() { m.region.RefUnlock() }()

	idx, found := m.find(key)
	if !found {
		var zero V
		return zero, false
	}
	return m.valAt(idx), true
}

// Has reports whether key is present.
func (m *Map[K, V]) Has(key K) bool {
	m.lockOrPanic()
	defer func() { m.region.RefUnlock() }()
	_, found := m.find(key)
	return found
}

// Set inserts or overwrites the value stored for key, growing the table
// first if the load factor or a probe-distance overflow demands it.
func (m *Map[K, V]) Set(key K, val V) error {
	m.lockOrPanic()
	defer func() { m.region.RefUnlock() }()

	if idx, found := m.find(key); found {
		m.setRecord(idx, key, val)
		return nil
	}

	if m.numElements >= m.maxAllowed || m.forceGrow {
		if err := m.grow(); err != nil {
			return err
		}
	}
	m.insert(key, val)
	m.writeHeaderFields()
	return nil
}

// Erase removes key, reporting whether it was present.
func (m *Map[K, V]) Erase(key K) bool {
	m.lockOrPanic()
	defer func() { m.region.RefUnlock() }()

	idx, found := m.find(key)
	if !found {
		return false
	}
	m.eraseAt(idx)
	m.writeHeaderFields()
	return true
}

// Find returns an iterator positioned at key's entry, or already
// exhausted if key is absent. It holds the region's reference lock
// until Close, exactly as Iterate does. The first call to Next on the
// returned iterator yields the matched entry itself (not the one after
// it); EraseIterator operates directly on this position without
// requiring a Next call first.
func (m *Map[K, V]) Find(key K) *Iterator[K, V] {
	m.lockOrPanic()
	it := &Iterator[K, V]{m: m, mask: m.mask, path: m.path}
	if idx, found := m.find(key); found {
		it.idx = idx
	} else {
		it.idx = m.mask + 1
		it.done = true
	}
	return it
}

// EraseIterator removes the entry a Find-positioned iterator points at,
// reporting whether removing it triggered a further backward shift
// (spec's erase(it) contract). It must be called before any Next on
// that iterator; afterward the iterator is spent and only Close should
// be called on it.
func (m *Map[K, V]) EraseIterator(it *Iterator[K, V]) (bool, error) {
	if it.m != m {
		return false, fmt.Errorf("rhmap: %s: erase: iterator belongs to a different map", m.path)
	}
	if it.done || it.idx > m.mask {
		return false, fmt.Errorf("rhmap: %s: erase: iterator is not positioned at a live entry", m.path)
	}
	shifted := m.eraseAt(it.idx)
	m.writeHeaderFields()
	it.done = true
	return shifted, nil
}

// Clear empties the map and unlinks its backing file, per the lifecycle
// rule that a map's file is unlinked on clear of an empty map; the
// region stays mapped until the GC registry reclaims it. It refuses if
// an iterator's reference lock is currently outstanding, since spinning
// for it here could deadlock a caller against its own open iterator.
func (m *Map[K, V]) Clear() error {
	if m.region.Locked() {
		return fmt.Errorf("rhmap: %s: clear: a reference lock is held (iterator in progress)", m.path)
	}
	m.lockOrPanic()
	defer func() { m.region.RefUnlock() }()

	capacity := m.mask + 1
	info := m.region.Bytes()[m.lay.infoOff : m.lay.infoOff+int(capacity)+1]
	for i := range info {
		info[i] = 0
	}
	info[capacity] = 1 // sentinel byte past the last slot
	m.numElements = 0
	m.writeHeaderFields()

	if err := gcreg.DeleteFile(m.path); err != nil {
		return fmt.Errorf("rhmap: %s: clear: %w", m.path, err)
	}
	return nil
}

// Reserve pre-grows the table so it can hold at least n entries without
// a rehash forced mid-insert, doubling capacity until maxAllowed meets
// n. A map is created by its first insertion or its first reserve;
// Reserve on a freshly created, still-empty map is exactly that second
// path through the same locked mutation Set uses.
func (m *Map[K, V]) Reserve(n uint64) error {
	m.lockOrPanic()
	defer func() { m.region.RefUnlock() }()

	for m.maxAllowed < n {
		if err := m.rehash(); err != nil {
			return err
		}
	}
	return nil
}

// Len returns the number of live entries.
func (m *Map[K, V]) Len() uint64 {
	m.lockOrPanic()
	defer func() { m.region.RefUnlock() }()
	return m.numElements
}

func (m *Map[K, V]) lockOrPanic() {
	if !m.region.RefLock() {
		panic(fmt.Sprintf("rhmap: %s: use of map after its backing region was reclaimed", m.path))
	}
}

// grow implements spec's two-step growth rule: first try to buy more
// probe-distance headroom in place by halving infoInc (try_increase_info
// in the original), and only double the table's capacity when that no
// longer has room to give.
func (m *Map[K, V]) grow() error {
	if !m.forceGrow && m.tryIncreaseInfo() {
		return nil
	}
	return m.rehash()
}

// tryIncreaseInfo halves the probe-distance step encoded in every info
// byte, which doubles the probe distance an info byte can represent at
// the cost of one hash bit (infoHashShift grows by one), without
// touching the record array at all. It fails once infoInc can't be
// halved any further.
func (m *Map[K, V]) tryIncreaseInfo() bool {
	if m.infoInc <= 1 {
		return false
	}
	info := m.region.Bytes()[m.lay.infoOff : m.lay.infoOff+int(m.mask)+1]
	for i := range info {
		info[i] >>= 1
	}
	m.infoInc >>= 1
	m.infoHashShift++
	return true
}

// rehash doubles the table's capacity in a freshly mmap'd region,
// replays every live record through the ordinary insertion path (safe
// because keys are known distinct), then retires the old region through
// the GC registry and renames the new file over the old path.
func (m *Map[K, V]) rehash() error {
	oldRegion := m.region
	type liveEntry struct {
		key K
		val V
	}
	entries := make([]liveEntry, 0, m.numElements)
	for idx := uint64(0); idx <= m.mask; idx++ {
		if m.infoByte(idx) != 0 {
			entries = append(entries, liveEntry{m.keyAt(idx), m.valAt(idx)})
		}
	}

	newCapacity := (m.mask + 1) * 2
	newLay := computeLayout(newCapacity, m.lay.recordSize)
	newPath := m.path + ".grow"
	newRegion, err := gcreg.Mmap(newPath, newLay.totalSize)
	if err != nil {
		return fmt.Errorf("rhmap: %s: rehash: %w", m.path, err)
	}
	if !newRegion.RefLock() {
		return fmt.Errorf("rhmap: %s: rehash: new region unavailable", m.path)
	}

	m.region = newRegion
	m.lay = newLay
	m.mask = newCapacity - 1
	m.maxAllowed = newCapacity * maxLoadFactorPercent / 100
	m.infoInc = initialInfoInc
	m.infoHashShift = initialInfoHashShift
	m.numElements = 0
	m.forceGrow = false
	m.writeHeaderFields()

	for _, e := range entries {
		m.insert(e.key, e.val)
	}
	m.writeHeaderFields()

	oldRegion.RefUnlock()
	// The superseded file lives at m.path. oldRegion.Path() still reports
	// ".grow" when oldRegion was itself produced by an earlier rehash, and
	// that name now belongs to newRegion.
	if err := ArchiveSupersededFile(m.path); err != nil {
		log.Printf("rhmap: %s: rehash: archiving superseded region: %v", m.path, err)
	}
	if err := gcreg.DeleteFile(m.path); err != nil {
		log.Printf("rhmap: %s: rehash: deleting superseded file: %v", m.path, err)
	}
	if ok, err := oldRegion.Recycle(false); err != nil {
		log.Printf("rhmap: %s: rehash: recycling superseded region: %v", m.path, err)
	} else if !ok {
		log.Printf("rhmap: %s: rehash: superseded region busy, left for a later GC pass", m.path)
	}

	if err := os.Rename(newPath, m.path); err != nil {
		return fmt.Errorf("rhmap: %s: rehash: rename %s: %w", m.path, newPath, err)
	}
	return nil
}

// EOF
