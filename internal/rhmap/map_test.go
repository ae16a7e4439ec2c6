// graphdb - Persistent Hash Map - tests
// Copyright (C) 2026 GraphDB Authors
// Licensed under the GNU Affero General Public License v3 or later.

package rhmap

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

func newUint32Map(t *testing.T) *Map[uint32, uint32] {
	t.Helper()
	path := filepath.Join(t.TempDir(), "map.db")
	m, err := Open[uint32, uint32](path, HashUint32, Uint32Codec, Uint32Codec)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return m
}

func TestEmptyMap(t *testing.T) {
	m := newUint32Map(t)
	if got := m.Len(); got != 0 {
		t.Fatalf("Len() = %d, want 0", got)
	}
	if _, found := m.Get(42); found {
		t.Fatalf("Get on empty map found a value")
	}
	if m.Has(0) {
		t.Fatalf("Has(0) on empty map returned true")
	}
}

func TestSetGetTwoKeys(t *testing.T) {
	m := newUint32Map(t)
	if err := m.Set(1, 100); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := m.Set(2, 200); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if v, found := m.Get(1); !found || v != 100 {
		t.Fatalf("Get(1) = %v, %v, want 100, true", v, found)
	}
	if v, found := m.Get(2); !found || v != 200 {
		t.Fatalf("Get(2) = %v, %v, want 200, true", v, found)
	}
	if err := m.Set(1, 999); err != nil {
		t.Fatalf("Set overwrite: %v", err)
	}
	if v, found := m.Get(1); !found || v != 999 {
		t.Fatalf("Get(1) after overwrite = %v, %v, want 999, true", v, found)
	}
	if m.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", m.Len())
	}
}

func TestInsertLookupManyKeys(t *testing.T) {
	m := newUint32Map(t)
	const n = 5000
	for i := uint32(0); i < n; i++ {
		if err := m.Set(i, i*7+1); err != nil {
			t.Fatalf("Set(%d): %v", i, err)
		}
	}
	if got := m.Len(); got != n {
		t.Fatalf("Len() = %d, want %d", got, n)
	}
	for i := uint32(0); i < n; i++ {
		v, found := m.Get(i)
		if !found {
			t.Fatalf("Get(%d): not found", i)
		}
		if v != i*7+1 {
			t.Fatalf("Get(%d) = %d, want %d", i, v, i*7+1)
		}
	}
}

func TestInsertEraseManyKeys(t *testing.T) {
	m := newUint32Map(t)
	const n = 5000
	for i := uint32(0); i < n; i++ {
		if err := m.Set(i, i); err != nil {
			t.Fatalf("Set(%d): %v", i, err)
		}
	}
	for i := uint32(0); i < n; i += 2 {
		if !m.Erase(i) {
			t.Fatalf("Erase(%d): expected true", i)
		}
	}
	if got, want := m.Len(), uint64(n/2); got != want {
		t.Fatalf("Len() = %d, want %d", got, want)
	}
	for i := uint32(0); i < n; i++ {
		_, found := m.Get(i)
		want := i%2 == 1
		if found != want {
			t.Fatalf("Get(%d) found=%v, want %v", i, found, want)
		}
	}
	// Erasing an already-erased key reports false, not a second removal.
	if m.Erase(0) {
		t.Fatalf("Erase(0) twice: expected false the second time")
	}
}

func TestPersistenceRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "map.db")

	m, err := Open[uint32, uint32](path, HashUint32, Uint32Codec, Uint32Codec)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	const n = 2000
	for i := uint32(0); i < n; i++ {
		if err := m.Set(i, i*3); err != nil {
			t.Fatalf("Set(%d): %v", i, err)
		}
	}

	reopened, err := Open[uint32, uint32](path, HashUint32, Uint32Codec, Uint32Codec)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if got := reopened.Len(); got != n {
		t.Fatalf("reopened Len() = %d, want %d", got, n)
	}
	for i := uint32(0); i < n; i++ {
		v, found := reopened.Get(i)
		if !found || v != i*3 {
			t.Fatalf("reopened Get(%d) = %v, %v, want %d, true", i, v, found, i*3)
		}
	}
}

func TestIterateVisitsEveryLiveEntry(t *testing.T) {
	m := newUint32Map(t)
	const n = 300
	want := make(map[uint32]uint32, n)
	for i := uint32(0); i < n; i++ {
		if err := m.Set(i, i+1); err != nil {
			t.Fatalf("Set(%d): %v", i, err)
		}
		want[i] = i + 1
	}

	it := m.Iterate()
	got := make(map[uint32]uint32, n)
	for {
		k, v, ok := it.Next()
		if !ok {
			break
		}
		got[k] = v
	}
	it.Close()

	if len(got) != len(want) {
		t.Fatalf("iterate visited %d entries, want %d", len(got), len(want))
	}
	for k, v := range want {
		if got[k] != v {
			t.Fatalf("iterate entry %d = %d, want %d", k, got[k], v)
		}
	}
}

func TestGrowthAcrossManyDistinctKeys(t *testing.T) {
	m := newUint32Map(t)
	const n = InitialNumElements * 8
	for i := uint32(0); i < n; i++ {
		if err := m.Set(i, i); err != nil {
			t.Fatalf("Set(%d): %v", i, err)
		}
	}
	if got := m.Len(); got != n {
		t.Fatalf("Len() = %d, want %d", got, n)
	}
	for i := uint32(0); i < n; i++ {
		if v, found := m.Get(i); !found || v != i {
			t.Fatalf("Get(%d) = %v, %v", i, v, found)
		}
	}
}

func TestStringKeyedMap(t *testing.T) {
	path := filepath.Join(t.TempDir(), "strmap.db")
	m, err := Open[uint64, uint64](path, HashUint64, Uint64Codec, Uint64Codec)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	for i := 0; i < 200; i++ {
		s := fmt.Sprintf("key-%d", i)
		h := HashString(s)
		if err := m.Set(h, uint64(i)); err != nil {
			t.Fatalf("Set: %v", err)
		}
	}
	for i := 0; i < 200; i++ {
		s := fmt.Sprintf("key-%d", i)
		h := HashString(s)
		v, found := m.Get(h)
		if !found || v != uint64(i) {
			t.Fatalf("Get(%q) = %v, %v, want %d, true", s, v, found, i)
		}
	}
}

func TestFindAndEraseIterator(t *testing.T) {
	m := newUint32Map(t)
	for i := uint32(0); i < 10; i++ {
		if err := m.Set(i, i*10); err != nil {
			t.Fatalf("Set(%d): %v", i, err)
		}
	}

	it := m.Find(5)
	k, v, ok := it.Next()
	if !ok || k != 5 || v != 50 {
		t.Fatalf("Find(5) then Next() = %d, %d, %v, want 5, 50, true", k, v, ok)
	}
	// The iterator is exhausted after yielding the single matched entry.
	if _, _, ok := it.Next(); ok {
		t.Fatalf("Find(5) iterator yielded a second entry")
	}
	it.Close()

	it = m.Find(999)
	if _, _, ok := it.Next(); ok {
		t.Fatalf("Find(999) on an absent key yielded an entry")
	}
	it.Close()

	it = m.Find(5)
	if _, err := m.EraseIterator(it); err != nil {
		t.Fatalf("EraseIterator: %v", err)
	}
	it.Close()
	if m.Has(5) {
		t.Fatalf("key 5 still present after EraseIterator")
	}
	if got, want := m.Len(), uint64(9); got != want {
		t.Fatalf("Len() after EraseIterator = %d, want %d", got, want)
	}

	// EraseIterator on a not-found iterator is a programmer error, not a
	// silent no-op.
	it = m.Find(999)
	if _, err := m.EraseIterator(it); err == nil {
		t.Fatalf("EraseIterator on an absent-key iterator: expected an error")
	}
	it.Close()
}

func TestReserveGrowsCapacityWithoutInserting(t *testing.T) {
	m := newUint32Map(t)
	const n = InitialNumElements * 4
	if err := m.Reserve(n); err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	if m.Len() != 0 {
		t.Fatalf("Len() after Reserve = %d, want 0", m.Len())
	}
	if m.maxAllowed < n {
		t.Fatalf("maxAllowed = %d after Reserve(%d), want >= %d", m.maxAllowed, n, n)
	}

	// Inserting n entries afterward should need no further rehash: mask
	// (capacity-1) stays fixed across every Set call.
	wantMask := m.mask
	for i := uint32(0); i < uint32(n); i++ {
		if err := m.Set(i, i); err != nil {
			t.Fatalf("Set(%d): %v", i, err)
		}
		if m.mask != wantMask {
			t.Fatalf("mask changed mid-insert at i=%d: got %d, want %d (Reserve should have avoided this)", i, m.mask, wantMask)
		}
	}
}

func TestClearEmptiesMapAndUnlinksFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "map.db")
	m, err := Open[uint32, uint32](path, HashUint32, Uint32Codec, Uint32Codec)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	for i := uint32(0); i < 50; i++ {
		if err := m.Set(i, i); err != nil {
			t.Fatalf("Set(%d): %v", i, err)
		}
	}

	if err := m.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if got := m.Len(); got != 0 {
		t.Fatalf("Len() after Clear = %d, want 0", got)
	}
	if m.Has(0) {
		t.Fatalf("Has(0) after Clear returned true")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("backing file still present after Clear: %v", err)
	}

	// The map is still usable after Clear; only its file was unlinked.
	if err := m.Set(1, 111); err != nil {
		t.Fatalf("Set after Clear: %v", err)
	}
	if v, found := m.Get(1); !found || v != 111 {
		t.Fatalf("Get(1) after Clear+Set = %v, %v, want 111, true", v, found)
	}
}

func TestClearRefusesWhileIteratorOpen(t *testing.T) {
	m := newUint32Map(t)
	if err := m.Set(1, 1); err != nil {
		t.Fatalf("Set: %v", err)
	}

	it := m.Iterate()
	defer it.Close()

	if err := m.Clear(); err == nil {
		t.Fatalf("Clear while an iterator is open: expected an error")
	}
}

// EOF
