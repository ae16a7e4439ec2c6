// graphdb - GC Registry: reclamation of memory-mapped regions
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

// Package gcreg implements the reclamation registry for memory-mapped
// regions backing the persistent hash map. A region may be unmapped and
// its backing file removed only once no reader holds a reference lock on
// it; the registry enforces that with a single-holder in-use flag shared
// between readers and reclaimers, not a rwlock.
package gcreg

import (
	"fmt"
	"os"
	"sync/atomic"

	"github.com/edsrzf/mmap-go"
	"github.com/google/uuid"
)

// Region is one mmap-backed file under reclamation control.
type Region struct {
	path string
	file *os.File
	data mmap.MMap

	generation uuid.UUID

	inUse     atomic.Bool // single holder: a RefLock caller, or a Recycle in progress
	refs      atomic.Int32
	reclaimed atomic.Bool
}

// Mmap creates (or truncates) the backing file at path to size bytes and
// maps it read/write. The returned Region owns the file descriptor.
func Mmap(path string, size int64) (*Region, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0660)
	if err != nil {
		return nil, fmt.Errorf("gcreg: open %s: %w", path, err)
	}
	if err := f.Truncate(size); err != nil {
		f.Close()
		return nil, fmt.Errorf("gcreg: truncate %s: %w", path, err)
	}
	data, err := mmap.MapRegion(f, int(size), mmap.RDWR, 0, 0)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("gcreg: mmap %s: %w", path, err)
	}
	return &Region{path: path, file: f, data: data, generation: uuid.New()}, nil
}

// Open maps an existing backing file at its current on-disk size.
func Open(path string) (*Region, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0660)
	if err != nil {
		return nil, fmt.Errorf("gcreg: open %s: %w", path, err)
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("gcreg: stat %s: %w", path, err)
	}
	data, err := mmap.MapRegion(f, int(fi.Size()), mmap.RDWR, 0, 0)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("gcreg: mmap %s: %w", path, err)
	}
	return &Region{path: path, file: f, data: data, generation: uuid.New()}, nil
}

// Path returns the backing file path.
func (r *Region) Path() string { return r.path }

// Generation identifies this in-process mapping instance. It changes
// across every Mmap/Open call, never across a Recycle of the same
// Region value (there is no "same value" after Recycle: the Region is
// spent). Callers that cache a Region pointer alongside external state
// use Generation to detect that the state predates a reopen elsewhere.
func (r *Region) Generation() uuid.UUID { return r.generation }

// Reclaimed reports whether Recycle has already succeeded for this
// Region. Bytes is invalid once this is true.
func (r *Region) Reclaimed() bool { return r.reclaimed.Load() }

// RefLock acquires the in-use flag for the duration of a read or write
// access to Bytes, refusing if the region has already been reclaimed.
// It spins, since contention is expected to be rare and brief: this is
// a mutex, not a reader/writer lock, so only one accessor is ever live
// at a time, matching the reference implementation's single in-use
// spin-mutex rather than a shared-read design.
func (r *Region) RefLock() bool {
	if r.reclaimed.Load() {
		return false
	}
	for !r.inUse.CompareAndSwap(false, true) {
		if r.reclaimed.Load() {
			return false
		}
	}
	if r.reclaimed.Load() {
		r.inUse.Store(false)
		return false
	}
	r.refs.Add(1)
	return true
}

// RefUnlock releases a lock acquired by RefLock.
func (r *Region) RefUnlock() {
	r.refs.Add(-1)
	r.inUse.Store(false)
}

// Locked is a non-blocking peek at whether the in-use flag is currently
// held by some other accessor. Callers that must refuse rather than
// spin when an iterator's lifetime already holds the lock (spinning
// would deadlock a single-threaded caller against itself) check this
// before attempting RefLock.
func (r *Region) Locked() bool {
	return r.inUse.Load()
}

// Bytes exposes the mapped region. Callers must hold RefLock.
func (r *Region) Bytes() []byte {
	return r.data
}

// Recycle attempts to reclaim the region: unmap it, close the backing
// file descriptor, and optionally delete the file. It refuses by
// returning (false, nil) if a reader currently holds RefLock or another
// Recycle is already in flight — reclamation never blocks, it just
// declines, leaving the caller to retry later or give up.
func (r *Region) Recycle(deleteFile bool) (bool, error) {
	if !r.inUse.CompareAndSwap(false, true) {
		return false, nil
	}
	if r.refs.Load() > 0 {
		r.inUse.Store(false)
		return false, nil
	}
	if err := r.data.Unmap(); err != nil {
		r.inUse.Store(false)
		return false, fmt.Errorf("gcreg: unmap %s: %w", r.path, err)
	}
	if err := r.file.Close(); err != nil {
		r.inUse.Store(false)
		return false, fmt.Errorf("gcreg: close %s: %w", r.path, err)
	}
	r.reclaimed.Store(true)
	r.inUse.Store(false)
	if deleteFile {
		if err := DeleteFile(r.path); err != nil {
			return true, err
		}
	}
	return true, nil
}

// DeleteFile unlinks a region's backing file. Missing files are not an
// error: a region may be deleted by a previous, partially-completed
// Recycle.
func DeleteFile(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("gcreg: delete %s: %w", path, err)
	}
	return nil
}

// EOF
