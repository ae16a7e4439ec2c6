// graphdb - Hierarchical Graph Index: string interning arena
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

package graph

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gohdl.dev/graphdb/internal/rhmap"
)

func packSpan(offset, length uint32) uint64 {
	return uint64(offset)<<32 | uint64(length)
}

func unpackSpan(v uint64) (offset, length uint32) {
	return uint32(v >> 32), uint32(v)
}

// StringArena interns strings by content, generalizing the fixed
// 16M-slot content-hash dictionary this is grounded on into a growable,
// open-addressed rhmap.Map index over an append-only blob file holding
// the actual bytes. Two different strings that hash alike don't
// collide: a handle collision is resolved by probing forward through
// the handle space and verifying stored bytes, the same role the
// original's fixed skip-101 linear probe plays over its array.
type StringArena struct {
	mu    sync.Mutex
	index *rhmap.Map[uint64, uint64]
	blob  *os.File
	size  uint32
}

// OpenStringArena opens (creating if necessary) the arena rooted at dir.
func OpenStringArena(dir string) (*StringArena, error) {
	if err := os.MkdirAll(dir, 0770); err != nil {
		return nil, fmt.Errorf("graph: string arena %s: %w", dir, err)
	}
	index, err := rhmap.Open[uint64, uint64](
		filepath.Join(dir, "strings.idx"), rhmap.HashUint64, rhmap.Uint64Codec, rhmap.Uint64Codec)
	if err != nil {
		return nil, fmt.Errorf("graph: string arena %s: %w", dir, err)
	}
	blob, err := os.OpenFile(filepath.Join(dir, "strings.blob"), os.O_RDWR|os.O_CREATE, 0660)
	if err != nil {
		return nil, fmt.Errorf("graph: string arena %s: %w", dir, err)
	}
	fi, err := blob.Stat()
	if err != nil {
		blob.Close()
		return nil, fmt.Errorf("graph: string arena %s: %w", dir, err)
	}
	return &StringArena{index: index, blob: blob, size: uint32(fi.Size())}, nil
}

// Intern returns a handle that is stable and identical for every call
// with an equal string, appending the bytes to the blob file only the
// first time a given string is seen.
func (a *StringArena) Intern(s string) (uint64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	for handle := rhmap.HashString(s); ; handle++ {
		span, found := a.index.Get(handle)
		if !found {
			offset := a.size
			if _, err := a.blob.WriteAt([]byte(s), int64(offset)); err != nil {
				return 0, fmt.Errorf("graph: string arena: write: %w", err)
			}
			a.size += uint32(len(s))
			if err := a.index.Set(handle, packSpan(offset, uint32(len(s)))); err != nil {
				return 0, fmt.Errorf("graph: string arena: %w", err)
			}
			return handle, nil
		}
		if existing, err := a.readSpan(span); err == nil && existing == s {
			return handle, nil
		}
	}
}

// Lookup returns the interned string for a handle returned by Intern.
func (a *StringArena) Lookup(handle uint64) (string, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	span, found := a.index.Get(handle)
	if !found {
		return "", false
	}
	s, err := a.readSpan(span)
	if err != nil {
		return "", false
	}
	return s, true
}

func (a *StringArena) readSpan(span uint64) (string, error) {
	offset, length := unpackSpan(span)
	buf := make([]byte, length)
	if _, err := a.blob.ReadAt(buf, int64(offset)); err != nil {
		return "", err
	}
	return string(buf), nil
}

// EOF
