// graphdb - Hierarchical Graph Index: store
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
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gohdl.dev/graphdb/internal/rhmap"
	"gohdl.dev/graphdb/internal/sched"
)

// Store owns one node table and one adjacency table per subgraph, plus
// a single instance tree for the whole hierarchy, all backed by
// rhmap.Map instances opened lazily by (dir, subgraph id).
type Store struct {
	dir string

	mu             sync.Mutex
	nodeMaps       map[SubgraphID]*rhmap.Map[NodeID, NodeRecord]
	edgeMaps       map[SubgraphID]*rhmap.Map[uint64, EdgeRecord]
	nextEdgeID     map[SubgraphID]uint64
	instances      *rhmap.Map[uint32, InstanceRecord]
	nextInstanceID uint32
	arena          *StringArena
}

// Open opens (creating if necessary) the store rooted at dir.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0770); err != nil {
		return nil, fmt.Errorf("graph: open %s: %w", dir, err)
	}
	instances, err := rhmap.Open[uint32, InstanceRecord](
		filepath.Join(dir, "instances.db"), rhmap.HashUint32, rhmap.Uint32Codec, instanceRecordCodec)
	if err != nil {
		return nil, fmt.Errorf("graph: open %s: %w", dir, err)
	}
	arena, err := OpenStringArena(filepath.Join(dir, "strings"))
	if err != nil {
		return nil, fmt.Errorf("graph: open %s: %w", dir, err)
	}

	s := &Store{
		dir:        dir,
		nodeMaps:   make(map[SubgraphID]*rhmap.Map[NodeID, NodeRecord]),
		edgeMaps:   make(map[SubgraphID]*rhmap.Map[uint64, EdgeRecord]),
		nextEdgeID: make(map[SubgraphID]uint64),
		instances:  instances,
		arena:      arena,
	}

	it := instances.Iterate()
	for {
		idx, _, ok := it.Next()
		if !ok {
			break
		}
		if idx+1 > s.nextInstanceID {
			s.nextInstanceID = idx + 1
		}
	}
	it.Close()

	return s, nil
}

// Strings returns the store's string interning arena.
func (s *Store) Strings() *StringArena { return s.arena }

func (s *Store) nodeMap(id SubgraphID) (*rhmap.Map[NodeID, NodeRecord], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m, ok := s.nodeMaps[id]; ok {
		return m, nil
	}
	m, err := rhmap.Open[NodeID, NodeRecord](
		filepath.Join(s.dir, fmt.Sprintf("nodes-%d.db", id)), rhmap.HashUint32, rhmap.Uint32Codec, nodeRecordCodec)
	if err != nil {
		return nil, fmt.Errorf("graph: subgraph %d: %w", id, err)
	}
	s.nodeMaps[id] = m
	return m, nil
}

func (s *Store) edgeMap(id SubgraphID) (*rhmap.Map[uint64, EdgeRecord], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m, ok := s.edgeMaps[id]; ok {
		return m, nil
	}
	m, err := rhmap.Open[uint64, EdgeRecord](
		filepath.Join(s.dir, fmt.Sprintf("edges-%d.db", id)), rhmap.HashUint64, rhmap.Uint64Codec, edgeRecordCodec)
	if err != nil {
		return nil, fmt.Errorf("graph: subgraph %d: %w", id, err)
	}
	s.edgeMaps[id] = m

	it := m.Iterate()
	var max uint64
	var any bool
	for {
		k, _, ok := it.Next()
		if !ok {
			break
		}
		any = true
		if k+1 > max {
			max = k + 1
		}
	}
	it.Close()
	if any {
		s.nextEdgeID[id] = max
	}
	return m, nil
}

// AddNode stores rec under id within subgraph.
func (s *Store) AddNode(subgraph SubgraphID, id NodeID, rec NodeRecord) error {
	m, err := s.nodeMap(subgraph)
	if err != nil {
		return err
	}
	return m.Set(id, rec)
}

// Node retrieves a node record from subgraph.
func (s *Store) Node(subgraph SubgraphID, id NodeID) (NodeRecord, bool, error) {
	m, err := s.nodeMap(subgraph)
	if err != nil {
		return NodeRecord{}, false, err
	}
	rec, found := m.Get(id)
	return rec, found, nil
}

// AddEdge appends a new edge to subgraph's adjacency table and returns
// its id.
func (s *Store) AddEdge(subgraph SubgraphID, rec EdgeRecord) (uint64, error) {
	m, err := s.edgeMap(subgraph)
	if err != nil {
		return 0, err
	}
	s.mu.Lock()
	id := s.nextEdgeID[subgraph]
	s.nextEdgeID[subgraph] = id + 1
	s.mu.Unlock()
	if err := m.Set(id, rec); err != nil {
		return 0, err
	}
	return id, nil
}

// AddInstance registers a new instance of subgraph under parent
// (NoParent for a root instance) and returns its index.
func (s *Store) AddInstance(subgraph SubgraphID, parent uint32) (uint32, error) {
	s.mu.Lock()
	idx := s.nextInstanceID
	s.nextInstanceID++
	s.mu.Unlock()

	if err := s.instances.Set(idx, InstanceRecord{SubgraphID: uint32(subgraph), Parent: parent}); err != nil {
		return 0, err
	}
	return idx, nil
}

// EachInstanceFast calls visit once per instance, parent before child,
// matching each_hier_fast's depth-first preorder. Traversal stops early
// if visit returns false.
func (s *Store) EachInstanceFast(visit func(idx uint32, rec InstanceRecord) bool) error {
	recs := make(map[uint32]InstanceRecord)
	children := make(map[uint32][]uint32)
	var roots []uint32

	it := s.instances.Iterate()
	for {
		idx, rec, ok := it.Next()
		if !ok {
			break
		}
		recs[idx] = rec
		if rec.Parent == NoParent {
			roots = append(roots, idx)
		} else {
			children[rec.Parent] = append(children[rec.Parent], idx)
		}
	}
	it.Close()

	sort.Slice(roots, func(i, j int) bool { return roots[i] < roots[j] })
	for k := range children {
		sort.Slice(children[k], func(i, j int) bool { return children[k][i] < children[k][j] })
	}

	stop := false
	var walk func(idx uint32)
	walk = func(idx uint32) {
		if stop {
			return
		}
		if !visit(idx, recs[idx]) {
			stop = true
			return
		}
		for _, c := range children[idx] {
			walk(c)
			if stop {
				return
			}
		}
	}
	for _, r := range roots {
		walk(r)
		if stop {
			break
		}
	}
	return nil
}

// EachLocalUniqueSubFast visits every node in subgraph once, stopping
// early if visit returns false. This mirrors
// each_local_unique_sub_fast: a flat, single-subgraph traversal with no
// hierarchy awareness.
func (s *Store) EachLocalUniqueSubFast(subgraph SubgraphID, visit func(NodeID, NodeRecord) bool) error {
	m, err := s.nodeMap(subgraph)
	if err != nil {
		return err
	}
	it := m.Iterate()
	defer it.Close()
	for {
		id, rec, ok := it.Next()
		if !ok {
			return nil
		}
		if !visit(id, rec) {
			return nil
		}
	}
}

// Subgraphs implements sched.Graph: every subgraph that has a node or
// edge map, whether opened through this Store or found on disk under
// the store's directory.
func (s *Store) Subgraphs() []SubgraphID {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := make(map[SubgraphID]bool, len(s.nodeMaps))
	for id := range s.nodeMaps {
		seen[id] = true
	}
	for id := range s.edgeMaps {
		seen[id] = true
	}
	for _, pattern := range []string{"nodes-%d.db", "edges-%d.db"} {
		names, _ := filepath.Glob(filepath.Join(s.dir, strings.Replace(pattern, "%d", "*", 1)))
		for _, name := range names {
			var id uint32
			if _, err := fmt.Sscanf(filepath.Base(name), pattern, &id); err == nil {
				seen[SubgraphID(id)] = true
			}
		}
	}
	ids := make([]SubgraphID, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Children implements sched.Graph: the distinct, nonzero SubgraphIDs
// instantiated by any node in subgraph.
func (s *Store) Children(subgraph SubgraphID) []SubgraphID {
	m, err := s.nodeMap(subgraph)
	if err != nil {
		return nil
	}
	seen := make(map[SubgraphID]bool)
	it := m.Iterate()
	for {
		_, rec, ok := it.Next()
		if !ok {
			break
		}
		if rec.SubgraphID != 0 {
			seen[SubgraphID(rec.SubgraphID)] = true
		}
	}
	it.Close()

	children := make([]SubgraphID, 0, len(seen))
	for id := range seen {
		children = append(children, id)
	}
	sort.Slice(children, func(i, j int) bool { return children[i] < children[j] })
	return children
}

// EachSubgraphUniqueBottomUp dispatches visit once per unique subgraph
// in the hierarchy, grouped into rounds by dependency depth so every
// child has already run before any of its parents start. It is the
// direct Go counterpart of each_hier_unique_sub_bottom_up_parallel.
func (s *Store) EachSubgraphUniqueBottomUp(ctx context.Context, workers int, visit func(context.Context, SubgraphID) error) error {
	return sched.Run(ctx, s, workers, visit)
}

// EOF
