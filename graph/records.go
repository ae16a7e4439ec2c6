// graphdb - Hierarchical Graph Index: fixed-size records
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

// Package graph implements the hierarchical graph index: one node table
// and one adjacency table per subgraph, an instance tree recording every
// place a subgraph is instantiated, and the bottom-up unique-subgraph
// traversal that drives a pass scheduler over the whole hierarchy.
package graph

import (
	"encoding/binary"

	"gohdl.dev/graphdb/internal/rhmap"
	"gohdl.dev/graphdb/internal/sched"
)

// SubgraphID identifies a subgraph definition, shared with the
// scheduler's own notion of the same thing.
type SubgraphID = sched.SubgraphID

// NodeID identifies a node within one subgraph's node table.
type NodeID = uint32

// NoParent marks the root of the instance tree.
const NoParent = ^uint32(0)

// NodeRecord is the fixed-size value stored for every node. A nonzero
// SubgraphID means the node is itself an instance of another subgraph
// (the hierarchy edge the scheduler's Children walks); zero means a
// primitive, leaf node.
type NodeRecord struct {
	Kind       uint16
	NumInputs  uint16
	NumOutputs uint16
	SubgraphID uint32
	Flags      uint32
}

var nodeRecordCodec = rhmap.Codec[NodeRecord]{
	Size: 14,
	Encode: func(v NodeRecord, buf []byte) {
		binary.LittleEndian.PutUint16(buf[0:2], v.Kind)
		binary.LittleEndian.PutUint16(buf[2:4], v.NumInputs)
		binary.LittleEndian.PutUint16(buf[4:6], v.NumOutputs)
		binary.LittleEndian.PutUint32(buf[6:10], v.SubgraphID)
		binary.LittleEndian.PutUint32(buf[10:14], v.Flags)
	},
	Decode: func(buf []byte) NodeRecord {
		return NodeRecord{
			Kind:       binary.LittleEndian.Uint16(buf[0:2]),
			NumInputs:  binary.LittleEndian.Uint16(buf[2:4]),
			NumOutputs: binary.LittleEndian.Uint16(buf[4:6]),
			SubgraphID: binary.LittleEndian.Uint32(buf[6:10]),
			Flags:      binary.LittleEndian.Uint32(buf[10:14]),
		}
	},
}

// EdgeRecord is the minimal fixed record needed to drive traversal and
// the scheduler: a directed connection from one node's output pin to
// another node's input pin. Accessor sugar over pins is out of scope.
type EdgeRecord struct {
	SrcNode NodeID
	SrcPin  uint16
	DstNode NodeID
	DstPin  uint16
}

var edgeRecordCodec = rhmap.Codec[EdgeRecord]{
	Size: 12,
	Encode: func(v EdgeRecord, buf []byte) {
		binary.LittleEndian.PutUint32(buf[0:4], v.SrcNode)
		binary.LittleEndian.PutUint16(buf[4:6], v.SrcPin)
		binary.LittleEndian.PutUint32(buf[6:10], v.DstNode)
		binary.LittleEndian.PutUint16(buf[10:12], v.DstPin)
	},
	Decode: func(buf []byte) EdgeRecord {
		return EdgeRecord{
			SrcNode: binary.LittleEndian.Uint32(buf[0:4]),
			SrcPin:  binary.LittleEndian.Uint16(buf[4:6]),
			DstNode: binary.LittleEndian.Uint32(buf[6:10]),
			DstPin:  binary.LittleEndian.Uint16(buf[10:12]),
		}
	},
}

// InstanceRecord places one instance of a subgraph under a parent
// instance (or at the root, if Parent == NoParent).
type InstanceRecord struct {
	SubgraphID uint32
	Parent     uint32
}

var instanceRecordCodec = rhmap.Codec[InstanceRecord]{
	Size: 8,
	Encode: func(v InstanceRecord, buf []byte) {
		binary.LittleEndian.PutUint32(buf[0:4], v.SubgraphID)
		binary.LittleEndian.PutUint32(buf[4:8], v.Parent)
	},
	Decode: func(buf []byte) InstanceRecord {
		return InstanceRecord{
			SubgraphID: binary.LittleEndian.Uint32(buf[0:4]),
			Parent:     binary.LittleEndian.Uint32(buf[4:8]),
		}
	},
}

// EOF
