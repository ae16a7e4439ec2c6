// graphdb - Hierarchical Graph Index: node attribute flattening
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

	"github.com/nqd/flat"
)

// FlattenAttributes turns an arbitrarily nested attribute blob attached
// to a node (as ingested from, say, a JSON netlist description) into a
// flat "dotted.path" -> string map, the shape a fixed-size node record
// can carry via the string arena instead of a nested document. A node's
// own Kind/Flags fields stay typed and fixed-size; everything else a
// caller wants to attach rides through here and gets interned.
func FlattenAttributes(nested map[string]interface{}) (map[string]string, error) {
	flatmap, err := flat.Flatten(nested, &flat.Options{
		Delimiter: ".",
		MaxDepth:  1000,
		Safe:      false,
	})
	if err != nil {
		return nil, fmt.Errorf("graph: flatten attributes: %w", err)
	}

	out := make(map[string]string, len(flatmap))
	for k, v := range flatmap {
		out[k] = fmt.Sprint(v)
	}
	return out, nil
}

// InternAttributes flattens nested and interns every resulting key and
// value into the store's string arena, returning the pairs of handles a
// caller can stash alongside a node (outside the fixed NodeRecord,
// since the set of attributes is unbounded and per-node-type).
func (s *Store) InternAttributes(nested map[string]interface{}) (map[uint64]uint64, error) {
	flatmap, err := FlattenAttributes(nested)
	if err != nil {
		return nil, err
	}
	out := make(map[uint64]uint64, len(flatmap))
	for k, v := range flatmap {
		kh, err := s.arena.Intern(k)
		if err != nil {
			return nil, err
		}
		vh, err := s.arena.Intern(v)
		if err != nil {
			return nil, err
		}
		out[kh] = vh
	}
	return out, nil
}

// EOF
