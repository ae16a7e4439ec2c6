// graphdb - Bottom-Up Hierarchy Scheduler - tests
// Copyright (C) 2026 GraphDB Authors
// Licensed under the GNU Affero General Public License v3 or later.

package sched

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
)

// mapGraph is a trivial in-memory Graph for tests.
type mapGraph map[SubgraphID][]SubgraphID

func (g mapGraph) Subgraphs() []SubgraphID {
	ids := make([]SubgraphID, 0, len(g))
	for id := range g {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (g mapGraph) Children(id SubgraphID) []SubgraphID { return g[id] }

func TestLevelsLeafIsZero(t *testing.T) {
	g := mapGraph{1: nil}
	levels := Levels(g)
	if levels[1] != 0 {
		t.Fatalf("Levels()[1] = %d, want 0", levels[1])
	}
}

// A instantiates B and C; neither B nor C instantiates anything. A
// depends on B and C, so A must run in a round strictly after both.
func TestLevelsAndRoundsChainedHierarchy(t *testing.T) {
	g := mapGraph{
		3: {1, 2}, // A = 3, children B = 1, C = 2
		1: nil,    // B
		2: nil,    // C
	}
	levels := Levels(g)
	if levels[1] != 0 || levels[2] != 0 {
		t.Fatalf("leaf levels = %v, %v, want 0, 0", levels[1], levels[2])
	}
	if levels[3] != 1 {
		t.Fatalf("Levels()[3] = %d, want 1", levels[3])
	}

	rounds := Rounds(g)
	if len(rounds) != 2 {
		t.Fatalf("Rounds() produced %d rounds, want 2", len(rounds))
	}
	if len(rounds[0]) != 2 || rounds[0][0] != 1 || rounds[0][1] != 2 {
		t.Fatalf("round 0 = %v, want [1 2]", rounds[0])
	}
	if len(rounds[1]) != 1 || rounds[1][0] != 3 {
		t.Fatalf("round 1 = %v, want [3]", rounds[1])
	}
}

func TestRunRespectsRoundBarrier(t *testing.T) {
	g := mapGraph{
		3: {1, 2},
		1: nil,
		2: nil,
	}

	var mu sync.Mutex
	var order []SubgraphID
	completedChildren := 0

	err := Run(context.Background(), g, 4, func(ctx context.Context, id SubgraphID) error {
		mu.Lock()
		order = append(order, id)
		if id == 3 && completedChildren != 2 {
			mu.Unlock()
			t.Errorf("subgraph 3 (parent) ran before both children completed")
			return nil
		}
		if id != 3 {
			completedChildren++
		}
		mu.Unlock()
		return nil
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(order) != 3 {
		t.Fatalf("Run visited %d subgraphs, want 3", len(order))
	}
	if order[2] != 3 {
		t.Fatalf("last dispatched subgraph = %d, want 3 (the parent)", order[2])
	}
}

func TestRunPropagatesFirstError(t *testing.T) {
	g := mapGraph{1: nil, 2: nil}
	boom := errors.New("boom")

	err := Run(context.Background(), g, 4, func(ctx context.Context, id SubgraphID) error {
		if id == 1 {
			return boom
		}
		<-ctx.Done()
		return ctx.Err()
	})
	if err == nil {
		t.Fatalf("Run: expected an error")
	}
}

func TestLevelsDetectsCycle(t *testing.T) {
	g := mapGraph{1: {2}, 2: {1}}
	defer func() {
		if recover() == nil {
			t.Fatalf("Levels: expected panic on a cyclic hierarchy")
		}
	}()
	Levels(g)
}

// EOF
