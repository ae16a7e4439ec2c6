// graphdb - Bottom-Up Hierarchy Scheduler
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

// Package sched implements the bottom-up hierarchy scheduler: subgraphs
// are grouped into dispatch rounds by dependency depth, every subgraph
// in a round runs concurrently across a fixed worker pool, and a round
// barrier guarantees every child has finished before any of its parents
// start, mirroring the original's thread_pool.add/wait_all round loop.
package sched

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"
)

// SubgraphID identifies one subgraph definition in the instantiation
// hierarchy (not one instance of it — the scheduler dispatches once per
// unique subgraph, exactly as each_hier_unique_sub_bottom_up does).
type SubgraphID uint32

// Graph is the dependency structure the scheduler needs: for each
// subgraph, which other subgraphs it instantiates as children. A
// subgraph is only dispatched once every one of its children has run.
type Graph interface {
	Subgraphs() []SubgraphID
	Children(id SubgraphID) []SubgraphID
}

// Levels computes, for every subgraph in g, the round in which it may
// run: 0 for a subgraph with no children, otherwise one more than the
// highest level among its children. This is the level propagation the
// original computes by walking the parent chain of every instance and
// keeping the maximum level seen.
func Levels(g Graph) map[SubgraphID]int {
	memo := make(map[SubgraphID]int)
	stack := make(map[SubgraphID]bool)

	var level func(id SubgraphID) int
	level = func(id SubgraphID) int {
		if v, ok := memo[id]; ok {
			return v
		}
		if stack[id] {
			panic(fmt.Sprintf("sched: cycle detected in subgraph instantiation hierarchy at subgraph %d", id))
		}
		stack[id] = true
		max := -1
		for _, c := range g.Children(id) {
			if lv := level(c); lv > max {
				max = lv
			}
		}
		delete(stack, id)
		lv := max + 1
		memo[id] = lv
		return lv
	}

	for _, id := range g.Subgraphs() {
		level(id)
	}
	return memo
}

// Rounds groups every subgraph in g by dispatch level, in increasing
// order, each round's members sorted by id for a deterministic,
// replayable dispatch order.
func Rounds(g Graph) [][]SubgraphID {
	levels := Levels(g)

	maxLevel := -1
	for _, lv := range levels {
		if lv > maxLevel {
			maxLevel = lv
		}
	}
	if maxLevel < 0 {
		return nil
	}

	rounds := make([][]SubgraphID, maxLevel+1)
	for id, lv := range levels {
		rounds[lv] = append(rounds[lv], id)
	}
	for i := range rounds {
		sort.Slice(rounds[i], func(a, b int) bool { return rounds[i][a] < rounds[i][b] })
	}
	return rounds
}

// Run dispatches every subgraph in g through fn, one round per
// dependency level. Every subgraph in a round runs concurrently across
// a pool of workers; the round only completes once every member has
// returned (the barrier), so fn for a parent never starts before fn for
// all of its children has finished. The first error from any subgraph
// cancels the context passed to its still-running round-mates and is
// the one returned, matching the errgroup first-error-wins contract.
func Run(ctx context.Context, g Graph, workers int, fn func(context.Context, SubgraphID) error) error {
	pool := NewPool(workers)
	defer pool.Close()

	for _, round := range Rounds(g) {
		grp, gctx := errgroup.WithContext(ctx)
		for _, id := range round {
			id := id
			grp.Go(func() error {
				result := make(chan error, 1)
				pool.Submit(func() { result <- fn(gctx, id) })
				return <-result
			})
		}
		if err := grp.Wait(); err != nil {
			return fmt.Errorf("sched: round failed: %w", err)
		}
	}
	return nil
}

// EOF
