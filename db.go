// graphdb - top-level database handle and background routine
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

/*
	We use a Go routine to run the database's background lifecycle, the
	same way the subsystem this is descended from ran its disk writer as
	its own routine, coordinated through a command channel and a
	WaitGroup so Close can block until it has actually exited.
*/

package graphdb

import (
	"context"
	"fmt"
	"io/fs"
	"log"
	"path/filepath"
	"strings"
	"sync"

	"gohdl.dev/graphdb/config"
	"gohdl.dev/graphdb/graph"
	"gohdl.dev/graphdb/internal/rhmap"
)

type sweeperCmd int

const (
	sweeperNop sweeperCmd = iota
	sweeperClose
)

// DB is the top-level handle a caller opens once per store directory. It
// owns the graph index and runs a background routine whose lifetime
// Close waits out.
type DB struct {
	Store *graph.Store
	dir   string

	sweeperCh chan sweeperCmd
	sweeperWg sync.WaitGroup
}

// Open reads configuration, opens the graph index rooted at dir, and
// starts the background routine. Call after flag/config parsing;
// mirrors the startup order ConfigureVariables -> StartUp that the
// log-management ancestor of this code used.
func Open(dir string) (*DB, error) {
	if errs := config.ConfigureVariables(); errs > 0 {
		log.Printf("%d errors reading configuration", errs)
	}

	store, err := graph.Open(dir)
	if err != nil {
		return nil, err
	}

	db := &DB{
		Store:     store,
		dir:       dir,
		sweeperCh: make(chan sweeperCmd),
	}
	go db.sweeper()

	log.Printf("graphdb: opened store at %s", dir)
	return db, nil
}

// Close stops the background routine and blocks until it has exited.
func (db *DB) Close() {
	db.sweeperWg.Add(1)
	db.sweeperCh <- sweeperClose
	db.sweeperWg.Wait()
}

// ArchiveNow sweeps the store directory for ".grow" files: the
// temporary backing file a rehash mmaps its new, doubled-capacity
// region into before renaming it over the live path. A clean rehash
// always archives the region it supersedes and removes this temporary
// itself (see internal/rhmap.rehash); a ".grow" file surviving here
// means a process died mid-rehash, and this is the cleanup pass that
// compacts it instead of leaving dead weight on disk.
func (db *DB) ArchiveNow() error {
	var firstErr error
	err := filepath.WalkDir(db.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".grow") {
			return nil
		}
		log.Printf("graphdb: archiving stale rehash leftover %s", path)
		if archErr := rhmap.ArchiveSupersededFile(path); archErr != nil && firstErr == nil {
			firstErr = fmt.Errorf("graphdb: archive %s: %w", path, archErr)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("graphdb: archive sweep: %w", err)
	}
	return firstErr
}

// RunPasses drives the bottom-up scheduler across every subgraph
// reachable from the store, one call per traversal. A workers value of
// 0 or less uses the configured worker pool size instead of requiring
// every caller to know it.
func (db *DB) RunPasses(ctx context.Context, workers int, visit func(context.Context, graph.SubgraphID) error) error {
	if workers <= 0 {
		workers = int(config.Current().WorkerCount())
	}
	return db.Store.EachSubgraphUniqueBottomUp(ctx, workers, visit)
}

func (db *DB) sweeper() {
	for cmd := range db.sweeperCh {
		switch cmd {
		case sweeperClose:
			log.Printf("graphdb: shutting down background routine")
			db.sweeperWg.Done()
			return
		}
	}
}

// EOF
