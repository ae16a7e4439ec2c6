// graphdb - top-level handle - tests
// Copyright (C) 2026 GraphDB Authors
// Licensed under the GNU Affero General Public License v3 or later.

package graphdb

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"gohdl.dev/graphdb/graph"
)

func TestOpenRunPassesClose(t *testing.T) {
	dir := t.TempDir()

	db, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	if err := db.Store.AddNode(1, 0, graph.NodeRecord{Kind: 1}); err != nil {
		t.Fatalf("AddNode: %v", err)
	}

	var visited int
	err = db.RunPasses(context.Background(), 2, func(ctx context.Context, id graph.SubgraphID) error {
		visited++
		return nil
	})
	if err != nil {
		t.Fatalf("RunPasses: %v", err)
	}
	if visited != 1 {
		t.Fatalf("visited = %d, want 1", visited)
	}

	if err := db.ArchiveNow(); err != nil {
		t.Fatalf("ArchiveNow: %v", err)
	}
}

func TestRunPassesDefaultsWorkerCountFromConfig(t *testing.T) {
	dir := t.TempDir()
	db, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	if err := db.Store.AddNode(1, 0, graph.NodeRecord{Kind: 1}); err != nil {
		t.Fatalf("AddNode: %v", err)
	}

	var visited int
	err = db.RunPasses(context.Background(), 0, func(ctx context.Context, id graph.SubgraphID) error {
		visited++
		return nil
	})
	if err != nil {
		t.Fatalf("RunPasses with workers=0: %v", err)
	}
	if visited != 1 {
		t.Fatalf("visited = %d, want 1", visited)
	}
}

func TestArchiveNowCompactsStaleGrowFile(t *testing.T) {
	dir := t.TempDir()
	db, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	growPath := filepath.Join(dir, "nodes-1.db.grow")
	// A highly compressible stand-in for a leftover rehash temporary:
	// large enough, and repetitive enough, that bzip2 is guaranteed to
	// shrink it.
	stale := make([]byte, 64*1024)
	if err := os.WriteFile(growPath, stale, 0660); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if err := db.ArchiveNow(); err != nil {
		t.Fatalf("ArchiveNow: %v", err)
	}

	if _, err := os.Stat(growPath); !os.IsNotExist(err) {
		t.Fatalf("stale .grow file still present after ArchiveNow: %v", err)
	}
	if _, err := os.Stat(growPath + ".bz2"); err != nil {
		t.Fatalf("expected compressed archive at %s.bz2: %v", growPath, err)
	}
}

// EOF
