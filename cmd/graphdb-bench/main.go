// graphdb - graph store ingest/traversal benchmark tool
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

package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
	"gohdl.dev/graphdb"
	"gohdl.dev/graphdb/graph"
)

// netlistLine is one JSON-lines record of the ingest format: a node
// belonging to a subgraph, optionally instantiating a child subgraph,
// with an arbitrarily nested attribute blob.
type netlistLine struct {
	Subgraph    uint32                 `json:"subgraph"`
	Node        uint32                 `json:"node"`
	Kind        uint16                 `json:"kind"`
	SubSubgraph uint32                 `json:"sub_subgraph"`
	Attrs       map[string]interface{} `json:"attrs"`
}

func main() {
	fmt.Fprintln(os.Stderr, "graphdb-bench - hierarchical graph store ingest & traversal benchmark tool")
	fmt.Fprintln(os.Stderr, "Copyright (C) 2026 GraphDB Authors")
	fmt.Fprintln(os.Stderr, "Licenced under the Affero General Public Licence (AGPL) v3(+)")
	fmt.Fprintln(os.Stderr)

	if cfgFile := os.Getenv("GRAPHDB_CONF"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		viper.SetConfigType("ini")
		if err := viper.ReadInConfig(); err != nil {
			fmt.Fprintf(os.Stderr, "Error reading configuration '%s': %v\n", cfgFile, err)
			os.Exit(1)
		}
	}

	var storeDir string
	var action bool

	for i := 1; i < len(os.Args); i++ {
		switch os.Args[i] {
		case "-dir":
			if i+1 < len(os.Args) {
				i++
				storeDir = os.Args[i]
			}

		case "-i":
			if i+1 >= len(os.Args) || storeDir == "" {
				fmt.Fprintf(os.Stderr, "Missing filename for -i, or -dir not given yet\n")
				continue
			}
			i++
			fname := os.Args[i]

			db, err := graphdb.Open(storeDir)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Open(%s): %v\n", storeDir, err)
				os.Exit(1)
			}

			fmt.Fprintf(os.Stderr, "Ingesting file '%s' into '%s'\n", fname, storeDir)
			file, err := os.Open(fname)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error opening file: %v\n", err)
				os.Exit(1)
			}

			start := time.Now()
			scanner := bufio.NewScanner(file)
			var n int
			for scanner.Scan() {
				var rec netlistLine
				if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
					fmt.Fprintf(os.Stderr, "Skipping malformed line %d: %v\n", n+1, err)
					continue
				}

				node := graph.NodeRecord{Kind: rec.Kind, SubgraphID: rec.SubSubgraph}
				if err := db.Store.AddNode(graph.SubgraphID(rec.Subgraph), rec.Node, node); err != nil {
					fmt.Fprintf(os.Stderr, "AddNode: %v\n", err)
					continue
				}
				if rec.Attrs != nil {
					if _, err := db.Store.InternAttributes(rec.Attrs); err != nil {
						fmt.Fprintf(os.Stderr, "InternAttributes: %v\n", err)
					}
				}
				n++
				if n%1000 == 0 {
					fmt.Fprintf(os.Stderr, "%d000 lines\r", n/1000)
				}
			}
			file.Close()
			duration := time.Since(start)
			fmt.Fprintf(os.Stderr, "Ingested %d nodes, duration: %v\n", n, duration)

			if err := scanner.Err(); err != nil {
				fmt.Fprintf(os.Stderr, "Error scanning file: %v\n", err)
			}
			db.Close()
			action = true

		case "-run":
			if storeDir == "" {
				fmt.Fprintf(os.Stderr, "-run requires -dir\n")
				continue
			}
			db, err := graphdb.Open(storeDir)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Open(%s): %v\n", storeDir, err)
				os.Exit(1)
			}

			start := time.Now()
			var count int
			// workers=0 defers to the configured [graphdb] worker_count.
			err = db.RunPasses(context.Background(), 0, func(ctx context.Context, id graph.SubgraphID) error {
				count++
				return nil
			})
			duration := time.Since(start)
			if err != nil {
				fmt.Fprintf(os.Stderr, "RunPasses: %v\n", err)
			}
			fmt.Fprintf(os.Stderr, "Visited %d subgraphs bottom-up, duration: %v\n", count, duration)
			db.Close()
			action = true
		}
	}

	if !action {
		fmt.Fprintf(os.Stderr, "Usage: %s ...\n", os.Args[0])
		fmt.Fprintf(os.Stderr, " -dir <path>     Store directory to operate on\n")
		fmt.Fprintf(os.Stderr, " -i <file>       Ingest JSON-lines netlist from <file>\n")
		fmt.Fprintf(os.Stderr, " -run            Run a bottom-up pass over every subgraph\n")
	}
}

// EOF
