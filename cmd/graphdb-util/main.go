// graphdb - store management utility
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
	"fmt"
	"os"

	"github.com/google/uuid"
)

func main() {
	fmt.Fprintln(os.Stderr, "graphdb-util - persistent graph store utility")
	fmt.Fprintln(os.Stderr, "Copyright (C) 2026 GraphDB Authors")
	fmt.Fprintln(os.Stderr, "Licenced under the Affero General Public Licence (AGPL) v3(+)")
	fmt.Fprintln(os.Stderr)

	// A region's generation id distinguishes the mapping a stale base
	// pointer was taken against from whatever currently occupies that
	// backing file path after a reclaim-and-recreate cycle.
	gen := uuid.New()
	fmt.Printf("Generation: %s\n", gen.String())
}

// EOF
