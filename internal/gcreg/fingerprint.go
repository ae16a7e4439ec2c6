// graphdb - GC Registry: backing-file fingerprints
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

package gcreg

import (
	"crypto/sha512"
	"fmt"
	"hash/crc32"
)

// Fingerprint is a CRC32 and a SHA-512, both over the full region,
// computed on demand by Region.Fingerprint. Reopening a region whose fingerprint
// no longer matches a previously recorded one means the backing file was
// mutated outside this process — a category-2 fatal condition, never a
// thing a caller can repair in place.
type Fingerprint struct {
	CRC32  uint32
	SHA512 [sha512.Size]byte
}

// Fingerprint computes the region's current fingerprint. Callers hold
// RefLock while calling this, same as any other read of Bytes.
func (r *Region) Fingerprint() Fingerprint {
	data := r.data
	return Fingerprint{
		CRC32:  crc32.ChecksumIEEE(data),
		SHA512: sha512.Sum512(data),
	}
}

// VerifyFingerprint reports whether the region's current contents match
// a fingerprint captured earlier, returning an error describing the
// mismatch rather than a bare bool so callers can log exactly what
// diverged.
func (r *Region) VerifyFingerprint(want Fingerprint) error {
	got := r.Fingerprint()
	if got.CRC32 != want.CRC32 {
		return fmt.Errorf("gcreg: %s: CRC32 mismatch, got %08x want %08x (file modified externally)",
			r.path, got.CRC32, want.CRC32)
	}
	if got.SHA512 != want.SHA512 {
		return fmt.Errorf("gcreg: %s: SHA-512 mismatch (file modified externally)", r.path)
	}
	return nil
}

// EOF
