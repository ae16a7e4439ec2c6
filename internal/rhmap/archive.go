// graphdb - Persistent Hash Map: superseded-region archival
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

package rhmap

import (
	"bytes"
	"fmt"
	"os"

	"github.com/dsnet/compress/bzip2"
)

// ArchiveSupersededFile is called by rehash on every superseded backing
// file just before gcreg.DeleteFile would otherwise discard it outright
// (and by DB.ArchiveNow for any ".grow" file left behind by a rehash
// that never reached its final rename, e.g. after a crash). It
// bzip2-compresses the file and only keeps the compressed copy if it
// actually came out shorter, matching the teacher's own cold-storage
// compression shape; a failure here is logged and does not block the
// caller from proceeding to delete the original.
func ArchiveSupersededFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("rhmap: archive %s: %w", path, err)
	}

	var cfg bzip2.WriterConfig
	cfg.Level = bzip2.BestCompression

	var buf bytes.Buffer
	writer, err := bzip2.NewWriter(&buf, &cfg)
	if err != nil {
		return fmt.Errorf("rhmap: archive %s: bzip2: %w", path, err)
	}
	if _, err := writer.Write(data); err != nil {
		return fmt.Errorf("rhmap: archive %s: bzip2: %w", path, err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("rhmap: archive %s: bzip2: %w", path, err)
	}

	if writer.OutputOffset == 0 || writer.OutputOffset >= writer.InputOffset {
		// Not worth keeping a compressed copy; leave the original in place
		// for the caller to delete via gcreg.DeleteFile.
		return nil
	}

	archivePath := path + ".bz2"
	if err := os.WriteFile(archivePath, buf.Bytes(), 0660); err != nil {
		return fmt.Errorf("rhmap: archive %s: write %s: %w", path, archivePath, err)
	}
	return os.Remove(path)
}

// EOF
