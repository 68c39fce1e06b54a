package cachemgr

import (
	"bytes"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"

	"github.com/bengal-go/bengal/internal/atomicio"
)

// writeCompressed atomically writes data zstd-compressed to path (which
// should carry a .zst suffix).
func writeCompressed(path string, data []byte) error {
	var buf bytes.Buffer
	w, err := zstd.NewWriter(&buf)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return atomicio.WriteFile(path, buf.Bytes(), 0o644)
}

// readCompressedOrLegacy reads a zstd-compressed file at compressedPath if
// it exists; otherwise falls back to reading the uncompressed legacyPath
// transparently (so older caches keep working), returning whether the
// legacy path was the one actually read (callers use this to know they
// should rewrite compressed on next save).
func readCompressedOrLegacy(compressedPath, legacyPath string) (data []byte, readLegacy bool, err error) {
	if b, err := os.ReadFile(compressedPath); err == nil {
		r, derr := zstd.NewReader(bytes.NewReader(b))
		if derr != nil {
			return nil, false, derr
		}
		defer r.Close()
		out, derr := io.ReadAll(r)
		if derr != nil {
			return nil, false, derr
		}
		return out, false, nil
	}

	b, err := os.ReadFile(legacyPath)
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}
