// Package digest computes content checksums and probes file metadata.
package digest

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"time"
)

// chunkSize bounds memory per in-flight hash; reads stream through a
// fixed buffer so arbitrarily large files never load whole.
const chunkSize = 128 * 1024

// SumFile returns the lowercase hex SHA-256 of a file's content. The
// file is read in binary mode in fixed-size chunks; digests are
// byte-identical across platforms. Any read failure mid-stream is
// returned as-is and the caller treats it as a per-file failure.
func SumFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	buf := make([]byte, chunkSize)
	if _, err := io.CopyBuffer(h, f, buf); err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Probe returns a file's size and last-modification time without
// reading its content. Probe failure is a per-file IO failure, distinct
// from the engine's Missing classification which is decided against the
// walker's enumeration.
func Probe(path string) (size int64, modTime time.Time, err error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("probe %s: %w", path, err)
	}
	return info.Size(), info.ModTime(), nil
}
