// Package manifest owns the durable record of per-file integrity state:
// the in-memory manifest, its CSV representation on disk, and the
// single-writer lock protecting it.
package manifest

import (
	"sort"
	"time"
)

// Record is the integrity state of one tracked file at last-hash time.
type Record struct {
	RelativePath string    // POSIX-style path, root-relative, unique key
	Checksum     string    // lowercase hex SHA-256 of content
	Size         int64     // byte count
	ModTime      time.Time // source filesystem mtime
	GeneratedAt  time.Time // when Checksum was computed; audit only
}

// Manifest maps relative paths to integrity records. Paths use forward
// slashes regardless of host platform so manifests stay portable.
type Manifest struct {
	records map[string]Record
}

// New returns an empty manifest.
func New() *Manifest {
	return &Manifest{records: make(map[string]Record)}
}

// Len returns the number of tracked files.
func (m *Manifest) Len() int { return len(m.records) }

// Get looks up the record for a relative path.
func (m *Manifest) Get(relPath string) (Record, bool) {
	rec, ok := m.records[relPath]
	return rec, ok
}

// Put inserts or replaces a record, keyed by its RelativePath.
func (m *Manifest) Put(rec Record) {
	m.records[rec.RelativePath] = rec
}

// Has reports whether a relative path is tracked.
func (m *Manifest) Has(relPath string) bool {
	_, ok := m.records[relPath]
	return ok
}

// Paths returns all tracked paths in lexicographic order. This is the
// canonical manifest ordering, matching the tree walker's enumeration.
func (m *Manifest) Paths() []string {
	paths := make([]string, 0, len(m.records))
	for p := range m.records {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Records returns all records in path order.
func (m *Manifest) Records() []Record {
	recs := make([]Record, 0, len(m.records))
	for _, p := range m.Paths() {
		recs = append(recs, m.records[p])
	}
	return recs
}

// Clone returns an independent copy. Verify mutates only a clone so the
// loaded manifest stays immutable until the final atomic write-back.
func (m *Manifest) Clone() *Manifest {
	out := New()
	for p, rec := range m.records {
		out.records[p] = rec
	}
	return out
}

// TotalSize sums the recorded sizes of all tracked files.
func (m *Manifest) TotalSize() int64 {
	var total int64
	for _, rec := range m.records {
		total += rec.Size
	}
	return total
}

// NewestGeneratedAt returns the most recent GeneratedAt across all
// records, zero for an empty manifest.
func (m *Manifest) NewestGeneratedAt() time.Time {
	var newest time.Time
	for _, rec := range m.records {
		if rec.GeneratedAt.After(newest) {
			newest = rec.GeneratedAt
		}
	}
	return newest
}
