package manifest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// ErrCorrupt marks a manifest file that exists but cannot be decoded.
// Verify must fail on it rather than treat the archive as untracked.
var ErrCorrupt = errors.New("manifest corrupt")

// ErrNotFound marks a manifest file that does not exist yet.
var ErrNotFound = errors.New("manifest not found")

// header is the fixed column set of the manifest file. Writing a
// manifest and reading it back reproduces identical records.
var header = []string{"relativePath", "checksum", "size", "modifiedTime", "generatedAt"}

// timeLayout preserves full nanosecond mtime precision where the
// filesystem offers it. On filesystems that truncate timestamps the
// stored value is the truncated one; see the policy package for the
// resulting limitation.
const timeLayout = time.RFC3339Nano

// Store reads and writes the manifest file at a fixed path.
type Store struct {
	Path string
}

// NewStore returns a store for the given manifest path.
func NewStore(path string) *Store {
	return &Store{Path: path}
}

// Exists reports whether the manifest file is present.
func (s *Store) Exists() bool {
	_, err := os.Stat(s.Path)
	return err == nil
}

// Load reads and validates the manifest. Schema mismatches, short rows
// and unparsable fields all fail with ErrCorrupt instead of silently
// dropping rows.
func (s *Store) Load() (*Manifest, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, s.Path)
		}
		return nil, fmt.Errorf("open manifest: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(header)

	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: missing header row", ErrCorrupt)
	}
	for i, col := range rows[0] {
		if col != header[i] {
			return nil, fmt.Errorf("%w: unexpected header column %q", ErrCorrupt, col)
		}
	}

	m := New()
	for i, row := range rows[1:] {
		rec, err := decodeRow(row)
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %v", ErrCorrupt, i+2, err)
		}
		if m.Has(rec.RelativePath) {
			return nil, fmt.Errorf("%w: duplicate path %q", ErrCorrupt, rec.RelativePath)
		}
		m.Put(rec)
	}
	return m, nil
}

// Save writes the manifest atomically: a temporary file in the same
// directory is written, synced, then renamed over the target. A crash
// mid-write never leaves a truncated manifest behind.
func (s *Store) Save(m *Manifest) error {
	dir := filepath.Dir(s.Path)

	tmp, err := os.CreateTemp(dir, ".manifest-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp manifest: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		if tmpPath != "" {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	w := csv.NewWriter(tmp)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("write manifest header: %w", err)
	}
	for _, rec := range m.Records() {
		if err := w.Write(encodeRow(rec)); err != nil {
			return fmt.Errorf("write manifest row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush manifest: %w", err)
	}

	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("sync manifest: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close manifest: %w", err)
	}
	if err := os.Rename(tmpPath, s.Path); err != nil {
		return fmt.Errorf("replace manifest: %w", err)
	}
	tmpPath = ""
	return nil
}

func encodeRow(rec Record) []string {
	return []string{
		rec.RelativePath,
		rec.Checksum,
		strconv.FormatInt(rec.Size, 10),
		rec.ModTime.Format(timeLayout),
		rec.GeneratedAt.Format(timeLayout),
	}
}

func decodeRow(row []string) (Record, error) {
	if row[0] == "" {
		return Record{}, errors.New("empty relativePath")
	}
	size, err := strconv.ParseInt(row[2], 10, 64)
	if err != nil {
		return Record{}, fmt.Errorf("size %q: %v", row[2], err)
	}
	modTime, err := time.Parse(timeLayout, row[3])
	if err != nil {
		return Record{}, fmt.Errorf("modifiedTime %q: %v", row[3], err)
	}
	generatedAt, err := time.Parse(timeLayout, row[4])
	if err != nil {
		return Record{}, fmt.Errorf("generatedAt %q: %v", row[4], err)
	}

	return Record{
		RelativePath: row[0],
		Checksum:     row[1],
		Size:         size,
		ModTime:      modTime,
		GeneratedAt:  generatedAt,
	}, nil
}
