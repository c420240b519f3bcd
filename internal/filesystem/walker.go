package filesystem

import (
	"io/fs"
	"path"
	"path/filepath"
	"strings"

	"github.com/CireWire/preserv/internal/audit"
	"github.com/CireWire/preserv/internal/config"
)

// Walker enumerates regular files under an archive root in
// lexicographic order by relative path, so two walks over an unchanged
// tree always enumerate identically. Entries it cannot traverse are
// skipped with a logged warning rather than aborting the walk.
type Walker struct {
	exclude   map[string]bool
	patterns  []string
	artifacts map[string]bool
	log       *audit.Log
}

// WalkFunc receives each regular file's slash-separated relative path.
// Returning an error stops the walk and propagates it to the caller.
type WalkFunc func(relPath string) error

// NewWalker builds a walker from the configured excludes. The tool's
// own artifacts (manifest, lock, activity log, config) are always
// excluded so they never register as drift when kept under the root.
func NewWalker(cfg *config.Config, log *audit.Log) (*Walker, error) {
	exclude := make(map[string]bool)
	for _, dir := range cfg.Exclude {
		exclude[dir] = true
	}

	var patterns []string
	if cfg.ExcludeFile != "" {
		loaded, err := LoadExcludePatterns(cfg.ExcludeFile)
		if err != nil {
			return nil, err
		}
		patterns = loaded
	}

	artifacts := make(map[string]bool)
	for _, a := range cfg.Artifacts() {
		artifacts[a] = true
	}

	return &Walker{
		exclude:   exclude,
		patterns:  patterns,
		artifacts: artifacts,
		log:       log,
	}, nil
}

// Walk traverses root depth-first in lexical order, invoking fn for
// every eligible regular file. Directories and symbolic links are never
// reported; symlinks are also never followed, which keeps link cycles
// out of the enumeration.
func (w *Walker) Walk(root string, fn WalkFunc) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			// Permission-denied directories and races with deletion are
			// recoverable: warn and keep walking.
			w.log.Warnf("cannot access %s: %v", p, err)
			return nil
		}

		if d.IsDir() {
			if p != root && w.excludeDir(d.Name(), w.relPath(root, p)) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if w.isArtifact(p) {
			return nil
		}

		rel := w.relPath(root, p)
		if w.matchesPattern(rel) {
			return nil
		}
		return fn(rel)
	})
}

func (w *Walker) relPath(root, p string) string {
	rel, err := filepath.Rel(root, p)
	if err != nil {
		rel = p
	}
	return filepath.ToSlash(rel)
}

func (w *Walker) excludeDir(name, rel string) bool {
	if w.exclude[name] {
		return true
	}
	for _, part := range strings.Split(rel, "/") {
		if w.exclude[part] {
			return true
		}
	}
	return w.matchesPattern(rel)
}

func (w *Walker) isArtifact(p string) bool {
	abs, err := filepath.Abs(p)
	if err != nil {
		return false
	}
	return w.artifacts[abs]
}

func (w *Walker) matchesPattern(rel string) bool {
	for _, pat := range w.patterns {
		if ok, _ := path.Match(pat, rel); ok {
			return true
		}
		if ok, _ := path.Match(pat, path.Base(rel)); ok {
			return true
		}
	}
	return false
}
