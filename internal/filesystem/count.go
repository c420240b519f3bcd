package filesystem

import (
	"io/fs"
	"path/filepath"
	"sync/atomic"

	"github.com/charlievieth/fastwalk"
)

// Count returns the number of files Walk would enumerate under root.
// It exists so progress callbacks can carry a total before the ordered
// walk starts; ordering does not matter here, so the count runs on
// fastwalk's parallel traversal. Inaccessible entries are ignored the
// same way Walk skips them.
func (w *Walker) Count(root string) int {
	var n atomic.Int64

	conf := fastwalk.Config{Follow: false}
	_ = fastwalk.Walk(&conf, root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if p != root && w.excludeDir(d.Name(), w.relPath(root, p)) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || w.isArtifact(p) {
			return nil
		}
		if w.matchesPattern(w.relPath(root, p)) {
			return nil
		}
		n.Add(1)
		return nil
	})

	return int(n.Load())
}
