// Package file implements a local filesystem-backed data source, plus glob
// discovery of export drops in a data directory.
package file

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
)

// Local is a filesystem data source that opens files from the local disk.
type Local struct{ path string }

// NewLocal returns a new Local data source bound to the provided filesystem
// path. The returned value is safe for concurrent use by multiple goroutines
// as long as the underlying path location is valid for concurrent reads.
func NewLocal(path string) *Local { return &Local{path: path} }

// Path returns the filesystem path this source reads from.
func (l *Local) Path() string { return l.path }

// Open opens the configured path for reading and returns an io.ReadCloser.
//
// Behavior:
//   - If the context is already canceled or its deadline exceeded at the time
//     of the call, Open returns the context error immediately without touching
//     the filesystem.
//   - Otherwise, Open attempts to open the underlying file and returns the
//     resulting *os.File as an io.ReadCloser.
//   - Any filesystem error is wrapped with the path for context, while still
//     permitting errors.Is/As checks by callers (e.g., errors.Is(err, os.ErrNotExist)).
func (l *Local) Open(ctx context.Context) (io.ReadCloser, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", l.path, err)
	}
	return f, nil
}

// Glob resolves a set of glob patterns relative to dir and returns one Local
// source per matching file, sorted by path with duplicates removed. Patterns
// that match nothing are not an error; upstream systems drop files
// irregularly and an empty batch is a normal outcome.
func Glob(dir string, patterns []string) ([]*Local, error) {
	seen := map[string]bool{}
	var paths []string
	for _, pat := range patterns {
		matches, err := filepath.Glob(filepath.Join(dir, pat))
		if err != nil {
			return nil, fmt.Errorf("glob %s: %w", pat, err)
		}
		for _, m := range matches {
			info, err := os.Stat(m)
			if err != nil || info.IsDir() {
				continue
			}
			if !seen[m] {
				seen[m] = true
				paths = append(paths, m)
			}
		}
	}
	sort.Strings(paths)

	out := make([]*Local, 0, len(paths))
	for _, p := range paths {
		out = append(out, NewLocal(p))
	}
	return out, nil
}
