package inventory

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	oerrors "github.com/opmodel/tk/internal/errors"
	"github.com/opmodel/tk/internal/output"
)

// DeleteOwned removes the files of dir that s attributes to any of owners
// and returns their state keys. Files already gone are skipped. Directories
// left empty are removed up to dir. Nothing is deleted when a key is absolute
// or leaves dir.
func DeleteOwned(dir string, s State, owners ...string) ([]string, error) {
	paths := s.OwnedBy(owners...)

	for _, rel := range paths {
		if !filepath.IsLocal(filepath.FromSlash(rel)) {
			return nil, fmt.Errorf("%s lists '%s' outside the output dir: %w", StateFile, rel, oerrors.ErrValidation)
		}
	}

	for _, rel := range paths {
		path := filepath.Join(dir, filepath.FromSlash(rel))
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("deleting previously exported %s: %w", rel, err)
		}
		output.Debug("deleted exported file", "path", rel, "env", s[rel])

		if err := removeEmptyParents(dir, filepath.Dir(path)); err != nil {
			return nil, err
		}
	}

	return paths, nil
}

// removeEmptyParents removes dir and its parents while they are empty,
// stopping at root.
func removeEmptyParents(root, dir string) error {
	root = filepath.Clean(root)
	for dir = filepath.Clean(dir); dir != root; dir = filepath.Dir(dir) {
		rel, err := filepath.Rel(root, dir)
		if err != nil || strings.HasPrefix(rel, "..") {
			return nil
		}

		entries, err := os.ReadDir(dir)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return fmt.Errorf("reading %s: %w", dir, err)
		}
		if len(entries) > 0 {
			return nil
		}
		if err := os.Remove(dir); err != nil {
			return fmt.Errorf("removing empty directory %s: %w", dir, err)
		}
	}
	return nil
}
