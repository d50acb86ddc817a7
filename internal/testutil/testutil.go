// Package testutil provides helpers for building Jsonnet project trees in
// tests.
package testutil

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"testing"
)

// WriteFile creates a file with the given content in the specified directory.
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("failed to create parent dirs for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write file %s: %v", path, err)
	}
	return path
}

// Project writes a project tree rooted at a fresh temporary directory. The
// root is marked with an empty jsonnetfile.json unless files names a root
// marker itself. Keys are slash separated paths relative to the root.
func Project(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()

	_, hasTkrc := files["tkrc.yaml"]
	_, hasJsonnetfile := files["jsonnetfile.json"]
	if !hasTkrc && !hasJsonnetfile {
		WriteFile(t, root, "jsonnetfile.json", "{}")
	}

	for name, content := range files {
		WriteFile(t, root, filepath.FromSlash(name), content)
	}
	return root
}

// ReadFile returns the content of dir/name.
func ReadFile(t *testing.T, dir, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(name)))
	if err != nil {
		t.Fatalf("failed to read file %s: %v", name, err)
	}
	return string(data)
}

// ListFiles returns every regular file below dir as a sorted list of slash
// separated relative paths.
func ListFiles(t *testing.T, dir string) []string {
	t.Helper()
	files := []string{}
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		t.Fatalf("failed to list %s: %v", dir, err)
	}
	sort.Strings(files)
	return files
}
