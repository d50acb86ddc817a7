// Package jpath locates the project root and the environment base directory
// of an entrypoint and builds the Jsonnet import path from them.
package jpath

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"slices"

	oerrors "github.com/opmodel/tk/internal/errors"
)

// DefaultEntrypoint is the file evaluated when a directory is given.
const DefaultEntrypoint = "main.jsonnet"

// RootMarkers mark the project root, in order of priority.
var RootMarkers = []string{"tkrc.yaml", "jsonnetfile.json"}

// Resolve the given path and resolves the import path around it. This means it:
//   - figures out the project root (the one with tkrc.yaml or jsonnetfile.json)
//   - figures out the environment's base directory (the one holding the entrypoint)
//
// The returned import path is consumed by go-jsonnet's FileImporter, which
// searches it from the last entry backwards: base, root/lib, base/vendor,
// root/vendor.
func Resolve(path string) (jpath []string, base, root string, err error) {
	root, base, err = Dirs(path)
	if err != nil {
		return nil, "", "", err
	}

	return []string{
		filepath.Join(root, "vendor"),
		filepath.Join(base, "vendor"),
		filepath.Join(root, "lib"),
		base,
	}, base, root, nil
}

// Dirs returns the project root and the environment base directory of path.
func Dirs(path string) (root, base string, err error) {
	entrypoint, err := Entrypoint(path)
	if err != nil {
		return "", "", err
	}

	root, err = FindRoot(filepath.Dir(entrypoint))
	if err != nil {
		return "", "", err
	}

	base, err = FindBase(path, root)
	if err != nil {
		return "", "", err
	}

	return root, base, nil
}

// FindBase returns the nearest directory at or above the entrypoint, not
// above root, that contains a file named like the entrypoint.
func FindBase(path, root string) (string, error) {
	entrypoint, err := Entrypoint(path)
	if err != nil {
		return "", err
	}

	filename := filepath.Base(entrypoint)
	base, err := FindParentFile(filename, filepath.Dir(entrypoint), root)
	if err != nil {
		if _, ok := err.(ErrorFileNotFound); ok {
			return "", ErrorNoBase{Filename: filename}
		}
		return "", err
	}
	return base, nil
}

// FindRoot searches for the project root by the markers in RootMarkers.
// tkrc.yaml is considered first, for a jsonnet-bundler independent way of
// marking the root; jsonnetfile.json is used otherwise.
func FindRoot(start string) (string, error) {
	start, err := filepath.Abs(start)
	if err != nil {
		return "", err
	}

	stop := "/"
	if runtime.GOOS == "windows" {
		stop = filepath.VolumeName(start) + "\\"
	}

	for _, marker := range RootMarkers {
		root, err := FindParentFile(marker, start, stop)
		if err == nil {
			return root, nil
		}
		if _, ok := err.(ErrorFileNotFound); !ok {
			return "", err
		}
	}

	return "", ErrorNoRoot{Start: start}
}

// FindParentFile traverses the parent directory tree for the given file,
// starting from start and ending in stop.
func FindParentFile(file, start, stop string) (string, error) {
	for {
		entries, err := os.ReadDir(start)
		if err != nil {
			return "", fmt.Errorf("reading %s: %w", start, err)
		}

		if slices.ContainsFunc(entries, func(e os.DirEntry) bool { return e.Name() == file }) {
			return start, nil
		}

		parent := filepath.Dir(start)
		if start == stop || parent == start {
			return "", ErrorFileNotFound{Filename: file}
		}
		start = parent
	}
}

// Entrypoint returns the absolute path of the file to evaluate. Directories
// resolve to their DefaultEntrypoint.
func Entrypoint(path string) (string, error) {
	entrypoint, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}

	stat, err := os.Stat(entrypoint)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %w", ErrorFileNotFound{Filename: entrypoint}, oerrors.ErrConfig)
		}
		return "", err
	}
	if !stat.IsDir() {
		return entrypoint, nil
	}

	return filepath.Join(entrypoint, DefaultEntrypoint), nil
}

// ResolveEntrypoint returns the absolute entrypoint of the environment at
// path, located in its base directory.
func ResolveEntrypoint(path string) (string, error) {
	entrypoint, err := Entrypoint(path)
	if err != nil {
		return "", err
	}
	_, base, err := Dirs(path)
	if err != nil {
		return "", err
	}
	return filepath.Join(base, filepath.Base(entrypoint)), nil
}
