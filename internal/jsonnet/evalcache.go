package jsonnet

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"regexp"
	"slices"

	jsonnet "github.com/google/go-jsonnet"
)

var importsRegexp = regexp.MustCompile(`import(str|bin)?\s+['"]([^'"%()]+)['"]`)

// FileCache stores evaluation results below Directory, one <hash>.json file
// per evaluation.
type FileCache struct {
	Directory string
}

// NewFileCache returns a cache storing its entries in dir. The directory is
// created on the first Store.
func NewFileCache(dir string) *FileCache {
	return &FileCache{Directory: dir}
}

func (c *FileCache) path(hash string) string {
	return filepath.Join(c.Directory, hash+".json")
}

// Get returns the stored result for hash. The bool is false on a miss.
func (c *FileCache) Get(hash string) (string, bool, error) {
	data, err := os.ReadFile(c.path(hash))
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("reading eval cache: %w", err)
	}
	return string(data), true, nil
}

// Store writes content under hash.
func (c *FileCache) Store(hash, content string) error {
	if err := os.MkdirAll(c.Directory, 0o755); err != nil {
		return fmt.Errorf("creating eval cache directory: %w", err)
	}
	if err := os.WriteFile(c.path(hash), []byte(content), 0o644); err != nil {
		return fmt.Errorf("writing eval cache: %w", err)
	}
	return nil
}

// SnippetHash hashes data, the injected code of opts and the content of
// every file data transitively imports, as resolved by vm. Imports that
// cannot be resolved are skipped; the evaluation reports them.
func SnippetHash(vm *jsonnet.VM, path, data string, opts Opts) (string, error) {
	files := map[string]bool{}
	if err := collectImports(files, vm, path, data); err != nil {
		return "", err
	}

	h := sha256.New()
	fmt.Fprintf(h, "%s\x00", data)
	for _, k := range opts.ExtCode.Keys() {
		fmt.Fprintf(h, "ext:%s=%s\x00", k, opts.ExtCode[k])
	}
	for _, k := range opts.TLACode.Keys() {
		fmt.Fprintf(h, "tla:%s=%s\x00", k, opts.TLACode[k])
	}

	for _, file := range slices.Sorted(maps.Keys(files)) {
		content, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("hashing %s: %w", file, err)
		}
		sum := sha256.Sum256(content)
		fmt.Fprintf(h, "%s:%x\x00", file, sum)
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

func collectImports(files map[string]bool, vm *jsonnet.VM, from, content string) error {
	for _, match := range importsRegexp.FindAllStringSubmatch(content, -1) {
		foundAt, err := vm.ResolveImport(from, match[2])
		if err != nil {
			continue
		}

		abs, err := filepath.Abs(foundAt)
		if err != nil {
			return err
		}
		if files[abs] {
			continue
		}
		files[abs] = true

		if match[1] != "" {
			continue
		}

		data, err := os.ReadFile(abs)
		if err != nil {
			return fmt.Errorf("reading import %s: %w", abs, err)
		}
		if err := collectImports(files, vm, abs, string(data)); err != nil {
			return err
		}
	}
	return nil
}
