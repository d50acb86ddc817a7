// Package export writes the manifests of environments to a directory, one
// file per manifest, and records which environment owns each file so later
// runs can merge into or clean up the directory.
package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/opmodel/tk/internal/config"
	oerrors "github.com/opmodel/tk/internal/errors"
	"github.com/opmodel/tk/internal/inventory"
	"github.com/opmodel/tk/internal/jsonnet"
	"github.com/opmodel/tk/internal/loader"
	"github.com/opmodel/tk/internal/output"
	"github.com/opmodel/tk/internal/process"
)

// MergeStrategy controls how an export treats a non-empty output directory.
type MergeStrategy string

const (
	// MergeStrategyNone fails when the output directory is not empty.
	MergeStrategyNone MergeStrategy = ""

	// MergeStrategyFailConflicts fails when an exported file already exists.
	MergeStrategyFailConflicts MergeStrategy = "fail-on-conflicts"

	// MergeStrategyReplaceEnvs deletes the files previously exported by
	// the exported environments before writing.
	MergeStrategyReplaceEnvs MergeStrategy = "replace-envs"
)

// ParseMergeStrategy validates s.
func ParseMergeStrategy(s string) (MergeStrategy, error) {
	switch MergeStrategy(s) {
	case MergeStrategyNone, MergeStrategyFailConflicts, MergeStrategyReplaceEnvs:
		return MergeStrategy(s), nil
	}
	return "", oerrors.NewConfigError(
		fmt.Sprintf("invalid merge strategy %q", s),
		"",
		"valid strategies are fail-on-conflicts and replace-envs",
	)
}

// Opts configure Export.
type Opts struct {
	// Format is the filename template. Defaults to
	// config.DefaultFilenameFormat.
	Format string

	// Extension of exported files. "json" writes JSON, anything else YAML.
	Extension string

	MergeStrategy MergeStrategy

	// MergeDeletedEnvs lists identifiers of environments whose previously
	// exported files are deleted.
	MergeDeletedEnvs []string

	// SkipManifest disables writing the state file.
	SkipManifest bool

	Parallelism int

	// Targets filter the exported manifests by `Kind/name`.
	Targets process.Matchers

	Jsonnet jsonnet.Opts
}

// Result summarizes an export.
type Result struct {
	// Files maps the written files to their owning environment.
	Files inventory.State

	// Deleted lists the state keys of files deleted by this run.
	Deleted []string

	Envs int
}

// Export writes the manifests of targets below dir.
func Export(ctx context.Context, dir string, targets []Target, opts Opts) (*Result, error) {
	if _, err := ParseMergeStrategy(string(opts.MergeStrategy)); err != nil {
		return nil, err
	}
	if opts.Format == "" {
		opts.Format = config.DefaultFilenameFormat
	}
	if opts.Extension == "" {
		opts.Extension = "yaml"
	}

	if err := CheckDir(dir, opts.MergeStrategy); err != nil {
		return nil, err
	}

	state, err := inventory.Read(dir)
	if err != nil {
		return nil, err
	}
	output.Debug("read export state", "files", len(state), "envs", state.Owners())

	var deleted []string
	if opts.MergeStrategy == MergeStrategyReplaceEnvs {
		owners := make([]string, 0, len(targets))
		for _, t := range targets {
			owners = append(owners, t.Env.Metadata.Namespace)
		}
		keys, err := inventory.DeleteOwned(dir, state, owners...)
		if err != nil {
			return nil, err
		}
		deleted = append(deleted, keys...)
	}
	if len(opts.MergeDeletedEnvs) > 0 {
		keys, err := inventory.DeleteOwned(dir, state, opts.MergeDeletedEnvs...)
		if err != nil {
			return nil, err
		}
		deleted = append(deleted, keys...)
	}
	if len(deleted) > 0 {
		output.Info("deleted previously exported files", "count", len(deleted))
	}

	files, err := exportParallel(ctx, dir, targets, opts)
	if err != nil {
		return nil, err
	}

	if !opts.SkipManifest && (len(files) > 0 || len(deleted) > 0) {
		if err := state.Merge(files, deleted).Write(dir); err != nil {
			return nil, err
		}
	}

	return &Result{Files: files, Deleted: deleted, Envs: len(targets)}, nil
}

// exportParallel exports targets on a pool of workers, each owning an
// evaluator cache. The first failure stops the pool.
func exportParallel(ctx context.Context, dir string, targets []Target, opts Opts) (inventory.State, error) {
	var (
		mu     sync.Mutex
		files  = inventory.State{}
		claims = newRegistry()
	)

	jobs := make(chan Target)
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(jobs)
		for _, t := range targets {
			select {
			case jobs <- t:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})

	workers := parallelism(opts.Parallelism, len(targets))
	output.Debug("exporting environments", "envs", len(targets), "parallelism", workers)

	for range workers {
		g.Go(func() error {
			w := &worker{dir: dir, opts: opts, cache: jsonnet.NewCache(), claims: claims}
			for t := range jobs {
				if err := ctx.Err(); err != nil {
					return err
				}
				written, err := w.export(t)
				if err != nil {
					return err
				}

				mu.Lock()
				for k, v := range written {
					files[k] = v
				}
				mu.Unlock()
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return files, nil
}

type worker struct {
	dir    string
	opts   Opts
	cache  *jsonnet.Cache
	claims *registry
}

// export loads and writes one environment and returns the written files.
func (w *worker) export(t Target) (inventory.State, error) {
	log := output.EnvLogger(t.Env.Metadata.Name)
	log.Debug("loading", "path", t.Path)

	jopts := w.opts.Jsonnet.Clone()
	jopts.Cache = w.cache

	loaded, err := loader.Load(t.Path, loader.Opts{JsonnetOpts: jopts, Name: t.Env.Metadata.Name})
	if err != nil {
		return nil, fmt.Errorf("loading environment %s: %w", t.Env.Metadata.Name, err)
	}
	env := loaded.Env

	list, err := process.Process(*env, w.opts.Targets)
	if err != nil {
		return nil, fmt.Errorf("processing environment %s: %w", env.Metadata.Name, err)
	}

	tmpl, err := NewFilenameTemplate(w.opts.Format, w.opts.Extension, env)
	if err != nil {
		return nil, err
	}

	format := output.FormatYAML
	if w.opts.Extension == "json" {
		format = output.FormatJSON
	}

	written := inventory.State{}
	for _, m := range list {
		rel, err := tmpl.Render(m)
		if err != nil {
			return nil, fmt.Errorf("environment %s: %w", env.Metadata.Name, err)
		}
		key := filepath.ToSlash(rel)

		owner := env.Metadata.Name + ": " + m.KindName()
		if prev, ok := w.claims.claim(key, owner); !ok {
			return nil, oerrors.NewConflictError(
				fmt.Sprintf("%s and %s both render to '%s'", prev, owner, key),
				key,
			)
		}

		path := filepath.Join(w.dir, rel)
		if w.opts.MergeStrategy == MergeStrategyFailConflicts {
			exists, err := fileExists(path)
			if err != nil {
				return nil, err
			}
			if exists {
				return nil, oerrors.NewConflictError(fmt.Sprintf("file '%s' already exists. Aborting", path), path)
			}
		}

		var buf bytes.Buffer
		if err := output.WriteManifest(&buf, map[string]any(m), format); err != nil {
			return nil, fmt.Errorf("encoding %s: %w", m.KindName(), err)
		}
		if err := writeExportFile(path, buf.Bytes()); err != nil {
			return nil, err
		}

		log.Debug("wrote", "file", key)
		written[key] = env.Metadata.Namespace
	}

	log.Info("exported", "files", len(written))
	return written, nil
}

// registry records which manifest claimed each output path during a run.
type registry struct {
	mu     sync.Mutex
	owners map[string]string
}

func newRegistry() *registry {
	return &registry{owners: make(map[string]string)}
}

// claim records owner for path. When path is already claimed, the previous
// owner is returned with false.
func (r *registry) claim(path, owner string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, ok := r.owners[path]; ok {
		return prev, false
	}
	r.owners[path] = owner
	return "", true
}

func fileExists(path string) (bool, error) {
	_, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// dirEmpty reports whether dir is empty, creating it when missing.
// CheckDir creates dir when missing and fails with ErrConflict when it is
// not empty and strategy is MergeStrategyNone. Export runs it too; callers
// use it to fail before discovering environments.
func CheckDir(dir string, strategy MergeStrategy) error {
	empty, err := dirEmpty(dir)
	if err != nil {
		return fmt.Errorf("checking output dir: %w", err)
	}
	if !empty && strategy == MergeStrategyNone {
		return oerrors.NewConflictError(
			fmt.Sprintf("output dir `%s` not empty. Pass a different --merge-strategy to ignore this", dir),
			dir,
		)
	}
	return nil
}

func dirEmpty(dir string) (bool, error) {
	f, err := os.Open(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return true, os.MkdirAll(dir, 0o755)
	}
	if err != nil {
		return false, err
	}
	defer f.Close()

	_, err = f.Readdirnames(1)
	if errors.Is(err, io.EOF) {
		return true, nil
	}
	return false, err
}

func writeExportFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating directory '%s': %w", filepath.Dir(path), err)
	}
	return os.WriteFile(path, data, 0o644)
}
