package export

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"

	"github.com/gobwas/glob"
	"golang.org/x/sync/errgroup"
	"k8s.io/apimachinery/pkg/labels"

	oerrors "github.com/opmodel/tk/internal/errors"
	"github.com/opmodel/tk/internal/jpath"
	"github.com/opmodel/tk/internal/jsonnet"
	"github.com/opmodel/tk/internal/loader"
	"github.com/opmodel/tk/internal/output"
	"github.com/opmodel/tk/internal/spec/v1alpha1"
)

// DefaultParallelism is the worker pool size when none is configured.
const DefaultParallelism = 8

// Target is an environment selected for export.
type Target struct {
	// Path is the absolute entrypoint of the environment.
	Path string
	Env  *v1alpha1.Environment
}

// DiscoverOpts configure Discover.
type DiscoverOpts struct {
	// Recursive walks the given paths for entrypoints. Otherwise exactly
	// one path naming one environment is expected.
	Recursive bool

	// Name filters environments by substring.
	Name string

	// Selector filters environments by their labels in recursive mode.
	Selector labels.Selector

	// Excludes are glob patterns of paths, relative to the walked path,
	// that are skipped in recursive mode.
	Excludes []string

	Parallelism int
	Jsonnet     jsonnet.Opts
}

// Discover returns the environments at paths, sorted by identifier and name.
func Discover(ctx context.Context, paths []string, opts DiscoverOpts) ([]Target, error) {
	if !opts.Recursive {
		if len(paths) != 1 {
			return nil, oerrors.NewConfigError(
				fmt.Sprintf("expected exactly one environment path, got %d", len(paths)),
				"",
				"use --recursive to export several environments",
			)
		}
		return discoverSingle(paths[0], opts)
	}

	entrypoints, err := findEntrypoints(paths, opts.Excludes)
	if err != nil {
		return nil, err
	}
	output.Debug("found entrypoints", "count", len(entrypoints))

	return listEntrypoints(ctx, entrypoints, opts)
}

func discoverSingle(path string, opts DiscoverOpts) ([]Target, error) {
	entrypoint, err := jpath.ResolveEntrypoint(path)
	if err != nil {
		return nil, err
	}

	env, err := loader.Peek(entrypoint, loader.Opts{JsonnetOpts: opts.Jsonnet, Name: opts.Name})
	if err != nil {
		return nil, err
	}
	return []Target{{Path: entrypoint, Env: env}}, nil
}

// findEntrypoints walks paths for files named jpath.DefaultEntrypoint.
func findEntrypoints(paths []string, excludes []string) ([]string, error) {
	globs := make([]glob.Glob, 0, len(excludes))
	for _, e := range excludes {
		g, err := glob.Compile(filepath.ToSlash(e), '/')
		if err != nil {
			return nil, oerrors.NewConfigError(fmt.Sprintf("invalid exclude pattern %q: %v", e, err), "", "")
		}
		globs = append(globs, g)
	}

	excluded := func(rel string) bool {
		for _, g := range globs {
			if g.Match(rel) {
				return true
			}
		}
		return false
	}

	seen := make(map[string]struct{})
	var found []string

	for _, root := range paths {
		abs, err := filepath.Abs(root)
		if err != nil {
			return nil, err
		}

		err = filepath.WalkDir(abs, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return fmt.Errorf("%w: %w", oerrors.ErrNotFound, err)
			}

			rel, err := filepath.Rel(abs, path)
			if err != nil {
				return err
			}
			if rel != "." && excluded(filepath.ToSlash(rel)) {
				output.Debug("excluded from discovery", "path", path)
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}

			if d.IsDir() || d.Name() != jpath.DefaultEntrypoint {
				return nil
			}
			if _, ok := seen[path]; !ok {
				seen[path] = struct{}{}
				found = append(found, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("searching %s for environments: %w", root, err)
		}
	}

	sort.Strings(found)
	return found, nil
}

// listEntrypoints lists the environments of every entrypoint concurrently.
// An entrypoint failing to list is skipped, unless it is the only one.
func listEntrypoints(ctx context.Context, entrypoints []string, opts DiscoverOpts) ([]Target, error) {
	results := make([][]*v1alpha1.Environment, len(entrypoints))
	errs := make([]error, len(entrypoints))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelism(opts.Parallelism, len(entrypoints)))

	for i, entrypoint := range entrypoints {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			envs, err := loader.List(entrypoint, loader.Opts{JsonnetOpts: opts.Jsonnet, Name: opts.Name})
			if err != nil {
				errs[i] = fmt.Errorf("%s: %w", entrypoint, err)
				return nil
			}
			results[i] = envs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if len(entrypoints) == 1 && errs[0] != nil {
		return nil, errs[0]
	}

	seen := make(map[string]struct{})
	var targets []Target
	for i, envs := range results {
		if errs[i] != nil {
			output.Warn("skipping environment", "path", entrypoints[i], "err", errs[i])
			continue
		}

		for _, env := range envs {
			if opts.Selector != nil && !opts.Selector.Empty() && !opts.Selector.Matches(env.Metadata) {
				output.Debug("environment not selected", "env", env.Metadata.Name, "labels", env.Metadata.Labels)
				continue
			}

			key := env.Metadata.Namespace + "\x00" + env.Metadata.Name
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			targets = append(targets, Target{Path: entrypoints[i], Env: env})
		}
	}

	sort.SliceStable(targets, func(i, j int) bool {
		if targets[i].Env.Metadata.Namespace != targets[j].Env.Metadata.Namespace {
			return targets[i].Env.Metadata.Namespace < targets[j].Env.Metadata.Namespace
		}
		return targets[i].Env.Metadata.Name < targets[j].Env.Metadata.Name
	})
	return targets, nil
}

// parallelism bounds n to [1, jobs], defaulting to DefaultParallelism.
func parallelism(n, jobs int) int {
	if n <= 0 {
		n = DefaultParallelism
	}
	if jobs > 0 && n > jobs {
		n = jobs
	}
	return n
}
