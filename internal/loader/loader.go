// Package loader finds and evaluates environments. An environment is Static
// when its base directory holds a spec.json, and Inline otherwise, in which
// case its definition is part of the evaluated Jsonnet.
package loader

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	oerrors "github.com/opmodel/tk/internal/errors"
	"github.com/opmodel/tk/internal/jpath"
	"github.com/opmodel/tk/internal/jsonnet"
	"github.com/opmodel/tk/internal/output"
	"github.com/opmodel/tk/internal/spec"
	"github.com/opmodel/tk/internal/spec/v1alpha1"
)

// EnvironmentExtCode is the ext code variable holding the environment
// (without data) during evaluation of a static environment.
const EnvironmentExtCode = "tanka.dev/environment"

// Opts configure loading.
type Opts struct {
	JsonnetOpts jsonnet.Opts

	// Name selects an environment. Inline environments match by substring
	// with an exact match preferred.
	Name string
}

// LoadedEnvironment is a fully evaluated environment.
type LoadedEnvironment struct {
	Env *v1alpha1.Environment

	// Entrypoint is the absolute path of the evaluated file.
	Entrypoint string
}

// Loader is implemented by StaticLoader and InlineLoader.
type Loader interface {
	// Load returns the environment with its data.
	Load(path string, opts Opts) (*v1alpha1.Environment, error)

	// Peek returns the environment without evaluating its data.
	Peek(path string, opts Opts) (*v1alpha1.Environment, error)

	// List returns every environment at path, without data.
	List(path string, opts Opts) ([]*v1alpha1.Environment, error)

	// Eval returns the raw evaluated value.
	Eval(path string, opts Opts) (any, error)
}

// DetectLoader returns the Loader for the environment at path.
func DetectLoader(path string) (Loader, error) {
	_, base, err := jpath.Dirs(path)
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(filepath.Join(base, spec.Specfile)); err == nil {
		return StaticLoader{}, nil
	}
	return InlineLoader{}, nil
}

// Load evaluates the environment at path.
func Load(path string, opts Opts) (*LoadedEnvironment, error) {
	l, err := DetectLoader(path)
	if err != nil {
		return nil, err
	}

	entrypoint, err := jpath.ResolveEntrypoint(path)
	if err != nil {
		return nil, err
	}

	env, err := l.Load(path, opts.clone())
	if err != nil {
		return nil, err
	}

	return &LoadedEnvironment{Env: env, Entrypoint: entrypoint}, nil
}

// Peek returns the environment at path without its data.
func Peek(path string, opts Opts) (*v1alpha1.Environment, error) {
	l, err := DetectLoader(path)
	if err != nil {
		return nil, err
	}
	return l.Peek(path, opts.clone())
}

// List returns all environments at path without their data.
func List(path string, opts Opts) ([]*v1alpha1.Environment, error) {
	l, err := DetectLoader(path)
	if err != nil {
		return nil, err
	}
	return l.List(path, opts.clone())
}

// Eval returns the raw evaluated value of path.
func Eval(path string, opts Opts) (any, error) {
	l, err := DetectLoader(path)
	if err != nil {
		return nil, err
	}
	return l.Eval(path, opts.clone())
}

func (o Opts) clone() Opts {
	o.JsonnetOpts = o.JsonnetOpts.Clone()
	return o
}

// identifier returns the entrypoint of path relative to the project root,
// slash separated. Paths below the base directory yield the identifier of
// the base.
func identifier(path string) (string, error) {
	root, _, err := jpath.Dirs(path)
	if err != nil {
		return "", err
	}

	entrypoint, err := jpath.ResolveEntrypoint(path)
	if err != nil {
		return "", err
	}

	rel, err := filepath.Rel(root, entrypoint)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(rel), nil
}

// evaluate evaluates the entrypoint of path and decodes the JSON result.
func evaluate(path string, opts jsonnet.Opts) (any, error) {
	entrypoint, err := jpath.ResolveEntrypoint(path)
	if err != nil {
		return nil, err
	}

	raw, err := jsonnet.EvaluateFile(entrypoint, opts)
	if err != nil {
		return nil, err
	}

	var data any
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return nil, fmt.Errorf("decoding output of %s: %w: %w", entrypoint, oerrors.ErrEvaluation, err)
	}

	output.Debug("evaluated environment", "path", entrypoint, "bytes", len(raw))
	return data, nil
}

// matchName reports whether name contains filter. An empty filter matches.
func matchName(name, filter string) bool {
	return filter == "" || strings.Contains(name, filter)
}
