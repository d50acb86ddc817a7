package loader

import (
	"encoding/json"
	"errors"
	"fmt"

	oerrors "github.com/opmodel/tk/internal/errors"
	"github.com/opmodel/tk/internal/jpath"
	"github.com/opmodel/tk/internal/output"
	"github.com/opmodel/tk/internal/spec"
	"github.com/opmodel/tk/internal/spec/v1alpha1"
)

// StaticLoader loads an environment defined by the spec.json next to its
// entrypoint. The Jsonnet output is the environment's data.
type StaticLoader struct{}

// Load implements Loader.
func (s StaticLoader) Load(path string, opts Opts) (*v1alpha1.Environment, error) {
	env, err := s.Peek(path, opts)
	if err != nil {
		return nil, err
	}

	data, err := s.eval(path, env, opts)
	if err != nil {
		return nil, err
	}
	env.Data = data

	return env, nil
}

// Peek implements Loader. Only spec.json is read.
func (s StaticLoader) Peek(path string, opts Opts) (*v1alpha1.Environment, error) {
	env, err := parseStaticSpec(path)
	if err != nil {
		return nil, err
	}

	if !matchName(env.Metadata.Name, opts.Name) {
		return nil, ErrNoEnv{Path: path, Name: opts.Name}
	}
	return env, nil
}

// List implements Loader. The result holds at most one environment.
func (s StaticLoader) List(path string, opts Opts) ([]*v1alpha1.Environment, error) {
	env, err := s.Peek(path, opts)
	if err != nil {
		var noEnv ErrNoEnv
		if errors.As(err, &noEnv) {
			return nil, nil
		}
		return nil, err
	}
	return []*v1alpha1.Environment{env}, nil
}

// Eval implements Loader.
func (s StaticLoader) Eval(path string, opts Opts) (any, error) {
	env, err := parseStaticSpec(path)
	if err != nil {
		return nil, err
	}
	return s.eval(path, env, opts)
}

func (s StaticLoader) eval(path string, env *v1alpha1.Environment, opts Opts) (any, error) {
	code, err := json.Marshal(env.WithoutData())
	if err != nil {
		return nil, fmt.Errorf("encoding environment %s: %w", env.Metadata.Name, err)
	}
	opts.JsonnetOpts.ExtCode.Set(EnvironmentExtCode, string(code))

	return evaluate(path, opts.JsonnetOpts)
}

// parseStaticSpec reads the spec.json of the environment at path.
func parseStaticSpec(path string) (*v1alpha1.Environment, error) {
	_, base, err := jpath.Dirs(path)
	if err != nil {
		return nil, err
	}

	namespace, err := identifier(path)
	if err != nil {
		return nil, err
	}

	env, err := spec.ParseDir(base)
	if err != nil {
		var deprecated spec.ErrDeprecated
		if !errors.As(err, &deprecated) || env == nil {
			return nil, fmt.Errorf("%w: %w", err, oerrors.ErrConfig)
		}
		output.Warn("deprecated keys in "+spec.Specfile, "dir", base, "detail", deprecated.Error())
	}

	env.Metadata.Namespace = namespace
	return env, nil
}
