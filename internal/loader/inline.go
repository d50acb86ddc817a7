package loader

import (
	"sort"

	"github.com/opmodel/tk/internal/jsonnet"
	"github.com/opmodel/tk/internal/output"
	"github.com/opmodel/tk/internal/process"
	"github.com/opmodel/tk/internal/spec/v1alpha1"
)

// inlineEnvironmentError is bound to EnvironmentExtCode for inline
// environments, whose definition is only known after evaluation.
const inlineEnvironmentError = `error "Using tk.env and std.extVar('tanka.dev/environment') is only supported for static environments. Directly access this data using standard Jsonnet instead."`

// InlineLoader loads environments defined within the Jsonnet output as
// objects of kind Environment. Their manifests are below `data`.
type InlineLoader struct{}

// Load implements Loader.
func (i InlineLoader) Load(path string, opts Opts) (*v1alpha1.Environment, error) {
	selected, err := i.Peek(path, opts)
	if err != nil {
		return nil, err
	}

	output.Debug("loading inline environment", "path", path, "name", selected.Metadata.Name)
	opts.JsonnetOpts.EvalScript = jsonnet.SingleEnvEvalScript(selected.Metadata.Name)
	envs, err := i.extract(path, opts)
	if err != nil {
		return nil, err
	}

	switch len(envs) {
	case 0:
		return nil, ErrNoEnv{Path: path, Name: selected.Metadata.Name}
	case 1:
		return envs[0], nil
	default:
		return nil, ErrMultipleEnvs{Path: path, Name: selected.Metadata.Name, Names: names(envs)}
	}
}

// Peek implements Loader. Environments are evaluated without their data.
func (i InlineLoader) Peek(path string, opts Opts) (*v1alpha1.Environment, error) {
	envs, err := i.List(path, opts)
	if err != nil {
		return nil, err
	}

	if len(envs) > 1 && opts.Name != "" {
		for _, e := range envs {
			if e.Metadata.Name == opts.Name {
				envs = []*v1alpha1.Environment{e}
				break
			}
		}
	}

	switch len(envs) {
	case 0:
		return nil, ErrNoEnv{Path: path, Name: opts.Name}
	case 1:
		return envs[0], nil
	default:
		return nil, ErrMultipleEnvs{Path: path, Name: opts.Name, Names: names(envs)}
	}
}

// List implements Loader. Only environments whose name contains opts.Name
// are returned.
func (i InlineLoader) List(path string, opts Opts) ([]*v1alpha1.Environment, error) {
	opts.JsonnetOpts.EvalScript = jsonnet.MetadataEvalScript(opts.Name)
	envs, err := i.extract(path, opts)
	if err != nil {
		return nil, err
	}

	for _, e := range envs {
		e.Data = nil
	}
	return envs, nil
}

// Eval implements Loader.
func (i InlineLoader) Eval(path string, opts Opts) (any, error) {
	opts.JsonnetOpts.ExtCode.Set(EnvironmentExtCode, inlineEnvironmentError)
	return evaluate(path, opts.JsonnetOpts)
}

func (i InlineLoader) extract(path string, opts Opts) ([]*v1alpha1.Environment, error) {
	raw, err := i.Eval(path, opts)
	if err != nil {
		return nil, err
	}

	envs, err := process.ExtractEnvironments(raw)
	if err != nil {
		return nil, err
	}

	namespace, err := identifier(path)
	if err != nil {
		return nil, err
	}
	for _, e := range envs {
		e.Metadata.Namespace = namespace
	}
	return envs, nil
}

func names(envs []*v1alpha1.Environment) []string {
	out := make([]string, 0, len(envs))
	for _, e := range envs {
		out = append(out, e.Metadata.Name)
	}
	sort.Strings(out)
	return out
}
