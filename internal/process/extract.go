package process

import (
	"fmt"
	"sort"
	"strings"

	oerrors "github.com/opmodel/tk/internal/errors"
	"github.com/opmodel/tk/internal/manifest"
	"github.com/opmodel/tk/internal/output"
	"github.com/opmodel/tk/internal/spec"
	"github.com/opmodel/tk/internal/spec/v1alpha1"
)

// isManifestNode reports whether obj carries both apiVersion and kind keys.
// Such nodes are leaves: nothing below them is walked.
func isManifestNode(obj map[string]any) bool {
	_, hasAPIVersion := obj["apiVersion"]
	_, hasKind := obj["kind"]
	return hasAPIVersion && hasKind
}

// sortedKeys returns the keys of obj in the evaluator's emission order.
func sortedKeys(obj map[string]any) []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ExtractEnvironments returns every Environment object in the evaluated
// tree, depth first. Objects of other kinds and primitive values are
// skipped. An environment failing to decode is skipped too, unless it is
// the only one in the tree.
func ExtractEnvironments(raw any) ([]*v1alpha1.Environment, error) {
	var (
		envs     []*v1alpha1.Environment
		failures []error
		found    int
	)

	var walk func(node any, path trace)
	walk = func(node any, path trace) {
		switch v := node.(type) {
		case map[string]any:
			if isManifestNode(v) {
				if v["kind"] != v1alpha1.Kind {
					return
				}
				found++
				env, err := spec.Decode(v)
				if err != nil {
					output.Debug("skipping environment", "path", path.Full(), "err", err)
					failures = append(failures, fmt.Errorf("environment at %s: %w", path.Full(), err))
					return
				}
				envs = append(envs, env)
				return
			}
			for _, key := range sortedKeys(v) {
				walk(v[key], append(path, key))
			}
		case []any:
			for i, item := range v {
				walk(item, append(path, fmt.Sprintf("[%d]", i)))
			}
		}
	}
	walk(raw, nil)

	if found == 1 && len(failures) == 1 {
		return nil, failures[0]
	}
	return envs, nil
}

// Extract flattens the evaluated tree into the manifests it contains, in
// walk order. Arrays are flattened and null values skipped. Any other
// primitive where an object was expected is an ErrorPrimitiveReached.
func Extract(raw any) (manifest.List, error) {
	var list manifest.List
	if err := walkJSON(raw, &list, nil); err != nil {
		return nil, err
	}
	return list, nil
}

func walkJSON(node any, list *manifest.List, path trace) error {
	switch v := node.(type) {
	case map[string]any:
		return walkObj(v, list, path)
	case []any:
		for i, item := range v {
			if item == nil {
				continue
			}
			if err := walkJSON(item, list, append(path, fmt.Sprintf("[%d]", i))); err != nil {
				return err
			}
		}
		return nil
	}

	return ErrorPrimitiveReached{
		Path:      path.Base(),
		Key:       path.Name(),
		Primitive: node,
	}
}

func walkObj(obj map[string]any, list *manifest.List, path trace) error {
	if isManifestNode(obj) {
		m, err := manifest.New(obj, path.Full())
		if err != nil {
			return err
		}
		*list = append(*list, m)
		return nil
	}

	for _, key := range sortedKeys(obj) {
		// null results from a false condition in Jsonnet
		if obj[key] == nil {
			continue
		}
		if err := walkJSON(obj[key], list, append(path, key)); err != nil {
			return err
		}
	}
	return nil
}

// trace is the JSON path of a node as a list of keys and [index] segments.
type trace []string

// Full returns the dotted path, e.g. `.web.deployment`.
func (t trace) Full() string {
	return "." + strings.Join(t, ".")
}

// Base returns the path of the parent.
func (t trace) Base() string {
	if len(t) > 0 {
		t = t[:len(t)-1]
	}
	return "." + strings.Join(t, ".")
}

// Name returns the last segment.
func (t trace) Name() string {
	if len(t) > 0 {
		return t[len(t)-1]
	}
	return ""
}

// ErrorPrimitiveReached occurs when the walk reaches a primitive value
// where an object holding manifests was expected.
type ErrorPrimitiveReached struct {
	Path, Key string
	Primitive any
}

func (e ErrorPrimitiveReached) Error() string {
	return fmt.Sprintf("recursion did not resolve in a valid manifest: in path `%s` found key `%s` of type `%T` instead",
		e.Path, e.Key, e.Primitive)
}

// Unwrap classifies the error as a validation failure.
func (e ErrorPrimitiveReached) Unwrap() error {
	return oerrors.ErrValidation
}
