// Package v1alpha1 holds the tanka.dev/v1alpha1 Environment type.
package v1alpha1

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
)

const (
	// APIVersion of every Environment.
	APIVersion = "tanka.dev/v1alpha1"
	// Kind of every Environment.
	Kind = "Environment"

	// DefaultNamespace is used when spec.namespace is unset.
	DefaultNamespace = "default"
)

// New creates an Environment with the constant fields and defaults set.
func New() *Environment {
	e := Environment{}

	e.APIVersion = APIVersion
	e.Kind = Kind
	e.Spec.Namespace = DefaultNamespace
	e.Metadata.Labels = make(map[string]string)

	return &e
}

// Environment is a set of resources deployed to one cluster namespace,
// together with the settings used to process them.
type Environment struct {
	APIVersion string   `json:"apiVersion"`
	Kind       string   `json:"kind"`
	Metadata   Metadata `json:"metadata"`
	Spec       Spec     `json:"spec"`

	// Data is the evaluated output. It is only set by full loads.
	Data any `json:"data,omitempty"`
}

// Metadata identifies an environment.
type Metadata struct {
	Name string `json:"name,omitempty"`

	// Namespace is the environment identifier: the entrypoint path
	// relative to the project root, slash separated. It has nothing to do
	// with the cluster namespace in spec.namespace.
	Namespace string            `json:"namespace,omitempty"`
	Labels    map[string]string `json:"labels,omitempty"`
}

// Has implements labels.Labels.
func (m Metadata) Has(label string) (exists bool) {
	_, exists = m.Labels[label]
	return exists
}

// Get implements labels.Labels.
func (m Metadata) Get(label string) (value string) {
	return m.Labels[label]
}

// Lookup implements labels.Labels.
func (m Metadata) Lookup(label string) (value string, exists bool) {
	value, exists = m.Labels[label]
	return value, exists
}

// Spec holds the settings applied to the environment's manifests.
type Spec struct {
	APIServer     string   `json:"apiServer,omitempty"`
	ContextNames  []string `json:"contextNames,omitempty"`
	Namespace     string   `json:"namespace"`
	DiffStrategy  string   `json:"diffStrategy,omitempty"`
	ApplyStrategy string   `json:"applyStrategy,omitempty"`
	InjectLabels  bool     `json:"injectLabels,omitempty"`

	// LabelFromFields lists the dotted environment fields hashed into
	// the injected environment label. Defaults to name and namespace.
	LabelFromFields []string `json:"tankaEnvLabelFromFields,omitempty" mapstructure:"tankaEnvLabelFromFields"`

	ResourceDefaults ResourceDefaults `json:"resourceDefaults"`
	ExpectVersions   ExpectVersions   `json:"expectVersions"`
}

// ExpectVersions holds semantic version constraints.
type ExpectVersions struct {
	Tanka string `json:"tanka,omitempty"`
}

// ResourceDefaults are merged into every manifest of the environment.
type ResourceDefaults struct {
	Annotations map[string]string `json:"annotations,omitempty"`
	Labels      map[string]string `json:"labels,omitempty"`
}

// WithoutData returns a shallow copy with Data cleared.
func (e Environment) WithoutData() *Environment {
	e.Data = nil
	return &e
}

// Map returns the environment without data as a generic JSON object.
func (e Environment) Map() (map[string]any, error) {
	data, err := json.Marshal(e.WithoutData())
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// NameLabel returns the value of the label identifying the environment on
// its manifests: the first 48 hex characters of a sha256 over the fields
// named in spec.tankaEnvLabelFromFields, or over "name:namespace".
func (e Environment) NameLabel() (string, error) {
	parts := []string{e.Metadata.Name, e.Metadata.Namespace}

	if len(e.Spec.LabelFromFields) > 0 {
		m, err := e.Map()
		if err != nil {
			return "", err
		}

		parts = parts[:0]
		for _, field := range e.Spec.LabelFromFields {
			v, err := lookupField(m, field)
			if err != nil {
				return "", err
			}
			parts = append(parts, v)
		}
	}

	sum := sha256.Sum256([]byte(strings.Join(parts, ":")))
	return hex.EncodeToString(sum[:])[:48], nil
}

// lookupField resolves a path like `.metadata.labels.team` to a primitive.
func lookupField(m map[string]any, field string) (string, error) {
	var current any = m
	for _, key := range strings.Split(strings.TrimPrefix(field, "."), ".") {
		obj, ok := current.(map[string]any)
		if !ok {
			return "", fmt.Errorf("label field %q: cannot descend into non-object at %q", field, key)
		}
		current, ok = obj[key]
		if !ok {
			return "", fmt.Errorf("label field %q: %q not found", field, key)
		}
	}

	switch v := current.(type) {
	case string:
		return v, nil
	case bool, float64:
		return fmt.Sprint(v), nil
	default:
		return "", fmt.Errorf("label field %q is not a primitive value", field)
	}
}
