// Package manifest holds the Manifest type: a single declarative resource
// object as produced by evaluating an environment.
package manifest

import (
	"fmt"
	"sort"
	"strings"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"

	oerrors "github.com/opmodel/tk/internal/errors"
)

// Manifest is a resource object. `kind` and `apiVersion` are strings and,
// unless the manifest is a List, `metadata` holds `name` or `generateName`.
type Manifest map[string]any

// New verifies raw and returns it as a Manifest. path is the JSON path of
// raw in the evaluated tree and is reported in errors.
func New(raw map[string]any, path string) (Manifest, error) {
	m := Manifest(raw)
	if err := m.Verify(path); err != nil {
		return nil, err
	}
	return m, nil
}

// Verify checks whether the manifest is correctly structured.
func (m Manifest) Verify(path string) error {
	err := &SchemaError{Path: path, Manifest: m}

	if _, ok := m["kind"].(string); !ok {
		err.add("kind")
	}
	if _, ok := m["apiVersion"].(string); !ok {
		err.add("apiVersion")
	}

	if !m.IsList() {
		md, ok := m["metadata"].(map[string]any)
		if !ok {
			err.add("metadata")
		}
		_, hasName := md["name"].(string)
		_, hasGenerateName := md["generateName"].(string)
		if !hasName && !hasGenerateName {
			err.add("metadata.name")
		}
	}

	if len(err.Fields) == 0 {
		return nil
	}
	return err
}

// IsList reports whether the manifest carries an array of items.
func (m Manifest) IsList() bool {
	_, ok := m["items"].([]any)
	return ok
}

// Kind returns the kind of the object.
func (m Manifest) Kind() string {
	kind, _ := m["kind"].(string)
	return kind
}

// APIVersion returns the apiVersion of the object.
func (m Manifest) APIVersion() string {
	v, _ := m["apiVersion"].(string)
	return v
}

// GroupVersionKind parses apiVersion and kind.
func (m Manifest) GroupVersionKind() schema.GroupVersionKind {
	return schema.FromAPIVersionAndKind(m.APIVersion(), m.Kind())
}

// KindName returns `<kind>/<name>`.
func (m Manifest) KindName() string {
	return fmt.Sprintf("%s/%s", m.Kind(), m.Name())
}

// Name returns the metadata name. Unlike Metadata, it never modifies m.
func (m Manifest) Name() string {
	md, _ := m["metadata"].(map[string]any)
	return Metadata(md).Name()
}

// Namespace returns the metadata namespace. Unlike Metadata, it never
// modifies m.
func (m Manifest) Namespace() string {
	md, _ := m["metadata"].(map[string]any)
	return Metadata(md).Namespace()
}

// Metadata returns the metadata object, creating it when absent.
func (m Manifest) Metadata() Metadata {
	md, ok := m["metadata"].(map[string]any)
	if !ok {
		md = make(map[string]any)
		m["metadata"] = md
	}
	return Metadata(md)
}

// Unstructured wraps the manifest without copying.
func (m Manifest) Unstructured() *unstructured.Unstructured {
	return &unstructured.Unstructured{Object: m}
}

// Metadata is the metadata object of a Manifest.
type Metadata map[string]any

// Name returns metadata.name, or metadata.generateName when unnamed.
func (m Metadata) Name() string {
	if name, ok := m["name"].(string); ok {
		return name
	}
	name, _ := m["generateName"].(string)
	return name
}

// HasNamespace reports whether metadata.namespace is a string.
func (m Metadata) HasNamespace() bool {
	_, ok := m["namespace"].(string)
	return ok
}

// Namespace returns metadata.namespace.
func (m Metadata) Namespace() string {
	ns, _ := m["namespace"].(string)
	return ns
}

// SetNamespace sets metadata.namespace.
func (m Metadata) SetNamespace(ns string) {
	m["namespace"] = ns
}

// Labels returns the string valued labels.
func (m Metadata) Labels() map[string]string {
	return stringMap(m, "labels")
}

// Annotations returns the string valued annotations.
func (m Metadata) Annotations() map[string]string {
	return stringMap(m, "annotations")
}

// SetLabel sets a single label.
func (m Metadata) SetLabel(key, value string) {
	_ = unstructured.SetNestedField(m, value, "labels", key)
}

// SetAnnotation sets a single annotation.
func (m Metadata) SetAnnotation(key, value string) {
	_ = unstructured.SetNestedField(m, value, "annotations", key)
}

func stringMap(m map[string]any, key string) map[string]string {
	out, found, err := unstructured.NestedStringMap(m, key)
	if err != nil || !found {
		return map[string]string{}
	}
	return out
}

// SchemaError reports a manifest missing required fields.
type SchemaError struct {
	// Path is the JSON path of the manifest in the evaluated tree.
	Path     string
	Fields   []string
	Manifest Manifest
}

func (e *SchemaError) add(field string) {
	e.Fields = append(e.Fields, field)
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s: expected fields missing: %s", e.Path, strings.Join(e.Fields, ", "))
}

// Unwrap classifies the error as a validation failure.
func (e *SchemaError) Unwrap() error {
	return oerrors.ErrValidation
}

// List of Manifests.
type List []Manifest

// Names returns the `<kind>/<name>` of every manifest, sorted.
func (l List) Names() []string {
	names := make([]string, len(l))
	for i, m := range l {
		names[i] = m.KindName()
	}
	sort.Strings(names)
	return names
}

// Objects returns the manifests as plain maps.
func (l List) Objects() []map[string]any {
	objs := make([]map[string]any, len(l))
	for i, m := range l {
		objs[i] = m
	}
	return objs
}
