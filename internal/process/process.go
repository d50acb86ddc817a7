// Package process turns evaluated Jsonnet into environments and manifests:
// it walks the value tree, validates what it finds and applies the
// environment's settings to each manifest.
package process

import (
	"fmt"

	"github.com/opmodel/tk/internal/manifest"
	"github.com/opmodel/tk/internal/spec/v1alpha1"
)

const (
	// MetadataPrefix is the prefix of labels and annotations owned by tk.
	MetadataPrefix = "tanka.dev"

	// LabelEnvironment identifies the owning environment of a manifest.
	LabelEnvironment = MetadataPrefix + "/environment"

	// AnnotationNamespaced set to "false" keeps metadata.namespace unset.
	AnnotationNamespaced = MetadataPrefix + "/namespaced"
)

// Process extracts the manifests from an environment's evaluated data and
// prepares them for output. Every manifest is processed exactly once:
//   - metadata.namespace is back-filled from spec.namespace
//   - spec.resourceDefaults are merged in
//   - the environment label is injected when spec.injectLabels is set
//   - the target expressions are applied
//
// The result is sorted so that dependencies come first.
func Process(env v1alpha1.Environment, exprs Matchers) (manifest.List, error) {
	if env.Data == nil {
		return manifest.List{}, nil
	}

	list, err := Extract(env.Data)
	if err != nil {
		return nil, err
	}

	list = Namespace(list, env.Spec.Namespace)
	list = ResourceDefaults(list, env.Spec.ResourceDefaults)

	list, err = Label(list, env)
	if err != nil {
		return nil, err
	}

	list = Filter(list, exprs)
	Sort(list)

	return list, nil
}

// Namespace sets metadata.namespace on every manifest lacking one, unless
// it is a List or annotated with tanka.dev/namespaced: "false".
func Namespace(list manifest.List, ns string) manifest.List {
	if ns == "" {
		ns = v1alpha1.DefaultNamespace
	}

	for _, m := range list {
		if m.IsList() {
			continue
		}
		md := m.Metadata()
		if md.Annotations()[AnnotationNamespaced] == "false" {
			continue
		}
		if !md.HasNamespace() {
			md.SetNamespace(ns)
		}
	}
	return list
}

// ResourceDefaults merges default labels and annotations into every
// manifest. Keys already set on a manifest win.
func ResourceDefaults(list manifest.List, defaults v1alpha1.ResourceDefaults) manifest.List {
	if len(defaults.Labels) == 0 && len(defaults.Annotations) == 0 {
		return list
	}

	for _, m := range list {
		if m.IsList() {
			continue
		}
		md := m.Metadata()

		labels := md.Labels()
		for k, v := range defaults.Labels {
			if _, ok := labels[k]; !ok {
				md.SetLabel(k, v)
			}
		}

		annotations := md.Annotations()
		for k, v := range defaults.Annotations {
			if _, ok := annotations[k]; !ok {
				md.SetAnnotation(k, v)
			}
		}
	}
	return list
}

// Label injects the tanka.dev/environment label when the environment asks
// for it.
func Label(list manifest.List, env v1alpha1.Environment) (manifest.List, error) {
	if !env.Spec.InjectLabels {
		return list, nil
	}

	value, err := env.NameLabel()
	if err != nil {
		return nil, fmt.Errorf("computing environment label of %s: %w", env.Metadata.Name, err)
	}

	for _, m := range list {
		if m.IsList() {
			continue
		}
		m.Metadata().SetLabel(LabelEnvironment, value)
	}
	return list, nil
}
