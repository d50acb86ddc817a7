// Package spec parses and validates environment definitions, both from a
// static spec.json and from environment objects found in evaluated Jsonnet.
package spec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	oerrors "github.com/opmodel/tk/internal/errors"
	"github.com/opmodel/tk/internal/spec/v1alpha1"
)

// Specfile is the name of a static environment's definition.
const Specfile = "spec.json"

// ErrNoSpec is returned when a directory holds no spec.json.
type ErrNoSpec struct {
	Dir string
}

func (e ErrNoSpec) Error() string {
	return fmt.Sprintf("no %s found in %s", Specfile, e.Dir)
}

// Unwrap classifies the error as not found.
func (e ErrNoSpec) Unwrap() error {
	return oerrors.ErrNotFound
}

// Parse parses spec.json content into an Environment named after baseDir.
// Deprecated keys are honored; when any are present the Environment is
// returned together with an ErrDeprecated.
func Parse(data []byte, baseDir string) (*v1alpha1.Environment, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing %s in %s: %w: %w", Specfile, baseDir, oerrors.ErrConfig, err)
	}
	if raw == nil {
		raw = make(map[string]any)
	}

	v := viper.New()
	v.SetConfigType("json")
	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("parsing %s in %s: %w: %w", Specfile, baseDir, oerrors.ErrConfig, err)
	}

	var errDepr ErrDeprecated
	for _, d := range deprecated {
		if v.IsSet(d.old) && !v.IsSet(d.new) {
			errDepr = append(errDepr, d)
			setPath(raw, d.new, v.Get(d.old))
		}
	}

	if err := Validate(raw); err != nil {
		return nil, fmt.Errorf("%s in %s: %w", Specfile, baseDir, err)
	}

	env, err := decode(raw)
	if err != nil {
		return nil, fmt.Errorf("decoding %s in %s: %w: %w", Specfile, baseDir, oerrors.ErrConfig, err)
	}
	env.Metadata.Name = filepath.Base(baseDir)

	if errDepr != nil {
		return env, errDepr
	}
	return env, nil
}

// ParseDir parses the spec.json inside baseDir.
func ParseDir(baseDir string) (*v1alpha1.Environment, error) {
	fi, err := os.Stat(baseDir)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", oerrors.ErrNotFound, err)
	}
	if !fi.IsDir() {
		return nil, fmt.Errorf("%s is not a directory: %w", baseDir, oerrors.ErrConfig)
	}

	data, err := os.ReadFile(filepath.Join(baseDir, Specfile))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNoSpec{Dir: baseDir}
		}
		return nil, fmt.Errorf("reading %s: %w", Specfile, err)
	}

	return Parse(data, baseDir)
}

// Decode validates an environment object found in evaluated Jsonnet and
// converts it to an Environment. Data is carried over without copying.
func Decode(obj map[string]any) (*v1alpha1.Environment, error) {
	if err := Validate(obj); err != nil {
		return nil, err
	}
	env, err := decode(obj)
	if err != nil {
		return nil, fmt.Errorf("decoding environment: %w: %w", oerrors.ErrValidation, err)
	}
	return env, nil
}

func decode(obj map[string]any) (*v1alpha1.Environment, error) {
	withoutData := make(map[string]any, len(obj))
	for k, val := range obj {
		if k != "data" {
			withoutData[k] = val
		}
	}

	data, err := json.Marshal(withoutData)
	if err != nil {
		return nil, err
	}

	env := v1alpha1.New()
	if err := json.Unmarshal(data, env); err != nil {
		return nil, err
	}
	if env.Spec.Namespace == "" {
		env.Spec.Namespace = v1alpha1.DefaultNamespace
	}
	if env.Metadata.Labels == nil {
		env.Metadata.Labels = make(map[string]string)
	}
	env.Data = obj["data"]
	return env, nil
}

// setPath sets a dotted path in a nested map, creating objects on the way.
func setPath(m map[string]any, path string, value any) {
	keys := strings.Split(path, ".")
	for _, k := range keys[:len(keys)-1] {
		next, ok := m[k].(map[string]any)
		if !ok {
			next = make(map[string]any)
			m[k] = next
		}
		m = next
	}
	m[keys[len(keys)-1]] = value
}
