package output

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// WriteManifest writes a single object as a YAML document or as indented
// JSON. Any format other than FormatJSON writes YAML.
func WriteManifest(w io.Writer, obj any, format Format) error {
	if format == FormatJSON {
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(obj)
	}

	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	err := encoder.Encode(obj)
	if closeErr := encoder.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	return err
}

// WriteManifests writes objects as a YAML stream separated by `---`, or as
// a JSON array.
func WriteManifests(w io.Writer, objs []map[string]any, format Format) error {
	if len(objs) == 0 {
		return nil
	}

	if format == FormatJSON {
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(objs); err != nil {
			return fmt.Errorf("encoding JSON: %w", err)
		}
		return nil
	}

	// The yaml.v3 encoder adds document separators between documents.
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)

	for i, obj := range objs {
		if err := encoder.Encode(obj); err != nil {
			return fmt.Errorf("encoding document %d: %w", i, err)
		}
	}

	return encoder.Close()
}
