// Package native provides the Go functions callable from Jsonnet through
// std.native.
package native

import (
	"bytes"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	jsonnet "github.com/google/go-jsonnet"
	"github.com/google/go-jsonnet/ast"
	"gopkg.in/yaml.v3"
	k8syaml "sigs.k8s.io/yaml"
)

// Funcs returns the native functions registered on every VM.
func Funcs() []*jsonnet.NativeFunction {
	return []*jsonnet.NativeFunction{
		parseJSON(),
		parseYAML(),

		manifestJSONFromJSON(),
		manifestYAMLFromJSON(),

		escapeStringRegex(),
		regexMatch(),
		regexSubst(),

		hashSha256(),
	}
}

// parseJSON converts a JSON string into a value.
func parseJSON() *jsonnet.NativeFunction {
	return &jsonnet.NativeFunction{
		Name:   "parseJson",
		Params: ast.Identifiers{"json"},
		Func: func(args []any) (res any, err error) {
			data := []byte(args[0].(string))
			err = json.Unmarshal(data, &res)
			return res, err
		},
	}
}

// parseYAML converts a stream of YAML documents into an array of values.
func parseYAML() *jsonnet.NativeFunction {
	return &jsonnet.NativeFunction{
		Name:   "parseYaml",
		Params: ast.Identifiers{"yaml"},
		Func: func(args []any) (any, error) {
			return DecodeYAMLStream([]byte(args[0].(string)))
		},
	}
}

// DecodeYAMLStream decodes every document of a YAML stream into JSON
// compatible values.
func DecodeYAMLStream(data []byte) ([]any, error) {
	ret := []any{}

	d := yaml.NewDecoder(bytes.NewReader(data))
	for {
		var doc any
		if err := d.Decode(&doc); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("parsing yaml: %w", err)
		}

		// round-trip through JSON to get map[string]any and float64 numbers
		raw, err := json.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("converting yaml to json: %w", err)
		}
		var jsonDoc any
		if err := json.Unmarshal(raw, &jsonDoc); err != nil {
			return nil, fmt.Errorf("converting yaml to json: %w", err)
		}

		ret = append(ret, jsonDoc)
	}

	return ret, nil
}

// manifestJSONFromJSON re-indents a JSON string.
func manifestJSONFromJSON() *jsonnet.NativeFunction {
	return &jsonnet.NativeFunction{
		Name:   "manifestJsonFromJson",
		Params: ast.Identifiers{"json", "indent"},
		Func: func(args []any) (any, error) {
			indent := int(args[1].(float64))
			data := bytes.TrimSpace([]byte(args[0].(string)))

			buf := bytes.Buffer{}
			if err := json.Indent(&buf, data, "", strings.Repeat(" ", indent)); err != nil {
				return "", err
			}
			buf.WriteString("\n")
			return buf.String(), nil
		},
	}
}

// manifestYAMLFromJSON serializes a JSON string as a YAML document.
func manifestYAMLFromJSON() *jsonnet.NativeFunction {
	return &jsonnet.NativeFunction{
		Name:   "manifestYamlFromJson",
		Params: ast.Identifiers{"json"},
		Func: func(args []any) (any, error) {
			out, err := k8syaml.JSONToYAML([]byte(args[0].(string)))
			if err != nil {
				return "", err
			}
			return string(out), nil
		},
	}
}

func escapeStringRegex() *jsonnet.NativeFunction {
	return &jsonnet.NativeFunction{
		Name:   "escapeStringRegex",
		Params: ast.Identifiers{"str"},
		Func: func(args []any) (any, error) {
			return regexp.QuoteMeta(args[0].(string)), nil
		},
	}
}

// regexMatch reports whether string matches the re2 expression regex.
func regexMatch() *jsonnet.NativeFunction {
	return &jsonnet.NativeFunction{
		Name:   "regexMatch",
		Params: ast.Identifiers{"regex", "string"},
		Func: func(args []any) (any, error) {
			return regexp.MatchString(args[0].(string), args[1].(string))
		},
	}
}

// regexSubst replaces all matches of regex in src with repl.
func regexSubst() *jsonnet.NativeFunction {
	return &jsonnet.NativeFunction{
		Name:   "regexSubst",
		Params: ast.Identifiers{"regex", "src", "repl"},
		Func: func(args []any) (any, error) {
			regex, src, repl := args[0].(string), args[1].(string), args[2].(string)

			r, err := regexp.Compile(regex)
			if err != nil {
				return "", err
			}
			return r.ReplaceAllString(src, repl), nil
		},
	}
}

func hashSha256() *jsonnet.NativeFunction {
	return &jsonnet.NativeFunction{
		Name:   "sha256",
		Params: ast.Identifiers{"str"},
		Func: func(args []any) (any, error) {
			sum := sha256.Sum256([]byte(args[0].(string)))
			return fmt.Sprintf("%x", sum), nil
		},
	}
}
