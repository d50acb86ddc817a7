package export

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"

	oerrors "github.com/opmodel/tk/internal/errors"
	"github.com/opmodel/tk/internal/manifest"
	"github.com/opmodel/tk/internal/spec/v1alpha1"
)

// bel marks path separators written literally in a filename format. It is
// not printable and never part of a rendered field value.
const bel = string(rune(7))

// noValue is what text/template prints for missing map keys.
const noValue = "<no value>"

// FilenameTemplate renders the output path of manifests of one environment.
type FilenameTemplate struct {
	tmpl      *template.Template
	format    string
	extension string
}

// RenderError is returned when a filename cannot be rendered for a manifest.
type RenderError struct {
	Manifest string
	Format   string
	Err      error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("rendering filename of %s from %q: %v", e.Manifest, e.Format, e.Err)
}

// Unwrap returns the template error classified as a validation error.
func (e *RenderError) Unwrap() []error {
	return []error{oerrors.ErrValidation, e.Err}
}

// NewFilenameTemplate parses format. Besides the sprig functions, `env`
// returns the owning environment without its data.
func NewFilenameTemplate(format, extension string, env *v1alpha1.Environment) (*FilenameTemplate, error) {
	envMap, err := env.Map()
	if err != nil {
		return nil, fmt.Errorf("encoding environment %s: %w", env.Metadata.Name, err)
	}

	funcs := template.FuncMap{
		"env": func() map[string]any { return envMap },
	}

	tmpl, err := template.New("filename").
		Funcs(sprig.TxtFuncMap()).
		Funcs(funcs).
		Parse(protectSeparators(format, string(os.PathSeparator)))
	if err != nil {
		return nil, fmt.Errorf("parsing filename format %q: %w: %w", format, oerrors.ErrConfig, err)
	}

	return &FilenameTemplate{tmpl: tmpl, format: format, extension: extension}, nil
}

// Render returns the relative path of m, including the extension, using
// the native separator.
func (f *FilenameTemplate) Render(m manifest.Manifest) (string, error) {
	var buf bytes.Buffer
	if err := f.tmpl.Execute(&buf, map[string]any(m)); err != nil {
		return "", &RenderError{Manifest: m.KindName(), Format: f.format, Err: err}
	}

	name := strings.ReplaceAll(buf.String(), noValue, "")

	// separators from field values must not create directories
	name = strings.ReplaceAll(name, string(os.PathSeparator), "-")
	name = strings.ReplaceAll(name, bel, string(os.PathSeparator))

	if strings.Trim(name, string(os.PathSeparator)) == "" {
		return "", &RenderError{Manifest: m.KindName(), Format: f.format, Err: fmt.Errorf("format rendered an empty filename")}
	}

	path := name
	if f.extension != "" {
		path += "." + f.extension
	}
	path = filepath.Clean(path)

	if filepath.IsAbs(path) || path == ".." || strings.HasPrefix(path, ".."+string(os.PathSeparator)) {
		return "", &RenderError{Manifest: m.KindName(), Format: f.format, Err: fmt.Errorf("filename %q is outside of the output directory", path)}
	}
	return path, nil
}

// protectSeparators replaces sep with bel in the literal text of format,
// leaving template actions untouched.
func protectSeparators(format, sep string) string {
	var sb strings.Builder
	for {
		l := strings.Index(format, "{{")
		if l == -1 {
			break
		}
		r := strings.Index(format[l:], "}}")
		if r == -1 {
			break
		}
		r += l + len("}}")

		sb.WriteString(strings.ReplaceAll(format[:l], sep, bel))
		sb.WriteString(format[l:r])
		format = format[r:]
	}
	sb.WriteString(strings.ReplaceAll(format, sep, bel))
	return sb.String()
}
