package loader

import (
	"fmt"
	"strings"

	oerrors "github.com/opmodel/tk/internal/errors"
)

// ErrNoEnv means no environment at Path matched the requested name.
type ErrNoEnv struct {
	Path string
	Name string
}

func (e ErrNoEnv) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("unable to find an Environment in '%s'", e.Path)
	}
	return fmt.Sprintf("found no environment named '%s' in '%s'; run 'tk env list %s' to view available options", e.Name, e.Path, e.Path)
}

// Unwrap classifies the error as not found.
func (e ErrNoEnv) Unwrap() error {
	return oerrors.ErrNotFound
}

// ErrMultipleEnvs means several environments at Path matched where exactly
// one was required.
type ErrMultipleEnvs struct {
	Path  string
	Name  string
	Names []string
}

func (e ErrMultipleEnvs) Error() string {
	var sb strings.Builder
	if e.Name == "" {
		fmt.Fprintf(&sb, "found multiple Environments in '%s'. Use `--name` to select a single one:", e.Path)
	} else {
		fmt.Fprintf(&sb, "found multiple Environments in '%s' matching '%s'. Provide a more specific name:", e.Path, e.Name)
	}
	for _, n := range e.Names {
		sb.WriteString("\n - " + n)
	}
	return sb.String()
}

// Unwrap classifies the error as ambiguous.
func (e ErrMultipleEnvs) Unwrap() error {
	return oerrors.ErrAmbiguous
}
