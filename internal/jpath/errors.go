package jpath

import (
	"fmt"

	oerrors "github.com/opmodel/tk/internal/errors"
)

// ErrorNoRoot means no project root was found in the parent directories.
type ErrorNoRoot struct {
	Start string
}

func (e ErrorNoRoot) Error() string {
	return fmt.Sprintf("could not locate a %s or %s in the parent directories of %q, which is required to identify the project root",
		RootMarkers[0], RootMarkers[1], e.Start)
}

func (e ErrorNoRoot) Unwrap() error { return oerrors.ErrConfig }

// ErrorNoBase means no directory holding the entrypoint was found between
// the entrypoint and the project root.
type ErrorNoBase struct {
	Filename string
}

func (e ErrorNoBase) Error() string {
	return fmt.Sprintf("could not locate entrypoint (usually %s) in the parent directories, which is required as the entrypoint for the evaluation", e.Filename)
}

func (e ErrorNoBase) Unwrap() error { return oerrors.ErrConfig }

// ErrorFileNotFound means that the searched file was not found.
type ErrorFileNotFound struct {
	Filename string
}

func (e ErrorFileNotFound) Error() string {
	return e.Filename + " not found"
}

func (e ErrorFileNotFound) Unwrap() error { return oerrors.ErrNotFound }
