// Package main is the entry point for tk.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/opmodel/tk/internal/cmd"
	oerrors "github.com/opmodel/tk/internal/errors"
)

func main() {
	rootCmd := cmd.NewRootCmd()

	if err := rootCmd.Execute(); err != nil {
		var exitErr *oerrors.ExitError
		if errors.As(err, &exitErr) && exitErr.Printed {
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(oerrors.ExitCodeFromError(err))
	}
}
