package cmd

import (
	"github.com/spf13/cobra"

	"github.com/opmodel/tk/internal/output"
	"github.com/opmodel/tk/internal/version"
)

// NewVersionCmd creates the version command.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long: `Show tk version information.

Displays:
  - tk version, commit, and build date
  - Go, go-jsonnet and CUE SDK versions`,
		RunE: runVersion,
	}
}

func runVersion(_ *cobra.Command, _ []string) error {
	output.Println(version.Get().String())
	return nil
}
