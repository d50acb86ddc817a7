package cmd

import (
	"github.com/spf13/cobra"

	"github.com/opmodel/tk/internal/jpath"
	"github.com/opmodel/tk/internal/loader"
	"github.com/opmodel/tk/internal/output"
)

// NewEvalCmd creates the eval command.
func NewEvalCmd() *cobra.Command {
	var (
		jf   jsonnetFlags
		expr string
	)

	c := &cobra.Command{
		Use:   "eval <path>",
		Short: "Evaluate an environment and print the raw result as JSON",
		Long: `Evaluate the entrypoint of an environment and print the result as JSON,
without extracting or processing manifests.

Examples:
  # Print everything
  tk eval environments/default

  # Print a single field
  tk eval environments/default -e deployment.spec`,
		Args: cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			return runEval(c, args[0], &jf, expr)
		},
	}

	jf.addFlags(c)
	c.Flags().StringVarP(&expr, "eval", "e", "", "Evaluate a field of the result, e.g. 'deployment.spec' (prefixed with 'main.')")

	return c
}

func runEval(c *cobra.Command, path string, jf *jsonnetFlags, expr string) error {
	jopts, err := jf.opts(c)
	if err != nil {
		return err
	}
	if expr != "" {
		jopts.EvalScript = "main." + expr
	}

	entrypoint, err := jpath.ResolveEntrypoint(path)
	if err != nil {
		return err
	}

	raw, err := loader.Eval(entrypoint, loader.Opts{JsonnetOpts: jopts, Name: jf.name})
	if err != nil {
		return err
	}

	return output.WriteManifest(output.Stdout, raw, output.FormatJSON)
}
