package cmd

import (
	"github.com/spf13/cobra"

	"github.com/opmodel/tk/internal/jpath"
	"github.com/opmodel/tk/internal/loader"
	"github.com/opmodel/tk/internal/output"
	"github.com/opmodel/tk/internal/process"
)

// NewShowCmd creates the show command.
func NewShowCmd() *cobra.Command {
	var (
		jf         jsonnetFlags
		outputFlag string
		targets    []string
	)

	c := &cobra.Command{
		Use:   "show <path>",
		Short: "Print the processed manifests of an environment",
		Long: `Load an environment and print its manifests after processing: namespaces
and resource defaults are applied, labels injected and the result sorted.

Examples:
  # Show all manifests as YAML
  tk show environments/default

  # Only deployments, as JSON
  tk show environments/default -t 'Deployment/.*' -o json`,
		Args: cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			return runShow(c, args[0], &jf, outputFlag, targets)
		},
	}

	jf.addFlags(c)
	c.Flags().StringVarP(&outputFlag, "output", "o", "yaml", "Output format: yaml, json")
	c.Flags().StringArrayVarP(&targets, "target", "t", nil, "Only show manifests matching Kind/name (regular expression, ! negates)")

	return c
}

func runShow(c *cobra.Command, path string, jf *jsonnetFlags, outputFlag string, targets []string) error {
	format, err := parseOutputFormat(outputFlag, output.ValidManifestFormats())
	if err != nil {
		return err
	}

	jopts, err := jf.opts(c)
	if err != nil {
		return err
	}

	exprs, err := process.StrExps(targets...)
	if err != nil {
		return err
	}

	entrypoint, err := jpath.ResolveEntrypoint(path)
	if err != nil {
		return err
	}

	loaded, err := loader.Load(entrypoint, loader.Opts{JsonnetOpts: jopts, Name: jf.name})
	if err != nil {
		return err
	}

	list, err := process.Process(*loaded.Env, exprs)
	if err != nil {
		return err
	}

	output.EnvLogger(loaded.Env.Metadata.Name).Debug("processed manifests", "count", len(list))
	return output.WriteManifests(output.Stdout, list.Objects(), format)
}
