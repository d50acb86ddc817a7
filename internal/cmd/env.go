package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"k8s.io/apimachinery/pkg/labels"

	oerrors "github.com/opmodel/tk/internal/errors"
	"github.com/opmodel/tk/internal/export"
	"github.com/opmodel/tk/internal/output"
	"github.com/opmodel/tk/internal/spec/v1alpha1"
)

// NewEnvCmd creates the env command group.
func NewEnvCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "env",
		Short: "Inspect environments",
	}

	c.AddCommand(NewEnvListCmd())

	return c
}

// NewEnvListCmd creates the env list command.
func NewEnvListCmd() *cobra.Command {
	var (
		jf         jsonnetFlags
		outputFlag string
		selector   string
		excludes   []string
		parallel   int
	)

	c := &cobra.Command{
		Use:   "list [path]",
		Short: "List environments below a directory",
		Long: `List every environment found below path (default: the current
directory). Static environments are read from their spec.json, inline ones
are evaluated without their data.

Examples:
  # List all environments
  tk env list environments/

  # Only those labelled team=web, as JSON
  tk env list -l team=web -o json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			path := "."
			if len(args) == 1 {
				path = args[0]
			}
			return runEnvList(c, path, &jf, outputFlag, selector, excludes, parallel)
		},
	}

	jf.addFlags(c)
	c.Flags().StringVarP(&outputFlag, "output", "o", "table", "Output format: table, json, names")
	c.Flags().StringVarP(&selector, "selector", "l", "", "Label selector of environments")
	c.Flags().StringArrayVarP(&excludes, "exclude", "e", nil, "Glob of paths to skip")
	c.Flags().IntVarP(&parallel, "parallel", "p", export.DefaultParallelism, "Number of entrypoints evaluated in parallel")

	return c
}

func runEnvList(c *cobra.Command, path string, jf *jsonnetFlags, outputFlag, selector string, excludes []string, parallel int) error {
	format, err := parseOutputFormat(outputFlag, output.ValidListFormats())
	if err != nil {
		return err
	}

	jopts, err := jf.opts(c)
	if err != nil {
		return err
	}

	sel := labels.Everything()
	if selector != "" {
		sel, err = labels.Parse(selector)
		if err != nil {
			return fmt.Errorf("parsing selector %q: %w: %w", selector, oerrors.ErrConfig, err)
		}
	}

	ctx := c.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	targets, err := export.Discover(ctx, []string{path}, export.DiscoverOpts{
		Recursive:   true,
		Name:        jf.name,
		Selector:    sel,
		Excludes:    excludes,
		Parallelism: parallel,
		Jsonnet:     jopts,
	})
	if err != nil {
		return err
	}

	envs := make([]*v1alpha1.Environment, 0, len(targets))
	for _, t := range targets {
		envs = append(envs, t.Env)
	}

	switch format {
	case output.FormatJSON:
		return output.WriteManifest(output.Stdout, envs, output.FormatJSON)
	case output.FormatNames:
		for _, env := range envs {
			output.Println(env.Metadata.Name)
		}
	default:
		rows := make([]output.EnvRow, 0, len(envs))
		for _, env := range envs {
			rows = append(rows, output.EnvRow{
				Name:      env.Metadata.Name,
				Namespace: env.Spec.Namespace,
				Server:    env.Spec.APIServer,
				Path:      env.Metadata.Namespace,
			})
		}
		output.Println(output.RenderEnvTable(rows))
	}

	return nil
}
