package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"

	"github.com/spf13/cast"
	"github.com/spf13/cobra"
	"k8s.io/apimachinery/pkg/labels"

	"github.com/opmodel/tk/internal/config"
	oerrors "github.com/opmodel/tk/internal/errors"
	"github.com/opmodel/tk/internal/export"
	"github.com/opmodel/tk/internal/output"
	"github.com/opmodel/tk/internal/process"
)

// exportOptions holds the flags for the export command.
type exportOptions struct {
	jsonnet jsonnetFlags

	format           string
	extension        string
	mergeStrategy    string
	mergeDeletedEnvs []string
	skipManifest     bool
	parallelism      int
	recursive        bool
	selector         string
	excludes         []string
	targets          []string
	cachePath        string
	cacheEnvs        []string
}

// NewExportCmd creates the export command.
func NewExportCmd() *cobra.Command {
	opts := &exportOptions{}

	c := &cobra.Command{
		Use:   "export <outputDir> <path> [<path>...]",
		Short: "Write each manifest of environments to its own file",
		Long: `Evaluates environments and writes every manifest to a file below outputDir.

Filenames are rendered from --format, a Go template over the manifest with
sprig functions and an env function returning the environment. A '/' typed
in the format creates a directory; a '/' inside a field value becomes '-'.

A manifest.json in outputDir records the environment owning each file, so
later runs can replace (--merge-strategy=replace-envs) or delete
(--merge-deleted-envs) previously exported files.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(c *cobra.Command, args []string) error {
			return runExport(c, args[0], args[1:], opts)
		},
	}

	opts.jsonnet.addFlags(c)
	c.Flags().StringVar(&opts.format, "format", config.DefaultFilenameFormat, "Go template for the filename of each manifest (env: TK_FORMAT)")
	c.Flags().StringVar(&opts.extension, "extension", "yaml", "File extension; json writes JSON (env: TK_EXTENSION)")
	c.Flags().StringVar(&opts.mergeStrategy, "merge-strategy", "", "What to do when exporting to a non-empty directory: fail-on-conflicts, replace-envs (env: TK_MERGE_STRATEGY)")
	c.Flags().StringArrayVar(&opts.mergeDeletedEnvs, "merge-deleted-envs", nil, "Environment identifiers whose previously exported files are deleted")
	c.Flags().BoolVar(&opts.skipManifest, "skip-manifest", false, "Do not write manifest.json")
	c.Flags().IntVarP(&opts.parallelism, "parallel", "p", export.DefaultParallelism, "Number of environments exported in parallel (env: TK_PARALLELISM)")
	c.Flags().BoolVarP(&opts.recursive, "recursive", "r", false, "Find environments below the given paths")
	c.Flags().StringVarP(&opts.selector, "selector", "l", "", "Label selector of environments, with --recursive")
	c.Flags().StringArrayVarP(&opts.excludes, "exclude", "e", nil, "Glob of paths to skip, with --recursive")
	c.Flags().StringArrayVarP(&opts.targets, "target", "t", nil, "Only export manifests matching Kind/name (regular expression, ! negates)")
	c.Flags().StringVarP(&opts.cachePath, "cache-path", "c", "", "Directory storing evaluation results across runs")
	c.Flags().StringArrayVar(&opts.cacheEnvs, "cache-envs", nil, "Regular expressions of entrypoint paths to cache, with --cache-path (default: all)")

	return c
}

// resolveExportConfig applies flag > env > config > default to the export
// settings.
func resolveExportConfig(c *cobra.Command, opts *exportOptions) {
	l := getLoader()

	parallelism := l.Resolve("export.parallelism", config.FlagValue{Value: opts.parallelism, Changed: c.Flags().Changed("parallel")})
	mergeStrategy := l.Resolve("export.mergeStrategy", config.FlagValue{Value: opts.mergeStrategy, Changed: c.Flags().Changed("merge-strategy")})
	extension := l.Resolve("export.extension", config.FlagValue{Value: opts.extension, Changed: c.Flags().Changed("extension")})
	format := l.Resolve("export.format", config.FlagValue{Value: opts.format, Changed: c.Flags().Changed("format")})
	config.LogResolvedValues(parallelism, mergeStrategy, extension, format)

	opts.parallelism = cast.ToInt(parallelism.Value)
	opts.mergeStrategy = cast.ToString(mergeStrategy.Value)
	opts.extension = cast.ToString(extension.Value)
	opts.format = cast.ToString(format.Value)
}

func runExport(c *cobra.Command, to string, paths []string, opts *exportOptions) error {
	resolveExportConfig(c, opts)

	strategy, err := export.ParseMergeStrategy(opts.mergeStrategy)
	if err != nil {
		return err
	}

	jopts, err := opts.jsonnet.opts(c)
	if err != nil {
		return err
	}
	jopts.CachePath = opts.cachePath
	for _, expr := range opts.cacheEnvs {
		re, err := regexp.Compile(expr)
		if err != nil {
			return fmt.Errorf("parsing --cache-envs %q: %w: %w", expr, oerrors.ErrConfig, err)
		}
		jopts.CacheEnvs = append(jopts.CacheEnvs, re)
	}

	selector := labels.Everything()
	if opts.selector != "" {
		selector, err = labels.Parse(opts.selector)
		if err != nil {
			return fmt.Errorf("parsing selector %q: %w: %w", opts.selector, oerrors.ErrConfig, err)
		}
	}

	targets, err := process.StrExps(opts.targets...)
	if err != nil {
		return err
	}

	if err := export.CheckDir(to, strategy); err != nil {
		return err
	}

	ctx := c.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	var result *export.Result
	err = output.RunWithSpinner(ctx, func(ctx context.Context) error {
		found, err := export.Discover(ctx, paths, export.DiscoverOpts{
			Recursive:   opts.recursive,
			Name:        opts.jsonnet.name,
			Selector:    selector,
			Excludes:    opts.excludes,
			Parallelism: opts.parallelism,
			Jsonnet:     jopts,
		})
		if err != nil {
			return err
		}
		if len(found) == 0 && len(opts.mergeDeletedEnvs) == 0 {
			output.Warn("no environments found", "paths", paths)
		}

		result, err = export.Export(ctx, to, found, export.Opts{
			Format:           opts.format,
			Extension:        opts.extension,
			MergeStrategy:    strategy,
			MergeDeletedEnvs: opts.mergeDeletedEnvs,
			SkipManifest:     opts.skipManifest,
			Parallelism:      opts.parallelism,
			Targets:          targets,
			Jsonnet:          jopts,
		})
		return err
	}, output.WithTitle(fmt.Sprintf("Exporting %d path(s) to %s", len(paths), to)))
	if err != nil {
		return err
	}

	printExportResult(to, result)
	return nil
}

func printExportResult(to string, result *export.Result) {
	for _, path := range result.Deleted {
		if _, ok := result.Files[path]; ok {
			continue
		}
		output.Println(output.FormatFileLine(path, output.StatusDeleted))
	}

	if verboseFlag && len(result.Files) > 0 {
		output.Print(output.RenderFileTree(filepath.Base(to), result.Files))
	}

	output.Println(output.FormatExportSummary(len(result.Files), result.Envs, to))
}
