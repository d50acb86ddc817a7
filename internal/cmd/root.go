// Package cmd provides CLI command implementations.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/opmodel/tk/internal/config"
	"github.com/opmodel/tk/internal/output"
	"github.com/opmodel/tk/internal/version"
)

var (
	// Global flags
	configFlag     string
	verboseFlag    bool
	timestampsFlag bool

	// Loaded during PersistentPreRunE
	configLoader *config.Loader
	tkConfig     *config.Config
)

// NewRootCmd creates the root command for tk.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "tk",
		Short: "Evaluate Jsonnet environments and export their manifests",
		Long: `tk evaluates Jsonnet environments and exports the resulting manifests
to a directory, one file per manifest.

Environments are either static, defined by a spec.json next to their
main.jsonnet, or inline, defined as objects of kind Environment within the
evaluated Jsonnet.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initializeGlobals(cmd)
		},
	}

	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "Path to config file (env: TK_CONFIG)")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&timestampsFlag, "timestamps", true, "Show timestamps in log output (env: TK_TIMESTAMPS)")

	rootCmd.AddCommand(NewExportCmd())
	rootCmd.AddCommand(NewEnvCmd())
	rootCmd.AddCommand(NewEvalCmd())
	rootCmd.AddCommand(NewShowCmd())
	rootCmd.AddCommand(NewVersionCmd())

	return rootCmd
}

// initializeGlobals sets up logging and loads configuration.
func initializeGlobals(cmd *cobra.Command) error {
	configPath, err := config.ResolveConfigPath(configFlag)
	if err != nil {
		return err
	}

	loader := config.NewLoader()
	cfg, err := loader.Load(configPath.ConfigPath)
	if err != nil {
		return err
	}

	validator, err := config.NewValidator()
	if err != nil {
		return err
	}
	if err := validator.Validate(cfg); err != nil {
		return err
	}

	configLoader = loader
	tkConfig = cfg

	// flag (if explicitly set) > env/config > default (nil = true)
	logCfg := output.LogConfig{Verbose: verboseFlag}
	if cmd.Flags().Changed("timestamps") {
		logCfg.Timestamps = output.BoolPtr(timestampsFlag)
	} else if cfg.Log.Timestamps != nil {
		logCfg.Timestamps = cfg.Log.Timestamps
	}
	output.SetupLogging(logCfg)

	info := version.Get()
	output.Debug("tk started",
		"version", info.Version,
		"jsonnet", info.JsonnetVersion,
		"config", configPath.ConfigPath,
		"config_source", configPath.Source,
	)

	return nil
}

// getLoader returns the config loader, creating one with defaults when the
// root command did not run.
func getLoader() *config.Loader {
	if configLoader == nil {
		configLoader = config.NewLoader()
	}
	return configLoader
}
