// Package config provides configuration loading and management.
package config

// ExportConfig contains defaults for `tk export`.
type ExportConfig struct {
	// Parallelism is the number of environments exported concurrently.
	// Env: TK_PARALLELISM, Default: 8
	Parallelism int `json:"parallelism" mapstructure:"parallelism"`

	// MergeStrategy is one of "", "fail-on-conflicts", "replace-envs".
	// Env: TK_MERGE_STRATEGY
	MergeStrategy string `json:"mergeStrategy,omitempty" mapstructure:"mergeStrategy"`

	// Extension is the file extension of exported manifests.
	// Env: TK_EXTENSION, Default: yaml
	Extension string `json:"extension,omitempty" mapstructure:"extension"`

	// Format is the filename template of exported manifests.
	// Env: TK_FORMAT
	Format string `json:"format,omitempty" mapstructure:"format"`
}

// JsonnetConfig contains evaluator settings.
type JsonnetConfig struct {
	// MaxStack is the evaluator's maximum stack depth.
	// Env: TK_MAX_STACK, Default: 500
	MaxStack int `json:"maxStack" mapstructure:"maxStack"`
}

// LogConfig contains logging-related settings.
type LogConfig struct {
	// Timestamps controls whether timestamps are shown in log output.
	// Default: true. Override with --timestamps flag.
	Timestamps *bool `json:"timestamps,omitempty" mapstructure:"timestamps"`
}

// Config represents the tk configuration, loaded from ~/.tk/config.yaml.
type Config struct {
	Export  ExportConfig  `json:"export,omitempty" mapstructure:"export"`
	Jsonnet JsonnetConfig `json:"jsonnet,omitempty" mapstructure:"jsonnet"`
	Log     LogConfig     `json:"log,omitempty" mapstructure:"log"`
}

// DefaultFilenameFormat names exported files after the manifest's
// apiVersion, kind and name.
const DefaultFilenameFormat = `{{.apiVersion}}.{{.kind}}-{{or .metadata.name .metadata.generateName}}`

// DefaultConfig returns a Config with all default values populated.
func DefaultConfig() *Config {
	return &Config{
		Export: ExportConfig{
			Parallelism: 8,
			Extension:   "yaml",
			Format:      DefaultFilenameFormat,
		},
		Jsonnet: JsonnetConfig{
			MaxStack: 500,
		},
	}
}
