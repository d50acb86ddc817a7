package config

import (
	"os"

	"github.com/opmodel/tk/internal/output"
)

// ConfigSource indicates where a configuration value came from.
type ConfigSource string

const (
	// SourceFlag indicates value came from command-line flag.
	SourceFlag ConfigSource = "flag"
	// SourceEnv indicates value came from environment variable.
	SourceEnv ConfigSource = "env"
	// SourceConfig indicates value came from config file.
	SourceConfig ConfigSource = "config"
	// SourceDefault indicates value is the built-in default.
	SourceDefault ConfigSource = "default"
)

// ResolvedValue is a configuration value together with its origin.
type ResolvedValue struct {
	Key    string
	Value  any
	Source ConfigSource
	// Shadowed contains values that were overridden by higher precedence.
	Shadowed map[ConfigSource]any
}

// FlagValue is a command-line flag as seen by the resolver.
type FlagValue struct {
	Value   any
	Changed bool
}

// Resolve resolves key using precedence:
// (1) flag, (2) TK_* env, (3) config file, (4) default.
func (l *Loader) Resolve(key string, flag FlagValue) ResolvedValue {
	result := ResolvedValue{
		Key:      key,
		Value:    l.Get(key),
		Source:   l.Source(key),
		Shadowed: make(map[ConfigSource]any),
	}

	envValue, envSet := os.LookupEnv(envBindings[key])
	fileValue, fileSet := l.FileValue(key)

	switch {
	case flag.Changed:
		result.Value = flag.Value
		result.Source = SourceFlag
		if envSet {
			result.Shadowed[SourceEnv] = envValue
		}
		if fileSet {
			result.Shadowed[SourceConfig] = fileValue
		}
	case envSet:
		if fileSet {
			result.Shadowed[SourceConfig] = fileValue
		}
	}

	return result
}

// ResolveConfigPathResult contains the resolved config path and its source.
type ResolveConfigPathResult struct {
	// ConfigPath is the resolved config file path.
	ConfigPath string
	// Source indicates where the config path came from.
	Source ConfigSource
	// Shadowed contains values that were overridden by higher precedence.
	Shadowed map[ConfigSource]string
}

// ResolveConfigPath resolves the config file path using precedence:
// (1) --config flag, (2) TK_CONFIG env, (3) ~/.tk/config.yaml default
func ResolveConfigPath(flagValue string) (ResolveConfigPathResult, error) {
	result := ResolveConfigPathResult{
		Shadowed: make(map[ConfigSource]string),
	}

	envValue := os.Getenv(ConfigEnvVar)

	paths, err := DefaultPaths()
	if err != nil {
		return result, err
	}
	defaultPath := paths.ConfigFile

	switch {
	case flagValue != "":
		result.ConfigPath = flagValue
		result.Source = SourceFlag
		if envValue != "" {
			result.Shadowed[SourceEnv] = envValue
		}
		result.Shadowed[SourceDefault] = defaultPath
	case envValue != "":
		result.ConfigPath = envValue
		result.Source = SourceEnv
		result.Shadowed[SourceDefault] = defaultPath
	default:
		result.ConfigPath = defaultPath
		result.Source = SourceDefault
	}

	return result, nil
}

// LogResolvedValues logs configuration resolution at DEBUG level.
func LogResolvedValues(values ...ResolvedValue) {
	for _, v := range values {
		output.Debug("config value resolved",
			"key", v.Key,
			"value", v.Value,
			"source", v.Source,
		)
		for source, shadowed := range v.Shadowed {
			output.Debug("  shadowed by higher precedence",
				"key", v.Key,
				"shadowed_source", source,
				"shadowed_value", shadowed,
			)
		}
	}
}
