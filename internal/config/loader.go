package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Environment variable prefix for tk configuration.
const envPrefix = "TK"

// envBindings maps config keys to their environment variables.
var envBindings = map[string]string{
	"export.parallelism":   "TK_PARALLELISM",
	"export.mergeStrategy": "TK_MERGE_STRATEGY",
	"export.extension":     "TK_EXTENSION",
	"export.format":        "TK_FORMAT",
	"jsonnet.maxStack":     "TK_MAX_STACK",
	"log.timestamps":       "TK_TIMESTAMPS",
}

// Loader loads configuration from defaults, the config file and the
// environment, in increasing order of precedence.
type Loader struct {
	v *viper.Viper

	// file holds the config file alone, for source tracking.
	file *viper.Viper
}

// NewLoader creates a new configuration loader.
func NewLoader() *Loader {
	v := viper.New()

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	defaults := DefaultConfig()
	v.SetDefault("export.parallelism", defaults.Export.Parallelism)
	v.SetDefault("export.mergeStrategy", defaults.Export.MergeStrategy)
	v.SetDefault("export.extension", defaults.Export.Extension)
	v.SetDefault("export.format", defaults.Export.Format)
	v.SetDefault("jsonnet.maxStack", defaults.Jsonnet.MaxStack)

	return &Loader{v: v, file: viper.New()}
}

// Load loads configuration from the given file path. If configFile is empty
// the default location is used. A missing file is not an error.
func (l *Loader) Load(configFile string) (*Config, error) {
	if configFile == "" {
		var err error
		configFile, err = GetConfigFile()
		if err != nil {
			return nil, fmt.Errorf("getting config file path: %w", err)
		}
	}

	expandedPath, err := ExpandPath(configFile)
	if err != nil {
		return nil, fmt.Errorf("expanding config path: %w", err)
	}

	data, err := os.ReadFile(expandedPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		data = nil
	case err != nil:
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	for _, v := range []*viper.Viper{l.v, l.file} {
		v.SetConfigType("yaml")
		if err := v.ReadConfig(strings.NewReader(string(data))); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", expandedPath, err)
		}
	}

	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}

// Get returns the effective value of key.
func (l *Loader) Get(key string) any {
	return l.v.Get(key)
}

// Source reports where the effective value of key comes from.
func (l *Loader) Source(key string) ConfigSource {
	if env, ok := envBindings[key]; ok {
		if _, set := os.LookupEnv(env); set {
			return SourceEnv
		}
	}
	if l.file.IsSet(key) {
		return SourceConfig
	}
	return SourceDefault
}

// FileValue returns the value of key in the config file, if set.
func (l *Loader) FileValue(key string) (any, bool) {
	if !l.file.IsSet(key) {
		return nil, false
	}
	return l.file.Get(key), true
}
