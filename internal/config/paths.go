package config

import (
	"os"
	"path/filepath"
)

// ConfigEnvVar overrides the config file location.
const ConfigEnvVar = "TK_CONFIG"

// Paths contains standard filesystem paths for tk.
type Paths struct {
	// ConfigFile is the path to the config file (~/.tk/config.yaml).
	ConfigFile string

	// HomeDir is the tk home directory (~/.tk).
	HomeDir string
}

// DefaultPaths returns the default paths for tk.
func DefaultPaths() (*Paths, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}

	tkHome := filepath.Join(homeDir, ".tk")

	return &Paths{
		ConfigFile: filepath.Join(tkHome, "config.yaml"),
		HomeDir:    tkHome,
	}, nil
}

// GetConfigFile returns the config file path. TK_CONFIG takes precedence.
func GetConfigFile() (string, error) {
	if envPath := os.Getenv(ConfigEnvVar); envPath != "" {
		return envPath, nil
	}

	paths, err := DefaultPaths()
	if err != nil {
		return "", err
	}

	return paths.ConfigFile, nil
}

// ExpandPath expands ~ to the user's home directory.
func ExpandPath(path string) (string, error) {
	if len(path) == 0 {
		return path, nil
	}

	if path[0] != '~' {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	if len(path) == 1 {
		return homeDir, nil
	}

	// Handle ~/path/to/something
	if path[1] == '/' || path[1] == filepath.Separator {
		return filepath.Join(homeDir, path[2:]), nil
	}

	// ~username is not supported
	return path, nil
}
