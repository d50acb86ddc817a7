package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opmodel/tk/internal/testutil"
)

func loaded(t *testing.T, content string) *Loader {
	t.Helper()
	l := NewLoader()
	_, err := l.Load(testutil.WriteFile(t, t.TempDir(), "config.yaml", content))
	require.NoError(t, err)
	return l
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name         string
		env          string
		file         string
		flag         FlagValue
		wantValue    any
		wantSource   ConfigSource
		wantShadowed map[ConfigSource]any
	}{
		{
			name:         "flag wins over env and config",
			env:          "env-fmt",
			file:         "export:\n  format: file-fmt\n",
			flag:         FlagValue{Value: "flag-fmt", Changed: true},
			wantValue:    "flag-fmt",
			wantSource:   SourceFlag,
			wantShadowed: map[ConfigSource]any{SourceEnv: "env-fmt", SourceConfig: "file-fmt"},
		},
		{
			name:         "env wins over config",
			env:          "env-fmt",
			file:         "export:\n  format: file-fmt\n",
			flag:         FlagValue{Value: "ignored"},
			wantValue:    "env-fmt",
			wantSource:   SourceEnv,
			wantShadowed: map[ConfigSource]any{SourceConfig: "file-fmt"},
		},
		{
			name:         "config wins over default",
			file:         "export:\n  format: file-fmt\n",
			wantValue:    "file-fmt",
			wantSource:   SourceConfig,
			wantShadowed: map[ConfigSource]any{},
		},
		{
			name:         "default",
			wantValue:    DefaultFilenameFormat,
			wantSource:   SourceDefault,
			wantShadowed: map[ConfigSource]any{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.env != "" {
				t.Setenv("TK_FORMAT", tt.env)
			}
			l := loaded(t, tt.file)

			got := l.Resolve("export.format", tt.flag)
			assert.Equal(t, "export.format", got.Key)
			assert.Equal(t, tt.wantValue, got.Value)
			assert.Equal(t, tt.wantSource, got.Source)
			assert.Equal(t, tt.wantShadowed, got.Shadowed)
		})
	}
}

func TestResolveConfigPath(t *testing.T) {
	t.Run("flag precedence", func(t *testing.T) {
		t.Setenv(ConfigEnvVar, "/env/config.yaml")

		result, err := ResolveConfigPath("/flag/config.yaml")
		require.NoError(t, err)
		assert.Equal(t, "/flag/config.yaml", result.ConfigPath)
		assert.Equal(t, SourceFlag, result.Source)
		assert.Equal(t, "/env/config.yaml", result.Shadowed[SourceEnv])
	})

	t.Run("env precedence", func(t *testing.T) {
		t.Setenv(ConfigEnvVar, "/env/config.yaml")

		result, err := ResolveConfigPath("")
		require.NoError(t, err)
		assert.Equal(t, "/env/config.yaml", result.ConfigPath)
		assert.Equal(t, SourceEnv, result.Source)
	})

	t.Run("default", func(t *testing.T) {
		t.Setenv(ConfigEnvVar, "")

		result, err := ResolveConfigPath("")
		require.NoError(t, err)
		assert.Equal(t, SourceDefault, result.Source)
		assert.Equal(t, filepath.Join(".tk", "config.yaml"), filepath.Join(filepath.Base(filepath.Dir(result.ConfigPath)), filepath.Base(result.ConfigPath)))
	})
}
