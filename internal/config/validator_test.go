package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidator(t *testing.T) {
	v, err := NewValidator()
	require.NoError(t, err)

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults are valid", mutate: func(*Config) {}},
		{
			name:    "zero parallelism",
			mutate:  func(c *Config) { c.Export.Parallelism = 0 },
			wantErr: "parallelism",
		},
		{
			name:    "unknown merge strategy",
			mutate:  func(c *Config) { c.Export.MergeStrategy = "overwrite" },
			wantErr: "mergeStrategy",
		},
		{
			name:    "extension with dot",
			mutate:  func(c *Config) { c.Export.Extension = ".yaml" },
			wantErr: "extension",
		},
		{
			name:    "broken template",
			mutate:  func(c *Config) { c.Export.Format = "{{ .kind" },
			wantErr: "export.format",
		},
		{
			name:   "template with env and sprig functions",
			mutate: func(c *Config) { c.Export.Format = "{{ (env).metadata.name }}/{{ .kind | lower }}" },
		},
		{
			name:   "replace-envs",
			mutate: func(c *Config) { c.Export.MergeStrategy = "replace-envs" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := v.Validate(cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			var verrs ValidationErrors
			require.ErrorAs(t, err, &verrs)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
