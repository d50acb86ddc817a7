package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 8, cfg.Export.Parallelism)
	assert.Equal(t, "yaml", cfg.Export.Extension)
	assert.Equal(t, DefaultFilenameFormat, cfg.Export.Format)
	assert.Empty(t, cfg.Export.MergeStrategy)
	assert.Equal(t, 500, cfg.Jsonnet.MaxStack)
	assert.Nil(t, cfg.Log.Timestamps)
}
