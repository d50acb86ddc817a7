package output

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderEnvTable(t *testing.T) {
	out := RenderEnvTable([]EnvRow{
		{Name: "prod", Namespace: "web", Server: "https://prod:6443", Path: "environments/prod/main.jsonnet"},
		{Name: "dev", Namespace: "default", Path: "environments/dev/main.jsonnet"},
	})

	for _, want := range []string{"NAME", "NAMESPACE", "prod", "web", "https://prod:6443", "environments/dev/main.jsonnet"} {
		assert.Contains(t, out, want)
	}
}
