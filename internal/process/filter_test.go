package process

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opmodel/tk/internal/manifest"
)

func TestFilter(t *testing.T) {
	list := manifest.List{
		{"kind": "Deployment", "metadata": map[string]any{"name": "web"}},
		{"kind": "Deployment", "metadata": map[string]any{"name": "worker"}},
		{"kind": "Service", "metadata": map[string]any{"name": "web"}},
	}

	tests := []struct {
		name  string
		exprs []string
		want  []string
	}{
		{name: "no expressions", exprs: nil, want: []string{"Deployment/web", "Deployment/worker", "Service/web"}},
		{name: "case insensitive", exprs: []string{"deployment/.*"}, want: []string{"Deployment/web", "Deployment/worker"}},
		{name: "anchored", exprs: []string{"web"}, want: []string{}},
		{name: "or", exprs: []string{"service/web", "deployment/worker"}, want: []string{"Deployment/worker", "Service/web"}},
		{name: "negation only", exprs: []string{"!.*/web"}, want: []string{"Deployment/worker"}},
		{name: "positive and negation", exprs: []string{"deployment/.*", "!.*/worker"}, want: []string{"Deployment/web"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exprs, err := StrExps(tt.exprs...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, Filter(list, exprs).Names())
		})
	}
}

func TestStrExpsInvalid(t *testing.T) {
	_, err := StrExps("(")
	var bad ErrBadExpr
	require.ErrorAs(t, err, &bad)
	assert.Equal(t, "(", bad.Expr)
}
