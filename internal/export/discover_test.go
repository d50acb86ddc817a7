package export

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/apimachinery/pkg/labels"

	oerrors "github.com/opmodel/tk/internal/errors"
	"github.com/opmodel/tk/internal/testutil"
)

const inlinePair = `
local env(name, team) = {
  apiVersion: 'tanka.dev/v1alpha1',
  kind: 'Environment',
  metadata: { name: name, labels: { team: team } },
  spec: { namespace: name },
  data: { cm: { apiVersion: 'v1', kind: 'ConfigMap', metadata: { name: name } } },
};
[env('inline-dev', 'infra'), env('inline-prod', 'web')]
`

func discoveryProject(t *testing.T) string {
	t.Helper()
	return testutil.Project(t, map[string]string{
		"environments/static/spec.json":    `{"metadata": {"labels": {"team": "web"}}}`,
		"environments/static/main.jsonnet": `{}`,
		"environments/inline/main.jsonnet": inlinePair,
		"environments/broken/main.jsonnet": `{ a: `,
		"environments/skipped/main.jsonnet": `{
  apiVersion: 'tanka.dev/v1alpha1',
  kind: 'Environment',
  metadata: { name: 'skipped' },
  spec: {},
}`,
	})
}

func names(targets []Target) []string {
	out := []string{}
	for _, t := range targets {
		out = append(out, t.Env.Metadata.Namespace+":"+t.Env.Metadata.Name)
	}
	return out
}

func TestDiscoverRecursive(t *testing.T) {
	root := discoveryProject(t)
	envs := filepath.Join(root, "environments")

	tests := []struct {
		name string
		opts DiscoverOpts
		want []string
	}{
		{
			name: "all environments, broken one skipped",
			opts: DiscoverOpts{},
			want: []string{
				"environments/inline/main.jsonnet:inline-dev",
				"environments/inline/main.jsonnet:inline-prod",
				"environments/skipped/main.jsonnet:skipped",
				"environments/static/main.jsonnet:static",
			},
		},
		{
			name: "exclude glob",
			opts: DiscoverOpts{Excludes: []string{"skipped", "broken/**"}},
			want: []string{
				"environments/inline/main.jsonnet:inline-dev",
				"environments/inline/main.jsonnet:inline-prod",
				"environments/static/main.jsonnet:static",
			},
		},
		{
			name: "name filter",
			opts: DiscoverOpts{Name: "prod"},
			want: []string{"environments/inline/main.jsonnet:inline-prod"},
		},
		{
			name: "label selector",
			opts: DiscoverOpts{Selector: labels.SelectorFromSet(labels.Set{"team": "web"})},
			want: []string{
				"environments/inline/main.jsonnet:inline-prod",
				"environments/static/main.jsonnet:static",
			},
		},
		{
			name: "serial",
			opts: DiscoverOpts{Parallelism: 1, Name: "static"},
			want: []string{"environments/static/main.jsonnet:static"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.opts.Recursive = true
			targets, err := Discover(context.Background(), []string{envs}, tt.opts)
			require.NoError(t, err)
			assert.Equal(t, tt.want, names(targets))

			for _, target := range targets {
				assert.True(t, filepath.IsAbs(target.Path))
				assert.Nil(t, target.Env.Data)
			}
		})
	}
}

func TestDiscoverRecursiveDeduplicates(t *testing.T) {
	root := discoveryProject(t)

	targets, err := Discover(context.Background(), []string{
		filepath.Join(root, "environments", "static"),
		filepath.Join(root, "environments"),
	}, DiscoverOpts{Recursive: true, Excludes: []string{"broken"}})
	require.NoError(t, err)
	assert.Len(t, targets, 4)
}

func TestDiscoverRecursiveSoleFailure(t *testing.T) {
	root := discoveryProject(t)

	_, err := Discover(context.Background(), []string{filepath.Join(root, "environments", "broken")}, DiscoverOpts{Recursive: true})
	require.Error(t, err)
	assert.ErrorIs(t, err, oerrors.ErrEvaluation)
}

func TestDiscoverSingle(t *testing.T) {
	root := discoveryProject(t)

	targets, err := Discover(context.Background(), []string{filepath.Join(root, "environments", "static")}, DiscoverOpts{})
	require.NoError(t, err)
	require.Len(t, targets, 1)
	assert.Equal(t, filepath.Join(root, "environments", "static", "main.jsonnet"), targets[0].Path)
	assert.Equal(t, "static", targets[0].Env.Metadata.Name)

	_, err = Discover(context.Background(), []string{filepath.Join(root, "environments", "inline")}, DiscoverOpts{})
	assert.ErrorIs(t, err, oerrors.ErrAmbiguous)

	targets, err = Discover(context.Background(), []string{filepath.Join(root, "environments", "inline")}, DiscoverOpts{Name: "dev"})
	require.NoError(t, err)
	assert.Equal(t, []string{"environments/inline/main.jsonnet:inline-dev"}, names(targets))
}

func TestDiscoverSingleRejectsSeveralPaths(t *testing.T) {
	_, err := Discover(context.Background(), []string{"a", "b"}, DiscoverOpts{})
	require.Error(t, err)
	assert.ErrorIs(t, err, oerrors.ErrConfig)
}

func TestDiscoverInvalidExclude(t *testing.T) {
	_, err := Discover(context.Background(), []string{t.TempDir()}, DiscoverOpts{Recursive: true, Excludes: []string{"[a"}})
	require.Error(t, err)
	assert.ErrorIs(t, err, oerrors.ErrConfig)
}

func TestParallelism(t *testing.T) {
	assert.Equal(t, DefaultParallelism, parallelism(0, 100))
	assert.Equal(t, 3, parallelism(0, 3))
	assert.Equal(t, 2, parallelism(2, 10))
	assert.Equal(t, DefaultParallelism, parallelism(-1, 0))
}
