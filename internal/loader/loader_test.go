package loader

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	oerrors "github.com/opmodel/tk/internal/errors"
	"github.com/opmodel/tk/internal/jsonnet"
	"github.com/opmodel/tk/internal/testutil"
)

const staticSpec = `{
  "apiVersion": "tanka.dev/v1alpha1",
  "kind": "Environment",
  "metadata": {"labels": {"team": "web"}},
  "spec": {"apiServer": "https://prod:6443", "namespace": "web"}
}`

const staticMain = `
{
  config: {
    apiVersion: 'v1',
    kind: 'ConfigMap',
    metadata: { name: 'config' },
    data: { env: std.extVar('tanka.dev/environment').spec.namespace },
  },
}
`

const inlineMain = `
local env(name, ns) = {
  apiVersion: 'tanka.dev/v1alpha1',
  kind: 'Environment',
  metadata: { name: name },
  spec: { namespace: ns },
  data: {
    cm: { apiVersion: 'v1', kind: 'ConfigMap', metadata: { name: name } },
  },
};
{
  prod: env('prod', 'web'),
  'prod-eu': env('prod-eu', 'web-eu'),
  dev: env('dev', 'web-dev'),
}
`

func staticProject(t *testing.T) string {
	t.Helper()
	return testutil.Project(t, map[string]string{
		"environments/prod/spec.json":    staticSpec,
		"environments/prod/main.jsonnet": staticMain,
	})
}

func inlineProject(t *testing.T) string {
	t.Helper()
	return testutil.Project(t, map[string]string{
		"environments/multi/main.jsonnet": inlineMain,
	})
}

func TestDetectLoader(t *testing.T) {
	root := testutil.Project(t, map[string]string{
		"static/spec.json":    "{}",
		"static/main.jsonnet": "{}",
		"inline/main.jsonnet": "{}",
	})

	l, err := DetectLoader(filepath.Join(root, "static"))
	require.NoError(t, err)
	assert.IsType(t, StaticLoader{}, l)

	l, err = DetectLoader(filepath.Join(root, "inline"))
	require.NoError(t, err)
	assert.IsType(t, InlineLoader{}, l)

	_, err = DetectLoader(filepath.Join(root, "missing"))
	require.Error(t, err)
	assert.ErrorIs(t, err, oerrors.ErrConfig)
}

func TestStaticPeekAndList(t *testing.T) {
	root := staticProject(t)
	path := filepath.Join(root, "environments", "prod")

	peeked, err := Peek(path, Opts{})
	require.NoError(t, err)
	assert.Equal(t, "prod", peeked.Metadata.Name)
	assert.Equal(t, "environments/prod/main.jsonnet", peeked.Metadata.Namespace)
	assert.Equal(t, "web", peeked.Spec.Namespace)
	assert.Equal(t, "web", peeked.Metadata.Labels["team"])
	assert.Nil(t, peeked.Data)

	listed, err := List(path, Opts{})
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, peeked, listed[0])
}

func TestStaticLoad(t *testing.T) {
	root := staticProject(t)
	path := filepath.Join(root, "environments", "prod")

	loaded, err := Load(path, Opts{})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(path, "main.jsonnet"), loaded.Entrypoint)
	assert.Equal(t, map[string]any{
		"config": map[string]any{
			"apiVersion": "v1",
			"kind":       "ConfigMap",
			"metadata":   map[string]any{"name": "config"},
			"data":       map[string]any{"env": "web"},
		},
	}, loaded.Env.Data)
}

func TestLoadFromSubdirectory(t *testing.T) {
	root := testutil.Project(t, map[string]string{
		"environments/prod/spec.json":        staticSpec,
		"environments/prod/main.jsonnet":     staticMain,
		"environments/prod/lib/.keep":        "",
		"environments/multi/main.jsonnet":    inlineMain,
		"environments/multi/parts/part.json": "{}",
	})

	tests := []struct {
		name           string
		path           string
		opts           Opts
		wantEntrypoint string
		wantNamespace  string
	}{
		{
			name:           "static",
			path:           "environments/prod/lib",
			wantEntrypoint: "environments/prod/main.jsonnet",
			wantNamespace:  "environments/prod/main.jsonnet",
		},
		{
			name:           "inline",
			path:           "environments/multi/parts",
			opts:           Opts{Name: "dev"},
			wantEntrypoint: "environments/multi/main.jsonnet",
			wantNamespace:  "environments/multi/main.jsonnet",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(root, filepath.FromSlash(tt.path))

			loaded, err := Load(path, tt.opts)
			require.NoError(t, err)
			assert.Equal(t, filepath.Join(root, filepath.FromSlash(tt.wantEntrypoint)), loaded.Entrypoint)
			assert.Equal(t, tt.wantNamespace, loaded.Env.Metadata.Namespace)
			assert.NotEmpty(t, loaded.Env.Data)

			peeked, err := Peek(path, tt.opts)
			require.NoError(t, err)
			assert.Equal(t, tt.wantNamespace, peeked.Metadata.Namespace)
		})
	}
}

func TestStaticNameFilter(t *testing.T) {
	root := staticProject(t)
	path := filepath.Join(root, "environments", "prod")

	_, err := Load(path, Opts{Name: "dev"})
	var noEnv ErrNoEnv
	require.ErrorAs(t, err, &noEnv)
	assert.ErrorIs(t, err, oerrors.ErrNotFound)

	listed, err := List(path, Opts{Name: "dev"})
	require.NoError(t, err)
	assert.Empty(t, listed)

	env, err := Peek(path, Opts{Name: "pro"})
	require.NoError(t, err)
	assert.Equal(t, "prod", env.Metadata.Name)
}

func TestStaticInvalidSpec(t *testing.T) {
	root := testutil.Project(t, map[string]string{
		"env/spec.json":    `{"spec": {"namespace": 42}}`,
		"env/main.jsonnet": "{}",
	})

	_, err := Peek(filepath.Join(root, "env"), Opts{})
	require.Error(t, err)
	assert.ErrorIs(t, err, oerrors.ErrConfig)
}

func TestInlineList(t *testing.T) {
	root := inlineProject(t)
	path := filepath.Join(root, "environments", "multi")

	tests := []struct {
		name   string
		filter string
		want   []string
	}{
		{name: "all", want: []string{"dev", "prod", "prod-eu"}},
		{name: "substring", filter: "prod", want: []string{"prod", "prod-eu"}},
		{name: "no match", filter: "staging", want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			envs, err := List(path, Opts{Name: tt.filter})
			require.NoError(t, err)

			got := []string{}
			for _, e := range envs {
				got = append(got, e.Metadata.Name)
				assert.Nil(t, e.Data)
				assert.Equal(t, "environments/multi/main.jsonnet", e.Metadata.Namespace)
			}
			assert.ElementsMatch(t, tt.want, got)
		})
	}
}

func TestInlineLoad(t *testing.T) {
	root := inlineProject(t)
	path := filepath.Join(root, "environments", "multi")

	tests := []struct {
		name     string
		filter   string
		wantName string
		wantErr  error
		wantList []string
	}{
		{name: "no filter is ambiguous", wantErr: oerrors.ErrAmbiguous, wantList: []string{"dev", "prod", "prod-eu"}},
		{name: "unique substring", filter: "eu", wantName: "prod-eu"},
		{name: "exact match preferred", filter: "prod", wantName: "prod"},
		{name: "exact name", filter: "dev", wantName: "dev"},
		{name: "ambiguous substring", filter: "pro", wantErr: oerrors.ErrAmbiguous, wantList: []string{"prod", "prod-eu"}},
		{name: "no match", filter: "staging", wantErr: oerrors.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loaded, err := Load(path, Opts{Name: tt.filter})
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)

				var multi ErrMultipleEnvs
				if errors.As(err, &multi) {
					assert.Equal(t, tt.wantList, multi.Names)
				}
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantName, loaded.Env.Metadata.Name)
			assert.Equal(t, "environments/multi/main.jsonnet", loaded.Env.Metadata.Namespace)
			assert.Equal(t, map[string]any{
				"cm": map[string]any{
					"apiVersion": "v1",
					"kind":       "ConfigMap",
					"metadata":   map[string]any{"name": tt.wantName},
				},
			}, loaded.Env.Data)
		})
	}
}

func TestInlinePeekSkipsData(t *testing.T) {
	root := testutil.Project(t, map[string]string{
		"env/main.jsonnet": `{
  apiVersion: 'tanka.dev/v1alpha1',
  kind: 'Environment',
  metadata: { name: 'only' },
  spec: {},
  data: error 'data must not be evaluated',
}`,
	})

	env, err := Peek(filepath.Join(root, "env"), Opts{})
	require.NoError(t, err)
	assert.Equal(t, "only", env.Metadata.Name)
	assert.Equal(t, "default", env.Spec.Namespace)
	assert.Nil(t, env.Data)
}

func TestInlineExtVarIsAnError(t *testing.T) {
	root := testutil.Project(t, map[string]string{
		"env/main.jsonnet": `{ ns: std.extVar('tanka.dev/environment').spec.namespace }`,
	})

	_, err := Eval(filepath.Join(root, "env"), Opts{})
	require.Error(t, err)
	assert.ErrorIs(t, err, oerrors.ErrEvaluation)
	assert.Contains(t, err.Error(), "only supported for static environments")
}

func TestEval(t *testing.T) {
	root := testutil.Project(t, map[string]string{
		"env/main.jsonnet": `function(replicas=1) { replicas: replicas, region: std.extVar('region') }`,
	})

	opts := Opts{JsonnetOpts: jsonnet.Opts{
		ExtCode: jsonnet.InjectedCode{"region": `"eu"`},
		TLACode: jsonnet.InjectedCode{"replicas": "3"},
	}}
	raw, err := Eval(filepath.Join(root, "env"), opts)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"replicas": float64(3), "region": "eu"}, raw)

	// the caller's options are left untouched
	assert.NotContains(t, opts.JsonnetOpts.ExtCode, EnvironmentExtCode)
}
