package jsonnet

import (
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opmodel/tk/internal/testutil"
)

func cacheEntries(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestEvaluateFileWithFileCache(t *testing.T) {
	root := testutil.Project(t, map[string]string{
		"lib/shared.libsonnet": `{ v: 1 }`,
		"a/main.jsonnet":       `{ a: (import 'shared.libsonnet').v }`,
		"b/main.jsonnet":       `{ b: true }`,
	})
	a := filepath.Join(root, "a", "main.jsonnet")
	b := filepath.Join(root, "b", "main.jsonnet")
	cachePath := filepath.Join(t.TempDir(), "cache")
	opts := Opts{CachePath: cachePath}

	out, err := EvaluateFile(a, opts)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a": 1}`, out)
	out, err = EvaluateFile(b, opts)
	require.NoError(t, err)
	assert.JSONEq(t, `{"b": true}`, out)

	entries := cacheEntries(t, cachePath)
	require.Len(t, entries, 2)

	// stored results are served without evaluating
	for _, name := range entries {
		testutil.WriteFile(t, cachePath, name, `"from cache"`)
	}
	out, err = EvaluateFile(a, opts)
	require.NoError(t, err)
	assert.Equal(t, `"from cache"`, out)
	out, err = EvaluateFile(b, opts)
	require.NoError(t, err)
	assert.Equal(t, `"from cache"`, out)

	// changing an imported file misses the cache
	testutil.WriteFile(t, root, "lib/shared.libsonnet", `{ v: 2 }`)
	out, err = EvaluateFile(a, opts)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a": 2}`, out)
	assert.Len(t, cacheEntries(t, cachePath), 3)
}

func TestEvaluateFileCacheInjectedCode(t *testing.T) {
	root := testutil.Project(t, map[string]string{
		"env/main.jsonnet": `{ n: std.extVar('n') }`,
	})
	path := filepath.Join(root, "env", "main.jsonnet")
	cachePath := t.TempDir()

	for _, n := range []string{"1", "2", "1"} {
		out, err := EvaluateFile(path, Opts{CachePath: cachePath, ExtCode: InjectedCode{"n": n}})
		require.NoError(t, err)
		assert.JSONEq(t, `{"n": `+n+`}`, out)
	}
	assert.Len(t, cacheEntries(t, cachePath), 2)
}

func TestEvaluateFileCacheEnvs(t *testing.T) {
	root := testutil.Project(t, map[string]string{
		"prod/main.jsonnet": `{}`,
		"dev/main.jsonnet":  `{}`,
	})
	cachePath := t.TempDir()
	opts := Opts{CachePath: cachePath, CacheEnvs: []*regexp.Regexp{regexp.MustCompile(`/prod/`)}}

	for _, env := range []string{"prod", "dev"} {
		_, err := EvaluateFile(filepath.Join(root, env, "main.jsonnet"), opts)
		require.NoError(t, err)
	}
	assert.Len(t, cacheEntries(t, cachePath), 1)
}

func TestPathIsCached(t *testing.T) {
	tests := []struct {
		name string
		opts Opts
		path string
		want bool
	}{
		{name: "no cache path", opts: Opts{CacheEnvs: []*regexp.Regexp{regexp.MustCompile(`.*`)}}, path: "/a/main.jsonnet"},
		{name: "no expressions", opts: Opts{CachePath: "/c"}, path: "/a/main.jsonnet", want: true},
		{
			name: "match",
			opts: Opts{CachePath: "/c", CacheEnvs: []*regexp.Regexp{regexp.MustCompile(`^/b/`), regexp.MustCompile(`/a/`)}},
			path: "/a/main.jsonnet",
			want: true,
		},
		{
			name: "no match",
			opts: Opts{CachePath: "/c", CacheEnvs: []*regexp.Regexp{regexp.MustCompile(`^/b/`)}},
			path: "/a/main.jsonnet",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.opts.PathIsCached(tt.path))
		})
	}
}

func TestFileCacheGetMiss(t *testing.T) {
	c := NewFileCache(filepath.Join(t.TempDir(), "missing"))

	_, ok, err := c.Get("abc")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Store("abc", `{}`))
	got, ok, err := c.Get("abc")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{}`, got)
}
