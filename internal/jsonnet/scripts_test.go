package jsonnet

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opmodel/tk/internal/testutil"
)

const inlineEnvs = `
local env(name) = {
  apiVersion: 'tanka.dev/v1alpha1',
  kind: 'Environment',
  metadata: { name: name },
  spec: { namespace: name },
  data: { cm: { apiVersion: 'v1', kind: 'ConfigMap', metadata: { name: 'x' }, data: {} } },
};
{
  envs: {
    prod: env('prod'),
    'prod-eu': env('prod-eu'),
    dev: env('dev'),
  },
  other: { apiVersion: 'v1', kind: 'Namespace' },
  list: [env('staging'), 'ignored', null],
  value: 42,
}
`

func evalScript(t *testing.T, script string) string {
	t.Helper()
	root := testutil.Project(t, map[string]string{"env/main.jsonnet": inlineEnvs})
	out, err := EvaluateFile(filepath.Join(root, "env", "main.jsonnet"), Opts{EvalScript: script})
	require.NoError(t, err)
	return out
}

func TestMetadataEvalScript(t *testing.T) {
	out := evalScript(t, MetadataEvalScript(""))
	assert.JSONEq(t, `{
		"envs": {
			"dev": {"apiVersion": "tanka.dev/v1alpha1", "kind": "Environment", "metadata": {"name": "dev"}, "spec": {"namespace": "dev"}},
			"prod": {"apiVersion": "tanka.dev/v1alpha1", "kind": "Environment", "metadata": {"name": "prod"}, "spec": {"namespace": "prod"}},
			"prod-eu": {"apiVersion": "tanka.dev/v1alpha1", "kind": "Environment", "metadata": {"name": "prod-eu"}, "spec": {"namespace": "prod-eu"}}
		},
		"list": [
			{"apiVersion": "tanka.dev/v1alpha1", "kind": "Environment", "metadata": {"name": "staging"}, "spec": {"namespace": "staging"}}
		]
	}`, out)
}

func TestMetadataEvalScriptFilter(t *testing.T) {
	out := evalScript(t, MetadataEvalScript("prod"))
	assert.JSONEq(t, `{
		"envs": {
			"prod": {"apiVersion": "tanka.dev/v1alpha1", "kind": "Environment", "metadata": {"name": "prod"}, "spec": {"namespace": "prod"}},
			"prod-eu": {"apiVersion": "tanka.dev/v1alpha1", "kind": "Environment", "metadata": {"name": "prod-eu"}, "spec": {"namespace": "prod-eu"}}
		}
	}`, out)
}

func TestSingleEnvEvalScript(t *testing.T) {
	out := evalScript(t, SingleEnvEvalScript("prod"))
	assert.JSONEq(t, `{
		"envs": {
			"prod": {
				"apiVersion": "tanka.dev/v1alpha1",
				"kind": "Environment",
				"metadata": {"name": "prod"},
				"spec": {"namespace": "prod"},
				"data": {"cm": {"apiVersion": "v1", "kind": "ConfigMap", "metadata": {"name": "x"}, "data": {}}}
			}
		}
	}`, out)
}

func TestScriptQuotesFilter(t *testing.T) {
	out := evalScript(t, MetadataEvalScript(`it's "quoted"`))
	assert.JSONEq(t, `{}`, out)
}

func TestScriptSnippet(t *testing.T) {
	assert.Equal(t, "local main = (import \"main.jsonnet\");\nmain.a\n",
		ScriptSnippet("main.jsonnet", "main.a", nil))
	assert.Equal(t, "function(a, b)\nlocal main = (import \"main.jsonnet\")(a=a, b=b);\nmain\n",
		ScriptSnippet("main.jsonnet", "main", []string{"a", "b"}))
}
