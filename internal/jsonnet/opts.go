package jsonnet

import (
	"maps"
	"regexp"
	"slices"
)

// DefaultMaxStack is the evaluator's stack depth when none is set.
const DefaultMaxStack = 500

// InjectedCode holds Jsonnet snippets keyed by name, used for ext code and
// top level arguments.
type InjectedCode map[string]string

// Set stores a Jsonnet expression under key.
func (c *InjectedCode) Set(key, value string) {
	if *c == nil {
		*c = make(InjectedCode)
	}
	(*c)[key] = value
}

// Keys returns the sorted keys.
func (c InjectedCode) Keys() []string {
	return slices.Sorted(maps.Keys(c))
}

// Clone returns an independent copy. A nil receiver yields nil.
func (c InjectedCode) Clone() InjectedCode {
	if c == nil {
		return nil
	}
	return maps.Clone(c)
}

// Opts configures a single evaluation.
type Opts struct {
	MaxStack int
	ExtCode  InjectedCode
	TLACode  InjectedCode

	// ImportPaths overrides the search path resolved from the entrypoint.
	ImportPaths []string

	// EvalScript is evaluated instead of the entrypoint's output. The
	// entrypoint's value is bound to `main`.
	EvalScript string

	// Cache reuses VMs across evaluations. Nil means a fresh VM per call.
	Cache *Cache

	// CachePath is a directory storing evaluation results across runs.
	// Empty disables the on-disk cache.
	CachePath string

	// CacheEnvs restricts the on-disk cache to entrypoints matching one of
	// the expressions. Empty caches every entrypoint.
	CacheEnvs []*regexp.Regexp
}

// PathIsCached reports whether results for path go to the on-disk cache.
func (o Opts) PathIsCached(path string) bool {
	if o.CachePath == "" {
		return false
	}
	for _, re := range o.CacheEnvs {
		if re.MatchString(path) {
			return true
		}
	}
	return len(o.CacheEnvs) == 0
}

// Clone returns a copy whose maps and slices can be modified freely. The
// cache is shared.
func (o Opts) Clone() Opts {
	o.ExtCode = o.ExtCode.Clone()
	o.TLACode = o.TLACode.Clone()
	o.ImportPaths = slices.Clone(o.ImportPaths)
	o.CacheEnvs = slices.Clone(o.CacheEnvs)
	return o
}
