package process

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/opmodel/tk/internal/manifest"
)

// Matcher is a single filter expression, matched against `<kind>/<name>`.
type Matcher interface {
	MatchString(string) bool
}

// Ignorer is a Matcher that explicitly excludes resources.
type Ignorer interface {
	IgnoreString(string) bool
}

// Matchers is a set of filter expressions.
type Matchers []Matcher

// MatchString reports whether at least one positive expression matches s.
// Without positive expressions everything matches.
func (e Matchers) MatchString(s string) bool {
	positive := false
	for _, exp := range e {
		if _, negated := exp.(Ignorer); negated {
			continue
		}
		positive = true
		if exp.MatchString(s) {
			return true
		}
	}
	return !positive
}

// IgnoreString reports whether any negated expression matches s.
func (e Matchers) IgnoreString(s string) bool {
	for _, exp := range e {
		if i, ok := exp.(Ignorer); ok && i.IgnoreString(s) {
			return true
		}
	}
	return false
}

// StrExps compiles target expressions. Each is anchored and case
// insensitive; a leading `!` negates it.
func StrExps(strs ...string) (Matchers, error) {
	exps := make(Matchers, 0, len(strs))
	for _, raw := range strs {
		s := fmt.Sprintf(`(?i)^%s$`, strings.TrimPrefix(raw, "!"))

		var exp Matcher
		exp, err := regexp.Compile(s)
		if err != nil {
			return nil, ErrBadExpr{Expr: raw, Err: err}
		}

		if strings.HasPrefix(raw, "!") {
			exp = negMatcher{exp: exp}
		}
		exps = append(exps, exp)
	}
	return exps, nil
}

// ErrBadExpr occurs when a target expression does not compile.
type ErrBadExpr struct {
	Expr string
	Err  error
}

func (e ErrBadExpr) Error() string {
	return fmt.Sprintf("invalid target expression %q: %v", e.Expr, e.Err)
}

func (e ErrBadExpr) Unwrap() error {
	return e.Err
}

// negMatcher matches everything its expression does not.
type negMatcher struct {
	exp Matcher
}

func (n negMatcher) MatchString(string) bool {
	return true
}

func (n negMatcher) IgnoreString(s string) bool {
	return n.exp.MatchString(s)
}

// Filter returns the manifests matching at least one expression and no
// negated one. An empty Matchers keeps everything.
func Filter(list manifest.List, exprs Matchers) manifest.List {
	if len(exprs) == 0 {
		return list
	}

	out := make(manifest.List, 0, len(list))
	for _, m := range list {
		name := m.KindName()
		if !exprs.MatchString(name) || exprs.IgnoreString(name) {
			continue
		}
		out = append(out, m)
	}
	return out
}
