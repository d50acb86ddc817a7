package spec

import (
	"fmt"
	"strings"
)

type deprecation struct {
	old, new string
}

// deprecated lists spec.json keys that are still honored under their new
// location.
var deprecated = []deprecation{
	{old: "namespace", new: "spec.namespace"},
	{old: "server", new: "spec.apiServer"},
	{old: "team", new: "metadata.labels.team"},
}

// ErrDeprecated is a non-fatal error listing deprecated keys used in a
// spec.json.
type ErrDeprecated []deprecation

func (e ErrDeprecated) Error() string {
	var sb strings.Builder
	for _, d := range e {
		fmt.Fprintf(&sb, "`%s` is deprecated, use `%s` instead\n", d.old, d.new)
	}
	return sb.String()
}
