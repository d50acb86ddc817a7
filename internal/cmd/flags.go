package cmd

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cast"
	"github.com/spf13/cobra"

	"github.com/opmodel/tk/internal/config"
	oerrors "github.com/opmodel/tk/internal/errors"
	"github.com/opmodel/tk/internal/jsonnet"
	"github.com/opmodel/tk/internal/output"
)

// jsonnetFlags are shared by every command evaluating Jsonnet.
type jsonnetFlags struct {
	extCode  []string
	extStr   []string
	tlaCode  []string
	tlaStr   []string
	maxStack int
	name     string
}

func (f *jsonnetFlags) addFlags(c *cobra.Command) {
	c.Flags().StringArrayVar(&f.extCode, "ext-code", nil, "Set code value of extVar (format: key=<code>)")
	c.Flags().StringArrayVarP(&f.extStr, "ext-str", "V", nil, "Set string value of extVar (format: key=value)")
	c.Flags().StringArrayVar(&f.tlaCode, "tla-code", nil, "Set code value of top level function (format: key=<code>)")
	c.Flags().StringArrayVarP(&f.tlaStr, "tla-str", "A", nil, "Set string value of top level function (format: key=value)")
	c.Flags().IntVar(&f.maxStack, "max-stack", 0, "Jsonnet VM max stack (env: TK_MAX_STACK)")
	c.Flags().StringVar(&f.name, "name", "", "Select an environment by name (substring, exact match preferred)")
}

// opts builds the evaluator options from the flags, resolving the stack
// size against env and config.
func (f *jsonnetFlags) opts(c *cobra.Command) (jsonnet.Opts, error) {
	var opts jsonnet.Opts

	maxStack := getLoader().Resolve("jsonnet.maxStack", config.FlagValue{
		Value:   f.maxStack,
		Changed: c.Flags().Changed("max-stack"),
	})
	config.LogResolvedValues(maxStack)
	opts.MaxStack = cast.ToInt(maxStack.Value)

	for _, set := range []struct {
		values []string
		target *jsonnet.InjectedCode
		quote  bool
	}{
		{f.extCode, &opts.ExtCode, false},
		{f.extStr, &opts.ExtCode, true},
		{f.tlaCode, &opts.TLACode, false},
		{f.tlaStr, &opts.TLACode, true},
	} {
		for _, kv := range set.values {
			key, value, err := parseKV(kv)
			if err != nil {
				return jsonnet.Opts{}, err
			}
			if set.quote {
				quoted, _ := json.Marshal(value)
				value = string(quoted)
			}
			set.target.Set(key, value)
		}
	}

	return opts, nil
}

// parseKV splits `key=value`.
func parseKV(kv string) (string, string, error) {
	key, value, ok := strings.Cut(kv, "=")
	if !ok || key == "" {
		return "", "", oerrors.NewConfigError(
			fmt.Sprintf("invalid value %q", kv),
			"",
			"expected the format key=value",
		)
	}
	return key, value, nil
}

// parseOutputFormat parses --output against the formats a command accepts.
func parseOutputFormat(value string, valid []string) (output.Format, error) {
	format, ok := output.ParseFormat(value)
	if ok && slices.Contains(valid, format.String()) {
		return format, nil
	}
	return "", oerrors.NewConfigError(
		fmt.Sprintf("invalid output format %q", value),
		"",
		fmt.Sprintf("valid formats: %s", strings.Join(valid, ", ")),
	)
}
