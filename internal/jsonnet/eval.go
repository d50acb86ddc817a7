// Package jsonnet wraps go-jsonnet: it builds VMs with the import path,
// native functions and injected code of an evaluation, and evaluates
// entrypoints either directly or through an eval script.
package jsonnet

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	jsonnet "github.com/google/go-jsonnet"

	oerrors "github.com/opmodel/tk/internal/errors"
	"github.com/opmodel/tk/internal/jpath"
	"github.com/opmodel/tk/internal/jsonnet/native"
	"github.com/opmodel/tk/internal/output"
)

// EvaluateFile evaluates the Jsonnet file at path and returns its JSON
// output.
func EvaluateFile(path string, opts Opts) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w: %w", path, oerrors.ErrNotFound, err)
	}
	return Evaluate(path, string(data), opts)
}

// Evaluate evaluates data as if it were the content of the file at path.
// When opts.EvalScript is set, the script is evaluated instead with the
// file's value bound to `main`.
func Evaluate(path, data string, opts Opts) (string, error) {
	if opts.ImportPaths == nil {
		jp, _, _, err := jpath.Resolve(path)
		if err != nil {
			return "", err
		}
		opts.ImportPaths = jp
	}

	if opts.EvalScript != "" {
		data = ScriptSnippet(filepath.Base(path), opts.EvalScript, opts.TLACode.Keys())
	}

	var vm *jsonnet.VM
	if opts.Cache != nil {
		vm = opts.Cache.vm(opts)
	} else {
		vm = newVM(opts)
	}

	var (
		evalCache *FileCache
		hash      string
	)
	if opts.PathIsCached(path) {
		evalCache = NewFileCache(opts.CachePath)

		var err error
		if hash, err = SnippetHash(vm, path, data, opts); err != nil {
			return "", err
		}
		cached, ok, err := evalCache.Get(hash)
		if err != nil {
			return "", err
		}
		output.Debug("computed snippet hash", "path", path, "hash", hash, "hit", ok)
		if ok {
			return cached, nil
		}
	}

	output.Debug("evaluating jsonnet", "path", path, "script", opts.EvalScript != "")
	out, err := vm.EvaluateAnonymousSnippet(path, data)
	if err != nil {
		return "", fmt.Errorf("evaluating %s: %w: %w", path, oerrors.ErrEvaluation, err)
	}

	if evalCache != nil {
		if err := evalCache.Store(hash, out); err != nil {
			return "", err
		}
	}
	return out, nil
}

// ScriptSnippet binds the entrypoint to `main` and appends script. With top
// level arguments, the snippet becomes a function forwarding them to the
// entrypoint.
func ScriptSnippet(entrypoint, script string, tlaNames []string) string {
	// JSON string literals are valid Jsonnet string literals
	quoted, _ := json.Marshal(entrypoint)

	if len(tlaNames) == 0 {
		return fmt.Sprintf("local main = (import %s);\n%s\n", quoted, script)
	}

	args := make([]string, len(tlaNames))
	for i, name := range tlaNames {
		args[i] = name + "=" + name
	}
	return fmt.Sprintf("function(%s)\nlocal main = (import %s)(%s);\n%s\n",
		strings.Join(tlaNames, ", "), quoted, strings.Join(args, ", "), script)
}

func newVM(opts Opts) *jsonnet.VM {
	vm := jsonnet.MakeVM()
	vm.Importer(NewExtendedImporter(opts.ImportPaths))

	vm.MaxStack = DefaultMaxStack
	if opts.MaxStack > 0 {
		vm.MaxStack = opts.MaxStack
	}

	for _, nf := range native.Funcs() {
		vm.NativeFunction(nf)
	}

	inject(vm, opts)
	return vm
}

func inject(vm *jsonnet.VM, opts Opts) {
	for k, v := range opts.ExtCode {
		vm.ExtCode(k, v)
	}
	for k, v := range opts.TLACode {
		vm.TLACode(k, v)
	}
}
