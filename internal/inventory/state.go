// Package inventory tracks which environment owns each file of an export
// directory. The record is kept in manifest.json at the output root and
// allows later runs to replace or delete an environment's files.
package inventory

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/opmodel/tk/internal/output"
)

// StateFile is the name of the state file in the output root.
const StateFile = "manifest.json"

// State maps output relative file paths, slash separated, to the identifier
// of the owning environment.
type State map[string]string

// Read loads the state file of dir. A missing file yields an empty State.
func Read(dir string) (State, error) {
	path := filepath.Join(dir, StateFile)

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		output.Debug("no export state found", "path", path)
		return State{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading export state: %w", err)
	}

	state := State{}
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("parsing export state %s: %w", path, err)
	}
	return state, nil
}

// Write replaces the state file of dir with s.
func (s State) Write(dir string) error {
	if s == nil {
		s = State{}
	}

	data, err := json.MarshalIndent(s, "", "    ")
	if err != nil {
		return fmt.Errorf("encoding export state: %w", err)
	}

	path := filepath.Join(dir, StateFile)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing export state: %w", err)
	}

	output.Debug("wrote export state", "path", path, "entries", len(s))
	return nil
}

// OwnedBy returns the sorted paths owned by any of the given identifiers.
func (s State) OwnedBy(owners ...string) []string {
	set := make(map[string]struct{}, len(owners))
	for _, o := range owners {
		set[o] = struct{}{}
	}

	var paths []string
	for path, owner := range s {
		if _, ok := set[owner]; ok {
			paths = append(paths, path)
		}
	}
	sort.Strings(paths)
	return paths
}

// Merge returns s without the deleted paths, with entries added on top.
// s itself is not modified.
func (s State) Merge(entries State, deleted []string) State {
	out := make(State, len(s)+len(entries))
	for k, v := range s {
		out[k] = v
	}
	for _, k := range deleted {
		delete(out, k)
	}
	for k, v := range entries {
		out[k] = v
	}
	return out
}

// Owners returns the sorted distinct identifiers recorded in s.
func (s State) Owners() []string {
	set := make(map[string]struct{})
	for _, owner := range s {
		set[owner] = struct{}{}
	}

	owners := make([]string, 0, len(set))
	for o := range set {
		owners = append(owners, o)
	}
	sort.Strings(owners)
	return owners
}
