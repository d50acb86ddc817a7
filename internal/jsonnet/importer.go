package jsonnet

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"sync"

	jsonnet "github.com/google/go-jsonnet"

	"github.com/opmodel/tk/internal/jsonnet/native"
)

// ExtendedImporter is a FileImporter that additionally understands YAML
// files: importing a `.yaml` or `.yml` file yields its document, or an array
// when the file holds several documents.
type ExtendedImporter struct {
	fi *jsonnet.FileImporter

	mu   sync.Mutex
	yaml map[string]jsonnet.Contents
}

// NewExtendedImporter returns an importer searching jpath. Later entries take
// precedence over earlier ones.
func NewExtendedImporter(jpath []string) *ExtendedImporter {
	return &ExtendedImporter{
		fi:   &jsonnet.FileImporter{JPaths: jpath},
		yaml: make(map[string]jsonnet.Contents),
	}
}

// Import implements jsonnet.Importer.
func (i *ExtendedImporter) Import(importedFrom, importedPath string) (jsonnet.Contents, string, error) {
	contents, foundAt, err := i.fi.Import(importedFrom, importedPath)
	if err != nil {
		return contents, foundAt, err
	}

	switch filepath.Ext(foundAt) {
	case ".yaml", ".yml":
	default:
		return contents, foundAt, nil
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	if c, ok := i.yaml[foundAt]; ok {
		return c, foundAt, nil
	}

	docs, err := native.DecodeYAMLStream([]byte(contents.String()))
	if err != nil {
		return jsonnet.Contents{}, foundAt, fmt.Errorf("importing %s: %w", foundAt, err)
	}

	var value any = docs
	if len(docs) == 1 {
		value = docs[0]
	}
	data, err := json.Marshal(value)
	if err != nil {
		return jsonnet.Contents{}, foundAt, fmt.Errorf("importing %s: %w", foundAt, err)
	}

	c := jsonnet.MakeContents(string(data))
	i.yaml[foundAt] = c
	return c, foundAt, nil
}
