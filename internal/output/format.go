package output

import "strings"

// Format specifies how results are printed.
type Format string

const (
	// FormatYAML outputs YAML documents.
	FormatYAML Format = "yaml"

	// FormatJSON outputs indented JSON.
	FormatJSON Format = "json"

	// FormatTable outputs a table.
	FormatTable Format = "table"

	// FormatNames outputs one name per line.
	FormatNames Format = "names"
)

// String returns the string representation of the format.
func (f Format) String() string {
	return string(f)
}

// Valid reports whether f is a known format.
func (f Format) Valid() bool {
	switch f {
	case FormatYAML, FormatJSON, FormatTable, FormatNames:
		return true
	default:
		return false
	}
}

// ParseFormat parses a string into a Format. The second result is false for
// unknown input.
func ParseFormat(s string) (Format, bool) {
	switch strings.ToLower(s) {
	case "yaml", "yml":
		return FormatYAML, true
	case "json":
		return FormatJSON, true
	case "table":
		return FormatTable, true
	case "names", "name":
		return FormatNames, true
	default:
		return "", false
	}
}

// ValidListFormats returns valid formats for `env list`.
func ValidListFormats() []string {
	return []string{"table", "json", "names"}
}

// ValidManifestFormats returns valid formats for `show` and `eval`.
func ValidManifestFormats() []string {
	return []string{"yaml", "json"}
}
