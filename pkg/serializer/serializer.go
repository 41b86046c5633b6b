// Package serializer renders command results in the formats the CLI
// exposes: JSON and YAML for machine consumption, a flattened
// field/value table for terminals. Output goes to stdout or to a file
// chosen with --output.
package serializer

import "context"

// StdoutURI is the special output path meaning "write to stdout".
const StdoutURI = "-"

// Format selects the output encoding.
type Format string

const (
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
	FormatTable Format = "table"
)

// IsUnknown reports whether f is not one of the supported formats.
func (f Format) IsUnknown() bool {
	switch f {
	case FormatJSON, FormatYAML, FormatTable:
		return false
	}
	return true
}

// SupportedFormats lists the accepted --format values.
func SupportedFormats() []string {
	return []string{string(FormatJSON), string(FormatYAML), string(FormatTable)}
}

// Serializer renders a value to its destination.
type Serializer interface {
	Serialize(ctx context.Context, data any) error
}

// Closer is implemented by serializers holding a resource that must be
// released after the last Serialize call.
type Closer interface {
	Close() error
}
