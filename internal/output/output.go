package output

import (
	"fmt"
	"io"
	"os"

	"github.com/mj1618/remote-ui-mcp/internal/model"
)

// Format represents the output format.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// OutputFormat is the current output format, set by the root command's --format flag.
var OutputFormat Format = FormatYAML

// PrettyOutput enables pretty-printing for JSON output.
var PrettyOutput bool

// ParseFormat validates a --format flag value.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatYAML, FormatJSON:
		return Format(s), nil
	default:
		return "", fmt.Errorf("unsupported output format: %q (expected yaml or json)", s)
	}
}

// SnapshotResult is the top-level output of the `snapshot` command.
type SnapshotResult struct {
	TS     int64                   `yaml:"ts"     json:"ts"`
	Screen model.ScreenInfo        `yaml:"screen" json:"screen"`
	Result model.MultiWindowResult `yaml:"result" json:"result"`
}

// SnapshotFlatResult is the output of `snapshot --flat`.
type SnapshotFlatResult struct {
	TS       int64                `yaml:"ts"                 json:"ts"`
	Screen   model.ScreenInfo     `yaml:"screen"             json:"screen"`
	Degraded bool                 `yaml:"degraded,omitempty" json:"degraded,omitempty"`
	Elements []model.ElementMatch `yaml:"elements"           json:"elements"`
}

// FindResult is the payload of element searches.
type FindResult struct {
	Count    int                  `yaml:"count"    json:"count"`
	Elements []model.ElementMatch `yaml:"elements" json:"elements"`
}

// Print serializes v to stdout in the current output format.
func Print(v interface{}) error {
	return Fprint(os.Stdout, v)
}

// Fprint serializes v to w in the current output format.
func Fprint(w io.Writer, v interface{}) error {
	switch OutputFormat {
	case FormatJSON:
		return FprintJSON(w, v, PrettyOutput)
	case FormatYAML:
		return FprintYAML(w, v)
	default:
		return fmt.Errorf("unsupported output format: %s", OutputFormat)
	}
}
