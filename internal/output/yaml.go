package output

import (
	"bytes"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// FprintYAML serializes v to w as YAML.
func FprintYAML(w io.Writer, v interface{}) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("yaml encode: %w", err)
	}
	return enc.Close()
}

// YAMLText renders v as YAML for text payloads.
func YAMLText(v interface{}) (string, error) {
	var buf bytes.Buffer
	if err := FprintYAML(&buf, v); err != nil {
		return "", err
	}
	return buf.String(), nil
}
