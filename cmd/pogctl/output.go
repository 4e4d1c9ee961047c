package main

import (
	"encoding/json"
	"io"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

// render writes v as JSON or YAML. YAML goes through the JSON encoding so
// both formats share the same field names.
func render(w io.Writer, format string, v any) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case formatYAML:
		raw, err := json.Marshal(v)
		if err != nil {
			return eris.Wrap(err, "render: marshal")
		}
		var doc any
		if err := yaml.Unmarshal(raw, &doc); err != nil {
			return eris.Wrap(err, "render: convert")
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(doc)
	default:
		return eris.Errorf("render: unsupported format %q", format)
	}
}
