package app

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Output formats of report printing commands.
const (
	formatJSON = "json"
	formatYAML = "yaml"
	formatTOML = "toml"
)

var errUnknownFormat = fmt.Errorf("format must be %s, %s or %s", formatJSON, formatYAML, formatTOML)

// encode writes v to w in the given format.
func encode(w io.Writer, format string, v any) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")

		return enc.Encode(v)
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)

		if err := enc.Encode(v); err != nil {
			return err
		}

		return enc.Close()
	case formatTOML:
		return toml.NewEncoder(w).Encode(v)
	default:
		return fmt.Errorf("%w: %q", errUnknownFormat, format)
	}
}
