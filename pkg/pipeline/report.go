package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// MarshalReport encodes r as YAML when format is "yaml" or "yml" and as
// indented JSON otherwise.
func (r *Result) MarshalReport(format string) ([]byte, error) {
	switch strings.ToLower(format) {
	case "yaml", "yml":
		return yaml.Marshal(r)
	default:
		data, err := json.MarshalIndent(r, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	}
}

// WriteReport writes r to path. The format follows the file extension:
// ".yaml" and ".yml" produce YAML, anything else JSON.
func (r *Result) WriteReport(path string) error {
	format := strings.TrimPrefix(filepath.Ext(path), ".")
	data, err := r.MarshalReport(format)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
