package scenario

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Read loads a scenario from a JSON or YAML file (chosen by extension) and checks that all required fields
// are present. A *ValidationError is returned if any are missing.
func Read(path string) (*Scenario, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario file: %w", err)
	}

	s, err := Parse(content, filepath.Ext(path))
	if err != nil {
		return nil, err
	}

	if missing := Validate(s); len(missing) > 0 {
		return nil, &ValidationError{Missing: missing}
	}
	return s, nil
}

// Parse decodes scenario content. The format is YAML for ".yaml"/".yml" extensions and JSON otherwise.
func Parse(content []byte, ext string) (*Scenario, error) {
	var s Scenario
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(content, &s); err != nil {
			return nil, fmt.Errorf("unmarshal yaml scenario: %w", err)
		}
	default:
		if err := json.Unmarshal(content, &s); err != nil {
			return nil, fmt.Errorf("unmarshal json scenario: %w", err)
		}
	}
	return &s, nil
}
