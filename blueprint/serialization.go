package blueprint

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/BaSui01/botflow/internal/maputil"
)

// FromJSON parses a blueprint from JSON bytes.
func FromJSON(data []byte) (*Blueprint, error) {
	var bp Blueprint
	if err := json.Unmarshal(data, &bp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal blueprint from JSON: %w", err)
	}
	return &bp, nil
}

// FromYAML parses a blueprint from YAML bytes.
func FromYAML(data []byte) (*Blueprint, error) {
	var bp Blueprint
	if err := yaml.Unmarshal(data, &bp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal blueprint from YAML: %w", err)
	}
	normalizeConfig(&bp)
	return &bp, nil
}

// Parse detects the encoding from the first non-space byte. JSON objects start
// with '{'; anything else is treated as YAML.
func Parse(data []byte) (*Blueprint, error) {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "{") {
		return FromJSON(data)
	}
	return FromYAML(data)
}

// LoadFile loads a blueprint from a .json, .yaml or .yml file.
func LoadFile(filename string) (*Blueprint, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".json":
		return FromJSON(data)
	case ".yaml", ".yml":
		return FromYAML(data)
	default:
		return Parse(data)
	}
}

// ToJSON converts a blueprint to indented JSON.
func (b *Blueprint) ToJSON() ([]byte, error) {
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal to JSON: %w", err)
	}
	return data, nil
}

// ToYAML converts a blueprint to YAML.
func (b *Blueprint) ToYAML() ([]byte, error) {
	data, err := yaml.Marshal(b)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal to YAML: %w", err)
	}
	return data, nil
}

// normalizeConfig rewrites YAML-decoded config into the JSON value shapes.
func normalizeConfig(bp *Blueprint) {
	for i := range bp.Nodes {
		for k, v := range bp.Nodes[i].Config {
			bp.Nodes[i].Config[k] = maputil.Normalize(v)
		}
	}
}
