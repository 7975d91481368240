package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format is the encoding of a settings document.
type Format string

// Supported formats.
const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// FormatOf picks the format from a file extension: .yaml, .yml or .json.
func FormatOf(path string) (Format, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unsupported config file extension: %q", ext)
	}
}

// Parse decodes a document into a Config. An empty document yields an
// empty Config.
func Parse(data []byte, f Format) (Config, error) {
	var m map[string]any
	var err error
	switch f {
	case FormatYAML:
		err = yaml.Unmarshal(data, &m)
	case FormatJSON:
		if strings.TrimSpace(string(data)) != "" {
			err = json.Unmarshal(data, &m)
		}
	default:
		return Config{}, fmt.Errorf("unsupported config format: %q", f)
	}
	if err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", f, err)
	}
	return New(m), nil
}

// FromFile reads a file and parses it in the format its extension names.
func FromFile(path string) (Config, error) {
	f, err := FormatOf(path)
	if err != nil {
		return Config{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}
	return Parse(data, f)
}

// FromYAML parses YAML data into a Config.
func FromYAML(data []byte) (Config, error) {
	return Parse(data, FormatYAML)
}

// FromJSON parses JSON data into a Config.
func FromJSON(data []byte) (Config, error) {
	return Parse(data, FormatJSON)
}

// ParseSettings parses a document and decodes its settings, taken from
// the "nextbus" section when present.
func ParseSettings(data []byte, f Format) (Settings, error) {
	cfg, err := Parse(data, f)
	if err != nil {
		return Default(), err
	}
	return Decode(cfg)
}

// Load reads a settings file and decodes it. Decode errors name the file.
func Load(path string) (Settings, error) {
	cfg, err := FromFile(path)
	if err != nil {
		return Default(), err
	}
	s, err := Decode(cfg)
	if err != nil {
		return s, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}
