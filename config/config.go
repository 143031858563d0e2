package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-yaml"
)

// FileName is looked up in the source root.
const FileName = ".fnk-e2e.yaml"

// Config holds the harness settings. Relative paths are resolved against the
// source root.
type Config struct {
	Tests     string `yaml:"tests,omitempty" json:"tests,omitempty"`
	Extension string `yaml:"extension,omitempty" json:"extension,omitempty"`
	Package   string `yaml:"package,omitempty" json:"package,omitempty"`
	Binary    string `yaml:"binary,omitempty" json:"binary,omitempty"`
	Toolchain string `yaml:"toolchain,omitempty" json:"toolchain,omitempty"`
	Build     string `yaml:"build,omitempty" json:"build,omitempty"`
	Filter    string `yaml:"filter,omitempty" json:"filter,omitempty"`
}

func Default() Config {
	return Config{
		Tests:     "tests",
		Extension: "fnk",
		Package:   "cmd/funk",
		Binary:    "funk",
		Toolchain: "go",
	}
}

// Load returns the defaults merged with <root>/.fnk-e2e.yaml when present.
func Load(root string) (Config, error) {
	cfg := Default()

	path := filepath.Join(root, FileName)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var file Config
	if err := yaml.Unmarshal(data, &file); err != nil {
		return cfg, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return Merge(cfg, file), nil
}

// Merge overlays the non-empty fields of override on base.
func Merge(base, override Config) Config {
	merged := base
	if override.Tests != "" {
		merged.Tests = override.Tests
	}
	if override.Extension != "" {
		merged.Extension = override.Extension
	}
	if override.Package != "" {
		merged.Package = override.Package
	}
	if override.Binary != "" {
		merged.Binary = override.Binary
	}
	if override.Toolchain != "" {
		merged.Toolchain = override.Toolchain
	}
	if override.Build != "" {
		merged.Build = override.Build
	}
	if override.Filter != "" {
		merged.Filter = override.Filter
	}
	return merged
}

// TestsDir resolves the fixture root against the source root.
func (c Config) TestsDir(root string) string {
	if filepath.IsAbs(c.Tests) {
		return c.Tests
	}
	return filepath.Join(root, c.Tests)
}
