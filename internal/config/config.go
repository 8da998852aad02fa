// Package config loads and validates the release configuration file. The
// file is YAML, checked against an embedded JSON Schema before decoding so
// misspelled keys fail loudly instead of silently defaulting.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// PackageConfig names one package being released and its target version. An
// empty version leaves the package out of scope.
type PackageConfig struct {
	Path    string `yaml:"path"`
	Version string `yaml:"version"`
}

// ExamplesConfig enables the examples snapshot sync.
type ExamplesConfig struct {
	Source            string   `yaml:"source"`
	Dest              string   `yaml:"dest"`
	Exceptions        []string `yaml:"exceptions"`
	WorkspaceManifest string   `yaml:"workspace-manifest"`
}

// Config is the release run configuration.
type Config struct {
	ManifestFile      string          `yaml:"manifest-file"`
	VersionsFile      string          `yaml:"versions-file"`
	BumpLevel         string          `yaml:"bump-level"`
	MergePullRequests bool            `yaml:"merge-pull-requests"`
	TitlePattern      string          `yaml:"title-pattern"`
	Packages          []PackageConfig `yaml:"packages"`
	Examples          *ExamplesConfig `yaml:"examples"`
}

// Load reads, validates and decodes the configuration at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse validates and decodes raw configuration bytes.
func Parse(data []byte) (*Config, error) {
	result, err := Validate(data)
	if err != nil {
		return nil, err
	}
	if !result.Valid {
		return nil, fmt.Errorf("invalid configuration: %s", result.Errors[0])
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("decoding configuration: %w", err)
	}
	return &cfg, nil
}
