package config

import (
	"os"
	"path/filepath"
	"testing"
)

const validConfig = `manifest-file: Cargo.toml
bump-level: minor
merge-pull-requests: true
packages:
  - path: crates/foo
    version: 0.2.0
  - path: crates/bar
examples:
  source: examples
  dest: release/examples
  exceptions:
    - README.md
  workspace-manifest: Cargo.toml
`

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(validConfig))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.BumpLevel != "minor" {
		t.Errorf("BumpLevel = %q", cfg.BumpLevel)
	}
	if !cfg.MergePullRequests {
		t.Error("MergePullRequests = false")
	}
	if len(cfg.Packages) != 2 {
		t.Fatalf("Packages = %v", cfg.Packages)
	}
	if cfg.Packages[0].Version != "0.2.0" {
		t.Errorf("Packages[0].Version = %q", cfg.Packages[0].Version)
	}
	if cfg.Packages[1].Version != "" {
		t.Errorf("Packages[1].Version = %q", cfg.Packages[1].Version)
	}
	if cfg.Examples == nil || cfg.Examples.Dest != "release/examples" {
		t.Errorf("Examples = %+v", cfg.Examples)
	}
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	_, err := Parse([]byte("packages:\n  - path: crates/foo\nmanifest_file: Cargo.toml\n"))
	if err == nil {
		t.Fatal("expected unknown key to be rejected")
	}
}

func TestParseRejectsBadBumpLevel(t *testing.T) {
	_, err := Parse([]byte("bump-level: mega\npackages:\n  - path: crates/foo\n"))
	if err == nil {
		t.Fatal("expected invalid bump level to be rejected")
	}
}

func TestValidateMissingPackages(t *testing.T) {
	result, err := Validate([]byte("manifest-file: Cargo.toml\n"))
	if err != nil {
		t.Fatal(err)
	}
	if result.Valid {
		t.Fatal("expected packages to be required")
	}
	if len(result.Errors) == 0 {
		t.Fatal("expected at least one validation error")
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "release.yaml")
	if err := os.WriteFile(path, []byte(validConfig), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(cfg.Packages) != 2 {
		t.Fatalf("Packages = %v", cfg.Packages)
	}

	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
