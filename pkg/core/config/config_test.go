package config

import (
	"os"
	"path/filepath"
	"testing"

	"holdings_pipeline/pkg/core/errs"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadYAMLFile(t *testing.T) {
	path := writeConfig(t, `
sec:
  identity: "Example Research contact@example.com"
  rate_limit: 5
  timeout_seconds: 30
extract:
  offset_margin: 12
output:
  dir: out
`)

	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.SEC.Identity != "Example Research contact@example.com" {
		t.Errorf("Identity = %q", s.SEC.Identity)
	}
	if s.SEC.RateLimit != 5 || s.SEC.TimeoutSeconds != 30 {
		t.Errorf("SEC tunables = %v / %v", s.SEC.RateLimit, s.SEC.TimeoutSeconds)
	}
	if s.Extract.OffsetMargin != 12 {
		t.Errorf("OffsetMargin = %d", s.Extract.OffsetMargin)
	}
	if s.Output.Dir != "out" {
		t.Errorf("Output.Dir = %q", s.Output.Dir)
	}
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	path := writeConfig(t, "sec:\n  rate_limit: 3\n")

	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Output.Dir != DefaultOutputDir {
		t.Errorf("Output.Dir = %q, want default %q", s.Output.Dir, DefaultOutputDir)
	}
	if s.SEC.RateLimit != 3 {
		t.Errorf("RateLimit = %v", s.SEC.RateLimit)
	}
}

func TestEnvironmentOverridesFile(t *testing.T) {
	path := writeConfig(t, "sec:\n  identity: from-file\n")
	t.Setenv("SEC_IDENTITY", "from-env")
	t.Setenv("SEC_RATE_LIMIT", "2.5")

	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.SEC.Identity != "from-env" {
		t.Errorf("Identity = %q, want env value", s.SEC.Identity)
	}
	if s.SEC.RateLimit != 2.5 {
		t.Errorf("RateLimit = %v, want 2.5", s.SEC.RateLimit)
	}
}

func TestExplicitMissingFileErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected an error for an explicit missing config path")
	}
}

func TestMalformedYAMLIsConfigError(t *testing.T) {
	path := writeConfig(t, "sec: [not: a: map\n")
	if _, err := Load(path); !errs.IsConfigError(err) {
		t.Errorf("error = %v, want ConfigError", err)
	}
}

func TestRequireIdentity(t *testing.T) {
	s := &Settings{}
	if err := s.RequireIdentity(); !errs.IsConfigError(err) {
		t.Errorf("missing identity error = %v, want ConfigError", err)
	}
	s.SEC.Identity = "x"
	if err := s.RequireIdentity(); err != nil {
		t.Errorf("RequireIdentity with identity set = %v", err)
	}
}
