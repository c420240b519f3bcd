package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

// chdir changes into dir for the duration of the test, restoring the
// previous working directory on cleanup. Equivalent to t.Chdir, which
// requires Go 1.24.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd() error = %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Chdir(%q) error = %v", dir, err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Fatalf("Chdir(%q) error = %v", old, err)
		}
	})
}

func TestLoadConfig_Defaults(t *testing.T) {
	// Run from a temp dir so a developer's preserv.yaml cannot leak in.
	chdir(t, t.TempDir())

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.ManifestPath != "manifest.csv" {
		t.Errorf("ManifestPath = %q, want manifest.csv", cfg.ManifestPath)
	}
	if cfg.LogFile != "integrity_log.txt" {
		t.Errorf("LogFile = %q, want integrity_log.txt", cfg.LogFile)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want info", cfg.LogLevel)
	}
	if cfg.Workers != runtime.NumCPU() {
		t.Errorf("Workers = %d, want %d", cfg.Workers, runtime.NumCPU())
	}
	if cfg.AddNewFiles || cfg.DeepVerify {
		t.Errorf("AddNewFiles/DeepVerify default = %v/%v, want false/false", cfg.AddNewFiles, cfg.DeepVerify)
	}
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("PRESERV_DEEP_VERIFY", "true")
	t.Setenv("PRESERV_MANIFEST_PATH", "archive-manifest.csv")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if !cfg.DeepVerify {
		t.Error("DeepVerify not overridden by environment")
	}
	if cfg.ManifestPath != "archive-manifest.csv" {
		t.Errorf("ManifestPath = %q, want archive-manifest.csv", cfg.ManifestPath)
	}
}

func TestEffectiveWorkers(t *testing.T) {
	tests := []struct {
		name    string
		workers int
		want    int
	}{
		{"Configured", 4, 4},
		{"Zero falls back", 0, runtime.NumCPU()},
		{"Negative falls back", -2, runtime.NumCPU()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Workers: tt.workers}
			if got := cfg.EffectiveWorkers(); got != tt.want {
				t.Errorf("EffectiveWorkers() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestArtifacts(t *testing.T) {
	cfg := &Config{
		ManifestPath: "manifest.csv",
		LogFile:      "integrity_log.txt",
	}

	artifacts := cfg.Artifacts()
	if len(artifacts) != 4 { // manifest, lock, log, preserv.yaml
		t.Fatalf("Artifacts() returned %d entries, want 4: %v", len(artifacts), artifacts)
	}
	for _, a := range artifacts {
		if !filepath.IsAbs(a) {
			t.Errorf("artifact %q is not absolute", a)
		}
	}
	if !strings.HasSuffix(artifacts[1], "manifest.csv.lock") {
		t.Errorf("second artifact = %q, want lock file", artifacts[1])
	}
}
