package config

import (
	"path/filepath"
	"runtime"

	"github.com/spf13/viper"
)

// Config represents the integrity checker configuration. It is supplied
// by the CLI layer and passed explicitly into the engine; the core keeps
// no process-wide configuration state.
type Config struct {
	// Archive settings
	ArchivePath  string `mapstructure:"archive_path"`  // root of the preserved tree
	ManifestPath string `mapstructure:"manifest_path"` // manifest CSV location
	Workers      int    `mapstructure:"workers"`       // hashing worker goroutines

	// Verify settings
	AddNewFiles bool `mapstructure:"add_new_files"` // absorb new files into the manifest
	DeepVerify  bool `mapstructure:"deep_verify"`   // rehash everything, trust no metadata

	// Walker settings
	Exclude     []string `mapstructure:"exclude"`      // directory names to skip
	ExcludeFile string   `mapstructure:"exclude_file"` // YAML file with extra exclude patterns

	// Logging settings
	LogFile  string `mapstructure:"log_file"`  // activity log location
	LogLevel string `mapstructure:"log_level"` // minimum persisted severity

	// Report settings
	ReportFormat string `mapstructure:"report_format"` // "", text, json
	OutputFile   string `mapstructure:"output_file"`   // report output path
}

// LoadConfig loads configuration from an optional preserv.yaml in the
// working directory, environment variables, and defaults.
func LoadConfig() (*Config, error) {
	v := viper.New()

	v.SetDefault("manifest_path", "manifest.csv")
	v.SetDefault("workers", runtime.NumCPU())
	v.SetDefault("add_new_files", false)
	v.SetDefault("deep_verify", false)
	v.SetDefault("exclude", []string{})
	v.SetDefault("log_file", "integrity_log.txt")
	v.SetDefault("log_level", "info")
	v.SetDefault("report_format", "")

	v.SetConfigName("preserv")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	v.SetEnvPrefix("PRESERV")
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// EffectiveWorkers returns the worker pool size, falling back to the
// available parallelism when unset or nonsensical.
func (c *Config) EffectiveWorkers() int {
	if c.Workers <= 0 {
		return runtime.NumCPU()
	}
	return c.Workers
}

// Artifacts lists the absolute paths of files the tool itself writes.
// The walker excludes these so a manifest kept inside the archive root
// does not show up as drift.
func (c *Config) Artifacts() []string {
	candidates := []string{c.ManifestPath, c.ManifestPath + ".lock", c.LogFile, c.OutputFile, "preserv.yaml"}

	var out []string
	for _, p := range candidates {
		if p == "" {
			continue
		}
		if abs, err := filepath.Abs(p); err == nil {
			out = append(out, abs)
		}
	}
	return out
}
