// Package config loads the optional procmap config file.
// Priority: defaults < user file < environment < flags.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds all procmap configuration.
type Config struct {
	// Backend is the base URL of the analysis service the TUI talks to.
	Backend string `yaml:"backend"`

	// Serve configures the bundled analysis server (--serve).
	Serve ServeConfig `yaml:"serve"`

	// ActivityLog is the path of the rotated upload activity log.
	// Empty keeps the log in memory only.
	ActivityLog string `yaml:"activity_log"`
}

// ServeConfig controls the bundled server.
type ServeConfig struct {
	Addr         string `yaml:"addr"`
	PreviewRows  int    `yaml:"preview_rows"`  // rows returned by upload preview
	TopVariants  int    `yaml:"top_variants"`  // variants reported by metrics
	MaxUploadMB  int    `yaml:"max_upload_mb"` // multipart memory cap
	AllowOrigins bool   `yaml:"allow_origins"` // permissive CORS for local front-ends
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Backend: "http://localhost:8000",
		Serve: ServeConfig{
			Addr:         ":8000",
			PreviewRows:  5,
			TopVariants:  10,
			MaxUploadMB:  64,
			AllowOrigins: true,
		},
	}
}

// Load reads ~/.procmap.yaml when present, then applies env overrides.
// A missing file is not an error; a malformed one is.
func Load() (Config, error) {
	cfg := Defaults()

	path := userConfigPath()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// fine, defaults apply
		case err != nil:
			return cfg, fmt.Errorf("reading %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parsing %s: %w", path, err)
			}
		}
	}

	if v := os.Getenv("PROCMAP_BACKEND"); v != "" {
		cfg.Backend = v
	}
	if v := os.Getenv("PROCMAP_ADDR"); v != "" {
		cfg.Serve.Addr = v
	}
	if v := os.Getenv("PROCMAP_ACTIVITY_LOG"); v != "" {
		cfg.ActivityLog = v
	}

	return cfg, nil
}

func userConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".procmap.yaml")
}
