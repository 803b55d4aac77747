package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfig returns a Config with sensible default values
func DefaultConfig() *Config {
	return &Config{
		RootURL:     "https://api.tagcube.io/",
		APIVersion:  "1.0",
		DBPath:      "tagcube.db",
		ScanProfile: "full_audit",
		Timeout:     30 * time.Second,
		Batch: BatchConfig{
			ContinueOnError: false,
			Concurrency:     1,
		},
	}
}

// fileConfig is the on-disk shape written by WriteDefault. Timeout is kept as
// a duration string so the file stays readable.
type fileConfig struct {
	Credentials CredentialsConfig `yaml:"credentials"`
	RootURL     string            `yaml:"root_url"`
	APIVersion  string            `yaml:"api_version"`
	DBPath      string            `yaml:"db_path"`
	ScanProfile string            `yaml:"scan_profile"`
	Timeout     string            `yaml:"timeout"`
	Batch       BatchConfig       `yaml:"batch"`
}

// WriteDefault writes a default configuration to the specified path. It
// refuses to overwrite an existing file unless force is set.
func WriteDefault(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config file %s already exists", path)
		} else if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to check config file: %w", err)
		}
	}

	cfg := DefaultConfig()
	out := fileConfig{
		Credentials: cfg.Credentials,
		RootURL:     cfg.RootURL,
		APIVersion:  cfg.APIVersion,
		DBPath:      cfg.DBPath,
		ScanProfile: cfg.ScanProfile,
		Timeout:     cfg.Timeout.String(),
		Batch:       cfg.Batch,
	}

	data, err := yaml.Marshal(out)
	if err != nil {
		return fmt.Errorf("failed to marshal default config: %w", err)
	}

	// The file will hold an API key.
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
