package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// FileName is the config file looked up in the working directory and then in
// the user's home directory.
const FileName = ".tagcube"

// Environment variables consulted by Load and ResolveCredentials.
const (
	EnvRootURL = "ROOT_URL"
	EnvEmail   = "TAGCUBE_EMAIL"
	EnvAPIKey  = "TAGCUBE_API_KEY"
)

// ErrNoCredentials is returned when no credential source supplies both an
// email and an API key.
var ErrNoCredentials = errors.New("no TagCube credentials found: use --tagcube-email/--tagcube-api-key, " +
	EnvEmail + "/" + EnvAPIKey + " or the credentials section of " + FileName)

// Config represents the application configuration
type Config struct {
	Credentials CredentialsConfig `mapstructure:"credentials" yaml:"credentials"`
	RootURL     string            `mapstructure:"root_url" yaml:"root_url"`
	APIVersion  string            `mapstructure:"api_version" yaml:"api_version"`
	DBPath      string            `mapstructure:"db_path" yaml:"db_path"`
	ScanProfile string            `mapstructure:"scan_profile" yaml:"scan_profile"`
	Timeout     time.Duration     `mapstructure:"timeout" yaml:"timeout"`
	Batch       BatchConfig       `mapstructure:"batch" yaml:"batch"`

	// File is the config file that was read, empty when none was found.
	File string `mapstructure:"-" yaml:"-"`
}

// CredentialsConfig holds the API credentials stored in the config file.
type CredentialsConfig struct {
	Email  string `mapstructure:"email" yaml:"email"`
	APIKey string `mapstructure:"api_key" yaml:"api_key"`
	// APIToken is the older name of APIKey.
	APIToken string `mapstructure:"api_token" yaml:"api_token,omitempty"`
}

// BatchConfig holds defaults for the batch command.
type BatchConfig struct {
	ContinueOnError bool `mapstructure:"continue_on_error" yaml:"continue_on_error"`
	Concurrency     int  `mapstructure:"concurrency" yaml:"concurrency"`
}

// Load reads configuration from path, or when path is empty from .tagcube in
// the current directory and then the home directory. A missing file is not an
// error when path is empty; defaults apply.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v)

	if err := v.BindEnv("root_url", EnvRootURL); err != nil {
		return nil, fmt.Errorf("failed to bind %s: %w", EnvRootURL, err)
	}

	file := path
	if file == "" {
		file = discover()
	}

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.File = file
	if cfg.Credentials.APIKey == "" {
		cfg.Credentials.APIKey = cfg.Credentials.APIToken
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("root_url", d.RootURL)
	v.SetDefault("api_version", d.APIVersion)
	v.SetDefault("db_path", d.DBPath)
	v.SetDefault("scan_profile", d.ScanProfile)
	v.SetDefault("timeout", d.Timeout)
	v.SetDefault("batch.continue_on_error", d.Batch.ContinueOnError)
	v.SetDefault("batch.concurrency", d.Batch.Concurrency)
}

// discover returns the first existing config file in the lookup order.
func discover() string {
	candidates := []string{FileName}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, FileName))
	}
	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && !info.IsDir() {
			return c
		}
	}
	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.RootURL == "" {
		errs = append(errs, errors.New("root_url cannot be empty"))
	} else if u, err := url.Parse(c.RootURL); err != nil || u.Host == "" ||
		(u.Scheme != "http" && u.Scheme != "https") {
		errs = append(errs, fmt.Errorf("root_url %q must be an absolute http(s) URL", c.RootURL))
	}

	if c.APIVersion == "" {
		errs = append(errs, errors.New("api_version cannot be empty"))
	}

	if c.DBPath == "" {
		errs = append(errs, errors.New("db_path cannot be empty"))
	}

	if c.ScanProfile == "" {
		errs = append(errs, errors.New("scan_profile cannot be empty"))
	}

	if c.Timeout <= 0 {
		errs = append(errs, errors.New("timeout must be positive"))
	}

	if c.Batch.Concurrency <= 0 {
		errs = append(errs, errors.New("batch.concurrency must be positive"))
	}

	if (c.Credentials.Email == "") != (c.Credentials.APIKey == "") {
		errs = append(errs, errors.New("credentials.email and credentials.api_key must be set together"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Credentials is an email/API key pair and where it came from.
type Credentials struct {
	Email  string
	APIKey string
	Source string
}

// ResolveCredentials picks credentials from flags, then the environment, then
// the config file. Each source must supply both values to be used.
func (c *Config) ResolveCredentials(flagEmail, flagAPIKey string) (Credentials, error) {
	flagEmail = strings.TrimSpace(flagEmail)
	flagAPIKey = strings.TrimSpace(flagAPIKey)
	if (flagEmail == "") != (flagAPIKey == "") {
		return Credentials{}, errors.New("--tagcube-email and --tagcube-api-key must be used together")
	}
	if flagEmail != "" {
		return Credentials{Email: flagEmail, APIKey: flagAPIKey, Source: "flags"}, nil
	}

	envEmail, envKey := os.Getenv(EnvEmail), os.Getenv(EnvAPIKey)
	if envEmail != "" && envKey != "" {
		return Credentials{Email: envEmail, APIKey: envKey, Source: "environment"}, nil
	}

	if c != nil && c.Credentials.Email != "" && c.Credentials.APIKey != "" {
		source := c.File
		if source == "" {
			source = "config"
		}
		return Credentials{Email: c.Credentials.Email, APIKey: c.Credentials.APIKey, Source: source}, nil
	}

	return Credentials{}, ErrNoCredentials
}
