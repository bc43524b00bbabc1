package internal

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds endpoint and behavior settings. All fields are optional in
// the config file; unset fields fall back to the Scratch production
// defaults.
type Config struct {
	SiteURL     string `yaml:"site_url,omitempty"`
	APIURL      string `yaml:"api_url,omitempty"`
	ProjectsURL string `yaml:"projects_url,omitempty"`
	AssetsURL   string `yaml:"assets_url,omitempty"`

	// TimeoutSeconds is the per-request HTTP timeout
	TimeoutSeconds int `yaml:"timeout_seconds,omitempty"`
	// AssetWorkers bounds concurrent asset fetches; 1 forces sequential
	AssetWorkers int `yaml:"asset_workers,omitempty"`
	// OutputDir is the default download directory
	OutputDir string `yaml:"output_dir,omitempty"`
}

// DefaultConfig returns the production Scratch endpoints and defaults.
func DefaultConfig() *Config {
	return &Config{
		SiteURL:        "https://scratch.mit.edu",
		APIURL:         "https://api.scratch.mit.edu",
		ProjectsURL:    "https://projects.scratch.mit.edu",
		AssetsURL:      "https://assets.scratch.mit.edu/internalapi/asset",
		TimeoutSeconds: 30,
		AssetWorkers:   4,
		OutputDir:      ".",
	}
}

// ConfigDir returns the tool's dot directory in the user's home.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".scratch-cli"), nil
}

// DefaultConfigPath returns the default config file location.
func DefaultConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yml"), nil
}

// LoadConfig reads the YAML config at path, or the default location when
// path is empty. A missing file yields the defaults. A malformed file is
// an error: unlike the session record, the config is user-authored and
// silently ignoring it would mask typos.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		var err error
		path, err = DefaultConfigPath()
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg.withDefaults(), nil
}

// withDefaults fills in any field the config file left unset.
func (c *Config) withDefaults() *Config {
	def := DefaultConfig()
	if c.SiteURL == "" {
		c.SiteURL = def.SiteURL
	}
	if c.APIURL == "" {
		c.APIURL = def.APIURL
	}
	if c.ProjectsURL == "" {
		c.ProjectsURL = def.ProjectsURL
	}
	if c.AssetsURL == "" {
		c.AssetsURL = def.AssetsURL
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = def.TimeoutSeconds
	}
	if c.AssetWorkers <= 0 {
		c.AssetWorkers = def.AssetWorkers
	}
	if c.OutputDir == "" {
		c.OutputDir = def.OutputDir
	}
	return c
}
