package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Environment variables consulted for secrets during Load.
const (
	EnvJiraToken        = "PROMOTE_JIRA_TOKEN"
	EnvJiraPassword     = "PROMOTE_JIRA_PASSWORD"
	EnvJiraSharedSecret = "PROMOTE_JIRA_SHARED_SECRET"
	EnvGitHubToken      = "PROMOTE_GITHUB_TOKEN"
	EnvGitLabToken      = "PROMOTE_GITLAB_TOKEN"
)

// LocalConfigName is the per-repository config filename, looked up at
// the repository root.
const LocalConfigName = ".promote.yaml"

// ErrNotFound is returned by Load when no config file exists at any
// discovery location.
var ErrNotFound = errors.New("config: no config file found")

// Load reads configuration from path. If path is empty, discovery
// tries the repository-local file starting from startDir, then the
// user-global file. Environment secrets are applied on top either way.
func Load(path, startDir string) (*Config, error) {
	if path == "" {
		found, err := discover(startDir)
		if err != nil {
			return nil, err
		}
		path = found
	}
	cfg, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	applyEnv(cfg)
	return cfg, nil
}

// LoadFile reads and validates a config file at an explicit path.
// Environment secrets are not applied; see Load.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// discover returns the first existing config file location.
func discover(startDir string) (string, error) {
	if root := findGitRoot(startDir); root != "" {
		local := filepath.Join(root, LocalConfigName)
		if fileExists(local) {
			return local, nil
		}
	}
	if home, err := os.UserHomeDir(); err == nil {
		global := filepath.Join(home, ".config", "promote", "config.yaml")
		if fileExists(global) {
			return global, nil
		}
	}
	return "", ErrNotFound
}

// applyEnv copies secrets from the environment into cfg. File values
// are kept when the environment variable is unset.
func applyEnv(cfg *Config) {
	if v := os.Getenv(EnvJiraToken); v != "" {
		cfg.Tracker.Jira.Auth.Token = v
	}
	if v := os.Getenv(EnvJiraPassword); v != "" {
		cfg.Tracker.Jira.Auth.Password = v
	}
	if v := os.Getenv(EnvJiraSharedSecret); v != "" {
		cfg.Tracker.Jira.Auth.SharedSecret = v
	}
	if v := os.Getenv(EnvGitHubToken); v != "" {
		cfg.Tracker.GitHub.Token = v
	}
	if v := os.Getenv(EnvGitLabToken); v != "" {
		cfg.Tracker.GitLab.Token = v
	}
}

// findGitRoot walks up from startDir looking for a .git entry.
func findGitRoot(startDir string) string {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return ""
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
