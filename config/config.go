package config

import (
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/randalmurphal/promote/conflict"
	"github.com/randalmurphal/promote/tracker"
)

// Sentinel errors returned by Validate.
var (
	ErrNoPrefixes     = errors.New("config: at least one ticket prefix is required")
	ErrBadPrefix      = errors.New("config: invalid ticket prefix")
	ErrBadSimilarity  = errors.New("config: min_similarity must be between 0 and 100")
	ErrBadPreset      = errors.New("config: unknown threshold preset")
	ErrBadWorkers     = errors.New("config: workers must be positive")
	ErrBadTrackerKind = errors.New("config: unknown tracker kind")
)

// Tracker backends selectable in TrackerConfig.Kind.
const (
	TrackerNone   = "none"
	TrackerJira   = "jira"
	TrackerGitHub = "github"
	TrackerGitLab = "gitlab"
)

var prefixPattern = regexp.MustCompile(`^[A-Z][A-Z0-9]{1,9}$`)

// Config holds everything an analysis run needs beyond the two branch
// names: the ticket vocabulary, risk tuning, and tracker credentials.
type Config struct {
	// TicketPrefixes lists the project keys expected in commit
	// messages, e.g. ["HSAMED", "INFRA"]. Required.
	TicketPrefixes []string `yaml:"ticket_prefixes"`

	// MinSimilarity is the score (0-100) a mistyped prefix must reach
	// to be normalized to an expected prefix. Zero means the built-in
	// default.
	MinSimilarity int `yaml:"min_similarity"`

	// ThresholdPreset selects the risk classification bands:
	// "default", "conservative", or "aggressive".
	ThresholdPreset string `yaml:"threshold_preset"`

	// CriticalPaths extends the built-in critical path list. Entries
	// here are added to, not substituted for, the defaults.
	CriticalPaths conflict.CriticalPaths `yaml:"critical_paths"`

	// InferenceWindow bounds temporal ticket inference. Zero means the
	// built-in default.
	InferenceWindow time.Duration `yaml:"inference_window"`

	// CacheTTL controls how long conflict predictions are reused.
	// Zero means the built-in default.
	CacheTTL time.Duration `yaml:"cache_ttl"`

	// Workers sets the conflict prediction concurrency.
	Workers int `yaml:"workers"`

	// Timeout bounds a whole analysis run. Zero disables the deadline.
	Timeout time.Duration `yaml:"timeout"`

	// Tracker configures optional ticket metadata enrichment.
	Tracker TrackerConfig `yaml:"tracker"`
}

// TrackerConfig selects and configures a ticket metadata backend.
type TrackerConfig struct {
	// Kind is one of "none", "jira", "github", or "gitlab".
	Kind string `yaml:"kind"`

	Jira tracker.JiraConfig `yaml:"jira"`

	// GitHub maps ticket prefixes to "owner/repo".
	GitHub GitHubTrackerConfig `yaml:"github"`

	// GitLab maps ticket prefixes to project paths.
	GitLab GitLabTrackerConfig `yaml:"gitlab"`
}

// GitHubTrackerConfig configures the GitHub issues backend.
type GitHubTrackerConfig struct {
	Token string            `yaml:"-"`
	Repos map[string]string `yaml:"repos"`
}

// GitLabTrackerConfig configures the GitLab issues backend.
type GitLabTrackerConfig struct {
	Token    string            `yaml:"-"`
	BaseURL  string            `yaml:"base_url"`
	Projects map[string]string `yaml:"projects"`
}

// Default returns a Config with sensible values for everything except
// TicketPrefixes, which callers must supply.
func Default() *Config {
	return &Config{
		MinSimilarity:   0, // extractor default
		ThresholdPreset: "default",
		Workers:         conflict.DefaultWorkers,
		Tracker:         TrackerConfig{Kind: TrackerNone},
	}
}

// Validate checks the config for internal consistency. Tracker backend
// settings are only validated for the selected Kind.
func (c *Config) Validate() error {
	if len(c.TicketPrefixes) == 0 {
		return ErrNoPrefixes
	}
	for _, p := range c.TicketPrefixes {
		if !prefixPattern.MatchString(p) {
			return fmt.Errorf("%w: %q", ErrBadPrefix, p)
		}
	}
	if c.MinSimilarity < 0 || c.MinSimilarity > 100 {
		return fmt.Errorf("%w: %d", ErrBadSimilarity, c.MinSimilarity)
	}
	switch c.ThresholdPreset {
	case "", "default", "conservative", "aggressive":
	default:
		return fmt.Errorf("%w: %q", ErrBadPreset, c.ThresholdPreset)
	}
	if c.Workers < 0 {
		return ErrBadWorkers
	}

	switch c.Tracker.Kind {
	case "", TrackerNone, TrackerGitHub, TrackerGitLab:
	case TrackerJira:
		if err := c.Tracker.Jira.Validate(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: %q", ErrBadTrackerKind, c.Tracker.Kind)
	}
	return nil
}

// Thresholds returns the risk thresholds for the configured preset.
func (c *Config) Thresholds() conflict.Thresholds {
	return conflict.PresetThresholds(c.ThresholdPreset)
}

// EffectiveCriticalPaths merges the built-in critical path list with
// any configured additions.
func (c *Config) EffectiveCriticalPaths() conflict.CriticalPaths {
	base := conflict.DefaultCriticalPaths()
	base.Files = append(base.Files, c.CriticalPaths.Files...)
	base.Dirs = append(base.Dirs, c.CriticalPaths.Dirs...)
	return base
}
