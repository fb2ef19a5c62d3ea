package conflict

import (
	"math"
	"path/filepath"
	"strings"
	"time"
)

// Risk is the ordered conflict likelihood classification.
type Risk int

const (
	Low Risk = iota
	Medium
	High
	Certain
)

func (r Risk) String() string {
	switch r {
	case Certain:
		return "certain"
	case High:
		return "high"
	case Medium:
		return "medium"
	default:
		return "low"
	}
}

// Type classifies why a file is conflict-prone.
type Type string

const (
	TypeContent    Type = "overlapping content"
	TypeBinary     Type = "binary file"
	TypeCritical   Type = "critical path"
	TypeStructural Type = "structural change"
	TypeMarker     Type = "unresolved conflict markers"
)

// Thresholds maps a normalized 0-100 score to a risk level.
type Thresholds struct {
	Certain int `yaml:"certain"`
	High    int `yaml:"high"`
	Medium  int `yaml:"medium"`
}

// Threshold presets. Conservative escalates sooner; Aggressive tolerates
// higher scores before flagging.
var (
	DefaultThresholds      = Thresholds{Certain: 80, High: 60, Medium: 30}
	ConservativeThresholds = Thresholds{Certain: 70, High: 50, Medium: 20}
	AggressiveThresholds   = Thresholds{Certain: 90, High: 75, Medium: 45}
)

// PresetThresholds resolves a preset name ("default", "conservative",
// "aggressive"). Unknown names fall back to the default.
func PresetThresholds(name string) Thresholds {
	switch strings.ToLower(name) {
	case "conservative":
		return ConservativeThresholds
	case "aggressive":
		return AggressiveThresholds
	default:
		return DefaultThresholds
	}
}

// Level maps a score to its risk level.
func (t Thresholds) Level(score int) Risk {
	switch {
	case score >= t.Certain:
		return Certain
	case score >= t.High:
		return High
	case score >= t.Medium:
		return Medium
	default:
		return Low
	}
}

// CriticalPaths configures which files are treated as critical. Matching
// is by substring, which tolerates monorepo prefixes and vendored copies.
type CriticalPaths struct {
	Files []string `yaml:"files"` // filename substrings
	Dirs  []string `yaml:"dirs"`  // directory substrings
}

// DefaultCriticalPaths covers package manifests, CI configs,
// migration/schema files, and security-sensitive paths.
func DefaultCriticalPaths() CriticalPaths {
	return CriticalPaths{
		Files: []string{
			"package.json", "package-lock.json", "go.mod", "go.sum",
			"pom.xml", "build.gradle", "requirements.txt", "Gemfile",
			"Dockerfile", "docker-compose", ".gitlab-ci", "Jenkinsfile",
			"migration", "schema", "auth", "security",
		},
		Dirs: []string{
			"/config/", "/security/", "/migrations/", "/core/",
			"/.github/workflows/", "/ci/", "/deploy/",
		},
	}
}

// Matches reports whether the path is critical under this configuration.
func (cp CriticalPaths) Matches(path string) bool {
	base := filepath.Base(path)
	for _, sub := range cp.Files {
		if strings.Contains(base, sub) {
			return true
		}
	}
	slashed := "/" + strings.Trim(path, "/") + "/"
	for _, sub := range cp.Dirs {
		if strings.Contains(slashed, sub) {
			return true
		}
	}
	return false
}

var binaryExtensions = map[string]struct{}{
	".png": {}, ".jpg": {}, ".jpeg": {}, ".gif": {}, ".ico": {},
	".pdf": {}, ".zip": {}, ".gz": {}, ".tar": {}, ".jar": {},
	".exe": {}, ".dll": {}, ".so": {}, ".dylib": {}, ".bin": {},
	".woff": {}, ".woff2": {}, ".ttf": {}, ".eot": {},
}

func isBinaryPath(path string) bool {
	_, ok := binaryExtensions[strings.ToLower(filepath.Ext(path))]
	return ok
}

var structuralKeywords = []string{"rename", "refactor", "restructure", "move ", "moved ", "reorganiz"}

func isStructuralMessage(message string) bool {
	lower := strings.ToLower(message)
	for _, kw := range structuralKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// Risk factor weights for the additive model. TargetModified carries the
// highest weight: a file rewritten on both sides is the strongest
// predictor of a real conflict.
const (
	commitCountWeight   = 12.0 // multiplied by log2(commit count)
	extraAuthorWeight   = 10.0 // per author beyond the first, capped
	extraAuthorCap      = 25.0
	spanMonthWeight     = 25.0
	spanWeekWeight      = 15.0
	spanDayWeight       = 5.0
	targetModifiedBoost = 35.0
	markerBonus         = 20.0

	binaryMultiplier     = 1.5
	criticalMultiplier   = 1.3
	structuralMultiplier = 1.2
)

// factors carries the per-file inputs to the risk model.
type factors struct {
	commitCount    int
	authorCount    int
	span           time.Duration
	targetModified bool
	binary         bool
	critical       bool
	structural     bool
	hasMarkers     bool
}

// score computes the normalized 0-100 risk score: weighted additive
// factors, then multiplier bonuses, then the flat marker bonus.
func (f factors) score() int {
	s := 0.0

	if f.commitCount > 1 {
		s += commitCountWeight * math.Log2(float64(f.commitCount))
	}
	if extra := float64(f.authorCount - 1); extra > 0 {
		s += math.Min(extra*extraAuthorWeight, extraAuthorCap)
	}
	switch days := f.span.Hours() / 24; {
	case days > 30:
		s += spanMonthWeight
	case days > 7:
		s += spanWeekWeight
	case days > 1:
		s += spanDayWeight
	}
	if f.targetModified {
		s += targetModifiedBoost
	}

	if f.binary {
		s *= binaryMultiplier
	}
	if f.critical {
		s *= criticalMultiplier
	}
	if f.structural {
		s *= structuralMultiplier
	}

	if f.hasMarkers {
		s += markerBonus
	}

	if s > 100 {
		s = 100
	}
	return int(math.Round(s))
}

// conflictType picks the dominant classification for the file.
func (f factors) conflictType() Type {
	switch {
	case f.hasMarkers:
		return TypeMarker
	case f.binary:
		return TypeBinary
	case f.critical:
		return TypeCritical
	case f.structural:
		return TypeStructural
	default:
		return TypeContent
	}
}
