package ticket

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/randalmurphal/promote/graph"
)

// DefaultMinSimilarity is the prefix similarity (0-100) required to
// normalize a candidate prefix to an expected one.
const DefaultMinSimilarity = 85

// Reference patterns, applied in order. All require a letter-led prefix so
// bare numbers never read as tickets.
var referencePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\[([A-Z][A-Z0-9]{1,9})[- ](\d{1,6})\]`), // bracketed [PREFIX-123] / [PREFIX 123]
	regexp.MustCompile(`(?i)\b([A-Z][A-Z0-9]{1,9})-(\d{1,6})\b`),    // canonical PREFIX-123
	regexp.MustCompile(`(?i)\b([A-Z][A-Z0-9]{1,9}) (\d{1,6})\b`),    // spaced PREFIX 123
}

// Extractor finds ticket references in commit messages and normalizes
// them against the configured expected prefixes.
type Extractor struct {
	prefixes      []string
	minSimilarity int
}

// NewExtractor creates an extractor for the expected ticket prefixes
// (e.g., "HSAMED", "OPS"). Prefixes are compared case-insensitively.
func NewExtractor(prefixes []string, opts ...ExtractorOption) *Extractor {
	upper := make([]string, len(prefixes))
	for i, p := range prefixes {
		upper[i] = strings.ToUpper(p)
	}
	e := &Extractor{
		prefixes:      upper,
		minSimilarity: DefaultMinSimilarity,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ExtractorOption configures an Extractor.
type ExtractorOption func(*Extractor)

// WithMinSimilarity overrides the fuzzy normalization threshold.
func WithMinSimilarity(min int) ExtractorOption {
	return func(e *Extractor) {
		e.minSimilarity = min
	}
}

// ExtractMessage returns the normalized ticket keys found in a single
// message, in match order, without duplicates.
func (e *Extractor) ExtractMessage(message string) []string {
	var keys []string
	seen := make(map[string]struct{})

	for _, pattern := range referencePatterns {
		for _, m := range pattern.FindAllStringSubmatch(message, -1) {
			key, ok := e.normalize(m[1], m[2])
			if !ok {
				continue
			}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			keys = append(keys, key)
		}
	}
	return keys
}

// Extract walks the graph in graph order, annotates each commit with the
// ticket keys found in its own message, and returns the ticket-to-commits
// map. Commit lists preserve graph order.
func (e *Extractor) Extract(g *graph.Graph) *Map {
	m := NewMap()
	for _, c := range g.Commits() {
		keys := e.ExtractMessage(c.Message)
		c.Tickets = keys
		for _, key := range keys {
			m.Add(key, c)
		}
	}
	return m
}

// LooksLikeReference reports whether the message contains something shaped
// like a ticket reference, whether or not it normalizes. Used by orphan
// classification to flag probable mistyped tickets.
func LooksLikeReference(message string) bool {
	for _, pattern := range referencePatterns {
		if pattern.MatchString(message) {
			return true
		}
	}
	return false
}

// normalize matches the candidate prefix against the expected prefixes
// and returns the canonical EXPECTEDPREFIX-NUMBER key on success.
func (e *Extractor) normalize(prefix, number string) (string, bool) {
	best := ""
	bestScore := 0
	for _, expected := range e.prefixes {
		if score := Similarity(prefix, expected); score > bestScore {
			best = expected
			bestScore = score
		}
	}
	if bestScore < e.minSimilarity {
		return "", false
	}
	return fmt.Sprintf("%s-%s", best, number), true
}

// Map is an insertion-ordered mapping from normalized ticket key to the
// commits referencing it.
type Map struct {
	keys    []string
	commits map[string][]*graph.Commit
	byHash  map[string]struct{}
}

// NewMap creates an empty ticket map.
func NewMap() *Map {
	return &Map{
		commits: make(map[string][]*graph.Commit),
		byHash:  make(map[string]struct{}),
	}
}

// Add appends a commit to a ticket's list, keeping insertion order.
func (m *Map) Add(key string, c *graph.Commit) {
	if _, ok := m.commits[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.commits[key] = append(m.commits[key], c)
	m.byHash[c.Hash] = struct{}{}
}

// Keys returns the ticket keys in first-seen order.
func (m *Map) Keys() []string {
	return m.keys
}

// Commits returns the commits for a ticket key, in graph order.
func (m *Map) Commits(key string) []*graph.Commit {
	return m.commits[key]
}

// Len returns the number of distinct tickets.
func (m *Map) Len() int {
	return len(m.keys)
}

// HasCommit reports whether the commit hash appears in any ticket's list.
func (m *Map) HasCommit(hash string) bool {
	_, ok := m.byHash[hash]
	return ok
}
