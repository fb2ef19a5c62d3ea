package conflict

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/randalmurphal/promote/graph"
)

// DefaultWorkers bounds the per-file analysis pool.
const DefaultWorkers = 4

// Prediction is the per-file conflict forecast. Predictions are pure
// values: safe to cache and reuse until repository state changes.
type Prediction struct {
	File        string       `json:"file"`
	Commits     []string     `json:"commits"` // hashes touching the file, chronological
	Risk        Risk         `json:"risk"`
	Score       int          `json:"score"` // normalized 0-100
	Type        Type         `json:"type"`
	Description string       `json:"description"`
	Details     []LineDetail `json:"details,omitempty"`
	Hints       []string     `json:"hints,omitempty"`
}

// LineDetail is an optional per-line record attached when a content probe
// found literal conflict markers.
type LineDetail struct {
	Line    int    `json:"line"`
	Content string `json:"content"`
}

// MarkerProber checks a file for literal conflict markers. Implementations
// read working-tree or branch content; nil disables the check.
type MarkerProber interface {
	ConflictMarkers(path string) []LineDetail
}

// Progress receives advisory progress updates. It observes the pipeline
// and must not influence it; calls are serialized.
type Progress func(processed, total, conflicts int)

// Predictor scores per-file conflict risk for a candidate commit set.
type Predictor struct {
	thresholds Thresholds
	critical   CriticalPaths
	workers    int
	prober     MarkerProber
	progress   Progress
	cache      *Cache
}

// PredictorOption configures a Predictor.
type PredictorOption func(*Predictor)

// NewPredictor creates a predictor with default thresholds, critical
// paths, and worker count.
func NewPredictor(opts ...PredictorOption) *Predictor {
	p := &Predictor{
		thresholds: DefaultThresholds,
		critical:   DefaultCriticalPaths(),
		workers:    DefaultWorkers,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.workers < 1 {
		p.workers = 1
	}
	return p
}

// WithThresholds overrides the risk thresholds.
func WithThresholds(t Thresholds) PredictorOption {
	return func(p *Predictor) { p.thresholds = t }
}

// WithCriticalPaths overrides the critical path configuration.
func WithCriticalPaths(cp CriticalPaths) PredictorOption {
	return func(p *Predictor) { p.critical = cp }
}

// WithWorkers bounds the analysis pool size.
func WithWorkers(n int) PredictorOption {
	return func(p *Predictor) { p.workers = n }
}

// WithMarkerProber enables the literal conflict-marker check.
func WithMarkerProber(mp MarkerProber) PredictorOption {
	return func(p *Predictor) { p.prober = mp }
}

// WithProgress registers an advisory progress observer.
func WithProgress(fn Progress) PredictorOption {
	return func(p *Predictor) { p.progress = fn }
}

// WithCache wraps the predictor with a TTL cache. Hits return the exact
// prior prediction without recomputation.
func WithCache(c *Cache) PredictorOption {
	return func(p *Predictor) { p.cache = c }
}

// Predict scores every file touched by at least two candidate commits.
// targetFiles is the set of files modified on the target branch since
// divergence (nil when unknown). Results are sorted by descending score,
// then by path. The context cancels in-flight per-file work.
func (p *Predictor) Predict(ctx context.Context, target string, commits []*graph.Commit, targetFiles map[string]struct{}) ([]Prediction, error) {
	groups := groupByFile(commits)

	files := make([]string, 0, len(groups))
	for file := range groups {
		files = append(files, file)
	}
	sort.Strings(files)

	var (
		mu          sync.Mutex
		predictions []Prediction
		processed   int
		conflicts   int
	)

	sem := make(chan struct{}, p.workers)
	var wg sync.WaitGroup

	for _, file := range files {
		if err := ctx.Err(); err != nil {
			break
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(file string, touching []*graph.Commit) {
			defer wg.Done()
			defer func() { <-sem }()

			pred := p.predictFile(target, file, touching, targetFiles)

			mu.Lock()
			defer mu.Unlock()
			processed++
			if pred.Risk >= Medium {
				conflicts++
			}
			predictions = append(predictions, pred)
			if p.progress != nil {
				p.progress(processed, len(files), conflicts)
			}
		}(file, groups[file])
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("conflict prediction: %w", err)
	}

	sort.SliceStable(predictions, func(i, j int) bool {
		if predictions[i].Score != predictions[j].Score {
			return predictions[i].Score > predictions[j].Score
		}
		return predictions[i].File < predictions[j].File
	})
	return predictions, nil
}

// predictFile scores a single file, consulting the cache first.
func (p *Predictor) predictFile(target, file string, touching []*graph.Commit, targetFiles map[string]struct{}) Prediction {
	hashes := make([]string, len(touching))
	for i, c := range touching {
		hashes[i] = c.Hash
	}

	var key string
	if p.cache != nil {
		key = CacheKey(target, file, hashes)
		if pred, ok := p.cache.Get(key); ok {
			return pred
		}
	}

	f := factors{
		commitCount: len(touching),
		authorCount: distinctAuthors(touching),
		span:        timeSpan(touching),
		critical:    p.critical.Matches(file),
		binary:      isBinaryPath(file),
	}
	if targetFiles != nil {
		_, f.targetModified = targetFiles[file]
	}
	for _, c := range touching {
		if isStructuralMessage(c.Message) {
			f.structural = true
			break
		}
	}

	var details []LineDetail
	if p.prober != nil {
		if details = p.prober.ConflictMarkers(file); len(details) > 0 {
			f.hasMarkers = true
		}
	}

	score := f.score()
	pred := Prediction{
		File:        file,
		Commits:     hashes,
		Risk:        p.thresholds.Level(score),
		Score:       score,
		Type:        f.conflictType(),
		Description: describe(file, f),
		Details:     details,
		Hints:       hints(f),
	}

	if p.cache != nil {
		p.cache.Put(key, pred)
	}
	return pred
}

var titleCaser = cases.Title(language.English)

func describe(file string, f factors) string {
	var b strings.Builder
	b.WriteString(titleCaser.String(string(f.conflictType())))
	fmt.Fprintf(&b, ": %s touched by %d commits from %d authors", file, f.commitCount, f.authorCount)
	if days := int(f.span.Hours() / 24); days > 0 {
		fmt.Fprintf(&b, " over %d days", days)
	}
	if f.targetModified {
		b.WriteString("; also modified on target branch")
	}
	return b.String()
}

func hints(f factors) []string {
	var out []string
	if f.hasMarkers {
		out = append(out, "resolve leftover conflict markers before picking")
	}
	if f.binary {
		out = append(out, "binary file: pick the newest version wholesale, git cannot merge it")
	}
	if f.targetModified {
		out = append(out, "diff against the target branch first; both sides changed this file")
	}
	if f.structural {
		out = append(out, "apply structural commits before content commits to reduce rename noise")
	}
	return out
}

// groupByFile buckets candidate commits by modified file, keeping only
// files touched by at least two commits. Commits within a bucket are
// chronological.
func groupByFile(commits []*graph.Commit) map[string][]*graph.Commit {
	byFile := make(map[string][]*graph.Commit)
	for _, c := range commits {
		for _, file := range c.Files {
			byFile[file] = append(byFile[file], c)
		}
	}
	for file, touching := range byFile {
		if len(touching) < 2 {
			delete(byFile, file)
			continue
		}
		sort.SliceStable(touching, func(i, j int) bool {
			return touching[i].Timestamp.Before(touching[j].Timestamp)
		})
	}
	return byFile
}

func distinctAuthors(commits []*graph.Commit) int {
	authors := make(map[string]struct{})
	for _, c := range commits {
		authors[c.AuthorEmail] = struct{}{}
	}
	return len(authors)
}

func timeSpan(commits []*graph.Commit) time.Duration {
	if len(commits) == 0 {
		return 0
	}
	earliest, latest := commits[0].Timestamp, commits[0].Timestamp
	for _, c := range commits[1:] {
		if c.Timestamp.Before(earliest) {
			earliest = c.Timestamp
		}
		if c.Timestamp.After(latest) {
			latest = c.Timestamp
		}
	}
	return latest.Sub(earliest)
}
