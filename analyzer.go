package promote

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	nanoid "github.com/matoous/go-nanoid/v2"

	"github.com/randalmurphal/promote/config"
	"github.com/randalmurphal/promote/conflict"
	promoteerrors "github.com/randalmurphal/promote/errors"
	"github.com/randalmurphal/promote/git"
	"github.com/randalmurphal/promote/graph"
	"github.com/randalmurphal/promote/plan"
	"github.com/randalmurphal/promote/ticket"
	"github.com/randalmurphal/promote/tracker"
)

// resolveConfidence is the minimum inference confidence at which the
// default orphan resolver assigns a suggested ticket.
const resolveConfidence = 60

// TicketSelector filters the ticket keys included in the plan. It
// receives every extracted key in insertion order and returns the keys
// to keep. A nil selector keeps everything.
type TicketSelector func(keys []string) []string

// OrphanResolver decides what to do with a commit that has no ticket
// reference. It returns the ticket key to assign, the confidence of
// that assignment, and whether an assignment was made at all.
// Unassigned orphans still enter the plan under the NO_TICKET group.
type OrphanResolver func(o *ticket.Orphan) (key string, confidence int, ok bool)

// Result is the complete output of one analysis run.
type Result struct {
	RunID        string
	SourceBranch string
	TargetBranch string

	Graph       *graph.Graph
	Merges      []graph.MergeAnalysis
	Tickets     *ticket.Map
	Orphans     []*ticket.Orphan
	Predictions []conflict.Prediction
	Plan        *plan.Plan

	// Warnings collects non-fatal issues: malformed log records,
	// tracker lookup misses, degraded enrichment.
	Warnings []string

	Duration time.Duration
}

// Analyzer runs the full pipeline: log parsing, graph construction,
// merge analysis, ticket extraction, orphan inference, conflict
// prediction, and plan assembly.
type Analyzer struct {
	gc  *git.Context
	cfg *config.Config
	log *slog.Logger

	svc      tracker.Service
	selector TicketSelector
	resolver OrphanResolver
	progress conflict.Progress
	cache    *conflict.Cache
	prober   conflict.MarkerProber
}

// AnalyzerOption configures an Analyzer.
type AnalyzerOption func(*Analyzer)

// New creates an Analyzer for the repository at repoPath. The config
// must carry at least one ticket prefix. A tracker backend is built
// from the config unless WithTracker overrides it.
func New(repoPath string, cfg *config.Config, opts ...AnalyzerOption) (*Analyzer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	a := &Analyzer{
		cfg: cfg,
		log: slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}

	if a.gc == nil {
		gc, err := git.NewContext(repoPath)
		if err != nil {
			return nil, err
		}
		a.gc = gc
	}
	if a.prober == nil {
		a.prober = conflict.WorktreeProber{Root: a.gc.RepoPath()}
	}
	if a.cache == nil {
		ttl := cfg.CacheTTL
		if ttl <= 0 {
			ttl = conflict.DefaultTTL
		}
		a.cache = conflict.NewCache(ttl)
	}
	if a.svc == nil {
		svc, err := buildTracker(cfg)
		if err != nil {
			return nil, err
		}
		a.svc = svc
	}
	return a, nil
}

// WithGitContext supplies a pre-built git context, typically one with a
// mock command runner.
func WithGitContext(gc *git.Context) AnalyzerOption {
	return func(a *Analyzer) { a.gc = gc }
}

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) AnalyzerOption {
	return func(a *Analyzer) { a.log = logger }
}

// WithTracker overrides the ticket metadata backend. Passing nil
// disables enrichment regardless of config.
func WithTracker(svc tracker.Service) AnalyzerOption {
	return func(a *Analyzer) { a.svc = svc }
}

// WithTicketSelector installs a plan-scope filter over ticket keys.
func WithTicketSelector(sel TicketSelector) AnalyzerOption {
	return func(a *Analyzer) { a.selector = sel }
}

// WithOrphanResolver replaces the default confidence-threshold
// resolver.
func WithOrphanResolver(res OrphanResolver) AnalyzerOption {
	return func(a *Analyzer) { a.resolver = res }
}

// WithProgress reports conflict prediction progress.
func WithProgress(fn conflict.Progress) AnalyzerOption {
	return func(a *Analyzer) { a.progress = fn }
}

// WithPredictionCache shares a prediction cache across runs.
func WithPredictionCache(c *conflict.Cache) AnalyzerOption {
	return func(a *Analyzer) { a.cache = c }
}

// Analyze compares source against target and returns the analysis
// result with an ordered cherry-pick plan. An empty divergence yields
// an empty plan, not an error.
func (a *Analyzer) Analyze(ctx context.Context, source, target string) (*Result, error) {
	if source == target {
		return nil, fmt.Errorf("%w: %q", ErrSameBranch, source)
	}

	runID, err := nanoid.New()
	if err != nil {
		return nil, err
	}
	log := a.log.With("run", runID, "source", source, "target", target)

	if a.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.cfg.Timeout)
		defer cancel()
	}

	start := time.Now()
	log.Info("analysis started")

	res := &Result{
		RunID:        runID,
		SourceBranch: source,
		TargetBranch: target,
	}

	if _, _, err := a.gc.ResolveBranch(source); err != nil {
		return nil, err
	}
	if _, _, err := a.gc.ResolveBranch(target); err != nil {
		return nil, err
	}

	entries, warnings, err := a.gc.CommitsBetween(target, source)
	if err != nil {
		return nil, wrapTimeout(ctx, err)
	}
	res.Warnings = append(res.Warnings, warnings...)
	for _, w := range warnings {
		log.Warn("skipped malformed log record", "detail", w)
	}

	g := graph.FromEntries(source, target, entries)
	res.Graph = g
	if g.Len() == 0 {
		res.Plan = plan.NewOptimizer().Build(g, nil, nil)
		res.Duration = time.Since(start)
		log.Info("analysis complete", "commits", 0, "duration", res.Duration)
		return res, nil
	}

	targetSet, err := a.gc.BranchCommitSet(target)
	if err != nil {
		return nil, wrapTimeout(ctx, err)
	}
	res.Merges = graph.AnalyzeMerges(g, targetSet)

	extractor := a.newExtractor()
	res.Tickets = extractor.Extract(g)
	res.Orphans = ticket.DetectOrphans(g, res.Tickets)

	inferrer := a.newInferrer()
	inferrer.Populate(g, res.Tickets, res.Merges, res.Orphans)
	a.resolveOrphans(res.Orphans, log)

	// Selection narrows everything downstream: predictions score only the
	// commits that can end up in the plan.
	selection := a.selectCommits(g, res.Tickets)

	targetFiles, err := a.gc.FilesChangedOnTarget(source, target)
	if err != nil {
		return nil, wrapTimeout(ctx, err)
	}

	predictor := conflict.NewPredictor(
		conflict.WithThresholds(a.cfg.Thresholds()),
		conflict.WithCriticalPaths(a.cfg.EffectiveCriticalPaths()),
		conflict.WithWorkers(a.cfg.Workers),
		conflict.WithMarkerProber(a.prober),
		conflict.WithProgress(a.progress),
		conflict.WithCache(a.cache),
	)
	res.Predictions, err = predictor.Predict(ctx, target, selection, targetFiles)
	if err != nil {
		return nil, wrapTimeout(ctx, err)
	}

	res.Plan = plan.NewOptimizer(plan.WithPredictions(res.Predictions)).Build(g, selection, res.Merges)

	if a.svc != nil {
		a.enrich(ctx, res, log)
	}

	res.Duration = time.Since(start)
	log.Info("analysis complete",
		"commits", g.Len(),
		"tickets", res.Tickets.Len(),
		"orphans", len(res.Orphans),
		"predictions", len(res.Predictions),
		"duration", res.Duration,
	)
	return res, nil
}

func (a *Analyzer) newExtractor() *ticket.Extractor {
	var opts []ticket.ExtractorOption
	if a.cfg.MinSimilarity > 0 {
		opts = append(opts, ticket.WithMinSimilarity(a.cfg.MinSimilarity))
	}
	return ticket.NewExtractor(a.cfg.TicketPrefixes, opts...)
}

func (a *Analyzer) newInferrer() *ticket.Inferrer {
	var opts []ticket.InferrerOption
	if a.cfg.InferenceWindow > 0 {
		opts = append(opts, ticket.WithWindow(a.cfg.InferenceWindow))
	}
	return ticket.NewInferrer(opts...)
}

// resolveOrphans applies the resolver to each orphan and records the
// outcome on the commit so plan grouping can use it.
func (a *Analyzer) resolveOrphans(orphans []*ticket.Orphan, log *slog.Logger) {
	resolver := a.resolver
	if resolver == nil {
		resolver = defaultResolver
	}
	for _, o := range orphans {
		key, confidence, ok := resolver(o)
		if !ok {
			continue
		}
		o.Commit.InferredTicket = key
		o.Commit.InferredConfidence = confidence
		log.Debug("orphan resolved",
			"commit", o.Commit.ShortHash(),
			"ticket", key,
			"confidence", confidence,
		)
	}
}

// defaultResolver assigns the top suggestion when it clears the
// confidence floor.
func defaultResolver(o *ticket.Orphan) (string, int, bool) {
	if len(o.Suggestions) == 0 {
		return "", 0, false
	}
	top := o.Suggestions[0]
	if top.Confidence < resolveConfidence {
		return "", 0, false
	}
	return top.Ticket, top.Confidence, true
}

// selectCommits applies the ticket selector and returns the commits to
// plan, in log order. Commits without any ticket assignment are always
// kept; they surface in the NO_TICKET group.
func (a *Analyzer) selectCommits(g *graph.Graph, tickets *ticket.Map) []*graph.Commit {
	if a.selector == nil {
		return g.Commits()
	}

	keep := make(map[string]struct{})
	for _, key := range a.selector(tickets.Keys()) {
		keep[key] = struct{}{}
	}

	var out []*graph.Commit
	for _, c := range g.Commits() {
		if included(c, tickets, keep) {
			out = append(out, c)
		}
	}
	return out
}

func included(c *graph.Commit, tickets *ticket.Map, keep map[string]struct{}) bool {
	if len(c.Tickets) == 0 && c.InferredTicket == "" {
		return true
	}
	for _, key := range c.Tickets {
		if _, ok := keep[key]; ok {
			return true
		}
	}
	if c.InferredTicket != "" {
		_, ok := keep[c.InferredTicket]
		return ok
	}
	return false
}

// enrich attaches tracker metadata to ticket groups. Lookup failures
// degrade to warnings; the plan itself is never blocked on a tracker.
func (a *Analyzer) enrich(ctx context.Context, res *Result, log *slog.Logger) {
	var keys []string
	for i := range res.Plan.Groups {
		if k := res.Plan.Groups[i].Ticket; k != plan.NoTicket {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return
	}

	batcher := tracker.NewBatcher(a.svc, tracker.WithLogger(a.log))
	found, misses, err := batcher.Lookup(ctx, keys)
	if err != nil {
		report := promoteerrors.Describe(err)
		res.Warnings = append(res.Warnings,
			fmt.Sprintf("ticket enrichment unavailable: %s", report.Message))
		log.Warn("ticket enrichment unavailable", "error", err)
		return
	}
	for _, miss := range misses {
		res.Warnings = append(res.Warnings,
			fmt.Sprintf("no tracker metadata for %s", miss))
	}

	for i := range res.Plan.Groups {
		t, ok := found[res.Plan.Groups[i].Ticket]
		if !ok {
			continue
		}
		res.Plan.Groups[i].Summary = t.Summary
		res.Plan.Groups[i].Status = t.Status
		res.Plan.Groups[i].Assignee = t.Assignee
		res.Plan.Groups[i].Priority = t.Priority
		res.Plan.Groups[i].Labels = t.Labels
	}
}

// buildTracker constructs the configured metadata backend. Kind "none"
// returns nil.
func buildTracker(cfg *config.Config) (tracker.Service, error) {
	switch cfg.Tracker.Kind {
	case "", config.TrackerNone:
		return nil, nil
	case config.TrackerJira:
		return tracker.NewJiraService(&cfg.Tracker.Jira)
	case config.TrackerGitHub:
		return tracker.NewGitHubService(cfg.Tracker.GitHub.Token, cfg.Tracker.GitHub.Repos)
	case config.TrackerGitLab:
		return tracker.NewGitLabService(cfg.Tracker.GitLab.Token, cfg.Tracker.GitLab.BaseURL, cfg.Tracker.GitLab.Projects)
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrBadTrackerKind, cfg.Tracker.Kind)
	}
}

// wrapTimeout converts a deadline expiry into the distinct analysis
// timeout error so callers can tell it apart from repo failures.
func wrapTimeout(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrAnalysisTimeout, err)
	}
	return err
}
