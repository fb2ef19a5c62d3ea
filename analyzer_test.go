package promote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/randalmurphal/promote/config"
	"github.com/randalmurphal/promote/git"
	"github.com/randalmurphal/promote/plan"
	"github.com/randalmurphal/promote/testutil"
	"github.com/randalmurphal/promote/ticket"
	"github.com/randalmurphal/promote/tracker"
)

const (
	recordSep = "\x1e"
	unitSep   = "\x1f"
	logKey    = "log --topo-order --name-status --pretty=format:" +
		recordSep + "%H" + unitSep + "%P" + unitSep + "%an" + unitSep +
		"%ae" + unitSep + "%at" + unitSep + "%B" + unitSep +
		" release..develop"
)

func testHash(c byte) string {
	return strings.Repeat(string(c), 40)
}

// logRecord rebuilds one framed record the way git log emits it.
func logRecord(hash, parents, author, email string, ts time.Time, message, nameStatus string) string {
	return recordSep + hash + unitSep + parents + unitSep + author + unitSep +
		email + unitSep + fmt.Sprintf("%d", ts.Unix()) + unitSep +
		message + unitSep + "\n" + nameStatus
}

// scriptedRepo scripts a two-commit divergence of develop over release:
// one ticketed commit and one orphan, overlapping on app/main.go.
func scriptedRepo(t *testing.T) *git.Context {
	t.Helper()

	var (
		base = testHash('0')
		rel  = testHash('f')
		hA   = testHash('a')
		hB   = testHash('b')
		t1   = time.Unix(1700000000, 0)
		t2   = t1.Add(30 * time.Minute)
	)

	logOut := logRecord(hB, hA, "Rosa Vane", "rosa@example.com", t2,
		"HSAMED-1 fix login redirect", "M\tapp/main.go") + "\n" +
		logRecord(hA, base, "Rosa Vane", "rosa@example.com", t1,
			"tweak colors and spacing", "M\tapp/main.go\nM\tweb/styles.css")

	runner := testutil.NewScriptRunner(nil).
		On("rev-parse --git-dir", ".git", nil).
		On("rev-parse --verify --quiet develop^{commit}", hB, nil).
		On("rev-parse --verify --quiet release^{commit}", rel, nil).
		On(logKey, logOut, nil).
		On("rev-list release", rel+"\n"+base, nil).
		On("merge-base develop release", base, nil).
		On("diff --name-only "+base+" release", "web/config.yaml", nil)

	gc, err := git.NewContext(t.TempDir(), git.WithRunner(runner))
	if err != nil {
		t.Fatalf("NewContext: %v", err)
	}
	return gc
}

// fakeTracker answers lookups from a fixed table.
type fakeTracker struct {
	tickets map[string]tracker.Ticket
	calls   int
}

func (f *fakeTracker) Lookup(ctx context.Context, keys []string) (map[string]tracker.Ticket, error) {
	f.calls++
	out := make(map[string]tracker.Ticket)
	for _, k := range keys {
		if t, ok := f.tickets[k]; ok {
			out[k] = t
		}
	}
	return out, nil
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.TicketPrefixes = []string{"HSAMED"}
	cfg.Workers = 1
	return cfg
}

func newTestAnalyzer(t *testing.T, opts ...AnalyzerOption) *Analyzer {
	t.Helper()
	opts = append([]AnalyzerOption{
		WithGitContext(scriptedRepo(t)),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	}, opts...)
	a, err := New("", testConfig(), opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return a
}

func TestAnalyzeEndToEnd(t *testing.T) {
	svc := &fakeTracker{tickets: map[string]tracker.Ticket{
		"HSAMED-1": {
			Key:      "HSAMED-1",
			Summary:  "Fix login redirect",
			Status:   "In Review",
			Assignee: "rosa",
		},
	}}
	a := newTestAnalyzer(t, WithTracker(svc))

	res, err := a.Analyze(context.Background(), "develop", "release")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if res.RunID == "" {
		t.Error("missing run id")
	}
	if res.SourceBranch != "develop" || res.TargetBranch != "release" {
		t.Errorf("branches = %s -> %s", res.SourceBranch, res.TargetBranch)
	}
	if res.Graph.Len() != 2 {
		t.Fatalf("graph size = %d", res.Graph.Len())
	}
	if res.Tickets.Len() != 1 {
		t.Errorf("tickets = %v", res.Tickets.Keys())
	}
	if len(res.Orphans) != 1 {
		t.Fatalf("orphans = %d", len(res.Orphans))
	}
	if len(res.Orphans[0].Suggestions) == 0 {
		t.Error("orphan has ticketed neighbors, expected suggestions")
	}

	if len(res.Predictions) != 1 || res.Predictions[0].File != "app/main.go" {
		t.Fatalf("predictions = %+v", res.Predictions)
	}

	p := res.Plan
	if p.CheckoutCommand != "git checkout release" {
		t.Errorf("checkout = %q", p.CheckoutCommand)
	}
	if len(p.Groups) != 2 {
		t.Fatalf("groups = %d", len(p.Groups))
	}
	if p.Groups[0].Ticket != "HSAMED-1" || p.Groups[1].Ticket != plan.NoTicket {
		t.Errorf("group order = %s, %s", p.Groups[0].Ticket, p.Groups[1].Ticket)
	}
	if p.Groups[0].Summary != "Fix login redirect" || p.Groups[0].Status != "In Review" {
		t.Errorf("enrichment missing: %+v", p.Groups[0])
	}
	if p.Groups[0].RiskScore != res.Predictions[0].Score {
		t.Errorf("group risk = %d, want the app/main.go prediction score %d",
			p.Groups[0].RiskScore, res.Predictions[0].Score)
	}
	if svc.calls != 1 {
		t.Errorf("tracker calls = %d", svc.calls)
	}
	if len(res.Warnings) != 0 {
		t.Errorf("warnings = %v", res.Warnings)
	}
	if res.Duration <= 0 {
		t.Error("duration not recorded")
	}
}

func TestAnalyzeOrphanResolverGroupsInferred(t *testing.T) {
	a := newTestAnalyzer(t, WithOrphanResolver(func(o *ticket.Orphan) (string, int, bool) {
		return "HSAMED-1", 90, true
	}))

	res, err := a.Analyze(context.Background(), "develop", "release")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if len(res.Plan.Groups) != 1 {
		t.Fatalf("groups = %d", len(res.Plan.Groups))
	}
	g := res.Plan.Groups[0]
	if g.Ticket != "HSAMED-1" || len(g.Commits) != 2 {
		t.Errorf("group = %+v", g)
	}
	// Chronological within the group: orphan first.
	if g.Commits[0] != testHash('a') || g.Commits[1] != testHash('b') {
		t.Errorf("order = %v", g.Commits)
	}
}

func TestAnalyzeTicketSelector(t *testing.T) {
	a := newTestAnalyzer(t, WithTicketSelector(func(keys []string) []string {
		return nil // drop every ticket
	}))

	res, err := a.Analyze(context.Background(), "develop", "release")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	// The ticketed commit is filtered out; the orphan is always kept.
	if len(res.Plan.Groups) != 1 || res.Plan.Groups[0].Ticket != plan.NoTicket {
		t.Fatalf("groups = %+v", res.Plan.Groups)
	}

	// Predictions score the selection, not the full divergence: with the
	// ticketed commit excluded, no file is touched twice.
	if len(res.Predictions) != 0 {
		t.Errorf("predictions = %+v", res.Predictions)
	}
}

func TestAnalyzeSameBranch(t *testing.T) {
	a := newTestAnalyzer(t)
	_, err := a.Analyze(context.Background(), "develop", "develop")
	if !errors.Is(err, ErrSameBranch) {
		t.Fatalf("err = %v, want ErrSameBranch", err)
	}
}

func TestAnalyzeEmptyDivergence(t *testing.T) {
	rel := testHash('f')
	runner := testutil.NewScriptRunner(nil).
		On("rev-parse --git-dir", ".git", nil).
		On("rev-parse --verify --quiet develop^{commit}", rel, nil).
		On("rev-parse --verify --quiet release^{commit}", rel, nil).
		On(logKey, "", nil)
	gc, err := git.NewContext(t.TempDir(), git.WithRunner(runner))
	if err != nil {
		t.Fatal(err)
	}
	a, err := New("", testConfig(),
		WithGitContext(gc),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	if err != nil {
		t.Fatal(err)
	}

	res, err := a.Analyze(context.Background(), "develop", "release")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if res.Graph.Len() != 0 {
		t.Errorf("graph size = %d", res.Graph.Len())
	}
	if res.Plan == nil || len(res.Plan.Groups) != 0 {
		t.Errorf("plan = %+v", res.Plan)
	}
	if cmds := res.Plan.Commands(); cmds != nil {
		t.Errorf("commands = %v", cmds)
	}
}

func TestAnalyzeBranchNotFound(t *testing.T) {
	runner := testutil.NewScriptRunner(nil).
		On("rev-parse --git-dir", ".git", nil).
		On("rev-parse --verify --quiet develop^{commit}", testHash('b'), nil).
		On("rev-parse --verify --quiet gone^{commit}", "", errors.New("exit status 1")).
		On("remote", "", nil)
	gc, err := git.NewContext(t.TempDir(), git.WithRunner(runner))
	if err != nil {
		t.Fatal(err)
	}
	a, err := New("", testConfig(),
		WithGitContext(gc),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	if err != nil {
		t.Fatal(err)
	}

	_, err = a.Analyze(context.Background(), "develop", "gone")
	if !errors.Is(err, git.ErrBranchNotFound) {
		t.Fatalf("err = %v, want ErrBranchNotFound", err)
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	_, err := New("", config.Default())
	if !errors.Is(err, config.ErrNoPrefixes) {
		t.Fatalf("err = %v, want ErrNoPrefixes", err)
	}
}
