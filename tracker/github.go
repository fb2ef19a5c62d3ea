package tracker

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/go-github/v57/github"
	"golang.org/x/oauth2"
)

// GitHubService resolves ticket keys against GitHub Issues. A ticket key
// PREFIX-123 maps to issue #123 of the repository configured for PREFIX.
type GitHubService struct {
	client *github.Client

	// repos maps an upper-case ticket prefix to "owner/repo".
	repos map[string]string
}

// NewGitHubService creates a GitHub Issues tracker backend.
// repos maps ticket prefixes to "owner/repo" slugs.
func NewGitHubService(token string, repos map[string]string) (*GitHubService, error) {
	if token == "" {
		return nil, fmt.Errorf("GitHub token is required")
	}
	if len(repos) == 0 {
		return nil, fmt.Errorf("at least one prefix-to-repository mapping is required")
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	tc := oauth2.NewClient(context.Background(), ts)

	normalized := make(map[string]string, len(repos))
	for prefix, slug := range repos {
		if !strings.Contains(slug, "/") {
			return nil, fmt.Errorf("repository for prefix %s must be owner/repo, got %q", prefix, slug)
		}
		normalized[strings.ToUpper(prefix)] = slug
	}

	return &GitHubService{
		client: github.NewClient(tc),
		repos:  normalized,
	}, nil
}

// Lookup implements Service. Unknown prefixes and missing issues are
// skipped; only transport failures surface as errors.
func (s *GitHubService) Lookup(ctx context.Context, keys []string) (map[string]Ticket, error) {
	tickets := make(map[string]Ticket, len(keys))

	for _, key := range keys {
		prefix, number, ok := splitKey(key)
		if !ok {
			continue
		}
		slug, ok := s.repos[prefix]
		if !ok {
			continue
		}
		owner, repo, _ := strings.Cut(slug, "/")

		issue, resp, err := s.client.Issues.Get(ctx, owner, repo, number)
		if err != nil {
			if resp != nil && resp.StatusCode == http.StatusNotFound {
				slog.Debug("ticket has no matching GitHub issue", "key", key, "repo", slug)
				continue
			}
			return nil, fmt.Errorf("get issue %s: %w", key, err)
		}

		tickets[key] = Ticket{
			Key:      key,
			Summary:  issue.GetTitle(),
			Status:   issue.GetState(),
			Assignee: issue.GetAssignee().GetLogin(),
			Priority: priorityFromLabels(issue.Labels),
			Labels:   labelNames(issue.Labels),
		}
	}
	return tickets, nil
}

// priorityFromLabels reads GitHub's conventional "priority: high" style
// labels, since issues have no first-class priority field.
func priorityFromLabels(labels []*github.Label) string {
	for _, label := range labels {
		name := label.GetName()
		if rest, ok := strings.CutPrefix(strings.ToLower(name), "priority:"); ok {
			return strings.TrimSpace(rest)
		}
	}
	return ""
}

func labelNames(labels []*github.Label) []string {
	if len(labels) == 0 {
		return nil
	}
	names := make([]string, 0, len(labels))
	for _, label := range labels {
		names = append(names, label.GetName())
	}
	return names
}

// splitKey splits PREFIX-123 into its prefix and number.
func splitKey(key string) (prefix string, number int, ok bool) {
	idx := strings.LastIndex(key, "-")
	if idx <= 0 || idx == len(key)-1 {
		return "", 0, false
	}
	number, err := strconv.Atoi(key[idx+1:])
	if err != nil {
		return "", 0, false
	}
	return strings.ToUpper(key[:idx]), number, true
}
