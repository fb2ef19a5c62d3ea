package tracker

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/xanzy/go-gitlab"
)

// GitLabService resolves ticket keys against GitLab Issues. A ticket key
// PREFIX-123 maps to issue IID 123 of the project configured for PREFIX.
type GitLabService struct {
	client *gitlab.Client

	// projects maps an upper-case ticket prefix to a project path or ID.
	projects map[string]string
}

// NewGitLabService creates a GitLab Issues tracker backend.
// baseURL is empty for gitlab.com. projects maps ticket prefixes to
// "namespace/project" paths or numeric project IDs.
func NewGitLabService(token, baseURL string, projects map[string]string) (*GitLabService, error) {
	if token == "" {
		return nil, fmt.Errorf("GitLab token is required")
	}
	if len(projects) == 0 {
		return nil, fmt.Errorf("at least one prefix-to-project mapping is required")
	}

	var client *gitlab.Client
	var err error
	if baseURL != "" {
		client, err = gitlab.NewClient(token, gitlab.WithBaseURL(baseURL))
	} else {
		client, err = gitlab.NewClient(token)
	}
	if err != nil {
		return nil, fmt.Errorf("create GitLab client: %w", err)
	}

	normalized := make(map[string]string, len(projects))
	for prefix, project := range projects {
		normalized[strings.ToUpper(prefix)] = project
	}

	return &GitLabService{
		client:   client,
		projects: normalized,
	}, nil
}

// Lookup implements Service. Unknown prefixes and missing issues are
// skipped; only transport failures surface as errors.
func (s *GitLabService) Lookup(ctx context.Context, keys []string) (map[string]Ticket, error) {
	tickets := make(map[string]Ticket, len(keys))

	for _, key := range keys {
		prefix, iid, ok := splitKey(key)
		if !ok {
			continue
		}
		project, ok := s.projects[prefix]
		if !ok {
			continue
		}

		issue, resp, err := s.client.Issues.GetIssue(project, iid, gitlab.WithContext(ctx))
		if err != nil {
			if resp != nil && resp.StatusCode == http.StatusNotFound {
				slog.Debug("ticket has no matching GitLab issue", "key", key, "project", project)
				continue
			}
			return nil, fmt.Errorf("get issue %s: %w", key, err)
		}

		t := Ticket{
			Key:     key,
			Summary: issue.Title,
			Status:  issue.State,
			Labels:  []string(issue.Labels),
		}
		if issue.Assignee != nil {
			t.Assignee = issue.Assignee.Name
		}
		tickets[key] = t
	}
	return tickets, nil
}
