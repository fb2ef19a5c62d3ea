package tracker

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"

	promotehttp "github.com/randalmurphal/promote/http"
)

// JiraAuthType selects how Jira requests are authenticated.
type JiraAuthType string

const (
	JiraAuthAPIToken JiraAuthType = "api_token" // Cloud: email + API token
	JiraAuthBasic    JiraAuthType = "basic"     // Server: username + password
	JiraAuthPAT      JiraAuthType = "pat"       // Server/DC: personal access token
	JiraAuthConnect  JiraAuthType = "connect"   // Connect app: signed JWT per request
)

// Jira configuration errors.
var (
	ErrJiraURLRequired  = errors.New("jira url is required")
	ErrJiraAuthInvalid  = errors.New("jira auth type must be api_token, basic, pat, or connect")
	ErrJiraAPITokenAuth = errors.New("api_token auth requires email and token")
	ErrJiraBasicAuth    = errors.New("basic auth requires username and password")
	ErrJiraPATAuth      = errors.New("pat auth requires token")
	ErrJiraConnectAuth  = errors.New("connect auth requires issuer and shared secret")
)

// JiraConfig holds the configuration for the Jira backend.
type JiraConfig struct {
	// URL is the base URL of the Jira instance.
	URL string `yaml:"url"`

	// Auth selects and parameterizes the authentication method.
	Auth JiraAuthConfig `yaml:"auth"`

	// MaxResults caps issues per search page. Defaults to DefaultChunkSize.
	MaxResults int `yaml:"max_results"`
}

// JiraAuthConfig holds Jira authentication settings.
type JiraAuthConfig struct {
	Type     JiraAuthType `yaml:"type"`
	Email    string       `yaml:"email"`
	Token    string       `yaml:"token"`
	Username string       `yaml:"username"`
	Password string       `yaml:"password"`

	// Connect app credentials.
	Issuer       string `yaml:"issuer"`
	SharedSecret string `yaml:"shared_secret"`
}

// Validate checks the configuration for the selected auth type.
func (c *JiraConfig) Validate() error {
	if c.URL == "" {
		return ErrJiraURLRequired
	}
	switch c.Auth.Type {
	case JiraAuthAPIToken:
		if c.Auth.Email == "" || c.Auth.Token == "" {
			return ErrJiraAPITokenAuth
		}
	case JiraAuthBasic:
		if c.Auth.Username == "" || c.Auth.Password == "" {
			return ErrJiraBasicAuth
		}
	case JiraAuthPAT:
		if c.Auth.Token == "" {
			return ErrJiraPATAuth
		}
	case JiraAuthConnect:
		if c.Auth.Issuer == "" || c.Auth.SharedSecret == "" {
			return ErrJiraConnectAuth
		}
	default:
		return ErrJiraAuthInvalid
	}
	return nil
}

// JiraService looks up ticket metadata through the Jira REST API.
type JiraService struct {
	cfg    *JiraConfig
	client *promotehttp.Client
}

// JiraOption configures the service.
type JiraOption func(*jiraOptions)

type jiraOptions struct {
	httpClient *http.Client
}

// WithJiraHTTPClient sets a custom underlying HTTP client.
func WithJiraHTTPClient(hc *http.Client) JiraOption {
	return func(o *jiraOptions) { o.httpClient = hc }
}

// NewJiraService creates a Jira-backed tracker service.
func NewJiraService(cfg *JiraConfig, opts ...JiraOption) (*JiraService, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var o jiraOptions
	for _, opt := range opts {
		opt(&o)
	}

	s := &JiraService{cfg: cfg}
	s.client = promotehttp.NewClient(promotehttp.ClientConfig{
		Client:        o.httpClient,
		BaseURL:       strings.TrimSuffix(cfg.URL, "/"),
		ServiceName:   "jira",
		BeforeRequest: s.setAuth,
	})
	return s, nil
}

// jiraIssue mirrors the fields requested from the search endpoint.
type jiraIssue struct {
	Key    string `json:"key"`
	Fields struct {
		Summary string `json:"summary"`
		Status  struct {
			Name string `json:"name"`
		} `json:"status"`
		Assignee struct {
			DisplayName string `json:"displayName"`
		} `json:"assignee"`
		Priority struct {
			Name string `json:"name"`
		} `json:"priority"`
		Labels []string `json:"labels"`
	} `json:"fields"`
}

type jiraSearchResponse struct {
	StartAt    int         `json:"startAt"`
	MaxResults int         `json:"maxResults"`
	Total      int         `json:"total"`
	Issues     []jiraIssue `json:"issues"`
}

// Lookup implements Service using one JQL search per key batch,
// paginated in case the batch exceeds the page size.
func (s *JiraService) Lookup(ctx context.Context, keys []string) (map[string]Ticket, error) {
	if len(keys) == 0 {
		return map[string]Ticket{}, nil
	}

	pageSize := s.cfg.MaxResults
	if pageSize <= 0 {
		pageSize = DefaultChunkSize
	}

	jql := fmt.Sprintf("key in (%s)", strings.Join(keys, ","))

	iter := promotehttp.NewPageIterator(func(ctx context.Context, page int) ([]jiraIssue, bool, error) {
		body := map[string]any{
			"jql":           jql,
			"startAt":       page * pageSize,
			"maxResults":    pageSize,
			"validateQuery": false,
			"fields":        []string{"summary", "status", "assignee", "priority", "labels"},
		}
		var resp jiraSearchResponse
		if err := s.client.Post(ctx, "/rest/api/2/search", body, &resp); err != nil {
			return nil, false, err
		}
		hasMore := resp.StartAt+len(resp.Issues) < resp.Total
		return resp.Issues, hasMore, nil
	})

	issues, err := iter.All(ctx)
	if err != nil {
		return nil, err
	}

	tickets := make(map[string]Ticket, len(issues))
	for _, issue := range issues {
		tickets[issue.Key] = Ticket{
			Key:      issue.Key,
			Summary:  issue.Fields.Summary,
			Status:   issue.Fields.Status.Name,
			Assignee: issue.Fields.Assignee.DisplayName,
			Priority: issue.Fields.Priority.Name,
			Labels:   issue.Fields.Labels,
		}
	}
	return tickets, nil
}

// setAuth sets the Authorization header for the configured auth type.
func (s *JiraService) setAuth(req *http.Request) error {
	auth := s.cfg.Auth
	switch auth.Type {
	case JiraAuthAPIToken:
		req.Header.Set("Authorization", "Basic "+basicCredentials(auth.Email, auth.Token))
	case JiraAuthBasic:
		req.Header.Set("Authorization", "Basic "+basicCredentials(auth.Username, auth.Password))
	case JiraAuthPAT:
		req.Header.Set("Authorization", "Bearer "+auth.Token)
	case JiraAuthConnect:
		token, err := signConnectJWT(auth.Issuer, auth.SharedSecret, req)
		if err != nil {
			return fmt.Errorf("sign connect jwt: %w", err)
		}
		req.Header.Set("Authorization", "JWT "+token)
	}
	return nil
}

func basicCredentials(user, secret string) string {
	return base64.StdEncoding.EncodeToString([]byte(user + ":" + secret))
}
