package issues

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/google/go-github/v66/github"
)

// Environment variables read by the issue filer
const (
	TokenEnv      = "LOG_TOKEN"
	RepositoryEnv = "GITHUB_REPOSITORY"
)

var (
	ErrMissingEnv        = errors.New("LOG_TOKEN and GITHUB_REPOSITORY must be set")
	ErrInvalidRepository = errors.New("repository must be in owner/repo form")
)

// Env holds the credentials and target repository for filing issues
type Env struct {
	Token      string
	Repository string
}

// EnvFromOS reads the filer environment. ErrMissingEnv is returned when either variable is empty.
func EnvFromOS() (Env, error) {
	env := Env{
		Token:      os.Getenv(TokenEnv),
		Repository: os.Getenv(RepositoryEnv),
	}
	if env.Token == "" || env.Repository == "" {
		return env, ErrMissingEnv
	}
	return env, nil
}

// IssueCreator opens an issue and returns its URL
type IssueCreator interface {
	CreateIssue(ctx context.Context, title, body string, labels []string) (string, error)
}

// GitHubTracker files issues in one GitHub repository
type GitHubTracker struct {
	client *github.Client
	owner  string
	repo   string
}

// NewGitHubTracker creates a tracker authenticated with token for an owner/repo repository
func NewGitHubTracker(token, repository string) (*GitHubTracker, error) {
	return NewGitHubTrackerWithClient(github.NewClient(nil).WithAuthToken(token), repository)
}

// NewGitHubTrackerWithClient creates a tracker over an existing client
func NewGitHubTrackerWithClient(client *github.Client, repository string) (*GitHubTracker, error) {
	owner, repo, ok := strings.Cut(repository, "/")
	if !ok || owner == "" || repo == "" || strings.Contains(repo, "/") {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRepository, repository)
	}
	return &GitHubTracker{client: client, owner: owner, repo: repo}, nil
}

// CreateIssue opens an issue and returns its HTML URL
func (t *GitHubTracker) CreateIssue(ctx context.Context, title, body string, labels []string) (string, error) {
	req := &github.IssueRequest{
		Title: github.String(title),
		Body:  github.String(body),
	}
	if len(labels) > 0 {
		req.Labels = &labels
	}

	issue, _, err := t.client.Issues.Create(ctx, t.owner, t.repo, req)
	if err != nil {
		return "", fmt.Errorf("failed to create issue in %s/%s: %w", t.owner, t.repo, err)
	}
	return issue.GetHTMLURL(), nil
}
