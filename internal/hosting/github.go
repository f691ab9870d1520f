package hosting

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/go-github/v72/github"

	"github.com/sakif/test-case-generator/internal/apperror"
	"github.com/sakif/test-case-generator/internal/model"
)

// compile-time check that *GitHubGateway implements Gateway
var _ Gateway = (*GitHubGateway)(nil)

// GitHubGateway implements Gateway on github.com/google/go-github.
type GitHubGateway struct {
	httpClient *http.Client
	baseURL    *url.URL // nil means api.github.com
	logger     *slog.Logger
}

// NewGitHubGateway creates a gateway. apiURL is optional and points at a
// GitHub Enterprise API root or a test server.
func NewGitHubGateway(apiURL string, httpClient *http.Client, logger *slog.Logger) (*GitHubGateway, error) {
	g := &GitHubGateway{httpClient: httpClient, logger: logger}
	if apiURL != "" {
		if !strings.HasSuffix(apiURL, "/") {
			apiURL += "/"
		}
		u, err := url.Parse(apiURL)
		if err != nil {
			return nil, fmt.Errorf("hosting: parsing API URL: %w", err)
		}
		g.baseURL = u
	}
	return g, nil
}

// client returns a go-github client authenticated as the session's user.
// Clients are cheap; building one per call keeps tokens from leaking
// between users.
func (g *GitHubGateway) client(token string) *github.Client {
	c := github.NewClient(g.httpClient).WithAuthToken(token)
	if g.baseURL != nil {
		c.BaseURL = g.baseURL
	}
	return c
}

func (g *GitHubGateway) GetUser(ctx context.Context, token string) (*model.User, error) {
	u, _, err := g.client(token).Users.Get(ctx, "")
	if err != nil {
		return nil, apperror.Upstream("Failed to fetch user", err)
	}
	return toUser(u), nil
}

func (g *GitHubGateway) ListRepositories(ctx context.Context, token string) ([]model.Repository, error) {
	opts := &github.RepositoryListByAuthenticatedUserOptions{
		Sort:        "updated",
		Direction:   "desc",
		ListOptions: github.ListOptions{PerPage: 100},
	}
	repos, _, err := g.client(token).Repositories.ListByAuthenticatedUser(ctx, opts)
	if err != nil {
		return nil, apperror.Upstream("Failed to fetch repositories", err)
	}

	out := make([]model.Repository, 0, len(repos))
	for _, r := range repos {
		out = append(out, toRepository(r))
	}
	return out, nil
}

func (g *GitHubGateway) ListContents(ctx context.Context, token, owner, repo, path string) ([]model.FileEntry, error) {
	file, dir, _, err := g.client(token).Repositories.GetContents(ctx, owner, repo, path, nil)
	if err != nil {
		return nil, contentsError(err, "Failed to fetch repository contents", path)
	}

	if file != nil {
		e, ok := toFileEntry(file)
		if !ok {
			return []model.FileEntry{}, nil
		}
		return []model.FileEntry{e}, nil
	}

	out := make([]model.FileEntry, 0, len(dir))
	for _, c := range dir {
		e, ok := toFileEntry(c)
		if !ok {
			g.logger.DebugContext(ctx, "dropping unsupported directory entry",
				slog.String("path", c.GetPath()),
				slog.String("type", c.GetType()),
			)
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (g *GitHubGateway) ReadFile(ctx context.Context, token, owner, repo, path string) (*model.FileEntry, error) {
	file, _, _, err := g.client(token).Repositories.GetContents(ctx, owner, repo, path, nil)
	if err != nil {
		return nil, contentsError(err, "Failed to read file", path)
	}
	if file == nil {
		return nil, apperror.ValidationFailed("path", "path is a directory")
	}

	e, ok := toFileEntry(file)
	if !ok || e.IsDir() {
		return nil, apperror.ValidationFailed("path", "path is not a file")
	}

	content, err := file.GetContent()
	if err != nil {
		return nil, apperror.Upstream("Failed to read file", err)
	}
	e.Content = content
	return &e, nil
}

// contentsError maps a GetContents failure. Missing paths are NotFound so
// the client can tell a typo from an outage.
func contentsError(err error, message, path string) error {
	if errors.Is(err, github.ErrPathForbidden) {
		return apperror.ValidationFailed("path", "path must not contain '..'")
	}
	if statusOf(err) == http.StatusNotFound {
		return apperror.NotFound("path", path)
	}
	return apperror.Upstream(message, err)
}

// statusOf extracts the HTTP status from a go-github error, or 0.
func statusOf(err error) int {
	var er *github.ErrorResponse
	if errors.As(err, &er) && er.Response != nil {
		return er.Response.StatusCode
	}
	var rl *github.RateLimitError
	if errors.As(err, &rl) && rl.Response != nil {
		return rl.Response.StatusCode
	}
	return 0
}
