// Package apiclient is a typed Go client for the test-case-generator HTTP API.
//
// It is the transport used by the wizard package: every endpoint of the
// server has one method here, sending the session id as a bearer token.
// Failures the server reports as {"error","message"} come back as *Error.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sakif/test-case-generator/internal/model"
)

// DefaultTimeout bounds a single request. Summary generation for many
// files is slow, so it is generous.
const DefaultTimeout = 5 * time.Minute

// Error is a non-2xx response from the server.
type Error struct {
	Status  int    // HTTP status code
	Code    string // machine-readable, e.g. "validation_error"
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("apiclient: %d %s", e.Status, e.Code)
	}
	return fmt.Sprintf("apiclient: %d %s: %s", e.Status, e.Code, e.Message)
}

// IsStatus reports whether err is an *Error with the given HTTP status.
func IsStatus(err error, status int) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Status == status
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	session    string
}

type Option func(*Client)

// WithHTTPClient replaces the default client, e.g. httptest.Server.Client().
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.httpClient = c }
}

// WithSession sets the session id sent on protected endpoints.
func WithSession(id string) Option {
	return func(cl *Client) { cl.session = id }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetSession replaces the session id, e.g. after the OAuth redirect.
func (c *Client) SetSession(id string) { c.session = id }

// Session returns the current session id, "" if none.
func (c *Client) Session() string { return c.session }

func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/healthz", nil, nil)
}

// AuthURL returns the GitHub authorization URL to open in a browser.
func (c *Client) AuthURL(ctx context.Context) (string, error) {
	var res model.AuthURLResponse
	if err := c.do(ctx, http.MethodGet, "/auth/github", nil, &res); err != nil {
		return "", err
	}
	return res.AuthURL, nil
}

// Logout ends the session on the server and forgets it locally.
func (c *Client) Logout(ctx context.Context) error {
	if err := c.do(ctx, http.MethodPost, "/auth/logout", nil, nil); err != nil {
		return err
	}
	c.session = ""
	return nil
}

func (c *Client) User(ctx context.Context) (*model.User, error) {
	var u model.User
	if err := c.do(ctx, http.MethodGet, "/api/user", nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) Repositories(ctx context.Context) ([]model.Repository, error) {
	var repos []model.Repository
	if err := c.do(ctx, http.MethodGet, "/api/repositories", nil, &repos); err != nil {
		return nil, err
	}
	return repos, nil
}

// Contents lists a directory; path "" is the repository root.
func (c *Client) Contents(ctx context.Context, owner, repo, path string) ([]model.FileEntry, error) {
	var entries []model.FileEntry
	if err := c.do(ctx, http.MethodGet, repoPath(owner, repo, "contents", path), nil, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// File reads one file including its content.
func (c *Client) File(ctx context.Context, owner, repo, path string) (*model.FileEntry, error) {
	var f model.FileEntry
	if err := c.do(ctx, http.MethodGet, repoPath(owner, repo, "file", path), nil, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

func (c *Client) GenerateSummaries(ctx context.Context, files []model.SourceFile) ([]model.TestSummary, error) {
	var res model.GenerateSummariesResponse
	body := model.GenerateSummariesRequest{Files: files}
	if err := c.do(ctx, http.MethodPost, "/api/generate-test-summaries", body, &res); err != nil {
		return nil, err
	}
	return res.TestSummaries, nil
}

func (c *Client) GenerateTest(ctx context.Context, req model.GenerateTestRequest) (*model.GeneratedTest, error) {
	var res model.GeneratedTest
	if err := c.do(ctx, http.MethodPost, "/api/generate-test-code", req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) CreatePullRequest(ctx context.Context, req model.CreatePullRequestRequest) (*model.PullRequest, error) {
	var res model.CreatePullRequestResponse
	if err := c.do(ctx, http.MethodPost, "/api/create-pull-request", req, &res); err != nil {
		return nil, err
	}
	return &res.PullRequest, nil
}

func repoPath(owner, repo, kind, path string) string {
	p := "/api/repository/" + url.PathEscape(owner) + "/" + url.PathEscape(repo) + "/" + kind
	if path != "" {
		p += "?" + url.Values{"path": {path}}.Encode()
	}
	return p
}

// do sends one request. in (if non-nil) is encoded as the JSON body; a 2xx
// response body is decoded into out (if non-nil).
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("apiclient: encoding request: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("apiclient: building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.session != "" {
		req.Header.Set("Authorization", "Bearer "+c.session)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("apiclient: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("apiclient: decoding %s response: %w", path, err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	apiErr := &Error{Status: resp.StatusCode}
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	// A body that is not our JSON shape (a proxy error page, say) still
	// yields an *Error with the status.
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&payload); err == nil {
		apiErr.Code = payload.Error
		apiErr.Message = payload.Message
	}
	if apiErr.Code == "" {
		apiErr.Code = strings.ToLower(strings.ReplaceAll(http.StatusText(resp.StatusCode), " ", "_"))
	}
	return apiErr
}
