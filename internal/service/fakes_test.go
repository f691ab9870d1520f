package service

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"golang.org/x/oauth2"

	"github.com/sakif/test-case-generator/internal/apperror"
	"github.com/sakif/test-case-generator/internal/hosting"
	"github.com/sakif/test-case-generator/internal/model"
	"github.com/sakif/test-case-generator/internal/textgen"
)

// ============================================================================
// FAKES AND HELPERS
// ============================================================================
// Fakes implement the service dependencies in memory. Each has error
// injection fields so a test can make exactly one call fail.

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

type fakeProvider struct {
	exchangeErr error
	token       string
	gotCode     string
}

func (p *fakeProvider) AuthURL(state string) string {
	return "https://github.test/login/oauth/authorize?state=" + state
}

func (p *fakeProvider) Exchange(_ context.Context, code string) (*oauth2.Token, error) {
	p.gotCode = code
	if p.exchangeErr != nil {
		return nil, p.exchangeErr
	}
	return &oauth2.Token{AccessToken: p.token}, nil
}

type fakeStates struct {
	issueErr  error
	verifyErr error
}

func (s *fakeStates) Issue() (string, error) {
	if s.issueErr != nil {
		return "", s.issueErr
	}
	return "state-123", nil
}

func (s *fakeStates) Verify(string) error { return s.verifyErr }

type fakeSessions struct {
	mu        sync.Mutex
	sessions  map[string]model.Session
	putErr    error
	removeErr error
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{sessions: make(map[string]model.Session)}
}

func (f *fakeSessions) Put(_ context.Context, s model.Session) error {
	if f.putErr != nil {
		return f.putErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions[s.ID] = s
	return nil
}

func (f *fakeSessions) Get(_ context.Context, id string) (*model.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	if !ok {
		return nil, apperror.Unauthorized("session not found or expired")
	}
	return &s, nil
}

func (f *fakeSessions) Remove(_ context.Context, id string) error {
	if f.removeErr != nil {
		return f.removeErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.sessions, id)
	return nil
}

type fakeGateway struct {
	user     *model.User
	userErr  error
	entries  []model.FileEntry
	file     *model.FileEntry
	pr       *model.PullRequest
	prErr    error
	gotToken string
	gotPath  string
	gotPR    hosting.PullRequestInput
	prCalls  int
}

func (g *fakeGateway) GetUser(_ context.Context, token string) (*model.User, error) {
	g.gotToken = token
	if g.userErr != nil {
		return nil, g.userErr
	}
	return g.user, nil
}

func (g *fakeGateway) ListRepositories(_ context.Context, token string) ([]model.Repository, error) {
	g.gotToken = token
	return []model.Repository{{ID: 1, Name: "demo", FullName: "octo/demo"}}, nil
}

func (g *fakeGateway) ListContents(_ context.Context, token, _, _, path string) ([]model.FileEntry, error) {
	g.gotToken = token
	g.gotPath = path
	return g.entries, nil
}

func (g *fakeGateway) ReadFile(_ context.Context, token, _, _, path string) (*model.FileEntry, error) {
	g.gotToken = token
	g.gotPath = path
	return g.file, nil
}

func (g *fakeGateway) CreatePullRequest(_ context.Context, token string, in hosting.PullRequestInput) (*model.PullRequest, error) {
	g.gotToken = token
	g.gotPR = in
	g.prCalls++
	if g.prErr != nil {
		return nil, g.prErr
	}
	return g.pr, nil
}

// fakeGenerator answers with "<reply>:<file name from the prompt>" unless failOn matches
// a substring of the prompt. It records the peak number of concurrent calls.
type fakeGenerator struct {
	reply       string
	failOn      string
	placeholder bool
	block       chan struct{}

	calls    atomic.Int32
	inFlight atomic.Int32
	peak     atomic.Int32
	mu       sync.Mutex
	prompts  []string
}

var errGenerator = errors.New("generator exploded")

func (g *fakeGenerator) Name() string { return "fake" }

func (g *fakeGenerator) Generate(ctx context.Context, prompt string) (textgen.Result, error) {
	g.calls.Add(1)
	n := g.inFlight.Add(1)
	defer g.inFlight.Add(-1)
	for {
		p := g.peak.Load()
		if n <= p || g.peak.CompareAndSwap(p, n) {
			break
		}
	}

	g.mu.Lock()
	g.prompts = append(g.prompts, prompt)
	g.mu.Unlock()

	if g.block != nil {
		select {
		case <-g.block:
		case <-ctx.Done():
			return textgen.Result{}, ctx.Err()
		}
	}
	if g.failOn != "" && strings.Contains(prompt, g.failOn) {
		return textgen.Result{}, errGenerator
	}
	return textgen.Result{Text: g.reply + ":" + promptFile(prompt), Placeholder: g.placeholder}, nil
}

// promptFile extracts the "File: x" or "Original File: x" value.
func promptFile(prompt string) string {
	for _, line := range strings.Split(prompt, "\n") {
		if name, ok := strings.CutPrefix(line, "File: "); ok {
			return name
		}
		if name, ok := strings.CutPrefix(line, "Original File: "); ok {
			return name
		}
	}
	return ""
}
