package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/sakif/test-case-generator/internal/apperror"
	"github.com/sakif/test-case-generator/internal/model"
)

func newAuthService(p *fakeProvider, st *fakeStates, gw *fakeGateway, ss *fakeSessions) *AuthService {
	return NewAuthService(p, st, gw, ss, time.Hour, testLogger())
}

func TestBeginLogin_EmbedsState(t *testing.T) {
	svc := newAuthService(&fakeProvider{}, &fakeStates{}, &fakeGateway{}, newFakeSessions())

	url, err := svc.BeginLogin()
	if err != nil {
		t.Fatalf("BeginLogin() error = %v", err)
	}
	if !strings.HasSuffix(url, "state=state-123") {
		t.Errorf("url = %q, want it to carry the issued state", url)
	}
}

func TestBeginLogin_IssueFails(t *testing.T) {
	svc := newAuthService(&fakeProvider{}, &fakeStates{issueErr: errors.New("no entropy")}, &fakeGateway{}, newFakeSessions())

	if _, err := svc.BeginLogin(); err == nil {
		t.Fatal("expected error when state cannot be issued")
	}
}

func TestCompleteLogin_Success(t *testing.T) {
	provider := &fakeProvider{token: "gho_abc"}
	gw := &fakeGateway{user: &model.User{ID: 7, Login: "octocat"}}
	sessions := newFakeSessions()
	svc := newAuthService(provider, &fakeStates{}, gw, sessions)

	sess, err := svc.CompleteLogin(context.Background(), "code-1", "state-123")
	if err != nil {
		t.Fatalf("CompleteLogin() error = %v", err)
	}

	if provider.gotCode != "code-1" {
		t.Errorf("exchanged code = %q, want %q", provider.gotCode, "code-1")
	}
	if gw.gotToken != "gho_abc" {
		t.Errorf("user fetched with token %q, want %q", gw.gotToken, "gho_abc")
	}
	if sess.Login != "octocat" || sess.AccessToken != "gho_abc" {
		t.Errorf("session = %+v", sess)
	}
	if sess.ID == "" {
		t.Fatal("session id is empty")
	}
	if !sess.ExpiresAt.After(sess.CreatedAt) {
		t.Errorf("ExpiresAt %v is not after CreatedAt %v", sess.ExpiresAt, sess.CreatedAt)
	}

	stored, err := sessions.Get(context.Background(), sess.ID)
	if err != nil {
		t.Fatalf("session was not stored: %v", err)
	}
	if stored.AccessToken != "gho_abc" {
		t.Errorf("stored token = %q", stored.AccessToken)
	}
}

func TestCompleteLogin_DistinctSessionsPerLogin(t *testing.T) {
	gw := &fakeGateway{user: &model.User{Login: "octocat"}}
	sessions := newFakeSessions()
	svc := newAuthService(&fakeProvider{token: "t"}, &fakeStates{}, gw, sessions)

	a, err := svc.CompleteLogin(context.Background(), "c1", "s")
	if err != nil {
		t.Fatal(err)
	}
	b, err := svc.CompleteLogin(context.Background(), "c2", "s")
	if err != nil {
		t.Fatal(err)
	}
	if a.ID == b.ID {
		t.Errorf("two logins produced the same session id %q", a.ID)
	}
	if len(sessions.sessions) != 2 {
		t.Errorf("stored sessions = %d, want 2", len(sessions.sessions))
	}
}

func TestCompleteLogin_Failures(t *testing.T) {
	tests := []struct {
		name     string
		provider *fakeProvider
		states   *fakeStates
		gateway  *fakeGateway
		sessions *fakeSessions
	}{
		{
			name:     "bad state",
			provider: &fakeProvider{token: "t"},
			states:   &fakeStates{verifyErr: apperror.Unauthorized("invalid state")},
			gateway:  &fakeGateway{user: &model.User{Login: "u"}},
			sessions: newFakeSessions(),
		},
		{
			name:     "exchange rejected",
			provider: &fakeProvider{exchangeErr: apperror.Unauthorized("bad code")},
			states:   &fakeStates{},
			gateway:  &fakeGateway{user: &model.User{Login: "u"}},
			sessions: newFakeSessions(),
		},
		{
			name:     "user lookup fails",
			provider: &fakeProvider{token: "t"},
			states:   &fakeStates{},
			gateway:  &fakeGateway{userErr: apperror.Upstream("Failed to fetch user", nil)},
			sessions: newFakeSessions(),
		},
		{
			name:     "store fails",
			provider: &fakeProvider{token: "t"},
			states:   &fakeStates{},
			gateway:  &fakeGateway{user: &model.User{Login: "u"}},
			sessions: &fakeSessions{sessions: map[string]model.Session{}, putErr: errors.New("disk full")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newAuthService(tt.provider, tt.states, tt.gateway, tt.sessions)

			sess, err := svc.CompleteLogin(context.Background(), "code", "state")
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if sess != nil {
				t.Errorf("session = %+v, want nil", sess)
			}
			if len(tt.sessions.sessions) != 0 {
				t.Errorf("a session was stored despite the failure")
			}
		})
	}
}

func TestCompleteLogin_BadStateSkipsExchange(t *testing.T) {
	provider := &fakeProvider{token: "t"}
	svc := newAuthService(provider, &fakeStates{verifyErr: errors.New("replayed")}, &fakeGateway{}, newFakeSessions())

	_, _ = svc.CompleteLogin(context.Background(), "code", "state")

	if provider.gotCode != "" {
		t.Errorf("code was exchanged despite invalid state")
	}
}

func TestLogout(t *testing.T) {
	sessions := newFakeSessions()
	sessions.sessions["abc"] = model.Session{ID: "abc"}
	svc := newAuthService(&fakeProvider{}, &fakeStates{}, &fakeGateway{}, sessions)

	if err := svc.Logout(context.Background(), "abc"); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}
	if _, ok := sessions.sessions["abc"]; ok {
		t.Error("session still present after logout")
	}

	sessions.removeErr = errors.New("db gone")
	if err := svc.Logout(context.Background(), "abc"); err == nil {
		t.Error("expected store error to propagate")
	}
}
