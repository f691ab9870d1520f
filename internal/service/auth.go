package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/oauth2"

	"github.com/sakif/test-case-generator/internal/hosting"
	"github.com/sakif/test-case-generator/internal/model"
	"github.com/sakif/test-case-generator/internal/session"
)

// OAuthProvider is the part of auth.GitHubProvider the service needs.
type OAuthProvider interface {
	AuthURL(state string) string
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
}

// StateIssuer is the part of auth.StateSigner the service needs.
type StateIssuer interface {
	Issue() (string, error)
	Verify(state string) error
}

// AuthService orchestrates login and logout.
//
//	AuthHandler (HTTP) → AuthService → OAuthProvider (code exchange)
//	                                 ↘ hosting.Gateway (who logged in?)
//	                                 ↘ session.Store (remember the token)
type AuthService struct {
	provider OAuthProvider
	states   StateIssuer
	gateway  hosting.Gateway
	sessions session.Store
	ttl      time.Duration
	logger   *slog.Logger
}

func NewAuthService(
	provider OAuthProvider,
	states StateIssuer,
	gateway hosting.Gateway,
	sessions session.Store,
	ttl time.Duration,
	logger *slog.Logger,
) *AuthService {
	if ttl <= 0 {
		ttl = session.DefaultTTL
	}
	return &AuthService{
		provider: provider,
		states:   states,
		gateway:  gateway,
		sessions: sessions,
		ttl:      ttl,
		logger:   logger,
	}
}

// BeginLogin returns the provider authorization URL carrying a fresh state.
func (s *AuthService) BeginLogin() (string, error) {
	state, err := s.states.Issue()
	if err != nil {
		return "", fmt.Errorf("service/auth: issuing state: %w", err)
	}
	return s.provider.AuthURL(state), nil
}

// CompleteLogin handles the OAuth callback:
//
//  1. verify the state we issued in BeginLogin
//  2. exchange the code for an access token
//  3. fetch the user, so the session knows whose token it holds
//  4. store a new session under a random id
//
// WHAT THIS METHOD DOES NOT DO:
// It does not redirect. Every error here becomes the same
// "?error=auth_failed" redirect in the handler, which is an HTTP concern.
func (s *AuthService) CompleteLogin(ctx context.Context, code, state string) (*model.Session, error) {
	if err := s.states.Verify(state); err != nil {
		return nil, fmt.Errorf("service/auth: %w", err)
	}

	token, err := s.provider.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("service/auth: %w", err)
	}

	user, err := s.gateway.GetUser(ctx, token.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("service/auth: fetching user after login: %w", err)
	}

	sess := session.New(token.AccessToken, user.Login, s.ttl)
	if err := s.sessions.Put(ctx, sess); err != nil {
		return nil, fmt.Errorf("service/auth: storing session: %w", err)
	}

	s.logger.InfoContext(ctx, "user logged in",
		slog.String("login", user.Login),
		slog.Time("expiresAt", sess.ExpiresAt),
	)
	return &sess, nil
}

// Logout removes the session. Unknown ids are not an error.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if err := s.sessions.Remove(ctx, sessionID); err != nil {
		return fmt.Errorf("service/auth: removing session: %w", err)
	}
	return nil
}
