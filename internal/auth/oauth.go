// Package auth handles the GitHub OAuth login flow and session-based
// request authentication.
//
// AUTHENTICATION FLOW OVERVIEW:
//  1. Client calls GET /auth/github and receives {authUrl}; the URL carries a
//     signed, single-use state parameter
//  2. User approves on GitHub; GitHub redirects to /auth/github/callback
//     with ?code=...&state=...
//  3. Server verifies the state, exchanges the code for an access token and
//     stores it in the session store under a fresh random session id
//  4. Server redirects the browser to <frontend>/dashboard?session=<id>
//  5. Every /api call carries "Authorization: Bearer <id>"; RequireSession
//     resolves it to the stored access token
//
// WHY SESSION IDS INSTEAD OF HANDING OUT THE ACCESS TOKEN?
// The GitHub token has "repo" scope: it can push to every repository the user
// can. It never leaves the server. The browser only holds an opaque id that
// is worthless once the session expires or is removed.
package auth

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
)

// GitHubProvider wraps golang.org/x/oauth2 for the GitHub Authorization Code flow.
//
// WHY SERVER-SIDE EXCHANGE?
// The code-for-token exchange happens server-to-server, using the ClientSecret.
// The access token never touches the client's browser.
type GitHubProvider struct {
	config *oauth2.Config
}

// ProviderOption customises a GitHubProvider.
type ProviderOption func(*oauth2.Config)

// WithEndpoint points the provider at a different authorization server,
// e.g. GitHub Enterprise or a test double.
func WithEndpoint(ep oauth2.Endpoint) ProviderOption {
	return func(c *oauth2.Config) { c.Endpoint = ep }
}

// NewGitHubProvider creates a GitHubProvider with the given credentials.
//
// callbackURL must match the "Authorization callback URL" configured for the
// OAuth App exactly. Example: "http://localhost:3001/auth/github/callback"
//
// Scope "repo" grants read/write access to public and private repositories,
// which we need to list contents and to push the generated test branch.
func NewGitHubProvider(clientID, clientSecret, callbackURL string, opts ...ProviderOption) *GitHubProvider {
	cfg := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  callbackURL,
		Scopes:       []string{"repo"},
		Endpoint:     github.Endpoint,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return &GitHubProvider{config: cfg}
}

// AuthURL returns the URL to send the user to for authorization.
func (p *GitHubProvider) AuthURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Exchange trades the authorization code for an access token. This makes a
// POST to GitHub's token endpoint using the ClientSecret.
func (p *GitHubProvider) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	if code == "" {
		return nil, errors.New("auth: missing authorization code")
	}

	token, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("auth: exchanging OAuth code: %w", err)
	}
	if token.AccessToken == "" {
		return nil, errors.New("auth: provider returned an empty access token")
	}
	return token, nil
}
