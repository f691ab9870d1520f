package auth

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func newFakeGitHubOAuth(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/login/oauth/access_token", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "the-code", r.Form.Get("code"))

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func endpointFor(srv *httptest.Server) oauth2.Endpoint {
	return oauth2.Endpoint{
		AuthURL:   srv.URL + "/login/oauth/authorize",
		TokenURL:  srv.URL + "/login/oauth/access_token",
		AuthStyle: oauth2.AuthStyleInParams,
	}
}

func TestAuthURL(t *testing.T) {
	p := NewGitHubProvider("my-client", "secret", "http://localhost:3001/auth/github/callback")

	raw := p.AuthURL("the-state")

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "github.com", u.Host)
	assert.Equal(t, "my-client", u.Query().Get("client_id"))
	assert.Equal(t, "repo", u.Query().Get("scope"))
	assert.Equal(t, "the-state", u.Query().Get("state"))
	assert.Equal(t, "http://localhost:3001/auth/github/callback", u.Query().Get("redirect_uri"))
}

func TestExchange(t *testing.T) {
	srv := newFakeGitHubOAuth(t, `{"access_token":"gho_abc","token_type":"bearer","scope":"repo"}`)
	p := NewGitHubProvider("id", "secret", "http://cb", WithEndpoint(endpointFor(srv)))

	tok, err := p.Exchange(context.Background(), "the-code")

	require.NoError(t, err)
	assert.Equal(t, "gho_abc", tok.AccessToken)
}

func TestExchange_ProviderError(t *testing.T) {
	srv := newFakeGitHubOAuth(t, `{"error":"bad_verification_code","error_description":"The code passed is incorrect or expired."}`)
	p := NewGitHubProvider("id", "secret", "http://cb", WithEndpoint(endpointFor(srv)))

	_, err := p.Exchange(context.Background(), "the-code")

	assert.Error(t, err)
}

func TestExchange_MissingCode(t *testing.T) {
	p := NewGitHubProvider("id", "secret", "http://cb")

	_, err := p.Exchange(context.Background(), "")

	assert.Error(t, err)
}
