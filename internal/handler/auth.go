package handler

import (
	"log/slog"
	"net/http"
	"net/url"

	"github.com/sakif/test-case-generator/internal/auth"
	"github.com/sakif/test-case-generator/internal/model"
	"github.com/sakif/test-case-generator/internal/service"
)

// AuthHandler manages the GitHub OAuth login flow and sessions.
//
// HANDLER RESPONSIBILITIES:
//   - HandleGitHubLogin    → return the GitHub authorization URL as JSON
//   - HandleGitHubCallback → finish the OAuth dance, redirect to the frontend
//   - HandleLogout         → forget the caller's session
//
// WHY RETURN THE URL INSTEAD OF REDIRECTING?
// The frontend runs on another origin and calls us with fetch(). It reads
// {authUrl} and navigates itself, so no cookies have to cross origins.
type AuthHandler struct {
	auth        *service.AuthService
	frontendURL string
	logger      *slog.Logger
}

func NewAuthHandler(auth *service.AuthService, frontendURL string, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		auth:        auth,
		frontendURL: frontendURL,
		logger:      logger,
	}
}

// HandleGitHubLogin returns the URL the browser should visit to log in.
//
// HTTP: GET /auth/github
func (h *AuthHandler) HandleGitHubLogin(w http.ResponseWriter, r *http.Request) {
	authURL, err := h.auth.BeginLogin()
	if err != nil {
		h.logger.ErrorContext(r.Context(), "auth: begin login failed", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, model.AuthURLResponse{AuthURL: authURL})
}

// HandleGitHubCallback completes the OAuth login flow.
//
// HTTP: GET /auth/github/callback?code=xxx&state=yyy
//
// Every outcome is a redirect to the frontend, never a JSON body: this URL
// is opened by the browser itself, not by fetch().
//
//	success → <FRONTEND_URL>/dashboard?session=<id>
//	failure → <FRONTEND_URL>/?error=auth_failed
func (h *AuthHandler) HandleGitHubCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	// GitHub sends ?error=access_denied when the user declines.
	if errParam := q.Get("error"); errParam != "" {
		h.logger.InfoContext(r.Context(), "auth callback: authorization denied", slog.String("error", errParam))
		h.redirectFailure(w, r)
		return
	}

	sess, err := h.auth.CompleteLogin(r.Context(), q.Get("code"), q.Get("state"))
	if err != nil {
		h.logger.WarnContext(r.Context(), "auth callback: login failed", slog.String("error", err.Error()))
		h.redirectFailure(w, r)
		return
	}

	target := h.frontendURL + "/dashboard?session=" + url.QueryEscape(sess.ID)
	http.Redirect(w, r, target, http.StatusFound)
}

func (h *AuthHandler) redirectFailure(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, h.frontendURL+"/?error=auth_failed", http.StatusFound)
}

// HandleLogout removes the caller's session.
//
// HTTP: POST /auth/logout
// Auth: Required
//
// The bearer id stops working immediately. The GitHub token itself is not
// revoked; it simply is no longer reachable through this server.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	sess, ok := auth.SessionFromContext(r.Context())
	if !ok {
		writeError(w, errNoSession)
		return
	}
	if err := h.auth.Logout(r.Context(), sess.ID); err != nil {
		h.logger.ErrorContext(r.Context(), "auth: logout failed", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
