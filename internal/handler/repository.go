package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/test-case-generator/internal/apperror"
	"github.com/sakif/test-case-generator/internal/auth"
	"github.com/sakif/test-case-generator/internal/model"
	"github.com/sakif/test-case-generator/internal/service"
)

// errNoSession is returned when a protected handler runs without
// RequireSession in front of it.
var errNoSession = apperror.Unauthorized("session required")

// RepositoryHandler serves the read-only browsing endpoints: the user, their
// repositories, directory listings and single files.
type RepositoryHandler struct {
	browse *service.BrowseService
	logger *slog.Logger
}

func NewRepositoryHandler(browse *service.BrowseService, logger *slog.Logger) *RepositoryHandler {
	return &RepositoryHandler{browse: browse, logger: logger}
}

// HandleUser returns the authenticated GitHub user.
//
// HTTP: GET /api/user
func (h *RepositoryHandler) HandleUser(w http.ResponseWriter, r *http.Request) {
	serve(w, r, h.logger, func(ctx context.Context, s *model.Session) (any, error) {
		return h.browse.User(ctx, s)
	})
}

// HandleRepositories returns up to 100 repositories, most recently updated first.
//
// HTTP: GET /api/repositories
func (h *RepositoryHandler) HandleRepositories(w http.ResponseWriter, r *http.Request) {
	serve(w, r, h.logger, func(ctx context.Context, s *model.Session) (any, error) {
		return h.browse.Repositories(ctx, s)
	})
}

// HandleContents lists one directory of a repository.
//
// HTTP: GET /api/repository/{owner}/{repo}/contents?path=src
func (h *RepositoryHandler) HandleContents(w http.ResponseWriter, r *http.Request) {
	owner, repo := chi.URLParam(r, "owner"), chi.URLParam(r, "repo")
	path := r.URL.Query().Get("path")
	serve(w, r, h.logger, func(ctx context.Context, s *model.Session) (any, error) {
		return h.browse.Contents(ctx, s, owner, repo, path)
	})
}

// HandleFile returns one file with its decoded content.
//
// HTTP: GET /api/repository/{owner}/{repo}/file?path=src/app.py
func (h *RepositoryHandler) HandleFile(w http.ResponseWriter, r *http.Request) {
	owner, repo := chi.URLParam(r, "owner"), chi.URLParam(r, "repo")
	path := r.URL.Query().Get("path")
	serve(w, r, h.logger, func(ctx context.Context, s *model.Session) (any, error) {
		return h.browse.File(ctx, s, owner, repo, path)
	})
}

// serve runs fn with the request's session and writes its result as 200
// JSON, or the mapped error.
func serve(w http.ResponseWriter, r *http.Request, logger *slog.Logger, fn func(context.Context, *model.Session) (any, error)) {
	sess, ok := auth.SessionFromContext(r.Context())
	if !ok {
		writeError(w, errNoSession)
		return
	}
	out, err := fn(r.Context(), sess)
	if err != nil {
		logFailure(r, logger, err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// logFailure logs server-side failures. Client mistakes (4xx) are not
// worth an error line.
func logFailure(r *http.Request, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, apperror.ErrValidation),
		errors.Is(err, apperror.ErrUnauthorized),
		errors.Is(err, apperror.ErrNotFound),
		errors.Is(err, apperror.ErrConflict):
		return
	}
	logger.ErrorContext(r.Context(), "request failed",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()),
	)
}
