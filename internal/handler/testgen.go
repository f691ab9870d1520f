package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/sakif/test-case-generator/internal/model"
	"github.com/sakif/test-case-generator/internal/service"
)

// TestGenHandler serves the three generation endpoints. Each one decodes
// a JSON body, calls TestGenService and wraps the result in the response
// shape the frontend expects.
type TestGenHandler struct {
	svc    *service.TestGenService
	logger *slog.Logger
}

func NewTestGenHandler(svc *service.TestGenService, logger *slog.Logger) *TestGenHandler {
	return &TestGenHandler{svc: svc, logger: logger}
}

// HandleGenerateSummaries summarises every submitted file.
//
// HTTP: POST /api/generate-test-summaries
// Body: {"files": [{"name": "...", "content": "...", "path": "..."}]}
func (h *TestGenHandler) HandleGenerateSummaries(w http.ResponseWriter, r *http.Request) {
	var req model.GenerateSummariesRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	serve(w, r, h.logger, func(ctx context.Context, _ *model.Session) (any, error) {
		summaries, err := h.svc.GenerateSummaries(ctx, req.Files)
		if err != nil {
			return nil, err
		}
		return model.GenerateSummariesResponse{TestSummaries: summaries}, nil
	})
}

// HandleGenerateTestCode produces test code for one summary.
//
// HTTP: POST /api/generate-test-code
// Body: {"fileName", "language", "summary", "originalCode"}
func (h *TestGenHandler) HandleGenerateTestCode(w http.ResponseWriter, r *http.Request) {
	var req model.GenerateTestRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	serve(w, r, h.logger, func(ctx context.Context, _ *model.Session) (any, error) {
		return h.svc.GenerateTest(ctx, req)
	})
}

// HandleCreatePullRequest commits generated tests and opens a pull request.
//
// HTTP: POST /api/create-pull-request
// Body: {"owner", "repo", "testCode", "fileName", "branch"?, "baseBranch"?}
func (h *TestGenHandler) HandleCreatePullRequest(w http.ResponseWriter, r *http.Request) {
	var req model.CreatePullRequestRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	serve(w, r, h.logger, func(ctx context.Context, s *model.Session) (any, error) {
		pr, err := h.svc.CreatePullRequest(ctx, s, req)
		if err != nil {
			return nil, err
		}
		h.logger.InfoContext(ctx, "pull request created",
			slog.String("repo", req.Owner+"/"+req.Repo),
			slog.Int("number", pr.Number),
		)
		return model.CreatePullRequestResponse{PullRequest: *pr}, nil
	})
}
