package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/sakif/test-case-generator/internal/apperror"
	"github.com/sakif/test-case-generator/internal/hosting"
	"github.com/sakif/test-case-generator/internal/model"
	"github.com/sakif/test-case-generator/internal/prompt"
	"github.com/sakif/test-case-generator/internal/textgen"
)

// TestGenService turns source files into test summaries, summaries into
// test code, and test code into a pull request.
type TestGenService struct {
	generator   textgen.Generator
	gateway     hosting.Gateway
	concurrency int
	logger      *slog.Logger
}

// NewTestGenService creates the service. concurrency caps how many
// text-generation calls one summary request makes at once; 1 means strictly
// one after another.
func NewTestGenService(generator textgen.Generator, gateway hosting.Gateway, concurrency int, logger *slog.Logger) *TestGenService {
	if concurrency < 1 {
		concurrency = 1
	}
	return &TestGenService{
		generator:   generator,
		gateway:     gateway,
		concurrency: concurrency,
		logger:      logger,
	}
}

// GenerateSummaries produces one TestSummary per file.
//
// ORDERING:
// Results are written by index, so summaries[i] always describes files[i]
// no matter which call finishes first.
//
// ALL OR NOTHING:
// The first failure cancels the calls still running and the whole request
// fails. Summaries that did complete are discarded, never returned partially.
func (s *TestGenService) GenerateSummaries(ctx context.Context, files []model.SourceFile) ([]model.TestSummary, error) {
	if len(files) == 0 {
		return nil, apperror.ValidationFailed("files", "files must be a non-empty array")
	}
	for i, f := range files {
		if strings.TrimSpace(f.Name) == "" {
			return nil, apperror.ValidationFailed("files", fmt.Sprintf("files[%d].name is required", i))
		}
	}

	summaries := make([]model.TestSummary, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, f := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			lang := prompt.LanguageFromFileName(f.Name)
			res, err := s.generator.Generate(gctx, prompt.Summary(f.Name, lang, f.Content))
			if err != nil {
				return fmt.Errorf("summarising %s: %w", f.Name, err)
			}
			summaries[i] = model.TestSummary{
				FileName:    f.Name,
				Language:    lang,
				Summary:     res.Text,
				FilePath:    f.Path,
				Placeholder: res.Placeholder,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.logger.ErrorContext(ctx, "test summary generation failed",
			slog.Int("files", len(files)),
			slog.String("generator", s.generator.Name()),
			slog.String("error", err.Error()),
		)
		return nil, apperror.Upstream("Failed to generate test summaries", err)
	}

	s.logger.InfoContext(ctx, "test summaries generated", slog.Int("files", len(files)))
	return summaries, nil
}

// GenerateTest produces test code for one summarised file. The returned
// FileName is the test file name derived from the request's FileName and
// Language, which is how the client pairs it with its summary.
func (s *TestGenService) GenerateTest(ctx context.Context, req model.GenerateTestRequest) (*model.GeneratedTest, error) {
	if err := requireField("fileName", req.FileName); err != nil {
		return nil, err
	}
	lang := req.Language
	if strings.TrimSpace(lang) == "" {
		lang = prompt.LanguageFromFileName(req.FileName)
	}

	res, err := s.generator.Generate(ctx, prompt.TestCode(req.FileName, lang, req.Summary, req.OriginalCode))
	if err != nil {
		s.logger.ErrorContext(ctx, "test code generation failed",
			slog.String("fileName", req.FileName),
			slog.String("generator", s.generator.Name()),
			slog.String("error", err.Error()),
		)
		return nil, apperror.Upstream("Failed to generate test code", err)
	}

	return &model.GeneratedTest{
		TestCode:    res.Text,
		FileName:    prompt.TestFileName(req.FileName, lang),
		Language:    lang,
		Placeholder: res.Placeholder,
	}, nil
}

// CreatePullRequest validates the request and runs the hosting saga.
func (s *TestGenService) CreatePullRequest(ctx context.Context, sess *model.Session, req model.CreatePullRequestRequest) (*model.PullRequest, error) {
	if err := validateRepo(req.Owner, req.Repo); err != nil {
		return nil, err
	}
	if err := requireField("fileName", req.FileName); err != nil {
		return nil, err
	}
	if err := requireField("testCode", req.TestCode); err != nil {
		return nil, err
	}
	if strings.HasPrefix(req.FileName, "/") || strings.Contains(req.FileName, "..") {
		return nil, apperror.ValidationFailed("fileName", "fileName must be a relative path without '..'")
	}

	branch := req.Branch
	if branch == "" {
		branch = model.DefaultBranch
	}
	if !hosting.ValidBranchName(branch) {
		return nil, apperror.ValidationFailed("branch", "branch is not a valid branch name")
	}
	if req.BaseBranch != "" && !hosting.ValidBranchName(req.BaseBranch) {
		return nil, apperror.ValidationFailed("baseBranch", "baseBranch is not a valid branch name")
	}

	return s.gateway.CreatePullRequest(ctx, sess.AccessToken, hosting.PullRequestInput{
		Owner:      req.Owner,
		Repo:       req.Repo,
		Branch:     branch,
		BaseBranch: req.BaseBranch,
		FileName:   req.FileName,
		Content:    req.TestCode,
	})
}
