package service

import (
	"context"
	"strings"

	"github.com/sakif/test-case-generator/internal/apperror"
	"github.com/sakif/test-case-generator/internal/hosting"
	"github.com/sakif/test-case-generator/internal/model"
)

// BrowseService exposes read-only views of the user's hosting account.
// Results are fetched fresh on every call and never cached.
type BrowseService struct {
	gateway hosting.Gateway
}

func NewBrowseService(gateway hosting.Gateway) *BrowseService {
	return &BrowseService{gateway: gateway}
}

func (s *BrowseService) User(ctx context.Context, sess *model.Session) (*model.User, error) {
	return s.gateway.GetUser(ctx, sess.AccessToken)
}

func (s *BrowseService) Repositories(ctx context.Context, sess *model.Session) ([]model.Repository, error) {
	return s.gateway.ListRepositories(ctx, sess.AccessToken)
}

// Contents lists a directory. An empty path is the repository root.
func (s *BrowseService) Contents(ctx context.Context, sess *model.Session, owner, repo, path string) ([]model.FileEntry, error) {
	if err := validateRepo(owner, repo); err != nil {
		return nil, err
	}
	return s.gateway.ListContents(ctx, sess.AccessToken, owner, repo, strings.Trim(path, "/"))
}

// File reads a single file with its decoded content.
func (s *BrowseService) File(ctx context.Context, sess *model.Session, owner, repo, path string) (*model.FileEntry, error) {
	if err := validateRepo(owner, repo); err != nil {
		return nil, err
	}
	path = strings.Trim(path, "/")
	if path == "" {
		return nil, apperror.ValidationFailed("path", "path is required")
	}
	return s.gateway.ReadFile(ctx, sess.AccessToken, owner, repo, path)
}

func validateRepo(owner, repo string) error {
	if err := requireField("owner", owner); err != nil {
		return err
	}
	return requireField("repo", repo)
}
