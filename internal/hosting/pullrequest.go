package hosting

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/go-github/v72/github"

	"github.com/sakif/test-case-generator/internal/apperror"
	"github.com/sakif/test-case-generator/internal/model"
)

const compensationTimeout = 10 * time.Second

// CreatePullRequest runs the pull request saga:
//
//  1. resolve the base branch (request, else repository default, else "main")
//  2. read the tip commit SHA of the base branch
//  3. create refs/heads/<branch> at that SHA; an existing branch is a Conflict
//  4. create or update tests/<fileName> on the new branch
//  5. open the pull request branch → base
//
// COMPENSATION:
// Steps 4 and 5 run after the branch exists. If either fails, the branch is
// deleted again so a retry with the same name can succeed and no orphan is
// left behind. A failed cleanup is logged; the caller still gets the
// original error.
func (g *GitHubGateway) CreatePullRequest(ctx context.Context, token string, in PullRequestInput) (*model.PullRequest, error) {
	c := g.client(token)

	base := in.BaseBranch
	if base == "" {
		base = g.defaultBranch(ctx, c, in.Owner, in.Repo)
	}

	ref, _, err := c.Git.GetRef(ctx, in.Owner, in.Repo, "heads/"+base)
	if err != nil {
		if statusOf(err) == http.StatusNotFound {
			return nil, apperror.NotFound("branch", base)
		}
		return nil, apperror.Upstream("Failed to create pull request", err)
	}

	_, _, err = c.Git.CreateRef(ctx, in.Owner, in.Repo, &github.Reference{
		Ref:    github.Ptr("refs/heads/" + in.Branch),
		Object: &github.GitObject{SHA: github.Ptr(ref.GetObject().GetSHA())},
	})
	if err != nil {
		if statusOf(err) == http.StatusUnprocessableEntity {
			return nil, apperror.Conflict("branch", in.Branch)
		}
		return nil, apperror.Upstream("Failed to create pull request", err)
	}

	pr, err := g.commitAndOpen(ctx, c, in, base)
	if err != nil {
		g.deleteBranch(ctx, c, in)
		return nil, apperror.Upstream("Failed to create pull request", err)
	}

	g.logger.InfoContext(ctx, "pull request opened",
		slog.String("repo", in.Owner+"/"+in.Repo),
		slog.String("branch", in.Branch),
		slog.Int("number", pr.GetNumber()),
	)
	return toPullRequest(pr), nil
}

// defaultBranch reads the repository's default branch. Failure is not
// fatal; GetRef on the fallback will report a real problem.
func (g *GitHubGateway) defaultBranch(ctx context.Context, c *github.Client, owner, repo string) string {
	r, _, err := c.Repositories.Get(ctx, owner, repo)
	if err != nil || r.GetDefaultBranch() == "" {
		if err != nil {
			g.logger.WarnContext(ctx, "could not read default branch, falling back",
				slog.String("repo", owner+"/"+repo),
				slog.String("fallback", FallbackBaseBranch),
				slog.String("error", err.Error()),
			)
		}
		return FallbackBaseBranch
	}
	return r.GetDefaultBranch()
}

func (g *GitHubGateway) commitAndOpen(ctx context.Context, c *github.Client, in PullRequestInput, base string) (*github.PullRequest, error) {
	path := TestsDir + "/" + in.FileName

	opts := &github.RepositoryContentFileOptions{
		Message: github.Ptr(CommitMessage(in.FileName)),
		Content: []byte(in.Content),
		Branch:  github.Ptr(in.Branch),
	}

	existing, _, _, err := c.Repositories.GetContents(ctx, in.Owner, in.Repo, path,
		&github.RepositoryContentGetOptions{Ref: in.Branch})
	switch {
	case err == nil && existing != nil:
		opts.SHA = existing.SHA
		_, _, err = c.Repositories.UpdateFile(ctx, in.Owner, in.Repo, path, opts)
	case err == nil || statusOf(err) == http.StatusNotFound:
		_, _, err = c.Repositories.CreateFile(ctx, in.Owner, in.Repo, path, opts)
	}
	if err != nil {
		return nil, err
	}

	pr, _, err := c.PullRequests.Create(ctx, in.Owner, in.Repo, &github.NewPullRequest{
		Title: github.Ptr(PullRequestTitle(in.FileName)),
		Head:  github.Ptr(in.Branch),
		Base:  github.Ptr(base),
		Body:  github.Ptr(PullRequestBody),
	})
	if err != nil {
		return nil, err
	}
	return pr, nil
}

// deleteBranch is the compensating action for a half-finished saga. It runs
// on a fresh deadline so a cancelled request still cleans up.
func (g *GitHubGateway) deleteBranch(ctx context.Context, c *github.Client, in PullRequestInput) {
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensationTimeout)
	defer cancel()

	if _, err := c.Git.DeleteRef(cctx, in.Owner, in.Repo, "heads/"+in.Branch); err != nil {
		g.logger.ErrorContext(ctx, "compensation failed, branch left behind",
			slog.String("repo", in.Owner+"/"+in.Repo),
			slog.String("branch", in.Branch),
			slog.String("error", err.Error()),
		)
		return
	}
	g.logger.WarnContext(ctx, "pull request creation failed, branch deleted",
		slog.String("repo", in.Owner+"/"+in.Repo),
		slog.String("branch", in.Branch),
	)
}
