// Package hosting is the gateway to the source-hosting API (GitHub).
//
// Every method takes the user's provider access token explicitly. The
// gateway holds no per-user state, so one instance serves all requests.
//
// BOUNDARY NORMALIZATION:
// GitHub's contents endpoint returns either an object (a file) or an array
// (a directory), and array entries can be "file", "dir", "symlink" or
// "submodule". Nothing past this package sees that ambiguity: listings are
// always []model.FileEntry of the closed {file, dir} variant.
package hosting

import (
	"context"
	"regexp"
	"strings"

	"github.com/sakif/test-case-generator/internal/model"
)

// FallbackBaseBranch is used when neither the request nor the repository
// metadata names a base branch.
const FallbackBaseBranch = "main"

// TestsDir is the directory generated test files are committed into.
const TestsDir = "tests"

// Gateway is the hosting API surface the services depend on.
type Gateway interface {
	GetUser(ctx context.Context, token string) (*model.User, error)
	// ListRepositories returns at most 100 repositories, most recently
	// updated first.
	ListRepositories(ctx context.Context, token string) ([]model.Repository, error)
	// ListContents lists a directory ("" is the repository root). A path
	// naming a single file yields a one-element list.
	ListContents(ctx context.Context, token, owner, repo, path string) ([]model.FileEntry, error)
	// ReadFile returns one file with its decoded content.
	ReadFile(ctx context.Context, token, owner, repo, path string) (*model.FileEntry, error)
	// CreatePullRequest commits Content to tests/<FileName> on a new branch
	// and opens a pull request for it.
	CreatePullRequest(ctx context.Context, token string, in PullRequestInput) (*model.PullRequest, error)
}

// PullRequestInput describes the pull request to open.
type PullRequestInput struct {
	Owner      string
	Repo       string
	Branch     string // new branch to create; must not exist yet
	BaseBranch string // optional, defaults to the repository default branch
	FileName   string // committed as tests/<FileName>
	Content    string
}

// CommitMessage, PullRequestTitle and PullRequestBody are the fixed
// templates for the generated commit and pull request.
func CommitMessage(fileName string) string {
	return "Add generated test: " + fileName
}

func PullRequestTitle(fileName string) string {
	return "Generated tests: " + fileName
}

const PullRequestBody = "Auto-generated test cases for improved code coverage.\n\nGenerated by Test Case Generator App."

// validBranchChars is a conservative subset of what git check-ref-format
// allows.
var validBranchChars = regexp.MustCompile(`^[A-Za-z0-9._/-]+$`)

// ValidBranchName reports whether name is usable as a branch name.
func ValidBranchName(name string) bool {
	if name == "" || len(name) > 255 || !validBranchChars.MatchString(name) {
		return false
	}
	if strings.HasPrefix(name, "/") || strings.HasSuffix(name, "/") ||
		strings.HasPrefix(name, "-") || strings.HasSuffix(name, ".") ||
		strings.HasSuffix(name, ".lock") ||
		strings.Contains(name, "..") || strings.Contains(name, "//") ||
		strings.Contains(name, "/.") || strings.HasPrefix(name, ".") {
		return false
	}
	return true
}
