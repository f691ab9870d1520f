package model

import "time"

// SourceFile is one file submitted for summary generation.
type SourceFile struct {
	Name    string `json:"name"`
	Content string `json:"content"`
	Path    string `json:"path"`
}

// TestSummary is the generated test plan for one source file.
//
// FileName is the correlation key: the GeneratedTest produced from this
// summary carries a file name derived from the same value, and the client
// matches the two on it. There is no surrogate id.
//
// Placeholder is true when no text-generation provider was configured and
// Summary is canned text rather than a real generation.
type TestSummary struct {
	FileName    string `json:"fileName"`
	Language    string `json:"language"`
	Summary     string `json:"summary"`
	FilePath    string `json:"filePath"`
	Placeholder bool   `json:"placeholder,omitempty"`
}

// GeneratedTest is the test code produced from a TestSummary plus the
// original file content. FileName is already rewritten to the test file
// name, e.g. "Calculator.js" becomes "Calculator.test.js".
type GeneratedTest struct {
	TestCode    string `json:"testCode"`
	FileName    string `json:"fileName"`
	Language    string `json:"language"`
	Placeholder bool   `json:"placeholder,omitempty"`
}

// GenerateSummariesRequest is the body of POST /api/generate-test-summaries.
type GenerateSummariesRequest struct {
	Files []SourceFile `json:"files"`
}

// GenerateSummariesResponse preserves request order: TestSummaries[i]
// describes Files[i].
type GenerateSummariesResponse struct {
	TestSummaries []TestSummary `json:"testSummaries"`
}

// GenerateTestRequest is the body of POST /api/generate-test-code.
type GenerateTestRequest struct {
	FileName     string `json:"fileName"`
	Language     string `json:"language"`
	Summary      string `json:"summary"`
	OriginalCode string `json:"originalCode"`
}

// DefaultBranch is the branch name used when a pull request request
// does not name one.
const DefaultBranch = "generated-tests"

// CreatePullRequestRequest is the body of POST /api/create-pull-request.
// BaseBranch is optional; the repository default branch is used when empty.
type CreatePullRequestRequest struct {
	Owner      string `json:"owner"`
	Repo       string `json:"repo"`
	TestCode   string `json:"testCode"`
	FileName   string `json:"fileName"`
	Branch     string `json:"branch,omitempty"`
	BaseBranch string `json:"baseBranch,omitempty"`
}

// BranchRef is the head or base side of a pull request.
type BranchRef struct {
	Ref string `json:"ref"`
	SHA string `json:"sha,omitempty"`
}

// PullRequest is a projection of the provider's pull request object.
type PullRequest struct {
	ID        int64     `json:"id"`
	Number    int       `json:"number"`
	State     string    `json:"state"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	URL       string    `json:"url"`
	HTMLURL   string    `json:"html_url"`
	Head      BranchRef `json:"head"`
	Base      BranchRef `json:"base"`
	CreatedAt time.Time `json:"created_at"`
}

// CreatePullRequestResponse wraps the opened pull request.
type CreatePullRequestResponse struct {
	PullRequest PullRequest `json:"pullRequest"`
}

// AuthURLResponse is the body of GET /auth/github.
type AuthURLResponse struct {
	AuthURL string `json:"authUrl"`
}
