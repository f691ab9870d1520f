package wizard

import (
	"context"
	"errors"
	"fmt"

	"github.com/sakif/test-case-generator/internal/model"
)

// ErrNoFilesSelected is returned instead of calling the server with an
// empty file list.
var ErrNoFilesSelected = errors.New("wizard: select at least one file")

// API is the server surface the driver needs. *apiclient.Client
// implements it.
type API interface {
	Repositories(ctx context.Context) ([]model.Repository, error)
	Contents(ctx context.Context, owner, repo, path string) ([]model.FileEntry, error)
	File(ctx context.Context, owner, repo, path string) (*model.FileEntry, error)
	GenerateSummaries(ctx context.Context, files []model.SourceFile) ([]model.TestSummary, error)
	GenerateTest(ctx context.Context, req model.GenerateTestRequest) (*model.GeneratedTest, error)
	CreatePullRequest(ctx context.Context, req model.CreatePullRequestRequest) (*model.PullRequest, error)
}

// Driver turns user actions into server calls and feeds the responses to
// the wizard as events. A failed call leaves the wizard where it was.
type Driver struct {
	api    API
	wizard *Wizard
}

func NewDriver(api API) *Driver {
	return &Driver{api: api, wizard: New()}
}

// Wizard exposes the state for rendering.
func (d *Driver) Wizard() *Wizard { return d.wizard }

// LoadRepositories fetches the repository list shown on the first step.
func (d *Driver) LoadRepositories(ctx context.Context) ([]model.Repository, error) {
	return d.api.Repositories(ctx)
}

// ChooseRepository fetches the root listing and moves to file selection.
func (d *Driver) ChooseRepository(ctx context.Context, repo model.Repository) error {
	if err := d.expect(StepRepositorySelection); err != nil {
		return err
	}
	root, err := d.api.Contents(ctx, repo.Owner.Login, repo.Name, "")
	if err != nil {
		return fmt.Errorf("wizard: loading repository root: %w", err)
	}
	return d.wizard.Apply(RepositoryChosen{Repository: repo, Root: root})
}

// ToggleDirectory opens a closed directory (fetching its listing) or
// closes an open one.
func (d *Driver) ToggleDirectory(ctx context.Context, path string) error {
	if err := d.expect(StepFileSelection); err != nil {
		return err
	}
	if d.wizard.Tree().IsExpanded(path) {
		return d.wizard.Apply(DirectoryCollapsed{Path: path})
	}
	repo := d.wizard.Repository()
	children, err := d.api.Contents(ctx, repo.Owner.Login, repo.Name, path)
	if err != nil {
		return fmt.Errorf("wizard: loading %s: %w", path, err)
	}
	return d.wizard.Apply(DirectoryExpanded{Path: path, Children: children})
}

// ToggleFile deselects a selected file, or reads and selects an
// unselected one.
func (d *Driver) ToggleFile(ctx context.Context, path string) error {
	if err := d.expect(StepFileSelection); err != nil {
		return err
	}
	if d.wizard.IsSelected(path) {
		return d.wizard.Apply(FileDeselected{Path: path})
	}
	repo := d.wizard.Repository()
	f, err := d.api.File(ctx, repo.Owner.Login, repo.Name, path)
	if err != nil {
		return fmt.Errorf("wizard: reading %s: %w", path, err)
	}
	return d.wizard.Apply(FileSelected{File: model.SourceFile{Name: f.Name, Content: f.Content, Path: f.Path}})
}

// GenerateSummaries sends the selected files, in selection order, and moves
// to summary review.
func (d *Driver) GenerateSummaries(ctx context.Context) error {
	if err := d.expect(StepFileSelection); err != nil {
		return err
	}
	files := d.wizard.SelectedFiles()
	if len(files) == 0 {
		return ErrNoFilesSelected
	}
	summaries, err := d.api.GenerateSummaries(ctx, files)
	if err != nil {
		return fmt.Errorf("wizard: generating summaries: %w", err)
	}
	return d.wizard.Apply(SummariesGenerated{Summaries: summaries})
}

// GenerateTest generates test code for the summary of fileName and moves
// to test review.
func (d *Driver) GenerateTest(ctx context.Context, fileName string) (*model.GeneratedTest, error) {
	if d.wizard.Step() != StepSummaryReview && d.wizard.Step() != StepTestReview {
		return nil, fmt.Errorf("%w: generate test during %s", ErrInvalidTransition, d.wizard.Step())
	}
	summary, ok := d.wizard.Summary(fileName)
	if !ok {
		return nil, fmt.Errorf("wizard: no summary for %q", fileName)
	}
	source, _ := d.wizard.SelectedFile(summary.FilePath)

	test, err := d.api.GenerateTest(ctx, model.GenerateTestRequest{
		FileName:     summary.FileName,
		Language:     summary.Language,
		Summary:      summary.Summary,
		OriginalCode: source.Content,
	})
	if err != nil {
		return nil, fmt.Errorf("wizard: generating test for %s: %w", fileName, err)
	}
	if err := d.wizard.Apply(TestGenerated{Summary: summary, Test: *test}); err != nil {
		return nil, err
	}
	return test, nil
}

// CreatePullRequest opens a pull request for the generated test named
// testFileName. An empty branch uses the server default.
func (d *Driver) CreatePullRequest(ctx context.Context, testFileName, branch string) (*model.PullRequest, error) {
	if err := d.expect(StepTestReview); err != nil {
		return nil, err
	}
	pair, ok := d.wizard.Test(testFileName)
	if !ok {
		return nil, fmt.Errorf("wizard: no generated test %q", testFileName)
	}
	repo := d.wizard.Repository()
	return d.api.CreatePullRequest(ctx, model.CreatePullRequestRequest{
		Owner:    repo.Owner.Login,
		Repo:     repo.Name,
		TestCode: pair.Test.TestCode,
		FileName: pair.Test.FileName,
		Branch:   branch,
	})
}

// Back returns to an earlier step.
func (d *Driver) Back(to Step) error {
	return d.wizard.Apply(Back{To: to})
}

func (d *Driver) expect(step Step) error {
	if d.wizard.Step() != step {
		return fmt.Errorf("%w: expected %s, at %s", ErrInvalidTransition, step, d.wizard.Step())
	}
	return nil
}
