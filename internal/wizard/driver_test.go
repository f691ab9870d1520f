package wizard

import (
	"context"
	"errors"
	pathpkg "path"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/test-case-generator/internal/model"
)

// fakeAPI serves a tiny repository:
//
//	src/
//	  lib/
//	    util.py
//	  app.py
//	main.py
type fakeAPI struct {
	contentsCalls []string
	summaryFiles  []model.SourceFile
	testReq       model.GenerateTestRequest
	prReq         model.CreatePullRequestRequest
	failContents  bool
	failSummaries bool
}

var errFake = errors.New("server unavailable")

func (f *fakeAPI) Repositories(context.Context) ([]model.Repository, error) {
	return []model.Repository{demoRepo}, nil
}

func (f *fakeAPI) Contents(_ context.Context, owner, repo, path string) ([]model.FileEntry, error) {
	f.contentsCalls = append(f.contentsCalls, owner+"/"+repo+":"+path)
	if f.failContents {
		return nil, errFake
	}
	switch path {
	case "":
		return []model.FileEntry{dir("src", "src"), file("main.py", "main.py")}, nil
	case "src":
		return []model.FileEntry{dir("src/lib", "lib"), file("src/app.py", "app.py")}, nil
	case "src/lib":
		return []model.FileEntry{file("src/lib/util.py", "util.py")}, nil
	}
	return nil, nil
}

func (f *fakeAPI) File(_ context.Context, _, _, path string) (*model.FileEntry, error) {
	e := file(path, pathpkg.Base(path))
	e.Content = "# " + path
	return &e, nil
}

func (f *fakeAPI) GenerateSummaries(_ context.Context, files []model.SourceFile) ([]model.TestSummary, error) {
	f.summaryFiles = files
	if f.failSummaries {
		return nil, errFake
	}
	out := make([]model.TestSummary, len(files))
	for i, sf := range files {
		out[i] = model.TestSummary{FileName: sf.Name, Language: "python", Summary: "summary of " + sf.Name, FilePath: sf.Path}
	}
	return out, nil
}

func (f *fakeAPI) GenerateTest(_ context.Context, req model.GenerateTestRequest) (*model.GeneratedTest, error) {
	f.testReq = req
	return &model.GeneratedTest{FileName: "app.test.py", Language: req.Language, TestCode: "def test_app(): pass"}, nil
}

func (f *fakeAPI) CreatePullRequest(_ context.Context, req model.CreatePullRequestRequest) (*model.PullRequest, error) {
	f.prReq = req
	return &model.PullRequest{Number: 7}, nil
}

func TestDriver_FullFlow(t *testing.T) {
	ctx := context.Background()
	api := &fakeAPI{}
	d := NewDriver(api)

	repos, err := d.LoadRepositories(ctx)
	require.NoError(t, err)
	require.NoError(t, d.ChooseRepository(ctx, repos[0]))
	assert.Equal(t, []string{"octocat/demo:"}, api.contentsCalls)

	require.NoError(t, d.ToggleDirectory(ctx, "src"))
	require.NoError(t, d.ToggleFile(ctx, "src/app.py"))
	require.NoError(t, d.ToggleFile(ctx, "main.py"))
	assert.True(t, d.Wizard().IsSelected("src/app.py"))

	require.NoError(t, d.GenerateSummaries(ctx))
	require.Len(t, api.summaryFiles, 2)
	assert.Equal(t, "src/app.py", api.summaryFiles[0].Path, "selection order is preserved")
	assert.Equal(t, StepSummaryReview, d.Wizard().Step())

	test, err := d.GenerateTest(ctx, "app.py")
	require.NoError(t, err)
	assert.Equal(t, "app.test.py", test.FileName)
	assert.Equal(t, "# src/app.py", api.testReq.OriginalCode)
	assert.Equal(t, "summary of app.py", api.testReq.Summary)
	assert.Equal(t, StepTestReview, d.Wizard().Step())

	pr, err := d.CreatePullRequest(ctx, "app.test.py", "")
	require.NoError(t, err)
	assert.Equal(t, 7, pr.Number)
	assert.Equal(t, model.CreatePullRequestRequest{
		Owner: "octocat", Repo: "demo", TestCode: "def test_app(): pass", FileName: "app.test.py",
	}, api.prReq)
}

func TestDriver_ToggleDirectoryCollapsesWithoutFetching(t *testing.T) {
	ctx := context.Background()
	api := &fakeAPI{}
	d := NewDriver(api)
	require.NoError(t, d.ChooseRepository(ctx, demoRepo))
	before := d.Wizard().Tree().Nodes()

	require.NoError(t, d.ToggleDirectory(ctx, "src"))
	require.NoError(t, d.ToggleDirectory(ctx, "src/lib"))
	assert.Equal(t, 5, d.Wizard().Tree().Len())

	calls := len(api.contentsCalls)
	require.NoError(t, d.ToggleDirectory(ctx, "src"))

	assert.Equal(t, calls, len(api.contentsCalls))
	assert.Equal(t, before, d.Wizard().Tree().Nodes())
}

func TestDriver_ToggleFileDeselects(t *testing.T) {
	ctx := context.Background()
	d := NewDriver(&fakeAPI{})
	require.NoError(t, d.ChooseRepository(ctx, demoRepo))

	require.NoError(t, d.ToggleFile(ctx, "main.py"))
	require.NoError(t, d.ToggleFile(ctx, "main.py"))

	assert.Empty(t, d.Wizard().SelectedFiles())
}

func TestDriver_EmptySelectionNeverReachesServer(t *testing.T) {
	ctx := context.Background()
	api := &fakeAPI{}
	d := NewDriver(api)
	require.NoError(t, d.ChooseRepository(ctx, demoRepo))

	err := d.GenerateSummaries(ctx)

	assert.ErrorIs(t, err, ErrNoFilesSelected)
	assert.Nil(t, api.summaryFiles)
}

func TestDriver_FailuresLeaveStateUnchanged(t *testing.T) {
	ctx := context.Background()

	t.Run("root listing fails", func(t *testing.T) {
		d := NewDriver(&fakeAPI{failContents: true})
		err := d.ChooseRepository(ctx, demoRepo)

		assert.ErrorIs(t, err, errFake)
		assert.Equal(t, StepRepositorySelection, d.Wizard().Step())
		assert.Nil(t, d.Wizard().Repository())
	})

	t.Run("summaries fail", func(t *testing.T) {
		api := &fakeAPI{failSummaries: true}
		d := NewDriver(api)
		require.NoError(t, d.ChooseRepository(ctx, demoRepo))
		require.NoError(t, d.ToggleFile(ctx, "main.py"))

		err := d.GenerateSummaries(ctx)

		assert.ErrorIs(t, err, errFake)
		assert.Equal(t, StepFileSelection, d.Wizard().Step())
		assert.Len(t, d.Wizard().SelectedFiles(), 1)
	})
}

func TestDriver_WrongStep(t *testing.T) {
	ctx := context.Background()
	d := NewDriver(&fakeAPI{})

	assert.ErrorIs(t, d.ToggleFile(ctx, "main.py"), ErrInvalidTransition)
	assert.ErrorIs(t, d.GenerateSummaries(ctx), ErrInvalidTransition)
	_, err := d.GenerateTest(ctx, "main.py")
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = d.CreatePullRequest(ctx, "main.test.py", "")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestDriver_Back(t *testing.T) {
	ctx := context.Background()
	d := NewDriver(&fakeAPI{})
	require.NoError(t, d.ChooseRepository(ctx, demoRepo))
	require.NoError(t, d.ToggleFile(ctx, "main.py"))
	require.NoError(t, d.GenerateSummaries(ctx))

	require.NoError(t, d.Back(StepFileSelection))

	assert.Empty(t, d.Wizard().Summaries())
	assert.Len(t, d.Wizard().SelectedFiles(), 1)
	require.NoError(t, d.GenerateSummaries(ctx))
	assert.Equal(t, StepSummaryReview, d.Wizard().Step())
}
