// Package wizard is the client side of the test generator: a four-step
// state machine over the server API.
//
//	repository-selection → file-selection → summary-review → test-review
//
// Forward moves happen only through events produced by user actions and
// server responses. Back may jump to any earlier step and clears exactly
// what was gathered after it:
//
//	Back to repository-selection: repository, tree, files, summaries, tests
//	Back to file-selection:       summaries, tests
//	Back to summary-review:       tests
//
// Apply is total: every (step, event) pair either transitions or returns
// an error wrapping ErrInvalidTransition, and a rejected event leaves the
// wizard unchanged.
package wizard

import (
	"errors"
	"fmt"
	"slices"

	"github.com/sakif/test-case-generator/internal/model"
)

type Step int

const (
	StepRepositorySelection Step = iota
	StepFileSelection
	StepSummaryReview
	StepTestReview
)

func (s Step) String() string {
	switch s {
	case StepRepositorySelection:
		return "repository-selection"
	case StepFileSelection:
		return "file-selection"
	case StepSummaryReview:
		return "summary-review"
	case StepTestReview:
		return "test-review"
	default:
		return fmt.Sprintf("Step(%d)", int(s))
	}
}

var ErrInvalidTransition = errors.New("invalid wizard transition")

// Event is something that happened: a user choice or a server response.
type Event interface {
	eventName() string
}

// RepositoryChosen carries the chosen repository and its root listing.
type RepositoryChosen struct {
	Repository model.Repository
	Root       []model.FileEntry
}

// DirectoryExpanded carries the listing of a directory being opened.
type DirectoryExpanded struct {
	Path     string
	Children []model.FileEntry
}

type DirectoryCollapsed struct {
	Path string
}

// FileSelected adds a file, with its content, to the selection.
type FileSelected struct {
	File model.SourceFile
}

type FileDeselected struct {
	Path string
}

// SummariesGenerated carries the server's summaries, in selection order.
type SummariesGenerated struct {
	Summaries []model.TestSummary
}

// TestGenerated pairs generated test code with the summary it came from.
type TestGenerated struct {
	Summary model.TestSummary
	Test    model.GeneratedTest
}

// Back returns to an earlier step.
type Back struct {
	To Step
}

func (RepositoryChosen) eventName() string   { return "repository-chosen" }
func (DirectoryExpanded) eventName() string  { return "directory-expanded" }
func (DirectoryCollapsed) eventName() string { return "directory-collapsed" }
func (FileSelected) eventName() string       { return "file-selected" }
func (FileDeselected) eventName() string     { return "file-deselected" }
func (SummariesGenerated) eventName() string { return "summaries-generated" }
func (TestGenerated) eventName() string      { return "test-generated" }
func (Back) eventName() string               { return "back" }

// TestPair is a generated test with the summary it answers. The summary's
// FileName is the correlation key; the test's FileName is the derived
// "<base>.test.<ext>" name.
type TestPair struct {
	Summary model.TestSummary
	Test    model.GeneratedTest
}

// Wizard holds all workflow state. The zero value is not usable; call New.
type Wizard struct {
	step       Step
	repository *model.Repository
	tree       *FileTree
	files      []model.SourceFile
	summaries  []model.TestSummary
	tests      []TestPair
}

func New() *Wizard {
	return &Wizard{step: StepRepositorySelection}
}

func (w *Wizard) Step() Step { return w.step }

// Repository returns the chosen repository, nil before one is chosen.
func (w *Wizard) Repository() *model.Repository { return w.repository }

// Tree returns the file tree, nil before a repository is chosen.
func (w *Wizard) Tree() *FileTree { return w.tree }

func (w *Wizard) SelectedFiles() []model.SourceFile { return slices.Clone(w.files) }

func (w *Wizard) Summaries() []model.TestSummary { return slices.Clone(w.summaries) }

func (w *Wizard) Tests() []TestPair { return slices.Clone(w.tests) }

// IsSelected reports whether the file at path is selected.
func (w *Wizard) IsSelected(path string) bool {
	return w.fileIndex(path) >= 0
}

// Summary looks up a summary by its source file name.
func (w *Wizard) Summary(fileName string) (model.TestSummary, bool) {
	i := slices.IndexFunc(w.summaries, func(s model.TestSummary) bool { return s.FileName == fileName })
	if i < 0 {
		return model.TestSummary{}, false
	}
	return w.summaries[i], true
}

// SelectedFile returns the selected file at path.
func (w *Wizard) SelectedFile(path string) (model.SourceFile, bool) {
	if i := w.fileIndex(path); i >= 0 {
		return w.files[i], true
	}
	return model.SourceFile{}, false
}

// Test looks up a generated test by its test file name.
func (w *Wizard) Test(testFileName string) (TestPair, bool) {
	i := slices.IndexFunc(w.tests, func(p TestPair) bool { return p.Test.FileName == testFileName })
	if i < 0 {
		return TestPair{}, false
	}
	return w.tests[i], true
}

// Apply runs the transition for ev from the current step.
func (w *Wizard) Apply(ev Event) error {
	switch e := ev.(type) {
	case Back:
		return w.back(e.To)

	case RepositoryChosen:
		if w.step != StepRepositorySelection {
			return w.reject(ev)
		}
		repo := e.Repository
		w.repository = &repo
		w.tree = NewFileTree(e.Root)
		w.files, w.summaries, w.tests = nil, nil, nil
		w.step = StepFileSelection
		return nil

	case DirectoryExpanded:
		if w.step != StepFileSelection {
			return w.reject(ev)
		}
		if err := w.tree.Expand(e.Path, e.Children); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidTransition, err)
		}
		return nil

	case DirectoryCollapsed:
		if w.step != StepFileSelection {
			return w.reject(ev)
		}
		w.tree.Collapse(e.Path)
		return nil

	case FileSelected:
		if w.step != StepFileSelection {
			return w.reject(ev)
		}
		if w.fileIndex(e.File.Path) < 0 {
			w.files = append(w.files, e.File)
		}
		return nil

	case FileDeselected:
		if w.step != StepFileSelection {
			return w.reject(ev)
		}
		w.files = slices.DeleteFunc(w.files, func(f model.SourceFile) bool { return f.Path == e.Path })
		return nil

	case SummariesGenerated:
		if w.step != StepFileSelection {
			return w.reject(ev)
		}
		if len(w.files) == 0 || len(e.Summaries) == 0 {
			return fmt.Errorf("%w: summaries need at least one selected file", ErrInvalidTransition)
		}
		w.summaries = slices.Clone(e.Summaries)
		w.tests = nil
		w.step = StepSummaryReview
		return nil

	case TestGenerated:
		if w.step != StepSummaryReview && w.step != StepTestReview {
			return w.reject(ev)
		}
		if _, ok := w.Summary(e.Summary.FileName); !ok {
			return fmt.Errorf("%w: no summary for %q", ErrInvalidTransition, e.Summary.FileName)
		}
		pair := TestPair{Summary: e.Summary, Test: e.Test}
		// One test per summary: regenerating replaces the earlier one in place.
		if i := slices.IndexFunc(w.tests, func(p TestPair) bool { return p.Summary.FileName == e.Summary.FileName }); i >= 0 {
			w.tests[i] = pair
		} else {
			w.tests = append(w.tests, pair)
		}
		w.step = StepTestReview
		return nil

	default:
		return w.reject(ev)
	}
}

func (w *Wizard) back(to Step) error {
	if to < StepRepositorySelection || to >= w.step {
		return fmt.Errorf("%w: back from %s to %s", ErrInvalidTransition, w.step, to)
	}
	switch to {
	case StepRepositorySelection:
		w.repository, w.tree = nil, nil
		w.files, w.summaries, w.tests = nil, nil, nil
	case StepFileSelection:
		w.summaries, w.tests = nil, nil
	case StepSummaryReview:
		w.tests = nil
	}
	w.step = to
	return nil
}

func (w *Wizard) reject(ev Event) error {
	name := "unknown"
	if ev != nil {
		name = ev.eventName()
	}
	return fmt.Errorf("%w: %s during %s", ErrInvalidTransition, name, w.step)
}

func (w *Wizard) fileIndex(path string) int {
	return slices.IndexFunc(w.files, func(f model.SourceFile) bool { return f.Path == path })
}
