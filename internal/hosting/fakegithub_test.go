package hosting

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/go-github/v72/github"
)

const fakeToken = "gho_fake"

type fakeFile struct {
	content string
	sha     string
}

type fakeCommit struct {
	path    string
	branch  string
	message string
	content string
	sha     string // sha sent by the client, "" for create
}

// fakeGitHub is an in-memory stand-in for the parts of the GitHub REST API
// the gateway calls. Responses are encoded from go-github's own types so
// the wire shapes match what the real client expects.
type fakeGitHub struct {
	mu sync.Mutex

	user          *github.User
	repos         []*github.Repository
	defaultBranch string
	refs          map[string]string // "heads/main" → sha
	files         map[string]fakeFile
	dirs          map[string][]*github.RepositoryContent

	commits     []fakeCommit
	pulls       []*github.NewPullRequest
	deletedRefs []string
	lastQuery   url.Values

	failFileCommit  bool
	failPullRequest bool
	failDeleteRef   bool
}

func newFakeGitHub() *fakeGitHub {
	return &fakeGitHub{
		user: &github.User{
			ID:        github.Ptr(int64(583231)),
			Login:     github.Ptr("octocat"),
			Name:      github.Ptr("The Octocat"),
			AvatarURL: github.Ptr("https://avatars.example/octocat"),
		},
		defaultBranch: "main",
		refs:          map[string]string{"heads/main": "sha-main"},
		files:         map[string]fakeFile{},
		dirs:          map[string][]*github.RepositoryContent{},
	}
}

// start serves the fake and returns a gateway pointed at it.
func (f *fakeGitHub) start(t *testing.T) *GitHubGateway {
	t.Helper()
	srv := httptest.NewServer(f.routes())
	t.Cleanup(srv.Close)

	g, err := NewGitHubGateway(srv.URL, srv.Client(), testLogger())
	if err != nil {
		t.Fatalf("NewGitHubGateway() error = %v", err)
	}
	return g
}

func (f *fakeGitHub) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(f.requireToken)

	r.Get("/user", func(w http.ResponseWriter, r *http.Request) {
		writeFakeJSON(w, http.StatusOK, f.user)
	})
	r.Get("/user/repos", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.lastQuery = r.URL.Query()
		f.mu.Unlock()
		writeFakeJSON(w, http.StatusOK, f.repos)
	})
	r.Route("/repos/{owner}/{repo}", func(r chi.Router) {
		r.Get("/", f.getRepo)
		r.Get("/contents/*", f.getContents)
		r.Put("/contents/*", f.putContents)
		r.Get("/git/ref/*", f.getRef)
		r.Post("/git/refs", f.createRef)
		r.Delete("/git/refs/*", f.deleteRef)
		r.Post("/pulls", f.createPull)
	})
	return r
}

func (f *fakeGitHub) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+fakeToken {
			writeFakeError(w, http.StatusUnauthorized, "Bad credentials")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (f *fakeGitHub) getRepo(w http.ResponseWriter, r *http.Request) {
	writeFakeJSON(w, http.StatusOK, &github.Repository{
		Name:          github.Ptr(chi.URLParam(r, "repo")),
		DefaultBranch: github.Ptr(f.defaultBranch),
	})
}

func (f *fakeGitHub) getContents(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	path := chi.URLParam(r, "*")
	if entries, ok := f.dirs[path]; ok {
		writeFakeJSON(w, http.StatusOK, entries)
		return
	}
	if file, ok := f.files[path]; ok {
		name := path[strings.LastIndex(path, "/")+1:]
		writeFakeJSON(w, http.StatusOK, &github.RepositoryContent{
			Type:     github.Ptr("file"),
			Name:     github.Ptr(name),
			Path:     github.Ptr(path),
			SHA:      github.Ptr(file.sha),
			Size:     github.Ptr(len(file.content)),
			Encoding: github.Ptr("base64"),
			Content:  github.Ptr(encodeBase64(file.content)),
		})
		return
	}
	writeFakeError(w, http.StatusNotFound, "Not Found")
}

func (f *fakeGitHub) putContents(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failFileCommit {
		writeFakeError(w, http.StatusInternalServerError, "commit failed")
		return
	}

	var opts github.RepositoryContentFileOptions
	if err := json.NewDecoder(r.Body).Decode(&opts); err != nil {
		writeFakeError(w, http.StatusBadRequest, err.Error())
		return
	}
	path := chi.URLParam(r, "*")
	if existing, ok := f.files[path]; ok && existing.sha != opts.GetSHA() {
		writeFakeError(w, http.StatusUnprocessableEntity, `"sha" wasn't supplied.`)
		return
	}

	sha := fmt.Sprintf("blob-%d", len(f.commits)+1)
	f.commits = append(f.commits, fakeCommit{
		path:    path,
		branch:  opts.GetBranch(),
		message: opts.GetMessage(),
		content: string(opts.Content),
		sha:     opts.GetSHA(),
	})
	f.files[path] = fakeFile{content: string(opts.Content), sha: sha}

	writeFakeJSON(w, http.StatusCreated, &github.RepositoryContentResponse{
		Content: &github.RepositoryContent{Path: github.Ptr(path), SHA: github.Ptr(sha)},
	})
}

func (f *fakeGitHub) getRef(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	ref := chi.URLParam(r, "*")
	sha, ok := f.refs[ref]
	if !ok {
		writeFakeError(w, http.StatusNotFound, "Not Found")
		return
	}
	writeFakeJSON(w, http.StatusOK, &github.Reference{
		Ref:    github.Ptr("refs/" + ref),
		Object: &github.GitObject{SHA: github.Ptr(sha), Type: github.Ptr("commit")},
	})
}

func (f *fakeGitHub) createRef(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var body struct {
		Ref string `json:"ref"`
		SHA string `json:"sha"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeFakeError(w, http.StatusBadRequest, err.Error())
		return
	}
	ref := strings.TrimPrefix(body.Ref, "refs/")
	if _, exists := f.refs[ref]; exists {
		writeFakeError(w, http.StatusUnprocessableEntity, "Reference already exists")
		return
	}
	f.refs[ref] = body.SHA
	writeFakeJSON(w, http.StatusCreated, &github.Reference{
		Ref:    github.Ptr(body.Ref),
		Object: &github.GitObject{SHA: github.Ptr(body.SHA)},
	})
}

func (f *fakeGitHub) deleteRef(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failDeleteRef {
		writeFakeError(w, http.StatusInternalServerError, "delete failed")
		return
	}
	ref := chi.URLParam(r, "*")
	delete(f.refs, ref)
	f.deletedRefs = append(f.deletedRefs, ref)
	w.WriteHeader(http.StatusNoContent)
}

func (f *fakeGitHub) createPull(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failPullRequest {
		writeFakeError(w, http.StatusUnprocessableEntity, "Validation Failed")
		return
	}
	var pr github.NewPullRequest
	if err := json.NewDecoder(r.Body).Decode(&pr); err != nil {
		writeFakeError(w, http.StatusBadRequest, err.Error())
		return
	}
	f.pulls = append(f.pulls, &pr)
	number := len(f.pulls)

	writeFakeJSON(w, http.StatusCreated, &github.PullRequest{
		ID:      github.Ptr(int64(1000 + number)),
		Number:  github.Ptr(number),
		State:   github.Ptr("open"),
		Title:   pr.Title,
		Body:    pr.Body,
		HTMLURL: github.Ptr(fmt.Sprintf("https://github.example/%s/%s/pull/%d", chi.URLParam(r, "owner"), chi.URLParam(r, "repo"), number)),
		Head:    &github.PullRequestBranch{Ref: pr.Head},
		Base:    &github.PullRequestBranch{Ref: pr.Base},
	})
}

func writeFakeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeFakeError(w http.ResponseWriter, status int, message string) {
	writeFakeJSON(w, status, map[string]string{"message": message})
}
