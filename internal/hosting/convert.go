package hosting

import (
	"github.com/google/go-github/v72/github"

	"github.com/sakif/test-case-generator/internal/model"
)

func toUser(u *github.User) *model.User {
	return &model.User{
		ID:        u.GetID(),
		Login:     u.GetLogin(),
		Name:      u.GetName(),
		AvatarURL: u.GetAvatarURL(),
		Email:     u.GetEmail(),
	}
}

func toRepository(r *github.Repository) model.Repository {
	return model.Repository{
		ID:            r.GetID(),
		Name:          r.GetName(),
		FullName:      r.GetFullName(),
		Description:   r.GetDescription(),
		Language:      r.GetLanguage(),
		UpdatedAt:     r.GetUpdatedAt().Time,
		Private:       r.GetPrivate(),
		DefaultBranch: r.GetDefaultBranch(),
		Owner: model.Owner{
			Login:     r.GetOwner().GetLogin(),
			AvatarURL: r.GetOwner().GetAvatarURL(),
		},
	}
}

// toFileEntry maps a contents item onto the closed variant. ok is false for
// kinds we cannot show, such as submodules.
func toFileEntry(c *github.RepositoryContent) (model.FileEntry, bool) {
	typ, err := model.ParseEntryType(c.GetType())
	if err != nil {
		return model.FileEntry{}, false
	}

	e := model.FileEntry{
		Name: c.GetName(),
		Path: c.GetPath(),
		Type: typ,
		SHA:  c.GetSHA(),
	}
	if typ == model.EntryFile {
		e.Size = int64(c.GetSize())
		e.DownloadURL = c.GetDownloadURL()
	}
	return e, true
}

func toPullRequest(pr *github.PullRequest) *model.PullRequest {
	return &model.PullRequest{
		ID:        pr.GetID(),
		Number:    pr.GetNumber(),
		State:     pr.GetState(),
		Title:     pr.GetTitle(),
		Body:      pr.GetBody(),
		URL:       pr.GetURL(),
		HTMLURL:   pr.GetHTMLURL(),
		Head:      model.BranchRef{Ref: pr.GetHead().GetRef(), SHA: pr.GetHead().GetSHA()},
		Base:      model.BranchRef{Ref: pr.GetBase().GetRef(), SHA: pr.GetBase().GetSHA()},
		CreatedAt: pr.GetCreatedAt().Time,
	}
}
