// Package model defines the data structures used throughout the application.
//
// WIRE FORMAT:
// User, Repository, FileEntry and PullRequest are projections of GitHub's REST
// shapes. We keep GitHub's snake_case JSON keys (avatar_url, full_name,
// download_url, ...) so the browser client can consume either our API or the
// raw GitHub payload without a second set of types. Types we derive ourselves
// (TestSummary, GeneratedTest) use camelCase.
package model

import "time"

// User is a read-only projection of the authenticated hosting account.
// It is fetched fresh on every request and never cached.
//
// WHY Email string WITH omitempty?
// GitHub returns the primary public email, which is null when the user has
// hidden it. The client treats a missing key and an empty string the same.
type User struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`      // GitHub username, e.g. "sakif"
	Name      string `json:"name"`       // display name, may be empty
	AvatarURL string `json:"avatar_url"` // profile picture URL
	Email     string `json:"email,omitempty"`
}

// Owner is the account that owns a repository.
type Owner struct {
	Login     string `json:"login"`
	AvatarURL string `json:"avatar_url"`
}

// Repository is one entry of the authenticated user's repository listing.
type Repository struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	FullName      string    `json:"full_name"`
	Description   string    `json:"description,omitempty"`
	Language      string    `json:"language,omitempty"` // primary language as detected by the host
	UpdatedAt     time.Time `json:"updated_at"`
	Private       bool      `json:"private"`
	DefaultBranch string    `json:"default_branch,omitempty"`
	Owner         Owner     `json:"owner"`
}
