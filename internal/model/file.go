package model

import "fmt"

// EntryType is the closed set of directory entry kinds we expose.
// GitHub also reports "symlink" and "submodule"; the hosting gateway
// normalizes or drops those before they reach this package's consumers.
type EntryType string

const (
	EntryFile EntryType = "file"
	EntryDir  EntryType = "dir"
)

// ParseEntryType maps a provider entry type onto the closed variant.
// Symlinks are shown as files (reading one returns its target path);
// anything else is rejected.
func ParseEntryType(s string) (EntryType, error) {
	switch s {
	case "file", "symlink":
		return EntryFile, nil
	case "dir":
		return EntryDir, nil
	default:
		return "", fmt.Errorf("unsupported entry type %q", s)
	}
}

// FileEntry is one item of a repository directory listing.
//
// Content is only populated when a single file is read. Directory entries
// never carry Size, Content or DownloadURL.
type FileEntry struct {
	Name        string    `json:"name"`
	Path        string    `json:"path"`
	Type        EntryType `json:"type"`
	Size        int64     `json:"size,omitempty"`
	SHA         string    `json:"sha,omitempty"`
	Content     string    `json:"content,omitempty"`
	DownloadURL string    `json:"download_url,omitempty"`
}

func (e FileEntry) IsDir() bool {
	return e.Type == EntryDir
}
