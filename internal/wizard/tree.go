package wizard

import (
	"fmt"
	"slices"
	"strings"

	"github.com/sakif/test-case-generator/internal/model"
)

// Node is one row of the file-selection list.
type Node struct {
	model.FileEntry
	Depth int // 0 for the repository root listing
}

// FileTree is the flat, display-ordered list of a partially expanded
// repository. Expanding a directory splices its children in directly after
// it; collapsing removes everything below it.
type FileTree struct {
	nodes    []Node
	expanded map[string]bool
}

// NewFileTree starts a tree from the repository root listing.
func NewFileTree(root []model.FileEntry) *FileTree {
	t := &FileTree{
		nodes:    make([]Node, 0, len(root)),
		expanded: make(map[string]bool),
	}
	for _, e := range root {
		t.nodes = append(t.nodes, Node{FileEntry: e})
	}
	return t
}

// Nodes returns a copy of the display list.
func (t *FileTree) Nodes() []Node {
	return slices.Clone(t.nodes)
}

func (t *FileTree) Len() int { return len(t.nodes) }

// Find returns the node at path.
func (t *FileTree) Find(path string) (Node, bool) {
	if i := t.index(path); i >= 0 {
		return t.nodes[i], true
	}
	return Node{}, false
}

func (t *FileTree) IsExpanded(path string) bool {
	return t.expanded[path]
}

// Expand inserts children right after the directory at dir.
func (t *FileTree) Expand(dir string, children []model.FileEntry) error {
	i := t.index(dir)
	if i < 0 {
		return fmt.Errorf("wizard: %q is not in the file tree", dir)
	}
	parent := t.nodes[i]
	if !parent.IsDir() {
		return fmt.Errorf("wizard: %q is not a directory", dir)
	}
	if t.expanded[dir] {
		return fmt.Errorf("wizard: %q is already expanded", dir)
	}

	rows := make([]Node, 0, len(children))
	for _, c := range children {
		rows = append(rows, Node{FileEntry: c, Depth: parent.Depth + 1})
	}
	t.nodes = slices.Insert(t.nodes, i+1, rows...)
	t.expanded[dir] = true
	return nil
}

// Collapse removes every entry under dir and forgets the expansion state of
// dir and its subdirectories, so re-expanding starts from a fresh listing.
// Collapsing a directory that is not expanded is a no-op.
func (t *FileTree) Collapse(dir string) {
	prefix := dir + "/"
	t.nodes = slices.DeleteFunc(t.nodes, func(n Node) bool {
		return strings.HasPrefix(n.Path, prefix)
	})
	for p := range t.expanded {
		if p == dir || strings.HasPrefix(p, prefix) {
			delete(t.expanded, p)
		}
	}
}

func (t *FileTree) index(path string) int {
	return slices.IndexFunc(t.nodes, func(n Node) bool { return n.Path == path })
}
