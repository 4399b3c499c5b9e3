// Package history turns a sequence of commits into a normalized history
// model: per-commit metadata, per-file-per-commit change statistics, and a
// repository-wide index of files and the commits that touched them.
package history

import "github.com/Akashdeep-Patra/filegrass/internal/git"

// Author identifies who wrote a commit.
type Author struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// StatTotal summarizes the size of a commit. Lines is always
// Insertions+Deletions.
type StatTotal struct {
	Insertions int `json:"insertions"`
	Deletions  int `json:"deletions"`
	Lines      int `json:"lines"`
	Files      int `json:"files"`
}

// FileChange is one file touched by one commit.
type FileChange struct {
	Path       string         `json:"path"`
	Mode       string         `json:"mode,omitempty"`
	Type       git.ChangeType `json:"type"`
	Src        string         `json:"src"`
	Dst        string         `json:"dst"`
	Binary     bool           `json:"-"`
	StatPath   RenamePath     `json:"stat_path"`
	Insertions int            `json:"insertions"`
	Deletions  int            `json:"deletions"`
	Lines      int            `json:"lines"`
	ShaShort   string         `json:"sha_short"`
	Index      int            `json:"index"`
}

// Commit is the history record of one commit. Files is owned by the
// commit and only exposed through Document.Stats.
type Commit struct {
	Sha       string       `json:"sha"`
	ShaShort  string       `json:"sha_short"`
	Author    Author       `json:"author"`
	Date      string       `json:"date"`
	Message   string       `json:"message"`
	Index     int          `json:"index"`
	StatTotal StatTotal    `json:"stat_total"`
	Files     []FileChange `json:"-"`
}

// FileEntry correlates a file name with every commit that touched it, in
// processing order.
type FileEntry struct {
	Name    string   `json:"name"`
	Index   int      `json:"index"`
	Commits []string `json:"commits"`
}

// Document is the aggregated history of a repository.
type Document struct {
	Repo    string       `json:"repo"` // worktree root, not the .git directory
	Branch  string       `json:"branch"`
	Origin  string       `json:"origin"`
	Commits []Commit     `json:"commits"`
	Stats   []FileChange `json:"stats"`
	Files   []FileEntry  `json:"files"`
}

// NewDocument returns a document with empty, non-nil collections so that
// an empty history still serializes as [] rather than null.
func NewDocument() *Document {
	return &Document{
		Commits: []Commit{},
		Stats:   []FileChange{},
		Files:   []FileEntry{},
	}
}

// shortLen is the length of abbreviated commit ids.
const shortLen = 7

// ShortSha abbreviates a commit id to seven characters.
func ShortSha(sha string) string {
	if len(sha) > shortLen {
		return sha[:shortLen]
	}
	return sha
}

func newStatTotal(files []FileChange) StatTotal {
	var t StatTotal
	for _, f := range files {
		t.Insertions += f.Insertions
		t.Deletions += f.Deletions
	}
	t.Lines = t.Insertions + t.Deletions
	t.Files = len(files)
	return t
}
