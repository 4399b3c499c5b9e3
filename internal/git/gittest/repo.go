// Package gittest builds throwaway repositories for tests. Repositories
// are created in-process with go-git, so no git binary is required.
package gittest

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// Author is the identity every fixture commit is made with.
const (
	AuthorName  = "Fixture Author"
	AuthorEmail = "fixture@example.com"
)

// Epoch is the author date of the first fixture commit. Each following
// commit is one hour later.
var Epoch = time.Date(2024, time.January, 2, 3, 4, 5, 0, time.UTC)

// Repo is a repository under construction.
type Repo struct {
	Dir string

	t    testing.TB
	repo *gogit.Repository
	wt   *gogit.Worktree
	when time.Time
}

// New initializes an empty repository in a temporary directory.
func New(t testing.TB) *Repo {
	t.Helper()

	dir := t.TempDir()
	repo, err := gogit.PlainInit(dir, false)
	if err != nil {
		t.Fatalf("init repository: %v", err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		t.Fatalf("open worktree: %v", err)
	}
	return &Repo{Dir: dir, t: t, repo: repo, wt: wt, when: Epoch}
}

// SetOrigin adds an "origin" remote.
func (r *Repo) SetOrigin(url string) {
	r.t.Helper()
	_, err := r.repo.CreateRemote(&config.RemoteConfig{Name: "origin", URLs: []string{url}})
	if err != nil {
		r.t.Fatalf("create origin: %v", err)
	}
}

// SetConfig sets section.key in the repository's local config.
func (r *Repo) SetConfig(section, key, value string) {
	r.t.Helper()
	cfg, err := r.repo.Config()
	if err != nil {
		r.t.Fatalf("read config: %v", err)
	}
	cfg.Raw.Section(section).SetOption(key, value)
	if err := r.repo.SetConfig(cfg); err != nil {
		r.t.Fatalf("write config: %v", err)
	}
}

// Write creates or overwrites path and stages it.
func (r *Repo) Write(path, content string) {
	r.t.Helper()

	full := filepath.Join(r.Dir, filepath.FromSlash(path))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		r.t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
		r.t.Fatalf("write %s: %v", path, err)
	}
	if _, err := r.wt.Add(path); err != nil {
		r.t.Fatalf("stage %s: %v", path, err)
	}
}

// Remove deletes path from the worktree and the index.
func (r *Repo) Remove(path string) {
	r.t.Helper()
	if _, err := r.wt.Remove(path); err != nil {
		r.t.Fatalf("remove %s: %v", path, err)
	}
}

// Move renames a file without changing its content.
func (r *Repo) Move(from, to string) {
	r.t.Helper()

	data, err := os.ReadFile(filepath.Join(r.Dir, filepath.FromSlash(from)))
	if err != nil {
		r.t.Fatalf("read %s: %v", from, err)
	}
	r.Write(to, string(data))
	r.Remove(from)
}

// Commit records the staged changes and returns the new commit id.
func (r *Repo) Commit(message string) string {
	r.t.Helper()

	sig := &object.Signature{Name: AuthorName, Email: AuthorEmail, When: r.when}
	r.when = r.when.Add(time.Hour)
	h, err := r.wt.Commit(message, &gogit.CommitOptions{Author: sig, Committer: sig})
	if err != nil {
		r.t.Fatalf("commit %q: %v", message, err)
	}
	return h.String()
}

// History is the commit ids of Standard, oldest first.
type History struct {
	Root, Modify, Rename, Delete string
}

// Standard builds a four-commit history:
//
//	root    adds README.md (1 line) and src/old.js (5 lines)
//	modify  appends one line to README.md
//	rename  moves src/old.js to src/new.js and adds docs/guide.md (2 lines)
//	delete  removes docs/guide.md
func Standard(t testing.TB) (*Repo, History) {
	t.Helper()

	r := New(t)
	var h History

	r.Write("README.md", "hello\n")
	r.Write("src/old.js", "a\nb\nc\nd\ne\n")
	h.Root = r.Commit("Initial import")

	r.Write("README.md", "hello\nworld\n")
	h.Modify = r.Commit("Greet the world\n\nMore detail in the body.")

	r.Move("src/old.js", "src/new.js")
	r.Write("docs/guide.md", "x\ny\n")
	h.Rename = r.Commit("Rename old.js and add a guide")

	r.Remove("docs/guide.md")
	h.Delete = r.Commit("Drop the guide")

	return r, h
}
