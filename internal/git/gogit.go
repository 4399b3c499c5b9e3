package git

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	fdiff "github.com/go-git/go-git/v5/plumbing/format/diff"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
	"github.com/go-git/go-git/v5/utils/merkletrie"
)

// dateLayout matches git's --date=iso output so both backends emit the
// same date strings.
const dateLayout = "2006-01-02 15:04:05 -0700"

// GoGitService implements Source in-process with go-git. No git binary is
// needed; rename detection uses go-git's defaults.
type GoGitService struct {
	repo   *gogit.Repository
	root   string
	gitDir string
}

// Compile-time check that GoGitService implements Source.
var _ Source = (*GoGitService)(nil)

// NewGoGitService opens the repository containing path.
func NewGoGitService(path string) (*GoGitService, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}
	repo, err := gogit.PlainOpenWithOptions(abs, &gogit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, gogit.ErrRepositoryNotExists) {
			return nil, ErrNotARepo
		}
		return nil, fmt.Errorf("opening repository: %w", err)
	}
	root := abs
	if wt, wtErr := repo.Worktree(); wtErr == nil {
		root = wt.Filesystem.Root()
	}
	return &GoGitService{
		repo:   repo,
		root:   root,
		gitDir: filepath.Join(root, ".git"),
	}, nil
}

// Info returns the repository root, origin URL and current branch.
func (s *GoGitService) Info(_ context.Context) (RepoInfo, error) {
	info := RepoInfo{Root: s.root, GitDir: s.gitDir}

	ref, err := s.repo.Head()
	switch {
	case errors.Is(err, plumbing.ErrReferenceNotFound):
		// Unborn branch: nothing to report yet.
	case err != nil:
		return RepoInfo{}, fmt.Errorf("getting HEAD: %w", err)
	case ref.Name().IsBranch():
		info.Branch = ref.Name().Short()
	default:
		info.Branch = shortSha(ref.Hash().String())
	}

	remote, err := s.repo.Remote("origin")
	switch {
	case errors.Is(err, gogit.ErrRemoteNotFound):
	case err != nil:
		return RepoInfo{}, fmt.Errorf("reading origin: %w", err)
	default:
		if urls := remote.Config().URLs; len(urls) > 0 {
			info.Origin = urls[0]
		}
	}
	return info, nil
}

// Log returns up to limit commits reachable from HEAD, newest first.
func (s *GoGitService) Log(ctx context.Context, limit int) ([]LogEntry, error) {
	ref, err := s.repo.Head()
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting HEAD: %w", err)
	}

	iter, err := s.repo.Log(&gogit.LogOptions{From: ref.Hash(), Order: gogit.LogOrderCommitterTime})
	if err != nil {
		return nil, fmt.Errorf("getting log: %w", err)
	}
	defer iter.Close()

	var entries []LogEntry
	err = iter.ForEach(func(c *object.Commit) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if limit > 0 && len(entries) >= limit {
			return storer.ErrStop
		}
		entries = append(entries, entryFromCommit(c))
		return nil
	})
	if err != nil && !errors.Is(err, storer.ErrStop) {
		return nil, fmt.Errorf("getting log: %w", err)
	}
	return entries, nil
}

func entryFromCommit(c *object.Commit) LogEntry {
	e := LogEntry{
		Sha:         c.Hash.String(),
		AuthorName:  c.Author.Name,
		AuthorEmail: c.Author.Email,
		Date:        c.Author.When.Format(dateLayout),
		Message:     strings.TrimSpace(c.Message),
	}
	for _, p := range c.ParentHashes {
		e.Parents = append(e.Parents, p.String())
	}
	return e
}

// Diff returns the parent..sha change list and a stat table whose keys use
// the bare "old => new" rename notation.
func (s *GoGitService) Diff(ctx context.Context, parent, sha string) (*Diff, error) {
	from, err := s.tree(parent)
	if err != nil {
		return nil, err
	}
	to, err := s.tree(sha)
	if err != nil {
		return nil, err
	}

	changes, err := object.DiffTreeWithOptions(ctx, from, to, object.DefaultDiffTreeOptions)
	if err != nil {
		return nil, fmt.Errorf("diffing %s..%s: %w", parent, sha, err)
	}
	patch, err := changes.PatchContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("patching %s..%s: %w", parent, sha, err)
	}

	files := make([]DiffFile, 0, len(changes))
	for _, ch := range changes {
		f, err := diffFileFromChange(ch)
		if err != nil {
			return nil, fmt.Errorf("diffing %s..%s: %w", parent, sha, err)
		}
		files = append(files, f)
	}

	fps := patch.FilePatches()
	stats := make([]StatEntry, 0, len(fps))
	for _, fp := range fps {
		stats = append(stats, statFromFilePatch(fp))
	}

	return &Diff{Files: files, Stats: stats, Orientation: Forward}, nil
}

func diffFileFromChange(ch *object.Change) (DiffFile, error) {
	action, err := ch.Action()
	if err != nil {
		return DiffFile{}, err
	}
	f := DiffFile{
		Path: ch.To.Name,
		Mode: modeString(ch.To.TreeEntry.Mode),
		Type: ChangeModified,
		Src:  ch.From.TreeEntry.Hash.String(),
		Dst:  ch.To.TreeEntry.Hash.String(),
	}
	switch action {
	case merkletrie.Insert:
		f.Type = ChangeNew
	case merkletrie.Delete:
		f.Type = ChangeDeleted
		f.Path = ch.From.Name
		f.Mode = modeString(ch.From.TreeEntry.Mode)
	}
	return f, nil
}

// statFromFilePatch names a file patch the way go-git's own Patch.Stats
// does ("old => new" for renames) and counts its added and removed lines.
func statFromFilePatch(fp fdiff.FilePatch) StatEntry {
	from, to := fp.Files()
	var s StatEntry
	switch {
	case from == nil:
		s.Key = to.Path()
	case to == nil:
		s.Key = from.Path()
	case from.Path() != to.Path():
		s.Key = from.Path() + " => " + to.Path()
	default:
		s.Key = from.Path()
	}
	if fp.IsBinary() {
		s.Binary = true
		return s
	}
	for _, chunk := range fp.Chunks() {
		switch chunk.Type() {
		case fdiff.Add:
			s.Insertions += countLines(chunk.Content())
		case fdiff.Delete:
			s.Deletions += countLines(chunk.Content())
		}
	}
	return s
}

// countLines counts lines in chunk text, including a final line without a
// trailing newline.
func countLines(content string) int {
	if content == "" {
		return 0
	}
	n := strings.Count(content, "\n")
	if !strings.HasSuffix(content, "\n") {
		n++
	}
	return n
}

// ShowRaw renders a commit in `git show --format=medium --date=iso
// --full-index` layout. The root commit is diffed against the empty tree.
func (s *GoGitService) ShowRaw(ctx context.Context, sha string) (string, error) {
	c, err := s.repo.CommitObject(plumbing.NewHash(sha))
	if err != nil {
		return "", fmt.Errorf("showing commit %s: %w", sha, err)
	}
	tree, err := c.Tree()
	if err != nil {
		return "", fmt.Errorf("showing commit %s: %w", sha, err)
	}
	base := &object.Tree{}
	if c.NumParents() > 0 {
		parent, err := c.Parent(0)
		if err != nil {
			return "", fmt.Errorf("showing commit %s: %w", sha, err)
		}
		if base, err = parent.Tree(); err != nil {
			return "", fmt.Errorf("showing commit %s: %w", sha, err)
		}
	}
	patch, err := base.PatchContext(ctx, tree)
	if err != nil {
		return "", fmt.Errorf("showing commit %s: %w", sha, err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "commit %s\n", c.Hash)
	fmt.Fprintf(&b, "Author: %s <%s>\n", c.Author.Name, c.Author.Email)
	fmt.Fprintf(&b, "Date:   %s\n\n", c.Author.When.Format(dateLayout))
	for _, line := range strings.Split(strings.TrimRight(c.Message, "\n"), "\n") {
		b.WriteString("    ")
		b.WriteString(line)
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
	b.WriteString(patch.String())
	return b.String(), nil
}

func (s *GoGitService) tree(sha string) (*object.Tree, error) {
	c, err := s.repo.CommitObject(plumbing.NewHash(sha))
	if err != nil {
		return nil, fmt.Errorf("reading commit %s: %w", sha, err)
	}
	t, err := c.Tree()
	if err != nil {
		return nil, fmt.Errorf("reading tree of %s: %w", sha, err)
	}
	return t, nil
}

// modeString renders a file mode like git's raw diff ("100644").
func modeString(m filemode.FileMode) string {
	if m == filemode.Empty {
		return ""
	}
	return strings.TrimLeft(m.String(), "0")
}

func shortSha(sha string) string {
	if len(sha) > 7 {
		return sha[:7]
	}
	return sha
}
