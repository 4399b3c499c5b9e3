package git

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// ErrNotARepo is returned when the path is not inside a Git repository.
var ErrNotARepo = errors.New("not a git repository")

// cmdTimeout is the maximum duration any single git command may run.
// Prevents hangs on huge repos.
const cmdTimeout = 30 * time.Second

// CLIService implements Source by shelling out to the git CLI.
// All commands are read-only:
//   - GIT_OPTIONAL_LOCKS=0 on every command (no lock contention)
//   - Context-based timeouts prevent hangs
//   - Stdout/Stderr separated so stderr noise doesn't corrupt output
type CLIService struct {
	root   string // Absolute path to the repo root.
	gitDir string // Path to the .git directory.
}

// Compile-time check that CLIService implements Source.
var _ Source = (*CLIService)(nil)

// NewCLIService opens a Git repository at the given path.
func NewCLIService(ctx context.Context, path string) (*CLIService, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}
	topLevel, err := runGit(ctx, abs, readEnv, "rev-parse", "--show-toplevel")
	if err != nil {
		return nil, ErrNotARepo
	}
	gitDir, err := runGit(ctx, abs, readEnv, "rev-parse", "--git-dir")
	if err != nil {
		return nil, fmt.Errorf("finding .git directory: %w", err)
	}
	gd := strings.TrimSpace(gitDir)
	if !filepath.IsAbs(gd) {
		gd = filepath.Join(strings.TrimSpace(topLevel), gd)
	}
	return &CLIService{
		root:   strings.TrimSpace(topLevel),
		gitDir: gd,
	}, nil
}

// RepoRoot returns the repository root path.
func (s *CLIService) RepoRoot() string { return s.root }

// GitDir returns the path to the .git directory.
func (s *CLIService) GitDir() string { return s.gitDir }

// ── helpers ─────────────────────────────────────────────────────────────────

// readEnv is the environment set on all git commands.
// GIT_OPTIONAL_LOCKS=0 prevents git from acquiring optional locks,
// which is critical in large repos where lock contention stalls readers.
var readEnv = []string{"GIT_OPTIONAL_LOCKS=0", "LC_ALL=C"}

// run executes a git command at the repo root.
func (s *CLIService) run(ctx context.Context, args ...string) (string, error) {
	return runGit(ctx, s.root, readEnv, args...)
}

// runGit executes a git command with a timeout derived from ctx.
// Stdout and stderr are separated so stderr noise doesn't corrupt output.
func runGit(ctx context.Context, dir string, extraEnv []string, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, cmdTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir

	if len(extraEnv) > 0 {
		cmd.Env = append(os.Environ(), extraEnv...)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		errMsg := strings.TrimSpace(stderr.String())
		if errMsg == "" {
			errMsg = strings.TrimSpace(stdout.String())
		}
		return "", fmt.Errorf("git %s: %s: %w", strings.Join(args, " "), errMsg, err)
	}
	return stdout.String(), nil
}

// ── Repository info ─────────────────────────────────────────────────────────

// Info returns the repository root, origin URL and current branch.
func (s *CLIService) Info(ctx context.Context) (RepoInfo, error) {
	info := RepoInfo{Root: s.root, GitDir: s.gitDir}

	branch, err := s.head(ctx)
	if err != nil {
		return RepoInfo{}, err
	}
	info.Branch = branch

	out, err := s.run(ctx, "remote", "-v")
	if err != nil {
		return RepoInfo{}, fmt.Errorf("listing remotes: %w", err)
	}
	info.Origin = OriginURL(ParseRemoteOutput(out))
	return info, nil
}

// head returns the current branch name, or the short hash when detached.
func (s *CLIService) head(ctx context.Context) (string, error) {
	ref, err := s.run(ctx, "symbolic-ref", "--short", "HEAD")
	if err != nil {
		hash, hashErr := s.run(ctx, "rev-parse", "--short", "HEAD")
		if hashErr != nil {
			return "", fmt.Errorf("getting HEAD: %w", err)
		}
		return strings.TrimSpace(hash), nil
	}
	return strings.TrimSpace(ref), nil
}

// hasCommits reports whether HEAD resolves to a commit.
func (s *CLIService) hasCommits(ctx context.Context) bool {
	_, err := s.run(ctx, "rev-parse", "--verify", "--quiet", "HEAD^{commit}")
	return err == nil
}

// ── Commits ─────────────────────────────────────────────────────────────────

// Log returns up to limit commits reachable from HEAD, newest first.
// An unborn HEAD yields an empty list.
func (s *CLIService) Log(ctx context.Context, limit int) ([]LogEntry, error) {
	if !s.hasCommits(ctx) {
		return nil, nil
	}
	args := []string{"log", "--no-color", LogFormatFlag()}
	if limit > 0 {
		args = append(args, "--max-count="+strconv.Itoa(limit))
	}
	out, err := s.run(ctx, args...)
	if err != nil {
		return nil, fmt.Errorf("getting log: %w", err)
	}
	return ParseLogOutput(out), nil
}

// ── Diff ────────────────────────────────────────────────────────────────────

// Diff returns the parent..sha change list and its stat table. Both use
// rename detection so the two views describe the same file pairs.
func (s *CLIService) Diff(ctx context.Context, parent, sha string) (*Diff, error) {
	raw, err := s.run(ctx, "diff", "--raw", "-z", "--no-abbrev", "-M",
		"--no-color", "--no-ext-diff", parent, sha)
	if err != nil {
		return nil, fmt.Errorf("diffing %s..%s: %w", parent, sha, err)
	}
	files, err := ParseRawDiff(raw)
	if err != nil {
		return nil, fmt.Errorf("diffing %s..%s: %w", parent, sha, err)
	}

	numstat, err := s.run(ctx, "-c", "core.quotePath=false", "diff", "--numstat", "-M",
		"--no-color", "--no-ext-diff", parent, sha)
	if err != nil {
		return nil, fmt.Errorf("diff stat %s..%s: %w", parent, sha, err)
	}

	return &Diff{
		Files:       files,
		Stats:       ParseNumstat(numstat),
		Orientation: Forward,
	}, nil
}

// ShowRaw returns the `git show` dump of a commit with full blob ids and
// ISO dates. Paths keep their a/ and b/ prefixes and are only quoted when
// they contain control characters, quotes or backslashes, whatever the
// user's diff config says.
func (s *CLIService) ShowRaw(ctx context.Context, sha string) (string, error) {
	out, err := s.run(ctx,
		"-c", "core.quotePath=false",
		"-c", "diff.noprefix=false",
		"-c", "diff.mnemonicPrefix=false",
		"show", "--no-color", "--no-ext-diff", "--no-decorate",
		"--src-prefix=a/", "--dst-prefix=b/",
		"--format=medium", "--date=iso", "--full-index", sha)
	if err != nil {
		return "", fmt.Errorf("showing commit %s: %w", sha, err)
	}
	return out, nil
}
