package git

import "context"

// Source defines the contract for reading commit history out of a
// repository. The history engine depends on this interface, never on
// exec.Command or a git library directly.
type Source interface {
	// Info returns the repository identity.
	Info(ctx context.Context) (RepoInfo, error)

	// Log lists commits reachable from HEAD, newest first. A limit <= 0
	// lists all of them.
	Log(ctx context.Context, limit int) ([]LogEntry, error)

	// Diff returns the change between parent and sha.
	Diff(ctx context.Context, parent, sha string) (*Diff, error)

	// ShowRaw returns the `git show` text dump (header and unified diff)
	// of a commit. Used for root commits, which have no parent to diff
	// against.
	ShowRaw(ctx context.Context, sha string) (string, error)
}
