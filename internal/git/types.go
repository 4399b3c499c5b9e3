package git

// ZeroID is the blob id git reports for the missing side of an added or
// deleted file.
const ZeroID = "0000000000000000000000000000000000000000"

// ChangeType classifies how a commit touched a file.
type ChangeType string

// File change types.
const (
	ChangeNew      ChangeType = "new"
	ChangeModified ChangeType = "modified"
	ChangeDeleted  ChangeType = "deleted"
)

// Invert swaps new and deleted; modified is unchanged.
func (t ChangeType) Invert() ChangeType {
	switch t {
	case ChangeNew:
		return ChangeDeleted
	case ChangeDeleted:
		return ChangeNew
	default:
		return t
	}
}

// Orientation tells in which temporal direction a Diff was computed.
type Orientation int

// Diff orientations.
const (
	// Forward diffs go from the parent to the commit.
	Forward Orientation = iota
	// Inverted diffs go from the commit back to its parent, as some
	// libraries compute "diff against parent".
	Inverted
)

// String returns the orientation name.
func (o Orientation) String() string {
	if o == Inverted {
		return "inverted"
	}
	return "forward"
}

// RepoInfo identifies the repository being traversed.
type RepoInfo struct {
	Root   string // Absolute path to the worktree root.
	GitDir string // Path to the .git directory.
	Origin string // Fetch URL of the "origin" remote, empty if none.
	Branch string // Current branch, or short hash when detached.
}

// LogEntry is a single commit as listed by the log traversal.
type LogEntry struct {
	Sha         string
	AuthorName  string
	AuthorEmail string
	Date        string
	Message     string
	Parents     []string
}

// IsRoot reports whether the commit has no parent.
func (e LogEntry) IsRoot() bool { return len(e.Parents) == 0 }

// DiffFile is one changed file of a diff, keyed by its current path.
type DiffFile struct {
	Path   string
	Mode   string
	Type   ChangeType
	Src    string // Blob id before the change.
	Dst    string // Blob id after the change.
	Binary bool
}

// StatEntry is one row of a diff stat table. Key may carry rename
// notation, e.g. "src/{old.go => new.go}" or "old.go => new.go".
type StatEntry struct {
	Key        string
	Insertions int
	Deletions  int
	Binary     bool
}

// Diff is the difference between a commit and its parent, exposed both as
// a file list and as a stat table in table order.
type Diff struct {
	Files       []DiffFile
	Stats       []StatEntry
	Orientation Orientation
}
