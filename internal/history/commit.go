package history

import (
	"errors"
	"fmt"

	"github.com/Akashdeep-Patra/filegrass/internal/git"
)

// BuildCommit turns one single-parent commit and its diff against that
// parent into a Commit. Index is left at zero; the aggregator owns it.
func BuildCommit(entry git.LogEntry, diff *git.Diff) (*Commit, error) {
	switch n := len(entry.Parents); {
	case n == 0:
		return nil, fmt.Errorf("building %s: %w", ShortSha(entry.Sha), ErrNoParent)
	case n > 1:
		return nil, &UnsupportedCommitError{Sha: entry.Sha, Parents: n}
	}
	if diff == nil {
		return nil, fmt.Errorf("building %s: missing diff", ShortSha(entry.Sha))
	}

	files, err := NewCorrelator(diff.Stats, diff.Orientation).Correlate(diff.Files)
	if err != nil {
		var cerr *CorrelationError
		if errors.As(err, &cerr) {
			cerr.Sha = entry.Sha
		}
		return nil, err
	}

	return &Commit{
		Sha:      entry.Sha,
		ShaShort: ShortSha(entry.Sha),
		Author: Author{
			Name:  entry.AuthorName,
			Email: entry.AuthorEmail,
		},
		Date:      entry.Date,
		Message:   entry.Message,
		StatTotal: newStatTotal(files),
		Files:     files,
	}, nil
}
