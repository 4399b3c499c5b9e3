package history

import (
	"errors"
	"fmt"
)

// ErrNoParent is returned when a commit without a parent reaches the
// diff builder. Root commits are handled by ParseShow instead.
var ErrNoParent = errors.New("commit has no parent")

// UnsupportedCommitError reports a merge commit, which has no single
// parent to diff against.
type UnsupportedCommitError struct {
	Sha     string
	Parents int
}

func (e *UnsupportedCommitError) Error() string {
	return fmt.Sprintf("commit %s has %d parents: merge commits are not supported", ShortSha(e.Sha), e.Parents)
}

// CorrelationError reports a changed file that has no row in its diff stat
// table. The two views of the diff disagree, so the output cannot be trusted.
type CorrelationError struct {
	Sha  string
	Path string
}

func (e *CorrelationError) Error() string {
	if e.Sha == "" {
		return fmt.Sprintf("no diff stat for %q", e.Path)
	}
	return fmt.Sprintf("commit %s: no diff stat for %q", ShortSha(e.Sha), e.Path)
}

// ParseError reports a commit dump that is not well formed.
type ParseError struct {
	Line   int // 1-based; 0 when the error is about the whole input.
	Text   string
	Reason string
}

func (e *ParseError) Error() string {
	if e.Line == 0 {
		return "parse commit dump: " + e.Reason
	}
	return fmt.Sprintf("parse commit dump: line %d: %s: %q", e.Line, e.Reason, e.Text)
}
