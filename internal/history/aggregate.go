package history

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sourcegraph/conc/iter"

	"github.com/Akashdeep-Patra/filegrass/internal/git"
)

// MergePolicy decides what happens to commits with more than one parent.
type MergePolicy int

const (
	// SkipMerges leaves merge commits out of the history.
	SkipMerges MergePolicy = iota
	// RejectMerges aborts the aggregation on the first merge commit.
	RejectMerges
)

// ParseMergePolicy maps "skip" and "reject" to a policy.
func ParseMergePolicy(s string) (MergePolicy, error) {
	switch s {
	case "", "skip":
		return SkipMerges, nil
	case "reject":
		return RejectMerges, nil
	default:
		return SkipMerges, fmt.Errorf("unknown merge policy %q (want skip or reject)", s)
	}
}

// Aggregator builds a Document from a git.Source.
type Aggregator struct {
	src    git.Source
	limit  int
	jobs   int
	merges MergePolicy
	log    *slog.Logger
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithLimit caps the number of commits read from the log. n <= 0 reads all.
func WithLimit(n int) Option { return func(a *Aggregator) { a.limit = n } }

// WithJobs bounds how many commits are diffed concurrently. n <= 0 uses
// GOMAXPROCS.
func WithJobs(n int) Option { return func(a *Aggregator) { a.jobs = n } }

// WithMergePolicy sets how merge commits are handled.
func WithMergePolicy(p MergePolicy) Option { return func(a *Aggregator) { a.merges = p } }

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option { return func(a *Aggregator) { a.log = l } }

// NewAggregator returns an Aggregator reading from src.
func NewAggregator(src git.Source, opts ...Option) *Aggregator {
	a := &Aggregator{src: src}
	for _, opt := range opts {
		opt(a)
	}
	if a.log == nil {
		a.log = slog.Default()
	}
	return a
}

// Aggregate reads the log, builds a Commit for every single-parent commit,
// flattens their file changes into Stats, indexes Files, and finally
// merges the root commit (if the traversal reached it) from its text dump.
//
// An empty repository yields an empty Document. Any error aborts the whole
// aggregation; partial documents are never returned.
func (a *Aggregator) Aggregate(ctx context.Context) (*Document, error) {
	info, err := a.src.Info(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading repository info: %w", err)
	}
	entries, err := a.src.Log(ctx, a.limit)
	if err != nil {
		return nil, fmt.Errorf("reading log: %w", err)
	}

	doc := NewDocument()
	doc.Repo = info.Root
	doc.Branch = info.Branch
	doc.Origin = info.Origin

	var root *git.LogEntry
	work := make([]git.LogEntry, 0, len(entries))
	for i := range entries {
		e := entries[i]
		switch {
		case e.IsRoot():
			if root != nil {
				a.log.Warn("skipping additional root commit", "sha", ShortSha(e.Sha))
				continue
			}
			root = &e
		case len(e.Parents) > 1:
			if a.merges == RejectMerges {
				return nil, &UnsupportedCommitError{Sha: e.Sha, Parents: len(e.Parents)}
			}
			a.log.Warn("skipping merge commit", "sha", ShortSha(e.Sha), "parents", len(e.Parents))
		default:
			work = append(work, e)
		}
	}

	commits, err := a.buildCommits(ctx, work)
	if err != nil {
		return nil, err
	}
	renumberCommits(commits)
	doc.Commits = commits
	doc.Stats = flattenStats(commits)
	doc.Files = buildFileIndex(doc.Stats)

	if root != nil {
		raw, err := a.src.ShowRaw(ctx, root.Sha)
		if err != nil {
			return nil, fmt.Errorf("reading root commit: %w", err)
		}
		rootDoc, err := ParseShow(raw)
		if err != nil {
			return nil, fmt.Errorf("root commit %s: %w", ShortSha(root.Sha), err)
		}
		MergeRoot(doc, rootDoc)
		a.log.Info("merged root commit", "sha", ShortSha(root.Sha), "files", len(rootDoc.Files))
	}

	if err := doc.Validate(); err != nil {
		return nil, err
	}
	a.log.Debug("aggregated history",
		"commits", len(doc.Commits), "stats", len(doc.Stats), "files", len(doc.Files))
	return doc, nil
}

// buildCommits diffs every commit against its parent on a bounded pool.
// Results keep the traversal order regardless of completion order.
func (a *Aggregator) buildCommits(ctx context.Context, entries []git.LogEntry) ([]Commit, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	mapper := iter.Mapper[git.LogEntry, Commit]{MaxGoroutines: a.jobs}
	commits, err := mapper.MapErr(entries, func(e *git.LogEntry) (Commit, error) {
		diff, err := a.src.Diff(ctx, e.Parents[0], e.Sha)
		if err != nil {
			cancel()
			return Commit{}, fmt.Errorf("commit %s: %w", ShortSha(e.Sha), err)
		}
		c, err := BuildCommit(*e, diff)
		if err != nil {
			cancel()
			return Commit{}, err
		}
		a.log.Debug("built commit", "sha", c.ShaShort, "files", len(c.Files), "lines", c.StatTotal.Lines)
		return *c, nil
	})
	if err != nil {
		return nil, err
	}
	if commits == nil {
		commits = []Commit{}
	}
	return commits, nil
}
