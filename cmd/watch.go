package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"

	"github.com/Akashdeep-Patra/filegrass/internal/git"
	"github.com/Akashdeep-Patra/filegrass/internal/watcher"
)

// statusLine prints one line per regeneration on stderr.
type statusLine struct {
	w    io.Writer
	ok   *color.Color
	fail *color.Color
	dim  *color.Color
}

func newStatusLine(w io.Writer) *statusLine {
	return &statusLine{
		w:    w,
		ok:   color.New(color.FgGreen, color.Bold),
		fail: color.New(color.FgRed, color.Bold),
		dim:  color.New(color.Faint),
	}
}

func (s *statusLine) success(commits, size int, took time.Duration) {
	s.ok.Fprint(s.w, "✓ ")
	fmt.Fprintf(s.w, "%s commits, %s ", humanize.Comma(int64(commits)), humanize.Bytes(uint64(size)))
	s.dim.Fprintf(s.w, "in %s\n", took.Round(time.Millisecond))
}

func (s *statusLine) failure(err error) {
	s.fail.Fprint(s.w, "✗ ")
	fmt.Fprintln(s.w, err)
}

// watch regenerates the document once, then again after every burst of
// ref or HEAD changes, until ctx is cancelled. Diffs are cached across
// regenerations, so only new commits are diffed.
func (s *session) watch(ctx context.Context, out, errOut io.Writer, output string) error {
	cached := git.NewCachedService(s.src, s.cfg.CacheTTL)
	info, err := cached.Info(ctx)
	if err != nil {
		return fmt.Errorf("reading repository info: %w", err)
	}

	events, stop, err := watcher.Watch(info.GitDir, s.cfg.WatchDebounce)
	if err != nil {
		return fmt.Errorf("starting watcher: %w", err)
	}
	defer stop()

	status := newStatusLine(errOut)
	generate := func() {
		start := time.Now()
		doc, err := s.aggregate(ctx, cached)
		if err != nil {
			status.failure(err)
			return
		}
		n, err := writeDocument(out, output, doc, s.cfg.Pretty)
		if err != nil {
			status.failure(err)
			return
		}
		status.success(len(doc.Commits), n, time.Since(start))
	}

	generate()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			s.log.Debug("repository changed", "path", ev.Path, "cached", cached.Len())
			cached.Refresh()
			generate()
		}
	}
}
