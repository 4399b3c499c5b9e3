// Package watcher reports when a repository's history may have changed.
// Only git-internal state is watched, never the working tree, so the
// number of inotify/kqueue watches stays small even in monorepos.
//
// Watched paths:
//   - .git/HEAD, .git/ORIG_HEAD → commits, resets, branch switches
//   - .git/refs/heads           → local branch updates
//   - .git/refs/tags            → tag creation/deletion
//   - .git/refs/remotes/*       → fetch/pull updates
//   - .git/packed-refs          → gc and large-repo ref storage
//
// Working-tree edits do not change history and are ignored.
package watcher

import (
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Event is sent when the watcher detects relevant Git state changes.
type Event struct {
	// Path is the last changed path of the coalesced burst.
	Path string
}

// Watch monitors ref and HEAD state under gitDir and sends an Event on the
// returned channel after each burst of changes. Bursts are coalesced via
// the debounce window plus up to 50% random jitter.
//
// gitDir should be the absolute path to the .git directory (handles worktrees
// where .git is a file pointing elsewhere).
//
// Call the returned stop function to tear down the watcher.
func Watch(gitDir string, debounce time.Duration) (<-chan Event, func(), error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, nil, err
	}

	for _, t := range targets(gitDir) {
		// Non-fatal: some dirs may not exist yet.
		_ = w.Add(t)
	}

	ch := make(chan Event, 1)
	done := make(chan struct{})

	// Jitter spreads regeneration when several watchers share one .git
	// directory.
	jitterRange := int64(debounce / 2)

	go func() {
		defer close(ch)
		var timer *time.Timer
		var last string

		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if shouldIgnore(ev.Name) {
					continue
				}
				last = ev.Name
				d := debounce
				if jitterRange > 0 {
					d += time.Duration(rand.Int64N(jitterRange))
				}
				if timer == nil {
					timer = time.NewTimer(d)
				} else {
					timer.Reset(d)
				}
			case <-timerChan(timer):
				timer = nil
				select {
				case ch <- Event{Path: last}:
				default:
				}
			case _, ok := <-w.Errors:
				if !ok {
					return
				}
			case <-done:
				return
			}
		}
	}()

	stop := func() {
		close(done)
		_ = w.Close()
	}

	return ch, stop, nil
}

// targets lists the existing directories to watch. Files such as HEAD and
// packed-refs are covered by watching gitDir itself.
func targets(gitDir string) []string {
	candidates := []string{
		gitDir,
		filepath.Join(gitDir, "refs"),
		filepath.Join(gitDir, "refs", "heads"),
		filepath.Join(gitDir, "refs", "tags"),
	}

	remotesDir := filepath.Join(gitDir, "refs", "remotes")
	candidates = append(candidates, remotesDir)
	if entries, err := os.ReadDir(remotesDir); err == nil {
		for _, e := range entries {
			if e.IsDir() {
				candidates = append(candidates, filepath.Join(remotesDir, e.Name()))
			}
		}
	}

	dirs := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && info.IsDir() {
			dirs = append(dirs, c)
		}
	}
	return dirs
}

// timerChan returns the timer's channel, or a nil channel if timer is nil.
func timerChan(t *time.Timer) <-chan time.Time {
	if t == nil {
		return nil
	}
	return t.C
}

// shouldIgnore returns true for events that cannot change history.
func shouldIgnore(path string) bool {
	base := filepath.Base(path)

	// Lock files are transient; the rename that releases them is what
	// signals the finished update.
	if strings.HasSuffix(base, ".lock") {
		return true
	}

	// Editor swap/temp files that somehow end up in .git.
	if strings.HasSuffix(base, ".swp") || strings.HasSuffix(base, ".swo") ||
		strings.HasSuffix(base, "~") || strings.HasPrefix(base, ".#") {
		return true
	}

	switch base {
	case "index", "COMMIT_EDITMSG", "FETCH_HEAD", "gc.log", "config", "description":
		return true
	}
	return strings.HasPrefix(base, "fsmonitor")
}
