package history

import (
	"fmt"
	"sort"
)

// renumberCommits assigns 1..N so that the last commit in traversal order
// (the oldest one) gets index 1.
func renumberCommits(commits []Commit) {
	n := len(commits)
	for i := range commits {
		commits[i].Index = n - i
	}
}

// renumberStats assigns 1..M in list order.
func renumberStats(stats []FileChange) {
	for i := range stats {
		stats[i].Index = i + 1
	}
}

// sortFiles orders entries by name and assigns 1..K.
func sortFiles(files []FileEntry) {
	sort.SliceStable(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	for i := range files {
		files[i].Index = i + 1
	}
}

// flattenStats copies every commit's file changes into one list, stamped
// with the owning commit.
func flattenStats(commits []Commit) []FileChange {
	n := 0
	for _, c := range commits {
		n += len(c.Files)
	}
	stats := make([]FileChange, 0, n)
	for _, c := range commits {
		for _, f := range c.Files {
			f.ShaShort = c.ShaShort
			stats = append(stats, f)
		}
	}
	renumberStats(stats)
	return stats
}

// buildFileIndex groups stats by path. Each entry lists the commits that
// touched the path in the order the stats were flattened.
func buildFileIndex(stats []FileChange) []FileEntry {
	pos := make(map[string]int, len(stats))
	files := make([]FileEntry, 0, len(stats))
	for _, s := range stats {
		if i, ok := pos[s.Path]; ok {
			files[i].Commits = append(files[i].Commits, s.ShaShort)
			continue
		}
		pos[s.Path] = len(files)
		files = append(files, FileEntry{Name: s.Path, Commits: []string{s.ShaShort}})
	}
	sortFiles(files)
	return files
}

// MergeRoot folds the one-commit document of a root commit into doc. The
// root is appended last and becomes index 1; its stats are appended; its
// files extend existing entries or are inserted, then everything is
// re-sorted and renumbered.
func MergeRoot(doc, root *Document) {
	doc.Commits = append(doc.Commits, root.Commits...)
	renumberCommits(doc.Commits)

	doc.Stats = append(doc.Stats, root.Stats...)
	renumberStats(doc.Stats)

	pos := make(map[string]int, len(doc.Files))
	for i, f := range doc.Files {
		pos[f.Name] = i
	}
	for _, f := range root.Files {
		if i, ok := pos[f.Name]; ok {
			doc.Files[i].Commits = append(doc.Files[i].Commits, f.Commits...)
			continue
		}
		pos[f.Name] = len(doc.Files)
		doc.Files = append(doc.Files, FileEntry{
			Name:    f.Name,
			Commits: append([]string(nil), f.Commits...),
		})
	}
	sortFiles(doc.Files)
}

// Validate checks that indices are contiguous and line counts add up.
func (d *Document) Validate() error {
	seen := make([]bool, len(d.Commits)+1)
	for _, c := range d.Commits {
		if c.Index < 1 || c.Index > len(d.Commits) || seen[c.Index] {
			return fmt.Errorf("commit %s: index %d is not part of 1..%d", c.ShaShort, c.Index, len(d.Commits))
		}
		seen[c.Index] = true
		if t := c.StatTotal; t.Lines != t.Insertions+t.Deletions {
			return fmt.Errorf("commit %s: %d lines != %d+%d", c.ShaShort, t.Lines, t.Insertions, t.Deletions)
		}
	}
	for i, s := range d.Stats {
		if s.Index != i+1 {
			return fmt.Errorf("stat %d (%s): index %d", i, s.Path, s.Index)
		}
		if s.Lines != s.Insertions+s.Deletions {
			return fmt.Errorf("stat %s@%s: %d lines != %d+%d", s.Path, s.ShaShort, s.Lines, s.Insertions, s.Deletions)
		}
	}
	for i, f := range d.Files {
		if f.Index != i+1 {
			return fmt.Errorf("file %s: index %d at position %d", f.Name, f.Index, i+1)
		}
		if i > 0 && d.Files[i-1].Name >= f.Name {
			return fmt.Errorf("file %s: not sorted after %s", f.Name, d.Files[i-1].Name)
		}
	}
	return nil
}
