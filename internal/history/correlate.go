package history

import "github.com/Akashdeep-Patra/filegrass/internal/git"

// Correlator joins a diff's file list against its stat table.
//
// Stat keys are resolved once and indexed by destination path, so each
// lookup is a map hit instead of a scan that re-parses rename notation.
// When two keys resolve to the same destination the first one in table
// order wins.
type Correlator struct {
	orientation git.Orientation
	stats       []git.StatEntry
	paths       []RenamePath
	byDst       map[string]int
}

// NewCorrelator indexes a stat table. For inverted diffs every key is
// inverted before indexing, so lookups always use the path the file has
// in the commit itself.
func NewCorrelator(stats []git.StatEntry, orientation git.Orientation) *Correlator {
	c := &Correlator{
		orientation: orientation,
		stats:       stats,
		paths:       make([]RenamePath, len(stats)),
		byDst:       make(map[string]int, len(stats)),
	}
	for i, s := range stats {
		rp := ResolveRenamePath(s.Key)
		if orientation == git.Inverted {
			rp = rp.Invert()
		}
		c.paths[i] = rp
		if _, dup := c.byDst[rp.Dst]; !dup {
			c.byDst[rp.Dst] = i
		}
	}
	return c
}

// Lookup returns the resolved stat key and counts for a path.
func (c *Correlator) Lookup(path string) (RenamePath, git.StatEntry, bool) {
	i, ok := c.byDst[path]
	if !ok {
		return RenamePath{}, git.StatEntry{}, false
	}
	return c.paths[i], c.stats[i], true
}

// Correlate merges every file entry with its stat row. A file without a
// stat row is a *CorrelationError.
func (c *Correlator) Correlate(files []git.DiffFile) ([]FileChange, error) {
	out := make([]FileChange, 0, len(files))
	for _, f := range files {
		rp, stat, ok := c.Lookup(f.Path)
		if !ok {
			return nil, &CorrelationError{Path: f.Path}
		}
		fc := FileChange{
			Path:       f.Path,
			Mode:       f.Mode,
			Type:       f.Type,
			Src:        f.Src,
			Dst:        f.Dst,
			Binary:     f.Binary || stat.Binary,
			StatPath:   rp,
			Insertions: stat.Insertions,
			Deletions:  stat.Deletions,
		}
		if c.orientation == git.Inverted {
			fc.Type = f.Type.Invert()
			fc.Src, fc.Dst = f.Dst, f.Src
			fc.Insertions, fc.Deletions = stat.Deletions, stat.Insertions
		}
		fc.Lines = fc.Insertions + fc.Deletions
		out = append(out, fc)
	}
	return out, nil
}
