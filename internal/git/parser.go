package git

import (
	"fmt"
	"strconv"
	"strings"
)

// ── Log parsing ─────────────────────────────────────────────────────────────

const (
	logFormat    = "%H%x00%an%x00%ae%x00%ai%x00%P%x00%B"
	logSeparator = "%x01"
)

// LogFormatFlag returns the --format flag for git log.
func LogFormatFlag() string {
	return fmt.Sprintf("--format=%s%s", logFormat, logSeparator)
}

// ParseLogOutput parses the raw output of git log using our custom format.
// Uses IndexByte scanning instead of Split to avoid allocating a large
// []string for repos with thousands of commits.
func ParseLogOutput(out string) []LogEntry {
	if len(out) == 0 {
		return nil
	}
	est := len(out) / 200
	if est < 8 {
		est = 8
	}
	entries := make([]LogEntry, 0, est)

	for len(out) > 0 {
		idx := strings.IndexByte(out, '\x01')
		var raw string
		if idx < 0 {
			raw = out
			out = ""
		} else {
			raw = out[:idx]
			out = out[idx+1:]
		}
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if e, ok := parseLogEntry(raw); ok {
			entries = append(entries, e)
		}
	}
	return entries
}

func parseLogEntry(raw string) (LogEntry, bool) {
	parts := strings.SplitN(raw, "\x00", 6)
	if len(parts) < 6 {
		return LogEntry{}, false
	}
	e := LogEntry{
		Sha:         strings.TrimSpace(parts[0]),
		AuthorName:  strings.TrimSpace(parts[1]),
		AuthorEmail: strings.TrimSpace(parts[2]),
		Date:        strings.TrimSpace(parts[3]),
		Message:     strings.TrimSpace(parts[5]),
	}
	if p := strings.TrimSpace(parts[4]); p != "" {
		e.Parents = strings.Fields(p)
	}
	return e, true
}

// ── Diff parsing ────────────────────────────────────────────────────────────

// ParseRawDiff parses `git diff --raw -z --no-abbrev`.
// Each record is ":srcMode dstMode srcSha dstSha STATUS\0path\0", with a
// second path for renames and copies.
func ParseRawDiff(out string) ([]DiffFile, error) {
	if len(out) == 0 {
		return nil, nil
	}
	tokens := strings.Split(strings.TrimRight(out, "\x00"), "\x00")
	files := make([]DiffFile, 0, len(tokens)/2)

	for i := 0; i < len(tokens); i++ {
		meta := strings.TrimSpace(tokens[i])
		if meta == "" {
			continue
		}
		if !strings.HasPrefix(meta, ":") {
			return nil, fmt.Errorf("raw diff: unexpected record %q", meta)
		}
		fields := strings.Fields(meta[1:])
		if len(fields) < 5 || fields[4] == "" {
			return nil, fmt.Errorf("raw diff: malformed record %q", meta)
		}
		status := fields[4][0]

		i++
		if i >= len(tokens) {
			return nil, fmt.Errorf("raw diff: missing path for %q", meta)
		}
		path := tokens[i]
		if status == 'R' || status == 'C' {
			i++
			if i >= len(tokens) {
				return nil, fmt.Errorf("raw diff: missing destination for %q", meta)
			}
			path = tokens[i]
		}

		f := DiffFile{
			Path: path,
			Mode: fields[1],
			Type: ChangeModified,
			Src:  fields[2],
			Dst:  fields[3],
		}
		switch status {
		case 'A', 'C':
			f.Type = ChangeNew
		case 'D':
			f.Type = ChangeDeleted
			f.Mode = fields[0]
		}
		files = append(files, f)
	}
	return files, nil
}

// ParseNumstat parses `git diff --numstat` (without -z, so rename keys keep
// their "{old => new}" notation). Binary files report "-" for both counts.
func ParseNumstat(out string) []StatEntry {
	if strings.TrimSpace(out) == "" {
		return nil
	}
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	stats := make([]StatEntry, 0, len(lines))
	for _, line := range lines {
		parts := strings.SplitN(line, "\t", 3)
		if len(parts) < 3 {
			continue
		}
		s := StatEntry{Key: unquotePath(parts[2])}
		if parts[0] == "-" && parts[1] == "-" {
			s.Binary = true
		} else {
			s.Insertions, _ = strconv.Atoi(parts[0])
			s.Deletions, _ = strconv.Atoi(parts[1])
		}
		stats = append(stats, s)
	}
	return stats
}

// unquotePath undoes git's C-style quoting of paths with special characters.
func unquotePath(p string) string {
	if len(p) < 2 || p[0] != '"' || p[len(p)-1] != '"' {
		return p
	}
	if s, err := strconv.Unquote(p); err == nil {
		return s
	}
	return p
}

// ── Remote parsing ──────────────────────────────────────────────────────────

// Remote represents a configured Git remote.
type Remote struct {
	Name     string
	FetchURL string
	PushURL  string
}

// ParseRemoteOutput parses `git remote -v`.
func ParseRemoteOutput(out string) []Remote {
	if len(out) == 0 {
		return nil
	}
	seen := map[string]*Remote{}
	var order []string
	for _, line := range strings.Split(strings.TrimRight(out, "\n"), "\n") {
		fields := strings.Fields(line)
		if len(fields) < 3 {
			continue
		}
		name := fields[0]
		url := fields[1]
		kind := strings.Trim(fields[2], "()")
		r, ok := seen[name]
		if !ok {
			r = &Remote{Name: name}
			seen[name] = r
			order = append(order, name)
		}
		switch kind {
		case "fetch":
			r.FetchURL = url
		case "push":
			r.PushURL = url
		}
	}
	remotes := make([]Remote, 0, len(order))
	for _, name := range order {
		remotes = append(remotes, *seen[name])
	}
	return remotes
}

// OriginURL returns the fetch URL of the "origin" remote, or "".
func OriginURL(remotes []Remote) string {
	for _, r := range remotes {
		if r.Name == "origin" {
			return r.FetchURL
		}
	}
	return ""
}
