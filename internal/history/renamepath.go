package history

import (
	"regexp"
	"strings"
)

var (
	// bracedRename matches the partial notation "prefix{old => new}suffix".
	// Either side may be empty when a directory level is added or removed.
	bracedRename = regexp.MustCompile(`\{([^{}]*) => ([^{}]*)\}`)
	// bareRename matches the whole-path notation "old => new".
	bareRename = regexp.MustCompile(`^(.+) => (.+)$`)
)

// RenamePath is a diff stat key resolved into its source and destination
// paths. Src == Dst iff the file was not renamed.
type RenamePath struct {
	Path string `json:"path"`
	Src  string `json:"src"`
	Dst  string `json:"dst"`
}

// IsRename reports whether the path changed.
func (r RenamePath) IsRename() bool { return r.Src != r.Dst }

// ResolveRenamePath parses a diff stat key. Keys without rename notation,
// and braces with both sides empty, resolve to {key, key, key}. An empty
// brace side collapses its separator: "dir/{ => sub}/f" has Src "dir/f".
func ResolveRenamePath(key string) RenamePath {
	if m := bracedRename.FindStringSubmatchIndex(key); m != nil {
		before, after := key[m[2]:m[3]], key[m[4]:m[5]]
		if before == "" && after == "" {
			return RenamePath{Path: key, Src: key, Dst: key}
		}
		prefix, suffix := key[:m[0]], key[m[1]:]
		return RenamePath{
			Path: key,
			Src:  splice(prefix, before, suffix),
			Dst:  splice(prefix, after, suffix),
		}
	}
	if m := bareRename.FindStringSubmatch(key); m != nil {
		return RenamePath{Path: key, Src: m[1], Dst: m[2]}
	}
	return RenamePath{Path: key, Src: key, Dst: key}
}

// splice substitutes part between prefix and suffix. An empty part stands
// for a removed directory level, so the separator it leaves behind is
// dropped: "dir/{ => sub}/f" has source "dir/f", not "dir//f".
func splice(prefix, part, suffix string) string {
	if part == "" && strings.HasPrefix(suffix, "/") &&
		(prefix == "" || strings.HasSuffix(prefix, "/")) {
		suffix = suffix[1:]
	}
	return prefix + part + suffix
}

// Invert swaps source and destination and rewrites Path in the same
// notation, so that Invert().Invert() == r.
func (r RenamePath) Invert() RenamePath {
	if !r.IsRename() {
		return r
	}
	path := r.Dst + " => " + r.Src
	if m := bracedRename.FindStringSubmatchIndex(r.Path); m != nil {
		before, after := r.Path[m[2]:m[3]], r.Path[m[4]:m[5]]
		path = r.Path[:m[0]] + "{" + after + " => " + before + "}" + r.Path[m[1]:]
	}
	return RenamePath{Path: path, Src: r.Dst, Dst: r.Src}
}
