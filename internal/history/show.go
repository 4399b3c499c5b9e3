package history

import (
	"errors"
	"strconv"
	"strings"

	"github.com/Akashdeep-Patra/filegrass/internal/git"
)

// token classifies a single line of a `git show` dump.
type token int

const (
	tokBlank           token = iota
	tokCommit                // commit <sha>
	tokAuthor                // Author: <name> <<email>>
	tokDate                  // Date:   <date>
	tokIndented              // message line in the header, context in the body
	tokDiffHeader            // diff --git a/<src> b/<dst>
	tokNewFileMode           // new file mode <mode>
	tokDeletedFileMode       // deleted file mode <mode>
	tokIndex                 // index <src>..<dst> [<mode>]
	tokBinary                // Binary files ... differ
	tokMarker                // --- a/<src> or +++ b/<dst>
	tokAdded                 // +<content>
	tokRemoved               // -<content>
	tokOther                 // hunk headers, rename/similarity lines, Merge:, ...
)

// classifyLine maps a line to its token. The header/body distinction is
// left to the parser: an indented line is a message line before the first
// diff header and diff context after it.
func classifyLine(line string) token {
	switch {
	case strings.TrimSpace(line) == "":
		return tokBlank
	case strings.HasPrefix(line, "diff "):
		if _, _, ok := splitDiffHeader(line); ok {
			return tokDiffHeader
		}
		return tokOther
	case strings.HasPrefix(line, "new file mode "):
		return tokNewFileMode
	case strings.HasPrefix(line, "deleted file mode "):
		return tokDeletedFileMode
	case strings.HasPrefix(line, "index "):
		return tokIndex
	case strings.HasPrefix(line, "Binary files "):
		return tokBinary
	case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
		return tokMarker
	case line[0] == '+':
		return tokAdded
	case line[0] == '-':
		return tokRemoved
	case strings.HasPrefix(line, "commit "):
		return tokCommit
	case strings.HasPrefix(line, "Author:"):
		return tokAuthor
	case strings.HasPrefix(line, "Date:"):
		return tokDate
	case line[0] == ' ' || line[0] == '\t':
		return tokIndented
	default:
		return tokOther
	}
}

// splitDiffHeader extracts both paths of "diff --git a/<src> b/<dst>".
// Either side may be C-quoted. Unrenamed unquoted files are split in the
// middle so paths containing " b/" still parse; otherwise the last " b/"
// separates the two sides.
func splitDiffHeader(line string) (src, dst string, ok bool) {
	rest, found := strings.CutPrefix(line, "diff --git ")
	if !found {
		return "", "", false
	}
	if strings.HasPrefix(rest, `"`) || strings.HasSuffix(rest, `"`) {
		return splitQuotedHeader(rest)
	}
	if !strings.HasPrefix(rest, "a/") {
		return "", "", false
	}
	if n := len(rest) - 5; n > 0 && n%2 == 0 {
		half := n / 2
		if rest[2+half:5+half] == " b/" && rest[2:2+half] == rest[5+half:] {
			return rest[2 : 2+half], rest[5+half:], true
		}
	}
	j := strings.LastIndex(rest, " b/")
	if j < 2 || j+3 >= len(rest) {
		return "", "", false
	}
	return rest[2:j], rest[j+3:], true
}

func splitQuotedHeader(rest string) (src, dst string, ok bool) {
	var left, right string
	if rest[0] == '"' {
		end := closingQuote(rest)
		if end < 0 || end+2 > len(rest) || rest[end+1] != ' ' {
			return "", "", false
		}
		left, right = rest[:end+1], rest[end+2:]
	} else {
		i := strings.LastIndex(rest, ` "`)
		if i < 0 {
			return "", "", false
		}
		left, right = rest[:i], rest[i+1:]
	}
	src, okSrc := headerPath(left, "a/")
	dst, okDst := headerPath(right, "b/")
	if !okSrc || !okDst {
		return "", "", false
	}
	return src, dst, true
}

// closingQuote returns the index of the quote ending the C-quoted string
// at the start of s, or -1.
func closingQuote(s string) int {
	for i := 1; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '"':
			return i
		}
	}
	return -1
}

// headerPath unquotes one side of a diff header and strips its prefix.
func headerPath(s, prefix string) (string, bool) {
	if strings.HasPrefix(s, `"`) {
		u, err := strconv.Unquote(s)
		if err != nil {
			return "", false
		}
		s = u
	}
	path, ok := strings.CutPrefix(s, prefix)
	return path, ok && path != ""
}

// showParser is the two-phase state machine behind ParseShow.
type showParser struct {
	inBody bool

	sha     string
	author  Author
	date    string
	message []string
	blanks  int // blank lines seen since the last message line

	files []FileChange
	cur    *FileChange
	inHunk bool // past the first @@ of the open file block
	ins    int
	del    int
}

// ParseShow parses the text dump of a single commit (header followed by
// its unified diff) into a one-commit Document. Insertions and deletions
// are counted from the +/- lines of each file block.
func ParseShow(raw string) (*Document, error) {
	p := &showParser{}
	lines := strings.Split(strings.TrimRight(raw, "\n"), "\n")
	for i, line := range lines {
		var err error
		if p.inBody {
			err = p.body(line)
		} else {
			err = p.header(line)
		}
		if err != nil {
			var pe *ParseError
			if errors.As(err, &pe) {
				pe.Line = i + 1
				pe.Text = line
			}
			return nil, err
		}
	}
	p.closeFile()
	if p.sha == "" {
		return nil, &ParseError{Reason: "missing commit header"}
	}
	return p.document(), nil
}

func (p *showParser) header(line string) error {
	switch classifyLine(line) {
	case tokCommit:
		if fields := strings.Fields(strings.TrimPrefix(line, "commit ")); len(fields) > 0 {
			p.sha = fields[0]
		}
	case tokAuthor:
		p.author = parseAuthor(strings.TrimSpace(strings.TrimPrefix(line, "Author:")))
	case tokDate:
		p.date = strings.TrimSpace(strings.TrimPrefix(line, "Date:"))
	case tokIndented:
		if len(p.message) > 0 {
			for ; p.blanks > 0; p.blanks-- {
				p.message = append(p.message, "")
			}
		}
		p.blanks = 0
		p.message = append(p.message, trimIndent(line))
	case tokBlank:
		p.blanks++
	case tokDiffHeader:
		if p.sha == "" {
			return &ParseError{Reason: "diff before commit header"}
		}
		p.inBody = true
		p.openFile(line)
	case tokNewFileMode, tokDeletedFileMode, tokIndex, tokBinary, tokMarker, tokAdded, tokRemoved:
		return &ParseError{Reason: "diff line outside of a file block"}
	}
	return nil
}

func (p *showParser) body(line string) error {
	tok := classifyLine(line)
	if tok == tokDiffHeader {
		p.closeFile()
		p.openFile(line)
		return nil
	}
	if p.cur == nil {
		return &ParseError{Reason: "diff line outside of a file block"}
	}
	switch tok {
	case tokNewFileMode:
		p.cur.Type = git.ChangeNew
		p.cur.Mode = strings.TrimSpace(strings.TrimPrefix(line, "new file mode "))
	case tokDeletedFileMode:
		p.cur.Type = git.ChangeDeleted
		p.cur.Mode = strings.TrimSpace(strings.TrimPrefix(line, "deleted file mode "))
	case tokIndex:
		fields := strings.Fields(strings.TrimPrefix(line, "index "))
		if len(fields) > 0 {
			if src, dst, ok := strings.Cut(fields[0], ".."); ok {
				p.cur.Src, p.cur.Dst = src, dst
			}
		}
		if len(fields) > 1 && p.cur.Mode == "" {
			p.cur.Mode = fields[1]
		}
	case tokBinary:
		p.cur.Binary = true
	case tokOther:
		if strings.HasPrefix(line, "@@") {
			p.inHunk = true
		}
	case tokMarker:
		if !p.inHunk {
			break
		}
		if line[0] == '+' {
			p.ins++
		} else {
			p.del++
		}
	case tokAdded:
		p.ins++
	case tokRemoved:
		p.del++
	}
	return nil
}

func (p *showParser) openFile(line string) {
	src, dst, _ := splitDiffHeader(line)
	p.cur = &FileChange{
		Path:     dst,
		Type:     git.ChangeModified,
		StatPath: RenamePath{Path: dst, Src: src, Dst: dst},
	}
	p.ins, p.del = 0, 0
	p.inHunk = false
}

// closeFile commits the counters of the open file block.
func (p *showParser) closeFile() {
	if p.cur == nil {
		return
	}
	p.cur.Insertions = p.ins
	p.cur.Deletions = p.del
	p.cur.Lines = p.ins + p.del
	p.files = append(p.files, *p.cur)
	p.cur = nil
}

func (p *showParser) document() *Document {
	short := ShortSha(p.sha)
	doc := NewDocument()
	for i := range p.files {
		p.files[i].ShaShort = short
		p.files[i].Index = i + 1
		doc.Files = append(doc.Files, FileEntry{
			Name:    p.files[i].Path,
			Index:   i + 1,
			Commits: []string{short},
		})
	}
	doc.Stats = append(doc.Stats, p.files...)
	doc.Commits = append(doc.Commits, Commit{
		Sha:       p.sha,
		ShaShort:  short,
		Author:    p.author,
		Date:      p.date,
		Message:   strings.Join(p.message, "\n"),
		Index:     1,
		StatTotal: newStatTotal(p.files),
		Files:     p.files,
	})
	return doc
}

// parseAuthor splits "Name <email>".
func parseAuthor(s string) Author {
	i := strings.LastIndex(s, " <")
	if i < 0 || !strings.HasSuffix(s, ">") {
		return Author{Name: s}
	}
	return Author{Name: s[:i], Email: s[i+2 : len(s)-1]}
}

func trimIndent(line string) string {
	if strings.HasPrefix(line, "    ") {
		return line[4:]
	}
	return strings.TrimLeft(line, " \t")
}
