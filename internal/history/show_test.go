package history

import (
	"errors"
	"strings"
	"testing"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Akashdeep-Patra/filegrass/internal/git"
)

const shaRoot = "3333333333333333333333333333333333333333"

// showHeader renders the header git prints above a commit's diff.
func showHeader(sha, author, date string, message ...string) string {
	var b strings.Builder
	b.WriteString("commit " + sha + "\n")
	b.WriteString("Author: " + author + "\n")
	b.WriteString("Date:   " + date + "\n\n")
	for _, m := range message {
		if m == "" {
			b.WriteString("\n")
			continue
		}
		b.WriteString("    " + m + "\n")
	}
	b.WriteString("\n")
	return b.String()
}

func textLines(lines ...string) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = l + "\n"
	}
	return out
}

// fileBlock renders one file's unified diff. A nil before renders an added
// file.
func fileBlock(t *testing.T, path string, before, after []string) string {
	t.Helper()

	ud := difflib.UnifiedDiff{
		A:        before,
		B:        after,
		FromFile: "a/" + path,
		ToFile:   "b/" + path,
		Context:  3,
	}
	head := "diff --git a/" + path + " b/" + path + "\n"
	if before == nil {
		ud.FromFile = "/dev/null"
		head += "new file mode 100644\nindex 0000000..1234567\n"
	} else {
		head += "index 89abcde..1234567 100644\n"
	}
	body, err := difflib.GetUnifiedDiffString(ud)
	require.NoError(t, err)
	return head + body
}

func TestParseShow_TwoFiles(t *testing.T) {
	t.Parallel()

	raw := showHeader(shaRoot, "Grace Hopper <grace@example.com>", "2024-01-02 03:04:05 +0000",
		"Teach the parser new tricks") +
		fileBlock(t, "src/app.js", textLines("a", "b"), textLines("a", "c", "d", "e")) +
		"diff --git a/run.sh b/run.sh\nold mode 100644\nnew mode 100755\n"

	doc, err := ParseShow(raw)
	require.NoError(t, err)

	require.Len(t, doc.Commits, 1)
	c := doc.Commits[0]
	assert.Equal(t, shaRoot, c.Sha)
	assert.Equal(t, "3333333", c.ShaShort)
	assert.Equal(t, Author{Name: "Grace Hopper", Email: "grace@example.com"}, c.Author)
	assert.Equal(t, "2024-01-02 03:04:05 +0000", c.Date)
	assert.Equal(t, "Teach the parser new tricks", c.Message)
	assert.Equal(t, 1, c.Index)
	assert.Equal(t, StatTotal{Insertions: 3, Deletions: 1, Lines: 4, Files: 2}, c.StatTotal)

	require.Len(t, doc.Stats, 2)
	assert.Equal(t, "src/app.js", doc.Stats[0].Path)
	assert.Equal(t, git.ChangeModified, doc.Stats[0].Type)
	assert.Equal(t, "89abcde", doc.Stats[0].Src)
	assert.Equal(t, "1234567", doc.Stats[0].Dst)
	assert.Equal(t, "100644", doc.Stats[0].Mode)
	assert.Equal(t, 3, doc.Stats[0].Insertions)
	assert.Equal(t, 1, doc.Stats[0].Deletions)
	assert.Equal(t, 1, doc.Stats[0].Index)

	assert.Equal(t, "run.sh", doc.Stats[1].Path)
	assert.Equal(t, 0, doc.Stats[1].Lines)
	assert.Equal(t, 2, doc.Stats[1].Index)

	assert.Equal(t, []FileEntry{
		{Name: "src/app.js", Index: 1, Commits: []string{"3333333"}},
		{Name: "run.sh", Index: 2, Commits: []string{"3333333"}},
	}, doc.Files)
}

func TestParseShow_RootCommit(t *testing.T) {
	t.Parallel()

	raw := showHeader(shaRoot, "Grace Hopper <grace@example.com>", "2024-01-02 03:04:05 +0000",
		"Initial import", "", "Adds the skeleton.") +
		fileBlock(t, "main.go", nil, textLines("package main", "", "func main() {}")) +
		"diff --git a/logo.png b/logo.png\nnew file mode 100644\nindex 0000000..fedcba9\n" +
		"Binary files /dev/null and b/logo.png differ\n"

	doc, err := ParseShow(raw)
	require.NoError(t, err)

	c := doc.Commits[0]
	assert.Equal(t, "Initial import\n\nAdds the skeleton.", c.Message)
	assert.Equal(t, StatTotal{Insertions: 3, Lines: 3, Files: 2}, c.StatTotal)

	require.Len(t, doc.Stats, 2)
	assert.Equal(t, git.ChangeNew, doc.Stats[0].Type)
	assert.Equal(t, "100644", doc.Stats[0].Mode)
	assert.Equal(t, "0000000", doc.Stats[0].Src)
	assert.True(t, doc.Stats[1].Binary)
	assert.Equal(t, 0, doc.Stats[1].Lines)
}

func TestParseShow_DeletedAndRenamed(t *testing.T) {
	t.Parallel()

	raw := showHeader(shaRoot, "A <a@b.c>", "2024-01-02 03:04:05 +0000", "Shuffle") +
		"diff --git a/gone.txt b/gone.txt\n" +
		"deleted file mode 100644\n" +
		"index 5555555..0000000\n" +
		"--- a/gone.txt\n" +
		"+++ /dev/null\n" +
		"@@ -1,2 +0,0 @@\n" +
		"-one\n" +
		"-two\n" +
		"diff --git a/old name.go b/new name.go\n" +
		"similarity index 100%\n" +
		"rename from old name.go\n" +
		"rename to new name.go\n"

	doc, err := ParseShow(raw)
	require.NoError(t, err)
	require.Len(t, doc.Stats, 2)

	assert.Equal(t, git.ChangeDeleted, doc.Stats[0].Type)
	assert.Equal(t, 2, doc.Stats[0].Deletions)
	assert.Equal(t, "0000000", doc.Stats[0].Dst)

	assert.Equal(t, "new name.go", doc.Stats[1].Path)
	assert.Equal(t, "old name.go", doc.Stats[1].StatPath.Src)
	assert.Equal(t, git.ChangeModified, doc.Stats[1].Type)
}

func TestParseShow_QuotedPaths(t *testing.T) {
	t.Parallel()

	raw := showHeader(shaRoot, "A <a@b.c>", "2024-01-02 03:04:05 +0000", "Accents") +
		fileBlock(t, "a.txt", nil, textLines("one")) +
		`diff --git "a/z\303\251.txt" "b/z\303\251.txt"` + "\n" +
		"new file mode 100644\n" +
		"index 0000000..abcdef0\n" +
		"--- /dev/null\n" +
		`+++ "b/z\303\251.txt"` + "\n" +
		"@@ -0,0 +1,3 @@\n" +
		"+x\n+y\n+z\n"

	doc, err := ParseShow(raw)
	require.NoError(t, err)
	require.Len(t, doc.Stats, 2)

	assert.Equal(t, "a.txt", doc.Stats[0].Path)
	assert.Equal(t, 1, doc.Stats[0].Insertions)
	assert.Equal(t, "1234567", doc.Stats[0].Dst)

	assert.Equal(t, "zé.txt", doc.Stats[1].Path)
	assert.Equal(t, 3, doc.Stats[1].Insertions)
	assert.Equal(t, "abcdef0", doc.Stats[1].Dst)
	assert.Equal(t, git.ChangeNew, doc.Stats[1].Type)

	assert.Equal(t, StatTotal{Insertions: 4, Lines: 4, Files: 2}, doc.Commits[0].StatTotal)
	assert.Equal(t, []string{"a.txt", "zé.txt"}, []string{doc.Files[0].Name, doc.Files[1].Name})
}

func TestParseShow_QuotedFirstFile(t *testing.T) {
	t.Parallel()

	raw := showHeader(shaRoot, "A <a@b.c>", "2024-01-02 03:04:05 +0000", "Accents") +
		`diff --git "a/caf\303\251.txt" "b/caf\303\251.txt"` + "\n" +
		"new file mode 100644\n" +
		"index 0000000..abcdef0\n" +
		"--- /dev/null\n" +
		`+++ "b/caf\303\251.txt"` + "\n" +
		"@@ -0,0 +1 @@\n" +
		"+bonjour\n"

	doc, err := ParseShow(raw)
	require.NoError(t, err)
	require.Len(t, doc.Stats, 1)
	assert.Equal(t, "café.txt", doc.Stats[0].Path)
	assert.Equal(t, 1, doc.Stats[0].Lines)
}

func TestParseShow_MarkerLikeContent(t *testing.T) {
	t.Parallel()

	raw := showHeader(shaRoot, "A <a@b.c>", "2024-01-02 03:04:05 +0000", "Loop") +
		"diff --git a/loop.c b/loop.c\n" +
		"index 1111111..2222222 100644\n" +
		"--- a/loop.c\n" +
		"+++ b/loop.c\n" +
		"@@ -1,3 +1,3 @@\n" +
		" for (;;) {\n" +
		"---i;\n" +
		"+++i;\n" +
		" }\n"

	doc, err := ParseShow(raw)
	require.NoError(t, err)
	require.Len(t, doc.Stats, 1)
	assert.Equal(t, 1, doc.Stats[0].Insertions)
	assert.Equal(t, 1, doc.Stats[0].Deletions)
}

func TestParseShow_NoDiff(t *testing.T) {
	t.Parallel()

	doc, err := ParseShow(showHeader(shaRoot, "A <a@b.c>", "2024-01-02 03:04:05 +0000", "Empty"))
	require.NoError(t, err)
	require.Len(t, doc.Commits, 1)
	assert.Empty(t, doc.Stats)
	assert.Empty(t, doc.Files)
	assert.Equal(t, StatTotal{}, doc.Commits[0].StatTotal)
}

func TestParseShow_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		raw    string
		line   int
		reason string
	}{
		{
			name:   "empty input",
			raw:    "",
			reason: "missing commit header",
		},
		{
			name:   "diff before header",
			raw:    "diff --git a/x b/x\n+a\n",
			line:   1,
			reason: "diff before commit header",
		},
		{
			name:   "stray added line",
			raw:    "commit " + shaRoot + "\n+oops\n",
			line:   2,
			reason: "diff line outside of a file block",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			doc, err := ParseShow(tt.raw)
			assert.Nil(t, doc)

			var perr *ParseError
			require.True(t, errors.As(err, &perr))
			assert.Equal(t, tt.line, perr.Line)
			assert.Equal(t, tt.reason, perr.Reason)
		})
	}
}

func TestSplitDiffHeader(t *testing.T) {
	t.Parallel()

	tests := []struct {
		line     string
		src, dst string
		ok       bool
	}{
		{"diff --git a/x.go b/x.go", "x.go", "x.go", true},
		{"diff --git a/old.go b/new.go", "old.go", "new.go", true},
		{"diff --git a/a b/c.txt b/a b/c.txt", "a b/c.txt", "a b/c.txt", true},
		{`diff --git "a/caf\303\251.txt" "b/caf\303\251.txt"`, "café.txt", "café.txt", true},
		{`diff --git "a/tab\there.txt" "b/tab\there.txt"`, "tab\there.txt", "tab\there.txt", true},
		{`diff --git a/plain.txt "b/say \"hi\".txt"`, "plain.txt", `say "hi".txt`, true},
		{`diff --git "a/back\\slash" b/fine`, `back\slash`, "fine", true},
		{`diff --git "a/unterminated b/x`, "", "", false},
		{"diff --git x.go x.go", "", "", false},
		{"diff --cc merged.go", "", "", false},
	}
	for _, tt := range tests {
		src, dst, ok := splitDiffHeader(tt.line)
		assert.Equal(t, tt.ok, ok, tt.line)
		assert.Equal(t, tt.src, src, tt.line)
		assert.Equal(t, tt.dst, dst, tt.line)
	}
}

func TestClassifyLine(t *testing.T) {
	t.Parallel()

	tests := map[string]token{
		"":                                tokBlank,
		"   ":                             tokBlank,
		"commit " + shaRoot:               tokCommit,
		"Author: A <a@b.c>":               tokAuthor,
		"Date:   today":                   tokDate,
		"    message":                     tokIndented,
		"diff --git a/x b/x":              tokDiffHeader,
		"new file mode 100644":            tokNewFileMode,
		"deleted file mode 100755":        tokDeletedFileMode,
		"index abc..def 100644":           tokIndex,
		"Binary files a/x and b/x differ": tokBinary,
		"--- a/x":                         tokMarker,
		"+++ b/x":                         tokMarker,
		"+added":                          tokAdded,
		"-removed":                        tokRemoved,
		"@@ -1 +1 @@":                     tokOther,
		"rename from x":                   tokOther,
	}
	for line, want := range tests {
		assert.Equal(t, want, classifyLine(line), "%q", line)
	}
}

func TestParseAuthor(t *testing.T) {
	t.Parallel()

	assert.Equal(t, Author{Name: "Jane Q. Public", Email: "jane@example.com"}, parseAuthor("Jane Q. Public <jane@example.com>"))
	assert.Equal(t, Author{Name: "nobody"}, parseAuthor("nobody"))
}
