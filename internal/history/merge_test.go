package history

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func docWith(commits ...Commit) *Document {
	doc := NewDocument()
	doc.Commits = commits
	renumberCommits(doc.Commits)
	doc.Stats = flattenStats(doc.Commits)
	doc.Files = buildFileIndex(doc.Stats)
	return doc
}

func commitTouching(short string, paths ...string) Commit {
	c := Commit{Sha: short + "000", ShaShort: short}
	for _, p := range paths {
		c.Files = append(c.Files, FileChange{Path: p, Insertions: 1, Lines: 1})
	}
	c.StatTotal = newStatTotal(c.Files)
	return c
}

func TestBuildFileIndex(t *testing.T) {
	t.Parallel()

	doc := docWith(
		commitTouching("ccccccc", "b.go", "a.go"),
		commitTouching("bbbbbbb", "a.go"),
	)

	assert.Equal(t, []FileEntry{
		{Name: "a.go", Index: 1, Commits: []string{"ccccccc", "bbbbbbb"}},
		{Name: "b.go", Index: 2, Commits: []string{"ccccccc"}},
	}, doc.Files)
	assert.Equal(t, 2, doc.Commits[0].Index)
	assert.Equal(t, []int{1, 2, 3}, []int{doc.Stats[0].Index, doc.Stats[1].Index, doc.Stats[2].Index})
	require.NoError(t, doc.Validate())
}

func TestMergeRoot(t *testing.T) {
	t.Parallel()

	doc := docWith(commitTouching("ccccccc", "b.go"))
	root := docWith(commitTouching("aaaaaaa", "b.go", "a.go"))

	MergeRoot(doc, root)

	require.Len(t, doc.Commits, 2)
	assert.Equal(t, 2, doc.Commits[0].Index)
	assert.Equal(t, "aaaaaaa", doc.Commits[1].ShaShort)
	assert.Equal(t, 1, doc.Commits[1].Index)

	require.Len(t, doc.Stats, 3)
	assert.Equal(t, "aaaaaaa", doc.Stats[2].ShaShort)
	assert.Equal(t, 3, doc.Stats[2].Index)

	assert.Equal(t, []FileEntry{
		{Name: "a.go", Index: 1, Commits: []string{"aaaaaaa"}},
		{Name: "b.go", Index: 2, Commits: []string{"ccccccc", "aaaaaaa"}},
	}, doc.Files)
	require.NoError(t, doc.Validate())
}

func TestMergeRoot_IntoEmpty(t *testing.T) {
	t.Parallel()

	doc := NewDocument()
	MergeRoot(doc, docWith(commitTouching("aaaaaaa", "z.go")))

	require.Len(t, doc.Commits, 1)
	assert.Equal(t, 1, doc.Commits[0].Index)
	assert.Equal(t, []FileEntry{{Name: "z.go", Index: 1, Commits: []string{"aaaaaaa"}}}, doc.Files)
	require.NoError(t, doc.Validate())
}

func TestRenumberIsStable(t *testing.T) {
	t.Parallel()

	doc := docWith(commitTouching("bbbbbbb", "x"), commitTouching("aaaaaaa", "y"))
	before := append([]Commit(nil), doc.Commits...)

	renumberCommits(doc.Commits)
	sortFiles(doc.Files)

	assert.Equal(t, before, doc.Commits)
	require.NoError(t, doc.Validate())
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Document)
	}{
		{"duplicate commit index", func(d *Document) { d.Commits[1].Index = d.Commits[0].Index }},
		{"bad line total", func(d *Document) { d.Commits[0].StatTotal.Lines++ }},
		{"stat index gap", func(d *Document) { d.Stats[0].Index = 7 }},
		{"stat lines", func(d *Document) { d.Stats[1].Deletions = 4 }},
		{"unsorted files", func(d *Document) { d.Files[0], d.Files[1] = d.Files[1], d.Files[0] }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			doc := docWith(commitTouching("bbbbbbb", "x"), commitTouching("aaaaaaa", "y"))
			require.NoError(t, doc.Validate())
			tt.mutate(doc)
			assert.Error(t, doc.Validate())
		})
	}
}
