package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Akashdeep-Patra/filegrass/internal/git"
	"github.com/Akashdeep-Patra/filegrass/internal/git/gittest"
	"github.com/Akashdeep-Patra/filegrass/internal/history"
)

func execute(t *testing.T, ctx context.Context, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	cmd := buildRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	return stdout.String(), stderr.String(), err
}

func decode(t *testing.T, data []byte) *history.Document {
	t.Helper()
	var doc history.Document
	require.NoError(t, json.Unmarshal(data, &doc))
	return &doc
}

func TestRoot_WritesDocument(t *testing.T) {
	t.Parallel()

	repo, h := gittest.Standard(t)
	out, _, err := execute(t, context.Background(), "--path", repo.Dir, "--backend", "gogit")
	require.NoError(t, err)

	doc := decode(t, []byte(out))
	require.Len(t, doc.Commits, 4)
	assert.Equal(t, h.Delete, doc.Commits[0].Sha)
	assert.Equal(t, 1, doc.Commits[3].Index)
	assert.Len(t, doc.Files, 4)
	assert.Equal(t, "master", doc.Branch)
	assert.NotContains(t, out, "\n  ")
}

func TestRoot_PrettyToFileWithLimit(t *testing.T) {
	t.Parallel()

	repo, _ := gittest.Standard(t)
	path := filepath.Join(t.TempDir(), "history.json")

	out, _, err := execute(t, context.Background(),
		"-p", repo.Dir, "--backend", "gogit", "--pretty", "-n", "2", "-o", path)
	require.NoError(t, err)
	assert.Empty(t, out)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "\n  \"commits\": [")
	doc := decode(t, data)
	assert.Len(t, doc.Commits, 2)
	assert.Equal(t, 2, doc.Commits[0].Index)
}

func TestRoot_Errors(t *testing.T) {
	t.Parallel()

	_, _, err := execute(t, context.Background(), "-p", t.TempDir(), "--backend", "gogit")
	assert.ErrorIs(t, err, git.ErrNotARepo)

	repo, _ := gittest.Standard(t)
	_, _, err = execute(t, context.Background(), "-p", repo.Dir, "--backend", "svn")
	assert.ErrorContains(t, err, "backend")

	_, _, err = execute(t, context.Background(), "-p", repo.Dir, "--backend", "gogit", "-n", "-3")
	assert.ErrorContains(t, err, "max_count")
}

func TestSummaryCmd(t *testing.T) {
	t.Parallel()

	repo, _ := gittest.Standard(t)
	out, _, err := execute(t, context.Background(), "summary", "-p", repo.Dir, "--backend", "gogit")
	require.NoError(t, err)
	assert.Contains(t, out, "Total: 4 commits")
	assert.Contains(t, out, "Total: 4 files")
	assert.Contains(t, out, "src/new.js")
}

func TestVersionCmd(t *testing.T) {
	t.Parallel()

	out, _, err := execute(t, context.Background(), "version", "--json")
	require.NoError(t, err)

	var info map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, version, info["version"])

	out, _, err = execute(t, context.Background(), "version")
	require.NoError(t, err)
	assert.Contains(t, out, "filegrass "+version)
}

func TestCompletionCmd(t *testing.T) {
	t.Parallel()

	out, _, err := execute(t, context.Background(), "completion", "bash")
	require.NoError(t, err)
	assert.Contains(t, out, "filegrass")

	_, _, err = execute(t, context.Background(), "completion", "tcsh")
	assert.Error(t, err)
}

func TestRoot_Watch(t *testing.T) {
	t.Parallel()

	repo, _ := gittest.Standard(t)
	path := filepath.Join(t.TempDir(), "history.json")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		_, _, err := execute(t, ctx, "-p", repo.Dir, "--backend", "gogit", "--watch", "-o", path)
		done <- err
	}()

	commitsIn := func() int {
		data, err := os.ReadFile(path)
		if err != nil {
			return -1
		}
		var doc history.Document
		if json.Unmarshal(data, &doc) != nil {
			return -1
		}
		return len(doc.Commits)
	}

	require.Eventually(t, func() bool { return commitsIn() == 4 }, 10*time.Second, 20*time.Millisecond)

	repo.Write("CHANGELOG.md", "v1\n")
	repo.Commit("Add a changelog")

	require.Eventually(t, func() bool { return commitsIn() == 5 }, 10*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop after cancel")
	}
}
