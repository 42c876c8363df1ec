package git

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func initRepo(t *testing.T) string {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	dir := t.TempDir()
	cmd := exec.Command("git", "init", "-q")
	cmd.Dir = dir
	require.NoError(t, cmd.Run())
	return dir
}

func TestCheckStoreFileOutsideRepo(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	path := filepath.Join(t.TempDir(), ".tome")

	status := CheckStoreFile(path)
	if status.IsRepo {
		t.Skip("temp dir is inside a git work tree")
	}
	assert.Empty(t, FormatGitStatus(status))
}

func TestCheckStoreFileStates(t *testing.T) {
	dir := initRepo(t)
	path := filepath.Join(dir, ".tome")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0600))

	status := CheckStoreFile(path)
	assert.True(t, status.IsRepo)
	assert.False(t, status.Tracked)
	assert.False(t, status.Ignored)
	assert.Contains(t, FormatGitStatus(status), "not in .gitignore")

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".gitignore"), []byte(".tome\n"), 0644))
	status = CheckStoreFile(path)
	assert.True(t, status.Ignored)
	assert.Contains(t, FormatGitStatus(status), "ok:")

	require.NoError(t, os.Remove(filepath.Join(dir, ".gitignore")))
	add := exec.Command("git", "add", ".tome")
	add.Dir = dir
	require.NoError(t, add.Run())

	status = CheckStoreFile(path)
	assert.True(t, status.Tracked)
	assert.Contains(t, FormatGitStatus(status), "tracked by git")
}
