package util

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveFileAbsolute(t *testing.T) {
	abs := filepath.Join(string(filepath.Separator), "tmp", "config.toml")
	resolved, err := ResolveFile(abs)
	require.NoError(t, err)
	assert.Equal(t, filepath.Clean(abs), resolved)
}

func TestResolveFileRelative(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)

	resolved, err := ResolveFile("./config.toml")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(wd, "config.toml"), resolved)
}

func TestResolveFileCleansDotSegments(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)

	resolved, err := ResolveFile("a/../b/./config.toml")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(wd, "b", "config.toml"), resolved)
}

func TestResolveCreateFolderCreatesMissingParents(t *testing.T) {
	base := t.TempDir()
	target := filepath.Join(base, "nested", "deeper")

	resolved, err := ResolveCreateFolder(target)
	require.NoError(t, err)
	assert.Equal(t, filepath.Clean(target), resolved)

	info, err := os.Stat(resolved)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestResolveCreateFolderIdempotentOnExisting(t *testing.T) {
	base := t.TempDir()

	first, err := ResolveCreateFolder(base)
	require.NoError(t, err)
	second, err := ResolveCreateFolder(base)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
