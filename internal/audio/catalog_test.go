package audio

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, nil, 0o644))
}

func TestDiscoverFiltersAndRecurses(t *testing.T) {
	dir := t.TempDir()

	touch(t, filepath.Join(dir, "clap.wav"))
	touch(t, filepath.Join(dir, "kicks", "808.FLAC"))
	touch(t, filepath.Join(dir, "kicks", "deep", "sub.mp3"))
	touch(t, filepath.Join(dir, "notes.txt"))
	touch(t, filepath.Join(dir, "cover.png"))

	paths, err := discover(dir)
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join(dir, "clap.wav"),
		filepath.Join(dir, "kicks", "808.FLAC"),
		filepath.Join(dir, "kicks", "deep", "sub.mp3"),
	}, paths)
}

func TestDiscoverMissingDir(t *testing.T) {
	_, err := discover(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}
