package settings

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tempPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "settings.toml")
}

func TestMissingFileUsesDefaults(t *testing.T) {
	s, err := NewStore(tempPath(t), nil)
	require.NoError(t, err)

	assert.Equal(t, "elegant_light", s.Theme())
	assert.Equal(t, 12, s.FontSize())
	assert.InDelta(t, 0.8, s.MinSimilarity(), 1e-9)
}

func TestRoundTrip(t *testing.T) {
	path := tempPath(t)

	s, err := NewStore(path, nil)
	require.NoError(t, err)
	require.NoError(t, s.SetTheme("elegant_dark"))
	require.NoError(t, s.SetFontSize(14))
	require.NoError(t, s.SetMinSimilarity(0.9))

	reloaded, err := NewStore(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "elegant_dark", reloaded.Theme())
	assert.Equal(t, 14, reloaded.FontSize())
	assert.InDelta(t, 0.9, reloaded.MinSimilarity(), 1e-9)
}

func TestCorruptFileIsError(t *testing.T) {
	path := tempPath(t)
	require.NoError(t, os.WriteFile(path, []byte("theme = [not toml"), 0o644))

	_, err := NewStore(path, nil)
	assert.Error(t, err)
}

func TestOutOfRangeValuesSanitized(t *testing.T) {
	path := tempPath(t)
	require.NoError(t, os.WriteFile(path, []byte("font_size = 500\nmin_similarity = 7.0\n"), 0o644))

	s, err := NewStore(path, nil)
	require.NoError(t, err)
	assert.Equal(t, 12, s.FontSize())
	assert.InDelta(t, 0.8, s.MinSimilarity(), 1e-9)
	assert.Equal(t, "elegant_light", s.Theme())
}

func TestValidation(t *testing.T) {
	s, err := NewStore(tempPath(t), nil)
	require.NoError(t, err)

	assert.Error(t, s.SetTheme(""))
	assert.Error(t, s.SetFontSize(4))
	assert.Error(t, s.SetFontSize(100))
	assert.Error(t, s.SetMinSimilarity(0))
	assert.Error(t, s.SetMinSimilarity(1.5))

	assert.Equal(t, "elegant_light", s.Theme())
	assert.Equal(t, 12, s.FontSize())
}

func TestFailedSaveRollsBack(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.toml")

	s, err := NewStore(path, nil)
	require.NoError(t, err)
	require.NoError(t, s.SetTheme("elegant_dark"))

	// Make the directory unwritable so the next save fails.
	require.NoError(t, os.Chmod(dir, 0o500))
	t.Cleanup(func() { os.Chmod(dir, 0o755) })

	if err := s.SetTheme("other"); err != nil {
		assert.Equal(t, "elegant_dark", s.Theme())
	}
}

func TestSaveCreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "conf", "settings.toml")

	s := Default(path, nil)
	require.NoError(t, s.SetTheme("elegant_dark"))
	assert.FileExists(t, path)
}
