package category

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsWhenFileMissing(t *testing.T) {
	s, err := NewService(filepath.Join(t.TempDir(), "absent.yaml"), nil)
	require.NoError(t, err)

	names := s.Names()
	assert.Contains(t, names, "documents")
	assert.Contains(t, names, "images")
	assert.IsIncreasing(t, names)
}

func TestDefaultsWhenPathEmpty(t *testing.T) {
	s, err := NewService("", nil)
	require.NoError(t, err)
	assert.NotEmpty(t, s.Names())
}

func TestLoadFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "categories.yaml")
	content := `
categories:
  - name: ebooks
    extensions: [".epub", ".mobi"]
    icon: book
  - name: fonts
    extensions: [".ttf", ".otf"]
    icon: font
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	s, err := NewService(path, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"ebooks", "fonts"}, s.Names())
	assert.Equal(t, "ebooks", s.ForExtension(".EPUB"))
	assert.Equal(t, "", s.ForExtension(".pdf"))

	defs := s.Definitions()
	require.Len(t, defs, 2)
	assert.Equal(t, "book", defs[0].Icon)
}

func TestCorruptYAMLIsError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "categories.yaml")
	require.NoError(t, os.WriteFile(path, []byte("categories: [qui{"), 0o644))

	_, err := NewService(path, nil)
	assert.Error(t, err)
}

func TestForExtensionCaseInsensitive(t *testing.T) {
	s, err := NewService("", nil)
	require.NoError(t, err)

	assert.Equal(t, "images", s.ForExtension(".PNG"))
	assert.Equal(t, "documents", s.ForExtension(".pdf"))
}
