package workers

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()

	files := map[string]string{
		"readme.txt":        "hello world",
		"photo.png":         "\x89PNG\r\n\x1a\n",
		"docs/notes.md":     "# notes",
		"docs/draft.txt":    "draft",
		"node_modules/x.js": "ignored",
	}
	for rel, content := range files {
		path := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

func runAnalysis(t *testing.T, a *Analysis) AnalysisResult {
	t.Helper()
	done := make(chan struct{})
	a.OnFinished(func() { close(done) })
	require.NoError(t, a.Start())
	<-done
	return a.Result()
}

func TestAnalysisTalliesByExtension(t *testing.T) {
	root := buildTree(t)

	result := runAnalysis(t, NewAnalysis(root, nil, false))

	assert.Equal(t, 5, result.Files)
	assert.Equal(t, 2, result.ByKind[".txt"])
	assert.Equal(t, 1, result.ByKind[".png"])
	assert.Equal(t, 1, result.ByKind[".md"])
	assert.Greater(t, result.TotalBytes, int64(0))
	assert.GreaterOrEqual(t, result.Dirs, 2)
}

func TestAnalysisHonorsIgnoreGlobs(t *testing.T) {
	root := buildTree(t)

	result := runAnalysis(t, NewAnalysis(root, []string{"node_modules/**", "node_modules", "**/*.md"}, false))

	assert.Equal(t, 3, result.Files)
	assert.Zero(t, result.ByKind[".js"])
	assert.Zero(t, result.ByKind[".md"])
}

func TestAnalysisDetectsContent(t *testing.T) {
	root := buildTree(t)

	result := runAnalysis(t, NewAnalysis(root, nil, true))

	// Text files collapse into the "text" kind under content detection.
	assert.GreaterOrEqual(t, result.ByKind["text"], 3)
}

func TestAnalysisMissingRoot(t *testing.T) {
	a := NewAnalysis(filepath.Join(t.TempDir(), "absent"), nil, false)

	done := make(chan struct{})
	var sawError bool
	a.OnError(func(string) { sawError = true })
	a.OnFinished(func() { close(done) })

	require.NoError(t, a.Start())
	<-done

	assert.True(t, sawError)
}
