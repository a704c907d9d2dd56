package workers

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charlievieth/fastwalk"
	"github.com/gabriel-vasile/mimetype"
)

// progressEvery controls how many files are visited between progress
// messages.
const progressEvery = 250

// AnalysisResult is the tally produced by one analysis walk.
type AnalysisResult struct {
	Root       string         `json:"root"`
	Files      int            `json:"files"`
	Dirs       int            `json:"dirs"`
	TotalBytes int64          `json:"total_bytes"`
	ByKind     map[string]int `json:"by_kind"`
	Skipped    int            `json:"skipped"`
}

// Analysis walks a directory tree and tallies file kinds by detected
// content type. Paths matching any ignore glob (doublestar syntax,
// matched against the root-relative path) are skipped. It exercises the
// full optional capability set: progress, error, and completion hooks
// plus cooperative cancellation.
type Analysis struct {
	*Base

	root   string
	ignore []string
	detect bool

	mu     sync.Mutex
	result AnalysisResult
}

// NewAnalysis creates an analysis task over root. Content detection can
// be disabled to tally by extension only, which is much faster on large
// trees.
func NewAnalysis(root string, ignore []string, detectContent bool) *Analysis {
	a := &Analysis{
		root:   root,
		ignore: ignore,
		detect: detectContent,
	}
	a.Base = NewBase(a.walk)
	return a
}

// Result returns a copy of the tally. Valid once the task has finished;
// partial while running.
func (a *Analysis) Result() AnalysisResult {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := a.result
	out.ByKind = make(map[string]int, len(a.result.ByKind))
	for k, v := range a.result.ByKind {
		out.ByKind[k] = v
	}
	return out
}

func (a *Analysis) walk(ctx context.Context) error {
	a.mu.Lock()
	a.result = AnalysisResult{Root: a.root, ByKind: make(map[string]int)}
	a.mu.Unlock()

	conf := fastwalk.Config{Follow: false}

	err := fastwalk.Walk(&conf, a.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == a.root {
				return err
			}
			a.mu.Lock()
			a.result.Skipped++
			a.mu.Unlock()
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		rel, relErr := filepath.Rel(a.root, path)
		if relErr == nil && rel != "." && a.ignored(rel) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			a.mu.Lock()
			a.result.Skipped++
			a.mu.Unlock()
			return nil
		}

		if d.IsDir() {
			a.mu.Lock()
			a.result.Dirs++
			a.mu.Unlock()
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		kind := a.classify(path)
		var size int64
		if info, infoErr := d.Info(); infoErr == nil {
			size = info.Size()
		}

		a.mu.Lock()
		a.result.Files++
		a.result.TotalBytes += size
		a.result.ByKind[kind]++
		files := a.result.Files
		a.mu.Unlock()

		if files%progressEvery == 0 {
			a.ReportProgress(fmt.Sprintf("analyzed %d files", files))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("analysis of %s failed: %w", a.root, err)
	}

	a.ReportProgress(fmt.Sprintf("analysis complete, %d files", a.Result().Files))
	return nil
}

func (a *Analysis) ignored(rel string) bool {
	rel = filepath.ToSlash(rel)
	for _, pattern := range a.ignore {
		if ok, err := doublestar.Match(pattern, rel); err == nil && ok {
			return true
		}
	}
	return false
}

// classify maps a file to a coarse kind: the top half of the detected
// MIME type, or the bare extension when detection is off or fails.
func (a *Analysis) classify(path string) string {
	if a.detect {
		if m, err := mimetype.DetectFile(path); err == nil {
			if base, _, found := strings.Cut(m.String(), "/"); found {
				return base
			}
			return m.String()
		}
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return "unknown"
	}
	return ext
}
