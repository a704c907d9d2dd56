package category

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	yaml "github.com/goccy/go-yaml"
	"go.uber.org/zap"

	"github.com/Kristianesp/Ordenasion-alpha-sub001/internal/infrastructure/logging"
)

// Definition is one named file category: a display name, the extensions
// it covers, and an icon hint for the UI.
type Definition struct {
	Name       string   `yaml:"name" json:"name"`
	Extensions []string `yaml:"extensions" json:"extensions"`
	Icon       string   `yaml:"icon" json:"icon"`
}

type fileModel struct {
	Categories []Definition `yaml:"categories"`
}

// Service holds the loaded category definitions. Classification rules
// live elsewhere; this service only answers what categories exist and
// which extensions belong to each.
type Service struct {
	log *logging.Logger

	mu          sync.RWMutex
	definitions []Definition
	byExtension map[string]string
}

// NewService loads definitions from a YAML file. An empty path or a
// missing file yields the built-in defaults; a corrupt file is an error.
func NewService(path string, logger *logging.Logger) (*Service, error) {
	if logger == nil {
		logger = logging.NewNop()
	}

	s := &Service{log: logger}

	defs := Defaults()
	if path != "" {
		raw, err := os.ReadFile(path)
		switch {
		case err == nil:
			var model fileModel
			if err := yaml.Unmarshal(raw, &model); err != nil {
				return nil, fmt.Errorf("failed to parse categories: %w", err)
			}
			if len(model.Categories) > 0 {
				defs = model.Categories
			}
		case os.IsNotExist(err):
			logger.Debug("category file missing, using defaults", zap.String("path", path))
		default:
			return nil, fmt.Errorf("failed to read categories: %w", err)
		}
	}

	s.replace(defs)
	return s, nil
}

// Defaults returns the built-in category set.
func Defaults() []Definition {
	return []Definition{
		{Name: "documents", Extensions: []string{".pdf", ".doc", ".docx", ".odt", ".txt", ".md"}, Icon: "document"},
		{Name: "images", Extensions: []string{".jpg", ".jpeg", ".png", ".gif", ".webp", ".svg", ".bmp"}, Icon: "image"},
		{Name: "videos", Extensions: []string{".mp4", ".mkv", ".avi", ".mov", ".webm"}, Icon: "video"},
		{Name: "music", Extensions: []string{".mp3", ".flac", ".ogg", ".wav", ".m4a"}, Icon: "music"},
		{Name: "archives", Extensions: []string{".zip", ".tar", ".gz", ".rar", ".7z"}, Icon: "archive"},
		{Name: "code", Extensions: []string{".go", ".py", ".js", ".ts", ".rs", ".c", ".h"}, Icon: "code"},
	}
}

func (s *Service) replace(defs []Definition) {
	index := make(map[string]string)
	for _, d := range defs {
		for _, ext := range d.Extensions {
			index[strings.ToLower(ext)] = d.Name
		}
	}

	s.mu.Lock()
	s.definitions = defs
	s.byExtension = index
	s.mu.Unlock()
}

// Names returns the category names in sorted order.
func (s *Service) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, 0, len(s.definitions))
	for _, d := range s.definitions {
		out = append(out, d.Name)
	}
	sort.Strings(out)
	return out
}

// Definitions returns a copy of every loaded definition.
func (s *Service) Definitions() []Definition {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Definition, len(s.definitions))
	copy(out, s.definitions)
	return out
}

// ForExtension returns the category name covering a file extension,
// empty when no category claims it. Case-insensitive.
func (s *Service) ForExtension(ext string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.byExtension[strings.ToLower(ext)]
}
