package settings

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	toml "github.com/pelletier/go-toml/v2"
	"go.uber.org/zap"

	"github.com/Kristianesp/Ordenasion-alpha-sub001/internal/infrastructure/logging"
)

const (
	defaultTheme         = "elegant_light"
	defaultFontSize      = 12
	defaultMinSimilarity = 0.8

	minFontSize = 6
	maxFontSize = 32
)

// fileModel is the on-disk TOML shape.
type fileModel struct {
	Theme         string  `toml:"theme"`
	FontSize      int     `toml:"font_size"`
	MinSimilarity float64 `toml:"min_similarity"`
}

// Store persists user preferences to a TOML file. It satisfies the state
// manager's ConfigStore contract. Writes are atomic: a temp file in the
// same directory is renamed over the target.
type Store struct {
	log  *logging.Logger
	path string

	mu     sync.Mutex
	values fileModel
}

// NewStore loads preferences from path, falling back to defaults when
// the file is missing. A corrupt file is an error; the caller decides
// whether to continue with Default.
func NewStore(path string, logger *logging.Logger) (*Store, error) {
	if logger == nil {
		logger = logging.NewNop()
	}

	s := &Store{
		log:    logger,
		path:   path,
		values: defaults(),
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("failed to read settings: %w", err)
	}

	var loaded fileModel
	if err := toml.Unmarshal(raw, &loaded); err != nil {
		return nil, fmt.Errorf("failed to parse settings: %w", err)
	}
	s.values = sanitize(loaded)

	return s, nil
}

// Default returns an in-memory store that still persists to path on the
// first successful write.
func Default(path string, logger *logging.Logger) *Store {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Store{log: logger, path: path, values: defaults()}
}

func defaults() fileModel {
	return fileModel{
		Theme:         defaultTheme,
		FontSize:      defaultFontSize,
		MinSimilarity: defaultMinSimilarity,
	}
}

func sanitize(m fileModel) fileModel {
	d := defaults()
	if m.Theme == "" {
		m.Theme = d.Theme
	}
	if m.FontSize < minFontSize || m.FontSize > maxFontSize {
		m.FontSize = d.FontSize
	}
	if m.MinSimilarity <= 0 || m.MinSimilarity > 1 {
		m.MinSimilarity = d.MinSimilarity
	}
	return m
}

// Theme returns the persisted theme name.
func (s *Store) Theme() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.values.Theme
}

// SetTheme persists a new theme name.
func (s *Store) SetTheme(theme string) error {
	if theme == "" {
		return fmt.Errorf("theme must not be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.values.Theme
	s.values.Theme = theme
	if err := s.saveLocked(); err != nil {
		s.values.Theme = prev
		return err
	}
	return nil
}

// FontSize returns the persisted font size.
func (s *Store) FontSize() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.values.FontSize
}

// SetFontSize persists a new font size within the accepted range.
func (s *Store) SetFontSize(size int) error {
	if size < minFontSize || size > maxFontSize {
		return fmt.Errorf("font size %d out of range [%d, %d]", size, minFontSize, maxFontSize)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.values.FontSize
	s.values.FontSize = size
	if err := s.saveLocked(); err != nil {
		s.values.FontSize = prev
		return err
	}
	return nil
}

// MinSimilarity returns the duplicate-detection similarity threshold.
func (s *Store) MinSimilarity() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.values.MinSimilarity
}

// SetMinSimilarity persists a new similarity threshold in (0, 1].
func (s *Store) SetMinSimilarity(v float64) error {
	if v <= 0 || v > 1 {
		return fmt.Errorf("similarity %v out of range (0, 1]", v)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.values.MinSimilarity
	s.values.MinSimilarity = v
	if err := s.saveLocked(); err != nil {
		s.values.MinSimilarity = prev
		return err
	}
	return nil
}

// Path returns the backing file path.
func (s *Store) Path() string { return s.path }

// saveLocked writes the current values atomically. Caller holds s.mu.
func (s *Store) saveLocked() error {
	raw, err := toml.Marshal(s.values)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create settings dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".settings-*.toml")
	if err != nil {
		return fmt.Errorf("failed to create temp settings file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write settings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close settings file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace settings file: %w", err)
	}

	s.log.Debug("settings saved", zap.String("path", s.path))
	return nil
}
