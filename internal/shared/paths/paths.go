// Package paths resolves the standard filesystem locations the
// coordinator uses: user settings, category definitions, logs, and the
// scratch directory for tracked temporary files.
package paths

import (
	"os"
	"path/filepath"
)

// AppDir is the directory name used under the user config and cache roots.
const AppDir = "ordenasion"

// ConfigDir returns the coordinator's configuration directory, falling
// back to the working directory when the user config root is unknown.
func ConfigDir() string {
	root, err := os.UserConfigDir()
	if err != nil {
		return "."
	}
	return filepath.Join(root, AppDir)
}

// CacheDir returns the coordinator's cache directory.
func CacheDir() string {
	root, err := os.UserCacheDir()
	if err != nil {
		return filepath.Join(os.TempDir(), AppDir)
	}
	return filepath.Join(root, AppDir)
}

// TempDir returns the scratch directory for tracked temporary files.
func TempDir() string {
	return filepath.Join(os.TempDir(), AppDir)
}

// SettingsFile returns the settings path, preferring a non-empty override.
func SettingsFile(override string) string {
	if override != "" {
		return override
	}
	return filepath.Join(ConfigDir(), "settings.toml")
}

// CategoriesFile returns the category-definitions path. An empty result
// means no file is configured and built-in defaults apply.
func CategoriesFile(override string) string {
	if override != "" {
		return override
	}
	path := filepath.Join(ConfigDir(), "categories.yaml")
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}
