package paths

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSettingsFileOverride(t *testing.T) {
	assert.Equal(t, "/etc/custom.toml", SettingsFile("/etc/custom.toml"))
	assert.Contains(t, SettingsFile(""), "settings.toml")
}

func TestCategoriesFileOverride(t *testing.T) {
	assert.Equal(t, "/etc/cats.yaml", CategoriesFile("/etc/cats.yaml"))
}

func TestTempDirUnderSystemTemp(t *testing.T) {
	assert.Contains(t, TempDir(), AppDir)
}
