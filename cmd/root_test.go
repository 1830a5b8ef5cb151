package cmd

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rorical/RoriChat/internal/models"
)

func TestCommandTree(t *testing.T) {
	for _, path := range [][]string{
		{"use"},
		{"models"},
		{"ask"},
		{"serve"},
		{"history", "show"},
		{"history", "clear"},
		{"profile", "list"},
		{"profile", "switch"},
	} {
		found, _, err := rootCmd.Find(path)
		require.NoError(t, err, path)
		assert.Equal(t, path[len(path)-1], found.Name())
	}
}

func TestParseModelFlag(t *testing.T) {
	t.Cleanup(func() { modelFlag = "" })

	modelFlag = ""
	assert.Equal(t, models.ModelID(""), parseModelFlag())

	modelFlag = "gemini_flash"
	assert.Equal(t, models.GeminiFlash, parseModelFlag())
}

func TestLoadConfigAppliesProfileFlag(t *testing.T) {
	home := t.TempDir()
	t.Setenv("RORICHAT_HOME", home)
	t.Cleanup(func() { profileFlag = "" })

	profileFlag = ""
	cfg := loadConfig()
	assert.Equal(t, filepath.Join(home, ".rorichat"), cfg.Dir())
	assert.Equal(t, "default", cfg.ActiveProfile)

	profileFlag = "default"
	assert.Equal(t, "default", loadConfig().ActiveProfile)
}
