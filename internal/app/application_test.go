package app

import (
	"io"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rorical/RoriChat/internal/backend"
	"github.com/Rorical/RoriChat/internal/config"
	"github.com/Rorical/RoriChat/internal/eventbus"
	"github.com/Rorical/RoriChat/internal/models"
	"github.com/Rorical/RoriChat/internal/update"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	t.Setenv("RORICHAT_STORAGE", "memory")
	t.Setenv("RORICHAT_API_URL", "")
	t.Setenv("RORICHAT_API_KEY", "")
	cfg, err := config.LoadConfigFrom(t.TempDir())
	require.NoError(t, err)
	return cfg
}

func discard() *log.Logger { return log.New(io.Discard, "", 0) }

func TestNewBackendByProfile(t *testing.T) {
	cfg := testConfig(t)

	b := NewBackend(cfg)
	require.IsType(t, &backend.HTTPBackend{}, b)
	assert.Equal(t, backend.DefaultEndpoint, b.(*backend.HTTPBackend).Endpoint())

	cfg.Profiles["router"] = config.Profile{Backend: config.BackendOpenAI}
	require.NoError(t, cfg.UseProfile("router"))
	assert.Nil(t, NewBackend(cfg), "openai profile without a key")
	require.NoError(t, cfg.Save())

	t.Setenv("RORICHAT_API_KEY", "sk-test")
	cfg, err := config.LoadConfigFrom(cfg.Dir())
	require.NoError(t, err)
	require.NoError(t, cfg.UseProfile("router"))
	assert.IsType(t, &backend.OpenAIBackend{}, NewBackend(cfg))
}

func TestNewApplicationAppliesOptions(t *testing.T) {
	application, err := NewApplication(testConfig(t), discard(), Options{Model: models.GeminiFlash})
	require.NoError(t, err)
	defer application.Stop()

	assert.Equal(t, models.GeminiFlash, application.model.appModel.Model)
	assert.True(t, application.model.appModel.ChatServiceReady)
	assert.Equal(t, "default", application.model.appModel.Profile)
	assert.Equal(t, models.GeminiFlash, application.service.Model())
}

func TestNewApplicationUnknownStorage(t *testing.T) {
	cfg := testConfig(t)
	t.Setenv("RORICHAT_STORAGE", "floppy")
	cfg, err := config.LoadConfigFrom(cfg.Dir())
	require.NoError(t, err)

	_, err = NewApplication(cfg, discard(), Options{})
	assert.Error(t, err)
}

func TestInitialFrameIsComplete(t *testing.T) {
	application, err := NewApplication(testConfig(t), discard(), Options{})
	require.NoError(t, err)
	defer application.Stop()

	m := application.model.appModel
	assert.Equal(t, defaultWidth-8, m.Input.Width)
	assert.Equal(t, defaultWidth, m.Transcript.Width)

	view := application.model.View()
	assert.Contains(t, view, "Start a conversation!")
	assert.Contains(t, view, "Type your message...")
}

func TestAppModelRendersCoreState(t *testing.T) {
	application, err := NewApplication(testConfig(t), discard(), Options{})
	require.NoError(t, err)
	defer application.Stop()

	m := application.model
	assert.NotNil(t, m.Init())
	assert.Contains(t, m.View(), "Start a conversation!")

	_, cmd := m.Update(update.CoreEventMsg{Event: eventbus.StateUpdateEvent{
		Messages: models.Log{models.NewUserMessage("ping")},
		Model:    models.Mistral,
		Pending:  true,
	}})
	assert.NotNil(t, cmd, "keeps listening for core events")

	view := m.View()
	assert.Contains(t, view, "ping")
	assert.Contains(t, view, update.StatusProcessing)
	assert.Contains(t, view, models.Mistral.Label())
}
