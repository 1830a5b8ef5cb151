package app

import (
	"context"
	"log"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Rorical/RoriChat/internal/config"
	"github.com/Rorical/RoriChat/internal/core"
	"github.com/Rorical/RoriChat/internal/dispatcher"
	"github.com/Rorical/RoriChat/internal/eventbus"
	"github.com/Rorical/RoriChat/internal/models"
	"github.com/Rorical/RoriChat/internal/storage"
	"github.com/Rorical/RoriChat/internal/update"
)

const (
	defaultWidth  = 80
	defaultHeight = 24
)

// Options override profile settings for one run.
type Options struct {
	Model     models.ModelID
	SessionID string
}

// Application manages the complete application lifecycle
type Application struct {
	config     *config.Config
	logger     *log.Logger
	storage    storage.Storage
	eventBus   *eventbus.EventBus
	dispatcher *dispatcher.EventDispatcher
	service    *core.ChatService
	model      *AppModel
}

type AppModel struct {
	appModel   models.AppModel
	dispatcher *dispatcher.EventDispatcher
}

func NewApplication(cfg *config.Config, logger *log.Logger, opts Options) (*Application, error) {
	store, st, err := OpenStore(context.Background(), cfg, logger)
	if err != nil {
		return nil, err
	}

	model := cfg.GetModel()
	if opts.Model.Valid() {
		model = opts.Model
	}
	sessionID := cfg.GetSessionID()
	if opts.SessionID != "" {
		sessionID = opts.SessionID
	}

	b := NewBackend(cfg)
	if b == nil {
		logger.Printf("[app] profile %q has no usable backend", cfg.ActiveProfile)
	}

	eb := eventbus.NewEventBus()
	eb.SetErrorCallback(func(e eventbus.EventBusError) {
		logger.Printf("[eventbus] %v", e)
	})
	disp := dispatcher.NewEventDispatcher(eb)

	chatService := core.NewChatService(store, b, eb, core.ServiceOptions{
		Model:     model,
		SessionID: sessionID,
		Logger:    logger,
	})

	return &Application{
		config:     cfg,
		logger:     logger,
		storage:    st,
		eventBus:   eb,
		dispatcher: disp,
		service:    chatService,
		model: &AppModel{
			appModel:   createInitialAppModel(cfg.ActiveProfile, model, chatService.IsReady()),
			dispatcher: disp,
		},
	}, nil
}

func (app *Application) Start() error {
	app.service.Start()

	p := tea.NewProgram(app.model, tea.WithAltScreen())
	_, err := p.Run()

	return err
}

func (app *Application) Stop() {
	app.service.Stop()
	app.service.Wait()
	app.dispatcher.Stop()
	app.eventBus.Close()
	if err := app.storage.Close(); err != nil {
		app.logger.Printf("[app] error closing storage: %v", err)
	}
}

func createInitialAppModel(profile string, model models.ModelID, chatReady bool) models.AppModel {
	input := textinput.New()
	input.Placeholder = "Type your message..."
	input.Prompt = "› "
	input.Focus()

	spin := spinner.New()
	spin.Spinner = spinner.Dot

	status := update.StatusReady
	if !chatReady {
		status = update.StatusNoService
	}

	// The transcript starts empty; the core pushes the hydrated log.
	appModel := models.AppModel{
		Messages:         models.Log{},
		Model:            model,
		Status:           status,
		ChatServiceReady: chatReady,
		Profile:          profile,
		Input:            input,
		Transcript:       viewport.New(defaultWidth, defaultHeight),
		Spinner:          spin,
	}
	// size everything for a default terminal until the first WindowSizeMsg
	update.HandleWindowSizeMsg(&appModel, tea.WindowSizeMsg{Width: defaultWidth, Height: defaultHeight})
	return appModel
}
