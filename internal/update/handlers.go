package update

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Rorical/RoriChat/internal/eventbus"
	"github.com/Rorical/RoriChat/internal/models"
	"github.com/Rorical/RoriChat/ui/components"
)

const (
	StatusReady      = "Ready"
	StatusProcessing = "Processing"
	StatusNoService  = "Chat service not available"
	StatusWaiting    = "Still waiting for the previous reply"
)

// HandleKeyMsgWithEventBus handles keyboard input using event bus
func HandleKeyMsgWithEventBus(appModel *models.AppModel, keyMsg tea.KeyMsg, eb *eventbus.EventBus) tea.Cmd {
	switch keyMsg.String() {
	case "ctrl+c", "esc":
		return tea.Quit
	case "enter":
		handleSubmit(appModel, eb)
		return nil
	case "tab":
		selectModel(appModel, eb, appModel.Model.Next())
		return nil
	case "shift+tab":
		selectModel(appModel, eb, appModel.Model.Prev())
		return nil
	case "ctrl+l":
		if err := eb.SendToCore(eventbus.ClearChatEvent{}); err != nil {
			appModel.Status = "Error clearing chat: " + err.Error()
		}
		return nil
	case "pgup", "pgdown", "up", "down":
		var cmd tea.Cmd
		appModel.Transcript, cmd = appModel.Transcript.Update(keyMsg)
		return cmd
	}

	var cmd tea.Cmd
	appModel.Input, cmd = appModel.Input.Update(keyMsg)
	return cmd
}

func handleSubmit(appModel *models.AppModel, eb *eventbus.EventBus) {
	text := appModel.Input.Value()
	if strings.TrimSpace(text) == "" {
		return
	}
	if !appModel.ChatServiceReady {
		appModel.Input.Reset()
		appModel.Status = StatusNoService
		return
	}
	if appModel.Loading {
		// keep the draft, the core would reject it anyway
		appModel.Status = StatusWaiting
		return
	}

	if err := eb.SendToCore(eventbus.SendMessageEvent{Message: text}); err != nil {
		appModel.Status = "Error sending message: " + err.Error()
		return
	}

	// the draft stays until the core reports the message was accepted
	appModel.Loading = true
	appModel.Status = StatusProcessing
}

func selectModel(appModel *models.AppModel, eb *eventbus.EventBus, id models.ModelID) {
	if err := eb.SendToCore(eventbus.SelectModelEvent{Model: id}); err != nil {
		appModel.Status = "Error selecting model: " + err.Error()
		return
	}
	appModel.Model = id
}

// CoreEventMsg wraps core events for Bubble Tea
type CoreEventMsg struct {
	Event eventbus.CoreEvent
}

// HandleCoreEvent copies core state into the UI model. The core is the only
// source of the transcript.
func HandleCoreEvent(appModel *models.AppModel, coreEventMsg CoreEventMsg) tea.Cmd {
	switch event := coreEventMsg.Event.(type) {
	case eventbus.StateUpdateEvent:
		appModel.Messages = event.Messages
		appModel.Loading = event.Pending
		if event.Model.Valid() {
			appModel.Model = event.Model
		}

		switch {
		case event.Notice != "":
			appModel.Status = event.Notice
		case event.Pending:
			appModel.Status = StatusProcessing
		default:
			appModel.Status = StatusReady
		}
		RefreshTranscript(appModel)
	case eventbus.SubmitResultEvent:
		if event.Err == nil && appModel.Input.Value() == event.Message {
			appModel.Input.Reset()
		}
	}

	return nil
}

func HandleWindowSizeMsg(appModel *models.AppModel, sizeMsg tea.WindowSizeMsg) {
	appModel.Width = sizeMsg.Width
	appModel.Height = sizeMsg.Height

	appModel.Input.Width = max(sizeMsg.Width-8, 10)
	appModel.Transcript.Width = sizeMsg.Width
	appModel.Transcript.Height = max(sizeMsg.Height-chromeHeight, 3)
	RefreshTranscript(appModel)
}

// RefreshTranscript re-renders the transcript and scrolls to the newest entry.
func RefreshTranscript(appModel *models.AppModel) {
	appModel.Transcript.SetContent(components.RenderMessages(appModel.Messages, appModel.Width))
	appModel.Transcript.GotoBottom()
}
