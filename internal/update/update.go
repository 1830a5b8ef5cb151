package update

import (
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Rorical/RoriChat/internal/eventbus"
	"github.com/Rorical/RoriChat/internal/models"
)

// Rows taken by everything except the transcript: title, model selector,
// bordered input and status bar.
const chromeHeight = 6

func HandleUpdateWithEventBus(appModel *models.AppModel, msg tea.Msg, eb *eventbus.EventBus) tea.Cmd {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return HandleKeyMsgWithEventBus(appModel, msg, eb)
	case tea.WindowSizeMsg:
		HandleWindowSizeMsg(appModel, msg)
		return nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		appModel.Spinner, cmd = appModel.Spinner.Update(msg)
		return cmd
	case CoreEventMsg:
		return HandleCoreEvent(appModel, msg)
	}

	// cursor blink and friends
	var cmd tea.Cmd
	appModel.Input, cmd = appModel.Input.Update(msg)
	return cmd
}
