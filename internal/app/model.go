package app

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Rorical/RoriChat/internal/update"
	"github.com/Rorical/RoriChat/ui/components"
)

func (m *AppModel) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		m.appModel.Spinner.Tick,
		m.dispatcher.ListenForCoreEvents(),
	)
}

func (m *AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// Handle core events and continue listening
	if coreEvent, ok := msg.(update.CoreEventMsg); ok {
		cmd := update.HandleCoreEvent(&m.appModel, coreEvent)
		return m, tea.Batch(cmd, m.dispatcher.ListenForCoreEvents())
	}

	cmd := update.HandleUpdateWithEventBus(&m.appModel, msg, m.dispatcher.GetEventBus())
	return m, cmd
}

func (m *AppModel) View() string {
	var b strings.Builder

	b.WriteString(components.RenderHeader(m.appModel.Profile, m.appModel.Model, m.appModel.Width))
	b.WriteString("\n")
	b.WriteString(m.appModel.Transcript.View())
	b.WriteString("\n")
	b.WriteString(components.RenderInput(m.appModel.Input, m.appModel.Loading, m.appModel.Width))
	b.WriteString("\n")
	b.WriteString(components.RenderStatus(m.appModel.Status, m.appModel.Loading, m.appModel.Spinner.View(), m.appModel.Width))

	return b.String()
}
