package components

import (
	"github.com/charmbracelet/bubbles/textinput"

	"github.com/Rorical/RoriChat/ui/styles"
)

// RenderInput draws the message box, greyed out while a reply is pending.
func RenderInput(input textinput.Model, loading bool, width int) string {
	if loading {
		return styles.DisabledInputStyle(width).Render(input.View())
	}
	return styles.InputStyle(width).Render(input.View())
}
