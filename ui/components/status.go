package components

import (
	"github.com/Rorical/RoriChat/ui/styles"
)

const keyHelp = "enter send · tab model · ctrl+l clear · esc quit"

func RenderStatus(status string, loading bool, spinnerView string, width int) string {
	statusContent := status
	if loading {
		statusContent = spinnerView + " " + status
	}
	if statusContent != "" {
		statusContent += "  │  "
	}
	return styles.StatusStyle(width).Render(statusContent + keyHelp)
}
