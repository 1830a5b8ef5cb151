package components

import (
	"strings"

	"github.com/Rorical/RoriChat/internal/models"
	"github.com/Rorical/RoriChat/ui/styles"
)

// RenderHeader shows the app name, the active profile and the model selector.
func RenderHeader(profile string, current models.ModelID, width int) string {
	title := "RoriChat"
	if profile != "" {
		title += " · " + profile
	}
	return styles.HeaderStyle(width).Render(title) + "\n" + RenderModelSelector(current)
}

// RenderModelSelector lists every model with the current one highlighted.
func RenderModelSelector(current models.ModelID) string {
	parts := make([]string, 0, len(models.Models()))
	for _, id := range models.Models() {
		if id == current {
			parts = append(parts, styles.SelectedModelStyle().Render(id.Label()))
		} else {
			parts = append(parts, styles.ModelStyle().Render(id.Label()))
		}
	}
	return strings.Join(parts, " ")
}
