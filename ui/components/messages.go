package components

import (
	"strings"

	"github.com/Rorical/RoriChat/internal/models"
	"github.com/Rorical/RoriChat/internal/utils"
	"github.com/Rorical/RoriChat/ui/styles"
)

const (
	UserLabel      = "You"
	AssistantLabel = "🤖 AI"
	EmptyHint      = "Start a conversation!"
)

// RenderMessages renders the transcript in log order. Assistant replies are
// rendered as markdown.
func RenderMessages(messages models.Log, width int) string {
	if len(messages) == 0 {
		return styles.EmptyStyle().Render(EmptyHint)
	}

	var b strings.Builder

	userStyle := styles.UserStyle()
	assistantStyle := styles.AssistantStyle()
	contentWidth := max(width-8, 20)

	for i, msg := range messages {
		if i > 0 {
			b.WriteString("\n\n")
		}
		switch msg.Role {
		case models.User:
			label := styles.LabelStyle("39").Render(UserLabel)
			b.WriteString(userStyle.Render(label + "\n" + msg.Content))
		case models.Assistant:
			label := styles.LabelStyle("214").Render(AssistantLabel)
			body := utils.RenderMarkdown(msg.Content, contentWidth)
			b.WriteString(assistantStyle.Render(label + "\n" + body))
		}
	}

	return b.String()
}
