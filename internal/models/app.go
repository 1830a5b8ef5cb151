package models

import (
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
)

// AppModel represents the UI state - only local UI concerns
type AppModel struct {
	Messages         Log             // Transcript pushed by the core
	Model            ModelID         // Current model selection
	Status           string          // Status bar text
	Loading          bool            // A request is in flight
	Width            int             // Terminal width
	Height           int             // Terminal height
	ChatServiceReady bool            // Whether a backend is configured
	Profile          string          // Active profile name, shown in the header
	Input            textinput.Model // Message input
	Transcript       viewport.Model  // Scrollable message list
	Spinner          spinner.Model   // Loading indicator
}
