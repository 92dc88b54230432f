// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/infinitegrit26/ACD2/internal/core/domain"
)

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewChat is the conversation view.
	ViewChat ViewType = iota
	// ViewDocuments lists ingested documents.
	ViewDocuments
	// ViewHelp is the help/keybindings view.
	ViewHelp
	// ViewSettings shows the resolved configuration.
	ViewSettings
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewChat:
		return "chat"
	case ViewDocuments:
		return "documents"
	case ViewHelp:
		return "help"
	case ViewSettings:
		return "settings"
	default:
		return "unknown"
	}
}

// AnswerReceived carries the result of one chat turn.
type AnswerReceived struct {
	Question string
	Answer   *domain.Answer
	Err      error
}

// StatsLoaded carries index statistics.
type StatsLoaded struct {
	Stats domain.IndexStats
	Err   error
}

// DocumentsLoaded carries the list of ingested documents.
type DocumentsLoaded struct {
	Documents []domain.Document
	Err       error
}

// SettingsLoaded carries the resolved configuration fields.
type SettingsLoaded struct {
	Fields []domain.ConfigField
	Path   string
	Err    error
}

// PromptsReloaded signals that prompt templates were re-read from disk.
type PromptsReloaded struct{}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}
