// Package settings provides the read-only configuration view for the TUI.
package settings

import (
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/infinitegrit26/ACD2/internal/adapters/driving/tui/messages"
	"github.com/infinitegrit26/ACD2/internal/adapters/driving/tui/styles"
	"github.com/infinitegrit26/ACD2/internal/core/domain"
	"github.com/infinitegrit26/ACD2/internal/core/ports/driving"
)

// ErrNoSettings is reported when the view has no settings service.
var ErrNoSettings = errors.New("settings service not available")

// View lists every configuration key with its value and origin.
// Secrets arrive masked from the settings service.
type View struct {
	styles   *styles.Styles
	settings driving.SettingsService

	fields []domain.ConfigField
	path   string
	err    error

	width  int
	height int
	ready  bool
}

// NewView creates a new settings view.
func NewView(s *styles.Styles, settingsService driving.SettingsService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		styles:   s,
		settings: settingsService,
	}
}

// Init loads the resolved configuration.
func (v *View) Init() tea.Cmd {
	return v.loadSettings()
}

func (v *View) loadSettings() tea.Cmd {
	svc := v.settings
	return func() tea.Msg {
		if svc == nil {
			return messages.SettingsLoaded{Err: ErrNoSettings}
		}
		fields, err := svc.Fields()
		return messages.SettingsLoaded{Fields: fields, Path: svc.ConfigPath(), Err: err}
	}
}

// Update handles messages for the settings view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case messages.SettingsLoaded:
		v.err = msg.Err
		if msg.Err == nil {
			v.fields = msg.Fields
			v.path = msg.Path
		}
		return v, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc", "q":
			return v, func() tea.Msg {
				return messages.ViewChanged{View: messages.ViewChat}
			}
		case "r":
			return v, v.loadSettings()
		}
	}
	return v, nil
}

// View renders the settings view.
func (v *View) View() string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render("Settings"))
	b.WriteString("\n")
	if v.path != "" {
		b.WriteString(v.styles.Muted.Render(v.path))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	if v.err != nil {
		b.WriteString(v.styles.Error.Render(fmt.Sprintf("Error: %s", v.err.Error())))
	} else {
		b.WriteString(v.renderFields())
	}

	b.WriteString("\n\n")
	b.WriteString(v.styles.Help.Render("Change values with `pdfchat config set <key> <value>`.  [r] reload  [esc] back"))
	return b.String()
}

// renderFields groups keys by their first segment ("llm", "storage", ...).
func (v *View) renderFields() string {
	lines := make([]string, 0, len(v.fields)+8)
	group := ""
	for _, f := range v.fields {
		prefix, _, _ := strings.Cut(f.Key, ".")
		if prefix != group {
			if group != "" {
				lines = append(lines, "")
			}
			group = prefix
			lines = append(lines, v.styles.Subtitle.Render("["+group+"]"))
		}

		value := f.Value
		if value == "" {
			value = "(unset)"
		}
		lines = append(lines, fmt.Sprintf("  %s %s %s",
			v.styles.Normal.Render(fmt.Sprintf("%-28s", f.Key)),
			v.styles.Normal.Render(fmt.Sprintf("%-32s", value)),
			v.styles.Muted.Render(sourceLabel(f)),
		))
	}
	return strings.Join(lines, "\n")
}

func sourceLabel(f domain.ConfigField) string {
	switch f.Source {
	case domain.SourceEnv:
		return "env " + f.EnvVar
	case domain.SourceFile:
		return "config file"
	default:
		return "default"
	}
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
}

// Fields returns the loaded configuration fields.
func (v *View) Fields() []domain.ConfigField {
	return v.fields
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
