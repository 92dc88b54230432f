// Package styles holds the colours and lipgloss styles of the chat TUI.
package styles

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/infinitegrit26/ACD2/internal/core/domain"
)

// Palette is the set of colours every style derives from. Each colour has a
// light and a dark variant; lipgloss picks one from the terminal background.
type Palette struct {
	Accent  lipgloss.AdaptiveColor // assistant, titles, spinner
	User    lipgloss.AdaptiveColor // user label, retrieve badge
	Text    lipgloss.AdaptiveColor
	Subtle  lipgloss.AdaptiveColor // notes, help, status bar
	Surface lipgloss.AdaptiveColor // status bar and badge text
	Warn    lipgloss.AdaptiveColor
	Fail    lipgloss.AdaptiveColor
	Frame   lipgloss.AdaptiveColor
}

// DefaultPalette is a Catppuccin-like scheme.
func DefaultPalette() Palette {
	return Palette{
		Accent:  lipgloss.AdaptiveColor{Light: "#8839EF", Dark: "#CBA6F7"},
		User:    lipgloss.AdaptiveColor{Light: "#04A5E5", Dark: "#89DCEB"},
		Text:    lipgloss.AdaptiveColor{Light: "#4C4F69", Dark: "#CDD6F4"},
		Subtle:  lipgloss.AdaptiveColor{Light: "#8C8FA1", Dark: "#6C7086"},
		Surface: lipgloss.AdaptiveColor{Light: "#E6E9EF", Dark: "#181825"},
		Warn:    lipgloss.AdaptiveColor{Light: "#DF8E1D", Dark: "#F9E2AF"},
		Fail:    lipgloss.AdaptiveColor{Light: "#D20F39", Dark: "#F38BA8"},
		Frame:   lipgloss.AdaptiveColor{Light: "#BCC0CC", Dark: "#45475A"},
	}
}

// Styles are the rendered styles shared by all views.
type Styles struct {
	palette Palette

	Title      lipgloss.Style
	Subtitle   lipgloss.Style
	Normal     lipgloss.Style
	Muted      lipgloss.Style
	Selected   lipgloss.Style
	Error      lipgloss.Style
	Warning    lipgloss.Style
	Help       lipgloss.Style
	InputField lipgloss.Style
	StatusBar  lipgloss.Style
	Border     lipgloss.Style
	Spinner    lipgloss.Style

	UserLabel      lipgloss.Style
	AssistantLabel lipgloss.Style

	directBadge   lipgloss.Style
	retrieveBadge lipgloss.Style
}

// NewStyles builds styles from p.
func NewStyles(p Palette) *Styles {
	badge := lipgloss.NewStyle().Foreground(p.Surface).Padding(0, 1)
	rounded := lipgloss.NewStyle().BorderStyle(lipgloss.RoundedBorder()).BorderForeground(p.Frame)

	return &Styles{
		palette: p,

		Title:      lipgloss.NewStyle().Bold(true).Foreground(p.Accent),
		Subtitle:   lipgloss.NewStyle().Bold(true).Foreground(p.User),
		Normal:     lipgloss.NewStyle().Foreground(p.Text),
		Muted:      lipgloss.NewStyle().Foreground(p.Subtle),
		Selected:   lipgloss.NewStyle().Bold(true).Foreground(p.Surface).Background(p.Accent),
		Error:      lipgloss.NewStyle().Foreground(p.Fail),
		Warning:    lipgloss.NewStyle().Foreground(p.Warn),
		Help:       lipgloss.NewStyle().Foreground(p.Subtle),
		InputField: rounded.Padding(0, 1),
		StatusBar:  lipgloss.NewStyle().Foreground(p.Subtle).Background(p.Surface).Padding(0, 1),
		Border:     rounded,
		Spinner:    lipgloss.NewStyle().Foreground(p.Accent),

		UserLabel:      lipgloss.NewStyle().Bold(true).Foreground(p.User),
		AssistantLabel: lipgloss.NewStyle().Bold(true).Foreground(p.Accent),

		directBadge:   badge.Background(p.Subtle),
		retrieveBadge: badge.Background(p.User),
	}
}

// DefaultStyles returns styles for DefaultPalette.
func DefaultStyles() *Styles {
	return NewStyles(DefaultPalette())
}

// Palette returns the colours the styles were built from.
func (s *Styles) Palette() Palette {
	return s.palette
}

// RouteBadge renders the route a turn took. Document-backed answers stand
// out from direct ones.
func (s *Styles) RouteBadge(route domain.Route) string {
	if route == domain.RouteRetrieve {
		return s.retrieveBadge.Render("documents")
	}
	return s.directBadge.Render(string(route))
}
