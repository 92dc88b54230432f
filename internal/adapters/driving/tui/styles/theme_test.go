package styles

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"

	"github.com/infinitegrit26/ACD2/internal/core/domain"
)

func TestDefaultPalette_Complete(t *testing.T) {
	p := DefaultPalette()

	for name, c := range map[string]lipgloss.AdaptiveColor{
		"accent":  p.Accent,
		"user":    p.User,
		"text":    p.Text,
		"subtle":  p.Subtle,
		"surface": p.Surface,
		"warn":    p.Warn,
		"fail":    p.Fail,
		"frame":   p.Frame,
	} {
		assert.NotEmpty(t, c.Light, name)
		assert.NotEmpty(t, c.Dark, name)
	}
}

func TestDefaultPalette_SignalsAreDistinct(t *testing.T) {
	p := DefaultPalette()

	seen := make(map[string]bool)
	for _, c := range []lipgloss.AdaptiveColor{p.Accent, p.User, p.Warn, p.Fail} {
		assert.False(t, seen[c.Dark], "duplicate colour %s", c.Dark)
		seen[c.Dark] = true
	}
}

func TestNewStyles_KeepsPalette(t *testing.T) {
	p := DefaultPalette()
	p.Accent = lipgloss.AdaptiveColor{Light: "#000000", Dark: "#FFFFFF"}

	assert.Equal(t, p, NewStyles(p).Palette())
}

func TestRouteBadge(t *testing.T) {
	s := DefaultStyles()

	assert.Contains(t, s.RouteBadge(domain.RouteRetrieve), "documents")
	assert.Contains(t, s.RouteBadge(domain.RouteDirect), "direct")
}

func TestStyles_Render(t *testing.T) {
	s := DefaultStyles()

	for name, style := range map[string]lipgloss.Style{
		"Title":          s.Title,
		"Normal":         s.Normal,
		"Muted":          s.Muted,
		"Selected":       s.Selected,
		"Error":          s.Error,
		"Warning":        s.Warning,
		"StatusBar":      s.StatusBar,
		"UserLabel":      s.UserLabel,
		"AssistantLabel": s.AssistantLabel,
	} {
		assert.Contains(t, style.Render("text"), "text", name)
	}
}
