// Package status provides status bar components for the TUI.
package status

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/infinitegrit26/ACD2/internal/adapters/driving/tui/keymap"
	"github.com/infinitegrit26/ACD2/internal/adapters/driving/tui/styles"
	"github.com/infinitegrit26/ACD2/internal/core/domain"
)

// State represents the current application state for display.
type State string

const (
	StateReady    State = "ready"
	StateThinking State = "thinking"
	StateError    State = "error"
	StateHelp     State = "help"
	StateBrowsing State = "browsing"
)

// Bar displays the agent state, the last route and keybinding hints.
type Bar struct {
	styles   *styles.Styles
	keymap   *keymap.KeyMap
	state    State
	agent    domain.AgentState
	route    domain.Route
	message  string
	docCount int
	width    int
}

// NewBar creates a new status bar component.
func NewBar(s *styles.Styles, km *keymap.KeyMap) *Bar {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &Bar{
		styles:   s,
		keymap:   km,
		state:    StateReady,
		agent:    domain.AgentIdle,
		docCount: -1,
		width:    80,
	}
}

// Init initialises the status bar.
func (s *Bar) Init() tea.Cmd {
	return nil
}

// Update handles status bar messages.
func (s *Bar) Update(msg tea.Msg) (*Bar, tea.Cmd) {
	// Bar is passive, updated via Set methods
	return s, nil
}

// View renders the status bar.
func (s *Bar) View() string {
	left := s.renderLeft()
	right := s.renderRight()

	padding := s.width - lipgloss.Width(left) - lipgloss.Width(right)
	if padding < 1 {
		padding = 1
	}

	return s.styles.StatusBar.Width(s.width).Render(
		left + strings.Repeat(" ", padding) + right,
	)
}

// renderLeft renders the state, route and document count.
func (s *Bar) renderLeft() string {
	switch s.state {
	case StateThinking:
		return s.styles.Normal.Render(s.agent.String() + "...")
	case StateError:
		if s.message != "" {
			return s.styles.Error.Render(fmt.Sprintf("Error: %s", s.message))
		}
		return s.styles.Error.Render("Error")
	case StateHelp:
		return s.styles.Normal.Render("Help")
	case StateReady, StateBrowsing:
	}

	parts := make([]string, 0, 3)
	if s.message != "" {
		parts = append(parts, s.styles.Normal.Render(s.message))
	} else {
		parts = append(parts, s.styles.Muted.Render("Ready"))
	}
	if s.route != "" {
		parts = append(parts, s.styles.Muted.Render("route: ")+s.styles.Subtitle.Render(string(s.route)))
	}
	if s.docCount >= 0 {
		parts = append(parts, s.styles.Muted.Render(pluralise(s.docCount, "document")))
	}
	return strings.Join(parts, s.styles.Muted.Render(" · "))
}

// renderRight renders keybinding hints.
func (s *Bar) renderRight() string {
	bindings := s.keymap.ShortHelp()
	if s.state == StateBrowsing {
		bindings = s.keymap.ListHelp()
	}

	hints := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		hints = append(hints, fmt.Sprintf("%s: %s", h.Key, h.Desc))
	}
	return s.styles.Muted.Render(strings.Join(hints, " | "))
}

func pluralise(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

// SetState sets the current state.
func (s *Bar) SetState(state State) {
	s.state = state
}

// State returns the current state.
func (s *Bar) State() State {
	return s.state
}

// SetAgentState records the routing agent's state, shown while thinking.
func (s *Bar) SetAgentState(state domain.AgentState) {
	s.agent = state
}

// AgentState returns the last recorded agent state.
func (s *Bar) AgentState() domain.AgentState {
	return s.agent
}

// SetRoute records the route of the last answer.
func (s *Bar) SetRoute(route domain.Route) {
	s.route = route
}

// Route returns the route of the last answer.
func (s *Bar) Route() domain.Route {
	return s.route
}

// SetMessage sets a custom message.
func (s *Bar) SetMessage(message string) {
	s.message = message
}

// Message returns the current message.
func (s *Bar) Message() string {
	return s.message
}

// SetDocumentCount sets the number of ingested documents. Negative hides it.
func (s *Bar) SetDocumentCount(count int) {
	s.docCount = count
}

// DocumentCount returns the document count, or -1 when unknown.
func (s *Bar) DocumentCount() int {
	return s.docCount
}

// SetWidth sets the status bar width.
func (s *Bar) SetWidth(width int) {
	s.width = width
}

// Width returns the current width.
func (s *Bar) Width() int {
	return s.width
}

// Clear resets state and message. Route and document count are kept.
func (s *Bar) Clear() {
	s.state = StateReady
	s.agent = domain.AgentIdle
	s.message = ""
}
