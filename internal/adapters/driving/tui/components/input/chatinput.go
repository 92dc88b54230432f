// Package input provides text input components for the TUI.
package input

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/infinitegrit26/ACD2/internal/adapters/driving/tui/keymap"
	"github.com/infinitegrit26/ACD2/internal/adapters/driving/tui/styles"
)

// DefaultHeight is the number of visible message lines.
const DefaultHeight = 3

// ChatInput wraps a bubbles textarea for composing chat messages.
// Enter is left to the parent view; line breaks use the NewLine binding.
type ChatInput struct {
	textarea textarea.Model
	styles   *styles.Styles
	width    int
}

// NewChatInput creates a new focused chat input.
func NewChatInput(s *styles.Styles, km *keymap.KeyMap) *ChatInput {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	ta := textarea.New()
	ta.Placeholder = "Ask about your documents..."
	ta.ShowLineNumbers = false
	ta.CharLimit = 4000
	ta.KeyMap.InsertNewline = key.NewBinding(key.WithKeys(km.NewLine.Keys()...))
	ta.SetHeight(DefaultHeight)
	ta.SetWidth(60)
	ta.Focus()

	return &ChatInput{
		textarea: ta,
		styles:   s,
		width:    60,
	}
}

// Init initialises the chat input.
func (c *ChatInput) Init() tea.Cmd {
	return textarea.Blink
}

// Update handles input messages.
func (c *ChatInput) Update(msg tea.Msg) (*ChatInput, tea.Cmd) {
	var cmd tea.Cmd
	c.textarea, cmd = c.textarea.Update(msg)
	return c, cmd
}

// View renders the chat input.
func (c *ChatInput) View() string {
	return c.styles.InputField.Render(c.textarea.View())
}

// Value returns the current input value.
func (c *ChatInput) Value() string {
	return c.textarea.Value()
}

// Message returns the trimmed value, or "" when only whitespace was typed.
func (c *ChatInput) Message() string {
	return strings.TrimSpace(c.textarea.Value())
}

// SetValue sets the input value.
func (c *ChatInput) SetValue(value string) {
	c.textarea.SetValue(value)
}

// Focus sets focus on the input.
func (c *ChatInput) Focus() tea.Cmd {
	return c.textarea.Focus()
}

// Blur removes focus from the input.
func (c *ChatInput) Blur() {
	c.textarea.Blur()
}

// Focused returns whether the input is focused.
func (c *ChatInput) Focused() bool {
	return c.textarea.Focused()
}

// SetWidth sets the width of the input, minus the border and padding.
func (c *ChatInput) SetWidth(width int) {
	c.width = width
	inner := width - 4
	if inner < 20 {
		inner = 20
	}
	c.textarea.SetWidth(inner)
}

// Width returns the current width.
func (c *ChatInput) Width() int {
	return c.width
}

// Height returns the rendered height including the border.
func (c *ChatInput) Height() int {
	return c.textarea.Height() + 2
}

// Reset clears the input.
func (c *ChatInput) Reset() {
	c.textarea.Reset()
}
