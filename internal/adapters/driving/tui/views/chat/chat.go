// Package chat provides the conversation view for the TUI.
package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/infinitegrit26/ACD2/internal/adapters/driving/tui/components/input"
	"github.com/infinitegrit26/ACD2/internal/adapters/driving/tui/components/status"
	"github.com/infinitegrit26/ACD2/internal/adapters/driving/tui/keymap"
	"github.com/infinitegrit26/ACD2/internal/adapters/driving/tui/messages"
	"github.com/infinitegrit26/ACD2/internal/adapters/driving/tui/styles"
	"github.com/infinitegrit26/ACD2/internal/core/domain"
	"github.com/infinitegrit26/ACD2/internal/core/ports/driven"
	"github.com/infinitegrit26/ACD2/internal/core/ports/driving"
)

type entryKind int

const (
	entryUser entryKind = iota
	entryAssistant
	entryNote
	entryError
)

// entry is one rendered block of the transcript.
type entry struct {
	kind   entryKind
	text   string
	answer *domain.Answer
}

// View is the chat view: a scrollable transcript above a message box.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	viewport  viewport.Model
	input     *input.ChatInput
	spinner   spinner.Model
	statusbar *status.Bar

	agent   driving.ChatAgent
	store   driving.VectorStore
	prompts driven.PromptStore
	ctx     context.Context

	history    []driven.ChatMessage
	transcript []entry
	busy       bool

	width  int
	height int
	ready  bool
	err    error
}

// NewView creates a new chat view. Store and prompts may be nil.
func NewView(
	s *styles.Styles,
	km *keymap.KeyMap,
	agent driving.ChatAgent,
	store driving.VectorStore,
	prompts driven.PromptStore,
) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &View{
		styles:    s,
		keymap:    km,
		viewport:  viewport.New(80, 10),
		input:     input.NewChatInput(s, km),
		spinner:   spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(s.Spinner)),
		statusbar: status.NewBar(s, km),
		agent:     agent,
		store:     store,
		prompts:   prompts,
		ctx:       context.Background(),
		width:     80,
		height:    24,
	}
}

// WithContext sets the context used for agent calls.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init focuses the input and loads the document count.
func (v *View) Init() tea.Cmd {
	return tea.Batch(v.input.Init(), v.loadStats(false))
}

// Update handles messages for the chat view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case tea.MouseMsg:
		var cmd tea.Cmd
		v.viewport, cmd = v.viewport.Update(msg)
		return v, cmd

	case spinner.TickMsg:
		if !v.busy {
			return v, nil
		}
		if v.agent != nil {
			v.statusbar.SetAgentState(v.agent.State())
		}
		var cmd tea.Cmd
		v.spinner, cmd = v.spinner.Update(msg)
		return v, cmd

	case messages.AnswerReceived:
		v.handleAnswer(msg)
		return v, nil

	case statsNote:
		v.handleStats(msg.StatsLoaded, msg.announce)
		return v, nil

	case messages.StatsLoaded:
		v.handleStats(msg, false)
		return v, nil

	case messages.PromptsReloaded:
		v.addNote("Prompts reloaded from disk.")
		return v, nil

	case messages.ErrorOccurred:
		v.setError(msg.Err)
		return v, nil
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

// handleKeyMsg processes keyboard input.
func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	key := msg.String()

	if keymap.Matches(key, v.keymap.ScrollUp) || keymap.Matches(key, v.keymap.ScrollDown) {
		var cmd tea.Cmd
		v.viewport, cmd = v.viewport.Update(msg)
		return v, cmd
	}

	// The transcript is read-only while a turn is running.
	if v.busy {
		return v, nil
	}

	if keymap.Matches(key, v.keymap.Documents) {
		return v, changeView(messages.ViewDocuments)
	}
	if keymap.Matches(key, v.keymap.Help) {
		return v, changeView(messages.ViewHelp)
	}
	if keymap.Matches(key, v.keymap.Send) {
		return v, v.submit()
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

// submit sends the typed message or runs a slash command.
func (v *View) submit() tea.Cmd {
	text := v.input.Message()
	if text == "" {
		return nil
	}
	v.input.Reset()

	if strings.HasPrefix(text, "/") {
		return v.runCommand(text)
	}

	v.err = nil
	v.transcript = append(v.transcript, entry{kind: entryUser, text: text})
	v.busy = true
	v.statusbar.SetState(status.StateThinking)
	v.statusbar.SetAgentState(domain.AgentDeciding)
	v.refresh()

	return tea.Batch(v.spinner.Tick, v.ask(text))
}

// runCommand handles /-prefixed input.
func (v *View) runCommand(text string) tea.Cmd {
	name := strings.ToLower(strings.Fields(text)[0])

	switch name {
	case "/help":
		return changeView(messages.ViewHelp)
	case "/docs", "/documents":
		return changeView(messages.ViewDocuments)
	case "/config", "/settings":
		return changeView(messages.ViewSettings)
	case "/stats":
		return v.loadStats(true)
	case "/reload":
		return v.reloadPrompts()
	case "/clear":
		v.Clear()
		return nil
	case "/quit", "/exit":
		return tea.Quit
	default:
		v.addNote(fmt.Sprintf("Unknown command %s. Commands: /stats /docs /config /reload /clear /help /quit", name))
		return nil
	}
}

// ask runs one agent turn in the background.
func (v *View) ask(question string) tea.Cmd {
	history := make([]driven.ChatMessage, len(v.history))
	copy(history, v.history)
	ctx := v.ctx

	return func() tea.Msg {
		if v.agent == nil {
			return messages.AnswerReceived{Question: question, Err: ErrNoAgent}
		}
		answer, err := v.agent.Ask(ctx, history, question)
		return messages.AnswerReceived{Question: question, Answer: answer, Err: err}
	}
}

// handleAnswer records the assistant reply. Failed turns stay out of history.
func (v *View) handleAnswer(msg messages.AnswerReceived) {
	v.busy = false
	v.statusbar.SetAgentState(domain.AgentIdle)

	if msg.Err != nil {
		v.transcript = append(v.transcript, entry{kind: entryError, text: domain.ApologyMessage(msg.Err)})
		v.setError(msg.Err)
		return
	}

	v.err = nil
	v.history = append(v.history,
		driven.ChatMessage{Role: driven.RoleUser, Content: msg.Question},
		driven.ChatMessage{Role: driven.RoleAssistant, Content: msg.Answer.Text},
	)
	v.transcript = append(v.transcript, entry{kind: entryAssistant, text: msg.Answer.Text, answer: msg.Answer})

	v.statusbar.SetState(status.StateReady)
	v.statusbar.SetMessage("")
	v.statusbar.SetRoute(msg.Answer.Route)
	v.refresh()
}

// statsNote is a StatsLoaded that should also be printed in the transcript.
type statsNote struct {
	messages.StatsLoaded
	announce bool
}

func (v *View) loadStats(announce bool) tea.Cmd {
	if v.store == nil {
		if announce {
			return func() tea.Msg {
				return messages.ErrorOccurred{Err: ErrNoStore}
			}
		}
		return nil
	}
	ctx := v.ctx
	return func() tea.Msg {
		stats, err := v.store.Stats(ctx)
		return statsNote{StatsLoaded: messages.StatsLoaded{Stats: stats, Err: err}, announce: announce}
	}
}

func (v *View) handleStats(msg messages.StatsLoaded, announce bool) {
	if msg.Err != nil {
		v.setError(msg.Err)
		return
	}
	v.statusbar.SetDocumentCount(msg.Stats.DocumentCount)
	if announce {
		v.addNote(fmt.Sprintf("%d documents, %d chunks indexed.", msg.Stats.DocumentCount, msg.Stats.ChunkCount))
	}
}

func (v *View) reloadPrompts() tea.Cmd {
	if v.prompts == nil {
		v.addNote("No prompt directory configured.")
		return nil
	}
	prompts := v.prompts
	return func() tea.Msg {
		prompts.Reload()
		return messages.PromptsReloaded{}
	}
}

func (v *View) setError(err error) {
	v.err = err
	v.statusbar.SetState(status.StateError)
	v.statusbar.SetMessage(err.Error())
	v.refresh()
}

func (v *View) addNote(text string) {
	v.transcript = append(v.transcript, entry{kind: entryNote, text: text})
	v.refresh()
}

func changeView(view messages.ViewType) tea.Cmd {
	return func() tea.Msg {
		return messages.ViewChanged{View: view}
	}
}

// refresh re-renders the transcript into the viewport and scrolls to the end.
func (v *View) refresh() {
	v.viewport.SetContent(v.renderTranscript())
	v.viewport.GotoBottom()
}

func (v *View) renderTranscript() string {
	if len(v.transcript) == 0 {
		return v.styles.Muted.Render("Ask a question about your documents, or type /help.")
	}

	body := v.styles.Normal.Width(max(v.width-2, 20))
	blocks := make([]string, 0, len(v.transcript))
	for _, e := range v.transcript {
		switch e.kind {
		case entryUser:
			blocks = append(blocks, v.styles.UserLabel.Render("You")+"\n"+body.Render(e.text))
		case entryAssistant:
			blocks = append(blocks, v.renderAnswer(e, body))
		case entryError:
			blocks = append(blocks, v.styles.AssistantLabel.Render("Assistant")+"\n"+v.styles.Error.Render(e.text))
		case entryNote:
			blocks = append(blocks, v.styles.Muted.Render("· "+e.text))
		}
	}
	return strings.Join(blocks, "\n\n")
}

func (v *View) renderAnswer(e entry, body lipgloss.Style) string {
	header := v.styles.AssistantLabel.Render("Assistant")
	if e.answer != nil && e.answer.Route != "" {
		header += " " + v.styles.RouteBadge(e.answer.Route)
	}

	lines := []string{header}
	if e.answer != nil && e.answer.Route == domain.RouteRetrieve && e.answer.Query != "" {
		lines = append(lines, v.styles.Muted.Render("searched: "+e.answer.Query))
	}
	if e.answer != nil && e.answer.RetrievalFailed {
		lines = append(lines, v.styles.Warning.Render("document search failed; answered without documents"))
	}
	lines = append(lines, body.Render(e.text))
	return strings.Join(lines, "\n")
}

// View renders the chat view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	activity := ""
	if v.busy {
		activity = v.spinner.View() + " " + v.styles.Muted.Render(v.statusbar.AgentState().String()+"...")
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		v.styles.Title.Render("pdfchat"),
		v.viewport.View(),
		activity,
		v.input.View(),
		v.statusbar.View(),
	)
}

// SetDimensions sizes the transcript to fill the space above the input.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true

	v.input.SetWidth(width)
	v.statusbar.SetWidth(width)
	v.viewport.Width = width
	// title, activity line and status bar take one line each
	v.viewport.Height = max(height-v.input.Height()-3, 3)
	v.refresh()
}

// Clear forgets the conversation.
func (v *View) Clear() {
	v.history = nil
	v.transcript = nil
	v.err = nil
	v.statusbar.Clear()
	v.statusbar.SetRoute("")
	v.refresh()
}

// History returns the messages sent with the next turn.
func (v *View) History() []driven.ChatMessage {
	return v.history
}

// Transcript returns the rendered conversation.
func (v *View) Transcript() string {
	return v.renderTranscript()
}

// Busy reports whether a turn is in flight.
func (v *View) Busy() bool {
	return v.busy
}

// Input returns the message box.
func (v *View) Input() *input.ChatInput {
	return v.input
}

// StatusBar returns the status bar.
func (v *View) StatusBar() *status.Bar {
	return v.statusbar
}

// Err returns the last error, if any.
func (v *View) Err() error {
	return v.err
}

// Ready returns whether the view is ready to render.
func (v *View) Ready() bool {
	return v.ready
}
