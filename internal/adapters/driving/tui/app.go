package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/infinitegrit26/ACD2/internal/adapters/driving/tui/keymap"
	"github.com/infinitegrit26/ACD2/internal/adapters/driving/tui/messages"
	"github.com/infinitegrit26/ACD2/internal/adapters/driving/tui/styles"
	"github.com/infinitegrit26/ACD2/internal/adapters/driving/tui/views/chat"
	"github.com/infinitegrit26/ACD2/internal/adapters/driving/tui/views/documents"
	"github.com/infinitegrit26/ACD2/internal/adapters/driving/tui/views/settings"
)

// App is the main TUI application following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	// ports provides access to core services via driving ports.
	ports *Ports

	// ctx is the context for cancellation.
	ctx context.Context

	styles *styles.Styles
	keymap *keymap.KeyMap

	chatView      *chat.View
	documentsView *documents.View
	settingsView  *settings.View

	// currentView tracks which view is active.
	currentView messages.ViewType

	// width and height are terminal dimensions.
	width  int
	height int

	// ready indicates if the app has received its first size.
	ready bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a new TUI application with the given ports.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()

	return &App{
		ports:         ports,
		ctx:           context.Background(),
		styles:        s,
		keymap:        km,
		chatView:      chat.NewView(s, km, ports.Agent, ports.Store, ports.Prompts),
		documentsView: documents.NewView(s, ports.Store),
		settingsView:  settings.NewView(s, ports.Settings),
		currentView:   messages.ViewChat,
	}, nil
}

// WithContext sets the context for the app and its views.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	a.chatView.WithContext(ctx)
	a.documentsView.WithContext(ctx)
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.SetWindowTitle("pdfchat"),
		a.chatView.Init(),
	)
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		if keymap.Matches(msg.String(), a.keymap.Quit) {
			return a, tea.Quit
		}
		if a.currentView == messages.ViewHelp {
			if msg.Type == tea.KeyEsc || keymap.Matches(msg.String(), a.keymap.Help) {
				a.currentView = messages.ViewChat
			}
			return a, nil
		}

	case messages.ViewChanged:
		a.currentView = msg.View
		switch msg.View {
		case messages.ViewDocuments:
			return a, a.documentsView.Init()
		case messages.ViewSettings:
			return a, a.settingsView.Init()
		case messages.ViewChat, messages.ViewHelp:
		}
		return a, nil

	// Results of background commands go to their owner, whatever is on screen.
	case messages.AnswerReceived, messages.StatsLoaded, messages.PromptsReloaded:
		a.chatView, cmd = a.chatView.Update(msg)
		return a, cmd

	case messages.DocumentsLoaded:
		a.documentsView, cmd = a.documentsView.Update(msg)
		return a, cmd

	case messages.SettingsLoaded:
		a.settingsView, cmd = a.settingsView.Update(msg)
		return a, cmd

	case messages.Quit:
		return a, tea.Quit
	}

	switch a.currentView {
	case messages.ViewChat:
		a.chatView, cmd = a.chatView.Update(msg)
	case messages.ViewDocuments:
		a.documentsView, cmd = a.documentsView.Update(msg)
	case messages.ViewSettings:
		a.settingsView, cmd = a.settingsView.Update(msg)
	case messages.ViewHelp:
	}

	// The spinner keeps ticking while another view is open.
	if a.currentView != messages.ViewChat && a.chatView.Busy() {
		if _, ok := msg.(tea.KeyMsg); !ok {
			var chatCmd tea.Cmd
			a.chatView, chatCmd = a.chatView.Update(msg)
			cmd = tea.Batch(cmd, chatCmd)
		}
	}

	return a, cmd
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	switch a.currentView {
	case messages.ViewDocuments:
		return a.documentsView.View()
	case messages.ViewSettings:
		return a.settingsView.View()
	case messages.ViewHelp:
		return a.viewHelp()
	default:
		return a.chatView.View()
	}
}

// viewHelp renders the keybindings and slash commands.
func (a *App) viewHelp() string {
	var b strings.Builder

	b.WriteString(a.styles.Title.Render("Help"))
	b.WriteString("\n\n")
	for _, group := range a.keymap.FullHelp() {
		for _, binding := range group {
			h := binding.Help()
			b.WriteString(fmt.Sprintf("  %-12s %s\n", h.Key, h.Desc))
		}
		b.WriteString("\n")
	}

	b.WriteString(a.styles.Subtitle.Render("Commands"))
	b.WriteString("\n")
	for _, c := range [][2]string{
		{"/stats", "document and chunk counts"},
		{"/docs", "list ingested documents"},
		{"/config", "show the resolved configuration"},
		{"/reload", "re-read prompt files from disk"},
		{"/clear", "forget the conversation"},
		{"/quit", "exit"},
	} {
		b.WriteString(fmt.Sprintf("  %-12s %s\n", c[0], c[1]))
	}

	b.WriteString("\n")
	b.WriteString(a.styles.Help.Render("[esc] back to chat"))
	return b.String()
}

// Run starts the TUI and blocks until the user quits.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(a.ctx))
	_, err := p.Run()
	return err
}

// CurrentView returns the current view type.
func (a *App) CurrentView() messages.ViewType {
	return a.currentView
}

// Chat returns the chat view.
func (a *App) Chat() *chat.View {
	return a.chatView
}

// Ready returns whether the app has been initialised.
func (a *App) Ready() bool {
	return a.ready
}

// SetDimensions sizes every view.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true
	a.chatView.SetDimensions(width, height)
	a.documentsView.SetDimensions(width, height)
	a.settingsView.SetDimensions(width, height)
}
