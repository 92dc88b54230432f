// Package documents provides the documents list view component for the TUI.
package documents

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/infinitegrit26/ACD2/internal/adapters/driving/tui/components/list"
	"github.com/infinitegrit26/ACD2/internal/adapters/driving/tui/messages"
	"github.com/infinitegrit26/ACD2/internal/adapters/driving/tui/styles"
	"github.com/infinitegrit26/ACD2/internal/core/domain"
	"github.com/infinitegrit26/ACD2/internal/core/ports/driving"
)

// ErrNoStore is reported when the view has no vector store to list from.
var ErrNoStore = errors.New("document store not available")

// View is the documents list view.
type View struct {
	styles *styles.Styles
	store  driving.VectorStore
	list   *list.DocumentList
	ctx    context.Context

	width       int
	height      int
	loading     bool
	showDetails bool
	err         error
}

// NewView creates a new documents view.
func NewView(s *styles.Styles, store driving.VectorStore) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		styles: s,
		store:  store,
		list:   list.NewDocumentList(s),
		ctx:    context.Background(),
		width:  80,
		height: 24,
	}
}

// WithContext sets the context used for store calls.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init starts loading the document list.
func (v *View) Init() tea.Cmd {
	v.loading = true
	v.showDetails = false
	return v.loadDocuments()
}

// loadDocuments returns a command that lists complete documents.
func (v *View) loadDocuments() tea.Cmd {
	store, ctx := v.store, v.ctx
	return func() tea.Msg {
		if store == nil {
			return messages.DocumentsLoaded{Err: ErrNoStore}
		}
		docs, err := store.Documents(ctx)
		return messages.DocumentsLoaded{Documents: docs, Err: err}
	}
}

// Update handles messages for the documents view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.DocumentsLoaded:
		v.loading = false
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.err = nil
		v.list.SetDocuments(msg.Documents)
		return v, nil

	case messages.ErrorOccurred:
		v.err = msg.Err
		return v, nil
	}

	return v, nil
}

// handleKeyMsg handles key presses in list mode.
func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch msg.String() {
	case "esc":
		if v.showDetails {
			v.showDetails = false
			return v, nil
		}
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewChat}
		}
	case "enter":
		if !v.list.IsEmpty() {
			v.showDetails = !v.showDetails
		}
	case "r":
		v.loading = true
		return v, v.loadDocuments()
	default:
		v.list, _ = v.list.Update(msg)
	}
	return v, nil
}

// View renders the documents view.
func (v *View) View() string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render("Documents"))
	b.WriteString("\n\n")

	switch {
	case v.loading:
		b.WriteString(v.styles.Muted.Render("Loading documents..."))
	case v.err != nil:
		b.WriteString(v.styles.Error.Render(fmt.Sprintf("Error: %s", v.err.Error())))
	case v.showDetails:
		b.WriteString(v.renderDetails(v.list.SelectedDocument()))
	default:
		b.WriteString(v.list.View())
	}

	b.WriteString("\n\n")
	b.WriteString(v.styles.Help.Render("[↑/↓] navigate  [enter] details  [r] reload  [esc] back"))
	return b.String()
}

func (v *View) renderDetails(doc *domain.Document) string {
	if doc == nil {
		return ""
	}

	rows := []struct{ label, value string }{
		{"Name", doc.Name},
		{"ID", doc.ID},
		{"Fingerprint", string(doc.Fingerprint)},
		{"Chunks", fmt.Sprintf("%d", doc.ChunkCount)},
		{"Embedding model", doc.EmbeddingModel},
		{"Ingested", doc.CreatedAt.Format("2006-01-02 15:04:05")},
	}

	lines := make([]string, 0, len(rows))
	for _, r := range rows {
		lines = append(lines, v.styles.Muted.Render(fmt.Sprintf("%-16s", r.label))+v.styles.Normal.Render(r.value))
	}
	return v.styles.Border.Padding(0, 1).Render(strings.Join(lines, "\n"))
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	// title, spacing and help footer
	v.list.SetDimensions(width, height-5)
}

// Documents returns the listed documents.
func (v *View) Documents() []domain.Document {
	return v.list.Documents()
}

// SelectedDocument returns the highlighted document, or nil.
func (v *View) SelectedDocument() *domain.Document {
	return v.list.SelectedDocument()
}

// ShowingDetails reports whether the detail panel is open.
func (v *View) ShowingDetails() bool {
	return v.showDetails
}

// Loading reports whether a load is in flight.
func (v *View) Loading() bool {
	return v.loading
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
