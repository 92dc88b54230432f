// Package list provides list display components for the TUI.
package list

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/infinitegrit26/ACD2/internal/adapters/driving/tui/styles"
	"github.com/infinitegrit26/ACD2/internal/core/domain"
)

// DocumentList displays ingested documents in a navigable list.
type DocumentList struct {
	documents []domain.Document
	selected  int
	styles    *styles.Styles
	width     int
	height    int
}

// NewDocumentList creates a new document list component.
func NewDocumentList(s *styles.Styles) *DocumentList {
	if s == nil {
		s = styles.DefaultStyles()
	}

	return &DocumentList{
		styles: s,
		width:  80,
		height: 10,
	}
}

// Init initialises the document list.
func (d *DocumentList) Init() tea.Cmd {
	return nil
}

// Update handles list navigation messages.
func (d *DocumentList) Update(msg tea.Msg) (*DocumentList, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "up", "k":
			d.MoveUp()
		case "down", "j":
			d.MoveDown()
		}
	}
	return d, nil
}

// View renders the document list.
func (d *DocumentList) View() string {
	if len(d.documents) == 0 {
		return d.styles.Muted.Render("No documents ingested. Run `pdfchat ingest <file.pdf>` first.")
	}

	lines := make([]string, 0, len(d.documents)*2+2)
	lines = append(lines, d.styles.Subtitle.Render(fmt.Sprintf("Documents (%d)", len(d.documents))), "")

	// Each document takes two lines.
	visibleCount := (d.height - 2) / 2
	if visibleCount < 1 {
		visibleCount = 1
	}

	start := 0
	if d.selected >= visibleCount {
		start = d.selected - visibleCount + 1
	}
	end := min(start+visibleCount, len(d.documents))

	for i := start; i < end; i++ {
		lines = append(lines, d.renderDocument(i, &d.documents[i]))
	}

	return strings.Join(lines, "\n")
}

// renderDocument formats a document name with its chunk count and model.
func (d *DocumentList) renderDocument(index int, doc *domain.Document) string {
	indicator := "  "
	if index == d.selected {
		indicator = "> "
	}

	name := doc.Name
	if name == "" {
		name = "(unnamed)"
	}
	maxNameLen := max(d.width-20, 10)
	name = truncate(name, maxNameLen)

	chunks := fmt.Sprintf("%d chunks", doc.ChunkCount)

	var nameLine string
	if index == d.selected {
		nameLine = d.styles.Selected.Render(fmt.Sprintf("%s%-*s  %s", indicator, maxNameLen, name, chunks))
	} else {
		nameLine = d.styles.Normal.Render(fmt.Sprintf("%s%-*s  ", indicator, maxNameLen, name)) +
			d.styles.Muted.Render(chunks)
	}

	detail := fmt.Sprintf("    %s  %s", doc.CreatedAt.Format("2006-01-02 15:04"), doc.EmbeddingModel)
	return nameLine + "\n" + d.styles.Muted.Render(truncate(detail, max(d.width-2, 20)))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

// SetDocuments replaces the list contents.
func (d *DocumentList) SetDocuments(docs []domain.Document) {
	d.documents = docs
	d.selected = 0
}

// Documents returns the current documents.
func (d *DocumentList) Documents() []domain.Document {
	return d.documents
}

// Selected returns the index of the selected document.
func (d *DocumentList) Selected() int {
	return d.selected
}

// SetSelected sets the selected index.
func (d *DocumentList) SetSelected(index int) {
	if index >= 0 && index < len(d.documents) {
		d.selected = index
	}
}

// SelectedDocument returns the selected document, or nil if none.
func (d *DocumentList) SelectedDocument() *domain.Document {
	if len(d.documents) == 0 || d.selected < 0 || d.selected >= len(d.documents) {
		return nil
	}
	return &d.documents[d.selected]
}

// MoveUp moves selection up.
func (d *DocumentList) MoveUp() {
	if d.selected > 0 {
		d.selected--
	}
}

// MoveDown moves selection down.
func (d *DocumentList) MoveDown() {
	if d.selected < len(d.documents)-1 {
		d.selected++
	}
}

// SetDimensions sets the component dimensions.
func (d *DocumentList) SetDimensions(width, height int) {
	d.width = width
	d.height = height
}

// Count returns the number of documents.
func (d *DocumentList) Count() int {
	return len(d.documents)
}

// IsEmpty returns whether the list is empty.
func (d *DocumentList) IsEmpty() bool {
	return len(d.documents) == 0
}
