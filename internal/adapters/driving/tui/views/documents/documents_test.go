package documents

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/infinitegrit26/ACD2/internal/adapters/driving/tui/messages"
	"github.com/infinitegrit26/ACD2/internal/core/domain"
	"github.com/infinitegrit26/ACD2/internal/core/ports/driving"
)

type stubStore struct {
	driving.VectorStore
	docs  []domain.Document
	err   error
	calls int
}

func (s *stubStore) Documents(context.Context) ([]domain.Document, error) {
	s.calls++
	return s.docs, s.err
}

func testDocuments() []domain.Document {
	return []domain.Document{
		{
			ID: "doc-1", Name: "manual.pdf", Fingerprint: "abc123", ChunkCount: 7,
			EmbeddingModel: "nomic-embed-text", CreatedAt: time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC),
		},
		{ID: "doc-2", Name: "faq.pdf", ChunkCount: 2},
	}
}

func loadedView(t *testing.T, store *stubStore) *View {
	t.Helper()
	v := NewView(nil, store)
	v.SetDimensions(100, 30)
	cmd := v.Init()
	require.NotNil(t, cmd)
	assert.True(t, v.Loading())
	v.Update(cmd())
	return v
}

func key(s string) tea.KeyMsg {
	switch s {
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestView_LoadsDocuments(t *testing.T) {
	v := loadedView(t, &stubStore{docs: testDocuments()})

	assert.False(t, v.Loading())
	assert.NoError(t, v.Err())
	assert.Len(t, v.Documents(), 2)
	view := v.View()
	assert.Contains(t, view, "manual.pdf")
	assert.Contains(t, view, "faq.pdf")
}

func TestView_LoadError(t *testing.T) {
	v := loadedView(t, &stubStore{err: errors.New("db locked")})

	assert.EqualError(t, v.Err(), "db locked")
	assert.Contains(t, v.View(), "Error: db locked")
}

func TestView_NoStore(t *testing.T) {
	v := NewView(nil, nil)

	msg := v.Init()()

	assert.ErrorIs(t, msg.(messages.DocumentsLoaded).Err, ErrNoStore)
}

func TestView_Empty(t *testing.T) {
	v := loadedView(t, &stubStore{})

	v.Update(key("enter"))

	assert.False(t, v.ShowingDetails())
	assert.Contains(t, v.View(), "No documents ingested")
}

func TestView_Details(t *testing.T) {
	v := loadedView(t, &stubStore{docs: testDocuments()})

	v.Update(key("enter"))

	require.True(t, v.ShowingDetails())
	view := v.View()
	assert.Contains(t, view, "doc-1")
	assert.Contains(t, view, "abc123")
	assert.Contains(t, view, "nomic-embed-text")
	assert.Contains(t, view, "2026-05-04 10:00:00")

	_, cmd := v.Update(key("esc"))
	assert.Nil(t, cmd)
	assert.False(t, v.ShowingDetails())
}

func TestView_Navigation(t *testing.T) {
	v := loadedView(t, &stubStore{docs: testDocuments()})

	v.Update(key("down"))

	assert.Equal(t, "faq.pdf", v.SelectedDocument().Name)

	v.Update(key("k"))
	assert.Equal(t, "manual.pdf", v.SelectedDocument().Name)
}

func TestView_Reload(t *testing.T) {
	store := &stubStore{docs: testDocuments()}
	v := loadedView(t, store)

	_, cmd := v.Update(key("r"))
	require.NotNil(t, cmd)
	v.Update(cmd())

	assert.Equal(t, 2, store.calls)
}

func TestView_EscReturnsToChat(t *testing.T) {
	v := loadedView(t, &stubStore{docs: testDocuments()})

	_, cmd := v.Update(key("esc"))

	require.NotNil(t, cmd)
	assert.Equal(t, messages.ViewChanged{View: messages.ViewChat}, cmd())
}

func TestView_ErrorOccurred(t *testing.T) {
	v := loadedView(t, &stubStore{})

	v.Update(messages.ErrorOccurred{Err: errors.New("boom")})

	assert.EqualError(t, v.Err(), "boom")
}
