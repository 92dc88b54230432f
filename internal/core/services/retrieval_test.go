package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/infinitegrit26/ACD2/internal/core/domain"
)

func TestRetrievalTool_Definition(t *testing.T) {
	def := NewRetrievalTool(&stubVectorStore{}, 5, 4000).Definition()

	assert.Equal(t, "query_documents", def.Name)
	assert.NotEmpty(t, def.Description)
	assert.Equal(t, "object", def.Parameters["type"])
	assert.Equal(t, []string{"query"}, def.Parameters["required"])

	props, ok := def.Parameters["properties"].(map[string]any)
	require.True(t, ok)
	query, ok := props["query"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "string", query["type"])
}

func TestRetrievalTool_Defaults(t *testing.T) {
	tool := NewRetrievalTool(&stubVectorStore{}, 0, 0)
	assert.Equal(t, domain.DefaultTopK, tool.topK)
	assert.Equal(t, domain.DefaultMaxContextLength, tool.maxContextLength)
}

func TestRetrievalTool_FormatsHits(t *testing.T) {
	store := &stubVectorStore{hits: []domain.RetrievalHit{
		{ChunkID: "c2", DocumentName: "manual.pdf", Position: 1, Content: "vers installation. ", Score: 0.9},
		{ChunkID: "c1", DocumentName: "manual.pdf", Position: 0, Content: "Section A. Section A covers ", Score: 0.4},
	}}
	tool := NewRetrievalTool(store, 3, 4000)

	out, err := tool.QueryDocuments(context.Background(), "installation")

	require.NoError(t, err)
	assert.Equal(t, 3, store.topK)
	assert.Equal(t, ResultsHeader+"\n\n"+
		"[source: manual.pdf, chunk 2]: vers installation. \n\n"+
		"[source: manual.pdf, chunk 1]: Section A. Section A covers ", out)
}

func TestRetrievalTool_EmptyIndexSentinel(t *testing.T) {
	tool := NewRetrievalTool(&stubVectorStore{queryErr: domain.ErrEmptyIndex}, 5, 4000)

	out, err := tool.QueryDocuments(context.Background(), "installation")

	require.NoError(t, err)
	assert.Equal(t, NoResultsSentinel, out)
}

func TestRetrievalTool_NoHitsSentinel(t *testing.T) {
	tool := NewRetrievalTool(&stubVectorStore{}, 5, 4000)

	out, err := tool.QueryDocuments(context.Background(), "installation")

	require.NoError(t, err)
	assert.Equal(t, NoResultsSentinel, out)
}

func TestRetrievalTool_StoreError(t *testing.T) {
	storeErr := errors.New("disk on fire")
	tool := NewRetrievalTool(&stubVectorStore{queryErr: storeErr}, 5, 4000)

	_, err := tool.QueryDocuments(context.Background(), "installation")

	assert.ErrorIs(t, err, domain.ErrToolInvocationFailure)
	assert.ErrorIs(t, err, storeErr)
}

func TestRetrievalTool_EmptyQuery(t *testing.T) {
	tool := NewRetrievalTool(&stubVectorStore{}, 5, 4000)

	_, err := tool.QueryDocuments(context.Background(), "   ")

	assert.ErrorIs(t, err, domain.ErrToolInvocationFailure)
}

func TestFormatHits_Truncation(t *testing.T) {
	hits := []domain.RetrievalHit{
		{DocumentName: "a.pdf", Position: 0, Content: strings.Repeat("x", 100)},
		{DocumentName: "b.pdf", Position: 4, Content: strings.Repeat("y", 100)},
	}

	out := FormatHits(hits, 170)

	assert.Equal(t, 170, utf8.RuneCountInString(out))
	assert.True(t, strings.HasSuffix(out, "…"))
	assert.True(t, strings.HasPrefix(out, "[source: a.pdf, chunk 1]: "))
	assert.Contains(t, out, "[source: b.pdf, chunk 5]: ")
}

func TestFormatHits_NoTruncationWhenShort(t *testing.T) {
	hits := []domain.RetrievalHit{{DocumentName: "a.pdf", Content: "short"}}

	out := FormatHits(hits, 4000)

	assert.Equal(t, "[source: a.pdf, chunk 1]: short", out)
}

func TestTruncate_Unicode(t *testing.T) {
	out := truncate(strings.Repeat("é", 20), 10)
	assert.Equal(t, 10, utf8.RuneCountInString(out))
	assert.True(t, utf8.ValidString(out))
	assert.Equal(t, "é", truncate("é", 0))
}
