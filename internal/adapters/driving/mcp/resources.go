package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/infinitegrit26/ACD2/internal/core/domain"
)

const (
	// uriScheme is the custom URI scheme for pdfchat resources.
	uriScheme = "pdfchat://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "stats",
		Name:        "stats",
		Description: "Document and chunk counts with the configured models",
		MIMEType:    "application/json",
	}, s.handleStatsResource)

	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "documents",
		Name:        "documents",
		Description: "Documents available for question answering",
		MIMEType:    "application/json",
	}, s.handleDocumentsResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "documents/{documentId}",
		Name:        "document",
		Description: "Metadata of a single ingested document",
		MIMEType:    "application/json",
	}, s.handleDocumentResource)
}

// statsInfo is the JSON body of the stats resource.
type statsInfo struct {
	domain.IndexStats
	Info
}

// documentInfo is the JSON form of a stored document.
type documentInfo struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Fingerprint    string    `json:"fingerprint"`
	ChunkCount     int       `json:"chunk_count"`
	EmbeddingModel string    `json:"embedding_model"`
	CreatedAt      time.Time `json:"created_at"`
}

func toDocumentInfo(doc *domain.Document) documentInfo {
	return documentInfo{
		ID:             doc.ID,
		Name:           doc.Name,
		Fingerprint:    string(doc.Fingerprint),
		ChunkCount:     doc.ChunkCount,
		EmbeddingModel: doc.EmbeddingModel,
		CreatedAt:      doc.CreatedAt,
	}
}

// handleStatsResource returns index statistics.
func (s *Server) handleStatsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	info := statsInfo{Info: s.ports.Info}
	if s.ports.Store != nil {
		stats, err := s.ports.Store.Stats(ctx)
		if err != nil {
			return nil, fmt.Errorf("reading stats: %w", err)
		}
		info.IndexStats = stats
	}
	return jsonResult(req.Params.URI, info)
}

// handleDocumentsResource lists complete documents, oldest first.
func (s *Server) handleDocumentsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Store == nil {
		return jsonResult(req.Params.URI, []documentInfo{})
	}

	docs, err := s.ports.Store.Documents(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}

	infos := make([]documentInfo, len(docs))
	for i := range docs {
		infos[i] = toDocumentInfo(&docs[i])
	}
	return jsonResult(req.Params.URI, infos)
}

// handleDocumentResource returns one document's metadata.
func (s *Server) handleDocumentResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	docID := extractDocumentID(req.Params.URI)
	if s.ports.Store == nil || docID == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	docs, err := s.ports.Store.Documents(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	for i := range docs {
		if docs[i].ID == docID {
			return jsonResult(req.Params.URI, toDocumentInfo(&docs[i]))
		}
	}
	return nil, mcp.ResourceNotFoundError(req.Params.URI)
}

func jsonResult(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling %s: %w", uri, err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractDocumentID extracts the document ID from a URI like pdfchat://documents/{documentId}.
func extractDocumentID(uri string) string {
	const prefix = uriScheme + "documents/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	return strings.TrimPrefix(uri, prefix)
}
