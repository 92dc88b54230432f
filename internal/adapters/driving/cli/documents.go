package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/infinitegrit26/ACD2/internal/core/domain"
)

var documentsJSON bool

var documentsCmd = &cobra.Command{
	Use:     "documents",
	Aliases: []string{"docs"},
	Short:   "List ingested documents",
	Args:    cobra.NoArgs,
	RunE:    runDocuments,
}

func init() {
	documentsCmd.Flags().BoolVar(&documentsJSON, "json", false, "output documents as JSON")
	rootCmd.AddCommand(documentsCmd)
}

// documentJSON is the --json shape of a document.
type documentJSON struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Fingerprint    string `json:"fingerprint"`
	ChunkCount     int    `json:"chunk_count"`
	EmbeddingModel string `json:"embedding_model"`
	CreatedAt      string `json:"created_at"`
}

func runDocuments(cmd *cobra.Command, _ []string) error {
	rt, err := openRuntime(cmd)
	if err != nil {
		return err
	}
	defer closeRuntime(rt)

	if rt.Store == nil {
		return errors.New("vector store not configured")
	}

	docs, err := rt.Store.Documents(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	if documentsJSON {
		return outputDocumentsJSON(cmd, docs)
	}
	return outputDocumentsTable(cmd, docs)
}

func outputDocumentsJSON(cmd *cobra.Command, docs []domain.Document) error {
	out := make([]documentJSON, 0, len(docs))
	for i := range docs {
		out = append(out, documentJSON{
			ID:             docs[i].ID,
			Name:           docs[i].Name,
			Fingerprint:    string(docs[i].Fingerprint),
			ChunkCount:     docs[i].ChunkCount,
			EmbeddingModel: docs[i].EmbeddingModel,
			CreatedAt:      docs[i].CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
		})
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal documents: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputDocumentsTable(cmd *cobra.Command, docs []domain.Document) error {
	if len(docs) == 0 {
		cmd.Println("No documents ingested. Run `pdfchat ingest <file.pdf>` first.")
		return nil
	}

	chunks := 0
	for i := range docs {
		cmd.Printf("  %s\n", docs[i].Name)
		cmd.Printf("    ID: %s\n", docs[i].ID)
		cmd.Printf("    Chunks: %d\n", docs[i].ChunkCount)
		cmd.Printf("    Ingested: %s\n", docs[i].CreatedAt.Local().Format("2006-01-02 15:04"))
		cmd.Println()
		chunks += docs[i].ChunkCount
	}
	cmd.Printf("Total: %d documents, %d chunks\n", len(docs), chunks)
	return nil
}
