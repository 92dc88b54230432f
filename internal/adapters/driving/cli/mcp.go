package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/infinitegrit26/ACD2/internal/adapters/driving/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server so AI assistants can query
your documents.

Tools:
  query_documents - retrieve attributed passages for a query
  ask             - answer a question, searching documents when needed

Resources:
  pdfchat://stats      - document and chunk counts
  pdfchat://documents  - ingested documents

By default, the server communicates over stdio using JSON-RPC.
Use --port to start an HTTP server instead.

Examples:
  # Stdio mode (default, for desktop assistants)
  pdfchat mcp serve

  # HTTP mode (for MCP Inspector, remote access)
  pdfchat mcp serve --port 8080`,
	Args: cobra.NoArgs,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntP("port", "p", 0, "HTTP port (0 = use stdio)")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return fmt.Errorf("getting port flag: %w", err)
	}

	rt, err := openRuntime(cmd)
	if err != nil {
		return err
	}
	defer closeRuntime(rt)

	ports := &mcp.Ports{
		Retrieval: rt.Retrieval,
		Agent:     rt.Agent,
		Store:     rt.Store,
		Info: mcp.Info{
			LLMModel:       rt.Config.LLM.Model,
			EmbeddingModel: rt.Config.Embedding.Model,
			Storage:        storageDescription(rt.Config.Storage),
		},
	}

	server, err := mcp.NewServer(ports)
	if err != nil {
		return err
	}

	if port > 0 {
		addr := fmt.Sprintf(":%d", port)
		// Stdout belongs to the protocol only in stdio mode.
		fmt.Fprintf(cmd.OutOrStdout(), "MCP server listening on http://localhost%s\n", addr)
		return server.RunHTTP(cmd.Context(), addr)
	}

	return server.Run(cmd.Context())
}
