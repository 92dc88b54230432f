// Package domain defines the core business entities for pdfchat.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: An ingested source file identified by its Fingerprint
//   - Chunk: A bounded text segment, the unit of embedding and retrieval
//   - RetrievalHit: A scored chunk returned by a similarity query
//   - Decision: The per-turn routing outcome (Direct or Retrieve)
//   - Config: The immutable runtime configuration
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
