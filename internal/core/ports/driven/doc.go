// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - EmbeddingService: Maps text to fixed-length vectors
//   - LLMService: Chat completion with tool calling
//   - DocumentStore: Document, chunk and fingerprint persistence
//   - VectorIndex: Nearest-neighbour search over chunk embeddings
//   - Normaliser: Extracts plain text from a source file
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - EmbeddingCache: Skips re-embedding identical text. Without it every chunk is embedded.
//   - PromptStore: User-editable prompts. Without it built-in prompts are used.
//   - RouteClassifier: Replaces the default model-driven routing decision.
//   - ProviderChecker: Pings providers when settings change. Without it nothing is pinged.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter, connector, or normaliser package
package driven
