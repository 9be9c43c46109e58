// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - DocumentLoader: Fetches raw document bytes from a file path or URL
//   - NormaliserRegistry: Converts raw bytes to plain text
//   - PostProcessorPipeline: Splits text into segments
//   - EmbeddingService: Converts text to vectors
//   - VectorIndex: Exact similarity search over one document's chunks
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - LLMService: Answer generation. Without it only passage selection is available.
//   - EmbeddingCache: Reuses vectors for identical chunk text across rebuilds.
//   - PromptStore: Customisable prompt templates. Built-in defaults apply without it.
//   - StrategyLoader: Custom retrieval strategies from files.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or normaliser package
package driven
