// Package domain defines the core entities of policyqa.
//
// This package is the innermost layer of the hexagon. It defines:
//
//   - Chunk: an immutable span of document text with its embedding
//   - QuestionProfile: complexity and keyword signals for a question
//   - RetrievalConfig: the injected taxonomy, markers and weights
//   - SelectionResult: the chosen passages and their explanation
//   - Answer: the generated answer with traceable clause references
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
