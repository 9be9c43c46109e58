// Package services implements the driving port interfaces.
//
// The retrieval core lives here: ChunkStore, Analyzer, Retriever, Scorer,
// Selector and Explainer, composed by RetrievalService. DocumentService
// builds and caches chunk stores; AnswerService answers question batches.
// Services orchestrate calls to driven ports and never import adapters.
package services
