package domain

import (
	"strconv"
	"time"
)

// Passage is a numbered chunk handed to the answer generator.
// Numbers start at 1 and are stable for one answer so citations can be traced.
type Passage struct {
	Number int
	Chunk  Chunk
}

// Label returns the citation tag used in prompts, e.g. "CLAUSE_2".
func (p Passage) Label() string {
	return "CLAUSE_" + strconv.Itoa(p.Number)
}

// NumberPassages assigns citation numbers in selection order.
func NumberPassages(chunks []Chunk) []Passage {
	out := make([]Passage, len(chunks))
	for i, c := range chunks {
		out[i] = Passage{Number: i + 1, Chunk: c}
	}
	return out
}

// ClauseReference is a passage cited by a generated answer.
type ClauseReference struct {
	Number     int
	ChunkIndex int
	Section    string
	Preview    string
}

// Answer is the generated answer for one question.
type Answer struct {
	// Question is the original question.
	Question string

	// Text is the generated prose.
	Text string

	// Model is the LLM that produced the answer.
	Model string

	// SupportingClauses lists the passages the answer cites.
	SupportingClauses []ClauseReference

	// Selection is the retrieval outcome that fed the answer.
	Selection *SelectionResult

	// Duration is the wall time spent on this question.
	Duration time.Duration
}

// AnswerRequest is a batch of questions against one document.
type AnswerRequest struct {
	// DocumentURI locates the document.
	DocumentURI string

	// Questions are answered concurrently; results keep this order.
	Questions []string

	// Options override the retrieval policy for this request.
	Options RetrievalOptions
}

// QuestionResult is the outcome of one question in a batch.
// Exactly one of Answer and Err is set.
type QuestionResult struct {
	Index  int
	Answer *Answer
	Err    *QuestionError
}

// Failed returns true if the question errored.
func (r QuestionResult) Failed() bool {
	return r.Err != nil
}

// AnswerBatch is the outcome of an AnswerRequest.
type AnswerBatch struct {
	// ID identifies the batch in logs and responses.
	ID string

	// Document describes the chunk store used.
	Document DocumentInfo

	// Results are in question order.
	Results []QuestionResult

	// Duration is the wall time for the whole batch.
	Duration time.Duration
}

// Failures counts failed questions.
func (b AnswerBatch) Failures() int {
	n := 0
	for _, r := range b.Results {
		if r.Failed() {
			n++
		}
	}
	return n
}
