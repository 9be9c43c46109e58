package driven

// PromptStore provides access to LLM prompt templates.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	// Unknown names return an error; known names fall back to built-in defaults.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	Reload()
}

// Well-known prompt names.
const (
	// PromptAnswerSystem is the system prompt for answer generation.
	// It has no format placeholders.
	PromptAnswerSystem = "answer_system"

	// PromptAnswer is the user prompt for answer generation.
	// It expects two %s placeholders: the numbered passages, then the question.
	PromptAnswer = "answer"
)

// PromptStoreAware is implemented by services whose prompts can be customised
// by injecting a PromptStore after construction.
type PromptStoreAware interface {
	// SetPromptStore sets the prompt store for loading customisable prompts.
	SetPromptStore(store PromptStore)
}

// DefaultPrompts are the built-in templates, used when no user file overrides them.
//
//nolint:lll // Prompt content is intentionally long and should not be wrapped.
var DefaultPrompts = map[string]string{
	PromptAnswerSystem: `You are a legal expert analysing insurance and policy documents. Answer precisely and only from the numbered clauses you are given. Reference the clause labels, for example [CLAUSE_2], that support each statement. If the clauses do not contain the answer, say so plainly and state what information would be needed.`,

	PromptAnswer: `Context (document clauses):
%s

Question: %s

Give a direct answer in one to three sentences, then any conditions or limitations that apply. Cite the supporting clauses as [CLAUSE_n].

Answer:`,
}
