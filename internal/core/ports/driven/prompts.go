package driven

// PromptStore provides access to LLM prompt templates.
// Implementations may load prompts from files or embed them in the binary.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	// This is useful when prompts may have been edited on disk.
	Reload()
}

// Well-known prompt names used by the pipeline stages.
// These constants define the contract between prompt consumers and providers.
const (
	// PromptClassify labels one text block.
	// The template expects %s (label list) and %s (block text) placeholders.
	PromptClassify = "classify"

	// PromptContext synthesises the concept digest.
	// The template expects a %s placeholder for the content text.
	PromptContext = "context"

	// PromptQuiz generates the quiz.
	// The template expects %d (count) and %s (digest) placeholders.
	PromptQuiz = "quiz"

	// PromptFlashcards generates the flashcard deck.
	// The template expects %d (count) and %s (digest) placeholders.
	PromptFlashcards = "flashcards"

	// PromptExplain explains one incorrect answer.
	// The template expects nine %s placeholders: question, options A to D,
	// student answer key and text, correct answer key and text.
	PromptExplain = "explain"
)
