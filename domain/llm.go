package domain

import "context"

// Prompt is a fully rendered request to the model. System carries the
// persona instructions, User carries the conversation history.
type Prompt struct {
	System string
	User   string
}

// Llm abstracts any chat/LLM provider. A failed completion is fatal to the
// run in progress; the simulator never retries.
type Llm interface {
	Complete(ctx context.Context, prompt Prompt) (string, error)
}
