package port

import "context"

// LLM is the completion backend that writes the tutor's answer.
type LLM interface {
	// Generate returns the model's answer to the prompt.
	Generate(ctx context.Context, prompt string) (string, error)

	// GenerateWithSystem generates text with a system prompt.
	GenerateWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error)

	// ModelName returns the name of the model.
	ModelName() string
}

// TemplateLoader supplies the prompt template of a personality.
type TemplateLoader interface {
	Load(personality string) (string, error)
}
