// Package ai defines the contract shared by the language-model providers.
package ai

import "context"

// Provider names accepted in configuration.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Generator produces a single text completion for a system instruction and a
// user message.
type Generator interface {
	GenerateContent(ctx context.Context, system, message string) (string, error)
	Model() string
}
