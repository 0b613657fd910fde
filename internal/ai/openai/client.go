// Package openai adapts the OpenAI chat completions API to ai.Generator.
package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.uber.org/zap"

	"github.com/bmatch/matchbot/internal/ai"
	"github.com/bmatch/matchbot/internal/logger"
)

const (
	defaultModel       = "gpt-4o-mini"
	defaultTemperature = 0.7
	defaultMaxTokens   = 1000
)

var _ ai.Generator = (*Generator)(nil)

// CompletionsService is the subset of the chat completions API used here.
type CompletionsService interface {
	New(ctx context.Context, params openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error)
}

// Config tunes the completion requests.
type Config struct {
	Model       string  `mapstructure:"model"`
	Temperature float64 `mapstructure:"temperature"`
	MaxTokens   int64   `mapstructure:"max-tokens"`
	BaseURL     string  `mapstructure:"base-url"`
}

// Generator sends system+message completions to OpenAI.
type Generator struct {
	completions CompletionsService
	model       string
	temperature float64
	maxTokens   int64
	logger      *zap.Logger
}

// NewGenerator creates a Generator backed by the OpenAI API.
func NewGenerator(apiKey string, cfg Config, log *zap.Logger) (*Generator, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("openai api key is required")
	}

	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	client := openai.NewClient(opts...)

	return newGenerator(client.Chat.Completions, cfg, log), nil
}

func newGenerator(completions CompletionsService, cfg Config, log *zap.Logger) *Generator {
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultModel
	}
	temperature := cfg.Temperature
	if temperature <= 0 {
		temperature = defaultTemperature
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Generator{
		completions: completions,
		model:       model,
		temperature: temperature,
		maxTokens:   maxTokens,
		logger:      logger.WithCommonFields(log.Named("openai"), ai.ProviderOpenAI, model),
	}
}

// GenerateContent returns the first choice of a chat completion.
func (g *Generator) GenerateContent(ctx context.Context, system, message string) (string, error) {
	if g == nil || g.completions == nil {
		return "", errors.New("openai generator is not initialized")
	}

	message = strings.TrimSpace(message)
	if message == "" {
		return "", errors.New("message must not be empty")
	}

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, 2)
	if system = strings.TrimSpace(system); system != "" {
		messages = append(messages, openai.SystemMessage(system))
	}
	messages = append(messages, openai.UserMessage(message))

	resp, err := g.completions.New(ctx, openai.ChatCompletionNewParams{
		Messages:    openai.F(messages),
		Model:       openai.F(openai.ChatModel(g.model)),
		Temperature: openai.F(g.temperature),
		MaxTokens:   openai.F(g.maxTokens),
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", errors.New("openai api returned no choices")
	}

	output := strings.TrimSpace(resp.Choices[0].Message.Content)
	if output == "" {
		return "", errors.New("openai api returned empty response")
	}

	g.logger.Debug("chat completion finished",
		zap.Int64("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int64("completion_tokens", resp.Usage.CompletionTokens),
	)

	return output, nil
}

// Model returns the configured model name.
func (g *Generator) Model() string {
	if g == nil {
		return ""
	}
	return g.model
}
