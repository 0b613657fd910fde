package openai

import (
	"context"
	"errors"
	"testing"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.uber.org/zap"
)

type mockCompletions struct {
	response  *openai.ChatCompletion
	err       error
	callCount int
	last      openai.ChatCompletionNewParams
}

func (m *mockCompletions) New(ctx context.Context, params openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	m.callCount++
	m.last = params
	return m.response, m.err
}

func completion(text string) *openai.ChatCompletion {
	return &openai.ChatCompletion{
		Choices: []openai.ChatCompletionChoice{{
			Message: openai.ChatCompletionMessage{Content: text},
		}},
	}
}

func TestGenerateContent(t *testing.T) {
	mock := &mockCompletions{response: completion("  hello  ")}
	g := newGenerator(mock, Config{Model: "gpt-4o", MaxTokens: 150}, zap.NewNop())

	out, err := g.GenerateContent(context.Background(), "system", "message")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "hello" {
		t.Fatalf("unexpected output %q", out)
	}
	if mock.callCount != 1 {
		t.Fatalf("expected one call, got %d", mock.callCount)
	}
	if got := len(mock.last.Messages.Value); got != 2 {
		t.Fatalf("expected system and user messages, got %d", got)
	}
	if mock.last.Model.Value != "gpt-4o" {
		t.Fatalf("unexpected model %q", mock.last.Model.Value)
	}
	if mock.last.MaxTokens.Value != 150 {
		t.Fatalf("unexpected max tokens %d", mock.last.MaxTokens.Value)
	}
	if mock.last.Temperature.Value != defaultTemperature {
		t.Fatalf("unexpected temperature %v", mock.last.Temperature.Value)
	}
}

func TestGenerateContentWithoutSystem(t *testing.T) {
	mock := &mockCompletions{response: completion("ok")}
	g := newGenerator(mock, Config{}, nil)

	if _, err := g.GenerateContent(context.Background(), "  ", "message"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := len(mock.last.Messages.Value); got != 1 {
		t.Fatalf("expected only the user message, got %d", got)
	}
	if g.Model() != defaultModel {
		t.Fatalf("expected default model, got %q", g.Model())
	}
}

func TestGenerateContentErrors(t *testing.T) {
	cases := map[string]*mockCompletions{
		"api error":  {err: errors.New("boom")},
		"no choices": {response: &openai.ChatCompletion{}},
		"empty text": {response: completion("   ")},
	}

	for name, mock := range cases {
		t.Run(name, func(t *testing.T) {
			g := newGenerator(mock, Config{}, zap.NewNop())
			if _, err := g.GenerateContent(context.Background(), "sys", "msg"); err == nil {
				t.Fatal("expected error")
			}
		})
	}

	g := newGenerator(&mockCompletions{}, Config{}, zap.NewNop())
	if _, err := g.GenerateContent(context.Background(), "sys", " "); err == nil {
		t.Fatal("expected error for empty message")
	}
}

func TestNewGeneratorRequiresKey(t *testing.T) {
	if _, err := NewGenerator(" ", Config{}, nil); err == nil {
		t.Fatal("expected error for missing api key")
	}
}
