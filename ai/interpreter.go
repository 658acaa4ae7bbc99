// Package ai proxies dream interpretation to a chat-completion service.
package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

const (
	systemPrompt = "You are a dream-interpretation assistant. Explain the meaning of the user's dream concisely."

	requestTimeout = 30 * time.Second
)

// Interpreter produces an interpretation for a dream description.
type Interpreter interface {
	Interpret(ctx context.Context, dream string) (string, error)
}

// OpenAIInterpreter calls the OpenAI chat-completion API.
type OpenAIInterpreter struct {
	client *openai.Client
	model  string
}

// NewOpenAIInterpreter creates an interpreter using the given API key and model.
func NewOpenAIInterpreter(apiKey, model string) *OpenAIInterpreter {
	return &OpenAIInterpreter{
		client: openai.NewClient(apiKey),
		model:  model,
	}
}

// Interpret forwards the dream text and returns the completion. The upstream
// call is bounded by a 30 second timeout.
func (i *OpenAIInterpreter) Interpret(ctx context.Context, dream string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	resp, err := i.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: i.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: systemPrompt,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: fmt.Sprintf("The user's dream:\n%s\nWhat does this dream mean?", dream),
			},
		},
		MaxTokens:   500,
		Temperature: 0.7,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
