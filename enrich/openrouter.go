package enrich

import (
	"context"
	"fmt"

	"github.com/revrost/go-openrouter"
)

// Completer returns a JSON object answering userPrompt under systemPrompt.
type Completer interface {
	CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// OpenRouter is a Completer backed by OpenRouter chat completions in JSON mode.
type OpenRouter struct {
	client *openrouter.Client
	model  string
}

func NewOpenRouter(apiKey, model string) *OpenRouter {
	if model == "" {
		model = "openai/gpt-4o-mini"
	}
	return &OpenRouter{client: openrouter.NewClient(apiKey), model: model}
}

func (o *OpenRouter) CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	request := openrouter.ChatCompletionRequest{
		Model: o.model,
		Messages: []openrouter.ChatCompletionMessage{
			{
				Role:    openrouter.ChatMessageRoleSystem,
				Content: openrouter.Content{Text: systemPrompt},
			},
			{
				Role:    openrouter.ChatMessageRoleUser,
				Content: openrouter.Content{Text: userPrompt},
			},
		},
		ResponseFormat: &openrouter.ChatCompletionResponseFormat{
			Type: openrouter.ChatCompletionResponseFormatTypeJSONObject,
		},
	}

	response, err := o.client.CreateChatCompletion(ctx, request)
	if err != nil {
		return "", fmt.Errorf("failed to create JSON completion: %w", err)
	}
	if len(response.Choices) == 0 {
		return "", fmt.Errorf("no completion choices returned")
	}
	return response.Choices[0].Message.Content.Text, nil
}
