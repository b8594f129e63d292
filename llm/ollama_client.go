package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ollama/ollama/api"
)

type OllamaClient struct {
	client      *api.Client
	model       string
	temperature float64
}

// NewOllamaClient reads OLLAMA_HOST from the environment.
func NewOllamaClient(model string, temperature float64) (*OllamaClient, error) {
	cli, err := api.ClientFromEnvironment()
	if err != nil {
		return nil, fmt.Errorf("ollama client: %w", err)
	}
	return newOllamaClientWith(cli, model, temperature), nil
}

func newOllamaClientWith(cli *api.Client, model string, temperature float64) *OllamaClient {
	return &OllamaClient{client: cli, model: model, temperature: temperature}
}

func (c *OllamaClient) GetModel() string {
	return c.model
}

func (c *OllamaClient) GenerateStructured(ctx context.Context, messages []Message, schema Schema, opts ...LLMOption) (*Completion, error) {
	settings := applyOptions(LLMSettings{
		model:       c.model,
		temperature: c.temperature,
		maxTokens:   4096,
	}, opts)

	format, err := json.Marshal(schema.Definition)
	if err != nil {
		return nil, fmt.Errorf("error marshaling schema %s: %w", schema.Name, err)
	}

	msgs := withSystem(settings.system, messages)
	ollamaMsgs := make([]api.Message, len(msgs))
	for i, m := range msgs {
		ollamaMsgs[i] = api.Message{Role: m.Role, Content: m.Content}
	}

	stream := false
	req := &api.ChatRequest{
		Model:    settings.model,
		Messages: ollamaMsgs,
		Stream:   &stream,
		Format:   format,
		Options: map[string]any{
			"temperature": settings.temperature,
			"num_predict": settings.maxTokens,
		},
	}

	var content strings.Builder
	var usage Usage
	err = c.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		content.WriteString(resp.Message.Content)
		if resp.Done {
			usage = Usage{
				PromptTokens:     resp.PromptEvalCount,
				CompletionTokens: resp.EvalCount,
				TotalTokens:      resp.PromptEvalCount + resp.EvalCount,
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ollama chat: %w", err)
	}

	if content.Len() == 0 {
		return nil, fmt.Errorf("no content in response")
	}

	return &Completion{Content: content.String(), Model: settings.model, Usage: usage}, nil
}
