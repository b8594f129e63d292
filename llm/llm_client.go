package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
)

// LLMClient produces completions constrained to a JSON schema.
type LLMClient interface {
	GenerateStructured(
		ctx context.Context,
		messages []Message,
		schema Schema,
		opts ...LLMOption,
	) (*Completion, error)

	GetModel() string
}

type LLMSettings struct {
	model       string  // model or deployment name
	temperature float64 // randomness (0.0 to 1.0)
	maxTokens   int     // maximum tokens to generate
	system      string  // system prompt
}

type LLMOption func(*LLMSettings)

// Common options for all LLM providers
func WithLLMModel(model string) LLMOption {
	return func(s *LLMSettings) { s.model = model }
}

func WithTemperature(temp float64) LLMOption {
	return func(s *LLMSettings) { s.temperature = temp }
}

func WithMaxTokens(tokens int) LLMOption {
	return func(s *LLMSettings) { s.maxTokens = tokens }
}

func WithSystemPrompt(prompt string) LLMOption {
	return func(s *LLMSettings) { s.system = prompt }
}

func applyOptions(defaults LLMSettings, opts []LLMOption) LLMSettings {
	for _, opt := range opts {
		opt(&defaults)
	}
	return defaults
}

type Message struct {
	Role    string `json:"role"`    // "user", "assistant", "system"
	Content string `json:"content"` // the message content
}

// Schema names a JSON schema the completion must conform to.
type Schema struct {
	Name       string
	Definition map[string]any
}

type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

func (u Usage) Add(o Usage) Usage {
	return Usage{
		PromptTokens:     u.PromptTokens + o.PromptTokens,
		CompletionTokens: u.CompletionTokens + o.CompletionTokens,
		TotalTokens:      u.TotalTokens + o.TotalTokens,
	}
}

// Completion is the raw structured output of one model call.
type Completion struct {
	Content string
	Model   string
	Usage   Usage
}

// Decode unmarshals the completion into out, rejecting unknown fields.
func (c *Completion) Decode(out any) error {
	dec := json.NewDecoder(bytes.NewReader([]byte(c.Content)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("malformed structured output: %w", err)
	}
	return nil
}

func withSystem(system string, messages []Message) []Message {
	if system == "" {
		return messages
	}
	out := make([]Message, 0, len(messages)+1)
	out = append(out, Message{Role: "system", Content: system})
	return append(out, messages...)
}
