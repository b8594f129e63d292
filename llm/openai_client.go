package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/SaiNageswarS/go-api-boot/logger"
	"go.uber.org/zap"
)

const (
	groqURL                = "https://api.groq.com/openai/v1/chat/completions"
	DefaultAzureAPIVersion = "2025-03-01-preview"
)

// OpenAIClient talks to an OpenAI-compatible chat completions endpoint.
// Azure OpenAI deployments and Groq share this wire format.
type OpenAIClient struct {
	httpClient  *http.Client
	url         string
	model       string
	authHeader  string
	authValue   string
	temperature float64
	maxRetries  int
	backoff     time.Duration
}

type OpenAIOption func(*OpenAIClient)

func WithDefaultTemperature(temp float64) OpenAIOption {
	return func(c *OpenAIClient) { c.temperature = temp }
}

func WithMaxRetries(n int) OpenAIOption {
	return func(c *OpenAIClient) { c.maxRetries = n }
}

func WithHTTPClient(h *http.Client) OpenAIOption {
	return func(c *OpenAIClient) { c.httpClient = h }
}

// NewAzureOpenAIClient targets a single Azure OpenAI deployment.
func NewAzureOpenAIClient(endpoint, deployment, apiVersion, apiKey string, opts ...OpenAIOption) (*OpenAIClient, error) {
	if endpoint == "" || deployment == "" {
		return nil, fmt.Errorf("azure openai endpoint and deployment are required")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("azure openai api key is not set")
	}
	if apiVersion == "" {
		apiVersion = DefaultAzureAPIVersion
	}

	u := fmt.Sprintf("%s/openai/deployments/%s/chat/completions?api-version=%s",
		strings.TrimRight(endpoint, "/"), url.PathEscape(deployment), url.QueryEscape(apiVersion))

	return newOpenAIClient(u, deployment, "api-key", apiKey, opts), nil
}

func NewGroqClient(model string, opts ...OpenAIOption) *OpenAIClient {
	apiKey := os.Getenv("GROQ_API_KEY")
	if apiKey == "" {
		logger.Fatal("GROQ_API_KEY environment variable is not set")
		return nil
	}

	return newOpenAIClient(groqURL, model, "Authorization", "Bearer "+apiKey, opts)
}

func newOpenAIClient(u, model, authHeader, authValue string, opts []OpenAIOption) *OpenAIClient {
	c := &OpenAIClient{
		httpClient:  &http.Client{},
		url:         u,
		model:       model,
		authHeader:  authHeader,
		authValue:   authValue,
		temperature: 0.01,
		maxRetries:  2,
		backoff:     500 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *OpenAIClient) GetModel() string {
	return c.model
}

func (c *OpenAIClient) GenerateStructured(ctx context.Context, messages []Message, schema Schema, opts ...LLMOption) (*Completion, error) {
	settings := applyOptions(LLMSettings{
		model:       c.model,
		temperature: c.temperature,
		maxTokens:   4096,
	}, opts)

	request := openAIRequest{
		Model:       settings.model,
		Messages:    withSystem(settings.system, messages),
		Temperature: settings.temperature,
		MaxTokens:   settings.maxTokens,
		ResponseFormat: &openAIResponseFormat{
			Type: "json_schema",
			JSONSchema: &openAIJSONSchema{
				Name:   schema.Name,
				Schema: schema.Definition,
				Strict: true,
			},
		},
	}

	jsonData, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("error marshaling request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.backoff * time.Duration(attempt)):
			}
			logger.Info("Retrying chat completion", zap.Int("attempt", attempt), zap.Error(lastErr))
		}

		completion, retryable, err := c.makeRequest(ctx, jsonData)
		if err == nil {
			return completion, nil
		}
		lastErr = err
		if !retryable || ctx.Err() != nil {
			break
		}
	}

	return nil, lastErr
}

func (c *OpenAIClient) makeRequest(ctx context.Context, jsonData []byte) (*Completion, bool, error) {
	req, err := http.NewRequestWithContext(ctx, "POST", c.url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, false, fmt.Errorf("error creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(c.authHeader, c.authValue)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, true, fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, fmt.Errorf("error reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		retryable := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
		return nil, retryable, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var response openAIResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, false, fmt.Errorf("error unmarshaling response: %w", err)
	}

	if len(response.Choices) == 0 {
		return nil, false, fmt.Errorf("no choices in response")
	}

	choice := response.Choices[0]
	if choice.Message.Refusal != "" {
		return nil, false, fmt.Errorf("model refused: %s", choice.Message.Refusal)
	}
	if choice.Message.Content == "" {
		return nil, false, fmt.Errorf("empty content in response (finish_reason=%s)", choice.FinishReason)
	}

	model := response.Model
	if model == "" {
		model = c.model
	}

	return &Completion{
		Content: choice.Message.Content,
		Model:   model,
		Usage:   response.Usage,
	}, false, nil
}

// OpenAI-compatible API types
type openAIRequest struct {
	Model          string                `json:"model"`
	Messages       []Message             `json:"messages"`
	Temperature    float64               `json:"temperature"`
	MaxTokens      int                   `json:"max_completion_tokens,omitempty"`
	ResponseFormat *openAIResponseFormat `json:"response_format,omitempty"`
}

type openAIResponseFormat struct {
	Type       string            `json:"type"`
	JSONSchema *openAIJSONSchema `json:"json_schema,omitempty"`
}

type openAIJSONSchema struct {
	Name   string         `json:"name"`
	Schema map[string]any `json:"schema"`
	Strict bool           `json:"strict"`
}

type openAIResponse struct {
	ID      string         `json:"id"`
	Object  string         `json:"object"`
	Created int64          `json:"created"`
	Model   string         `json:"model"`
	Choices []openAIChoice `json:"choices"`
	Usage   Usage          `json:"usage"`
}

type openAIChoice struct {
	Index        int           `json:"index"`
	Message      openAIMessage `json:"message"`
	FinishReason string        `json:"finish_reason"`
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
	Refusal string `json:"refusal,omitempty"`
}
