package desk

import (
	"context"
	"fmt"
	"strings"

	"github.com/SaiNageswarS/employee-desk/llm"
	"github.com/SaiNageswarS/employee-desk/memory"
	"github.com/SaiNageswarS/employee-desk/prompts"
	"github.com/SaiNageswarS/go-api-boot/logger"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const FollowupCount = 3

type ResponseGenerator interface {
	Generate(ctx context.Context, org OrgConfig, packedContext string, history memory.Conversation, query string) (GeneratedAnswer, error)
}

type GeneratedAnswer struct {
	Answer            string    `json:"answer"`
	FollowupQuestions []string  `json:"followup_questions"`
	Usage             llm.Usage `json:"-"`
	Model             string    `json:"-"`
}

var groundedAnswerSchema = llm.Schema{
	Name: "grounded_answer",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"answer": map[string]any{
				"type": "string",
			},
			"followup_questions": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "string"},
			},
		},
		"required":             []string{"answer", "followup_questions"},
		"additionalProperties": false,
	},
}

// LLMResponseGenerator answers strictly from the packed context.
// Outputs without exactly three follow-up questions are retried up to attempts times.
type LLMResponseGenerator struct {
	client   llm.LLMClient
	attempts int
}

func NewLLMResponseGenerator(client llm.LLMClient, attempts int) *LLMResponseGenerator {
	if attempts <= 0 {
		attempts = 1
	}
	return &LLMResponseGenerator{client: client, attempts: attempts}
}

func (g *LLMResponseGenerator) Generate(ctx context.Context, org OrgConfig, packedContext string, history memory.Conversation, query string) (GeneratedAnswer, error) {
	systemPrompt, err := prompts.RenderAnswerSystemPrompt(org.OrgName, packedContext)
	if err != nil {
		return GeneratedAnswer{}, status.Errorf(codes.Internal, "render answer prompt: %v", err)
	}

	messages := append(history.Messages(), llm.Message{Role: "user", Content: query})

	var usage llm.Usage
	var lastErr error
	for attempt := 1; attempt <= g.attempts; attempt++ {
		completion, err := g.client.GenerateStructured(ctx, messages, groundedAnswerSchema,
			llm.WithSystemPrompt(systemPrompt))
		if err != nil {
			return GeneratedAnswer{}, classifyLLMError("generate", err)
		}
		usage = usage.Add(completion.Usage)

		answer, err := decodeAnswer(completion)
		if err == nil {
			answer.Usage = usage
			answer.Model = completion.Model
			return answer, nil
		}

		lastErr = err
		logger.Error("Invalid generated answer", zap.Int("attempt", attempt), zap.Error(err))
	}

	return GeneratedAnswer{}, status.Errorf(codes.DataLoss, "generate: %v", lastErr)
}

func decodeAnswer(completion *llm.Completion) (GeneratedAnswer, error) {
	var out GeneratedAnswer
	if err := completion.Decode(&out); err != nil {
		return GeneratedAnswer{}, err
	}

	out.Answer = strings.TrimSpace(out.Answer)
	if out.Answer == "" {
		return GeneratedAnswer{}, fmt.Errorf("empty answer")
	}
	if len(out.FollowupQuestions) != FollowupCount {
		return GeneratedAnswer{}, fmt.Errorf("expected exactly %d followup questions, got %d",
			FollowupCount, len(out.FollowupQuestions))
	}
	for i, q := range out.FollowupQuestions {
		out.FollowupQuestions[i] = strings.TrimSpace(q)
		if out.FollowupQuestions[i] == "" {
			return GeneratedAnswer{}, fmt.Errorf("followup question %d is empty", i+1)
		}
	}
	return out, nil
}
