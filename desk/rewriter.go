package desk

import (
	"context"
	"strings"

	"github.com/SaiNageswarS/employee-desk/llm"
	"github.com/SaiNageswarS/employee-desk/memory"
	"github.com/SaiNageswarS/employee-desk/prompts"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type QueryRewriter interface {
	Rewrite(ctx context.Context, query string, history memory.Conversation) (RewrittenQuery, error)
}

type RewrittenQuery struct {
	SearchQuery string    `json:"search_query"`
	Usage       llm.Usage `json:"-"`
	Model       string    `json:"-"`
}

var searchQuerySchema = llm.Schema{
	Name: "search_query",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"search_query": map[string]any{
				"type":        "string",
				"description": "Standalone query optimized for searching policy documents.",
			},
		},
		"required":             []string{"search_query"},
		"additionalProperties": false,
	},
}

// LLMQueryRewriter turns follow-up utterances into standalone search queries.
type LLMQueryRewriter struct {
	client llm.LLMClient
}

func NewLLMQueryRewriter(client llm.LLMClient) *LLMQueryRewriter {
	return &LLMQueryRewriter{client: client}
}

func (r *LLMQueryRewriter) Rewrite(ctx context.Context, query string, history memory.Conversation) (RewrittenQuery, error) {
	prompt, err := prompts.RenderQueryRewriterPrompt(history.Transcript(), query)
	if err != nil {
		return RewrittenQuery{}, status.Errorf(codes.Internal, "render rewrite prompt: %v", err)
	}

	completion, err := r.client.GenerateStructured(ctx,
		[]llm.Message{{Role: "user", Content: prompt}},
		searchQuerySchema,
	)
	if err != nil {
		return RewrittenQuery{}, classifyLLMError("rewrite", err)
	}

	var out RewrittenQuery
	if err := completion.Decode(&out); err != nil {
		return RewrittenQuery{}, status.Errorf(codes.DataLoss, "rewrite: %v", err)
	}

	out.SearchQuery = strings.TrimSpace(out.SearchQuery)
	if out.SearchQuery == "" {
		return RewrittenQuery{}, status.Error(codes.DataLoss, "rewrite: empty search_query")
	}

	out.Usage = completion.Usage
	out.Model = completion.Model
	return out, nil
}

// classifyLLMError keeps context errors recognizable and tags the rest as unavailable.
func classifyLLMError(stage string, err error) error {
	if _, ok := status.FromError(err); ok {
		return err
	}
	if contextCode(err) != codes.OK {
		return err
	}
	return status.Errorf(codes.Unavailable, "%s: %v", stage, err)
}
