package desk

import (
	"context"
	"errors"
	"testing"

	"github.com/SaiNageswarS/employee-desk/llm"
	"github.com/SaiNageswarS/employee-desk/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var vacationHistory = memory.NewConversation(
	memory.ChatTurn{Role: memory.RoleUser, Content: "How many vacation days do I have?"},
	memory.ChatTurn{Role: memory.RoleAssistant, Content: "You have 20 vacation days."},
)

func TestLLMQueryRewriter_Rewrite(t *testing.T) {
	client := &fakeLLM{
		responses: []string{`{"search_query": "  How many sick leave days do I have?  "}`},
		model:     "gpt-4o-mini",
		usage:     llm.Usage{PromptTokens: 50, CompletionTokens: 10, TotalTokens: 60},
	}

	out, err := NewLLMQueryRewriter(client).Rewrite(context.Background(), "And sick leave?", vacationHistory)
	require.NoError(t, err)

	assert.Equal(t, "How many sick leave days do I have?", out.SearchQuery)
	assert.Equal(t, 60, out.Usage.TotalTokens)
	assert.Equal(t, "gpt-4o-mini", out.Model)

	require.Len(t, client.messages, 1)
	prompt := client.messages[0][0].Content
	assert.Contains(t, prompt, "Employee: How many vacation days do I have?")
	assert.Contains(t, prompt, "AI: You have 20 vacation days.")
	assert.Contains(t, prompt, "Employee: And sick leave?")
}

func TestLLMQueryRewriter_MalformedOutput(t *testing.T) {
	cases := map[string]string{
		"not json":      `search for sick leave`,
		"unknown field": `{"search_query": "sick leave", "extra": true}`,
		"empty":         `{"search_query": "   "}`,
		"missing":       `{}`,
	}

	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			client := &fakeLLM{responses: []string{content}}
			_, err := NewLLMQueryRewriter(client).Rewrite(context.Background(), "And sick leave?", vacationHistory)
			require.Error(t, err)
			assert.Equal(t, codes.DataLoss, status.Code(err))
		})
	}
}

func TestLLMQueryRewriter_ClientError(t *testing.T) {
	client := &fakeLLM{err: errors.New("connection reset")}
	_, err := NewLLMQueryRewriter(client).Rewrite(context.Background(), "q", memory.Conversation{})
	assert.Equal(t, codes.Unavailable, status.Code(err))

	client = &fakeLLM{err: context.DeadlineExceeded}
	_, err = NewLLMQueryRewriter(client).Rewrite(context.Background(), "q", memory.Conversation{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestLLMResponseGenerator_Generate(t *testing.T) {
	client := &fakeLLM{
		responses: []string{`{"answer": "You have 10 sick days.", "followup_questions": ["How do I report sickness?", "Do sick days roll over?", "Is a doctor's note needed?"]}`},
		model:     "gpt-4o-mini",
		usage:     llm.Usage{PromptTokens: 900, CompletionTokens: 80, TotalTokens: 980},
	}

	out, err := NewLLMResponseGenerator(client, 2).Generate(context.Background(), testOrg, "Source 1: ...", vacationHistory, "And sick leave?")
	require.NoError(t, err)

	assert.Equal(t, "You have 10 sick days.", out.Answer)
	assert.Len(t, out.FollowupQuestions, FollowupCount)
	assert.Equal(t, 980, out.Usage.TotalTokens)
	assert.Equal(t, 1, client.calls)

	// history first, then the current query
	msgs := client.messages[0]
	require.Len(t, msgs, 3)
	assert.Equal(t, llm.Message{Role: "user", Content: "How many vacation days do I have?"}, msgs[0])
	assert.Equal(t, llm.Message{Role: "assistant", Content: "You have 20 vacation days."}, msgs[1])
	assert.Equal(t, llm.Message{Role: "user", Content: "And sick leave?"}, msgs[2])
}

func TestLLMResponseGenerator_RetriesFollowupCount(t *testing.T) {
	client := &fakeLLM{
		responses: []string{
			`{"answer": "Ten days.", "followup_questions": ["One?", "Two?"]}`,
			`{"answer": "Ten days.", "followup_questions": ["One?", "Two?", "Three?"]}`,
		},
		usage: llm.Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
	}

	out, err := NewLLMResponseGenerator(client, 2).Generate(context.Background(), testOrg, "ctx", memory.Conversation{}, "q")
	require.NoError(t, err)
	assert.Equal(t, []string{"One?", "Two?", "Three?"}, out.FollowupQuestions)
	assert.Equal(t, 2, client.calls)
	assert.Equal(t, 30, out.Usage.TotalTokens)
}

func TestLLMResponseGenerator_ExhaustedAttempts(t *testing.T) {
	client := &fakeLLM{
		responses: []string{`{"answer": "Ten days.", "followup_questions": ["One?", "Two?", "Three?", "Four?"]}`},
	}

	_, err := NewLLMResponseGenerator(client, 2).Generate(context.Background(), testOrg, "ctx", memory.Conversation{}, "q")
	require.Error(t, err)
	assert.Equal(t, codes.DataLoss, status.Code(err))
	assert.Contains(t, err.Error(), "exactly 3")
	assert.Equal(t, 2, client.calls)
}

func TestLLMResponseGenerator_ClientErrorIsNotRetried(t *testing.T) {
	client := &fakeLLM{err: errors.New("503 from upstream")}

	_, err := NewLLMResponseGenerator(client, 3).Generate(context.Background(), testOrg, "ctx", memory.Conversation{}, "q")
	assert.Equal(t, codes.Unavailable, status.Code(err))
	assert.Equal(t, 1, client.calls)
}

func TestDecodeAnswer(t *testing.T) {
	_, err := decodeAnswer(&llm.Completion{Content: `{"answer": "", "followup_questions": ["a", "b", "c"]}`})
	assert.Error(t, err)

	_, err = decodeAnswer(&llm.Completion{Content: `{"answer": "x", "followup_questions": ["a", " ", "c"]}`})
	assert.Error(t, err)

	out, err := decodeAnswer(&llm.Completion{Content: `{"answer": " x ", "followup_questions": [" a", "b ", "c"]}`})
	require.NoError(t, err)
	assert.Equal(t, "x", out.Answer)
	assert.Equal(t, []string{"a", "b", "c"}, out.FollowupQuestions)
}

func TestStaticOrgConfigSource(t *testing.T) {
	source := StaticOrgConfigSource{"acme": {OrgName: "Acme"}}

	cfg, err := source.Get(context.Background(), "acme")
	require.NoError(t, err)
	assert.Equal(t, "acme", cfg.OrgID)
	assert.Equal(t, "Acme", cfg.OrgName)

	_, err = source.Get(context.Background(), "unknown")
	assert.Equal(t, codes.NotFound, status.Code(err))
}
