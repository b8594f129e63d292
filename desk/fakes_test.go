package desk

import (
	"context"
	"errors"
	"sync"

	"github.com/SaiNageswarS/employee-desk/appconfig"
	"github.com/SaiNageswarS/employee-desk/chatlog"
	"github.com/SaiNageswarS/employee-desk/db"
	"github.com/SaiNageswarS/employee-desk/llm"
	"github.com/SaiNageswarS/employee-desk/memory"
	"github.com/SaiNageswarS/employee-desk/retriever"
	"github.com/SaiNageswarS/employee-desk/tokens"
)

// fakeLLM replays canned completions in order; the last one repeats.
type fakeLLM struct {
	mu        sync.Mutex
	responses []string
	err       error
	model     string
	usage     llm.Usage
	calls     int
	messages  [][]llm.Message
}

func (f *fakeLLM) GenerateStructured(ctx context.Context, messages []llm.Message, schema llm.Schema, opts ...llm.LLMOption) (*llm.Completion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls++
	f.messages = append(f.messages, messages)
	if f.err != nil {
		return nil, f.err
	}

	i := f.calls - 1
	if i >= len(f.responses) {
		i = len(f.responses) - 1
	}
	return &llm.Completion{Content: f.responses[i], Model: f.model, Usage: f.usage}, nil
}

func (f *fakeLLM) GetModel() string { return f.model }

type stubRewriter struct {
	calls int
	out   RewrittenQuery
	err   error
}

func (s *stubRewriter) Rewrite(_ context.Context, query string, _ memory.Conversation) (RewrittenQuery, error) {
	s.calls++
	if s.err != nil {
		return RewrittenQuery{}, s.err
	}
	if s.out.SearchQuery == "" {
		out := s.out
		out.SearchQuery = "standalone: " + query
		return out, nil
	}
	return s.out, nil
}

type stubRetriever struct {
	calls    int
	docs     []retriever.Document
	err      error
	gotIndex string
	gotQuery string
}

func (s *stubRetriever) Retrieve(_ context.Context, index, query string) ([]retriever.Document, error) {
	s.calls++
	s.gotIndex = index
	s.gotQuery = query
	return s.docs, s.err
}

type stubGenerator struct {
	calls      int
	out        GeneratedAnswer
	err        error
	gotContext string
	gotHistory memory.Conversation
	onCall     func()
}

func (s *stubGenerator) Generate(_ context.Context, _ OrgConfig, packedContext string, history memory.Conversation, _ string) (GeneratedAnswer, error) {
	s.calls++
	s.gotContext = packedContext
	s.gotHistory = history
	if s.onCall != nil {
		s.onCall()
	}
	if s.err != nil {
		return GeneratedAnswer{}, s.err
	}
	return s.out, nil
}

type countingMemory struct {
	mu    sync.Mutex
	calls int
	inner MemoryLoader
	err   error
}

func (c *countingMemory) Load(ctx context.Context, conversationID string, limit int) (memory.Conversation, error) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	if c.err != nil {
		return memory.Conversation{}, c.err
	}
	return c.inner.Load(ctx, conversationID, limit)
}

type failingAppendStore struct{ chatlog.InMemoryStore }

func (f *failingAppendStore) Append(context.Context, db.ChatExchangeModel) error {
	return errors.New("cosmos unavailable")
}

type recordingReporter struct {
	mu     sync.Mutex
	events []StageEvent
}

func (r *recordingReporter) Send(event *StageEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, *event)
	return nil
}

func (r *recordingReporter) stages() []State {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]State, len(r.events))
	for i, e := range r.events {
		out[i] = e.Stage
	}
	return out
}

// charCounter counts bytes, which keeps budgets easy to reason about.
var charCounter = tokens.CounterFunc(func(text string) int { return len(text) })

var testOrg = OrgConfig{
	OrgID:     "fourthsquare",
	OrgName:   "FourthSquare",
	About:     "FourthSquare is a consulting firm.",
	IndexName: "fourthsquare-index",
}

var threeDocs = []retriever.Document{
	{SourceID: "leave_policy.pdf", Content: "Employees receive 20 vacation days per year.", URL: "https://docs/leave_policy.pdf"},
	{SourceID: "sick_leave.pdf", Content: "Employees receive 10 sick days per year."},
	{SourceID: "holidays.pdf", Content: "The office is closed on public holidays."},
}

type harness struct {
	orgs      OrgConfigSource
	memory    *countingMemory
	rewriter  *stubRewriter
	retriever *stubRetriever
	generator *stubGenerator
	store     chatlog.Store
	log       *chatlog.InMemoryStore
	settings  appconfig.DeskSettings
}

func newHarness() *harness {
	log := chatlog.NewInMemoryStore()
	return &harness{
		orgs:      StaticOrgConfigSource{testOrg.OrgID: testOrg},
		memory:    &countingMemory{inner: memory.NewConversationManager(log)},
		rewriter:  &stubRewriter{},
		retriever: &stubRetriever{docs: threeDocs},
		generator: &stubGenerator{out: GeneratedAnswer{
			Answer:            "You have 20 vacation days.",
			FollowupQuestions: []string{"How do I request leave?", "Do unused days roll over?", "Who approves leave?"},
		}},
		store: log,
		log:   log,
		settings: appconfig.DeskSettings{
			TokenBudget:    appconfig.DefaultTokenBudget,
			MemoryLimit:    appconfig.DefaultMemoryLimit,
			RetrievalTopK:  appconfig.DefaultRetrievalTopK,
			AnswerAttempts: appconfig.DefaultAnswerAttempts,
		},
	}
}

func (h *harness) pipeline() *Pipeline {
	p, err := NewPipelineBuilder().
		WithOrgConfigSource(h.orgs).
		WithMemory(h.memory).
		WithQueryRewriter(h.rewriter).
		WithRetriever(h.retriever).
		WithResponseGenerator(h.generator).
		WithChatLog(h.store).
		WithTokenCounter(charCounter).
		WithSettings(h.settings).
		WithModelName("gpt-4o-mini").
		Build()
	if err != nil {
		panic(err)
	}
	return p
}

func (h *harness) desk() *EmployeeDesk {
	return NewEmployeeDesk(h.pipeline(), testOrg.OrgID, WithProgressReporter(&NoOpProgressReporter{}))
}

func (h *harness) stageCalls() int {
	return h.memory.calls + h.rewriter.calls + h.retriever.calls + h.generator.calls
}
