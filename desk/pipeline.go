package desk

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/SaiNageswarS/employee-desk/appconfig"
	"github.com/SaiNageswarS/employee-desk/chatlog"
	"github.com/SaiNageswarS/employee-desk/db"
	"github.com/SaiNageswarS/employee-desk/llm"
	"github.com/SaiNageswarS/employee-desk/memory"
	"github.com/SaiNageswarS/employee-desk/retriever"
	"github.com/SaiNageswarS/go-api-boot/logger"
	"github.com/SaiNageswarS/go-collection-boot/async"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type MemoryLoader interface {
	Load(ctx context.Context, conversationID string, limit int) (memory.Conversation, error)
}

// Request is one validated user query entering the pipeline.
type Request struct {
	Query          string
	ConversationID string
	UserEmail      string
	OrgID          string
}

// Pipeline runs memory -> rewrite -> retrieve -> pack -> generate -> persist
// for one request at a time. It holds no per-request state.
type Pipeline struct {
	orgs      OrgConfigSource
	memory    MemoryLoader
	rewriter  QueryRewriter
	retriever retriever.Retriever
	packer    *ContextPacker
	generator ResponseGenerator
	chatLog   chatlog.Store
	settings  appconfig.DeskSettings
	modelName string
	clock     *monotonicClock
}

// requestState accumulates stage outputs for a single run.
type requestState struct {
	req         Request
	state       State
	org         OrgConfig
	memory      memory.Conversation
	searchQuery string
	documents   []retriever.Document
	packed      PackedContext
	answer      GeneratedAnswer
	usage       llm.Usage
	model       string
}

type pipelineStep struct {
	target State
	run    func(ctx context.Context, st *requestState) error
}

func (p *Pipeline) Run(ctx context.Context, reporter ProgressReporter, req Request) Outcome {
	if reporter == nil {
		reporter = &NoOpProgressReporter{}
	}

	start := time.Now()
	st := &requestState{req: req, state: StateIdle, model: p.modelName}

	steps := []pipelineStep{
		{StateMemoryLoaded, p.loadMemory},
		{StateQueryRewritten, p.rewrite},
		{StateRetrieved, p.retrieve},
		{StateContextPacked, p.pack},
		{StateResponseGenerated, p.generate},
	}

	for _, step := range steps {
		stageStart := time.Now()
		err := ctx.Err()
		if err == nil {
			err = step.run(ctx, st)
		}
		if err != nil {
			return p.fail(reporter, st, step.target, time.Since(stageStart), err)
		}

		st.state = step.target
		reporter.Send(&StageEvent{Stage: step.target, Elapsed: time.Since(stageStart)})
	}

	// a cancelled request never persists a partial exchange
	if err := ctx.Err(); err != nil {
		return p.fail(reporter, st, StatePersisted, 0, err)
	}

	persistStart := time.Now()
	exchange := p.buildExchange(st, time.Since(start))
	persisted := chatlog.Record(ctx, p.chatLog, exchange)
	st.state = StatePersisted
	reporter.Send(&StageEvent{Stage: StatePersisted, Elapsed: time.Since(persistStart)})

	st.state = StateDone
	reporter.Send(&StageEvent{Stage: StateDone, Elapsed: time.Since(start)})

	return Outcome{
		State:     StateDone,
		Exchange:  &exchange,
		Citations: citationsFor(st.packed.Included),
		Persisted: persisted,
	}
}

func (p *Pipeline) fail(reporter ProgressReporter, st *requestState, stage State, elapsed time.Duration, err error) Outcome {
	stageErr := &StageError{Stage: stage, Err: err}
	logger.Error("Conversation pipeline failed",
		zap.String("conversationId", st.req.ConversationID),
		zap.String("lastState", st.state.String()),
		zap.String("stage", stage.String()),
		zap.String("code", stageErr.Code().String()),
		zap.Error(err))

	st.state = StateErrored
	reporter.Send(&StageEvent{Stage: stage, Elapsed: elapsed, Err: err})
	return Outcome{State: StateErrored, Err: stageErr}
}

// loadMemory resolves the org config and the conversation memory concurrently.
// Memory is best effort: a store failure degrades to an empty conversation.
func (p *Pipeline) loadMemory(ctx context.Context, st *requestState) error {
	orgTask := async.Go(func() (OrgConfig, error) {
		return p.orgs.Get(ctx, st.req.OrgID)
	})
	memoryTask := async.Go(func() (memory.Conversation, error) {
		return p.memory.Load(ctx, st.req.ConversationID, p.settings.MemoryLimit)
	})

	org, orgErr := async.Await(orgTask)
	history, memoryErr := async.Await(memoryTask)

	if orgErr != nil {
		return orgErr
	}
	if memoryErr != nil {
		logger.Error("Failed to load conversation memory",
			zap.String("conversationId", st.req.ConversationID), zap.Error(memoryErr))
		history = memory.Conversation{}
	}

	st.org = org
	st.memory = history
	return nil
}

func (p *Pipeline) rewrite(ctx context.Context, st *requestState) error {
	rewritten, err := p.rewriter.Rewrite(ctx, st.req.Query, st.memory)
	if err != nil {
		if !p.settings.RawQueryFallback || contextCode(err) != codes.OK {
			return err
		}
		logger.Error("Query rewrite failed, searching with the raw query", zap.Error(err))
		rewritten = RewrittenQuery{SearchQuery: st.req.Query}
	}

	st.searchQuery = rewritten.SearchQuery
	st.usage = st.usage.Add(rewritten.Usage)
	if rewritten.Model != "" {
		st.model = rewritten.Model
	}
	return nil
}

func (p *Pipeline) retrieve(ctx context.Context, st *requestState) error {
	docs, err := p.retriever.Retrieve(ctx, st.org.IndexName, st.searchQuery)
	if err != nil {
		if contextCode(err) != codes.OK {
			return err
		}
		return status.Errorf(codes.Unavailable, "retrieve: %v", err)
	}

	st.documents = docs
	return nil
}

func (p *Pipeline) pack(_ context.Context, st *requestState) error {
	packed, err := p.packer.Pack(st.org.About, st.documents, p.settings.TokenBudget)
	if errors.Is(err, ErrHeaderOverBudget) {
		return status.Errorf(codes.FailedPrecondition, "pack: %v", err)
	}
	if err != nil {
		return err
	}

	st.packed = packed
	return nil
}

func (p *Pipeline) generate(ctx context.Context, st *requestState) error {
	answer, err := p.generator.Generate(ctx, st.org, st.packed.Text, st.memory, st.req.Query)
	if err != nil {
		return err
	}

	st.answer = answer
	st.usage = st.usage.Add(answer.Usage)
	if answer.Model != "" {
		st.model = answer.Model
	}
	return nil
}

func (p *Pipeline) buildExchange(st *requestState, elapsed time.Duration) db.ChatExchangeModel {
	now := p.clock.Next()
	timestamp := formatTimestamp(now)

	return db.ChatExchangeModel{
		ID:                db.ExchangeID(st.req.ConversationID, timestamp),
		ConversationID:    st.req.ConversationID,
		OrgID:             st.org.OrgID,
		Query:             st.req.Query,
		SearchQuery:       st.searchQuery,
		Answer:            st.answer.Answer,
		FollowupQuestions: st.answer.FollowupQuestions,
		ContextID:         st.packed.IncludedSourceIDs,
		UserEmail:         st.req.UserEmail,
		ModelName:         st.model,
		PromptTokens:      st.usage.PromptTokens,
		CompletionTokens:  st.usage.CompletionTokens,
		TotalTokens:       st.usage.TotalTokens,
		TotalCost:         llm.Cost(st.model, st.usage),
		TotalTime:         math.Round(elapsed.Seconds()*100) / 100,
		Timestamp:         timestamp,
		CreatedAt:         now.UTC(),
	}
}

func citationsFor(docs []retriever.Document) []Citation {
	seen := make(map[string]bool, len(docs))
	citations := make([]Citation, 0, len(docs))
	for _, d := range docs {
		if seen[d.SourceID] {
			continue
		}
		seen[d.SourceID] = true

		value := d.URL
		if value == "" {
			value = d.SourceID
		}
		citations = append(citations, Citation{Label: d.SourceID, Value: value})
	}
	return citations
}
