package desk

import (
	"errors"

	"github.com/SaiNageswarS/employee-desk/appconfig"
	"github.com/SaiNageswarS/employee-desk/chatlog"
	"github.com/SaiNageswarS/employee-desk/memory"
	"github.com/SaiNageswarS/employee-desk/retriever"
	"github.com/SaiNageswarS/employee-desk/tokens"
)

type PipelineBuilder struct {
	pipeline Pipeline
	counter  tokens.Counter
}

func NewPipelineBuilder() *PipelineBuilder {
	return &PipelineBuilder{
		pipeline: Pipeline{
			settings: appconfig.DeskSettings{
				TokenBudget:    appconfig.DefaultTokenBudget,
				MemoryLimit:    appconfig.DefaultMemoryLimit,
				RetrievalTopK:  appconfig.DefaultRetrievalTopK,
				AnswerAttempts: appconfig.DefaultAnswerAttempts,
			},
		},
	}
}

func (b *PipelineBuilder) WithOrgConfigSource(source OrgConfigSource) *PipelineBuilder {
	b.pipeline.orgs = source
	return b
}

func (b *PipelineBuilder) WithMemory(loader MemoryLoader) *PipelineBuilder {
	b.pipeline.memory = loader
	return b
}

func (b *PipelineBuilder) WithQueryRewriter(rewriter QueryRewriter) *PipelineBuilder {
	b.pipeline.rewriter = rewriter
	return b
}

func (b *PipelineBuilder) WithRetriever(r retriever.Retriever) *PipelineBuilder {
	b.pipeline.retriever = r
	return b
}

func (b *PipelineBuilder) WithTokenCounter(counter tokens.Counter) *PipelineBuilder {
	b.counter = counter
	return b
}

func (b *PipelineBuilder) WithResponseGenerator(generator ResponseGenerator) *PipelineBuilder {
	b.pipeline.generator = generator
	return b
}

func (b *PipelineBuilder) WithChatLog(store chatlog.Store) *PipelineBuilder {
	b.pipeline.chatLog = store
	return b
}

func (b *PipelineBuilder) WithSettings(settings appconfig.DeskSettings) *PipelineBuilder {
	b.pipeline.settings = settings
	return b
}

// WithModelName sets the model recorded on exchanges when the generator reports none.
func (b *PipelineBuilder) WithModelName(name string) *PipelineBuilder {
	b.pipeline.modelName = name
	return b
}

func (b *PipelineBuilder) Build() (*Pipeline, error) {
	p := b.pipeline

	if p.orgs == nil {
		return nil, errors.New("org config source is required")
	}
	if p.rewriter == nil {
		return nil, errors.New("query rewriter is required")
	}
	if p.retriever == nil {
		return nil, errors.New("retriever is required")
	}
	if p.generator == nil {
		return nil, errors.New("response generator is required")
	}
	if p.settings.TokenBudget <= 0 {
		return nil, errors.New("token budget must be positive")
	}

	if p.chatLog == nil {
		p.chatLog = chatlog.NewInMemoryStore()
	}
	if p.memory == nil {
		p.memory = memory.NewConversationManager(p.chatLog)
	}

	counter := b.counter
	if counter == nil {
		tc, err := tokens.NewTiktokenCounter(tokens.DefaultEncoding)
		if err != nil {
			return nil, err
		}
		counter = tc
	}
	p.packer = NewContextPacker(counter)
	p.clock = exchangeClock

	return &p, nil
}
