package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/SaiNageswarS/employee-desk/appconfig"
	"github.com/SaiNageswarS/employee-desk/chatlog"
	"github.com/SaiNageswarS/employee-desk/db"
	"github.com/SaiNageswarS/employee-desk/desk"
	"github.com/SaiNageswarS/employee-desk/llm"
	"github.com/SaiNageswarS/employee-desk/memory"
	"github.com/SaiNageswarS/employee-desk/observability"
	"github.com/SaiNageswarS/employee-desk/retriever"
	"github.com/SaiNageswarS/employee-desk/tokens"
	"github.com/SaiNageswarS/go-api-boot/logger"
	"github.com/SaiNageswarS/go-api-boot/odm"
	"go.uber.org/zap"
)

const metricsNamespace = "employee_desk"

// App is the wired employee desk and the resources it owns.
type App struct {
	Config  *appconfig.AppConfig
	Desk    *desk.EmployeeDesk
	Metrics *observability.Metrics
	chatLog chatlog.Store
}

func (a *App) Close() error {
	if a.chatLog == nil {
		return nil
	}
	return a.chatLog.Close()
}

func Build(ctx context.Context, cfg *appconfig.AppConfig) (*App, error) {
	var mongo odm.MongoClient
	if usesMongo(cfg) {
		mongo = odm.ProvideMongoClient()
		if err := db.InitEmployeeDeskDB(ctx, mongo, cfg.MongoTenant); err != nil {
			return nil, fmt.Errorf("ensure indexes: %w", err)
		}
	}

	chatLog, err := chatlog.NewStore(ctx, chatlog.StoreConfig{
		Backend:     cfg.ChatLogBackend,
		PostgresURL: cfg.PostgresURL,
		Mongo:       mongo,
		Tenant:      cfg.MongoTenant,
	})
	if err != nil {
		return nil, fmt.Errorf("chat log: %w", err)
	}

	client, err := newLLMClient(cfg)
	if err != nil {
		chatLog.Close()
		return nil, err
	}

	search, err := newRetriever(cfg, mongo)
	if err != nil {
		chatLog.Close()
		return nil, err
	}

	counter, err := tokens.NewTiktokenCounter(tokens.DefaultEncoding)
	if err != nil {
		chatLog.Close()
		return nil, fmt.Errorf("token counter: %w", err)
	}

	settings := cfg.DeskSettings()
	pipeline, err := desk.NewPipelineBuilder().
		WithOrgConfigSource(newOrgConfigSource(cfg, mongo)).
		WithMemory(memory.NewConversationManager(chatLog)).
		WithQueryRewriter(desk.NewLLMQueryRewriter(client)).
		WithRetriever(search).
		WithTokenCounter(counter).
		WithResponseGenerator(desk.NewLLMResponseGenerator(client, settings.AnswerAttempts)).
		WithChatLog(chatLog).
		WithSettings(settings).
		WithModelName(client.GetModel()).
		Build()
	if err != nil {
		chatLog.Close()
		return nil, fmt.Errorf("build pipeline: %w", err)
	}

	metrics := observability.NewMetrics(metricsNamespace)
	logger.Info("Employee desk ready",
		zap.String("llmProvider", cfg.LLMProvider),
		zap.String("model", client.GetModel()),
		zap.String("searchProvider", cfg.SearchProvider),
		zap.String("chatLogBackend", cfg.ChatLogBackend))

	return &App{
		Config:  cfg,
		Desk:    desk.NewEmployeeDesk(pipeline, cfg.DefaultOrgID, desk.WithProgressReporter(metrics.Reporter())),
		Metrics: metrics,
		chatLog: chatLog,
	}, nil
}

func usesMongo(cfg *appconfig.AppConfig) bool {
	return strings.EqualFold(cfg.ChatLogBackend, chatlog.BackendMongo) ||
		strings.EqualFold(cfg.OrgConfigSource, "mongo") ||
		strings.EqualFold(cfg.SearchProvider, "mongo")
}

func newLLMClient(cfg *appconfig.AppConfig) (llm.LLMClient, error) {
	switch strings.ToLower(cfg.LLMProvider) {
	case "", "azure":
		return llm.NewAzureOpenAIClient(cfg.AzureOpenAIURL, cfg.LLMModel, cfg.AzureAPIVersion, cfg.AzureOpenAIKey,
			llm.WithDefaultTemperature(cfg.Temperature()),
			llm.WithMaxRetries(cfg.MaxRetries()))
	case "groq":
		return llm.NewGroqClient(cfg.LLMModel,
			llm.WithDefaultTemperature(cfg.Temperature()),
			llm.WithMaxRetries(cfg.MaxRetries())), nil
	case "ollama":
		return llm.NewOllamaClient(cfg.LLMModel, cfg.Temperature())
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.LLMProvider)
	}
}

func newRetriever(cfg *appconfig.AppConfig, mongo odm.MongoClient) (retriever.Retriever, error) {
	settings := cfg.DeskSettings()
	switch strings.ToLower(cfg.SearchProvider) {
	case "", "azure":
		return retriever.NewAzureSearchRetriever(cfg.AzureSearchEndpoint, cfg.AzureSearchKey, settings.RetrievalTopK,
			retriever.WithSearchAPIVersion(cfg.AzureSearchAPIVersion))
	case "mongo":
		return retriever.NewMongoRetriever(mongo, settings.RetrievalTopK), nil
	default:
		return nil, fmt.Errorf("unknown search provider %q", cfg.SearchProvider)
	}
}

func newOrgConfigSource(cfg *appconfig.AppConfig, mongo odm.MongoClient) desk.OrgConfigSource {
	if strings.EqualFold(cfg.OrgConfigSource, "mongo") {
		return desk.NewMongoOrgConfigSource(mongo, cfg.MongoTenant)
	}

	return desk.StaticOrgConfigSource{
		cfg.DefaultOrgID: {
			OrgID:     cfg.DefaultOrgID,
			OrgName:   cfg.OrgName,
			About:     cfg.OrgAbout,
			IndexName: cfg.OrgIndexName,
		},
	}
}
