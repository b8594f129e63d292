package appconfig

import (
	"time"

	"github.com/SaiNageswarS/go-api-boot/config"
)

// Reference values for the employee desk pipeline.
const (
	DefaultTokenBudget    = 3600
	DefaultMemoryLimit    = 5
	DefaultRetrievalTopK  = 3
	DefaultAnswerAttempts = 2
	DefaultTemperature    = 0.01
	DefaultMaxRetries     = 2
	DefaultRequestTimeout = 60 * time.Second
)

type AppConfig struct {
	config.BootConfig `ini:",extends"`

	HTTPAddr              string `env:"HTTP-ADDR" ini:"http_addr"`
	RequestTimeoutSeconds int    `env:"REQUEST-TIMEOUT-SECONDS" ini:"request_timeout_seconds"`

	// storage
	MongoURI        string `env:"MONGO-URI" ini:"mongo_uri"`
	MongoTenant     string `env:"MONGO-TENANT" ini:"mongo_tenant"`
	PostgresURL     string `env:"POSTGRES-URL" ini:"postgres_url"`
	ChatLogBackend  string `env:"CHAT-LOG-BACKEND" ini:"chat_log_backend"`   // mongo | postgres | memory
	OrgConfigSource string `env:"ORG-CONFIG-SOURCE" ini:"org_config_source"` // mongo | static

	// organization
	DefaultOrgID string `env:"DEFAULT-ORG-ID" ini:"default_org_id"`
	OrgName      string `env:"ORG-NAME" ini:"org_name"`
	OrgAbout     string `env:"ORG-ABOUT" ini:"org_about"`
	OrgIndexName string `env:"ORG-INDEX-NAME" ini:"org_index_name"`

	// language model
	LLMProvider      string  `env:"LLM-PROVIDER" ini:"llm_provider"` // azure | groq | ollama
	LLMModel         string  `env:"LLM-MODEL" ini:"llm_model"`
	AzureOpenAIURL   string  `env:"AZURE-OPENAI-ENDPOINT" ini:"azure_openai_endpoint"`
	AzureOpenAIKey   string  `env:"AZURE-OPENAI-API-KEY" ini:"-"`
	AzureAPIVersion  string  `env:"AZURE-OPENAI-API-VERSION" ini:"azure_openai_api_version"`
	LLMTemperature   float64 `env:"LLM-TEMPERATURE" ini:"llm_temperature"`
	LLMMaxRetries    int     `env:"LLM-MAX-RETRIES" ini:"llm_max_retries"`
	AnswerAttempts   int     `env:"ANSWER-ATTEMPTS" ini:"answer_attempts"`
	RawQueryFallback bool    `env:"RAW-QUERY-FALLBACK" ini:"raw_query_fallback"`

	// search
	SearchProvider        string `env:"SEARCH-PROVIDER" ini:"search_provider"` // azure | mongo
	AzureSearchEndpoint   string `env:"AZURE-AI-SEARCH-SERVICE-ENDPOINT" ini:"azure_search_endpoint"`
	AzureSearchKey        string `env:"AZURE-AI-SEARCH-API-KEY" ini:"-"`
	AzureSearchAPIVersion string `env:"AZURE-AI-SEARCH-API-VERSION" ini:"azure_search_api_version"`

	// pipeline budgets
	TokenBudget   int `env:"TOKEN-BUDGET" ini:"token_budget"`
	MemoryLimit   int `env:"MEMORY-LIMIT" ini:"memory_limit"`
	RetrievalTopK int `env:"RETRIEVAL-TOP-K" ini:"retrieval_top_k"`
}

// DeskSettings are the immutable knobs handed to the conversation pipeline.
type DeskSettings struct {
	TokenBudget      int
	MemoryLimit      int
	RetrievalTopK    int
	AnswerAttempts   int
	RawQueryFallback bool
}

func (c *AppConfig) DeskSettings() DeskSettings {
	return DeskSettings{
		TokenBudget:      orDefault(c.TokenBudget, DefaultTokenBudget),
		MemoryLimit:      orDefault(c.MemoryLimit, DefaultMemoryLimit),
		RetrievalTopK:    orDefault(c.RetrievalTopK, DefaultRetrievalTopK),
		AnswerAttempts:   orDefault(c.AnswerAttempts, DefaultAnswerAttempts),
		RawQueryFallback: c.RawQueryFallback,
	}
}

func (c *AppConfig) RequestTimeout() time.Duration {
	if c.RequestTimeoutSeconds <= 0 {
		return DefaultRequestTimeout
	}
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

func (c *AppConfig) Temperature() float64 {
	if c.LLMTemperature <= 0 {
		return DefaultTemperature
	}
	return c.LLMTemperature
}

func (c *AppConfig) MaxRetries() int {
	if c.LLMMaxRetries < 0 {
		return 0
	}
	if c.LLMMaxRetries == 0 {
		return DefaultMaxRetries
	}
	return c.LLMMaxRetries
}

func (c *AppConfig) Addr() string {
	if c.HTTPAddr == "" {
		return ":8080"
	}
	return c.HTTPAddr
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
