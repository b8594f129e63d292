package chatlog

import (
	"context"
	"fmt"
	"strings"

	"github.com/SaiNageswarS/employee-desk/db"
	"github.com/SaiNageswarS/go-api-boot/odm"
)

const (
	BackendMongo    = "mongo"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

type StoreConfig struct {
	Backend     string
	PostgresURL string
	Mongo       odm.MongoClient
	Tenant      string
}

// NewStore creates the configured store. An empty backend picks postgres when
// a database url is set, otherwise in-memory.
func NewStore(ctx context.Context, cfg StoreConfig) (Store, error) {
	backend := strings.ToLower(strings.TrimSpace(cfg.Backend))
	if backend == "" {
		backend = BackendMemory
		if strings.TrimSpace(cfg.PostgresURL) != "" {
			backend = BackendPostgres
		}
	}

	switch backend {
	case BackendMongo:
		if cfg.Mongo == nil {
			return nil, fmt.Errorf("mongo chat log requires a mongo client")
		}
		return NewMongoStore(odm.CollectionOf[db.ChatExchangeModel](cfg.Mongo, cfg.Tenant)), nil
	case BackendPostgres:
		return NewPostgresStore(ctx, cfg.PostgresURL)
	case BackendMemory:
		return NewInMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown chat log backend %q", cfg.Backend)
	}
}
