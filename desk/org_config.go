package desk

import (
	"context"
	"errors"
	"fmt"

	"github.com/SaiNageswarS/employee-desk/db"
	"github.com/SaiNageswarS/go-api-boot/odm"
	"github.com/SaiNageswarS/go-collection-boot/async"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// OrgConfig is request-scoped organization configuration.
type OrgConfig struct {
	OrgID     string
	OrgName   string
	About     string
	IndexName string
}

type OrgConfigSource interface {
	Get(ctx context.Context, orgID string) (OrgConfig, error)
}

// MongoOrgConfigSource reads company_configs by org id.
type MongoOrgConfigSource struct {
	findByID func(ctx context.Context, orgID string) <-chan async.Result[*db.OrgConfigModel]
}

func NewMongoOrgConfigSource(client odm.MongoClient, tenant string) *MongoOrgConfigSource {
	return newMongoOrgConfigSourceWith(odm.CollectionOf[db.OrgConfigModel](client, tenant).FindOneByID)
}

func newMongoOrgConfigSourceWith(findByID func(context.Context, string) <-chan async.Result[*db.OrgConfigModel]) *MongoOrgConfigSource {
	return &MongoOrgConfigSource{findByID: findByID}
}

// Get returns NotFound only for a missing document. Context errors keep their
// cause; any other lookup failure is Unavailable.
func (s *MongoOrgConfigSource) Get(ctx context.Context, orgID string) (OrgConfig, error) {
	model, err := async.Await(s.findByID(ctx, orgID))
	switch {
	case err == nil && model == nil, errors.Is(err, mongo.ErrNoDocuments):
		return OrgConfig{}, status.Errorf(codes.NotFound, "org config %s not found", orgID)
	case err != nil && contextCode(err) != codes.OK:
		return OrgConfig{}, fmt.Errorf("org config %s: %w", orgID, err)
	case err != nil && ctx.Err() != nil:
		return OrgConfig{}, fmt.Errorf("org config %s: %w", orgID, ctx.Err())
	case err != nil:
		return OrgConfig{}, status.Errorf(codes.Unavailable, "org config %s: %v", orgID, err)
	}

	return OrgConfig{
		OrgID:     model.OrgID,
		OrgName:   model.OrgName,
		About:     model.About,
		IndexName: model.IndexName,
	}, nil
}

// StaticOrgConfigSource serves a fixed set of organizations.
type StaticOrgConfigSource map[string]OrgConfig

func (s StaticOrgConfigSource) Get(_ context.Context, orgID string) (OrgConfig, error) {
	cfg, ok := s[orgID]
	if !ok {
		return OrgConfig{}, status.Error(codes.NotFound, fmt.Sprintf("org config %s not found", orgID))
	}
	if cfg.OrgID == "" {
		cfg.OrgID = orgID
	}
	return cfg, nil
}
