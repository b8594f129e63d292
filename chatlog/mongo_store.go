package chatlog

import (
	"context"
	"errors"
	"fmt"

	"github.com/SaiNageswarS/employee-desk/db"
	"github.com/SaiNageswarS/go-api-boot/odm"
	"github.com/SaiNageswarS/go-collection-boot/async"
	"go.mongodb.org/mongo-driver/v2/bson"
)

var errNoCollection = errors.New("chat log collection not configured")

type MongoStore struct {
	collection odm.OdmCollectionInterface[db.ChatExchangeModel]
}

func NewMongoStore(collection odm.OdmCollectionInterface[db.ChatExchangeModel]) *MongoStore {
	return &MongoStore{collection: collection}
}

func (s *MongoStore) Append(ctx context.Context, exchange db.ChatExchangeModel) error {
	if s.collection == nil {
		return errNoCollection
	}

	exchange.ID = exchange.Id()
	exists, err := async.Await(s.collection.Exists(ctx, exchange.ID))
	if err != nil {
		return fmt.Errorf("check exchange %s: %w", exchange.ID, err)
	}
	if exists {
		return fmt.Errorf("%w: %s", ErrDuplicateExchange, exchange.ID)
	}

	if _, err := async.Await(s.collection.Save(ctx, exchange)); err != nil {
		return fmt.Errorf("save exchange %s: %w", exchange.ID, err)
	}
	return nil
}

func (s *MongoStore) Recent(ctx context.Context, conversationID string, limit int) ([]db.ChatExchangeModel, error) {
	if s.collection == nil {
		return nil, errNoCollection
	}
	if limit <= 0 {
		return nil, nil
	}

	exchanges, err := async.Await(s.collection.Find(ctx,
		bson.M{"conversationId": conversationID},
		bson.D{{Key: "createdAt", Value: -1}},
		int64(limit), 0))
	if err != nil {
		return nil, fmt.Errorf("query recent exchanges: %w", err)
	}
	return exchanges, nil
}

func (s *MongoStore) Close() error { return nil }
