// Package chatlog persists completed exchanges. Stores are append-only:
// they never update or delete an existing exchange.
package chatlog

import (
	"context"
	"errors"

	"github.com/SaiNageswarS/employee-desk/db"
	"github.com/SaiNageswarS/go-api-boot/logger"
	"go.uber.org/zap"
)

var ErrDuplicateExchange = errors.New("exchange already recorded")

type Store interface {
	Append(ctx context.Context, exchange db.ChatExchangeModel) error
	// Recent returns up to limit exchanges of the conversation, newest first.
	Recent(ctx context.Context, conversationID string, limit int) ([]db.ChatExchangeModel, error)
	Close() error
}

// Record appends the exchange and reports whether it was stored. Failures are
// logged and swallowed: the caller has already produced the user-facing answer.
func Record(ctx context.Context, store Store, exchange db.ChatExchangeModel) bool {
	if err := store.Append(ctx, exchange); err != nil {
		logger.Error("Error creating chatlog",
			zap.String("conversation_id", exchange.ConversationID),
			zap.String("exchange_id", exchange.Id()),
			zap.Error(err))
		return false
	}
	return true
}
