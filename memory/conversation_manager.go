package memory

import (
	"context"
	"fmt"
	"slices"

	"github.com/SaiNageswarS/employee-desk/chatlog"
	"github.com/SaiNageswarS/employee-desk/db"
)

const DefaultLimit = 5

// ConversationManager rebuilds conversation memory from the chat log.
// It holds no state of its own and never writes to the log.
type ConversationManager struct {
	log chatlog.Store
}

func NewConversationManager(log chatlog.Store) *ConversationManager {
	return &ConversationManager{log: log}
}

// Load returns the last limit exchanges of the conversation as turns,
// oldest first, two turns (user then assistant) per exchange.
// A non-positive limit means DefaultLimit.
func (cm *ConversationManager) Load(ctx context.Context, conversationID string, limit int) (Conversation, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if cm.log == nil {
		return Conversation{}, nil
	}

	exchanges, err := cm.log.Recent(ctx, conversationID, limit)
	if err != nil {
		return Conversation{}, fmt.Errorf("load memory for %s: %w", conversationID, err)
	}

	return fromExchanges(exchanges, limit), nil
}

// fromExchanges expects newest-first exchanges, as the chat log returns them.
func fromExchanges(exchanges []db.ChatExchangeModel, limit int) Conversation {
	if len(exchanges) > limit {
		exchanges = exchanges[:limit]
	}

	chronological := slices.Clone(exchanges)
	slices.Reverse(chronological)

	turns := make([]ChatTurn, 0, 2*len(chronological))
	for _, e := range chronological {
		turns = append(turns,
			ChatTurn{Role: RoleUser, Content: e.Query},
			ChatTurn{Role: RoleAssistant, Content: e.Answer},
		)
	}

	return Conversation{turns: turns}
}
