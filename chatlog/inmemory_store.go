package chatlog

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/SaiNageswarS/employee-desk/db"
)

// InMemoryStore is an in-process store for local/dev use and tests.
type InMemoryStore struct {
	mu        sync.RWMutex
	exchanges map[string][]db.ChatExchangeModel
	ids       map[string]struct{}
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		exchanges: make(map[string][]db.ChatExchangeModel),
		ids:       make(map[string]struct{}),
	}
}

func (s *InMemoryStore) Append(_ context.Context, exchange db.ChatExchangeModel) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	exchange.ID = exchange.Id()
	if _, ok := s.ids[exchange.ID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateExchange, exchange.ID)
	}
	if exchange.CreatedAt.IsZero() {
		exchange.CreatedAt = time.Now().UTC()
	}

	s.ids[exchange.ID] = struct{}{}
	s.exchanges[exchange.ConversationID] = append(s.exchanges[exchange.ConversationID], exchange)
	return nil
}

func (s *InMemoryStore) Recent(_ context.Context, conversationID string, limit int) ([]db.ChatExchangeModel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	arr := s.exchanges[conversationID]
	if len(arr) == 0 || limit <= 0 {
		return nil, nil
	}

	out := make([]db.ChatExchangeModel, len(arr))
	copy(out, arr)
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })

	if limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

// Len returns the number of stored exchanges across all conversations.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.ids)
}

func (s *InMemoryStore) Close() error { return nil }
