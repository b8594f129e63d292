package chatlog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SaiNageswarS/employee-desk/db"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

// PostgresStore persists exchanges in PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	if err := initSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStore{pool: pool}, nil
}

func initSchema(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS chat_exchanges (
			id TEXT PRIMARY KEY,
			conversation_id TEXT NOT NULL,
			org_id TEXT NOT NULL DEFAULT '',
			query TEXT NOT NULL,
			search_query TEXT NOT NULL DEFAULT '',
			answer TEXT NOT NULL,
			followup_questions TEXT[] NOT NULL,
			context_id TEXT[] NOT NULL,
			user_email TEXT NOT NULL DEFAULT '',
			model_name TEXT NOT NULL DEFAULT '',
			prompt_tokens INTEGER NOT NULL DEFAULT 0,
			completion_tokens INTEGER NOT NULL DEFAULT 0,
			total_tokens INTEGER NOT NULL DEFAULT 0,
			total_cost DOUBLE PRECISION NOT NULL DEFAULT 0,
			total_time DOUBLE PRECISION NOT NULL DEFAULT 0,
			timestamp TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_chat_exchanges_conversation_created ON chat_exchanges (conversation_id, created_at DESC);`,
	}

	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema failed on %q: %w", stmt, err)
		}
	}
	return nil
}

func (s *PostgresStore) Append(ctx context.Context, e db.ChatExchangeModel) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO chat_exchanges (id, conversation_id, org_id, query, search_query, answer,
			followup_questions, context_id, user_email, model_name, prompt_tokens, completion_tokens,
			total_tokens, total_cost, total_time, timestamp, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
		e.Id(), e.ConversationID, e.OrgID, e.Query, e.SearchQuery, e.Answer,
		nonNil(e.FollowupQuestions), nonNil(e.ContextID), e.UserEmail, e.ModelName,
		e.PromptTokens, e.CompletionTokens, e.TotalTokens, e.TotalCost, e.TotalTime,
		e.Timestamp, e.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("%w: %s", ErrDuplicateExchange, e.Id())
		}
		return fmt.Errorf("save exchange: %w", err)
	}
	return nil
}

func (s *PostgresStore) Recent(ctx context.Context, conversationID string, limit int) ([]db.ChatExchangeModel, error) {
	if limit <= 0 {
		return nil, nil
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, conversation_id, org_id, query, search_query, answer, followup_questions, context_id,
			user_email, model_name, prompt_tokens, completion_tokens, total_tokens, total_cost, total_time,
			timestamp, created_at
		 FROM chat_exchanges WHERE conversation_id=$1 ORDER BY created_at DESC LIMIT $2`,
		conversationID,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query recent exchanges: %w", err)
	}
	defer rows.Close()

	items := make([]db.ChatExchangeModel, 0, limit)
	for rows.Next() {
		var e db.ChatExchangeModel
		if err := rows.Scan(&e.ID, &e.ConversationID, &e.OrgID, &e.Query, &e.SearchQuery, &e.Answer,
			&e.FollowupQuestions, &e.ContextID, &e.UserEmail, &e.ModelName, &e.PromptTokens,
			&e.CompletionTokens, &e.TotalTokens, &e.TotalCost, &e.TotalTime, &e.Timestamp, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan exchange row: %w", err)
		}
		items = append(items, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate exchange rows: %w", err)
	}

	return items, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
