package intervene

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresSink writes audit events to a durable table for review by a
// clinical safety team. Complements the file sink rather than replacing
// it; both receive every event.
type PostgresSink struct {
	pool *pgxpool.Pool
}

const createCrisisEventsTable = `
CREATE TABLE IF NOT EXISTS crisis_events (
	id            BIGSERIAL PRIMARY KEY,
	occurred_at   TIMESTAMPTZ NOT NULL,
	session_id    TEXT NOT NULL,
	kind          TEXT NOT NULL,
	final_level   TEXT NOT NULL,
	keyword_level TEXT NOT NULL,
	keyword_score INTEGER NOT NULL,
	model_level   TEXT NOT NULL,
	degraded      BOOLEAN NOT NULL
)`

// NewPostgresSink connects and ensures the crisis_events table exists.
func NewPostgresSink(ctx context.Context, dsn string) (*PostgresSink, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, createCrisisEventsTable); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure crisis_events table: %w", err)
	}
	return &PostgresSink{pool: pool}, nil
}

func (s *PostgresSink) Name() string { return "postgres:crisis_events" }

func (s *PostgresSink) Deliver(ctx context.Context, ev *Event) error {
	if ev == nil {
		return nil
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO crisis_events
			(occurred_at, session_id, kind, final_level, keyword_level, keyword_score, model_level, degraded)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		ev.Timestamp, ev.SessionID, ev.Kind, ev.FinalLevel,
		ev.KeywordLevel, ev.KeywordScore, ev.ModelLevel, ev.Degraded,
	)
	if err != nil {
		return fmt.Errorf("insert crisis event: %w", err)
	}
	return nil
}

func (s *PostgresSink) Close(_ context.Context) error {
	s.pool.Close()
	return nil
}
