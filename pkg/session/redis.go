package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore persists session data in Redis lists. Every payload is
// sealed before it leaves the process, so a compromised Redis instance
// yields ciphertext only. Keys carry a TTL refreshed on each write.
type RedisStore struct {
	rdb    *redis.Client
	sealer *Sealer
	ttl    time.Duration
}

// RedisConfig configures the Redis-backed store.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Secret   string
	TTL      time.Duration
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	sealer, err := NewSealer(cfg.Secret)
	if err != nil {
		return nil, err
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("connect to redis at %s: %w", cfg.Addr, err)
	}

	return &RedisStore{rdb: rdb, sealer: sealer, ttl: ttl}, nil
}

func key(sessionID, kind string) string {
	return "solace:sess:" + sessionID + ":" + kind
}

// appendSealed marshals, seals and pushes one record, refreshing the TTL.
func (r *RedisStore) appendSealed(ctx context.Context, sessionID, kind string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	sealed, err := r.sealer.Seal(raw)
	if err != nil {
		return err
	}
	k := key(sessionID, kind)
	pipe := r.rdb.TxPipeline()
	pipe.RPush(ctx, k, sealed)
	pipe.Expire(ctx, k, r.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("append %s record: %w", kind, err)
	}
	return nil
}

// rangeSealed reads and unseals list records. A record that fails to
// open is skipped rather than poisoning the whole read; it most likely
// predates a secret rotation.
func rangeSealed[T any](ctx context.Context, r *RedisStore, sessionID, kind string, start, stop int64) ([]T, error) {
	tokens, err := r.rdb.LRange(ctx, key(sessionID, kind), start, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("read %s records: %w", kind, err)
	}
	out := make([]T, 0, len(tokens))
	for _, token := range tokens {
		raw, err := r.sealer.Open(token)
		if err != nil {
			continue
		}
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			continue
		}
		out = append(out, v)
	}
	return out, nil
}

func (r *RedisStore) AppendChatMessage(ctx context.Context, sessionID string, msg ChatMessage) error {
	return r.appendSealed(ctx, sessionID, "chat", msg)
}

func (r *RedisStore) RecentHistory(ctx context.Context, sessionID string, limit int) ([]ChatMessage, error) {
	start := int64(0)
	if limit > 0 {
		start = int64(-limit)
	}
	return rangeSealed[ChatMessage](ctx, r, sessionID, "chat", start, -1)
}

func (r *RedisStore) AppendMood(ctx context.Context, sessionID string, entry MoodEntry) error {
	return r.appendSealed(ctx, sessionID, "mood", entry)
}

func (r *RedisStore) Moods(ctx context.Context, sessionID string) ([]MoodEntry, error) {
	return rangeSealed[MoodEntry](ctx, r, sessionID, "mood", 0, -1)
}

func (r *RedisStore) AppendJournal(ctx context.Context, sessionID string, entry JournalEntry) error {
	return r.appendSealed(ctx, sessionID, "journal", entry)
}

func (r *RedisStore) ListJournal(ctx context.Context, sessionID string) ([]JournalEntry, error) {
	return rangeSealed[JournalEntry](ctx, r, sessionID, "journal", 0, -1)
}

func (r *RedisStore) AppendThoughtRecord(ctx context.Context, sessionID string, rec ThoughtRecord) error {
	return r.appendSealed(ctx, sessionID, "thought", rec)
}

func (r *RedisStore) ThoughtRecords(ctx context.Context, sessionID string) ([]ThoughtRecord, error) {
	return rangeSealed[ThoughtRecord](ctx, r, sessionID, "thought", 0, -1)
}

func (r *RedisStore) AppendCrisisEvent(ctx context.Context, sessionID string, ev CrisisEvent) error {
	return r.appendSealed(ctx, sessionID, "crisis", ev)
}

func (r *RedisStore) CrisisEvents(ctx context.Context, sessionID string) ([]CrisisEvent, error) {
	return rangeSealed[CrisisEvent](ctx, r, sessionID, "crisis", 0, -1)
}

func (r *RedisStore) Close() error {
	return r.rdb.Close()
}
