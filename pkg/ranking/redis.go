package ranking

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const rankingKey = "ranking:entries"

// completedWeight lifts every completed run above every unfinished one in
// the sorted set; scores never reach it.
const completedWeight = 1_000_000

// The sorted-set score is rank<<tieBits plus a recency tiebreak, so equal
// ranks list earlier runs first, as MemoryStore does. Both parts stay
// within a float64's exact integer range. Runs recorded in the same second
// fall back to member order.
const tieBits = 33

var tieEpoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// RedisStore keeps the leaderboard in a Redis sorted set.
type RedisStore struct {
	client *redis.Client
	logger *slog.Logger
}

var _ Store = (*RedisStore)(nil)

func NewRedisStore(client *redis.Client, logger *slog.Logger) *RedisStore {
	return &RedisStore{client: client, logger: logger}
}

func rank(e Entry) float64 {
	r := int64(e.Score)
	if e.Completed {
		r += completedWeight
	}
	const tieMax = int64(1)<<tieBits - 1
	age := int64(e.RecordedAt.Sub(tieEpoch) / time.Second)
	age = max(0, min(age, tieMax))
	return float64(r<<tieBits + (tieMax - age))
}

func (r *RedisStore) Add(ctx context.Context, e Entry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal ranking entry: %w", err)
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZAdd(ctx, rankingKey, redis.Z{Score: rank(e), Member: string(data)})
		pipe.ZRemRangeByRank(ctx, rankingKey, 0, -MaxEntries-1)
		return nil
	})
	if err != nil {
		r.logger.Error("Failed to add ranking entry", "player", e.Player, "error", err)
		return fmt.Errorf("failed to add ranking entry: %w", err)
	}
	return nil
}

func (r *RedisStore) Top(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 || limit > MaxEntries {
		limit = MaxEntries
	}
	members, err := r.client.ZRevRange(ctx, rankingKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load rankings: %w", err)
	}

	entries := make([]Entry, 0, len(members))
	for _, m := range members {
		var e Entry
		if err := json.Unmarshal([]byte(m), &e); err != nil {
			r.logger.Warn("Skipping unreadable ranking entry", "error", err)
			continue
		}
		entries = append(entries, e)
	}
	return entries, nil
}
