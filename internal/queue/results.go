// Package queue moves finished-run results from the API to the ranking
// worker through a Redis list.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/jwebster45206/cyber-quest/pkg/catalog"
)

// ResultsKey is the Redis list holding pending results.
const ResultsKey = "ranking-results"

// Result is one finished session waiting to be ranked.
type Result struct {
	RequestID  string        `json:"request_id"`
	Player     string        `json:"player"`
	Role       catalog.Role  `json:"role"`
	Elapsed    time.Duration `json:"elapsed"`
	Errors     int           `json:"errors"`
	Completed  bool          `json:"completed"`
	Attempts   int           `json:"attempts,omitempty"`
	EnqueuedAt time.Time     `json:"enqueued_at"`
}

// ResultQueue is a FIFO of Results. It satisfies game.Reporter so the
// engine can hand results off without touching the leaderboard.
type ResultQueue struct {
	rdb    *redis.Client
	logger *slog.Logger
}

func NewResultQueue(rdb *redis.Client, logger *slog.Logger) *ResultQueue {
	return &ResultQueue{rdb: rdb, logger: logger}
}

// RecordResult enqueues a finished run.
func (q *ResultQueue) RecordResult(ctx context.Context, name string, role catalog.Role, elapsed time.Duration, errors int, completed bool) error {
	res := &Result{
		RequestID:  uuid.NewString(),
		Player:     name,
		Role:       role,
		Elapsed:    elapsed,
		Errors:     errors,
		Completed:  completed,
		EnqueuedAt: time.Now().UTC(),
	}
	if err := q.Enqueue(ctx, res); err != nil {
		return err
	}
	q.logger.DebugContext(ctx, "Result queued", "request_id", res.RequestID, "player", name)
	return nil
}

// Enqueue adds res to the end of the queue.
func (q *ResultQueue) Enqueue(ctx context.Context, res *Result) error {
	data, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("failed to serialize result: %w", err)
	}
	if err := q.rdb.RPush(ctx, ResultsKey, data).Err(); err != nil {
		return fmt.Errorf("failed to enqueue result: %w", err)
	}
	return nil
}

// BlockingDequeue waits up to timeout for the next result. It returns
// nil, nil when the wait times out or ctx ends.
func (q *ResultQueue) BlockingDequeue(ctx context.Context, timeout time.Duration) (*Result, error) {
	vals, err := q.rdb.BLPop(ctx, timeout, ResultsKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) || ctx.Err() != nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to dequeue result: %w", err)
	}
	// BLPop returns [key, value]
	if len(vals) != 2 {
		return nil, fmt.Errorf("unexpected BLPop result: %v", vals)
	}
	var res Result
	if err := json.Unmarshal([]byte(vals[1]), &res); err != nil {
		return nil, fmt.Errorf("failed to parse result: %w", err)
	}
	return &res, nil
}

// Depth returns the number of queued results.
func (q *ResultQueue) Depth(ctx context.Context) (int, error) {
	n, err := q.rdb.LLen(ctx, ResultsKey).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to get queue depth: %w", err)
	}
	return int(n), nil
}
