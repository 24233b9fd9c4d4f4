// Package worker drains the result queue into the leaderboard.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/jwebster45206/cyber-quest/internal/queue"
	"github.com/jwebster45206/cyber-quest/pkg/game"
)

const (
	pollTimeout   = 5 * time.Second
	recordTimeout = 10 * time.Second

	// A result that fails this many times is dropped.
	maxAttempts = 3
)

// Worker moves queued results into a game.Reporter, normally a
// ranking.Board.
type Worker struct {
	id       string
	queue    *queue.ResultQueue
	recorder game.Reporter
	log      *slog.Logger
	poll     time.Duration
	ctx      context.Context
	cancel   context.CancelFunc
}

func New(q *queue.ResultQueue, recorder game.Reporter, log *slog.Logger, workerID string) *Worker {
	ctx, cancel := context.WithCancel(context.Background())

	if workerID == "" {
		workerID = fmt.Sprintf("worker-%s", uuid.New().String()[:8])
	}

	return &Worker{
		id:       workerID,
		queue:    q,
		recorder: recorder,
		log:      log,
		poll:     pollTimeout,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start processes results until Stop is called.
func (w *Worker) Start() error {
	w.log.Info("Worker starting", "worker_id", w.id)

	for {
		select {
		case <-w.ctx.Done():
			w.log.Info("Worker shutting down", "worker_id", w.id)
			return nil
		default:
			if err := w.processNext(); err != nil {
				w.log.Error("Error processing result", "error", err, "worker_id", w.id)
				time.Sleep(1 * time.Second)
			}
		}
	}
}

func (w *Worker) Stop() {
	w.log.Info("Worker stop requested", "worker_id", w.id)
	w.cancel()
}

func (w *Worker) processNext() error {
	res, err := w.queue.BlockingDequeue(w.ctx, w.poll)
	if err != nil {
		return err
	}
	if res == nil {
		return nil
	}

	// A popped result must land somewhere even if Stop arrives meanwhile.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(w.ctx), recordTimeout)
	defer cancel()

	log := w.log.With("worker_id", w.id, "request_id", res.RequestID)
	err = w.recorder.RecordResult(ctx, res.Player, res.Role, res.Elapsed, res.Errors, res.Completed)
	if err == nil {
		log.Info("Result recorded",
			"player", res.Player,
			"queued_for_ms", time.Since(res.EnqueuedAt).Milliseconds())
		return nil
	}

	res.Attempts++
	if res.Attempts >= maxAttempts {
		log.Error("Dropping result after repeated failures", "error", err, "attempts", res.Attempts)
		return nil
	}
	log.Warn("Failed to record result, re-queueing", "error", err, "attempts", res.Attempts)
	if qerr := w.queue.Enqueue(ctx, res); qerr != nil {
		return fmt.Errorf("failed to re-queue result: %w", qerr)
	}
	return nil
}
