package ranking

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/jwebster45206/cyber-quest/pkg/catalog"
	"github.com/jwebster45206/cyber-quest/pkg/textfilter"
)

// Board turns finished sessions into leaderboard entries.
type Board struct {
	store  Store
	logger *slog.Logger
	now    func() time.Time
}

func NewBoard(store Store, logger *slog.Logger) *Board {
	if logger == nil {
		logger = slog.Default()
	}
	return &Board{store: store, logger: logger, now: time.Now}
}

// RecordResult scores a finished run and stores it.
func (b *Board) RecordResult(ctx context.Context, name string, role catalog.Role, elapsed time.Duration, errors int, completed bool) error {
	e := Entry{
		ID:         uuid.New(),
		Player:     textfilter.CleanName(name),
		Role:       role,
		Seconds:    math.Round(elapsed.Seconds()*100) / 100,
		Errors:     errors,
		Completed:  completed,
		Score:      Score(elapsed, errors, completed),
		RecordedAt: b.now().UTC(),
	}
	if err := b.store.Add(ctx, e); err != nil {
		return err
	}
	b.logger.InfoContext(ctx, "result recorded",
		"player", e.Player,
		"role", e.Role,
		"score", e.Score,
		"completed", e.Completed)
	return nil
}

func (b *Board) Top(ctx context.Context, limit int) ([]Entry, error) {
	return b.store.Top(ctx, limit)
}
