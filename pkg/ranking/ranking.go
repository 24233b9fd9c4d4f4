// Package ranking keeps the leaderboard of finished sessions.
package ranking

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/jwebster45206/cyber-quest/pkg/catalog"
)

// MaxEntries is how many results a store retains.
const MaxEntries = 50

const (
	baseScore    = 10000
	secondWeight = 8
	errorWeight  = 300
)

// Entry is one leaderboard row.
type Entry struct {
	ID         uuid.UUID    `json:"id"`
	Player     string       `json:"player"`
	Role       catalog.Role `json:"role"`
	Seconds    float64      `json:"seconds"`
	Errors     int          `json:"errors"`
	Completed  bool         `json:"completed"`
	Score      int          `json:"score"`
	RecordedAt time.Time    `json:"recorded_at"`
}

// Store persists leaderboard entries.
type Store interface {
	Add(ctx context.Context, e Entry) error
	Top(ctx context.Context, limit int) ([]Entry, error)
}

// Score rates a run. Unfinished runs score zero; finished runs lose points
// per second and per error and earn a bonus for finishing fast.
func Score(elapsed time.Duration, errors int, completed bool) int {
	if !completed {
		return 0
	}
	secs := elapsed.Seconds()
	score := math.Max(0, baseScore-secondWeight*secs-errorWeight*float64(errors))
	switch {
	case secs < 30:
		score += 2000
	case secs < 60:
		score += 1000
	}
	return int(math.Round(score))
}

// less orders completed runs first, then higher scores, then earlier runs.
func less(a, b Entry) bool {
	if a.Completed != b.Completed {
		return a.Completed
	}
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	return a.RecordedAt.Before(b.RecordedAt)
}

// Level maps a score to a 1..100 player level.
func Level(score int) int {
	return min(100, max(1, score/1000))
}

// Achievement names the badge a run earned.
func Achievement(progress, errors int, elapsed time.Duration) string {
	switch {
	case progress >= 100 && errors == 0 && elapsed < 30*time.Second:
		return "Flawless Operation"
	case progress >= 100 && errors <= 2:
		return "Cyber Elite"
	case progress >= 100:
		return "Mission Complete"
	case progress >= 80:
		return "Almost Perfect"
	case progress >= 50:
		return "Solid Effort"
	}
	return "In Training"
}

// FormatElapsed renders d as "42s", "3m 5s" or "1h 20m".
func FormatElapsed(d time.Duration) string {
	secs := int(d.Seconds())
	switch {
	case secs < 60:
		return fmt.Sprintf("%ds", secs)
	case secs < 3600:
		return fmt.Sprintf("%dm %ds", secs/60, secs%60)
	}
	return fmt.Sprintf("%dh %dm", secs/3600, (secs%3600)/60)
}
