// Package dialogue supplies optional flavor lines for the presentation
// layer. Nothing in the game state depends on what a provider returns.
package dialogue

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jwebster45206/cyber-quest/pkg/catalog"
)

var ErrNoLine = errors.New("no dialogue line available")

type Emotion string

const (
	Neutral  Emotion = "neutral"
	Stressed Emotion = "stressed"
	Victory  Emotion = "victory"
)

// Provider returns one line of character dialogue for a situation.
type Provider interface {
	Line(ctx context.Context, role catalog.Role, situation string, emotion Emotion) (string, error)
}

type fallback struct {
	primary  Provider
	fallback Provider
	logger   *slog.Logger
}

// WithFallback asks primary first and answers from fb whenever primary
// errors or returns an empty line. A nil primary always uses fb.
func WithFallback(primary, fb Provider, logger *slog.Logger) Provider {
	if logger == nil {
		logger = slog.Default()
	}
	return &fallback{primary: primary, fallback: fb, logger: logger}
}

func (f *fallback) Line(ctx context.Context, role catalog.Role, situation string, emotion Emotion) (string, error) {
	if f.primary != nil {
		line, err := f.primary.Line(ctx, role, situation, emotion)
		if err == nil && line != "" {
			return line, nil
		}
		f.logger.Debug("dialogue enrichment unavailable, using fallback",
			"role", role,
			"emotion", emotion,
			"error", err)
	}
	return f.fallback.Line(ctx, role, situation, emotion)
}
