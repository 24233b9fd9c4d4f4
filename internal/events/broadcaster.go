// Package events publishes session activity over Redis Pub/Sub so that
// any API replica can stream it to watching clients.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// EventType represents the type of event being broadcast
type EventType string

const (
	EventTypeSessionStarted EventType = "session.started"
	EventTypeTurnResolved   EventType = "turn.resolved"
	EventTypeSessionEnded   EventType = "session.ended"
)

// Event represents a generic event structure
type Event struct {
	Type      EventType      `json:"type"`
	SessionID string         `json:"session_id"`
	Data      map[string]any `json:"data,omitempty"`
}

// Channel is the Pub/Sub channel carrying a session's events.
func Channel(sessionID uuid.UUID) string {
	return "session-events:" + sessionID.String()
}

// Broadcaster publishes events to Redis Pub/Sub for SSE distribution
type Broadcaster struct {
	redisClient *redis.Client
	logger      *slog.Logger
}

func NewBroadcaster(redisClient *redis.Client, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		redisClient: redisClient,
		logger:      logger,
	}
}

func (b *Broadcaster) PublishSessionStarted(ctx context.Context, sessionID uuid.UUID, player, role string, stages int) error {
	return b.publish(ctx, sessionID, EventTypeSessionStarted, map[string]any{
		"player": player,
		"role":   role,
		"stages": stages,
	})
}

func (b *Broadcaster) PublishTurnResolved(ctx context.Context, sessionID uuid.UUID, turn int, choice string, success bool, progress int) error {
	return b.publish(ctx, sessionID, EventTypeTurnResolved, map[string]any{
		"turn":     turn,
		"choice":   choice,
		"success":  success,
		"progress": progress,
	})
}

func (b *Broadcaster) PublishSessionEnded(ctx context.Context, sessionID uuid.UUID, outcome, winner, message string) error {
	return b.publish(ctx, sessionID, EventTypeSessionEnded, map[string]any{
		"outcome": outcome,
		"winner":  winner,
		"message": message,
	})
}

func (b *Broadcaster) publish(ctx context.Context, sessionID uuid.UUID, t EventType, data map[string]any) error {
	event := Event{Type: t, SessionID: sessionID.String(), Data: data}
	channel := Channel(sessionID)

	payload, err := json.Marshal(event)
	if err != nil {
		b.logger.Error("Failed to marshal event", "error", err, "event_type", t)
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := b.redisClient.Publish(ctx, channel, payload).Err(); err != nil {
		b.logger.Error("Failed to publish event", "error", err, "channel", channel)
		return fmt.Errorf("failed to publish event: %w", err)
	}

	b.logger.Debug("Event published", "channel", channel, "event_type", t)
	return nil
}

// Subscribe opens a subscription to one session's events. The caller
// closes it.
func (b *Broadcaster) Subscribe(ctx context.Context, sessionID uuid.UUID) *redis.PubSub {
	return b.redisClient.Subscribe(ctx, Channel(sessionID))
}
