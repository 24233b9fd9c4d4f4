package events

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupBroadcaster(t *testing.T) (*Broadcaster, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	opt, err := redis.ParseURL("redis://" + mr.Addr())
	require.NoError(t, err)
	client := redis.NewClient(opt)
	t.Cleanup(func() {
		_ = client.Close()
		mr.Close()
	})
	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
	return NewBroadcaster(client, logger), mr
}

func receive(t *testing.T, ch <-chan *redis.Message) Event {
	t.Helper()
	select {
	case msg := <-ch:
		var e Event
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &e))
		return e
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
	}
	return Event{}
}

func TestBroadcaster_PublishesToSessionChannel(t *testing.T) {
	b, _ := setupBroadcaster(t)
	ctx := context.Background()
	id := uuid.New()

	sub := b.Subscribe(ctx, id)
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)
	ch := sub.Channel()

	require.NoError(t, b.PublishSessionStarted(ctx, id, "Kate", "user", 5))
	require.NoError(t, b.PublishTurnResolved(ctx, id, 1, "Report it", true, 22))
	require.NoError(t, b.PublishSessionEnded(ctx, id, "victory", "", "You win"))

	e := receive(t, ch)
	assert.Equal(t, EventTypeSessionStarted, e.Type)
	assert.Equal(t, id.String(), e.SessionID)
	assert.Equal(t, "Kate", e.Data["player"])

	e = receive(t, ch)
	assert.Equal(t, EventTypeTurnResolved, e.Type)
	assert.Equal(t, float64(22), e.Data["progress"])
	assert.Equal(t, true, e.Data["success"])

	e = receive(t, ch)
	assert.Equal(t, EventTypeSessionEnded, e.Type)
	assert.Equal(t, "victory", e.Data["outcome"])
}

func TestBroadcaster_OtherSessionsAreIsolated(t *testing.T) {
	b, mr := setupBroadcaster(t)
	ctx := context.Background()
	watched, other := uuid.New(), uuid.New()

	sub := b.Subscribe(ctx, watched)
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	require.NoError(t, b.PublishTurnResolved(ctx, other, 1, "x", false, 3))
	assert.Equal(t, 1, mr.PubSubNumSub(Channel(watched))[Channel(watched)])

	require.NoError(t, b.PublishTurnResolved(ctx, watched, 2, "y", true, 40))
	e := receive(t, sub.Channel())
	assert.Equal(t, float64(2), e.Data["turn"])
}

func TestBroadcaster_PublishFailure(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer client.Close()
	b := NewBroadcaster(client, slog.New(slog.NewTextHandler(io.Discard, nil)))

	mr.Close()
	assert.Error(t, b.PublishSessionEnded(context.Background(), uuid.New(), "time_out", "", ""))
}
