package handlers

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/cyber-quest/internal/events"
	"github.com/jwebster45206/cyber-quest/pkg/story"
)

type sseEvent struct {
	name string
	data string
}

// readEvent reads one "event:/data:" block, skipping keepalive comments.
func readEvent(t *testing.T, r *bufio.Reader) sseEvent {
	t.Helper()
	var ev sseEvent
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\n")
		switch {
		case strings.HasPrefix(line, "event: "):
			ev.name = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			ev.data = strings.TrimPrefix(line, "data: ")
		case line == "" && ev.name != "":
			return ev
		}
	}
}

func setupEvents(t *testing.T) (*events.Broadcaster, *httptest.Server) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	b := events.NewBroadcaster(client, testLogger())
	srv := httptest.NewServer(NewEventsHandler(b, testLogger()))
	t.Cleanup(func() {
		srv.Close()
		_ = client.Close()
		mr.Close()
	})
	return b, srv
}

func TestEventsHandler_StreamsUntilSessionEnds(t *testing.T) {
	b, srv := setupEvents(t)
	id := uuid.New()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/v1/events/sessions/"+id.String(), nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	r := bufio.NewReader(resp.Body)
	connected := readEvent(t, r)
	assert.Equal(t, "connected", connected.name)
	assert.Contains(t, connected.data, id.String())

	// Events for other sessions never reach this stream.
	require.NoError(t, b.PublishTurnResolved(ctx, uuid.New(), 1, "Elsewhere", false, 3))
	require.NoError(t, b.PublishTurnResolved(ctx, id, 1, "Report the email", true, 18))
	turn := readEvent(t, r)
	assert.Equal(t, string(events.EventTypeTurnResolved), turn.name)
	assert.Contains(t, turn.data, `"choice":"Report the email"`)
	assert.Contains(t, turn.data, `"progress":18`)

	require.NoError(t, b.PublishSessionEnded(ctx, id, "victory", "", "Threat contained"))
	ended := readEvent(t, r)
	assert.Equal(t, string(events.EventTypeSessionEnded), ended.name)
	assert.Contains(t, ended.data, `"outcome":"victory"`)

	// The handler returns after the end event, closing the stream.
	_, err = r.ReadString('\n')
	assert.Error(t, err)
}

func TestEventsHandler_Rejects(t *testing.T) {
	_, srv := setupEvents(t)

	tests := []struct {
		name   string
		method string
		path   string
		want   int
	}{
		{"wrong method", http.MethodPost, "/v1/events/sessions/" + uuid.NewString(), http.StatusMethodNotAllowed},
		{"missing id", http.MethodGet, "/v1/events/sessions/", http.StatusBadRequest},
		{"bad id", http.MethodGet, "/v1/events/sessions/not-a-uuid", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := http.NewRequest(tt.method, srv.URL+tt.path, nil)
			require.NoError(t, err)
			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, tt.want, resp.StatusCode)
			assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
		})
	}
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []string
	err    error
}

func (p *recordingPublisher) record(s string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, s)
	return p.err
}

func (p *recordingPublisher) PublishSessionStarted(_ context.Context, _ uuid.UUID, player, role string, stages int) error {
	return p.record(fmt.Sprintf("started %s %s %d", player, role, stages))
}

func (p *recordingPublisher) PublishTurnResolved(_ context.Context, _ uuid.UUID, turn int, _ string, _ bool, _ int) error {
	return p.record(fmt.Sprintf("turn %d", turn))
}

func (p *recordingPublisher) PublishSessionEnded(_ context.Context, _ uuid.UUID, outcome, _, _ string) error {
	return p.record("ended " + outcome)
}

func TestSessionHandler_PublishesActivity(t *testing.T) {
	f := newFixture(t)
	pub := &recordingPublisher{}
	f.handler.publisher = pub

	v := f.create(t, `{"player_name":"kate","role":"defender","seed":4}`)
	path := fmt.Sprintf("/v1/sessions/%s/turn", v.ID)

	turns := 0
	for i := 0; i < story.MaxStages; i++ {
		rr := f.do(t, http.MethodPost, path, `{"option":0}`)
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		turns++
		if strings.Contains(rr.Body.String(), `"terminal":true`) {
			break
		}
	}

	require.Len(t, pub.events, turns+2)
	assert.Equal(t, fmt.Sprintf("started kate defender %d", v.StageCount), pub.events[0])
	assert.Equal(t, "turn 1", pub.events[1])
	assert.True(t, strings.HasPrefix(pub.events[len(pub.events)-1], "ended "))
}

func TestSessionHandler_PublishFailureIsNotFatal(t *testing.T) {
	f := newFixture(t)
	pub := &recordingPublisher{err: errors.New("redis down")}
	f.handler.publisher = pub

	v := f.create(t, `{"role":"user","seed":2}`)
	rr := f.do(t, http.MethodPost, fmt.Sprintf("/v1/sessions/%s/turn", v.ID), `{"option":0}`)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.NotEmpty(t, pub.events)
}
