package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/cyber-quest/pkg/actor"
	"github.com/jwebster45206/cyber-quest/pkg/catalog"
	"github.com/jwebster45206/cyber-quest/pkg/game"
	"github.com/jwebster45206/cyber-quest/pkg/ranking"
	"github.com/jwebster45206/cyber-quest/pkg/storage"
	"github.com/jwebster45206/cyber-quest/pkg/story"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
}

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.Default()
	require.NoError(t, err)
	return cat
}

type fixture struct {
	storage *storage.MockStorage
	board   *ranking.Board
	handler *SessionHandler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gen := story.NewGenerator(testCatalog(t), testLogger(), story.DefaultConfig())
	board := ranking.NewBoard(ranking.NewMemoryStore(), testLogger())
	engine := game.NewEngine(gen, board, testLogger())
	mock := storage.NewMockStorage()
	return &fixture{
		storage: mock,
		board:   board,
		handler: NewSessionHandler(engine, mock, nil, testLogger()),
	}
}

func (f *fixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	f.handler.ServeHTTP(rr, req)
	return rr
}

func (f *fixture) create(t *testing.T, body string) SessionView {
	t.Helper()
	rr := f.do(t, http.MethodPost, "/v1/sessions", body)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var v SessionView
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&v))
	return v
}

func TestHealthHandler_ServeHTTP(t *testing.T) {
	tests := []struct {
		name           string
		pingErr        error
		catalog        *catalog.Catalog
		expectedStatus int
		expectedHealth string
		expectedStore  string
	}{
		{"all healthy", nil, testCatalog(t), http.StatusOK, "healthy", "healthy"},
		{"unhealthy storage", errors.New("connection failed"), testCatalog(t), http.StatusServiceUnavailable, "degraded", "unhealthy"},
		{"missing catalog", nil, nil, http.StatusServiceUnavailable, "degraded", "healthy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := storage.NewMockStorage()
			mock.SetPingError(tt.pingErr)
			handler := NewHealthHandler(mock, tt.catalog, testLogger())

			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

			assert.Equal(t, tt.expectedStatus, rr.Code)
			assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

			var resp HealthResponse
			require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
			assert.Equal(t, tt.expectedHealth, resp.Status)
			assert.Equal(t, "cyber-quest", resp.Service)
			assert.Equal(t, tt.expectedStore, resp.Components["storage"])
		})
	}
}

func TestSessionHandler_Create(t *testing.T) {
	f := newFixture(t)
	v := f.create(t, `{"player_name":"kate","role":"Defender","seed":7}`)

	assert.Equal(t, catalog.RoleDefender, v.Role)
	assert.Equal(t, "Ethical Hacker", v.RoleTitle)
	assert.Equal(t, game.StatusActive, v.Status)
	assert.Equal(t, uint64(7), v.Seed)
	assert.Len(t, v.Opponents, 2)
	require.NotNil(t, v.Stage)
	assert.Equal(t, 0, v.Stage.Index)
	assert.NotEmpty(t, v.Stage.Options)
	assert.GreaterOrEqual(t, v.StageCount, story.MinStages)

	snap, err := f.storage.LoadSession(context.Background(), v.ID)
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, game.StatusActive, snap.Status)
}

func TestSessionHandler_CreateRejects(t *testing.T) {
	f := newFixture(t)
	tests := []struct {
		name   string
		method string
		body   string
		want   int
	}{
		{"invalid json", http.MethodPost, `{`, http.StatusBadRequest},
		{"unknown role", http.MethodPost, `{"role":"hacker"}`, http.StatusBadRequest},
		{"foreign accessory", http.MethodPost, `{"role":"user","accessories":["mask"]}`, http.StatusBadRequest},
		{"bad difficulty", http.MethodPost, `{"role":"user","opponents":[{"role":"attacker","difficulty":"insane"}]}`, http.StatusBadRequest},
		{"list not supported", http.MethodGet, "", http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := f.do(t, tt.method, "/v1/sessions", tt.body)
			assert.Equal(t, tt.want, rr.Code, rr.Body.String())
			var resp ErrorResponse
			require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
			assert.NotEmpty(t, resp.Error)
		})
	}
}

func TestSessionHandler_CreateUsesStoredLoadout(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.storage.SaveLoadout(context.Background(), "Neo", actor.Loadout{
		Role:        catalog.RoleAttacker,
		Accessories: []string{"mask"},
	}))

	v := f.create(t, `{"player_name":"neo","role":"attacker"}`)
	assert.Equal(t, -4, v.Modifiers.DetectionGain)

	v = f.create(t, `{"player_name":"neo","role":"attacker","accessories":[]}`)
	assert.Equal(t, 0, v.Modifiers.DetectionGain)
}

func TestSessionHandler_CreateSaveFailure(t *testing.T) {
	f := newFixture(t)
	f.storage.SetSaveError(errors.New("disk full"))

	rr := f.do(t, http.MethodPost, "/v1/sessions", `{"role":"user"}`)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestSessionHandler_Read(t *testing.T) {
	f := newFixture(t)
	v := f.create(t, `{"role":"user","seed":3}`)

	rr := f.do(t, http.MethodGet, "/v1/sessions/"+v.ID.String(), "")
	require.Equal(t, http.StatusOK, rr.Code)
	var got SessionView
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&got))
	assert.Equal(t, v.ID, got.ID)
	assert.Equal(t, v.Stage.Description, got.Stage.Description)

	rr = f.do(t, http.MethodGet, "/v1/sessions/not-a-uuid", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = f.do(t, http.MethodGet, "/v1/sessions/00000000-0000-0000-0000-000000000001", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = f.do(t, http.MethodGet, "/v1/sessions/"+v.ID.String()+"/history", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestSessionHandler_PlayToEnd(t *testing.T) {
	f := newFixture(t)
	v := f.create(t, `{"player_name":"kate","role":"user","seed":11}`)
	assert.Nil(t, v.Summary)
	path := fmt.Sprintf("/v1/sessions/%s/turn", v.ID)

	var last TurnResponse
	for turn := 1; turn <= story.MaxStages; turn++ {
		rr := f.do(t, http.MethodPost, path, `{"option":0}`)
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		last = TurnResponse{}
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&last))
		assert.Equal(t, turn, last.Result.Turn)
		assert.Equal(t, turn, last.Session.Turn)
		if last.Result.Terminal {
			break
		}
		require.NotNil(t, last.Session.Stage)
	}

	require.True(t, last.Result.Terminal)
	assert.Equal(t, game.StatusEnded, last.Session.Status)
	assert.NotEmpty(t, last.Session.Message)
	assert.Nil(t, last.Session.Stage)
	require.NotNil(t, last.Session.Summary)
	assert.Equal(t, last.Session.Turn, last.Session.Summary.TotalChoices)
	assert.Equal(t, last.Session.Narrative.AlertLevel, last.Session.Summary.FinalAlertLevel)
	assert.NotEmpty(t, last.Session.Summary.Outcome)

	rr := f.do(t, http.MethodPost, path, `{"option":0}`)
	assert.Equal(t, http.StatusConflict, rr.Code)

	entries, err := f.board.Top(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Kate", entries[0].Player)
	assert.Equal(t, last.Result.Human.Completed, entries[0].Completed)
}

func TestSessionHandler_TurnRejects(t *testing.T) {
	f := newFixture(t)
	v := f.create(t, `{"role":"attacker","seed":5}`)
	path := "/v1/sessions/" + v.ID.String() + "/turn"

	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodPost, path, `{}`).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodPost, path, `{"option":9}`).Code)
	assert.Equal(t, http.StatusMethodNotAllowed, f.do(t, http.MethodGet, path, "").Code)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodPost, "/v1/sessions/00000000-0000-0000-0000-000000000001/turn", `{"option":0}`).Code)

	rr := f.do(t, http.MethodGet, "/v1/sessions/"+v.ID.String(), "")
	var got SessionView
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&got))
	assert.Equal(t, 0, got.Turn)
}

func TestSessionHandler_Delete(t *testing.T) {
	f := newFixture(t)
	v := f.create(t, `{"role":"user"}`)

	rr := f.do(t, http.MethodDelete, "/v1/sessions/"+v.ID.String(), "")
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = f.do(t, http.MethodGet, "/v1/sessions/"+v.ID.String(), "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

type failingRanker struct{}

func (failingRanker) Top(context.Context, int) ([]ranking.Entry, error) {
	return nil, errors.New("redis down")
}

func TestRankingHandler(t *testing.T) {
	board := ranking.NewBoard(ranking.NewMemoryStore(), testLogger())
	ctx := context.Background()
	require.NoError(t, board.RecordResult(ctx, "slow", catalog.RoleUser, 200*time.Second, 2, true))
	require.NoError(t, board.RecordResult(ctx, "fast", catalog.RoleAttacker, 20*time.Second, 0, true))
	require.NoError(t, board.RecordResult(ctx, "lost", catalog.RoleDefender, 10*time.Second, 0, false))

	handler := NewRankingHandler(board, 2, testLogger())

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/rankings", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var resp RankingResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	require.Len(t, resp.Entries, 2)
	assert.Equal(t, 1, resp.Entries[0].Rank)
	assert.Equal(t, "Fast", resp.Entries[0].Player)
	assert.Equal(t, "20s", resp.Entries[0].Time)
	assert.Equal(t, "Slow", resp.Entries[1].Player)
	assert.Equal(t, "3m 20s", resp.Entries[1].Time)

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/rankings?limit=3", nil))
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Len(t, resp.Entries, 3)

	for _, q := range []string{"0", "abc", "51"} {
		rr = httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/rankings?limit="+q, nil))
		assert.Equal(t, http.StatusBadRequest, rr.Code, q)
	}

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/v1/rankings", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)

	rr = httptest.NewRecorder()
	NewRankingHandler(failingRanker{}, 10, testLogger()).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/rankings", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestLoadoutHandler(t *testing.T) {
	mock := storage.NewMockStorage()
	handler := NewLoadoutHandler(mock, testLogger())
	serve := func(method, path, body string) *httptest.ResponseRecorder {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest(method, path, bytes.NewBufferString(body)))
		return rr
	}

	rr := serve(http.MethodGet, "/v1/loadouts/neo/attacker", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var resp LoadoutResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Empty(t, resp.Accessories)
	assert.Len(t, resp.Available, 2)

	rr = serve(http.MethodPut, "/v1/loadouts/neo/attacker", `{"accessories":[" Mask ","virus"]}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	stored, err := mock.LoadLoadout(context.Background(), "NEO", catalog.RoleAttacker)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, []string{"mask", "virus"}, stored.Accessories)

	rr = serve(http.MethodGet, "/v1/loadouts/neo/Attacker", "")
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, []string{"mask", "virus"}, resp.Accessories)

	assert.Equal(t, http.StatusBadRequest, serve(http.MethodPut, "/v1/loadouts/neo/user", `{"accessories":["mask"]}`).Code)
	assert.Equal(t, http.StatusBadRequest, serve(http.MethodPut, "/v1/loadouts/neo/user", `{"accessories":["shield","shield"]}`).Code)
	assert.Equal(t, http.StatusBadRequest, serve(http.MethodPut, "/v1/loadouts/neo/user", `nope`).Code)
	assert.Equal(t, http.StatusBadRequest, serve(http.MethodGet, "/v1/loadouts/neo/wizard", "").Code)
	assert.Equal(t, http.StatusBadRequest, serve(http.MethodGet, "/v1/loadouts/neo", "").Code)
	assert.Equal(t, http.StatusMethodNotAllowed, serve(http.MethodDelete, "/v1/loadouts/neo/user", "").Code)

	mock.SetSaveError(errors.New("read only"))
	assert.Equal(t, http.StatusInternalServerError, serve(http.MethodPut, "/v1/loadouts/neo/user", `{"accessories":["shield"]}`).Code)
}
