package main

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/cyber-quest/internal/handlers"
	"github.com/jwebster45206/cyber-quest/pkg/catalog"
	"github.com/jwebster45206/cyber-quest/pkg/game"
	"github.com/jwebster45206/cyber-quest/pkg/ranking"
	"github.com/jwebster45206/cyber-quest/pkg/state"
	"github.com/jwebster45206/cyber-quest/pkg/storage"
	"github.com/jwebster45206/cyber-quest/pkg/story"
)

func testServer(t *testing.T) *httptest.Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
	cat, err := catalog.Default()
	require.NoError(t, err)

	board := ranking.NewBoard(ranking.NewMemoryStore(), logger)
	engine := game.NewEngine(story.NewGenerator(cat, logger, story.DefaultConfig()), board, logger)
	store := storage.NewMockStorage()

	mux := http.NewServeMux()
	mux.Handle("/health", handlers.NewHealthHandler(store, cat, logger))
	sessions := handlers.NewSessionHandler(engine, store, nil, logger)
	mux.Handle("/v1/sessions", sessions)
	mux.Handle("/v1/sessions/", sessions)
	mux.Handle("/v1/rankings", handlers.NewRankingHandler(board, 10, logger))

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestAPI_FullGame(t *testing.T) {
	srv := testServer(t)
	client := srv.Client()

	require.True(t, testConnection(client, srv.URL))

	seed := uint64(21)
	s, err := createSession(client, srv.URL, handlers.CreateSessionRequest{PlayerName: "trinity", Role: "defender", Seed: &seed})
	require.NoError(t, err)
	require.NotNil(t, s.Stage)

	got, err := getSession(client, srv.URL, s.ID)
	require.NoError(t, err)
	assert.Equal(t, s.ID, got.ID)

	var last *handlers.TurnResponse
	for i := 0; i < story.MaxStages; i++ {
		last, err = playTurn(client, srv.URL, s.ID, 0)
		require.NoError(t, err)
		if last.Result.Terminal {
			break
		}
	}
	require.True(t, last.Result.Terminal)

	_, err = playTurn(client, srv.URL, s.ID, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Session has ended")

	rows, err := getRankings(client, srv.URL, 5)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Trinity", rows[0].Player)
}

func TestAPI_Errors(t *testing.T) {
	srv := testServer(t)
	client := srv.Client()

	_, err := createSession(client, srv.URL, handlers.CreateSessionRequest{Role: "wizard"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown role")

	_, err = getSession(client, srv.URL, uuid.New())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Session not found")

	assert.False(t, testConnection(client, "http://127.0.0.1:1"))
}

func TestOptionKey(t *testing.T) {
	i, ok := optionKey("2", 3)
	assert.True(t, ok)
	assert.Equal(t, 1, i)

	for _, k := range []string{"0", "4", "a", "12", ""} {
		_, ok := optionKey(k, 3)
		assert.False(t, ok, k)
	}
}

func TestBar(t *testing.T) {
	assert.Equal(t, "░░░░░░░░░░", bar(0, 10))
	assert.Equal(t, "█████░░░░░", bar(50, 10))
	assert.Equal(t, "██████████", bar(150, 10))
	assert.Equal(t, "░░░░░░░░░░", bar(-5, 10))
}

func sampleSession() *handlers.SessionView {
	return &handlers.SessionView{
		ID:         uuid.New(),
		PlayerName: "Kate",
		Role:       catalog.RoleUser,
		RoleTitle:  "Office Employee",
		Scenario:   "Digital Survival at the Office",
		Goal:       "Protect your credentials",
		Status:     game.StatusActive,
		StageCount: 5,
		Human:      state.RunState{Progress: 20, Health: 100, Resources: 50},
		Opponents: []*game.Opponent{
			{Name: "Ethical Hacker AI", Role: catalog.RoleDefender, Difficulty: "medium", Run: &state.RunState{Progress: 15}},
		},
		Stage: &handlers.StageView{
			Index:       0,
			Phase:       catalog.PhaseEarly,
			Location:    "Desk",
			Description: "A strange email arrives.",
			Options: []handlers.OptionView{
				{Index: 0, Text: "Report it", Risk: catalog.RiskLow, Success: 80, Time: 1},
				{Index: 1, Text: "Click the link", Risk: catalog.RiskHigh, Success: 30, Time: 1},
			},
		},
	}
}

func TestFormatters(t *testing.T) {
	s := sampleSession()

	stage := formatStage(s.Stage, 60)
	assert.Contains(t, stage, "1) Report it")
	assert.Contains(t, stage, "2) Click the link")
	assert.Contains(t, stage, "Desk")

	meta := writeMetadata(s, 10)
	assert.Contains(t, meta, "Kate")
	assert.Contains(t, meta, "Ethical Hacker AI")
	assert.Contains(t, meta, "Turn 0 of 5")

	turn := formatTurn(&game.TurnResult{
		Success:     false,
		Roll:        90,
		Chance:      30,
		Text:        "The link was a trap.",
		GlobalEvent: &game.GlobalEvent{Summary: "Security audit"},
		Opponents:   []game.OpponentAction{{Name: "Cybercriminal AI", Skipped: true}},
		Line:        "Stay sharp.",
	})
	assert.Contains(t, turn, "FAILURE")
	assert.Contains(t, turn, "Security audit")
	assert.Contains(t, turn, "Cybercriminal AI waits.")
	assert.Contains(t, turn, "Stay sharp.")

	s.Outcome = game.OutcomeVictory
	s.Message = game.OutcomeVictory.Message("")
	s.Elapsed = 45
	s.Human.Progress = 100
	summary := summaryText(s)
	assert.Contains(t, summary, "Digital Survival at the Office")
	assert.Contains(t, summary, "Score: ")
	assert.Contains(t, summary, "45s")
	assert.NotContains(t, summary, "Choices:")

	s.Summary = &story.Summary{TotalChoices: 4, SuccessfulChoices: 3, SuccessRate: 75, FinalAlertLevel: 1, Outcome: "Moderate: threats detected and mitigated"}
	summary = summaryText(s)
	assert.Contains(t, summary, "Choices: 3 of 4 succeeded (75.0%)")
	assert.Contains(t, summary, "Alert level 1. Moderate: threats detected and mitigated")
	assert.Equal(t, "", summaryText(nil))
}

func TestConsoleUI_Flow(t *testing.T) {
	cfg := &ConsoleConfig{APIBaseURL: "http://unused", PlayerName: "kate"}
	var model tea.Model = NewConsoleUI(cfg, http.DefaultClient)

	model, _ = model.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	model, _ = model.Update(tea.KeyMsg{Type: tea.KeyDown})
	ui := model.(ConsoleUI)
	assert.Equal(t, 1, ui.selectedRole)
	assert.Contains(t, ui.View(), "Choose Your Role")

	model, cmd := model.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.True(t, model.(ConsoleUI).loading)

	s := sampleSession()
	model, _ = model.Update(sessionCreatedMsg{session: s})
	ui = model.(ConsoleUI)
	assert.Equal(t, screenGame, ui.screen)
	assert.False(t, ui.loading)

	model, cmd = model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("5")})
	assert.Nil(t, cmd)
	assert.False(t, model.(ConsoleUI).loading)

	model, cmd = model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("1")})
	require.NotNil(t, cmd)
	ui = model.(ConsoleUI)
	assert.True(t, ui.loading)
	require.Len(t, ui.log, 1)

	ended := *s
	ended.Status = game.StatusEnded
	ended.Stage = nil
	ended.Outcome = game.OutcomeTimeOut
	ended.Message = game.OutcomeTimeOut.Message("")
	model, cmd = model.Update(turnMsg{resp: &handlers.TurnResponse{
		Result:  &game.TurnResult{Turn: 1, Terminal: true, Outcome: game.OutcomeTimeOut},
		Session: ended,
	}})
	require.NotNil(t, cmd)
	ui = model.(ConsoleUI)
	assert.Equal(t, screenEnd, ui.screen)
	assert.Len(t, ui.log, 2)

	model, _ = model.Update(rankingsMsg{rows: []handlers.RankingRow{{Rank: 1, Entry: ranking.Entry{Player: "Neo", Score: 9000}, Time: "20s"}}})
	view := model.View()
	assert.Contains(t, view, "Mission Failed")
	assert.Contains(t, view, "Neo")

	model, _ = model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("n")})
	ui = model.(ConsoleUI)
	assert.Equal(t, screenSetup, ui.screen)
	assert.Nil(t, ui.session)
}

func TestConsoleUI_TurnError(t *testing.T) {
	var model tea.Model = NewConsoleUI(&ConsoleConfig{}, http.DefaultClient)
	model, _ = model.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	model, _ = model.Update(sessionCreatedMsg{session: sampleSession()})
	model, _ = model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("2")})
	model, _ = model.Update(turnMsg{err: assert.AnError})

	ui := model.(ConsoleUI)
	assert.False(t, ui.loading)
	assert.Empty(t, ui.log)
	assert.Equal(t, assert.AnError, ui.err)
}

func TestConsoleUI_QuitModal(t *testing.T) {
	var model tea.Model = NewConsoleUI(&ConsoleConfig{}, http.DefaultClient)
	model, _ = model.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	model, _ = model.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.True(t, model.(ConsoleUI).showQuitModal)
	assert.Contains(t, model.View(), "Quit Game?")

	model, _ = model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("n")})
	assert.False(t, model.(ConsoleUI).showQuitModal)
}
