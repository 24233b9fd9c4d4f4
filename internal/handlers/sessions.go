package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/jwebster45206/cyber-quest/internal/logger"
	"github.com/jwebster45206/cyber-quest/pkg/actor"
	"github.com/jwebster45206/cyber-quest/pkg/catalog"
	"github.com/jwebster45206/cyber-quest/pkg/game"
	"github.com/jwebster45206/cyber-quest/pkg/state"
	"github.com/jwebster45206/cyber-quest/pkg/storage"
	"github.com/jwebster45206/cyber-quest/pkg/story"
)

// CreateSessionRequest starts a game. When Accessories is omitted the
// player's stored loadout for the role is used.
type CreateSessionRequest struct {
	PlayerName  string               `json:"player_name"`
	Role        string               `json:"role"`
	Opponents   []game.OpponentSetup `json:"opponents,omitempty"`
	Seed        *uint64              `json:"seed,omitempty"`
	Accessories []string             `json:"accessories,omitempty"`
}

// TurnRequest picks an option of the current stage by index.
type TurnRequest struct {
	Option *int `json:"option"`
}

type OptionView struct {
	Index   int          `json:"index"`
	Text    string       `json:"text"`
	Risk    catalog.Risk `json:"risk"`
	Success int          `json:"success"`
	Time    int          `json:"time"`
}

type StageView struct {
	Index       int           `json:"index"`
	Phase       catalog.Phase `json:"phase"`
	Location    string        `json:"location"`
	Description string        `json:"description"`
	Options     []OptionView  `json:"options"`
}

// SessionView is the client-facing state of a session. Stages after the
// current one stay hidden.
type SessionView struct {
	ID         uuid.UUID        `json:"id"`
	PlayerName string           `json:"player_name"`
	Role       catalog.Role     `json:"role"`
	RoleTitle  string           `json:"role_title"`
	Scenario   string           `json:"scenario"`
	Goal       string           `json:"goal"`
	Status     game.Status      `json:"status"`
	Turn       int              `json:"turn"`
	StageCount int              `json:"stage_count"`
	Stage      *StageView       `json:"stage,omitempty"`
	Human      state.RunState   `json:"human"`
	Narrative  state.Narrative  `json:"narrative"`
	Opponents  []*game.Opponent `json:"opponents"`
	Effects    []game.Effect    `json:"effects"`
	Modifiers  actor.Modifiers  `json:"modifiers"`
	Outcome    game.OutcomeKind `json:"outcome,omitempty"`
	Winner     string           `json:"winner,omitempty"`
	Message    string           `json:"message,omitempty"`
	Summary    *story.Summary   `json:"summary,omitempty"`
	Elapsed    float64          `json:"elapsed_seconds"`
	Seed       uint64           `json:"seed"`
}

type TurnResponse struct {
	Result  *game.TurnResult `json:"result"`
	Session SessionView      `json:"session"`
}

func newSessionView(s *game.Session) SessionView {
	v := SessionView{
		ID:         s.ID,
		PlayerName: s.PlayerName,
		Role:       s.Role,
		RoleTitle:  s.Role.Title(),
		Scenario:   s.Story.Scenario.Name,
		Goal:       s.Story.Goal,
		Status:     s.Status,
		Turn:       s.Turn,
		StageCount: s.Story.Len(),
		Human:      *s.Human,
		Narrative:  s.Story.Narrative,
		Opponents:  s.Opponents,
		Effects:    s.Effects,
		Modifiers:  s.Modifiers(),
		Outcome:    s.Outcome,
		Winner:     s.Winner,
		Elapsed:    s.Elapsed().Seconds(),
		Seed:       s.Seed,
	}
	if s.Outcome != "" {
		v.Message = s.Outcome.Message(s.Winner)
	}
	if s.Status == game.StatusEnded {
		sum := s.Story.Summary()
		v.Summary = &sum
	}
	if st, ok := s.CurrentStage(); ok && s.Status != game.StatusEnded {
		sv := &StageView{
			Index:       st.Index,
			Phase:       st.Phase,
			Location:    st.Location,
			Description: st.Description,
		}
		for i, o := range st.Options {
			sv.Options = append(sv.Options, OptionView{Index: i, Text: o.Text, Risk: o.Risk, Success: o.Success, Time: o.Time})
		}
		v.Stage = sv
	}
	return v
}

// SessionPublisher announces session activity to watchers.
type SessionPublisher interface {
	PublishSessionStarted(ctx context.Context, sessionID uuid.UUID, player, role string, stages int) error
	PublishTurnResolved(ctx context.Context, sessionID uuid.UUID, turn int, choice string, success bool, progress int) error
	PublishSessionEnded(ctx context.Context, sessionID uuid.UUID, outcome, winner, message string) error
}

type SessionHandler struct {
	engine    *game.Engine
	storage   storage.Storage
	publisher SessionPublisher
	logger    *slog.Logger

	// One lock per session keeps concurrent turns from overwriting each
	// other's snapshot.
	locks sync.Map
}

// NewSessionHandler builds the session routes. publisher may be nil.
func NewSessionHandler(engine *game.Engine, storage storage.Storage, publisher SessionPublisher, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{
		engine:    engine,
		storage:   storage,
		publisher: publisher,
		logger:    logger,
	}
}

// ServeHTTP routes:
// POST   /v1/sessions           - Create and start a session
// GET    /v1/sessions/{id}      - Read a session
// POST   /v1/sessions/{id}/turn - Play one turn
// DELETE /v1/sessions/{id}      - Abandon a session
func (h *SessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	log := requestLogger(h.logger, r)

	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/sessions"), "/")
	if path == "" {
		if r.Method != http.MethodPost {
			writeError(log, w, http.StatusMethodNotAllowed, "Method not allowed. Supported methods: POST")
			return
		}
		h.handleCreate(w, r, log)
		return
	}

	idStr, action, _ := strings.Cut(path, "/")
	id, err := uuid.Parse(idStr)
	if err != nil {
		log.Warn("Invalid session ID", "id", idStr, "error", err)
		writeError(log, w, http.StatusBadRequest, "Invalid session ID format")
		return
	}
	log = logger.WithSession(log, id.String())

	switch {
	case action == "turn" && r.Method == http.MethodPost:
		h.handleTurn(w, r, log, id)
	case action == "" && r.Method == http.MethodGet:
		h.handleRead(w, r, log, id)
	case action == "" && r.Method == http.MethodDelete:
		h.handleDelete(w, r, log, id)
	case action != "" && action != "turn":
		writeError(log, w, http.StatusNotFound, "Not found")
	default:
		writeError(log, w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (h *SessionHandler) handleCreate(w http.ResponseWriter, r *http.Request, log *slog.Logger) {
	var req CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Warn("Invalid create session request", "error", err)
		writeError(log, w, http.StatusBadRequest, "Invalid JSON in request body")
		return
	}

	role, err := catalog.ParseRole(req.Role)
	if err != nil {
		writeError(log, w, http.StatusBadRequest, err.Error())
		return
	}

	accessories := req.Accessories
	if accessories == nil && strings.TrimSpace(req.PlayerName) != "" {
		stored, err := h.storage.LoadLoadout(r.Context(), req.PlayerName, role)
		if err != nil {
			log.Warn("Failed to load stored loadout", "player", req.PlayerName, "error", err)
		} else if stored != nil {
			accessories = stored.Accessories
		}
	}

	s, err := h.engine.NewSession(r.Context(), game.Setup{
		PlayerName:  req.PlayerName,
		Role:        role,
		Opponents:   req.Opponents,
		Seed:        req.Seed,
		Accessories: accessories,
	})
	if err != nil {
		if errors.Is(err, game.ErrInvalidSetup) || errors.Is(err, story.ErrInvalidCharacter) {
			writeError(log, w, http.StatusBadRequest, err.Error())
			return
		}
		log.Error("Failed to create session", "error", err)
		writeError(log, w, http.StatusInternalServerError, "Failed to create session")
		return
	}
	if err := s.Start(); err != nil {
		log.Error("Failed to start session", "error", err)
		writeError(log, w, http.StatusInternalServerError, "Failed to start session")
		return
	}

	if !h.save(w, r, log, s) {
		return
	}
	log.Info("Session started", "session_id", s.ID.String(), "role", role, "player", s.PlayerName)
	if h.publisher != nil {
		if err := h.publisher.PublishSessionStarted(r.Context(), s.ID, s.PlayerName, string(role), s.Story.Len()); err != nil {
			log.Warn("Failed to publish session start", "error", err)
		}
	}
	writeJSON(log, w, http.StatusCreated, newSessionView(s))
}

func (h *SessionHandler) handleRead(w http.ResponseWriter, r *http.Request, log *slog.Logger, id uuid.UUID) {
	s, ok := h.load(w, r, log, id)
	if !ok {
		return
	}
	writeJSON(log, w, http.StatusOK, newSessionView(s))
}

func (h *SessionHandler) handleTurn(w http.ResponseWriter, r *http.Request, log *slog.Logger, id uuid.UUID) {
	var req TurnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Option == nil {
		writeError(log, w, http.StatusBadRequest, "Request body must be {\"option\": <index>}")
		return
	}

	mu, _ := h.locks.LoadOrStore(id, &sync.Mutex{})
	mu.(*sync.Mutex).Lock()
	defer mu.(*sync.Mutex).Unlock()

	s, ok := h.load(w, r, log, id)
	if !ok {
		return
	}

	if s.Status != game.StatusActive {
		writeError(log, w, http.StatusConflict, "Session has ended")
		return
	}

	res, err := s.Choose(r.Context(), *req.Option)
	switch {
	case errors.Is(err, game.ErrNotActive):
		writeError(log, w, http.StatusConflict, "Session has ended")
		return
	case errors.Is(err, game.ErrUnknownOption):
		writeError(log, w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		log.Error("Failed to process turn", "error", err)
		writeError(log, w, http.StatusInternalServerError, "Failed to process turn")
		return
	}

	if !h.save(w, r, log, s) {
		return
	}
	h.announce(r, log, id, res)
	if res.ReportErr != nil {
		logger.WithError(log, res.ReportErr).Warn("Result not recorded on the leaderboard")
	}
	if res.Terminal {
		h.locks.Delete(id)
		log.Info("Session ended", "outcome", res.Outcome, "winner", res.Winner, "turns", res.Turn)
	}
	writeJSON(log, w, http.StatusOK, TurnResponse{Result: res, Session: newSessionView(s)})
}

func (h *SessionHandler) announce(r *http.Request, log *slog.Logger, id uuid.UUID, res *game.TurnResult) {
	if h.publisher == nil {
		return
	}
	if err := h.publisher.PublishTurnResolved(r.Context(), id, res.Turn, res.Choice, res.Success, res.Human.Progress); err != nil {
		log.Warn("Failed to publish turn", "error", err)
		return
	}
	if res.Terminal {
		if err := h.publisher.PublishSessionEnded(r.Context(), id, string(res.Outcome), res.Winner, res.Message); err != nil {
			log.Warn("Failed to publish session end", "error", err)
		}
	}
}

func (h *SessionHandler) handleDelete(w http.ResponseWriter, r *http.Request, log *slog.Logger, id uuid.UUID) {
	if err := h.storage.DeleteSession(r.Context(), id); err != nil {
		log.Error("Failed to delete session", "error", err)
		writeError(log, w, http.StatusInternalServerError, "Failed to delete session")
		return
	}
	h.locks.Delete(id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *SessionHandler) load(w http.ResponseWriter, r *http.Request, log *slog.Logger, id uuid.UUID) (*game.Session, bool) {
	snap, err := h.storage.LoadSession(r.Context(), id)
	if err != nil {
		log.Error("Failed to load session", "error", err)
		writeError(log, w, http.StatusInternalServerError, "Failed to load session")
		return nil, false
	}
	if snap == nil {
		writeError(log, w, http.StatusNotFound, "Session not found")
		return nil, false
	}
	s, err := h.engine.Resume(snap)
	if err != nil {
		log.Error("Failed to resume session", "error", err)
		writeError(log, w, http.StatusInternalServerError, "Failed to resume session")
		return nil, false
	}
	return s, true
}

func (h *SessionHandler) save(w http.ResponseWriter, r *http.Request, log *slog.Logger, s *game.Session) bool {
	snap, err := s.Snapshot()
	if err == nil {
		err = h.storage.SaveSession(r.Context(), snap)
	}
	if err != nil {
		log.Error("Failed to save session", "error", err)
		writeError(log, w, http.StatusInternalServerError, "Failed to save session")
		return false
	}
	return true
}
