package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/jwebster45206/cyber-quest/pkg/actor"
	"github.com/jwebster45206/cyber-quest/pkg/catalog"
	"github.com/jwebster45206/cyber-quest/pkg/storage"
)

type LoadoutRequest struct {
	Accessories []string `json:"accessories"`
}

type LoadoutResponse struct {
	Player      string            `json:"player"`
	Role        catalog.Role      `json:"role"`
	Accessories []string          `json:"accessories"`
	Available   []actor.Accessory `json:"available"`
}

type LoadoutHandler struct {
	storage storage.Storage
	logger  *slog.Logger
}

func NewLoadoutHandler(storage storage.Storage, logger *slog.Logger) *LoadoutHandler {
	return &LoadoutHandler{storage: storage, logger: logger}
}

// ServeHTTP routes:
// GET /v1/loadouts/{player}/{role} - Stored loadout plus the role's accessories
// PUT /v1/loadouts/{player}/{role} - Replace the stored loadout
func (h *LoadoutHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	log := requestLogger(h.logger, r)

	rawPlayer, rawRole, ok := strings.Cut(strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/loadouts"), "/"), "/")
	player, err := url.PathUnescape(rawPlayer)
	if !ok || err != nil || strings.TrimSpace(player) == "" {
		writeError(log, w, http.StatusBadRequest, "Path must be /v1/loadouts/{player}/{role}")
		return
	}
	role, err := catalog.ParseRole(rawRole)
	if err != nil {
		writeError(log, w, http.StatusBadRequest, err.Error())
		return
	}

	switch r.Method {
	case http.MethodGet:
		l, err := h.storage.LoadLoadout(r.Context(), player, role)
		if err != nil {
			log.Error("Failed to load loadout", "player", player, "role", role, "error", err)
			writeError(log, w, http.StatusInternalServerError, "Failed to load loadout")
			return
		}
		var selected []string
		if l != nil {
			selected = l.Accessories
		}
		writeJSON(log, w, http.StatusOK, newLoadoutResponse(player, role, selected))

	case http.MethodPut:
		var req LoadoutRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(log, w, http.StatusBadRequest, "Invalid JSON in request body")
			return
		}
		l := actor.Loadout{Role: role, Accessories: normalize(req.Accessories)}
		if err := l.Validate(); err != nil {
			log.Debug("Rejected loadout", "player", player, "error", err)
			writeError(log, w, http.StatusBadRequest, err.Error())
			return
		}
		if err := h.storage.SaveLoadout(r.Context(), player, l); err != nil {
			log.Error("Failed to save loadout", "player", player, "role", role, "error", err)
			writeError(log, w, http.StatusInternalServerError, "Failed to save loadout")
			return
		}
		log.Info("Loadout saved", "player", player, "role", role, "accessories", l.Accessories)
		writeJSON(log, w, http.StatusOK, newLoadoutResponse(player, role, l.Accessories))

	default:
		writeError(log, w, http.StatusMethodNotAllowed, "Method not allowed. Supported methods: GET, PUT")
	}
}

func newLoadoutResponse(player string, role catalog.Role, selected []string) LoadoutResponse {
	if selected == nil {
		selected = []string{}
	}
	return LoadoutResponse{
		Player:      player,
		Role:        role,
		Accessories: selected,
		Available:   actor.Accessories(role),
	}
}

func normalize(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, strings.ToLower(strings.TrimSpace(id)))
	}
	return out
}
