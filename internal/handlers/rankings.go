package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/jwebster45206/cyber-quest/pkg/ranking"
)

// Ranker reads the leaderboard.
type Ranker interface {
	Top(ctx context.Context, limit int) ([]ranking.Entry, error)
}

type RankingRow struct {
	Rank int `json:"rank"`
	ranking.Entry
	Time  string `json:"time"`
	Level int    `json:"level"`
}

type RankingResponse struct {
	Entries []RankingRow `json:"entries"`
}

type RankingHandler struct {
	ranker       Ranker
	defaultLimit int
	logger       *slog.Logger
}

func NewRankingHandler(ranker Ranker, defaultLimit int, logger *slog.Logger) *RankingHandler {
	return &RankingHandler{ranker: ranker, defaultLimit: defaultLimit, logger: logger}
}

// ServeHTTP handles GET /v1/rankings?limit=N.
func (h *RankingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	log := requestLogger(h.logger, r)

	if r.Method != http.MethodGet {
		writeError(log, w, http.StatusMethodNotAllowed, "Method not allowed. Supported methods: GET")
		return
	}

	limit := h.defaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > ranking.MaxEntries {
			writeError(log, w, http.StatusBadRequest, "limit must be between 1 and "+strconv.Itoa(ranking.MaxEntries))
			return
		}
		limit = n
	}

	entries, err := h.ranker.Top(r.Context(), limit)
	if err != nil {
		log.Error("Failed to read rankings", "error", err)
		writeError(log, w, http.StatusServiceUnavailable, "Rankings are unavailable")
		return
	}

	resp := RankingResponse{Entries: make([]RankingRow, 0, len(entries))}
	for i, e := range entries {
		resp.Entries = append(resp.Entries, RankingRow{
			Rank:  i + 1,
			Entry: e,
			Time:  ranking.FormatElapsed(time.Duration(e.Seconds * float64(time.Second))),
			Level: ranking.Level(e.Score),
		})
	}
	writeJSON(log, w, http.StatusOK, resp)
}
