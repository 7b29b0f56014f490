package api

import (
	"net/http"

	"github.com/MikeSquared-Agency/Carpool/internal/store"
)

type StatsHandler struct {
	store store.Store
}

func NewStatsHandler(s store.Store) *StatsHandler {
	return &StatsHandler{store: s}
}

func (h *StatsHandler) Get(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.GetStats(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
