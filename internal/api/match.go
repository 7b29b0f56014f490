package api

import (
	"encoding/json"
	"net/http"

	"github.com/MikeSquared-Agency/Carpool/internal/broker"
	"github.com/MikeSquared-Agency/Carpool/internal/matching"
)

// MatchHandler evaluates caller-supplied pools without touching storage.
type MatchHandler struct {
	broker *broker.Broker
}

func NewMatchHandler(b *broker.Broker) *MatchHandler {
	return &MatchHandler{broker: b}
}

type NearbyRequest struct {
	Profile    matching.RiderProfile `json:"profile"`
	Candidates []matching.Candidate  `json:"candidates"`
}

type RecentRequest struct {
	Candidates    []matching.Candidate `json:"candidates"`
	MaxDistanceKm *float64             `json:"max_distance_km"`
}

func (h *MatchHandler) Nearby(w http.ResponseWriter, r *http.Request) {
	var req NearbyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	set, err := h.broker.Evaluate(req.Profile, req.Candidates)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, set)
}

func (h *MatchHandler) Recent(w http.ResponseWriter, r *http.Request) {
	var req RecentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	if req.MaxDistanceKm == nil {
		writeBadRequest(w, "max_distance_km required")
		return
	}
	out, err := h.broker.EvaluateRecent(req.Candidates, *req.MaxDistanceKm)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
