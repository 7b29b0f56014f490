package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/Carpool/internal/broker"
	"github.com/MikeSquared-Agency/Carpool/internal/config"
	"github.com/MikeSquared-Agency/Carpool/internal/matching"
	"github.com/MikeSquared-Agency/Carpool/internal/ranking"
	"github.com/MikeSquared-Agency/Carpool/internal/store"
)

type RidersHandler struct {
	store  store.Store
	broker *broker.Broker
	limits config.MatchingConfig
}

func NewRidersHandler(s store.Store, b *broker.Broker, limits config.MatchingConfig) *RidersHandler {
	return &RidersHandler{store: s, broker: b, limits: limits}
}

type RiderRequest struct {
	Name          string  `json:"name"`
	PassengerOnly bool    `json:"is_passenger_only"`
	HomeRadiusKm  float64 `json:"home_radius_km"`
	WorkRadiusKm  float64 `json:"work_radius_km"`
	VehicleLabel  string  `json:"vehicle_label,omitempty"`
	Seats         int     `json:"seats,omitempty"`
}

type DirectoryEntryRequest struct {
	Name           string     `json:"name"`
	HomeDistanceKm float64    `json:"home_distance_km"`
	WorkDistanceKm float64    `json:"work_distance_km"`
	HasVehicle     bool       `json:"has_vehicle"`
	VehicleLabel   string     `json:"vehicle_label,omitempty"`
	Seats          int        `json:"seats,omitempty"`
	JoinedAt       *time.Time `json:"joined_at,omitempty"`
}

// checkLimits applies the profile screen's ranges. Passenger-only riders
// search with the fixed passenger radius, so theirs are not checked.
func (h *RidersHandler) checkLimits(w http.ResponseWriter, req RiderRequest) bool {
	if req.PassengerOnly {
		return true
	}
	if err := h.limits.CheckRadius("home_radius_km", req.HomeRadiusKm); err != nil {
		writeFieldError(w, "home_radius_km", err)
		return false
	}
	if err := h.limits.CheckRadius("work_radius_km", req.WorkRadiusKm); err != nil {
		writeFieldError(w, "work_radius_km", err)
		return false
	}
	if err := h.limits.CheckSeats(req.Seats); err != nil {
		writeFieldError(w, "seats", err)
		return false
	}
	return true
}

func (h *RidersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req RiderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	if req.Name == "" {
		writeBadRequest(w, "name required")
		return
	}
	if !h.checkLimits(w, req) {
		return
	}

	rider := &store.Rider{}
	applyRiderRequest(rider, req)
	if err := h.store.CreateRider(r.Context(), rider); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rider)
}

func (h *RidersHandler) Get(w http.ResponseWriter, r *http.Request) {
	rider, ok := h.loadRider(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, rider)
}

func (h *RidersHandler) Update(w http.ResponseWriter, r *http.Request) {
	rider, ok := h.loadRider(w, r)
	if !ok {
		return
	}
	var req RiderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	if req.Name == "" {
		req.Name = rider.Name
	}
	if !h.checkLimits(w, req) {
		return
	}

	applyRiderRequest(rider, req)
	if err := h.broker.UpdateRider(r.Context(), rider); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rider)
}

func (h *RidersHandler) PutEntry(w http.ResponseWriter, r *http.Request) {
	rider, ok := h.loadRider(w, r)
	if !ok {
		return
	}
	candidateID := chi.URLParam(r, "candidate_id")
	var req DirectoryEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	entry := &store.DirectoryEntry{
		RiderID:        rider.ID,
		CandidateID:    candidateID,
		Name:           req.Name,
		HomeDistanceKm: req.HomeDistanceKm,
		WorkDistanceKm: req.WorkDistanceKm,
		HasVehicle:     req.HasVehicle,
		JoinedAt:       req.JoinedAt,
	}
	if req.HasVehicle {
		entry.VehicleLabel = req.VehicleLabel
		entry.Seats = req.Seats
	}
	if err := matching.ValidateCandidates([]matching.Candidate{entry.Candidate(time.Now())}); err != nil {
		writeError(w, err)
		return
	}

	if err := h.broker.PutDirectoryEntry(r.Context(), entry); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (h *RidersHandler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	rider, ok := h.loadRider(w, r)
	if !ok {
		return
	}
	if err := h.broker.RemoveDirectoryEntry(r.Context(), rider.ID, chi.URLParam(r, "candidate_id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Nearby returns the rider's recommendations. ?sort=nearest orders by the
// closer of the two distances, ?sort=frontier keeps only the Pareto-nearest,
// and ?group=match|role buckets the result.
func (h *RidersHandler) Nearby(w http.ResponseWriter, r *http.Request) {
	id, ok := riderID(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	group := q.Get("group")
	if group != "" && group != "match" && group != "role" {
		writeBadRequest(w, "group must be match or role")
		return
	}
	sortBy := q.Get("sort")
	if sortBy != "" && sortBy != "nearest" && sortBy != "frontier" {
		writeBadRequest(w, "sort must be nearest or frontier")
		return
	}

	set, err := h.broker.Nearby(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	switch sortBy {
	case "nearest":
		set = ranking.SortByNearest(set)
	case "frontier":
		set = ranking.NearestFrontier(set)
	}

	switch group {
	case "match":
		writeJSON(w, http.StatusOK, ranking.GroupByMatch(set))
	case "role":
		writeJSON(w, http.StatusOK, ranking.GroupByRole(set))
	default:
		writeJSON(w, http.StatusOK, set)
	}
}

func (h *RidersHandler) NearbySummary(w http.ResponseWriter, r *http.Request) {
	id, ok := riderID(w, r)
	if !ok {
		return
	}
	set, err := h.broker.Nearby(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ranking.Summarize(set))
}

func (h *RidersHandler) Recent(w http.ResponseWriter, r *http.Request) {
	id, ok := riderID(w, r)
	if !ok {
		return
	}
	out, err := h.broker.Recent(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *RidersHandler) loadRider(w http.ResponseWriter, r *http.Request) (*store.Rider, bool) {
	id, ok := riderID(w, r)
	if !ok {
		return nil, false
	}
	rider, err := h.store.GetRider(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return nil, false
	}
	if rider == nil {
		writeError(w, broker.ErrRiderNotFound)
		return nil, false
	}
	return rider, true
}

func riderID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeBadRequest(w, "invalid rider id")
		return uuid.Nil, false
	}
	return id, true
}

func applyRiderRequest(rider *store.Rider, req RiderRequest) {
	rider.Name = req.Name
	rider.PassengerOnly = req.PassengerOnly
	rider.HomeRadiusKm = req.HomeRadiusKm
	rider.WorkRadiusKm = req.WorkRadiusKm
	rider.VehicleLabel = ""
	rider.Seats = 0
	if !req.PassengerOnly {
		rider.VehicleLabel = req.VehicleLabel
		rider.Seats = req.Seats
	}
}
