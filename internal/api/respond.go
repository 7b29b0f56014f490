package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/MikeSquared-Agency/Carpool/internal/broker"
	"github.com/MikeSquared-Agency/Carpool/internal/matching"
)

type errorResponse struct {
	Error       string `json:"error"`
	CandidateID string `json:"candidate_id,omitempty"`
	Field       string `json:"field,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeBadRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: msg})
}

func writeFieldError(w http.ResponseWriter, field string, err error) {
	writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error(), Field: field})
}

// writeError maps engine and broker errors onto status codes.
func writeError(w http.ResponseWriter, err error) {
	var verr *matching.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Error:       verr.Error(),
			CandidateID: verr.CandidateID,
			Field:       verr.Field,
		})
	case errors.Is(err, broker.ErrRiderNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "rider not found"})
	default:
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
	}
}
