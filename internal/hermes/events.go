package hermes

import "time"

type RiderUpdatedEvent struct {
	RiderID       string  `json:"rider_id"`
	PassengerOnly bool    `json:"is_passenger_only"`
	HomeRadiusKm  float64 `json:"home_radius_km"`
	WorkRadiusKm  float64 `json:"work_radius_km"`
}

type NearbyEvaluatedEvent struct {
	RiderID        string   `json:"rider_id"`
	EvaluationID   string   `json:"evaluation_id,omitempty"`
	CandidateCount int      `json:"candidate_count"`
	MatchCount     int      `json:"match_count"`
	CandidateIDs   []string `json:"candidate_ids"`
}

type RecentEvaluatedEvent struct {
	RiderID        string   `json:"rider_id"`
	EvaluationID   string   `json:"evaluation_id,omitempty"`
	MaxDistanceKm  float64  `json:"max_distance_km"`
	CandidateCount int      `json:"candidate_count"`
	MatchCount     int      `json:"match_count"`
	CandidateIDs   []string `json:"candidate_ids"`
}

type NewUsersDigestEvent struct {
	RiderID          string    `json:"rider_id"`
	EvaluationID     string    `json:"evaluation_id,omitempty"`
	JoinedWithinDays int       `json:"joined_within_days"`
	CandidateIDs     []string  `json:"candidate_ids"`
	Timestamp        time.Time `json:"timestamp"`
}

// DirectoryUpsertEvent is published on SubjectDirectoryUpsert with distances
// already computed for the rider named in the subject.
type DirectoryUpsertEvent struct {
	CandidateID    string     `json:"candidate_id"`
	Name           string     `json:"name"`
	HomeDistanceKm float64    `json:"home_distance_km"`
	WorkDistanceKm float64    `json:"work_distance_km"`
	HasVehicle     bool       `json:"has_vehicle"`
	VehicleLabel   string     `json:"vehicle_label,omitempty"`
	Seats          int        `json:"seats,omitempty"`
	JoinedAt       *time.Time `json:"joined_at,omitempty"`
}
