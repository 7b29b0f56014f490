package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/Carpool/internal/matching"
)

// ErrRiderNotFound is returned by writes that target a rider row that does not
// exist.
var ErrRiderNotFound = errors.New("rider not found")

// Rider is a user's stored commute settings.
type Rider struct {
	ID            uuid.UUID `json:"rider_id"`
	Name          string    `json:"name"`
	PassengerOnly bool      `json:"is_passenger_only"`
	HomeRadiusKm  float64   `json:"home_radius_km"`
	WorkRadiusKm  float64   `json:"work_radius_km"`
	VehicleLabel  string    `json:"vehicle_label,omitempty"`
	Seats         int       `json:"seats,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Profile returns the engine input for this rider.
func (r *Rider) Profile() matching.RiderProfile {
	return matching.RiderProfile{
		PassengerOnly: r.PassengerOnly,
		HomeRadiusKm:  r.HomeRadiusKm,
		WorkRadiusKm:  r.WorkRadiusKm,
	}
}

// DirectoryEntry is one candidate in a rider's directory, with distances
// already computed relative to that rider's home and work.
type DirectoryEntry struct {
	RiderID        uuid.UUID  `json:"rider_id"`
	CandidateID    string     `json:"candidate_id"`
	Name           string     `json:"name"`
	HomeDistanceKm float64    `json:"home_distance_km"`
	WorkDistanceKm float64    `json:"work_distance_km"`
	HasVehicle     bool       `json:"has_vehicle"`
	VehicleLabel   string     `json:"vehicle_label,omitempty"`
	Seats          int        `json:"seats,omitempty"`
	JoinedAt       *time.Time `json:"joined_at,omitempty"`
	Position       int64      `json:"position"`
}

// Candidate converts the entry to an engine candidate. JoinedDaysAgo is
// measured in whole days before now.
func (e *DirectoryEntry) Candidate(now time.Time) matching.Candidate {
	c := matching.Candidate{
		ID:             e.CandidateID,
		Name:           e.Name,
		HomeDistanceKm: e.HomeDistanceKm,
		WorkDistanceKm: e.WorkDistanceKm,
		HasVehicle:     e.HasVehicle,
	}
	if e.HasVehicle {
		c.Vehicle = &matching.Vehicle{Label: e.VehicleLabel, Seats: e.Seats}
	}
	if e.JoinedAt != nil {
		days := int(now.Sub(*e.JoinedAt).Hours() / 24)
		if days < 0 {
			days = 0
		}
		c.JoinedDaysAgo = &days
	}
	return c
}

// Candidates converts a directory in order.
func Candidates(entries []*DirectoryEntry, now time.Time) []matching.Candidate {
	out := make([]matching.Candidate, len(entries))
	for i, e := range entries {
		out[i] = e.Candidate(now)
	}
	return out
}

type EvaluationKind string

const (
	KindNearby EvaluationKind = "nearby"
	KindRecent EvaluationKind = "recent"
	KindDigest EvaluationKind = "digest"
)

// Evaluation is an audit row for one engine run against a stored directory.
type Evaluation struct {
	ID             uuid.UUID      `json:"id"`
	RiderID        uuid.UUID      `json:"rider_id"`
	Kind           EvaluationKind `json:"kind"`
	CandidateCount int            `json:"candidate_count"`
	MatchCount     int            `json:"match_count"`
	CreatedAt      time.Time      `json:"created_at"`
}

type Stats struct {
	Riders           int     `json:"riders"`
	DirectoryEntries int     `json:"directory_entries"`
	Evaluations      int     `json:"evaluations"`
	AvgMatchCount    float64 `json:"avg_match_count"`
}

type RiderFilter struct {
	PassengerOnly *bool
	Limit         int
	Offset        int
}

type Store interface {
	CreateRider(ctx context.Context, r *Rider) error
	GetRider(ctx context.Context, id uuid.UUID) (*Rider, error)
	UpdateRider(ctx context.Context, r *Rider) error
	ListRiders(ctx context.Context, filter RiderFilter) ([]*Rider, error)

	ListDirectory(ctx context.Context, riderID uuid.UUID) ([]*DirectoryEntry, error)
	UpsertDirectoryEntry(ctx context.Context, e *DirectoryEntry) error
	DeleteDirectoryEntry(ctx context.Context, riderID uuid.UUID, candidateID string) error

	RecordEvaluation(ctx context.Context, e *Evaluation) error
	GetStats(ctx context.Context) (*Stats, error)

	Close() error
}
