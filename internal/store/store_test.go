package store

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikeSquared-Agency/Carpool/internal/matching"
)

func TestEvaluationKindValues(t *testing.T) {
	kinds := []EvaluationKind{KindNearby, KindRecent, KindDigest}
	expected := []string{"nearby", "recent", "digest"}
	for i, k := range kinds {
		if string(k) != expected[i] {
			t.Errorf("expected %s, got %s", expected[i], k)
		}
	}
}

func TestRiderProfile(t *testing.T) {
	r := &Rider{ID: uuid.New(), PassengerOnly: false, HomeRadiusKm: 2, WorkRadiusKm: 1, VehicleLabel: "Honda CLS", Seats: 3}
	assert.Equal(t, matching.RiderProfile{HomeRadiusKm: 2, WorkRadiusKm: 1}, r.Profile())

	r.PassengerOnly = true
	assert.True(t, r.Profile().PassengerOnly)
}

func TestDirectoryEntryCandidate(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	joined := now.Add(-50 * time.Hour)

	driver := &DirectoryEntry{
		CandidateID: "1", Name: "Sarah Johnson",
		HomeDistanceKm: 2.3, WorkDistanceKm: 1.5,
		HasVehicle: true, VehicleLabel: "Honda CLS", Seats: 3,
		JoinedAt: &joined,
	}
	c := driver.Candidate(now)
	require.NotNil(t, c.Vehicle)
	assert.Equal(t, "Honda CLS", c.Vehicle.Label)
	assert.Equal(t, 3, c.Vehicle.Seats)
	require.NotNil(t, c.JoinedDaysAgo)
	assert.Equal(t, 2, *c.JoinedDaysAgo)

	passenger := &DirectoryEntry{CandidateID: "2", HomeDistanceKm: 3.1, WorkDistanceKm: 2.9}
	c = passenger.Candidate(now)
	assert.Nil(t, c.Vehicle)
	assert.Nil(t, c.JoinedDaysAgo)
	assert.False(t, c.HasVehicle)
}

func TestDirectoryEntryCandidateClampsFutureJoin(t *testing.T) {
	now := time.Now()
	future := now.Add(48 * time.Hour)
	c := (&DirectoryEntry{CandidateID: "x", JoinedAt: &future}).Candidate(now)
	require.NotNil(t, c.JoinedDaysAgo)
	assert.Equal(t, 0, *c.JoinedDaysAgo)
}

func TestCandidatesKeepsOrder(t *testing.T) {
	entries := []*DirectoryEntry{
		{CandidateID: "b"}, {CandidateID: "a"}, {CandidateID: "c"},
	}
	got := Candidates(entries, time.Now())
	require.Len(t, got, 3)
	assert.Equal(t, "b", got[0].ID)
	assert.Equal(t, "a", got[1].ID)
	assert.Equal(t, "c", got[2].ID)
}

func TestPoolKey(t *testing.T) {
	id := uuid.MustParse("6f1c2d4e-0000-4000-8000-000000000001")
	assert.Equal(t, "carpool:pool:6f1c2d4e-0000-4000-8000-000000000001", poolKey(id))
}
