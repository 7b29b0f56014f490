package matching

import (
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func driver(id string, home, work float64, seats int) Candidate {
	return Candidate{
		ID: id, Name: "driver " + id,
		HomeDistanceKm: home, WorkDistanceKm: work,
		HasVehicle: true, Vehicle: &Vehicle{Label: "Toyota Camry", Seats: seats},
	}
}

func passenger(id string, home, work float64) Candidate {
	return Candidate{ID: id, Name: "passenger " + id, HomeDistanceKm: home, WorkDistanceKm: work}
}

// samplePool mirrors the nearby list shown on the home screen.
func samplePool() []Candidate {
	return []Candidate{
		driver("1", 2.3, 1.5, 3),
		passenger("2", 3.1, 2.9),
		driver("3", 1.5, 0.9, 2),
		driver("4", 5.2, 3.7, 4),
		driver("5", 1.8, 1.8, 1),
		driver("6", 2.9, 2.9, 3),
		passenger("7", 3.7, 0.8),
		driver("8", 0.9, 0.9, 2),
	}
}

func TestFilterNearby_DriverProfileScenario(t *testing.T) {
	profile := RiderProfile{HomeRadiusKm: 2, WorkRadiusKm: 1}
	pool := []Candidate{driver("1", 2.3, 1.5, 3), driver("3", 1.5, 0.9, 2)}

	set, err := FilterNearby(profile, pool)
	require.NoError(t, err)
	require.Len(t, set, 1)

	r := set[0]
	assert.Equal(t, "3", r.Candidate.ID)
	assert.True(t, r.WithinHome)
	assert.True(t, r.WithinWork)
	assert.Equal(t, MatchBoth, r.Match)
	assert.Equal(t, DisplayDriver, r.DisplayRole)
}

func TestFilterNearby_PassengerOnlyExcludesNonDrivers(t *testing.T) {
	profile := RiderProfile{PassengerOnly: true}

	set, err := FilterNearby(profile, []Candidate{passenger("2", 3.1, 2.9)})
	require.NoError(t, err)
	assert.Empty(t, set)

	set, err = FilterNearby(profile, []Candidate{passenger("z", 0, 0)})
	require.NoError(t, err)
	assert.Empty(t, set, "no-vehicle candidate must be excluded even at distance 0")
}

func TestFilterNearby_PassengerOnlyIgnoresProfileRadii(t *testing.T) {
	// Radii of 0 would exclude everything if they were applied.
	profile := RiderProfile{PassengerOnly: true, HomeRadiusKm: 0, WorkRadiusKm: 0}

	set, err := FilterNearby(profile, samplePool())
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "3", "5", "6", "8"}, set.IDs())
	for _, r := range set {
		assert.Equal(t, DisplayDriver, r.DisplayRole)
	}
}

func TestFilterNearby_DriverSeesPassengers(t *testing.T) {
	profile := RiderProfile{HomeRadiusKm: 2, WorkRadiusKm: 1}

	set, err := FilterNearby(profile, samplePool())
	require.NoError(t, err)
	assert.Equal(t, []string{"3", "5", "7", "8"}, set.IDs())

	byID := map[string]Recommendation{}
	for _, r := range set {
		byID[r.Candidate.ID] = r
	}
	assert.Equal(t, MatchHome, byID["5"].Match)
	assert.Equal(t, MatchWork, byID["7"].Match)
	assert.Equal(t, DisplayPassenger, byID["7"].DisplayRole)
	assert.Equal(t, MatchBoth, byID["8"].Match)
}

func TestFilterNearby_InclusiveBoundary(t *testing.T) {
	profile := RiderProfile{HomeRadiusKm: 2, WorkRadiusKm: 0}
	eps := 1e-9

	set, err := FilterNearby(profile, []Candidate{
		passenger("on-edge", 2, 5),
		passenger("past-edge", 2+eps, 5),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"on-edge"}, set.IDs())
}

func TestFilterNearby_ZeroHomeDistanceAlwaysIncluded(t *testing.T) {
	radii := []float64{0, 0.5, 1, 3}
	for _, home := range radii {
		for _, work := range radii {
			profile := RiderProfile{HomeRadiusKm: home, WorkRadiusKm: work}
			set, err := FilterNearby(profile, []Candidate{passenger("a", 0, 100)})
			require.NoError(t, err)
			assert.Len(t, set, 1, "home=%v work=%v", home, work)
		}
	}
}

func TestFilterNearby_NegativeDistancesAreValid(t *testing.T) {
	set, err := FilterNearby(RiderProfile{HomeRadiusKm: 1, WorkRadiusKm: 1}, []Candidate{passenger("neg", -0.5, 9)})
	require.NoError(t, err)
	assert.Equal(t, []string{"neg"}, set.IDs())
}

func TestFilterNearby_NonPositiveRadiiAreLegal(t *testing.T) {
	profile := RiderProfile{HomeRadiusKm: -1, WorkRadiusKm: 0}
	set, err := FilterNearby(profile, []Candidate{
		passenger("a", 0.1, 0.1),
		passenger("b", 0.5, 0),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, set.IDs())
}

func TestFilterNearby_EmptyPool(t *testing.T) {
	profiles := []RiderProfile{
		{PassengerOnly: true},
		{HomeRadiusKm: 3, WorkRadiusKm: 3},
	}
	for _, p := range profiles {
		set, err := FilterNearby(p, nil)
		require.NoError(t, err)
		assert.NotNil(t, set)
		assert.Empty(t, set)
	}
}

func TestFilterNearby_SubsetPreservesOrder(t *testing.T) {
	pool := samplePool()
	set, err := FilterNearby(RiderProfile{HomeRadiusKm: 3, WorkRadiusKm: 3}, pool)
	require.NoError(t, err)

	pos := map[string]int{}
	for i, c := range pool {
		pos[c.ID] = i
	}
	last := -1
	for _, r := range set {
		i, ok := pos[r.Candidate.ID]
		require.True(t, ok, "%s not in pool", r.Candidate.ID)
		assert.Greater(t, i, last)
		last = i
	}
}

func TestFilterNearby_Idempotent(t *testing.T) {
	profile := RiderProfile{HomeRadiusKm: 2, WorkRadiusKm: 2}
	pool := samplePool()

	first, err := FilterNearby(profile, pool)
	require.NoError(t, err)
	second, err := FilterNearby(profile, pool)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestFilterNearby_DoesNotMutateInput(t *testing.T) {
	pool := samplePool()
	orig := samplePool()
	_, err := FilterNearby(RiderProfile{PassengerOnly: true}, pool)
	require.NoError(t, err)
	assert.Equal(t, orig, pool)
}

func TestFilterNearby_ResultDoesNotAliasInput(t *testing.T) {
	pool := samplePool()
	pool[7].JoinedDaysAgo = intPtr(4)

	set, err := FilterNearby(RiderProfile{PassengerOnly: true}, pool)
	require.NoError(t, err)
	require.NotEmpty(t, set)

	last := &set[len(set)-1].Candidate
	require.Equal(t, "8", last.ID)
	last.Vehicle.Seats = 99
	*last.JoinedDaysAgo = 40

	assert.Equal(t, 2, pool[7].Vehicle.Seats)
	assert.Equal(t, 4, *pool[7].JoinedDaysAgo)
}

func TestFilterNearby_ValidationIsAtomic(t *testing.T) {
	pool := samplePool()
	pool = append(pool, Candidate{ID: "bad", HasVehicle: true})

	set, err := FilterNearby(RiderProfile{HomeRadiusKm: 3, WorkRadiusKm: 3}, pool)
	require.Error(t, err)
	assert.Nil(t, set)
	assert.True(t, errors.Is(err, ErrValidation))

	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "bad", ve.CandidateID)
	assert.Equal(t, "vehicle", ve.Field)
}

func TestFilterNearby_RejectsNaNRadius(t *testing.T) {
	_, err := FilterNearby(RiderProfile{HomeRadiusKm: math.NaN()}, nil)
	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "home_radius_km", ve.Field)
}

func TestEngine_CustomPassengerRadius(t *testing.T) {
	e, err := NewEngine(WithPassengerRadius(1))
	require.NoError(t, err)
	assert.Equal(t, 1.0, e.PassengerRadiusKm())

	set, err := e.FilterNearby(RiderProfile{PassengerOnly: true}, samplePool())
	require.NoError(t, err)
	assert.Equal(t, []string{"3", "8"}, set.IDs())
}

func TestNewEngine_RejectsNegativeRadius(t *testing.T) {
	_, err := NewEngine(WithPassengerRadius(-1))
	assert.ErrorIs(t, err, ErrValidation)

	_, err = NewEngine(WithPassengerRadius(math.NaN()))
	assert.ErrorIs(t, err, ErrValidation)
}

func TestFilterNearby_ConcurrentCallers(t *testing.T) {
	pool := samplePool()
	want, err := FilterNearby(RiderProfile{HomeRadiusKm: 2, WorkRadiusKm: 1}, pool)
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make(chan RecommendationSet, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			set, err := FilterNearby(RiderProfile{HomeRadiusKm: 2, WorkRadiusKm: 1}, pool)
			if err == nil {
				results <- set
			}
		}()
	}
	wg.Wait()
	close(results)

	n := 0
	for got := range results {
		assert.Equal(t, want, got)
		n++
	}
	assert.Equal(t, 8, n)
}

func TestFilterRecent(t *testing.T) {
	pool := []Candidate{
		{ID: "9", HomeDistanceKm: 2.1, WorkDistanceKm: 3.5, HasVehicle: true, Vehicle: &Vehicle{Seats: 2}},
		{ID: "10", HomeDistanceKm: 4.8, WorkDistanceKm: 1.2},
		{ID: "12", HomeDistanceKm: 6.2, WorkDistanceKm: 5.5},
		{ID: "edge", HomeDistanceKm: 5, WorkDistanceKm: 9},
	}

	got, err := FilterRecent(pool, 5)
	require.NoError(t, err)

	ids := make([]string, len(got))
	for i, c := range got {
		ids[i] = c.ID
	}
	assert.Equal(t, []string{"9", "10", "edge"}, ids)
}

func TestFilterRecent_EmptyAndInvalid(t *testing.T) {
	got, err := FilterRecent(nil, 5)
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = FilterRecent(nil, -1)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = FilterRecent([]Candidate{{ID: "a"}, {ID: "a"}}, 5)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestFilterNewUsers(t *testing.T) {
	pool := []Candidate{
		{ID: "9", HomeDistanceKm: 2.1, WorkDistanceKm: 3.5, JoinedDaysAgo: intPtr(2)},
		{ID: "13", HomeDistanceKm: 3.9, WorkDistanceKm: 4.1, JoinedDaysAgo: intPtr(30)},
		{ID: "12", HomeDistanceKm: 6.2, WorkDistanceKm: 5.5, JoinedDaysAgo: intPtr(1)},
		{ID: "unknown", HomeDistanceKm: 1, WorkDistanceKm: 1},
	}

	got, err := FilterNewUsers(pool, 5, 7)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "9", got[0].ID)

	_, err = FilterNewUsers(pool, 5, -1)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestFilterNewUsers_ResultDoesNotAliasInput(t *testing.T) {
	pool := []Candidate{driver("1", 1, 1, 3)}
	pool[0].JoinedDaysAgo = intPtr(1)

	got, err := FilterNewUsers(pool, 5, 7)
	require.NoError(t, err)
	require.Len(t, got, 1)
	got[0].Vehicle.Seats = 7
	*got[0].JoinedDaysAgo = 9

	assert.Equal(t, 3, pool[0].Vehicle.Seats)
	assert.Equal(t, 1, *pool[0].JoinedDaysAgo)
}
