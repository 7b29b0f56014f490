// Package matching decides which candidate users are nearby commute matches
// for a rider. It performs no I/O and keeps no state between calls.
package matching

// Engine evaluates candidate pools. The zero value is not usable; build one
// with NewEngine.
type Engine struct {
	passengerRadiusKm float64
}

type Option func(*Engine)

// WithPassengerRadius overrides DefaultPassengerRadiusKm.
func WithPassengerRadius(km float64) Option {
	return func(e *Engine) { e.passengerRadiusKm = km }
}

func NewEngine(opts ...Option) (*Engine, error) {
	e := &Engine{passengerRadiusKm: DefaultPassengerRadiusKm}
	for _, opt := range opts {
		opt(e)
	}
	if err := validateLimit("passenger_radius_km", e.passengerRadiusKm); err != nil {
		return nil, err
	}
	return e, nil
}

// PassengerRadiusKm returns the radius used for passenger-only riders.
func (e *Engine) PassengerRadiusKm() float64 {
	return e.passengerRadiusKm
}

var defaultEngine = &Engine{passengerRadiusKm: DefaultPassengerRadiusKm}

// FilterNearby runs the default engine.
func FilterNearby(profile RiderProfile, candidates []Candidate) (RecommendationSet, error) {
	return defaultEngine.FilterNearby(profile, candidates)
}

// FilterRecent runs the default engine.
func FilterRecent(candidates []Candidate, maxDistanceKm float64) ([]Candidate, error) {
	return defaultEngine.FilterRecent(candidates, maxDistanceKm)
}

// FilterNewUsers runs the default engine.
func FilterNewUsers(candidates []Candidate, maxDistanceKm float64, joinedWithinDays int) ([]Candidate, error) {
	return defaultEngine.FilterNewUsers(candidates, maxDistanceKm, joinedWithinDays)
}

func (e *Engine) effectiveRadii(p RiderProfile) (home, work float64) {
	if p.PassengerOnly {
		return e.passengerRadiusKm, e.passengerRadiusKm
	}
	return p.HomeRadiusKm, p.WorkRadiusKm
}

// FilterNearby returns the candidates within either the home or the work
// radius, in input order. A passenger-only rider only sees candidates with a
// vehicle. Input is validated in full before any filtering, so a
// ValidationError never comes with a partial result.
func (e *Engine) FilterNearby(profile RiderProfile, candidates []Candidate) (RecommendationSet, error) {
	if err := ValidateProfile(profile); err != nil {
		return nil, err
	}
	if err := ValidateCandidates(candidates); err != nil {
		return nil, err
	}

	homeRadius, workRadius := e.effectiveRadii(profile)
	set := RecommendationSet{}
	for _, c := range candidates {
		withinHome, withinWork := within(c, homeRadius, workRadius)
		if !withinHome && !withinWork {
			continue
		}
		if profile.PassengerOnly && !c.HasVehicle {
			continue
		}

		role := DisplayPassenger
		if c.HasVehicle {
			role = DisplayDriver
		}
		set = append(set, Recommendation{
			Candidate:   c.clone(),
			WithinHome:  withinHome,
			WithinWork:  withinWork,
			Match:       radiusMatch(withinHome, withinWork),
			DisplayRole: role,
		})
	}
	return set, nil
}

// FilterRecent keeps candidates within maxDistanceKm of home or work,
// regardless of vehicle ownership.
func (e *Engine) FilterRecent(candidates []Candidate, maxDistanceKm float64) ([]Candidate, error) {
	if err := validateLimit("max_distance_km", maxDistanceKm); err != nil {
		return nil, err
	}
	if err := ValidateCandidates(candidates); err != nil {
		return nil, err
	}

	out := []Candidate{}
	for _, c := range candidates {
		if withinHome, withinWork := within(c, maxDistanceKm, maxDistanceKm); withinHome || withinWork {
			out = append(out, c.clone())
		}
	}
	return out, nil
}

// FilterNewUsers narrows FilterRecent to candidates that joined at most
// joinedWithinDays ago. Candidates without a join age are skipped.
func (e *Engine) FilterNewUsers(candidates []Candidate, maxDistanceKm float64, joinedWithinDays int) ([]Candidate, error) {
	if joinedWithinDays < 0 {
		return nil, invalid("", "joined_within_days", "must not be negative")
	}
	recent, err := e.FilterRecent(candidates, maxDistanceKm)
	if err != nil {
		return nil, err
	}

	out := []Candidate{}
	for _, c := range recent {
		if c.JoinedDaysAgo != nil && *c.JoinedDaysAgo <= joinedWithinDays {
			out = append(out, c)
		}
	}
	return out, nil
}

// within compares inclusively.
func within(c Candidate, homeRadius, workRadius float64) (bool, bool) {
	return c.HomeDistanceKm <= homeRadius, c.WorkDistanceKm <= workRadius
}
