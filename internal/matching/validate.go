package matching

import "math"

// ValidateProfile rejects malformed numbers. Non-positive radii are legal:
// they only make the predicate stricter.
func ValidateProfile(p RiderProfile) error {
	if math.IsNaN(p.HomeRadiusKm) {
		return invalid("", "home_radius_km", "must be a number")
	}
	if math.IsNaN(p.WorkRadiusKm) {
		return invalid("", "work_radius_km", "must be a number")
	}
	return nil
}

// ValidateCandidates checks every candidate in the pool and fails on the first
// malformed one. Negative distances are accepted.
func ValidateCandidates(candidates []Candidate) error {
	seen := make(map[string]struct{}, len(candidates))
	for _, c := range candidates {
		if c.ID == "" {
			return invalid("", "id", "must not be empty")
		}
		if _, dup := seen[c.ID]; dup {
			return invalid(c.ID, "id", "duplicate in pool")
		}
		seen[c.ID] = struct{}{}

		if math.IsNaN(c.HomeDistanceKm) {
			return invalid(c.ID, "home_distance_km", "must be a number")
		}
		if math.IsNaN(c.WorkDistanceKm) {
			return invalid(c.ID, "work_distance_km", "must be a number")
		}
		if c.HasVehicle && c.Vehicle == nil {
			return invalid(c.ID, "vehicle", "required when has_vehicle is true")
		}
		if !c.HasVehicle && c.Vehicle != nil {
			return invalid(c.ID, "vehicle", "present but has_vehicle is false")
		}
		if c.Vehicle != nil && c.Vehicle.Seats < 1 {
			return invalid(c.ID, "vehicle.seats", "must be at least 1")
		}
		if c.JoinedDaysAgo != nil && *c.JoinedDaysAgo < 0 {
			return invalid(c.ID, "joined_days_ago", "must not be negative")
		}
	}
	return nil
}

func validateLimit(field string, v float64) error {
	if math.IsNaN(v) {
		return invalid("", field, "must be a number")
	}
	if v < 0 {
		return invalid("", field, "must not be negative")
	}
	return nil
}
