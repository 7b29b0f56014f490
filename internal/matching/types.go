package matching

// DefaultPassengerRadiusKm is the fixed search radius applied to both home and
// work for riders in passenger-only mode.
const DefaultPassengerRadiusKm = 3.0

// RiderProfile is the evaluating rider's commute preferences.
// HomeRadiusKm and WorkRadiusKm are ignored when PassengerOnly is set.
type RiderProfile struct {
	PassengerOnly bool    `json:"is_passenger_only"`
	HomeRadiusKm  float64 `json:"home_radius_km"`
	WorkRadiusKm  float64 `json:"work_radius_km"`
}

// Vehicle describes a candidate's car.
type Vehicle struct {
	Label string `json:"label"`
	Seats int    `json:"seats"`
}

// Candidate is another user evaluated for match eligibility. Distances are
// precomputed relative to the rider's home and work.
type Candidate struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	HomeDistanceKm float64  `json:"home_distance_km"`
	WorkDistanceKm float64  `json:"work_distance_km"`
	HasVehicle     bool     `json:"has_vehicle"`
	Vehicle        *Vehicle `json:"vehicle,omitempty"`
	JoinedDaysAgo  *int     `json:"joined_days_ago,omitempty"`
}

// clone copies the candidate along with its Vehicle and JoinedDaysAgo
// pointees so results never alias caller input.
func (c Candidate) clone() Candidate {
	if c.Vehicle != nil {
		v := *c.Vehicle
		c.Vehicle = &v
	}
	if c.JoinedDaysAgo != nil {
		d := *c.JoinedDaysAgo
		c.JoinedDaysAgo = &d
	}
	return c
}

// Role returns Driver when the candidate has a vehicle, Passenger otherwise.
func (c Candidate) Role() Role {
	if c.HasVehicle && c.Vehicle != nil {
		return Driver{Seats: c.Vehicle.Seats}
	}
	return Passenger{}
}

// Role is either Driver or Passenger.
type Role interface {
	isRole()
}

// Driver offers seats.
type Driver struct {
	Seats int
}

// Passenger has no vehicle.
type Passenger struct{}

func (Driver) isRole()    {}
func (Passenger) isRole() {}

type DisplayRole string

const (
	DisplayDriver    DisplayRole = "driver"
	DisplayPassenger DisplayRole = "passenger"
)

// RoleOf maps a role variant to its display tag.
func RoleOf(r Role) DisplayRole {
	switch r.(type) {
	case Driver:
		return DisplayDriver
	default:
		return DisplayPassenger
	}
}

// RadiusMatch records which radius admitted a candidate.
type RadiusMatch string

const (
	MatchHome RadiusMatch = "home"
	MatchWork RadiusMatch = "work"
	MatchBoth RadiusMatch = "both"
)

func radiusMatch(withinHome, withinWork bool) RadiusMatch {
	switch {
	case withinHome && withinWork:
		return MatchBoth
	case withinHome:
		return MatchHome
	default:
		return MatchWork
	}
}

// Recommendation is one eligible candidate annotated for the UI.
type Recommendation struct {
	Candidate   Candidate   `json:"candidate"`
	WithinHome  bool        `json:"within_home"`
	WithinWork  bool        `json:"within_work"`
	Match       RadiusMatch `json:"match"`
	DisplayRole DisplayRole `json:"display_role"`
}

// RecommendationSet holds eligible candidates in input order.
type RecommendationSet []Recommendation

// IDs returns the candidate IDs in set order.
func (s RecommendationSet) IDs() []string {
	ids := make([]string, len(s))
	for i, r := range s {
		ids[i] = r.Candidate.ID
	}
	return ids
}
