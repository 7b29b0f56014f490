// Package ranking arranges a recommendation set for display. The matching
// engine emits candidates in input order; anything that reorders or buckets
// them lives here.
package ranking

import (
	"math"
	"sort"

	"github.com/MikeSquared-Agency/Carpool/internal/matching"
)

// MatchGroups buckets a set by the radius that admitted each member.
type MatchGroups struct {
	Home matching.RecommendationSet `json:"home"`
	Work matching.RecommendationSet `json:"work"`
	Both matching.RecommendationSet `json:"both"`
}

// RoleGroups buckets a set by display role.
type RoleGroups struct {
	Drivers    matching.RecommendationSet `json:"drivers"`
	Passengers matching.RecommendationSet `json:"passengers"`
}

// Summary counts a set for headers and badges.
type Summary struct {
	Total        int `json:"total"`
	HomeOnly     int `json:"home_only"`
	WorkOnly     int `json:"work_only"`
	Both         int `json:"both"`
	Drivers      int `json:"drivers"`
	Passengers   int `json:"passengers"`
	OfferedSeats int `json:"offered_seats"`
}

func GroupByMatch(set matching.RecommendationSet) MatchGroups {
	g := MatchGroups{
		Home: matching.RecommendationSet{},
		Work: matching.RecommendationSet{},
		Both: matching.RecommendationSet{},
	}
	for _, r := range set {
		switch r.Match {
		case matching.MatchHome:
			g.Home = append(g.Home, r)
		case matching.MatchWork:
			g.Work = append(g.Work, r)
		case matching.MatchBoth:
			g.Both = append(g.Both, r)
		}
	}
	return g
}

func GroupByRole(set matching.RecommendationSet) RoleGroups {
	g := RoleGroups{
		Drivers:    matching.RecommendationSet{},
		Passengers: matching.RecommendationSet{},
	}
	for _, r := range set {
		if r.DisplayRole == matching.DisplayDriver {
			g.Drivers = append(g.Drivers, r)
		} else {
			g.Passengers = append(g.Passengers, r)
		}
	}
	return g
}

// SortByNearest returns a copy ordered by the closer of the two distances.
// Ties keep set order.
func SortByNearest(set matching.RecommendationSet) matching.RecommendationSet {
	out := append(matching.RecommendationSet{}, set...)
	sort.SliceStable(out, func(i, j int) bool {
		return nearest(out[i].Candidate) < nearest(out[j].Candidate)
	})
	return out
}

func nearest(c matching.Candidate) float64 {
	return math.Min(c.HomeDistanceKm, c.WorkDistanceKm)
}

func Summarize(set matching.RecommendationSet) Summary {
	s := Summary{Total: len(set)}
	for _, r := range set {
		switch r.Match {
		case matching.MatchHome:
			s.HomeOnly++
		case matching.MatchWork:
			s.WorkOnly++
		case matching.MatchBoth:
			s.Both++
		}
		switch role := r.Candidate.Role().(type) {
		case matching.Driver:
			s.Drivers++
			s.OfferedSeats += role.Seats
		case matching.Passenger:
			s.Passengers++
		}
	}
	return s
}
