package ranking

import "github.com/MikeSquared-Agency/Carpool/internal/matching"

// NearestFrontier returns the Pareto-nearest members of the set, in set order.
// A member is dominated if another member is <= on both home and work distance
// and strictly closer on at least one.
// O(n^2) dominance check, fine for a single rider's directory.
func NearestFrontier(set matching.RecommendationSet) matching.RecommendationSet {
	if len(set) <= 1 {
		return append(matching.RecommendationSet{}, set...)
	}

	frontier := matching.RecommendationSet{}
	for i := range set {
		dominated := false
		for j := range set {
			if i == j {
				continue
			}
			if dominates(set[j].Candidate, set[i].Candidate) {
				dominated = true
				break
			}
		}
		if !dominated {
			frontier = append(frontier, set[i])
		}
	}
	return frontier
}

// dominates returns true if a is at least as close as b to both endpoints and
// strictly closer to one.
func dominates(a, b matching.Candidate) bool {
	if a.HomeDistanceKm > b.HomeDistanceKm || a.WorkDistanceKm > b.WorkDistanceKm {
		return false
	}
	return a.HomeDistanceKm < b.HomeDistanceKm || a.WorkDistanceKm < b.WorkDistanceKm
}
