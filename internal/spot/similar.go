package spot

import "math"

const (
	defaultNameThreshold = 0.6
	defaultMaxDistanceKm = 0.5

	earthRadiusKm = 6371.0
)

// Matcher decides whether two candidates denote the same real-world place.
//
// The check is an approximate heuristic: distinct adjacent venues with
// near-identical names can merge, and one venue listed under differently
// worded names can slip through. Both are accepted tradeoffs.
type Matcher struct {
	// NameThreshold is the exclusive lower bound on name similarity.
	NameThreshold float64
	// MaxDistanceKm is the exclusive upper bound on great-circle distance,
	// applied only when both candidates carry coordinates.
	MaxDistanceKm float64
}

// NewMatcher returns a Matcher with the default thresholds (0.6, 0.5km).
func NewMatcher() *Matcher {
	return &Matcher{
		NameThreshold: defaultNameThreshold,
		MaxDistanceKm: defaultMaxDistanceKm,
	}
}

// Similar reports whether a and b denote the same place. When either side
// lacks coordinates the decision falls back to name similarity alone.
func (m *Matcher) Similar(a, b Candidate) bool {
	sim := nameRatio(a.Name, b.Name)

	if a.HasCoordinates() && b.HasCoordinates() {
		dist := Haversine(*a.Latitude, *a.Longitude, *b.Latitude, *b.Longitude)
		return sim > m.NameThreshold && dist < m.MaxDistanceKm
	}

	return sim > m.NameThreshold
}

// nameRatio is a symmetric similarity ratio in [0,1] computed over runes:
// 2*LCS(a,b) / (len(a)+len(b)). Identical strings score 1.0.
func nameRatio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 && len(rb) == 0 {
		return 1
	}
	if len(ra) == 0 || len(rb) == 0 {
		return 0
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for i := 1; i <= len(ra); i++ {
		for j := 1; j <= len(rb); j++ {
			switch {
			case ra[i-1] == rb[j-1]:
				curr[j] = prev[j-1] + 1
			case prev[j] >= curr[j-1]:
				curr[j] = prev[j]
			default:
				curr[j] = curr[j-1]
			}
		}
		prev, curr = curr, prev
	}

	lcs := prev[len(rb)]
	return 2 * float64(lcs) / float64(len(ra)+len(rb))
}

// Haversine returns the great-circle distance in kilometres between two
// lat/lng points on a sphere of radius 6371km.
func Haversine(lat1, lng1, lat2, lng2 float64) float64 {
	rlat1 := lat1 * math.Pi / 180
	rlat2 := lat2 * math.Pi / 180
	dlat := (lat2 - lat1) * math.Pi / 180
	dlng := (lng2 - lng1) * math.Pi / 180

	a := math.Sin(dlat/2)*math.Sin(dlat/2) +
		math.Cos(rlat1)*math.Cos(rlat2)*math.Sin(dlng/2)*math.Sin(dlng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}
