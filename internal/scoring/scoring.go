// Package scoring computes the points earned by a submitted review and
// the incremental per-amenity averages for a cafe. It is pure: no I/O,
// no clock, no storage. Callers feed it a snapshot and get values back.
package scoring

import "math"

const (
	// BasePoints is the flat reward for any accepted submission.
	BasePoints = 10
	// BonusPoints is awarded per amenity when the reviewer either
	// pioneers a new cafe or lands within ConsensusRange of the
	// existing average.
	BonusPoints = 5
	// ConsensusRange is the maximum distance from the current average
	// that still counts as agreeing with consensus.
	ConsensusRange = 2.0
)

// Snapshot is the cafe state read at the start of the review
// transaction. Amenities may be missing keys entirely, meaning the
// cafe has never been rated on that dimension.
type Snapshot struct {
	ReviewCount int
	Amenities   map[string]float64
}

// Outcome is what a single submission produces: the points the
// reviewer earned, the merged amenity averages and the new counter.
type Outcome struct {
	EarnedPoints int
	Amenities    map[string]float64
	ReviewCount  int
}

// ComputeReviewOutcome applies one review against a cafe snapshot.
//
// Every submission earns BasePoints. Each rated amenity earns
// BonusPoints when the cafe had no reviews yet, or when the score is
// within ConsensusRange of the stored average for that key. Averages
// are updated incrementally:
//
//	newAvg = (oldAvg*oldCount + score) / (oldCount + 1)
//
// where oldAvg defaults to 0 for a key the cafe has other reviews but
// no rating for. The very first review of a cafe stores raw scores.
// Stored averages are rounded to one decimal, half away from zero.
//
// Inputs are never mutated; unmentioned amenity keys carry over as-is.
func ComputeReviewOutcome(snap Snapshot, ratings map[string]float64) Outcome {
	isNewCafe := snap.ReviewCount == 0
	earned := BasePoints

	merged := make(map[string]float64, len(snap.Amenities)+len(ratings))
	for key, avg := range snap.Amenities {
		merged[key] = avg
	}

	for key, score := range ratings {
		prior, rated := snap.Amenities[key]

		if isNewCafe || (rated && math.Abs(score-prior) <= ConsensusRange) {
			earned += BonusPoints
		}

		if isNewCafe {
			merged[key] = roundScore(score)
			continue
		}
		next := (prior*float64(snap.ReviewCount) + score) / float64(snap.ReviewCount+1)
		merged[key] = roundScore(next)
	}

	return Outcome{
		EarnedPoints: earned,
		Amenities:    merged,
		ReviewCount:  snap.ReviewCount + 1,
	}
}

// roundScore keeps stored averages at one decimal place, rounding half
// away from zero.
func roundScore(v float64) float64 {
	return math.Round(v*10) / 10
}
