package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFirstReviewOfNewCafe(t *testing.T) {
	snap := Snapshot{ReviewCount: 0, Amenities: map[string]float64{}}

	out := ComputeReviewOutcome(snap, map[string]float64{"wifi": 8})

	assert.Equal(t, 15, out.EarnedPoints, "base 10 + discovery bonus 5")
	assert.Equal(t, 1, out.ReviewCount)
	assert.Equal(t, 8.0, out.Amenities["wifi"], "first review stores the raw score, no phantom zero blended in")
}

func TestConsensusBonusAwardedWithinRange(t *testing.T) {
	snap := Snapshot{ReviewCount: 1, Amenities: map[string]float64{"wifi": 8.0}}

	out := ComputeReviewOutcome(snap, map[string]float64{"wifi": 9})

	assert.Equal(t, 15, out.EarnedPoints)
	assert.Equal(t, 2, out.ReviewCount)
	assert.Equal(t, 8.5, out.Amenities["wifi"])
}

func TestNoBonusOutsideConsensusRange(t *testing.T) {
	snap := Snapshot{ReviewCount: 2, Amenities: map[string]float64{"wifi": 8.5}}

	out := ComputeReviewOutcome(snap, map[string]float64{"wifi": 2})

	assert.Equal(t, 10, out.EarnedPoints, "disagreement only withholds the bonus")
	assert.Equal(t, 3, out.ReviewCount)
	assert.Equal(t, 6.3, out.Amenities["wifi"], "(8.5*2 + 2)/3 rounded to one decimal")
}

func TestUnratedKeyOnExistingCafeBlendsWithZero(t *testing.T) {
	// Cafe has reviews, but nobody rated noise before. The prior
	// defaults to 0, and no bonus fires because there is no consensus
	// to agree with.
	snap := Snapshot{ReviewCount: 4, Amenities: map[string]float64{"wifi": 7.0}}

	out := ComputeReviewOutcome(snap, map[string]float64{"noise": 10})

	assert.Equal(t, 10, out.EarnedPoints)
	assert.Equal(t, 2.0, out.Amenities["noise"], "(0*4 + 10)/5")
	assert.Equal(t, 7.0, out.Amenities["wifi"], "untouched keys carry over")
}

func TestEmptyRatingsStillEarnBaseAndIncrementCount(t *testing.T) {
	snap := Snapshot{ReviewCount: 3, Amenities: map[string]float64{"wifi": 6.0}}

	out := ComputeReviewOutcome(snap, map[string]float64{})

	assert.Equal(t, 10, out.EarnedPoints)
	assert.Equal(t, 4, out.ReviewCount)
	assert.Equal(t, map[string]float64{"wifi": 6.0}, out.Amenities)
}

func TestMultipleAmenitiesMixedBonuses(t *testing.T) {
	snap := Snapshot{
		ReviewCount: 2,
		Amenities:   map[string]float64{"wifi": 8.0, "noise": 3.0},
	}

	out := ComputeReviewOutcome(snap, map[string]float64{
		"wifi":    7, // within 2 of 8.0 -> bonus
		"noise":   9, // 6 away from 3.0 -> no bonus
		"comfort": 5, // unrated key -> no bonus
	})

	assert.Equal(t, 15, out.EarnedPoints)
	assert.Equal(t, 7.7, out.Amenities["wifi"], "(8*2 + 7)/3 = 7.666... -> 7.7")
	assert.Equal(t, 5.0, out.Amenities["noise"], "(3*2 + 9)/3")
	assert.Equal(t, 1.7, out.Amenities["comfort"], "(0*2 + 5)/3 = 1.666... -> 1.7")
}

func TestNewCafeBonusAppliesToEveryKey(t *testing.T) {
	snap := Snapshot{ReviewCount: 0, Amenities: nil}

	ratings := map[string]float64{
		"wifi": 8, "outlet": 7, "comfort": 6,
		"hygiene": 9, "quality": 8, "noise": 5, "service": 7,
	}
	out := ComputeReviewOutcome(snap, ratings)

	assert.Equal(t, BasePoints+BonusPoints*len(ratings), out.EarnedPoints)
	for key, score := range ratings {
		assert.Equal(t, score, out.Amenities[key])
	}
}

func TestPointsBoundedBySubmittedKeys(t *testing.T) {
	snap := Snapshot{ReviewCount: 5, Amenities: map[string]float64{"wifi": 5.0}}

	ratings := map[string]float64{"wifi": 5, "noise": 5}
	out := ComputeReviewOutcome(snap, ratings)

	assert.LessOrEqual(t, out.EarnedPoints, BasePoints+BonusPoints*len(ratings))
	assert.GreaterOrEqual(t, out.EarnedPoints, BasePoints)
}

func TestInputsAreNotMutated(t *testing.T) {
	amenities := map[string]float64{"wifi": 8.0}
	snap := Snapshot{ReviewCount: 1, Amenities: amenities}
	ratings := map[string]float64{"wifi": 9, "noise": 4}

	out := ComputeReviewOutcome(snap, ratings)

	require.NotNil(t, out.Amenities)
	assert.Equal(t, map[string]float64{"wifi": 8.0}, amenities, "snapshot map must stay untouched")
	assert.Equal(t, map[string]float64{"wifi": 9, "noise": 4}, ratings)
}

func TestRecurrenceHoldsAfterUnrounding(t *testing.T) {
	// newAvg*newCount must equal oldAvg*oldCount + score within
	// one-decimal rounding tolerance.
	snap := Snapshot{ReviewCount: 7, Amenities: map[string]float64{"quality": 6.4}}

	out := ComputeReviewOutcome(snap, map[string]float64{"quality": 9})

	got := out.Amenities["quality"] * float64(out.ReviewCount)
	want := snap.Amenities["quality"]*float64(snap.ReviewCount) + 9
	assert.InDelta(t, want, got, 0.05*float64(out.ReviewCount))
}

func TestDeterministic(t *testing.T) {
	snap := Snapshot{ReviewCount: 3, Amenities: map[string]float64{"wifi": 7.2, "service": 4.9}}
	ratings := map[string]float64{"wifi": 6, "service": 7}

	first := ComputeReviewOutcome(snap, ratings)
	second := ComputeReviewOutcome(snap, ratings)

	assert.Equal(t, first, second)
}
