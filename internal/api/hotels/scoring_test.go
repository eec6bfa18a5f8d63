package hotels

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-travel-planner/internal/types"
)

func TestWeights_Validate(t *testing.T) {
	t.Run("defaults are valid", func(t *testing.T) {
		assert.NoError(t, DefaultWeights().Validate())
	})

	t.Run("rejects negative weights", func(t *testing.T) {
		w := Weights{Location: -0.1, Review: 0.5, Price: 0.5, Stars: 0.1}
		assert.Error(t, w.Validate())
	})

	t.Run("rejects weights that do not sum to one", func(t *testing.T) {
		w := Weights{Location: 0.5, Review: 0.5, Price: 0.5, Stars: 0.5}
		assert.Error(t, w.Validate())
	})
}

func TestScoreCandidates(t *testing.T) {
	t.Run("cheapest closest best-reviewed hotel scores highest", func(t *testing.T) {
		candidates := []types.HotelCandidate{
			{Name: "Winner", Price: 90, AvgDistanceKm: 0.5, ReviewScore: 9.5, Stars: 4},
			{Name: "Middle", Price: 150, AvgDistanceKm: 2.0, ReviewScore: 8.0, Stars: 4},
			{Name: "Loser", Price: 300, AvgDistanceKm: 6.0, ReviewScore: 6.5, Stars: 3},
		}
		scoreCandidates(candidates, DefaultWeights())

		assert.Greater(t, candidates[0].ValueScore, candidates[1].ValueScore)
		assert.Greater(t, candidates[1].ValueScore, candidates[2].ValueScore)
		for _, c := range candidates {
			assert.GreaterOrEqual(t, c.ValueScore, 0.0)
			assert.LessOrEqual(t, c.ValueScore, 1.0)
		}
	})

	t.Run("degenerate axis awards full marks instead of dividing by zero", func(t *testing.T) {
		candidates := []types.HotelCandidate{
			{Name: "A", Price: 100, AvgDistanceKm: 1.0, ReviewScore: 8.0},
			{Name: "B", Price: 100, AvgDistanceKm: 1.0, ReviewScore: 8.0},
		}
		scoreCandidates(candidates, DefaultWeights())

		assert.Equal(t, candidates[0].ValueScore, candidates[1].ValueScore)
		assert.False(t, candidates[0].ValueScore != candidates[0].ValueScore, "score must not be NaN")
	})

	t.Run("empty set is a no-op", func(t *testing.T) {
		scoreCandidates(nil, DefaultWeights())
	})
}

func TestRanking(t *testing.T) {
	candidates := []types.HotelCandidate{
		{Name: "Cheap Far", Price: 80, AvgDistanceKm: 5.0, ReviewScore: 7.2, Stars: 3, ValueScore: 0.61},
		{Name: "Near Pricey", Price: 260, AvgDistanceKm: 0.4, ReviewScore: 8.9, Stars: 5, ValueScore: 0.64},
		{Name: "Balanced", Price: 140, AvgDistanceKm: 1.2, ReviewScore: 8.4, Stars: 4, ValueScore: 0.78},
	}

	t.Run("by location avg distance is non-decreasing", func(t *testing.T) {
		ranked := rankByLocation(candidates)
		for i := 1; i < len(ranked); i++ {
			assert.GreaterOrEqual(t, ranked[i].AvgDistanceKm, ranked[i-1].AvgDistanceKm)
		}
		assert.Equal(t, "Near Pricey", ranked[0].Name)
	})

	t.Run("by value score is non-increasing", func(t *testing.T) {
		ranked := rankByValue(candidates)
		for i := 1; i < len(ranked); i++ {
			assert.LessOrEqual(t, ranked[i].ValueScore, ranked[i-1].ValueScore)
		}
		assert.Equal(t, "Balanced", ranked[0].Name)
	})

	t.Run("by quality breaks review ties on stars then price", func(t *testing.T) {
		tied := []types.HotelCandidate{
			{Name: "B", ReviewScore: 8.5, Stars: 4, Price: 120},
			{Name: "A", ReviewScore: 8.5, Stars: 5, Price: 200},
			{Name: "C", ReviewScore: 8.5, Stars: 4, Price: 100},
		}
		ranked := rankByQuality(tied)
		require.Len(t, ranked, 3)
		assert.Equal(t, "A", ranked[0].Name)
		assert.Equal(t, "C", ranked[1].Name)
		assert.Equal(t, "B", ranked[2].Name)
	})

	t.Run("ranking does not mutate its input", func(t *testing.T) {
		before := candidates[0].Name
		_ = rankByValue(candidates)
		assert.Equal(t, before, candidates[0].Name)
	})

	t.Run("identical input ranks identically", func(t *testing.T) {
		first := rankByValue(candidates)
		second := rankByValue(candidates)
		assert.Equal(t, first, second)
	})
}
