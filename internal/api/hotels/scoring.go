package hotels

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/FACorreiaa/go-travel-planner/internal/api/geo"
	"github.com/FACorreiaa/go-travel-planner/internal/types"
)

// Weights control the value-score composite. Price and distance enter
// inverse-normalized (cheaper and closer score higher); review and star
// ratings enter on their natural 0-10 and 0-5 scales.
type Weights struct {
	Location float64 `mapstructure:"location"`
	Review   float64 `mapstructure:"review"`
	Price    float64 `mapstructure:"price"`
	Stars    float64 `mapstructure:"stars"`
}

// DefaultWeights favours proximity to the attractions first, then guest
// reviews, then price, with star class as a light tiebreaker.
func DefaultWeights() Weights {
	return Weights{Location: 0.35, Review: 0.30, Price: 0.25, Stars: 0.10}
}

// Validate rejects negative weights and sets that do not sum to 1.
func (w Weights) Validate() error {
	if w.Location < 0 || w.Review < 0 || w.Price < 0 || w.Stars < 0 {
		return errors.New("hotel score weights must not be negative")
	}
	sum := w.Location + w.Review + w.Price + w.Stars
	if math.Abs(sum-1) > 1e-6 {
		return fmt.Errorf("hotel score weights must sum to 1, got %.4f", sum)
	}
	return nil
}

// scoreCandidates fills ValueScore on every candidate. Normalization is
// within the candidate set; when the whole set shares one price or one
// distance that axis awards full marks to everyone.
func scoreCandidates(candidates []types.HotelCandidate, w Weights) {
	if len(candidates) == 0 {
		return
	}

	minPrice, maxPrice := candidates[0].Price, candidates[0].Price
	minDist, maxDist := candidates[0].AvgDistanceKm, candidates[0].AvgDistanceKm
	for _, c := range candidates[1:] {
		minPrice = math.Min(minPrice, c.Price)
		maxPrice = math.Max(maxPrice, c.Price)
		minDist = math.Min(minDist, c.AvgDistanceKm)
		maxDist = math.Max(maxDist, c.AvgDistanceKm)
	}

	for i := range candidates {
		c := &candidates[i]
		priceScore := inverseNorm(c.Price, minPrice, maxPrice)
		distScore := inverseNorm(c.AvgDistanceKm, minDist, maxDist)
		reviewScore := clamp01(c.ReviewScore / 10)
		starScore := clamp01(float64(c.Stars) / 5)
		c.ValueScore = geo.Round2(w.Price*priceScore +
			w.Location*distScore +
			w.Review*reviewScore +
			w.Stars*starScore)
	}
}

func inverseNorm(v, min, max float64) float64 {
	if max <= min {
		return 1
	}
	return (max - v) / (max - min)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// rankByValue orders by value score descending. Ties prefer the better
// reviewed, then the cheaper, then the alphabetically first hotel so equal
// inputs always rank identically.
func rankByValue(candidates []types.HotelCandidate) []types.HotelCandidate {
	out := append([]types.HotelCandidate(nil), candidates...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].ValueScore != out[j].ValueScore {
			return out[i].ValueScore > out[j].ValueScore
		}
		if out[i].ReviewScore != out[j].ReviewScore {
			return out[i].ReviewScore > out[j].ReviewScore
		}
		if out[i].Price != out[j].Price {
			return out[i].Price < out[j].Price
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// rankByLocation orders by average distance ascending, ties by review score
// descending then name.
func rankByLocation(candidates []types.HotelCandidate) []types.HotelCandidate {
	out := append([]types.HotelCandidate(nil), candidates...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].AvgDistanceKm != out[j].AvgDistanceKm {
			return out[i].AvgDistanceKm < out[j].AvgDistanceKm
		}
		if out[i].ReviewScore != out[j].ReviewScore {
			return out[i].ReviewScore > out[j].ReviewScore
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// rankByQuality orders by review score descending, ties by star class
// descending, then price ascending, then name.
func rankByQuality(candidates []types.HotelCandidate) []types.HotelCandidate {
	out := append([]types.HotelCandidate(nil), candidates...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].ReviewScore != out[j].ReviewScore {
			return out[i].ReviewScore > out[j].ReviewScore
		}
		if out[i].Stars != out[j].Stars {
			return out[i].Stars > out[j].Stars
		}
		if out[i].Price != out[j].Price {
			return out[i].Price < out[j].Price
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func topN(candidates []types.HotelCandidate, n int) []types.HotelCandidate {
	if len(candidates) <= n {
		return candidates
	}
	return candidates[:n]
}
