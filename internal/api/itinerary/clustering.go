package itinerary

import (
	"fmt"
	"sort"
	"strings"

	"github.com/FACorreiaa/go-travel-planner/internal/api/geo"
	"github.com/FACorreiaa/go-travel-planner/internal/types"
)

// Place pairs an attraction name with its resolved coordinate for the
// planning geometry helpers. All helpers here are pure: identical inputs
// produce identical outputs.
type Place struct {
	Name  string
	Coord types.Coordinate
}

// orderGreedy chains places nearest-first starting from start, never
// revisiting. Ties keep the earlier listed place.
func orderGreedy(start types.Coordinate, places []Place) []Place {
	remaining := append([]Place(nil), places...)
	ordered := make([]Place, 0, len(places))
	pos := start
	for len(remaining) > 0 {
		best := 0
		bestDist := geo.Distance(pos, remaining[0].Coord)
		for i := 1; i < len(remaining); i++ {
			if d := geo.Distance(pos, remaining[i].Coord); d < bestDist {
				best, bestDist = i, d
			}
		}
		next := remaining[best]
		ordered = append(ordered, next)
		pos = next.Coord
		remaining = append(remaining[:best], remaining[best+1:]...)
	}
	return ordered
}

// clusterPlaces partitions places into dayCount groups whose sizes differ by
// at most one. Each group is a greedy nearest-neighbor chain seeded from the
// accommodation, so groups come out geographically tight.
func clusterPlaces(places []Place, dayCount int, start types.Coordinate) [][]Place {
	if dayCount < 1 {
		dayCount = 1
	}
	sizes := clusterSizes(len(places), dayCount)
	remaining := append([]Place(nil), places...)
	clusters := make([][]Place, 0, dayCount)
	for _, size := range sizes {
		day := make([]Place, 0, size)
		pos := start
		for len(day) < size && len(remaining) > 0 {
			best := 0
			bestDist := geo.Distance(pos, remaining[0].Coord)
			for i := 1; i < len(remaining); i++ {
				if d := geo.Distance(pos, remaining[i].Coord); d < bestDist {
					best, bestDist = i, d
				}
			}
			next := remaining[best]
			day = append(day, next)
			pos = next.Coord
			remaining = append(remaining[:best], remaining[best+1:]...)
		}
		clusters = append(clusters, day)
	}
	return clusters
}

// clusterSizes spreads n across k groups, larger groups first.
func clusterSizes(n, k int) []int {
	sizes := make([]int, k)
	base, extra := n/k, n%k
	for i := range sizes {
		sizes[i] = base
		if i < extra {
			sizes[i]++
		}
	}
	return sizes
}

// capPlaces enforces the per-day load cap. Over capacity, the places
// farthest on average from the rest of the set and the accommodation are
// omitted until the remainder fits; ties drop the later listed place.
func capPlaces(places []Place, dayCount, maxPerDay int, start types.Coordinate) ([]Place, []types.OmittedAttraction) {
	capacity := dayCount * maxPerDay
	if maxPerDay < 1 || len(places) <= capacity {
		return places, nil
	}

	type scored struct {
		idx   int
		score float64
	}
	scores := make([]scored, len(places))
	for i, p := range places {
		sum := geo.Distance(start, p.Coord)
		for j, q := range places {
			if i == j {
				continue
			}
			sum += geo.Distance(p.Coord, q.Coord)
		}
		scores[i] = scored{idx: i, score: sum / float64(len(places))}
	}
	sort.SliceStable(scores, func(a, b int) bool {
		if scores[a].score != scores[b].score {
			return scores[a].score > scores[b].score
		}
		return scores[a].idx > scores[b].idx
	})

	drop := make(map[int]float64, len(places)-capacity)
	for _, sc := range scores[:len(places)-capacity] {
		drop[sc.idx] = sc.score
	}

	kept := make([]Place, 0, capacity)
	var omitted []types.OmittedAttraction
	for i, p := range places {
		if score, out := drop[i]; out {
			omitted = append(omitted, types.OmittedAttraction{
				Name: p.Name,
				Reason: fmt.Sprintf("Exceeds the %d-per-day sightseeing cap; on average %.1f km away from the rest of the route",
					maxPerDay, score),
			})
			continue
		}
		kept = append(kept, p)
	}
	return kept, omitted
}

// suggestedClusters renders the locally computed grouping as guidance lines
// for the planning prompt.
func suggestedClusters(clusters [][]Place) string {
	var b strings.Builder
	for i, cluster := range clusters {
		names := make([]string, 0, len(cluster))
		for _, p := range cluster {
			names = append(names, p.Name)
		}
		if len(names) == 0 {
			fmt.Fprintf(&b, "Day %d: (free day)\n", i+1)
			continue
		}
		fmt.Fprintf(&b, "Day %d: %s\n", i+1, strings.Join(names, ", "))
	}
	return strings.TrimSpace(b.String())
}
