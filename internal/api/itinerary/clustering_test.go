package itinerary

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-travel-planner/internal/types"
)

func pl(name string, lat, lng float64) Place {
	return Place{Name: name, Coord: types.Coordinate{Latitude: lat, Longitude: lng}}
}

func placeNames(places []Place) []string {
	names := make([]string, 0, len(places))
	for _, p := range places {
		names = append(names, p.Name)
	}
	return names
}

func TestOrderGreedy(t *testing.T) {
	start := types.Coordinate{Latitude: 0, Longitude: 0}

	t.Run("chains nearest first", func(t *testing.T) {
		places := []Place{
			pl("Far", 0, 0.3),
			pl("Near", 0, 0.1),
			pl("Mid", 0, 0.2),
		}
		ordered := orderGreedy(start, places)
		assert.Equal(t, []string{"Near", "Mid", "Far"}, placeNames(ordered))
	})

	t.Run("deterministic and keeps the earlier listed place on ties", func(t *testing.T) {
		places := []Place{
			pl("First", 0, 0.1),
			pl("Twin", 0, 0.1),
		}
		first := orderGreedy(start, places)
		second := orderGreedy(start, places)
		assert.Equal(t, []string{"First", "Twin"}, placeNames(first))
		assert.Equal(t, first, second)
	})

	t.Run("does not mutate the input", func(t *testing.T) {
		places := []Place{pl("B", 0, 0.2), pl("A", 0, 0.1)}
		orderGreedy(start, places)
		assert.Equal(t, []string{"B", "A"}, placeNames(places))
	})
}

func TestClusterSizes(t *testing.T) {
	assert.Equal(t, []int{3, 2, 2}, clusterSizes(7, 3))
	assert.Equal(t, []int{3, 3}, clusterSizes(6, 2))
	assert.Equal(t, []int{1, 1, 0}, clusterSizes(2, 3))
	assert.Equal(t, []int{0, 0}, clusterSizes(0, 2))
}

func TestClusterPlaces(t *testing.T) {
	start := types.Coordinate{Latitude: 0, Longitude: 0}

	t.Run("groups nearby places into the same day", func(t *testing.T) {
		places := []Place{
			pl("East A", 0, 1.00),
			pl("West A", 0, 0.01),
			pl("West B", 0, 0.02),
			pl("East B", 0, 1.01),
			pl("West C", 0, 0.03),
		}
		clusters := clusterPlaces(places, 2, start)
		require.Len(t, clusters, 2)
		assert.Equal(t, []string{"West A", "West B", "West C"}, placeNames(clusters[0]))
		assert.Equal(t, []string{"East A", "East B"}, placeNames(clusters[1]))
	})

	t.Run("covers every place exactly once", func(t *testing.T) {
		places := []Place{
			pl("A", 0, 0.1), pl("B", 0, 0.5), pl("C", 0, 0.9),
			pl("D", 0, 1.3), pl("E", 0, 1.7),
		}
		clusters := clusterPlaces(places, 3, start)
		require.Len(t, clusters, 3)
		seen := map[string]int{}
		for _, cluster := range clusters {
			for _, p := range cluster {
				seen[p.Name]++
			}
		}
		assert.Len(t, seen, 5)
		for name, n := range seen {
			assert.Equal(t, 1, n, "place %s", name)
		}
	})

	t.Run("more days than places leaves trailing days empty", func(t *testing.T) {
		clusters := clusterPlaces([]Place{pl("Solo", 0, 0.1)}, 3, start)
		require.Len(t, clusters, 3)
		assert.Len(t, clusters[0], 1)
		assert.Empty(t, clusters[1])
		assert.Empty(t, clusters[2])
	})
}

func TestCapPlaces(t *testing.T) {
	start := types.Coordinate{Latitude: 0, Longitude: 0}

	t.Run("under capacity keeps everything", func(t *testing.T) {
		places := []Place{pl("A", 0, 0.1), pl("B", 0, 0.2)}
		kept, omitted := capPlaces(places, 1, 4, start)
		assert.Equal(t, places, kept)
		assert.Empty(t, omitted)
	})

	t.Run("drops the farthest outliers first", func(t *testing.T) {
		places := []Place{
			pl("Near A", 0, 0.01),
			pl("Remote Fort", 2, 2),
			pl("Near B", 0, 0.02),
			pl("Lost Chapel", 3, 3),
			pl("Near C", 0, 0.03),
		}
		kept, omitted := capPlaces(places, 1, 3, start)

		assert.Equal(t, []string{"Near A", "Near B", "Near C"}, placeNames(kept))
		require.Len(t, omitted, 2)
		names := []string{omitted[0].Name, omitted[1].Name}
		assert.Contains(t, names, "Remote Fort")
		assert.Contains(t, names, "Lost Chapel")
		for _, om := range omitted {
			assert.Contains(t, om.Reason, "3-per-day sightseeing cap")
			assert.Contains(t, om.Reason, "km away")
		}
	})

	t.Run("kept places stay in input order", func(t *testing.T) {
		places := []Place{
			pl("Z", 0, 0.03),
			pl("Outlier", 5, 5),
			pl("A", 0, 0.01),
		}
		kept, omitted := capPlaces(places, 1, 2, start)
		assert.Equal(t, []string{"Z", "A"}, placeNames(kept))
		require.Len(t, omitted, 1)
		assert.Equal(t, "Outlier", omitted[0].Name)
	})
}

func TestSuggestedClusters(t *testing.T) {
	clusters := [][]Place{
		{pl("A", 0, 0), pl("B", 0, 0)},
		{pl("C", 0, 0)},
		{},
	}
	got := suggestedClusters(clusters)
	lines := strings.Split(got, "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Day 1: A, B", lines[0])
	assert.Equal(t, "Day 2: C", lines[1])
	assert.Equal(t, "Day 3: (free day)", lines[2])
}
