package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildMapsLink(t *testing.T) {
	t.Run("orders stops and appends the city to each", func(t *testing.T) {
		link := BuildMapsLink("Sarajevo", []string{"Latin Bridge", "City Hall"})
		assert.Equal(t, "https://www.google.com/maps/dir/Latin+Bridge+Sarajevo/City+Hall+Sarajevo/", link)
	})

	t.Run("escapes reserved characters", func(t *testing.T) {
		link := BuildMapsLink("Porto", []string{"Café & Bar"})
		assert.Equal(t, "https://www.google.com/maps/dir/Caf%C3%A9+%26+Bar+Porto/", link)
	})

	t.Run("skips blank names", func(t *testing.T) {
		link := BuildMapsLink("Lisbon", []string{"", "Belém Tower", "  "})
		assert.Equal(t, "https://www.google.com/maps/dir/Bel%C3%A9m+Tower+Lisbon/", link)
	})

	t.Run("empty for no names", func(t *testing.T) {
		assert.Empty(t, BuildMapsLink("Lisbon", nil))
	})
}

func TestBuildRouteLink(t *testing.T) {
	t.Run("start leads and is not city suffixed", func(t *testing.T) {
		link := BuildRouteLink("Sarajevo", "Sarajevo city center", []string{"Latin Bridge"})
		assert.Equal(t, "https://www.google.com/maps/dir/Sarajevo+city+center/Latin+Bridge+Sarajevo/", link)
	})

	t.Run("no start degrades to the plain link", func(t *testing.T) {
		assert.Equal(t,
			BuildMapsLink("Sarajevo", []string{"Latin Bridge"}),
			BuildRouteLink("Sarajevo", "", []string{"Latin Bridge"}))
	})

	t.Run("start alone still forms a link", func(t *testing.T) {
		link := BuildRouteLink("Sarajevo", "Hotel Central", nil)
		assert.Equal(t, "https://www.google.com/maps/dir/Hotel+Central/", link)
	})
}
