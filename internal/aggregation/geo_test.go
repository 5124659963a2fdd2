package aggregation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/femavibes/feedmaster/internal/configfile"
)

func testGeoMap() configfile.GeoHashtagMap {
	return configfile.GeoHashtagMap{
		"nyc":  {City: "New York", Region: "NY", Country: "US"},
		"nyny": {City: "New York", Region: "NY", Country: "US"},
		"la":   {City: "Los Angeles", Region: "CA", Country: "US"},
	}
}

func TestResolveOneLocationSingleCity(t *testing.T) {
	loc, ok := resolveOneLocation([]string{"nyc", "nyny", "unrelated"}, testGeoMap())
	assert.True(t, ok)
	assert.Equal(t, "New York", loc.City)
}

func TestResolveOneLocationConflictDropsPost(t *testing.T) {
	_, ok := resolveOneLocation([]string{"nyc", "la"}, testGeoMap())
	assert.False(t, ok)
}

func TestResolveOneLocationNoMatch(t *testing.T) {
	_, ok := resolveOneLocation([]string{"unrelated"}, testGeoMap())
	assert.False(t, ok)
}

func TestToGeoCountsSortsDescAndSkipsEmptyName(t *testing.T) {
	counts := toGeoCounts(map[string]int{"New York": 3, "": 10, "Los Angeles": 7})
	assert.Len(t, counts, 2)
	assert.Equal(t, "Los Angeles", counts[0].Name)
	assert.Equal(t, "New York", counts[1].Name)
}
