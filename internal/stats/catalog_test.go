package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/femavibes/feedmaster/internal/domain"
)

func TestTieredFamilySingleThresholdKeepsBareName(t *testing.T) {
	out := tieredFamily("icebreaker", "Icebreaker", "Do %d things.", "stat", domain.ScopePerFeed, domain.AggSum, []int{1})
	assert.Len(t, out, 1)
	assert.Equal(t, "icebreaker", out[0].Key)
	assert.Equal(t, "Icebreaker", out[0].Name)
	assert.Equal(t, "Do 1 things.", out[0].Description)
}

func TestTieredFamilyMultiThresholdAppendsRomanSuffixes(t *testing.T) {
	out := tieredFamily("power_poster", "Power Poster", "Post %d times.", "post_count", domain.ScopePerFeed, domain.AggSum, []int{10, 50, 250})
	assert.Len(t, out, 3)
	assert.Equal(t, []string{"power_poster_I", "power_poster_II", "power_poster_III"}, []string{out[0].Key, out[1].Key, out[2].Key})
	assert.Equal(t, []string{"Power Poster I", "Power Poster II", "Power Poster III"}, []string{out[0].Name, out[1].Name, out[2].Name})
}

func TestTieredFamilyThresholdsAreIncreasing(t *testing.T) {
	out := tieredFamily("base", "Base", "%d", "stat", domain.ScopeGlobal, domain.AggMax, sevenTierScale)
	prev := out[0].Criteria.Value
	for _, ach := range out[1:] {
		assert.Greater(t, ach.Criteria.Value, prev)
		prev = ach.Criteria.Value
	}
}

func TestBuildCatalogAllActiveAndUniqueKeys(t *testing.T) {
	catalog := buildCatalog()
	assert.NotEmpty(t, catalog)

	seen := make(map[string]bool)
	for _, ach := range catalog {
		assert.True(t, ach.IsActive)
		assert.False(t, seen[ach.Key], "duplicate key %s", ach.Key)
		seen[ach.Key] = true
	}
}
