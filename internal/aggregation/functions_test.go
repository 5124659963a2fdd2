package aggregation

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/femavibes/feedmaster/internal/domain"
)

func TestDomainOfStripsWWW(t *testing.T) {
	assert.Equal(t, "example.com", DomainOf("https://www.example.com/a/b"))
	assert.Equal(t, "example.com", DomainOf("https://example.com/a/b"))
	assert.Equal(t, "", DomainOf("://not a url"))
}

func TestDropLowestWeightedScoreSinglePost(t *testing.T) {
	got := dropLowestWeightedScore([]float64{10})
	assert.InDelta(t, 10*math.Log(2), got, 1e-9)
}

func TestDropLowestWeightedScoreDropsMinimum(t *testing.T) {
	scores := []float64{10, 10, 10, 1}
	got := dropLowestWeightedScore(scores)

	allMean := mean(scores)
	minusMinMean := mean([]float64{10, 10, 10})
	want := math.Max(allMean, minusMinMean) * math.Log(float64(len(scores))+1)

	assert.InDelta(t, want, got, 1e-9)
	// Dropping the outlier minimum should beat the unfiltered mean here.
	assert.Greater(t, minusMinMean, allMean)
}

func TestDropLowestWeightedScoreEmpty(t *testing.T) {
	assert.Equal(t, 0.0, dropLowestWeightedScore(nil))
}

func TestMean(t *testing.T) {
	assert.Equal(t, 0.0, mean(nil))
	assert.InDelta(t, 2.0, mean([]float64{1, 2, 3}), 1e-9)
}

func TestSortUsersDesc(t *testing.T) {
	users := []UserScore{
		{DID: "a", WeightedScore: 1},
		{DID: "b", WeightedScore: 5},
		{DID: "c", WeightedScore: 3},
	}
	sortUsersDesc(users)
	assert.Equal(t, []string{"b", "c", "a"}, []string{users[0].DID, users[1].DID, users[2].DID})
}

func TestIsNewsDomain(t *testing.T) {
	news := map[string]struct{}{"nytimes.com": {}}
	assert.True(t, isNewsDomain("https://www.nytimes.com/a", news))
	assert.False(t, isNewsDomain("https://example.com/a", news))
}

func TestTimeBoundaryClauseAllTime(t *testing.T) {
	clause, arg, next := timeBoundaryClause("p.created_at", domain.TimeframeAllTime, time.Now(), 2)
	assert.Equal(t, "TRUE", clause)
	assert.Nil(t, arg)
	assert.Equal(t, 2, next)
}

func TestTimeBoundaryClauseBounded(t *testing.T) {
	clause, arg, next := timeBoundaryClause("p.created_at", domain.TimeframeDay, time.Now(), 2)
	assert.Equal(t, "p.created_at >= $2", clause)
	assert.NotNil(t, arg)
	assert.Equal(t, 3, next)
}
