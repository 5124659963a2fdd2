package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTimeframeBound(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	bound, ok := TimeframeHour.Bound(now)
	assert.True(t, ok)
	assert.Equal(t, now.Add(-time.Hour), bound)

	bound, ok = TimeframeAllTime.Bound(now)
	assert.False(t, ok)
	assert.True(t, bound.IsZero())
}

func TestEngagementWeightsScore(t *testing.T) {
	w := EngagementWeights{Like: 1, Repost: 2, Reply: 3}
	assert.Equal(t, 1*10+2*5+3*2, w.Score(10, 5, 2))
}

func TestRarityTierFor(t *testing.T) {
	cases := []struct {
		pct  float64
		want string
	}{
		{0.05, "Mythic"},
		{0.1, "Mythic"},
		{0.5, "Legendary"},
		{1.0, "Legendary"},
		{1.5, "Diamond"},
		{50, "Bronze"},
		{100, "Bronze"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, RarityTierFor(c.pct), "pct=%v", c.pct)
	}
}

func TestComputeRarityZeroPopulation(t *testing.T) {
	pct, tier := ComputeRarity(0, 0)
	assert.Equal(t, 0.0, pct)
	assert.Equal(t, "Mythic", tier)
}

func TestComputeRarity(t *testing.T) {
	pct, tier := ComputeRarity(5, 1000)
	assert.InDelta(t, 0.5, pct, 0.0001)
	assert.Equal(t, "Legendary", tier)
}

func TestOperatorCompare(t *testing.T) {
	assert.True(t, OpGT.Compare(5, 3))
	assert.False(t, OpGT.Compare(3, 3))
	assert.True(t, OpGE.Compare(3, 3))
	assert.True(t, OpNE.Compare(3, 4))
	assert.False(t, Operator("???").Compare(3, 3))
}

func TestAggregateStat(t *testing.T) {
	rows := []UserStats{
		{TotalLikes: 10, MaxPostEngagement: 4},
		{TotalLikes: 20, MaxPostEngagement: 9},
	}

	assert.Equal(t, 30, AggregateStat(Criteria{Stat: "total_likes", AggMethod: AggSum}, rows))
	assert.Equal(t, 2, AggregateStat(Criteria{Stat: "total_likes", AggMethod: AggCount}, rows))
	assert.Equal(t, 9, AggregateStat(Criteria{Stat: "max_post_engagement", AggMethod: AggMax}, rows))
}

func TestCheck(t *testing.T) {
	assert.True(t, Check(Criteria{Operator: OpGE, Value: 10}, 10))
	assert.False(t, Check(Criteria{Operator: OpGE, Value: 10}, 9))
}

func TestProminenceSetDiff(t *testing.T) {
	set := ProminenceSet{
		FeedID: "feed-1",
		DIDs: map[string]struct{}{
			"did:plc:a": {},
			"did:plc:b": {},
		},
	}
	previously := map[string]struct{}{
		"did:plc:b": {},
		"did:plc:c": {},
	}

	toAdd, toRemove := set.Diff(previously)
	assert.ElementsMatch(t, []string{"did:plc:a"}, toAdd)
	assert.ElementsMatch(t, []string{"did:plc:c"}, toRemove)
}

func TestUserStatsStatValue(t *testing.T) {
	s := UserStats{PostCount: 3, TotalLikes: 7, MaxPostEngagement: 4}
	assert.Equal(t, 3, s.StatValue("post_count"))
	assert.Equal(t, 7, s.StatValue("total_likes"))
	assert.Equal(t, 1, s.StatValue("feed_count"))
	assert.Equal(t, 0, s.StatValue("not_a_real_stat"))
}
