package stats

import (
	"fmt"

	"github.com/femavibes/feedmaster/internal/domain"
)

// Catalog is the full static achievement definition table, seeded into
// the database by key on every worker startup. Each tier within a
// family shares a stat and scope but escalates Criteria.Value.
var Catalog = buildCatalog()

func buildCatalog() []domain.Achievement {
	var out []domain.Achievement

	out = append(out,
		domain.Achievement{
			Key:         "icebreaker",
			Name:        "Icebreaker",
			Description: "Post for the first time in a feed.",
			Icon:        "icebreaker",
			Scope:       domain.ScopePerFeed,
			Criteria:    domain.Criteria{Stat: "post_count", Operator: domain.OpGE, Value: 1},
		},
		domain.Achievement{
			Key:         "community_favorite",
			Name:        "Community Favorite",
			Description: "Earn 100 total likes in a feed.",
			Icon:        "community_favorite",
			Scope:       domain.ScopePerFeed,
			Criteria:    domain.Criteria{Stat: "total_likes", Operator: domain.OpGE, Value: 100},
		},
		domain.Achievement{
			Key:         "feed_explorer",
			Name:        "Feed Explorer",
			Description: "Post into 3 different feeds.",
			Icon:        "feed_explorer",
			Scope:       domain.ScopeGlobal,
			Criteria:    domain.Criteria{Stat: "feed_count", Operator: domain.OpGE, Value: 3, AggMethod: domain.AggCount},
		},
	)

	out = append(out, tieredFamily("power_poster", "Power Poster", "Post %d times in a feed.",
		"post_count", domain.ScopePerFeed, domain.AggSum, []int{10, 50, 250})...)

	out = append(out, tieredFamily("global_icon", "Global Icon", "Earn %d total likes across all feeds.",
		"total_likes", domain.ScopeGlobal, domain.AggSum, []int{100, 1000, 10000, 50000, 100000, 500000, 1000000})...)

	out = append(out, tieredFamily("image_poster", "Image Poster", "Post %d posts with an image in a feed.",
		"image_post_count", domain.ScopePerFeed, domain.AggSum, sevenTierScale)...)
	out = append(out, tieredFamily("global_image_poster", "Global Image Poster", "Post %d posts with an image across all feeds.",
		"image_post_count", domain.ScopeGlobal, domain.AggSum, sevenTierScale)...)

	out = append(out, tieredFamily("video_poster", "Video Poster", "Post %d posts with a video in a feed.",
		"video_post_count", domain.ScopePerFeed, domain.AggSum, sevenTierScale)...)
	out = append(out, tieredFamily("global_video_poster", "Global Video Poster", "Post %d posts with a video across all feeds.",
		"video_post_count", domain.ScopeGlobal, domain.AggSum, sevenTierScale)...)

	out = append(out, tieredFamily("viral_sensation", "Viral Sensation", "Land a single post at %d engagement in a feed.",
		"max_post_engagement", domain.ScopePerFeed, domain.AggMax, []int{25, 100, 500, 2500})...)
	out = append(out, tieredFamily("global_viral_sensation", "Global Viral Sensation", "Land a single post at %d engagement across all feeds.",
		"max_post_engagement", domain.ScopeGlobal, domain.AggMax, []int{25, 100, 500, 2500})...)

	for i := range out {
		out[i].IsActive = true
	}
	return out
}

var sevenTierScale = []int{5, 25, 100, 250, 500, 1000, 5000}

var tierSuffixes = []string{"I", "II", "III", "IV", "V", "VI", "VII"}

// tieredFamily generates one achievement per threshold, keyed
// "<base>_<tier-index>" and named "<name> <roman>" once there's more
// than one tier (a single-threshold family keeps the bare name).
func tieredFamily(baseKey, name, descFmt, stat string, scope domain.AchievementScope, agg domain.AggMethod, thresholds []int) []domain.Achievement {
	var out []domain.Achievement
	for i, threshold := range thresholds {
		displayName := name
		key := baseKey
		if len(thresholds) > 1 {
			displayName = name + " " + tierSuffixes[i]
			key = baseKey + "_" + tierSuffixes[i]
		}
		out = append(out, domain.Achievement{
			Key:         key,
			Name:        displayName,
			Description: fmt.Sprintf(descFmt, threshold),
			Icon:        baseKey,
			Scope:       scope,
			Criteria: domain.Criteria{
				Stat:      stat,
				Operator:  domain.OpGE,
				Value:     threshold,
				AggMethod: agg,
			},
		})
	}
	return out
}

