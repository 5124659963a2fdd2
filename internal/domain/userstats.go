package domain

import "time"

// UserStats is one (did, feedID) row of accumulated posting activity,
// feedID == "" meaning the GLOBAL scope. Updated incrementally by the
// stats worker using a high-water-mark timestamp rather than a full
// rebuild on every cycle.
type UserStats struct {
	DID               string
	FeedID            string // "" for GLOBAL
	PostCount         int
	TotalLikes        int
	TotalReposts      int
	TotalReplies      int
	ImagePostCount    int
	VideoPostCount    int
	MaxPostEngagement int
	FirstPostAt       *time.Time
	LastPostAt        time.Time
}

// StatValue reads the stat referenced by an achievement's criteria off a
// single UserStats row (the PER_FEED evaluation path; GLOBAL evaluation
// works over a slice and is handled by AggregateStat in achievement.go).
func (s UserStats) StatValue(stat string) int {
	switch stat {
	case "post_count":
		return s.PostCount
	case "total_likes":
		return s.TotalLikes
	case "total_reposts":
		return s.TotalReposts
	case "total_replies":
		return s.TotalReplies
	case "image_post_count":
		return s.ImagePostCount
	case "video_post_count":
		return s.VideoPostCount
	case "max_post_engagement":
		return s.MaxPostEngagement
	case "feed_count":
		return 1
	default:
		return 0
	}
}
