package domain

import "time"

// Aggregate is one materialized (feed, name, timeframe) result row. Results
// are stored as JSON since each aggregate name has its own result shape
// (a ranked list, a single scalar, a geo tree); only the envelope is
// columnar.
type Aggregate struct {
	ID         string
	FeedID     string
	Name       string // "top_content" | "top_users" | "streaks" | "top_links" | "top_domains" | "top_cards" | "top_hashtags" | "geo"
	Timeframe  Timeframe
	Result     []byte // JSON
	ComputedAt time.Time
}

// AggregateSchedule is the declarative (name, timeframes) table the
// aggregation scheduler fans out over. Streaks, top_users, top_posters,
// and top_mentions scan a feed's full history and run all-time only;
// everything else runs across every bounded timeframe plus all-time.
type AggregateScheduleEntry struct {
	Name       string
	Timeframes []Timeframe
}

// DefaultAggregateSchedule is the full cartesian product driving each
// aggregation cycle: every feed is crossed with every entry here.
var DefaultAggregateSchedule = []AggregateScheduleEntry{
	{Name: "top_content", Timeframes: AllTimeframes},
	{Name: "top_images", Timeframes: AllTimeframes},
	{Name: "top_videos", Timeframes: AllTimeframes},
	{Name: "top_links", Timeframes: AllTimeframes},
	{Name: "top_domains", Timeframes: AllTimeframes},
	{Name: "top_cards", Timeframes: AllTimeframes},
	{Name: "top_hashtags", Timeframes: AllTimeframes},
	{Name: "geo", Timeframes: AllTimeframes},
	{Name: "first_time_posters", Timeframes: AllTimeframes},
	{Name: "top_users", Timeframes: []Timeframe{TimeframeAllTime}},
	{Name: "top_posters", Timeframes: []Timeframe{TimeframeAllTime}},
	{Name: "top_mentions", Timeframes: []Timeframe{TimeframeAllTime}},
	{Name: "streaks", Timeframes: []Timeframe{TimeframeAllTime}},
}

// ProminenceSet is the per-cycle materialized union of DIDs appearing in
// any "top" aggregate result recomputed that cycle, across all feeds
// (FeedID is empty). Never cached or TTL'd: rebuilt every aggregation
// cycle and diffed against the previously prominent set.
type ProminenceSet struct {
	FeedID  string
	DIDs    map[string]struct{}
	AsOf    time.Time
}

// Diff reports which DIDs newly entered and which left prominence relative
// to previouslyProminent.
func (p ProminenceSet) Diff(previouslyProminent map[string]struct{}) (toAdd, toRemove []string) {
	for did := range p.DIDs {
		if _, ok := previouslyProminent[did]; !ok {
			toAdd = append(toAdd, did)
		}
	}
	for did := range previouslyProminent {
		if _, ok := p.DIDs[did]; !ok {
			toRemove = append(toRemove, did)
		}
	}
	return toAdd, toRemove
}
