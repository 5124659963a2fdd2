package domain

import "time"

// EngagementWeights scores a post's engagement. Defaults (1/2/3) match the
// two independent hardcodings found in the source generations' polling
// worker and aggregation settings; this module uses one configurable set
// for both.
type EngagementWeights struct {
	Like   int
	Repost int
	Reply  int
}

// Score computes LIKE_W*likes + REPOST_W*reposts + REPLY_W*replies.
func (w EngagementWeights) Score(likes, reposts, replies int) int {
	return w.Like*likes + w.Repost*reposts + w.Reply*replies
}

// Image is one entry of a post's images embed.
type Image struct {
	URL string `json:"url"`
	Alt string `json:"alt"`
}

// Facet is a rich-text annotation: a byte range plus a feature kind.
type Facet struct {
	ByteStart int    `json:"byte_start"`
	ByteEnd   int    `json:"byte_end"`
	Kind      string `json:"kind"` // "link" | "mention" | "tag"
	Value     string `json:"value"`
}

// Post is a normalized record-commit, deduplicated by CID.
//
// Invariants: a createdAt more than 5 minutes in the future is rejected at
// ingestion (never stored); counters are monotone non-decreasing only while
// IsActiveForPolling; once IsActiveForPolling is false, NextPollAt is nil.
type Post struct {
	ID        string // surrogate UUID
	URI       string // at://<did>/app.bsky.feed.post/<rkey>, unique
	CID       string // unique, the idempotency key
	AuthorDID string
	Text      string

	CreatedAt  time.Time // external, author-supplied, never overwritten after first write
	IngestedAt time.Time // our first-sighting time; a re-upsert keeps the earlier of the stored and new values

	LikeCount   int
	RepostCount int
	ReplyCount  int
	QuoteCount  int

	EngagementScore int

	HasImage   bool
	HasVideo   bool
	HasLink    bool
	HasQuote   bool
	HasMention bool
	HasAltText bool

	LinkURL         string
	LinkTitle       string
	LinkDescription string
	ThumbnailURL    string

	AspectRatioWidth  int
	AspectRatioHeight int

	Hashtags []string
	Links    []string
	Mentions []string
	Images   []Image
	Facets   []Facet

	RawRecord map[string]any

	QuotedPostURI            string
	QuotedPostCID            string
	QuotedPostText           string
	QuotedPostAuthorDID      string
	QuotedPostAuthorHandle   string
	QuotedPostLikeCount      int
	QuotedPostCreatedAt      *time.Time

	Languages []string

	NextPollAt         *time.Time
	IsActiveForPolling bool
}

// Rescore recomputes EngagementScore from the current counters.
func (p *Post) Rescore(w EngagementWeights) {
	p.EngagementScore = w.Score(p.LikeCount, p.RepostCount, p.ReplyCount)
}

// Retire clears polling state. Once retired a post's counters are frozen.
func (p *Post) Retire() {
	p.IsActiveForPolling = false
	p.NextPollAt = nil
}

// FeedPost is a post's membership in a feed. A single post may belong to
// many feeds; (PostID, FeedID) is the composite uniqueness key.
type FeedPost struct {
	PostID         string
	FeedID         string
	IngestedAt     time.Time
	RelevanceScore float64
}

// Feed is a configured, externally-sourced stream of posts.
type Feed struct {
	ID                string
	Name              string
	Title             string
	Description       string
	ContrailsWSURL    string
	BlueskyFeedURI    string
	Tier              string
	Order             int
	AvatarURL         string
	LikeCount         int
	IsActive          bool
	OwnerDID          string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
