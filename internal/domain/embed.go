package domain

import "time"

// EmbedKind discriminates the variants of Embed. Switches on Kind should be
// exhaustive; the default case in a type switch on Kind is a bug, not a
// fallback.
type EmbedKind string

const (
	EmbedNone     EmbedKind = ""
	EmbedImages   EmbedKind = "images"
	EmbedVideo    EmbedKind = "video"
	EmbedExternal EmbedKind = "external" // link card
	EmbedRecord   EmbedKind = "record"   // quote post
	EmbedRecordWithMedia EmbedKind = "recordWithMedia"
)

// Embed is a tagged variant over the embed kinds the AT Protocol post
// record can carry. Exactly one of the kind-specific fields is populated,
// selected by Kind, never by a zero-value check on a field. The ingestion
// parser does not build Embed values: it writes embed data straight onto
// the Post's flat fields and capability flags.
type Embed struct {
	Kind EmbedKind

	Images *ImagesEmbed
	Video  *VideoEmbed
	External *ExternalEmbed
	Record *RecordEmbed
}

// ImagesEmbed is app.bsky.embed.images.
type ImagesEmbed struct {
	Images []Image
}

// VideoEmbed is app.bsky.embed.video.
type VideoEmbed struct {
	ThumbnailURL      string
	AspectRatioWidth  int
	AspectRatioHeight int
}

// ExternalEmbed is app.bsky.embed.external, the structured link-card
// payload the author's client fetched at post time. Feedmaster never
// re-fetches the target URL: these fields are taken as given.
type ExternalEmbed struct {
	URI         string
	Title       string
	Description string
	ThumbnailURL string
}

// RecordEmbed is app.bsky.embed.record, a quote post. recordWithMedia
// (a quote plus its own image/video) decomposes into both a RecordEmbed
// and the corresponding ImagesEmbed/VideoEmbed at the call site; Embed
// itself only tags one Kind at a time, so a recordWithMedia post is
// represented by HasQuote plus HasImage/HasVideo flags on the Post rather
// than by a single Embed value.
type RecordEmbed struct {
	URI         string
	CID         string
	Text        string
	AuthorDID   string
	AuthorHandle string
	LikeCount   int
	CreatedAt   *time.Time
}
