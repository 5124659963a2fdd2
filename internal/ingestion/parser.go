package ingestion

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/femavibes/feedmaster/internal/domain"
)

// firehoseEnvelope is the subset of a Contrails-relayed commit event this
// parser cares about. Contrails forwards the underlying
// com.atproto.sync.subscribeRepos#commit shape with the record already
// decoded to JSON, so there is no CBOR/CAR decoding step here.
type firehoseEnvelope struct {
	Kind      string          `json:"kind"` // "commit"
	Operation string          `json:"operation"` // "create" | "update" | "delete"
	Collection string         `json:"collection"`
	DID       string          `json:"did"`
	URI       string          `json:"uri"`
	CID       string          `json:"cid"`
	Record    json.RawMessage `json:"record"`
}

type postRecord struct {
	Text      string          `json:"text"`
	CreatedAt string          `json:"createdAt"`
	Langs     []string        `json:"langs"`
	Facets    []facetRecord   `json:"facets"`
	Embed     json.RawMessage `json:"embed"`
	EmbedType string          `json:"$type"`
	Reply     json.RawMessage `json:"reply"`
}

type facetRecord struct {
	Index    struct {
		ByteStart int `json:"byteStart"`
		ByteEnd   int `json:"byteEnd"`
	} `json:"index"`
	Features []struct {
		Type string `json:"$type"`
		URI  string `json:"uri"`
		DID  string `json:"did"`
		Tag  string `json:"tag"`
	} `json:"features"`
}

type blobRef struct {
	Type string `json:"$type"` // "blob"
	Ref  struct {
		Link string `json:"$link"`
	} `json:"ref"`
	MimeType string `json:"mimeType"`
}

type embedEnvelope struct {
	Type   string `json:"$type"`
	Images []struct {
		Alt   string  `json:"alt"`
		Thumb string  `json:"fullsize"` // only present on hydrated API responses, not firehose commits
		Image blobRef `json:"image"`
	} `json:"images"`
	Video json.RawMessage `json:"video"`
	Aspect struct {
		Width  int `json:"width"`
		Height int `json:"height"`
	} `json:"aspectRatio"`
	External struct {
		URI         string `json:"uri"`
		Title       string `json:"title"`
		Description string `json:"description"`
		Thumb       string `json:"thumb"`
	} `json:"external"`
	Record struct {
		URI string `json:"uri"`
		CID string `json:"cid"`
	} `json:"record"`
	Media json.RawMessage `json:"media"` // recordWithMedia
}

const maxFutureSkew = 5 * time.Minute

// ParseFirehoseMessage decodes one raw firehose event into a Post and its
// feed membership. A nil Post with a nil error means the event was a
// well-formed but non-post commit (e.g. a like or a delete) and should be
// silently skipped.
func ParseFirehoseMessage(feedID string, payload []byte) (*domain.Post, *domain.FeedPost, string, error) {
	var env firehoseEnvelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, nil, "", fmt.Errorf("decode envelope: %w", err)
	}

	if env.Operation != "create" || env.Collection != "app.bsky.feed.post" {
		return nil, nil, "", nil
	}

	var rec postRecord
	if err := json.Unmarshal(env.Record, &rec); err != nil {
		return nil, nil, "", fmt.Errorf("decode post record: %w", err)
	}

	createdAt, err := parseCreatedAt(rec.CreatedAt)
	if err != nil {
		return nil, nil, "", fmt.Errorf("parse createdAt: %w", err)
	}
	if createdAt.After(time.Now().Add(maxFutureSkew)) {
		return nil, nil, "", fmt.Errorf("createdAt too far in the future: %s", rec.CreatedAt)
	}

	now := time.Now().UTC()
	post := &domain.Post{
		ID:         uuid.NewString(),
		URI:        env.URI,
		CID:        env.CID,
		AuthorDID:  env.DID,
		Text:       rec.Text,
		CreatedAt:  createdAt,
		IngestedAt: now,
		Languages:  rec.Langs,

		IsActiveForPolling: true,
	}

	post.Hashtags, post.Links, post.Mentions = extractFacets(rec.Text, rec.Facets)
	post.HasMention = len(post.Mentions) > 0
	for _, f := range rec.Facets {
		for _, feat := range f.Features {
			if feat.Type == "app.bsky.richtext.facet#link" {
				post.HasLink = true
			}
		}
	}

	if len(rec.Embed) > 0 {
		applyEmbed(post, rec.Embed)
	}

	return post, &domain.FeedPost{
		PostID:     post.ID,
		FeedID:     feedID,
		IngestedAt: now,
	}, env.DID, nil
}

// parseCreatedAt mirrors Python's fromisoformat microsecond ceiling:
// fractional seconds beyond 6 digits are truncated before parsing so an
// overly precise nanosecond timestamp from a non-conforming client does
// not fail to parse.
func parseCreatedAt(s string) (time.Time, error) {
	if dot := strings.IndexByte(s, '.'); dot != -1 {
		end := dot + 1
		for end < len(s) && s[end] >= '0' && s[end] <= '9' {
			end++
		}
		fracLen := end - dot - 1
		if fracLen > 6 {
			s = s[:dot+7] + s[end:]
		}
	}
	return time.Parse(time.RFC3339Nano, s)
}

func extractFacets(text string, facets []facetRecord) (hashtags, links, mentions []string) {
	for _, f := range facets {
		for _, feat := range f.Features {
			switch feat.Type {
			case "app.bsky.richtext.facet#tag":
				hashtags = append(hashtags, normalizeHashtag(feat.Tag))
			case "app.bsky.richtext.facet#link":
				links = append(links, feat.URI)
			case "app.bsky.richtext.facet#mention":
				mentions = append(mentions, feat.DID)
			}
		}
	}
	return hashtags, links, mentions
}

// normalizeHashtag lowercases and strips non-alphanumeric characters, the
// same normalization the geo-hashtag lookup applies to its map keys.
func normalizeHashtag(raw string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(raw) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func applyEmbed(post *domain.Post, raw json.RawMessage) {
	var e embedEnvelope
	if err := json.Unmarshal(raw, &e); err != nil {
		return
	}

	kind := e.Type
	if strings.Contains(kind, "recordWithMedia") {
		applyRecordEmbed(post, e)
		if len(e.Media) > 0 {
			var media embedEnvelope
			if err := json.Unmarshal(e.Media, &media); err == nil {
				applyMediaEmbed(post, media)
			}
		}
		return
	}

	switch {
	case strings.Contains(kind, "embed.images"):
		applyMediaEmbed(post, e)
	case strings.Contains(kind, "embed.video"):
		applyMediaEmbed(post, e)
	case strings.Contains(kind, "embed.external"):
		post.HasLink = true
		post.LinkURL = e.External.URI
		post.LinkTitle = e.External.Title
		post.LinkDescription = e.External.Description
		post.ThumbnailURL = e.External.Thumb
	case strings.Contains(kind, "embed.record"):
		applyRecordEmbed(post, e)
	}
}

func applyMediaEmbed(post *domain.Post, e embedEnvelope) {
	if len(e.Images) > 0 {
		post.HasImage = true
		for _, img := range e.Images {
			url := resolveBlueskyCDNURL(post.AuthorDID, img.Image)
			if url == "" {
				url = img.Thumb
			}
			post.Images = append(post.Images, domain.Image{URL: url, Alt: img.Alt})
			if img.Alt != "" {
				post.HasAltText = true
			}
		}
		return
	}
	if len(e.Video) > 0 {
		post.HasVideo = true
		post.AspectRatioWidth = e.Aspect.Width
		post.AspectRatioHeight = e.Aspect.Height
		if post.ThumbnailURL == "" {
			post.ThumbnailURL = videoThumbnailURL(post.AuthorDID, post.CID)
		}
	}
}

// videoThumbnailURL constructs the HLS CDN thumbnail URL that
// applyMediaEmbed assigns to a video post whose ThumbnailURL is still
// empty. The video embed's own thumbnail blob is not decoded, so this URL
// is used even when the embed carries an explicit thumbnail.
func videoThumbnailURL(did, cid string) string {
	return fmt.Sprintf("https://video.cdn.bsky.app/hls/%s/%s/thumbnail.jpg", did, cid)
}

// resolveBlueskyCDNURL builds the thumbnail URL for an image blob ref, the
// way firehose commit records carry images (hydrated API responses carry a
// "fullsize" URL directly instead, handled as a fallback by the caller).
// Returns "" if blob isn't a well-formed image blob reference.
func resolveBlueskyCDNURL(did string, blob blobRef) string {
	if blob.Type != "blob" || blob.Ref.Link == "" {
		return ""
	}

	mimeType := blob.MimeType
	if mimeType == "" {
		mimeType = "image/jpeg"
	}

	ext := "jpeg"
	if idx := strings.LastIndex(mimeType, "/"); idx != -1 {
		ext = mimeType[idx+1:]
	}
	if ext == "image" || ext == "svg+xml" {
		ext = "jpeg"
	}

	return fmt.Sprintf("https://cdn.bsky.app/img/feed_thumbnail/plain/%s/%s@%s", did, blob.Ref.Link, ext)
}

func applyRecordEmbed(post *domain.Post, e embedEnvelope) {
	post.HasQuote = true
	post.QuotedPostURI = e.Record.URI
	post.QuotedPostCID = e.Record.CID
}
