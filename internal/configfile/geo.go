package configfile

import (
	"encoding/json"
	"strings"
)

// GeoHashtagEntry is one hashtag-to-location mapping loaded from
// geo_hashtags_mapping.json.
type GeoHashtagEntry struct {
	City    string `json:"city"`
	Region  string `json:"region"`
	Country string `json:"country"`
}

// GeoHashtagMap is the full static hashtag -> location table, keyed on
// the normalized (lowercased, alphanumeric-only) hashtag.
type GeoHashtagMap map[string]GeoHashtagEntry

// UnmarshalJSON normalizes every key the same way stored post hashtags
// are normalized, so a mixed-case or punctuated key in
// geo_hashtags_mapping.json still matches at lookup time.
func (m *GeoHashtagMap) UnmarshalJSON(data []byte) error {
	var raw map[string]GeoHashtagEntry
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	out := make(GeoHashtagMap, len(raw))
	for k, v := range raw {
		out[normalizeTag(k)] = v
	}
	*m = out
	return nil
}

func normalizeTag(raw string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(raw) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// DefaultGeoHashtagMap is used when geo_hashtags_mapping.json is absent.
func DefaultGeoHashtagMap() GeoHashtagMap {
	return GeoHashtagMap{}
}
