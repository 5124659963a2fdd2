package aggregation

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/femavibes/feedmaster/internal/configfile"
	"github.com/femavibes/feedmaster/internal/domain"
)

type geoCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// GeoAggregate computes post counts per city, region, and country by
// mapping each post's hashtags through geoMap. A post whose hashtags
// resolve to more than one distinct city is ambiguous and is dropped
// from every level rather than guessed at.
func GeoAggregate(ctx context.Context, db *pgxpool.Pool, feedID string, tf domain.Timeframe, geoMap configfile.GeoHashtagMap) ([]byte, error) {
	now := time.Now()
	boundClause, boundArg, _ := timeBoundaryClause("p.created_at", tf, now, 2)

	query := fmt.Sprintf(`
		SELECT p.id, p.hashtags
		FROM posts p
		JOIN feed_posts fp ON fp.post_id = p.id
		WHERE fp.feed_id = $1 AND %s
	`, boundClause)

	var rows pgx.Rows
	var err error
	if boundArg != nil {
		rows, err = db.Query(ctx, query, feedID, boundArg)
	} else {
		rows, err = db.Query(ctx, query, feedID)
	}
	if err != nil {
		return nil, fmt.Errorf("query geo posts: %w", err)
	}
	defer rows.Close()

	cities := make(map[string]int)
	regions := make(map[string]int)
	countries := make(map[string]int)

	for rows.Next() {
		var postID string
		var hashtagsJSON []byte
		if err := rows.Scan(&postID, &hashtagsJSON); err != nil {
			return nil, err
		}

		var tags []string
		if len(hashtagsJSON) > 0 {
			if err := json.Unmarshal(hashtagsJSON, &tags); err != nil {
				continue
			}
		}

		loc, ok := resolveOneLocation(tags, geoMap)
		if !ok {
			continue
		}

		cities[loc.City]++
		regions[loc.Region]++
		countries[loc.Country]++
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return json.Marshal(map[string]any{
		"cities":    toGeoCounts(cities),
		"regions":   toGeoCounts(regions),
		"countries": toGeoCounts(countries),
	})
}

// resolveOneLocation maps a post's hashtags to a single GeoHashtagEntry.
// If the hashtags resolve to more than one distinct city, the post is
// ambiguous and is excluded entirely. Entries without a city never count
// as a competing city; when no tag names a city, the most specific of
// them (a region over a bare country) is used. Stored hashtags are already
// normalized by the ingestion parser, and geoMap's keys are normalized
// the same way on load, so lookup is a direct match.
func resolveOneLocation(tags []string, geoMap configfile.GeoHashtagMap) (configfile.GeoHashtagEntry, bool) {
	seen := make(map[string]configfile.GeoHashtagEntry)
	var broad configfile.GeoHashtagEntry
	hasBroad := false
	for _, tag := range tags {
		loc, ok := geoMap[tag]
		if !ok {
			continue
		}
		if loc.City == "" {
			if !hasBroad || (broad.Region == "" && loc.Region != "") {
				broad, hasBroad = loc, true
			}
			continue
		}
		seen[loc.City] = loc
	}
	if len(seen) == 0 && hasBroad {
		return broad, true
	}
	if len(seen) != 1 {
		return configfile.GeoHashtagEntry{}, false
	}
	for _, loc := range seen {
		return loc, true
	}
	return configfile.GeoHashtagEntry{}, false
}

func toGeoCounts(m map[string]int) []geoCount {
	var out []geoCount
	for name, count := range m {
		if name == "" {
			continue
		}
		out = append(out, geoCount{Name: name, Count: count})
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].Count > out[j-1].Count; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}
