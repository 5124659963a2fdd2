package aggregation

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/femavibes/feedmaster/internal/domain"
)

// didFieldSpec names the JSON top-level array key and the per-element
// field holding a DID, for extracting prominence candidates out of an
// already-marshaled aggregate result without re-querying the database.
type didFieldSpec struct {
	arrayKey string
	didField string
}

var (
	didFieldsPostCards       = didFieldSpec{"top", "author_did"}
	didFieldsUserScores      = didFieldSpec{"users", "did"}
	didFieldsPosterCounts    = didFieldSpec{"posters", "did"}
	didFieldsStreaks         = didFieldSpec{"streaks", "did"}
	didFieldsFirstTimePosters = didFieldSpec{"first_time_posters", "did"}
)

// extractDIDs pulls every DID out of a marshaled aggregate result's
// named array, returning nil for an empty or malformed result or a
// missing key (DID-less aggregates never call it; compute returns nil
// DIDs for them directly).
func extractDIDs(result []byte, spec didFieldSpec) []string {
	if len(result) == 0 {
		return nil
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(result, &doc); err != nil {
		return nil
	}

	raw, ok := doc[spec.arrayKey]
	if !ok {
		return nil
	}

	var items []map[string]json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}

	var dids []string
	for _, item := range items {
		didRaw, ok := item[spec.didField]
		if !ok {
			continue
		}
		var did string
		if err := json.Unmarshal(didRaw, &did); err != nil || did == "" {
			continue
		}
		dids = append(dids, did)
	}
	return dids
}

// updateProminence diffs this cycle's newly-surfaced DID set, the union
// over every feed, against the users currently flagged prominent and
// applies the add/remove delta.
func (s *Scheduler) updateProminence(ctx context.Context, feedID string, newlyProminent map[string]struct{}) error {
	previouslyProminent, err := s.users.CurrentlyProminentDIDs(ctx)
	if err != nil {
		return fmt.Errorf("list currently prominent dids: %w", err)
	}

	previousSet := make(map[string]struct{}, len(previouslyProminent))
	for _, did := range previouslyProminent {
		previousSet[did] = struct{}{}
	}

	set := domain.ProminenceSet{FeedID: feedID, DIDs: newlyProminent, AsOf: time.Now()}
	toAdd, toRemove := set.Diff(previousSet)

	if err := s.users.SetProminence(ctx, toAdd, true); err != nil {
		return fmt.Errorf("mark newly prominent: %w", err)
	}
	if err := s.users.SetProminence(ctx, toRemove, false); err != nil {
		return fmt.Errorf("clear no-longer-prominent: %w", err)
	}
	return nil
}
