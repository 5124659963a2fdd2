package profileresolver

import (
	"context"
	"fmt"

	"github.com/femavibes/feedmaster/internal/storage"
)

// StaleResolver adds the periodic staleness-union logic on top of
// Resolver, run by the ingestion manager's refresh loop every
// PROFILE_REFRESH_INTERVAL_SECONDS.
type StaleResolver struct {
	*Resolver
	users *storage.UserRepository
}

// NewStaleResolver creates a StaleResolver.
func NewStaleResolver(resolver *Resolver, users *storage.UserRepository) *StaleResolver {
	return &StaleResolver{Resolver: resolver, users: users}
}

// RefreshStaleProfiles unions three staleness categories — prominent
// users due for refresh, placeholder handles (capped), and general-stale
// resolved profiles (capped) — and resolves the union in one pass,
// stamping the prominent subset's refresh checkpoint regardless of
// whether its resolution succeeded, so a transient API failure does not
// cause the prominent set to be rechecked every cycle.
func (s *StaleResolver) RefreshStaleProfiles(ctx context.Context) error {
	cfg := s.cfg.ProfileResolve

	prominent, err := s.users.ProminentDIDsDueForRefresh(ctx, cfg.ProminentRefreshMinutes)
	if err != nil {
		return fmt.Errorf("query prominent refresh dids: %w", err)
	}

	placeholders, err := s.users.StalePlaceholderDIDs(ctx, cfg.PlaceholderBatchLimit)
	if err != nil {
		return fmt.Errorf("query placeholder dids: %w", err)
	}

	generalStale, err := s.users.GeneralStaleDIDs(ctx, cfg.GeneralStaleDays, cfg.GeneralStaleBatchLimit)
	if err != nil {
		return fmt.Errorf("query general stale dids: %w", err)
	}

	union := unionDIDs(prominent, placeholders, generalStale)
	if len(union) == 0 {
		return nil
	}

	if err := s.ResolveBatch(ctx, union); err != nil {
		return err
	}

	if len(prominent) > 0 {
		if err := s.users.SetProminence(ctx, prominent, true); err != nil {
			return fmt.Errorf("stamp prominent refresh checkpoint: %w", err)
		}
	}

	return nil
}

func unionDIDs(groups ...[]string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, g := range groups {
		for _, did := range g {
			if _, ok := seen[did]; !ok {
				seen[did] = struct{}{}
				out = append(out, did)
			}
		}
	}
	return out
}
