package profileresolver

import (
	"context"
	"fmt"

	"github.com/femavibes/feedmaster/internal/domain"
	"github.com/femavibes/feedmaster/internal/storage"
)

// resolveHandleCollisions runs before a batch of resolved profiles is
// upserted: Bluesky handles can be released and re-registered by a
// different account, so a resolved handle already on file for a
// different DID must first be freed by reassigning its previous owner to
// a synthetic placeholder. A post's author DID never changes; only the
// handle moves.
func resolveHandleCollisions(ctx context.Context, users *storage.UserRepository, resolved []domain.User) error {
	for _, u := range resolved {
		if domain.IsPlaceholder(u.Handle) {
			continue
		}

		previousOwner, err := users.FindByHandle(ctx, u.Handle)
		if err != nil {
			return fmt.Errorf("lookup handle owner for %s: %w", u.Handle, err)
		}
		if previousOwner != "" && previousOwner != u.DID {
			if err := users.ReassignToPlaceholder(ctx, previousOwner); err != nil {
				return fmt.Errorf("reassign collided handle %s: %w", u.Handle, err)
			}
		}
	}
	return nil
}
