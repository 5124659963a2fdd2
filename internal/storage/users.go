package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/femavibes/feedmaster/internal/domain"
)

// UserRepository persists domain.User rows.
type UserRepository struct {
	db *pgxpool.Pool
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

// UpsertPlaceholder inserts a user row with a synthetic placeholder handle
// if one doesn't already exist for did. Never overwrites an existing row:
// the ingestion path only needs the row to exist so FeedPost's foreign key
// is satisfiable before profile resolution runs.
func (r *UserRepository) UpsertPlaceholder(ctx context.Context, did string) error {
	query := `
		INSERT INTO users (did, handle, last_updated)
		VALUES ($1, $2, NOW())
		ON CONFLICT (did) DO NOTHING
	`
	_, err := r.db.Exec(ctx, query, did, domain.PlaceholderHandle(did))
	if err != nil {
		return fmt.Errorf("upsert placeholder user: %w", err)
	}
	return nil
}

// UpsertResolvedBatch bulk-upserts resolved profiles. Handle collisions
// (a different DID already owns the incoming handle) must be resolved by
// the caller before calling this, since a raw ON CONFLICT on handle would
// otherwise violate the unique constraint.
func (r *UserRepository) UpsertResolvedBatch(ctx context.Context, users []domain.User) error {
	if len(users) == 0 {
		return nil
	}

	batch := &pgxBatch{}
	for _, u := range users {
		batch.Queue(`
			INSERT INTO users (did, handle, display_name, description, avatar_url,
				followers_count, following_count, posts_count, external_created_at, last_updated)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
			ON CONFLICT (did) DO UPDATE SET
				handle = EXCLUDED.handle,
				display_name = EXCLUDED.display_name,
				description = EXCLUDED.description,
				avatar_url = EXCLUDED.avatar_url,
				followers_count = EXCLUDED.followers_count,
				following_count = EXCLUDED.following_count,
				posts_count = EXCLUDED.posts_count,
				external_created_at = COALESCE(users.external_created_at, EXCLUDED.external_created_at),
				last_updated = NOW()
		`, u.DID, u.Handle, u.DisplayName, u.Description, u.AvatarURL,
			u.FollowersCount, u.FollowingCount, u.PostsCount, u.ExternalCreatedAt)
	}
	return batch.send(ctx, r.db)
}

// ReassignToPlaceholder frees a handle from its previous owner by giving
// that DID a synthetic placeholder handle, used when a new profile
// resolution claims a handle already on file for a different DID.
func (r *UserRepository) ReassignToPlaceholder(ctx context.Context, previousOwnerDID string) error {
	query := `UPDATE users SET handle = $2, last_updated = NOW() WHERE did = $1`
	_, err := r.db.Exec(ctx, query, previousOwnerDID, domain.PlaceholderHandle(previousOwnerDID))
	if err != nil {
		return fmt.Errorf("reassign handle to placeholder: %w", err)
	}
	return nil
}

// FindByHandle returns the DID currently owning handle, or "" if none.
func (r *UserRepository) FindByHandle(ctx context.Context, handle string) (string, error) {
	var did string
	err := r.db.QueryRow(ctx, `SELECT did FROM users WHERE handle = $1`, handle).Scan(&did)
	if err != nil {
		return "", nil
	}
	return did, nil
}

// StalePlaceholderDIDs returns up to limit DIDs still carrying a
// placeholder handle, oldest-first.
func (r *UserRepository) StalePlaceholderDIDs(ctx context.Context, limit int) ([]string, error) {
	rows, err := r.db.Query(ctx, `
		SELECT did FROM users
		WHERE handle LIKE 'unknown.%'
		ORDER BY last_updated ASC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query stale placeholder dids: %w", err)
	}
	defer rows.Close()

	var dids []string
	for rows.Next() {
		var did string
		if err := rows.Scan(&did); err != nil {
			return nil, err
		}
		dids = append(dids, did)
	}
	return dids, rows.Err()
}

// GeneralStaleDIDs returns up to limit resolved (non-placeholder) DIDs
// whose last_updated is older than staleDays, oldest-first.
func (r *UserRepository) GeneralStaleDIDs(ctx context.Context, staleDays, limit int) ([]string, error) {
	rows, err := r.db.Query(ctx, `
		SELECT did FROM users
		WHERE handle NOT LIKE 'unknown.%'
		  AND last_updated < NOW() - ($1 || ' days')::interval
		ORDER BY last_updated ASC
		LIMIT $2
	`, staleDays, limit)
	if err != nil {
		return nil, fmt.Errorf("query general stale dids: %w", err)
	}
	defer rows.Close()

	var dids []string
	for rows.Next() {
		var did string
		if err := rows.Scan(&did); err != nil {
			return nil, err
		}
		dids = append(dids, did)
	}
	return dids, rows.Err()
}

// ProminentDIDsDueForRefresh returns prominent DIDs whose
// last_prominent_refresh_check is older than staleMinutes (or unset).
func (r *UserRepository) ProminentDIDsDueForRefresh(ctx context.Context, staleMinutes int) ([]string, error) {
	rows, err := r.db.Query(ctx, `
		SELECT did FROM users
		WHERE is_prominent = true
		  AND (last_prominent_refresh_check IS NULL
		       OR last_prominent_refresh_check < NOW() - ($1 || ' minutes')::interval)
		ORDER BY last_prominent_refresh_check ASC NULLS FIRST
	`, staleMinutes)
	if err != nil {
		return nil, fmt.Errorf("query prominent refresh dids: %w", err)
	}
	defer rows.Close()

	var dids []string
	for rows.Next() {
		var did string
		if err := rows.Scan(&did); err != nil {
			return nil, err
		}
		dids = append(dids, did)
	}
	return dids, rows.Err()
}

// CurrentlyProminentDIDs returns every DID currently flagged prominent,
// used by the aggregation scheduler to diff against each cycle's newly
// surfaced set.
func (r *UserRepository) CurrentlyProminentDIDs(ctx context.Context) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT did FROM users WHERE is_prominent = true`)
	if err != nil {
		return nil, fmt.Errorf("query currently prominent dids: %w", err)
	}
	defer rows.Close()

	var dids []string
	for rows.Next() {
		var did string
		if err := rows.Scan(&did); err != nil {
			return nil, err
		}
		dids = append(dids, did)
	}
	return dids, rows.Err()
}

// SetProminence updates the prominence flag for a batch of DIDs.
func (r *UserRepository) SetProminence(ctx context.Context, dids []string, prominent bool) error {
	if len(dids) == 0 {
		return nil
	}
	_, err := r.db.Exec(ctx, `
		UPDATE users SET is_prominent = $2, last_prominent_refresh_check = NOW()
		WHERE did = ANY($1)
	`, dids, prominent)
	if err != nil {
		return fmt.Errorf("set prominence: %w", err)
	}
	return nil
}
