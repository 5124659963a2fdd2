package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// pgxBatch is a thin wrapper over pgx.Batch that surfaces the first
// per-statement error with its position, since pgxpool.SendBatch reports
// errors lazily as each queued statement's result is consumed.
type pgxBatch struct {
	batch pgx.Batch
}

func (b *pgxBatch) Queue(sql string, args ...interface{}) {
	b.batch.Queue(sql, args...)
}

func (b *pgxBatch) send(ctx context.Context, db *pgxpool.Pool) error {
	n := b.batch.Len()
	if n == 0 {
		return nil
	}

	results := db.SendBatch(ctx, &b.batch)
	defer results.Close()

	for i := 0; i < n; i++ {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("batch statement %d/%d: %w", i+1, n, err)
		}
	}
	return nil
}
