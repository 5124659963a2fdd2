package ingestion

import (
	"context"
	"sync"

	"github.com/femavibes/feedmaster/internal/domain"
	"github.com/femavibes/feedmaster/internal/storage"
	"github.com/femavibes/feedmaster/pkg/config"
	"github.com/femavibes/feedmaster/pkg/logger"
)

// Batcher buffers parsed posts and flushes them to storage when the
// buffer reaches the configured size or the flush interval elapses,
// whichever comes first.
type Batcher struct {
	cfg    *config.Config
	logger *logger.Logger

	posts *storage.PostRepository
	feeds *storage.FeedRepository
	users *storage.UserRepository

	mu          sync.Mutex
	pendingPosts []domain.Post
	pendingMemberships []domain.FeedPost
	pendingAuthors map[string]struct{}
}

// NewBatcher creates a Batcher.
func NewBatcher(cfg *config.Config, log *logger.Logger, posts *storage.PostRepository, feeds *storage.FeedRepository, users *storage.UserRepository) *Batcher {
	return &Batcher{
		cfg:    cfg,
		logger: log.WithField("component", "ingestion-batcher"),
		posts:  posts,
		feeds:  feeds,
		users:  users,
		pendingAuthors: make(map[string]struct{}),
	}
}

// Add buffers one parsed post and its feed membership, flushing
// immediately if the buffer has reached BatchSize.
func (b *Batcher) Add(ctx context.Context, post domain.Post, membership *domain.FeedPost, authorDID string) {
	b.mu.Lock()
	b.pendingPosts = append(b.pendingPosts, post)
	if membership != nil {
		b.pendingMemberships = append(b.pendingMemberships, *membership)
	}
	b.pendingAuthors[authorDID] = struct{}{}
	shouldFlush := len(b.pendingPosts) >= b.cfg.Ingestion.BatchSize
	b.mu.Unlock()

	if shouldFlush {
		b.Flush(ctx)
	}
}

// Flush writes the current buffer to storage and clears it.
func (b *Batcher) Flush(ctx context.Context) {
	b.mu.Lock()
	posts := b.pendingPosts
	memberships := b.pendingMemberships
	authors := b.pendingAuthors
	b.pendingPosts = nil
	b.pendingMemberships = nil
	b.pendingAuthors = make(map[string]struct{})
	b.mu.Unlock()

	if len(posts) == 0 {
		return
	}

	for did := range authors {
		if err := b.users.UpsertPlaceholder(ctx, did); err != nil {
			b.logger.WithError(err).WithField("did", did).Warn("placeholder upsert failed")
		}
	}

	if err := b.posts.UpsertBatch(ctx, posts); err != nil {
		b.logger.WithError(err).Error("post batch upsert failed")
		return
	}

	if err := b.feeds.InsertFeedPostBatch(ctx, memberships); err != nil {
		b.logger.WithError(err).Error("feed-post membership batch failed")
	}

	b.logger.WithField("count", len(posts)).Debug("flushed ingestion batch")
}

// FlushRemaining flushes whatever is buffered, used on shutdown so a
// partial batch at the batch-interval boundary is not lost.
func (b *Batcher) FlushRemaining(ctx context.Context) {
	b.Flush(ctx)
}
