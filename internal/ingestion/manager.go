package ingestion

import (
	"context"
	"sync"
	"time"

	"github.com/femavibes/feedmaster/internal/profileresolver"
	"github.com/femavibes/feedmaster/internal/storage"
	"github.com/femavibes/feedmaster/pkg/config"
	"github.com/femavibes/feedmaster/pkg/logger"
)

// Manager orchestrates one Listener per active feed plus the batcher and
// periodic profile-refresh scheduler that drain their output.
type Manager struct {
	cfg    *config.Config
	logger *logger.Logger

	feeds     storage.FeedRepository
	resolver  *profileresolver.StaleResolver
	batcher   *Batcher

	listeners []*Listener
	raw       chan RawEvent

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewManager creates a Manager. feeds is used both to discover the
// active feed set at startup and, by the batcher, to record feed/post
// membership.
func NewManager(cfg *config.Config, log *logger.Logger, feeds *storage.FeedRepository, posts *storage.PostRepository, users *storage.UserRepository, resolver *profileresolver.StaleResolver) *Manager {
	raw := make(chan RawEvent, 1024)
	return &Manager{
		cfg:      cfg,
		logger:   log.WithField("component", "ingestion"),
		feeds:    *feeds,
		resolver: resolver,
		batcher:  NewBatcher(cfg, log, posts, feeds, users),
		raw:      raw,
		stopCh:   make(chan struct{}),
	}
}

// Start discovers active feeds, spins up one Listener per feed, and
// starts the batch-flush and profile-refresh loops.
func (m *Manager) Start(ctx context.Context) error {
	activeFeeds, err := m.feeds.ActiveFeeds(ctx)
	if err != nil {
		return err
	}

	for _, f := range activeFeeds {
		l := NewListener(f, m.logger, m.raw)
		m.listeners = append(m.listeners, l)
		l.Start(ctx)
	}

	m.wg.Add(1)
	go m.parseLoop(ctx)

	m.wg.Add(1)
	go m.refreshLoop(ctx)

	m.logger.WithField("feeds", len(activeFeeds)).Info("ingestion manager started")
	return nil
}

// Stop stops every listener and drains the parse/refresh loops.
func (m *Manager) Stop() {
	close(m.stopCh)
	for _, l := range m.listeners {
		l.Stop()
	}
	m.wg.Wait()
	m.batcher.FlushRemaining(context.Background())
}

func (m *Manager) parseLoop(ctx context.Context) {
	defer m.wg.Done()

	flushInterval := time.Duration(m.cfg.Ingestion.BatchIntervalSeconds) * time.Second
	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stopCh:
			return
		case <-ctx.Done():
			return
		case ev := <-m.raw:
			post, membership, authorDID, err := ParseFirehoseMessage(ev.FeedID, ev.Payload)
			if err != nil {
				m.logger.WithError(err).Debug("dropping unparseable message")
				continue
			}
			if post == nil {
				continue // non-post commit event, ignored
			}
			m.batcher.Add(ctx, *post, membership, authorDID)
		case <-ticker.C:
			m.batcher.Flush(ctx)
		}
	}
}

// refreshLoop unions the three staleness categories every check interval
// and dispatches them to the profile resolver.
func (m *Manager) refreshLoop(ctx context.Context) {
	defer m.wg.Done()

	interval := time.Duration(m.cfg.ProfileResolve.IntervalSeconds) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := m.resolver.RefreshStaleProfiles(ctx); err != nil {
				m.logger.WithError(err).Warn("stale profile refresh failed")
			}
		}
	}
}

// TriggerResolution resolves a single DID out of band, matching the
// ingestion worker's in-line "stale author" path.
func (m *Manager) TriggerResolution(ctx context.Context, did string) {
	if err := m.resolver.ResolveOne(ctx, did); err != nil {
		m.logger.WithError(err).WithField("did", did).Debug("single-did resolution failed")
	}
}
