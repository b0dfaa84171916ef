package catalog

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/routinez-api/internal/models"
	appErrors "github.com/noah-isme/routinez-api/pkg/errors"
)

// Fetcher downloads a fresh snapshot from the upstream feed.
type Fetcher interface {
	Fetch(ctx context.Context) (*models.Snapshot, error)
}

// Cache is the fast shared snapshot store, typically Redis.
type Cache interface {
	Get(ctx context.Context) (*models.Snapshot, error)
	Set(ctx context.Context, snapshot *models.Snapshot) error
}

// Archive is the durable snapshot store used when both the upstream
// and the cache are unavailable. It archives raw catalog data only,
// never computed routines.
type Archive interface {
	Save(ctx context.Context, snapshot *models.Snapshot) error
	Latest(ctx context.Context) (*models.Snapshot, error)
}

// Store hands out the current snapshot and refreshes it in the
// background. The snapshot pointer is swapped atomically: a request
// that grabbed a reference keeps reading consistent data while the
// next refresh installs a new one.
type Store struct {
	fetcher Fetcher
	cache   Cache
	archive Archive
	logger  *zap.Logger

	current atomic.Pointer[models.Snapshot]
}

func NewStore(fetcher Fetcher, cache Cache, archive Archive, logger *zap.Logger) *Store {
	return &Store{
		fetcher: fetcher,
		cache:   cache,
		archive: archive,
		logger:  logger,
	}
}

// Current returns the live snapshot, or nil before the first load.
func (s *Store) Current() *models.Snapshot {
	return s.current.Load()
}

// Warm populates the store at startup: cache first, then upstream,
// then the durable archive. Any source that yields a snapshot wins;
// a cold start with all three down returns the catalog error.
func (s *Store) Warm(ctx context.Context) error {
	if s.cache != nil {
		if snapshot, err := s.cache.Get(ctx); err == nil && snapshot != nil {
			s.install(snapshot, "cache")
			return nil
		}
	}

	if err := s.Refresh(ctx); err == nil {
		return nil
	}

	if s.archive != nil {
		if snapshot, err := s.archive.Latest(ctx); err == nil && snapshot != nil {
			s.install(snapshot, "archive")
			s.logger.Warn("serving archived catalog snapshot, upstream is unavailable",
				zap.Time("fetched_at", snapshot.FetchedAt))
			return nil
		}
	}
	return appErrors.Clone(appErrors.ErrCatalogUnavailable,
		"catalog could not be loaded from upstream, cache or archive")
}

// Refresh fetches from upstream and swaps the snapshot in. The cache
// and archive writes are best-effort; a failed side store never loses
// the fetched data.
func (s *Store) Refresh(ctx context.Context) error {
	snapshot, err := s.fetcher.Fetch(ctx)
	if err != nil {
		return err
	}
	s.install(snapshot, "upstream")

	if s.cache != nil {
		if err := s.cache.Set(ctx, snapshot); err != nil {
			s.logger.Warn("snapshot cache write failed", zap.Error(err))
		}
	}
	if s.archive != nil {
		if err := s.archive.Save(ctx, snapshot); err != nil {
			s.logger.Warn("snapshot archive write failed", zap.Error(err))
		}
	}
	return nil
}

func (s *Store) install(snapshot *models.Snapshot, source string) {
	s.current.Store(snapshot)
	s.logger.Info("catalog snapshot installed",
		zap.String("source", source),
		zap.Int("sections", len(snapshot.Sections)),
		zap.Time("fetched_at", snapshot.FetchedAt))
}

// Age reports how stale the live snapshot is; zero when none is loaded.
func (s *Store) Age() time.Duration {
	snapshot := s.current.Load()
	if snapshot == nil {
		return 0
	}
	return time.Since(snapshot.FetchedAt)
}
