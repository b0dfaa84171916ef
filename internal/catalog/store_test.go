package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/routinez-api/internal/models"
	appErrors "github.com/noah-isme/routinez-api/pkg/errors"
)

type stubFetcher struct {
	snapshot *models.Snapshot
	err      error
	calls    int
}

func (s *stubFetcher) Fetch(ctx context.Context) (*models.Snapshot, error) {
	s.calls++
	return s.snapshot, s.err
}

type stubCache struct {
	snapshot *models.Snapshot
	getErr   error
	setErr   error
	sets     int
}

func (s *stubCache) Get(ctx context.Context) (*models.Snapshot, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.snapshot, nil
}

func (s *stubCache) Set(ctx context.Context, snapshot *models.Snapshot) error {
	s.sets++
	if s.setErr != nil {
		return s.setErr
	}
	s.snapshot = snapshot
	return nil
}

type stubArchive struct {
	snapshot *models.Snapshot
	saves    int
}

func (s *stubArchive) Save(ctx context.Context, snapshot *models.Snapshot) error {
	s.saves++
	s.snapshot = snapshot
	return nil
}

func (s *stubArchive) Latest(ctx context.Context) (*models.Snapshot, error) {
	return s.snapshot, nil
}

func snapshotWith(course string) *models.Snapshot {
	return models.NewSnapshot(time.Now().UTC(), []models.Section{
		{SectionID: "1", CourseCode: course, SectionName: "01"},
	})
}

func TestStoreWarmPrefersCache(t *testing.T) {
	fetcher := &stubFetcher{snapshot: snapshotWith("CSE220")}
	cache := &stubCache{snapshot: snapshotWith("MAT216")}
	store := NewStore(fetcher, cache, &stubArchive{}, zap.NewNop())

	require.NoError(t, store.Warm(context.Background()))
	assert.Equal(t, 0, fetcher.calls)
	assert.NotNil(t, store.Current().SectionsByCourse("MAT216"))
}

func TestStoreWarmFetchesOnCacheMiss(t *testing.T) {
	fetcher := &stubFetcher{snapshot: snapshotWith("CSE220")}
	cache := &stubCache{getErr: appErrors.ErrCacheMiss}
	archive := &stubArchive{}
	store := NewStore(fetcher, cache, archive, zap.NewNop())

	require.NoError(t, store.Warm(context.Background()))
	assert.Equal(t, 1, fetcher.calls)
	assert.Equal(t, 1, cache.sets)
	assert.Equal(t, 1, archive.saves)
	require.NotNil(t, store.Current())
	assert.Len(t, store.Current().SectionsByCourse("CSE220"), 1)
}

func TestStoreWarmFallsBackToArchive(t *testing.T) {
	fetcher := &stubFetcher{err: errors.New("upstream down")}
	cache := &stubCache{getErr: appErrors.ErrCacheMiss}
	archive := &stubArchive{snapshot: snapshotWith("PHY111")}
	store := NewStore(fetcher, cache, archive, zap.NewNop())

	require.NoError(t, store.Warm(context.Background()))
	assert.Len(t, store.Current().SectionsByCourse("PHY111"), 1)
}

func TestStoreWarmAllSourcesDown(t *testing.T) {
	fetcher := &stubFetcher{err: errors.New("upstream down")}
	cache := &stubCache{getErr: appErrors.ErrCacheMiss}
	store := NewStore(fetcher, cache, &stubArchive{}, zap.NewNop())

	err := store.Warm(context.Background())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrCatalogUnavailable.Code, appErrors.FromError(err).Code)
	assert.Nil(t, store.Current())
}

func TestStoreRefreshSwapsWithoutMutating(t *testing.T) {
	first := snapshotWith("CSE220")
	fetcher := &stubFetcher{snapshot: first}
	store := NewStore(fetcher, &stubCache{}, &stubArchive{}, zap.NewNop())

	require.NoError(t, store.Refresh(context.Background()))
	held := store.Current()

	// A request holding the old snapshot keeps seeing its data after
	// the refresh swaps in a new one.
	fetcher.snapshot = snapshotWith("MAT216")
	require.NoError(t, store.Refresh(context.Background()))

	assert.Len(t, held.SectionsByCourse("CSE220"), 1)
	assert.Empty(t, held.SectionsByCourse("MAT216"))
	assert.Len(t, store.Current().SectionsByCourse("MAT216"), 1)
}

func TestStoreRefreshToleratesSideStoreFailures(t *testing.T) {
	fetcher := &stubFetcher{snapshot: snapshotWith("CSE220")}
	cache := &stubCache{setErr: errors.New("redis down")}
	store := NewStore(fetcher, cache, &stubArchive{}, zap.NewNop())

	require.NoError(t, store.Refresh(context.Background()))
	require.NotNil(t, store.Current())
}

func TestInstrumentCacheObservesLookups(t *testing.T) {
	var hits, misses int
	cache := InstrumentCache(&stubCache{snapshot: snapshotWith("CSE220")}, func(hit bool) {
		if hit {
			hits++
		} else {
			misses++
		}
	})

	_, err := cache.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, hits)

	cache = InstrumentCache(&stubCache{getErr: appErrors.ErrCacheMiss}, func(hit bool) {
		if !hit {
			misses++
		}
	})
	_, err = cache.Get(context.Background())
	require.Error(t, err)
	assert.Equal(t, 1, misses)
}

func TestStoreAge(t *testing.T) {
	store := NewStore(&stubFetcher{}, nil, nil, zap.NewNop())
	assert.Zero(t, store.Age())

	store.install(snapshotWith("CSE220"), "test")
	assert.Greater(t, store.Age(), time.Duration(0))
}
