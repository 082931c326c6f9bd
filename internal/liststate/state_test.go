package liststate

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avoronov/harvest/internal/logging"
	"github.com/avoronov/harvest/internal/models"
	"github.com/avoronov/harvest/internal/store"
	"github.com/avoronov/harvest/internal/store/memory"
)

func seedItems(t *testing.T, records store.RecordStore, n int) []*models.ContentItem {
	t.Helper()
	ctx := context.Background()
	var items []*models.ContentItem
	for i := 0; i < n; i++ {
		kind := models.KindURL
		if i%2 == 1 {
			kind = models.KindFile
		}
		item := &models.ContentItem{Kind: kind, DisplayName: "x", SizeBytes: 100}
		if kind == models.KindURL {
			item.SizeBytes = 0
		}
		created, err := records.Create(ctx, item)
		require.NoError(t, err)
		items = append(items, created)
	}
	return items
}

func newState(records store.RecordStore, pageSize int) *State {
	return New(records, logging.NewJSONLogger(io.Discard), pageSize)
}

func TestRefresh_ReplacesList(t *testing.T) {
	records := memory.NewRecordStore()
	seedItems(t, records, 3)
	s := newState(records, 50)

	require.NoError(t, s.Refresh(context.Background(), store.Query{}))

	assert.Len(t, s.Items(), 3)
	assert.False(t, s.HasMore())
	assert.NoError(t, s.Err())
}

func TestRefresh_FullPageSetsHasMore(t *testing.T) {
	records := memory.NewRecordStore()
	seedItems(t, records, 5)
	s := newState(records, 2)

	require.NoError(t, s.Refresh(context.Background(), store.Query{}))

	assert.Len(t, s.Items(), 2)
	assert.True(t, s.HasMore())
}

func TestLoadMore_AppendsPages(t *testing.T) {
	records := memory.NewRecordStore()
	seedItems(t, records, 5)
	s := newState(records, 2)
	ctx := context.Background()

	require.NoError(t, s.Refresh(ctx, store.Query{}))
	require.NoError(t, s.LoadMore(ctx))
	assert.Len(t, s.Items(), 4)
	assert.True(t, s.HasMore())

	require.NoError(t, s.LoadMore(ctx))
	assert.Len(t, s.Items(), 5)
	assert.False(t, s.HasMore())

	// Exhausted: further calls no-op.
	require.NoError(t, s.LoadMore(ctx))
	assert.Len(t, s.Items(), 5)

	// No duplicates across pages.
	seen := make(map[string]struct{})
	for _, item := range s.Items() {
		_, dup := seen[item.ID]
		assert.False(t, dup)
		seen[item.ID] = struct{}{}
	}
}

func TestStats(t *testing.T) {
	records := memory.NewRecordStore()
	seedItems(t, records, 4) // 2 urls, 2 files of 100 bytes
	s := newState(records, 50)

	require.NoError(t, s.Refresh(context.Background(), store.Query{}))

	stats := s.Stats()
	assert.Equal(t, 4, stats.Total)
	assert.Equal(t, 2, stats.ByKind[models.KindURL])
	assert.Equal(t, 2, stats.ByKind[models.KindFile])
	assert.Equal(t, 4, stats.ByState[models.StatePending])
	assert.Equal(t, int64(200), stats.TotalFileSize, "file sizes only")
}

func TestApplyPatchAndRemove(t *testing.T) {
	records := memory.NewRecordStore()
	items := seedItems(t, records, 2)
	s := newState(records, 50)
	require.NoError(t, s.Refresh(context.Background(), store.Query{}))

	s.ApplyPatch(items[0].ID, models.ItemPatch{Anonymize: models.Bool(true)})
	var found bool
	for _, item := range s.Items() {
		if item.ID == items[0].ID {
			found = true
			assert.True(t, item.Anonymize)
		}
	}
	require.True(t, found)

	s.Remove(items[0].ID)
	assert.Len(t, s.Items(), 1)

	// Unknown ids are ignored.
	s.ApplyPatch("missing", models.ItemPatch{Anonymize: models.Bool(true)})
	s.Remove("missing")
	assert.Len(t, s.Items(), 1)
}

// blockingStore serves one deliberately slow query to simulate a stale
// in-flight refresh.
type blockingStore struct {
	store.RecordStore

	mu      sync.Mutex
	block   chan struct{}
	entered chan struct{}
	pending *store.Page
}

func (b *blockingStore) Query(ctx context.Context, q store.Query) (*store.Page, error) {
	b.mu.Lock()
	ch := b.block
	b.block = nil
	b.mu.Unlock()

	if ch != nil {
		close(b.entered)
		<-ch
		return b.pending, nil
	}
	return b.RecordStore.Query(ctx, q)
}

func TestRefresh_StaleResultDiscarded(t *testing.T) {
	records := memory.NewRecordStore()
	seedItems(t, records, 1)

	stale := &store.Page{Items: []*models.ContentItem{
		{ID: "stale", Kind: models.KindURL, DisplayName: "stale"},
	}}
	release := make(chan struct{})
	entered := make(chan struct{})
	blocking := &blockingStore{RecordStore: records, block: release, entered: entered, pending: stale}

	s := newState(blocking, 50)
	ctx := context.Background()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		// First refresh blocks until released and then returns stale data.
		_ = s.Refresh(ctx, store.Query{})
	}()

	// Wait until the first refresh is inside the store call, then run a
	// newer refresh to completion.
	<-entered
	require.NoError(t, s.Refresh(ctx, store.Query{}))
	require.Len(t, s.Items(), 1)
	fresh := s.Items()[0].ID

	close(release)
	wg.Wait()

	items := s.Items()
	require.Len(t, items, 1)
	assert.Equal(t, fresh, items[0].ID, "stale refresh result must be discarded")
}

// failingStore always fails queries.
type failingStore struct {
	store.RecordStore
}

func (f *failingStore) Query(ctx context.Context, q store.Query) (*store.Page, error) {
	return nil, errors.New("network down")
}

func TestRefresh_ErrorRecorded(t *testing.T) {
	records := memory.NewRecordStore()
	s := newState(&failingStore{RecordStore: records}, 50)

	err := s.Refresh(context.Background(), store.Query{})
	require.Error(t, err)
	assert.Error(t, s.Err())
}

func TestStartAutoRefresh_StopsOnContextCancel(t *testing.T) {
	records := memory.NewRecordStore()
	seedItems(t, records, 1)
	s := newState(records, 50)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.StartAutoRefresh(ctx, 10*time.Millisecond)
	}()

	require.Eventually(t, func() bool {
		return len(s.Items()) == 1
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("auto-refresh goroutine did not stop")
	}
}
