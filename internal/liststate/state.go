// Package liststate maintains an in-memory reconciled view of content
// items: updated optimistically on local mutations and authoritatively on
// record-store reads. It also derives aggregate statistics over the view.
//
// The local copy and the durable copy are reconciled, never merged by
// reference: optimistic updates apply to local copies and are superseded by
// the next authoritative refresh.
package liststate

import (
	"context"
	"sync"
	"time"

	"github.com/avoronov/harvest/internal/logging"
	"github.com/avoronov/harvest/internal/models"
	"github.com/avoronov/harvest/internal/store"
)

// Stats aggregates the current in-memory list.
type Stats struct {
	Total   int
	ByKind  map[models.ItemKind]int
	ByState map[models.ProcessingState]int
	// TotalFileSize sums SizeBytes over file items only.
	TotalFileSize int64
}

// State holds the current item list, a loading flag, and an error slot.
type State struct {
	records  store.RecordStore
	logger   logging.Logger
	pageSize int

	mu      sync.Mutex
	items   []*models.ContentItem
	loading bool
	hasMore bool
	lastErr error
	lastID  string
	query   store.Query
	// generation detects refreshes superseded while their query was in
	// flight; a stale result is discarded instead of clobbering newer state.
	generation int
}

func New(records store.RecordStore, logger logging.Logger, pageSize int) *State {
	return &State{
		records:  records,
		logger:   logger,
		pageSize: pageSize,
	}
}

// Refresh replaces the entire item list with the result of a record-store
// query. A refresh that resolves after a newer refresh has started is
// discarded.
func (s *State) Refresh(ctx context.Context, q store.Query) error {
	s.mu.Lock()
	s.generation++
	gen := s.generation
	s.loading = true
	q.Limit = s.pageSize
	q.AfterID = ""
	s.query = q
	s.mu.Unlock()

	page, err := s.records.Query(ctx, q)

	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation {
		// Superseded while in flight.
		return nil
	}
	s.loading = false

	if err != nil {
		s.lastErr = err
		return err
	}

	s.lastErr = nil
	s.items = page.Items
	s.hasMore = page.HasMore
	s.lastID = page.LastID
	return nil
}

// LoadMore appends the next page using the last item's id as a continuation
// cursor. No-ops if a load is already in flight or no more pages are known.
func (s *State) LoadMore(ctx context.Context) error {
	s.mu.Lock()
	if s.loading || !s.hasMore {
		s.mu.Unlock()
		return nil
	}
	gen := s.generation
	s.loading = true
	q := s.query
	q.Limit = s.pageSize
	q.AfterID = s.lastID
	s.mu.Unlock()

	page, err := s.records.Query(ctx, q)

	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation {
		return nil
	}
	s.loading = false

	if err != nil {
		s.lastErr = err
		return err
	}

	s.lastErr = nil
	s.items = append(s.items, page.Items...)
	s.hasMore = page.HasMore
	if page.LastID != "" {
		s.lastID = page.LastID
	}
	return nil
}

// Items returns a copy of the current list.
func (s *State) Items() []*models.ContentItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make([]*models.ContentItem, 0, len(s.items))
	for _, item := range s.items {
		copied := *item
		result = append(result, &copied)
	}
	return result
}

// Stats aggregates over the current in-memory list.
func (s *State) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := Stats{
		Total:   len(s.items),
		ByKind:  make(map[models.ItemKind]int),
		ByState: make(map[models.ProcessingState]int),
	}
	for _, item := range s.items {
		stats.ByKind[item.Kind]++
		stats.ByState[item.ProcessingState]++
		if item.Kind == models.KindFile {
			stats.TotalFileSize += item.SizeBytes
		}
	}
	return stats
}

// ApplyPatch applies an optimistic local mutation, refreshing the item's
// update timestamp to now. Unknown ids are ignored; the next authoritative
// refresh reconciles.
func (s *State) ApplyPatch(id string, patch models.ItemPatch) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, item := range s.items {
		if item.ID == id {
			patch.Apply(item, time.Now())
			return
		}
	}
}

// Remove drops an item from the local list.
func (s *State) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, item := range s.items {
		if item.ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return
		}
	}
}

// HasMore reports whether more pages may exist.
func (s *State) HasMore() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hasMore
}

// Loading reports whether a query is in flight.
func (s *State) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Err returns the error of the last failed query, nil after a success.
func (s *State) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// StartAutoRefresh periodically refreshes the list until ctx is done.
// Refresh failures are logged and the ticker keeps going.
func (s *State) StartAutoRefresh(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := s.Refresh(ctx, store.Query{}); err != nil {
				s.logger.Warn(ctx, "auto-refresh failed", "error", err)
			}
		case <-ctx.Done():
			return
		}
	}
}
