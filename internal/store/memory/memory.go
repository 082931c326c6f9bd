// Package memory provides an in-memory RecordStore. It backs tests and
// offline use; the pipeline is injected with it the same way as with the
// durable Postgres implementation.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/avoronov/harvest/internal/common"
	"github.com/avoronov/harvest/internal/models"
	"github.com/avoronov/harvest/internal/store"
)

const defaultPageSize = 50

type RecordStore struct {
	mu    sync.Mutex
	items map[string]*models.ContentItem

	// now is a test seam.
	now func() time.Time
}

func NewRecordStore() *RecordStore {
	return &RecordStore{
		items: make(map[string]*models.ContentItem),
		now:   time.Now,
	}
}

func (s *RecordStore) Create(ctx context.Context, item *models.ContentItem) (*models.ContentItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *item
	stored.ID = uuid.NewString()
	stored.ProcessingState = models.StatePending
	now := s.now()
	stored.CreatedAt = now
	stored.UpdatedAt = now

	s.items[stored.ID] = &stored

	result := stored
	return &result, nil
}

func (s *RecordStore) Update(ctx context.Context, id string, patch models.ItemPatch) (*models.ContentItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[id]
	if !ok {
		return nil, common.ErrorNotFound
	}

	patch.Apply(item, s.now())

	result := *item
	return &result, nil
}

func (s *RecordStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[id]; !ok {
		return common.ErrorNotFound
	}
	delete(s.items, id)
	return nil
}

func (s *RecordStore) Get(ctx context.Context, id string) (*models.ContentItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	result := *item
	return &result, nil
}

func (s *RecordStore) Query(ctx context.Context, q store.Query) (*store.Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := make([]*models.ContentItem, 0, len(s.items))
	for _, item := range s.items {
		if q.Kind != nil && item.Kind != *q.Kind {
			continue
		}
		if q.State != nil && item.ProcessingState != *q.State {
			continue
		}
		all = append(all, item)
	}

	// Newest first unless asked otherwise; id breaks creation-time ties
	// deterministically.
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			if q.Ascending {
				return all[i].CreatedAt.Before(all[j].CreatedAt)
			}
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID < all[j].ID
	})

	start := 0
	if q.AfterID != "" {
		for i, item := range all {
			if item.ID == q.AfterID {
				start = i + 1
				break
			}
		}
	}

	limit := q.Limit
	if limit <= 0 {
		limit = defaultPageSize
	}

	end := start + limit
	if end > len(all) {
		end = len(all)
	}

	page := &store.Page{}
	for _, item := range all[start:end] {
		copied := *item
		page.Items = append(page.Items, &copied)
	}
	if n := len(page.Items); n > 0 {
		page.LastID = page.Items[n-1].ID
		page.HasMore = n == limit
	}
	return page, nil
}

// Len reports the number of stored items. Test helper.
func (s *RecordStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}
