// Package store defines the persistence capability surface required by the
// ingestion pipeline: a record store for content metadata and a blob store
// for binary payloads. Implementations live in subpackages; an in-memory
// record store doubles as the test fake.
package store

import (
	"context"
	"io"

	"github.com/avoronov/harvest/internal/models"
)

// Query filters, sorts, and paginates a record listing.
type Query struct {
	// Kind, when set, restricts results to one item kind.
	Kind *models.ItemKind
	// State, when set, restricts results to one processing state.
	State *models.ProcessingState
	// Ascending orders oldest first; the default is newest first.
	Ascending bool
	// Limit caps the page size; implementations apply a default when 0.
	Limit int
	// AfterID is a continuation cursor: the id of the last item of the
	// previous page. Empty means the first page.
	AfterID string
}

// Page is one page of query results.
type Page struct {
	Items []*models.ContentItem
	// HasMore is a heuristic: a full page means more may exist.
	HasMore bool
	// LastID is the continuation cursor for the next page.
	LastID string
}

// RecordStore persists content item metadata.
type RecordStore interface {
	// Create assigns an id and timestamps, sets the initial pending state,
	// and stores the item. The stored copy is returned.
	Create(ctx context.Context, item *models.ContentItem) (*models.ContentItem, error)

	// Update merges patch into the item, refreshing its update timestamp.
	// Returns common.ErrorNotFound if the id is absent.
	Update(ctx context.Context, id string, patch models.ItemPatch) (*models.ContentItem, error)

	// Delete removes the item. Returns common.ErrorNotFound if absent.
	Delete(ctx context.Context, id string) error

	// Get returns the item or common.ErrorNotFound.
	Get(ctx context.Context, id string) (*models.ContentItem, error)

	// Query returns one page of items, newest first.
	Query(ctx context.Context, q Query) (*Page, error)
}

// BlobInfo describes an uploaded payload.
type BlobInfo struct {
	// Key is the opaque storage key used for later deletion.
	Key string
	// RetrievalURL is a URL from which the payload can be fetched.
	RetrievalURL string
}

// BlobStore persists binary payloads.
type BlobStore interface {
	// Upload stores the payload and returns its key and retrieval URL.
	Upload(ctx context.Context, r io.Reader, suggestedName, contentType string) (*BlobInfo, error)

	// Delete removes the payload by key.
	Delete(ctx context.Context, key string) error
}
