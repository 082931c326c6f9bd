// Package models defines the data model shared by the ingestion pipeline
// and the store implementations.
package models

import "time"

// ItemKind distinguishes harvested URLs from uploaded files.
type ItemKind string

const (
	KindURL  ItemKind = "url"
	KindFile ItemKind = "file"
)

// ProcessingState tracks an item's position in the processing lifecycle.
type ProcessingState string

const (
	StatePending    ProcessingState = "pending"
	StateProcessing ProcessingState = "processing"
	StateCompleted  ProcessingState = "completed"
	StateError      ProcessingState = "error"
)

// ContentItem represents one harvested piece of content.
//
// Invariants maintained by the stores:
//   - SizeBytes/MediaType/BlobKey are set only for KindFile items.
//   - UpdatedAt >= CreatedAt.
//   - ErrorDetail is set only while ProcessingState == StateError and is
//     cleared on any transition away from it.
type ContentItem struct {
	// ID is an opaque unique identifier, assigned at creation, immutable.
	ID string
	// Kind is the item variant (url or file).
	Kind ItemKind
	// DisplayName is shown to the user: the URL itself, or the file's name.
	DisplayName string
	// Locator is the normalized URL for KindURL items, or a retrieval URL
	// obtained after upload for KindFile items.
	Locator string
	// SizeBytes is the payload size; file items only.
	SizeBytes int64
	// MediaType is a MIME-like content type; file items only.
	MediaType string
	// ProcessingState starts at StatePending on creation.
	ProcessingState ProcessingState
	// Anonymize is a user-settable preference, default false.
	Anonymize bool
	// BlobKey is the object-storage key of the uploaded payload; file items only.
	BlobKey string
	// ErrorDetail is populated only when ProcessingState == StateError.
	ErrorDetail string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// FileDescriptor names a candidate file before it is validated or uploaded.
type FileDescriptor struct {
	Name      string
	SizeBytes int64
	MediaType string
}
