// Package common defines shared sentinel errors used across the ingestion
// pipeline and the store implementations. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Store-level errors.
	ErrorNotFound = errors.New("not found")

	// Pipeline-level errors.
	ErrorStoreNotReady = errors.New("store not ready")
	ErrorInternal      = errors.New("internal error")

	// Item-specific errors.
	ErrorDuplicateItem = errors.New("duplicate item")
)
