// Package dedup partitions ingestion candidates into new and already-known
// sets against the current in-memory item list. Pure functions, no side
// effects.
package dedup

import (
	"github.com/avoronov/harvest/internal/models"
)

// Partition is the result of splitting candidates against existing items.
type Partition[T any] struct {
	New       []T
	Duplicate []T
}

// URLs treats a candidate as a duplicate iff an existing URL item has an
// identical normalized locator. Candidates must already be normalized.
func URLs(candidates []string, existing []*models.ContentItem) Partition[string] {
	known := make(map[string]struct{})
	for _, item := range existing {
		if item.Kind == models.KindURL && item.Locator != "" {
			known[item.Locator] = struct{}{}
		}
	}

	var p Partition[string]
	for _, c := range candidates {
		if _, ok := known[c]; ok {
			p.Duplicate = append(p.Duplicate, c)
		} else {
			p.New = append(p.New, c)
		}
	}
	return p
}

type fileKey struct {
	name string
	size int64
}

// Files treats a candidate as a duplicate iff an existing file item has an
// identical display name AND identical size. Content hashing is not
// performed, so two different files with the same name and size are treated
// as duplicates — a known false-positive risk.
func Files(candidates []models.FileDescriptor, existing []*models.ContentItem) Partition[models.FileDescriptor] {
	known := make(map[fileKey]struct{})
	for _, item := range existing {
		if item.Kind == models.KindFile {
			known[fileKey{name: item.DisplayName, size: item.SizeBytes}] = struct{}{}
		}
	}

	var p Partition[models.FileDescriptor]
	for _, c := range candidates {
		if _, ok := known[fileKey{name: c.Name, size: c.SizeBytes}]; ok {
			p.Duplicate = append(p.Duplicate, c)
		} else {
			p.New = append(p.New, c)
		}
	}
	return p
}
