// Package engine orchestrates content ingestion: extraction and validation
// of candidates, deduplication against the current list, concurrent
// persistence of survivors, and aggregation of per-candidate outcomes.
package engine

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"path/filepath"
	"sync"
	"time"

	"github.com/avoronov/harvest/internal/common"
	"github.com/avoronov/harvest/internal/dedup"
	"github.com/avoronov/harvest/internal/extract"
	"github.com/avoronov/harvest/internal/liststate"
	"github.com/avoronov/harvest/internal/logging"
	"github.com/avoronov/harvest/internal/models"
	"github.com/avoronov/harvest/internal/store"
	"github.com/avoronov/harvest/internal/validation"
)

// FilePayload is a dropped/selected file submitted for ingestion.
type FilePayload struct {
	Name string
	// MediaType is optional; inferred from the extension when empty.
	MediaType string
	Data      []byte
}

func (p FilePayload) descriptor() models.FileDescriptor {
	return models.FileDescriptor{
		Name:      p.Name,
		SizeBytes: int64(len(p.Data)),
		MediaType: p.MediaType,
	}
}

// Options configures an Engine.
type Options struct {
	URLRules  validation.URLRules
	FileRules validation.FileRules
	// ProcessingDelay is how long items stay in the processing state before
	// ProcessAll marks them completed.
	ProcessingDelay time.Duration
}

// Engine drives ingestion batches and item mutations against the stores,
// keeping the list state optimistically in sync.
type Engine struct {
	records store.RecordStore
	blobs   store.BlobStore
	state   *liststate.State
	logger  logging.Logger
	opts    Options

	mu     sync.Mutex
	timers map[string]*time.Timer
	closed bool
}

func New(records store.RecordStore, blobs store.BlobStore, state *liststate.State, opts Options, logger logging.Logger) *Engine {
	return &Engine{
		records: records,
		blobs:   blobs,
		state:   state,
		logger:  logger,
		opts:    opts,
		timers:  make(map[string]*time.Timer),
	}
}

// Close cancels pending processing timers. The engine must not be used
// afterwards.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.closed = true
	for id, t := range e.timers {
		t.Stop()
		delete(e.timers, id)
	}
}

// IngestText extracts URLs from pasted free-form text, skips ones already
// known, persists the rest concurrently, and returns the batch summary.
// Exactly one state refresh is triggered if anything succeeded.
func (e *Engine) IngestText(ctx context.Context, freeText string) (*Summary, error) {
	if err := e.ready(false); err != nil {
		return nil, err
	}

	urls := extract.URLs(freeText, e.opts.URLRules)
	part := dedup.URLs(urls, e.state.Items())

	outcomes := make([]BatchOutcome, 0, len(urls))
	for _, u := range part.Duplicate {
		outcomes = append(outcomes, BatchOutcome{Name: u, Outcome: OutcomeDuplicate})
	}

	persisted := e.persistAll(ctx, len(part.New), func(ctx context.Context, i int) BatchOutcome {
		u := part.New[i]
		_, err := e.records.Create(ctx, &models.ContentItem{
			Kind:        models.KindURL,
			DisplayName: u,
			Locator:     u,
		})
		if err != nil {
			return BatchOutcome{Name: u, Outcome: OutcomeFailed, Reason: err.Error()}
		}
		return BatchOutcome{Name: u, Outcome: OutcomeSucceeded}
	})
	outcomes = append(outcomes, persisted...)

	return e.finishBatch(ctx, outcomes), nil
}

// IngestFiles validates a batch of files (including the all-or-nothing
// total-size policy), skips duplicates, uploads blobs and creates records
// concurrently, and returns the batch summary. For each file the blob is
// uploaded first; an upload failure aborts that file only and leaves no
// record behind.
func (e *Engine) IngestFiles(ctx context.Context, files []FilePayload) (*Summary, error) {
	if err := e.ready(true); err != nil {
		return nil, err
	}

	descriptors := make([]models.FileDescriptor, len(files))
	for i, f := range files {
		descriptors[i] = f.descriptor()
	}

	checks := validation.ValidateFileBatch(descriptors, e.opts.FileRules)

	var outcomes []BatchOutcome
	valid := make([]FilePayload, 0, len(files))
	for i, c := range checks {
		if c.Err != nil {
			outcomes = append(outcomes, BatchOutcome{Name: c.File.Name, Outcome: OutcomeRejected, Reason: c.Err.Message})
			continue
		}
		valid = append(valid, files[i])
	}

	validDescriptors := make([]models.FileDescriptor, len(valid))
	for i, f := range valid {
		validDescriptors[i] = f.descriptor()
	}
	part := dedup.Files(validDescriptors, e.state.Items())

	dupKey := func(name string, size int64) string { return fmt.Sprintf("%s|%d", name, size) }
	dup := make(map[string]struct{}, len(part.Duplicate))
	for _, d := range part.Duplicate {
		dup[dupKey(d.Name, d.SizeBytes)] = struct{}{}
		outcomes = append(outcomes, BatchOutcome{Name: d.Name, Outcome: OutcomeDuplicate})
	}

	fresh := make([]FilePayload, 0, len(valid))
	for _, f := range valid {
		if _, isDup := dup[dupKey(f.Name, int64(len(f.Data)))]; !isDup {
			fresh = append(fresh, f)
		}
	}

	persisted := e.persistAll(ctx, len(fresh), func(ctx context.Context, i int) BatchOutcome {
		return e.persistFile(ctx, fresh[i])
	})
	outcomes = append(outcomes, persisted...)

	return e.finishBatch(ctx, outcomes), nil
}

func (e *Engine) persistFile(ctx context.Context, f FilePayload) BatchOutcome {
	mediaType := f.MediaType
	if mediaType == "" {
		mediaType = mime.TypeByExtension(filepath.Ext(f.Name))
	}

	blob, err := e.blobs.Upload(ctx, bytes.NewReader(f.Data), f.Name, mediaType)
	if err != nil {
		return BatchOutcome{Name: f.Name, Outcome: OutcomeFailed, Reason: fmt.Sprintf("upload: %v", err)}
	}

	_, err = e.records.Create(ctx, &models.ContentItem{
		Kind:        models.KindFile,
		DisplayName: f.Name,
		Locator:     blob.RetrievalURL,
		SizeBytes:   int64(len(f.Data)),
		MediaType:   mediaType,
		BlobKey:     blob.Key,
	})
	if err != nil {
		// The record never existed; clean up the orphaned blob, best-effort.
		if delErr := e.blobs.Delete(ctx, blob.Key); delErr != nil {
			e.logger.Warn(ctx, "orphaned blob cleanup failed", "key", blob.Key, "error", delErr)
		}
		return BatchOutcome{Name: f.Name, Outcome: OutcomeFailed, Reason: err.Error()}
	}

	return BatchOutcome{Name: f.Name, Outcome: OutcomeSucceeded}
}

// persistAll runs n persistence operations concurrently with no ordering
// guarantee, waits for all to settle, and returns their outcomes in input
// order. Individual failures never abort siblings.
func (e *Engine) persistAll(ctx context.Context, n int, persist func(ctx context.Context, i int) BatchOutcome) []BatchOutcome {
	if n == 0 {
		return nil
	}

	outcomes := make([]BatchOutcome, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			outcomes[i] = persist(ctx, i)
		}(i)
	}
	wg.Wait()

	return outcomes
}

// finishBatch builds the summary and triggers one authoritative refresh if
// anything was persisted. With zero successes no state changed, so no
// refresh is triggered.
func (e *Engine) finishBatch(ctx context.Context, outcomes []BatchOutcome) *Summary {
	summary := summarize(outcomes)

	e.logger.Info(ctx, "ingestion batch finished",
		"succeeded", summary.Succeeded,
		"duplicates", summary.Duplicates,
		"failed", len(summary.Failed))

	if summary.Succeeded > 0 {
		if err := e.state.Refresh(ctx, store.Query{}); err != nil {
			e.logger.Warn(ctx, "post-ingest refresh failed", "error", err)
		}
	}
	return summary
}

// UpdateItem writes the patch to the record store, then applies the same
// patch optimistically to the local state without waiting for a read-back.
func (e *Engine) UpdateItem(ctx context.Context, id string, patch models.ItemPatch) (*models.ContentItem, error) {
	if err := e.ready(false); err != nil {
		return nil, err
	}

	item, err := e.records.Update(ctx, id, patch)
	if err != nil {
		return nil, fmt.Errorf("error updating item: %w", err)
	}

	e.state.ApplyPatch(id, patch)
	return item, nil
}

// DeleteItem removes the record and its blob, if any. Blob deletion runs
// first and is best-effort: a failure is logged and record deletion still
// proceeds. The item is removed from local state on success.
func (e *Engine) DeleteItem(ctx context.Context, id string) error {
	if err := e.ready(false); err != nil {
		return err
	}

	item, err := e.records.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("error getting item: %w", err)
	}

	if item.BlobKey != "" && e.blobs != nil {
		if err := e.blobs.Delete(ctx, item.BlobKey); err != nil {
			e.logger.Warn(ctx, "blob deletion failed", "id", id, "key", item.BlobKey, "error", err)
		}
	}

	if err := e.records.Delete(ctx, id); err != nil {
		return fmt.Errorf("error deleting item: %w", err)
	}

	e.stopTimer(id)
	e.state.Remove(id)
	return nil
}

// ToggleAnonymize sets the anonymize preference on one item.
func (e *Engine) ToggleAnonymize(ctx context.Context, id string, value bool) (*models.ContentItem, error) {
	return e.UpdateItem(ctx, id, models.ItemPatch{Anonymize: models.Bool(value)})
}

// ProcessAll transitions every pending item to processing, then marks each
// one completed after the configured delay. The delayed transition is a
// scheduled task keyed by item id and is cancelled by Close or by deleting
// the item. Returns the number of items transitioned.
func (e *Engine) ProcessAll(ctx context.Context) (int, error) {
	if err := e.ready(false); err != nil {
		return 0, err
	}

	var pending []string
	for _, item := range e.state.Items() {
		if item.ProcessingState == models.StatePending {
			pending = append(pending, item.ID)
		}
	}

	count := 0
	for _, id := range pending {
		if _, err := e.UpdateItem(ctx, id, models.ItemPatch{ProcessingState: models.State(models.StateProcessing)}); err != nil {
			e.logger.Error(ctx, "failed to start processing", "id", id, "error", err)
			continue
		}
		count++
		e.scheduleCompletion(id)
	}

	return count, nil
}

func (e *Engine) scheduleCompletion(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return
	}
	if t, ok := e.timers[id]; ok {
		t.Stop()
	}

	e.timers[id] = time.AfterFunc(e.opts.ProcessingDelay, func() {
		e.stopTimer(id)

		// Detached from the triggering call on purpose: the completion
		// belongs to the engine's lifetime, not the caller's.
		ctx := context.Background()
		if _, err := e.UpdateItem(ctx, id, models.ItemPatch{ProcessingState: models.State(models.StateCompleted)}); err != nil {
			e.logger.Error(ctx, "failed to complete processing", "id", id, "error", err)
		}
	})
}

func (e *Engine) stopTimer(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if t, ok := e.timers[id]; ok {
		t.Stop()
		delete(e.timers, id)
	}
}

// ready checks the initialization precondition: it is the only error that
// short-circuits an entire call instead of becoming a per-item outcome.
func (e *Engine) ready(needBlobs bool) error {
	if e.records == nil || e.state == nil {
		return common.ErrorStoreNotReady
	}
	if needBlobs && e.blobs == nil {
		return common.ErrorStoreNotReady
	}
	return nil
}
