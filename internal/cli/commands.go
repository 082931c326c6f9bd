package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/avoronov/harvest/internal/engine"
	"github.com/avoronov/harvest/internal/models"
	"github.com/avoronov/harvest/internal/store"
)

func queryAll() store.Query {
	return store.Query{}
}

// Paste reads URL lines from the scanner until a blank line, then ingests
// the collected text as one batch.
func (a *App) Paste(ctx context.Context, scanner *bufio.Scanner) error {
	printlnFn("Paste URLs, one per line; finish with an empty line:")

	var lines []string
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			break
		}
		lines = append(lines, line)
	}
	if len(lines) == 0 {
		printlnFn("Nothing to ingest.")
		return nil
	}

	summary, err := a.engine.IngestText(ctx, strings.Join(lines, "\n"))
	if err != nil {
		return err
	}
	a.printSummary(summary)
	return nil
}

// AddFiles reads the given paths from disk and ingests them as one batch.
func (a *App) AddFiles(ctx context.Context, paths []string) error {
	var files []engine.FilePayload
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return fmt.Errorf("reading %s: %w", p, err)
		}
		files = append(files, engine.FilePayload{
			Name: filepath.Base(p),
			Data: data,
		})
	}

	summary, err := a.engine.IngestFiles(ctx, files)
	if err != nil {
		return err
	}
	a.printSummary(summary)
	return nil
}

func (a *App) printSummary(s *engine.Summary) {
	printlnFn(fmt.Sprintf("Succeeded: %d, duplicates: %d, failed: %d", s.Succeeded, s.Duplicates, len(s.Failed)))
	for _, f := range s.Failed {
		printlnFn(fmt.Sprintf("  %s: %s", f.Name, f.Reason))
	}
}

// List refreshes the view and prints the first page.
func (a *App) List(ctx context.Context) error {
	if err := a.state.Refresh(ctx, queryAll()); err != nil {
		return err
	}
	a.printItems()
	return nil
}

// More loads and prints the next page.
func (a *App) More(ctx context.Context) error {
	if !a.state.HasMore() {
		printlnFn("No more items.")
		return nil
	}
	if err := a.state.LoadMore(ctx); err != nil {
		return err
	}
	a.printItems()
	return nil
}

func (a *App) printItems() {
	items := a.state.Items()
	if len(items) == 0 {
		printlnFn("No items.")
		return
	}
	for _, item := range items {
		line := fmt.Sprintf("%s  [%s/%s]  %s", item.ID, item.Kind, item.ProcessingState, item.DisplayName)
		if item.Kind == models.KindFile {
			line += fmt.Sprintf("  (%d bytes)", item.SizeBytes)
		}
		if item.Anonymize {
			line += "  [anon]"
		}
		printlnFn(line)
	}
	if a.state.HasMore() {
		printlnFn("(more available — type 'more')")
	}
}

// Stats prints aggregate statistics over the current view.
func (a *App) Stats(ctx context.Context) error {
	stats := a.state.Stats()
	printlnFn(fmt.Sprintf("Total: %d (urls: %d, files: %d), file bytes: %d",
		stats.Total, stats.ByKind[models.KindURL], stats.ByKind[models.KindFile], stats.TotalFileSize))
	for _, s := range []models.ProcessingState{models.StatePending, models.StateProcessing, models.StateCompleted, models.StateError} {
		if n := stats.ByState[s]; n > 0 {
			printlnFn(fmt.Sprintf("  %s: %d", s, n))
		}
	}
	return nil
}

// Refresh re-reads the list from the record store.
func (a *App) Refresh(ctx context.Context) error {
	if err := a.state.Refresh(ctx, queryAll()); err != nil {
		return err
	}
	printlnFn(fmt.Sprintf("Refreshed, %d items.", a.state.Stats().Total))
	return nil
}

// Delete removes an item and, best-effort, its blob.
func (a *App) Delete(ctx context.Context, id string) error {
	if err := a.engine.DeleteItem(ctx, id); err != nil {
		return err
	}
	printlnFn("Deleted.")
	return nil
}

// Anonymize toggles the anonymize preference on one item.
func (a *App) Anonymize(ctx context.Context, id string, value bool) error {
	if _, err := a.engine.ToggleAnonymize(ctx, id, value); err != nil {
		return err
	}
	printlnFn("Updated.")
	return nil
}

// Process starts processing every pending item.
func (a *App) Process(ctx context.Context) error {
	count, err := a.engine.ProcessAll(ctx)
	if err != nil {
		return err
	}
	printlnFn(fmt.Sprintf("Processing %d items.", count))
	return nil
}
