package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceWindow absorbs the burst of write events editors emit while
// saving a workbook.
const debounceWindow = 2 * time.Second

// Watch re-runs ingestion whenever the workbook file changes, until ctx is
// cancelled. It watches the containing directory because editors typically
// replace the file rather than write it in place.
func Watch(ctx context.Context, ingestor *Ingestor, workbookPath string, logger *slog.Logger) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(workbookPath)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}
	logger.Info("watching workbook for changes", "workbook", workbookPath)

	var timer *time.Timer
	var pending <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return fmt.Errorf("watcher closed")
			}
			if filepath.Clean(event.Name) != filepath.Clean(workbookPath) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounceWindow)
			} else {
				timer.Reset(debounceWindow)
			}
			pending = timer.C

		case err, ok := <-watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher closed")
			}
			logger.Error("watching workbook", "error", err)

		case <-pending:
			pending = nil
			if err := ingestor.Run(ctx, workbookPath); err != nil {
				logger.Error("re-ingesting workbook", "error", err)
			}
		}
	}
}
