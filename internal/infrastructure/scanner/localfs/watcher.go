package localfs

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/mkravets/docvault/internal/core/domain"
)

// Watcher publishes a single-file batch for every new or rewritten document
// in the watched roots. Writes are debounced so a file still being copied is
// only picked up once it settles.
type Watcher struct {
	scanner *Scanner
	publish func(context.Context, []domain.ScannedFile) error
	logger  *slog.Logger

	settle time.Duration
}

func NewWatcher(scanner *Scanner, publish func(context.Context, []domain.ScannedFile) error, logger *slog.Logger) *Watcher {
	return &Watcher{
		scanner: scanner,
		publish: publish,
		logger:  logger,
		settle:  2 * time.Second,
	}
}

// Watch blocks until ctx is canceled.
func (w *Watcher) Watch(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fsw.Close()

	for _, root := range w.scanner.roots {
		if err := fsw.Add(root); err != nil {
			w.logger.Warn("watch root skipped", "root", root, "error", err)
		}
	}

	pending := make(map[string]time.Time)
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				pending[event.Name] = time.Now()
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", "error", err)

		case now := <-ticker.C:
			for path, last := range pending {
				if now.Sub(last) < w.settle {
					continue
				}
				delete(pending, path)
				w.emit(ctx, path)
			}
		}
	}
}

func (w *Watcher) emit(ctx context.Context, path string) {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return
	}

	file, ok := w.scanner.candidate(path, fs.FileInfoToDirEntry(info))
	if !ok {
		return
	}

	w.logger.Info("watched file settled", "path", path)
	if err := w.publish(ctx, []domain.ScannedFile{file}); err != nil {
		w.logger.Error("publish failed", "path", path, "error", err)
	}
}
