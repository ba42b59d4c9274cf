package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/mkravets/docvault/internal/core/domain"
	"github.com/mkravets/docvault/internal/core/metadata"
	"github.com/mkravets/docvault/internal/core/ports"
	"github.com/mkravets/docvault/internal/core/title"
)

// ImportCoordinator drives a batch of scanned files through conversion,
// extraction, classification, and encrypted storage, reporting progress on a
// channel as items finish.
type ImportCoordinator struct {
	repo       ports.DocumentRepository
	keywords   ports.KeywordRepository
	vault      ports.Vault
	converter  ports.Converter
	extractor  ports.TextExtractor
	classifier ports.Classifier
	observer   ports.ImportObserver
	logger     *slog.Logger

	concurrency int
	chunkSize   int
	idleDelay   time.Duration
	scratchDir  string
}

type ImportOption func(*ImportCoordinator)

func WithConcurrency(n int) ImportOption {
	return func(c *ImportCoordinator) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

func WithChunkSize(n int) ImportOption {
	return func(c *ImportCoordinator) {
		if n > 0 {
			c.chunkSize = n
		}
	}
}

func WithIdleDelay(d time.Duration) ImportOption {
	return func(c *ImportCoordinator) {
		if d >= 0 {
			c.idleDelay = d
		}
	}
}

func WithScratchDir(dir string) ImportOption {
	return func(c *ImportCoordinator) {
		if dir != "" {
			c.scratchDir = dir
		}
	}
}

func WithImportObserver(obs ports.ImportObserver) ImportOption {
	return func(c *ImportCoordinator) {
		if obs != nil {
			c.observer = obs
		}
	}
}

func NewImportCoordinator(
	repo ports.DocumentRepository,
	keywords ports.KeywordRepository,
	vault ports.Vault,
	converter ports.Converter,
	extractor ports.TextExtractor,
	classifier ports.Classifier,
	logger *slog.Logger,
	opts ...ImportOption,
) *ImportCoordinator {
	c := &ImportCoordinator{
		repo:        repo,
		keywords:    keywords,
		vault:       vault,
		converter:   converter,
		extractor:   extractor,
		classifier:  classifier,
		observer:    noopObserver{},
		logger:      logger,
		concurrency: 3,
		chunkSize:   50,
		idleDelay:   2 * time.Second,
		scratchDir:  os.TempDir(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ImportFiles processes the batch asynchronously and returns a channel of
// status updates. The channel is buffered so slow consumers never stall the
// pipeline, and it is closed once the batch settles back to idle.
func (c *ImportCoordinator) ImportFiles(ctx context.Context, batch []domain.ScannedFile) <-chan domain.ImportStatus {
	total := len(batch)
	updates := make(chan domain.ImportStatus, total+4)

	if total == 0 {
		updates <- domain.ImportStatus{Phase: domain.ImportIdle}
		close(updates)
		return updates
	}

	go c.run(ctx, batch, updates)
	return updates
}

func (c *ImportCoordinator) run(ctx context.Context, batch []domain.ScannedFile, updates chan<- domain.ImportStatus) {
	defer close(updates)

	total := len(batch)
	started := time.Now()
	c.observer.BatchStarted(total)

	learned, err := c.keywords.List(ctx)
	if err != nil {
		c.logger.Warn("learned keywords unavailable, classifying without them", "error", err)
		learned = nil
	}

	var (
		mu        sync.Mutex
		processed int
		imported  int
	)

	finishItem := func(name string) {
		mu.Lock()
		processed++
		updates <- domain.ImportStatus{
			Phase:       domain.ImportProgress,
			Current:     processed,
			Total:       total,
			CurrentName: name,
		}
		mu.Unlock()
	}

	for start := 0; start < total; start += c.chunkSize {
		end := start + c.chunkSize
		if end > total {
			end = total
		}

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(c.concurrency)

		for _, file := range batch[start:end] {
			g.Go(func() error {
				ok, err := c.importOne(gctx, file, learned)
				if err != nil {
					c.logger.Error("import failed",
						"file", file.DisplayName, "error", err)
					c.observer.ItemFailed()
				} else if ok {
					mu.Lock()
					imported++
					mu.Unlock()
					c.observer.ItemImported()
				} else {
					c.observer.ItemDuplicate()
				}
				finishItem(file.DisplayName)
				// Item failures never abort the batch.
				return nil
			})
		}
		_ = g.Wait()
		if gctx.Err() != nil {
			break
		}
	}

	c.observer.BatchFinished(imported)
	c.logger.Info("import batch finished",
		"total", total, "imported", imported, "elapsed", time.Since(started))

	updates <- domain.ImportStatus{
		Phase:    domain.ImportSuccess,
		Current:  processed,
		Total:    total,
		Imported: imported,
	}

	select {
	case <-time.After(c.idleDelay):
	case <-ctx.Done():
	}
	updates <- domain.ImportStatus{Phase: domain.ImportIdle}
}

// importOne returns (true, nil) when a new document was stored and
// (false, nil) when the file was a duplicate.
func (c *ImportCoordinator) importOne(ctx context.Context, file domain.ScannedFile, learned []domain.LearnedKeyword) (bool, error) {
	exists, err := c.repo.ExistsByFingerprint(ctx, file.ContentFingerprint)
	if err != nil {
		return false, domain.WrapError(domain.ErrUnavailable, "import.dedup", err)
	}
	if exists {
		c.logger.Debug("skipping duplicate", "file", file.DisplayName)
		return false, nil
	}

	text, err := c.extractor.ExtractText(ctx, file.SourcePath, file.MimeType)
	if err != nil {
		c.logger.Warn("text extraction failed, importing without text",
			"file", file.DisplayName, "error", err)
		text = ""
	}

	meta := metadata.Extract(text)
	category := c.classifier.Classify(text, file.DisplayName, learned)
	generated := title.Generate(text, meta, file.DisplayName)

	normalized, cleanup, err := c.normalize(ctx, file)
	if err != nil {
		return false, err
	}
	defer cleanup()

	id := uuid.NewString()
	obj, err := c.vault.EncryptAndStore(ctx, normalized, id)
	if err != nil {
		return false, domain.WrapError(domain.ErrUnavailable, "import.encrypt", err)
	}
	if strings.HasPrefix(file.MimeType, "image/") {
		if _, err := c.vault.EncryptThumbnail(ctx, file.SourcePath, id); err != nil {
			c.logger.Warn("thumbnail storage failed", "id", id, "error", err)
		}
	}

	metaBlob, err := json.Marshal(meta)
	if err != nil {
		metaBlob = []byte("{}")
	}

	doc := domain.Document{
		ID:                         id,
		OriginalFileName:           file.DisplayName,
		OriginalContentFingerprint: file.ContentFingerprint,
		VaultObjectName:            obj.Name,
		Title:                      generated,
		Category:                   category,
		ExtractedText:              text,
		MetadataBlob:               string(metaBlob),
		Confidence:                 classificationConfidence(category),
		FileSizeBytes:              file.SizeBytes,
		MimeType:                   file.MimeType,
		SourceFolder:               filepath.Dir(file.SourcePath),
		ImportedAt:                 time.Now().UTC(),
	}

	if err := c.repo.Insert(ctx, &doc); err != nil {
		// The vault object must not outlive a rejected row.
		if rmErr := c.vault.Remove(ctx, id); rmErr != nil {
			c.logger.Error("orphaned vault object", "id", id, "error", rmErr)
		}
		if domain.IsKind(err, domain.ErrDuplicate) {
			c.logger.Debug("concurrent duplicate resolved", "file", file.DisplayName)
			return false, nil
		}
		return false, domain.WrapError(domain.ErrUnavailable, "import.insert", err)
	}
	return true, nil
}

// normalize converts the source file to the canonical stored format, returning
// the path to feed into the vault plus a cleanup for any intermediate file.
func (c *ImportCoordinator) normalize(ctx context.Context, file domain.ScannedFile) (string, func(), error) {
	if file.MimeType == "application/pdf" {
		return file.SourcePath, func() {}, nil
	}

	dest := filepath.Join(c.scratchDir, fmt.Sprintf("convert-%s.pdf", uuid.NewString()))
	if err := c.converter.Normalize(ctx, file.SourcePath, file.MimeType, dest); err != nil {
		return "", nil, domain.WrapError(domain.ErrInvalidInput, "import.convert", err)
	}
	return dest, func() { _ = os.Remove(dest) }, nil
}

// classificationConfidence is a coarse score stored alongside the category so
// callers can surface weak picks for review.
func classificationConfidence(category string) float64 {
	if category == domain.CategoryOther {
		return 0.3
	}
	return 0.9
}

type noopObserver struct{}

func (noopObserver) BatchStarted(int)  {}
func (noopObserver) BatchFinished(int) {}
func (noopObserver) ItemImported()     {}
func (noopObserver) ItemDuplicate()    {}
func (noopObserver) ItemFailed()       {}
