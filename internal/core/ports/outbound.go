package ports

import (
	"context"

	"github.com/mkravets/docvault/internal/core/domain"
)

// DocumentRepository persists and reads document records.
type DocumentRepository interface {
	ExistsByFingerprint(ctx context.Context, fingerprint string) (bool, error)
	// Insert returns an error wrapping domain.ErrDuplicate when the
	// fingerprint's unique index rejects the row.
	Insert(ctx context.Context, doc *domain.Document) error
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	ListAll(ctx context.Context) ([]domain.Document, error)
	Recent(ctx context.Context, limit int) ([]domain.Document, error)
	Search(ctx context.Context, query string) ([]domain.Document, error)
	CategoryCounts(ctx context.Context) ([]domain.CategoryCount, error)
	Stats(ctx context.Context) (domain.VaultStats, error)
	UpdateCategory(ctx context.Context, id, category string) error
	UpdateTitle(ctx context.Context, id, title string) error
	SetFavorite(ctx context.Context, id string, favorite bool) error
	DeleteByID(ctx context.Context, id string) error
}

// KeywordRepository persists the learned-keyword feedback loop.
type KeywordRepository interface {
	List(ctx context.Context) ([]domain.LearnedKeyword, error)
	// Upsert inserts the keyword or, when it already exists, reassigns its
	// category and increments its frequency.
	Upsert(ctx context.Context, kw domain.LearnedKeyword) error
}

// CategoryRepository persists user-defined categories.
type CategoryRepository interface {
	ListCustom(ctx context.Context) ([]domain.CategoryInfo, error)
	AddCustom(ctx context.Context, category domain.CategoryInfo) error
	DeleteCustom(ctx context.Context, name string) error
}

// Vault is the content-addressed encrypted store. Decrypt failures of any kind
// (missing object, truncated header, failed authentication) surface as errors
// wrapping domain.ErrUnavailable.
type Vault interface {
	EncryptAndStore(ctx context.Context, sourcePath, documentID string) (*domain.VaultObject, error)
	EncryptThumbnail(ctx context.Context, sourcePath, documentID string) (*domain.VaultObject, error)
	DecryptToTemp(ctx context.Context, documentID string) (string, error)
	DecryptThumbnailToTemp(ctx context.Context, documentID string) (string, error)
	Remove(ctx context.Context, documentID string) error
}

// KeyProvider hands out per-alias symmetric keys, creating them lazily on
// first use. Implementations must never reuse a key across aliases.
type KeyProvider interface {
	GetOrCreate(alias string) ([]byte, error)
	Delete(alias string) error
}

// Converter normalizes an input file into a single-document PDF container at
// destPath on scratch storage.
type Converter interface {
	Normalize(ctx context.Context, sourcePath, mimeType, destPath string) error
}

// TextExtractor runs recognition over an image or the first page of a PDF.
// Unsupported inputs yield an empty string and no error.
type TextExtractor interface {
	ExtractText(ctx context.Context, path, mimeType string) (string, error)
}

// Classifier maps extracted text plus filename to a category. Pure and
// deterministic; learned keywords always win over its own heuristics.
type Classifier interface {
	Classify(text, filename string, learned []domain.LearnedKeyword) string
}

// ImportQueue moves scan batches from producers to the import worker.
type ImportQueue interface {
	PublishImportBatch(ctx context.Context, batch []domain.ScannedFile) error
	SubscribeImportBatches(ctx context.Context, handler func(context.Context, []domain.ScannedFile) error) error
}

// Scanner is the external feed of import candidates.
type Scanner interface {
	Scan(ctx context.Context) ([]domain.ScannedFile, error)
}

// ImportObserver receives per-item and per-batch outcomes for metrics.
type ImportObserver interface {
	BatchStarted(size int)
	BatchFinished(imported int)
	ItemImported()
	ItemDuplicate()
	ItemFailed()
}
