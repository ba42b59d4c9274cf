package ports

import (
	"context"

	"github.com/mkravets/docvault/internal/core/domain"
)

// Importer is the inbound contract for running one import batch. The returned
// channel carries the progress stream and is closed once the batch has settled
// back to idle.
type Importer interface {
	ImportFiles(ctx context.Context, batch []domain.ScannedFile) <-chan domain.ImportStatus
}

// Corrector applies user feedback to a stored document and feeds the
// classifier's learned-keyword loop.
type Corrector interface {
	CorrectCategory(ctx context.Context, documentID, category string) error
	CorrectTitle(ctx context.Context, documentID, title string) error
	SetFavorite(ctx context.Context, documentID string, favorite bool) error
}

// DocumentReader is the inbound read model over stored documents.
type DocumentReader interface {
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	Recent(ctx context.Context, limit int) ([]domain.Document, error)
	Search(ctx context.Context, query string) ([]domain.Document, error)
	CategoryCounts(ctx context.Context) ([]domain.CategoryCount, error)
	Stats(ctx context.Context) (domain.VaultStats, error)
}

// CategoryManager exposes the merged category set and the lifecycle of
// user-defined categories.
type CategoryManager interface {
	List(ctx context.Context) ([]domain.CategoryInfo, error)
	Add(ctx context.Context, category domain.CategoryInfo) error
	Delete(ctx context.Context, name string) error
}

// DocumentOpener materializes a stored document's plaintext for viewing or
// sharing. The returned path points at a temporary file the caller owns.
type DocumentOpener interface {
	OpenToTemp(ctx context.Context, documentID string) (string, error)
	Delete(ctx context.Context, documentID string) error
}
