package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/mkravets/docvault/internal/core/domain"
	"github.com/mkravets/docvault/internal/core/ports"
)

var (
	errEmptyValue       = errors.New("empty value")
	errReservedCategory = errors.New("category name is reserved")
)

const defaultRecentLimit = 20

// DocumentUseCase is the read and lifecycle surface over stored documents.
type DocumentUseCase struct {
	repo   ports.DocumentRepository
	vault  ports.Vault
	logger *slog.Logger
}

func NewDocumentUseCase(repo ports.DocumentRepository, vault ports.Vault, logger *slog.Logger) *DocumentUseCase {
	return &DocumentUseCase{repo: repo, vault: vault, logger: logger}
}

func (u *DocumentUseCase) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	return u.repo.GetByID(ctx, id)
}

func (u *DocumentUseCase) Recent(ctx context.Context, limit int) ([]domain.Document, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	return u.repo.Recent(ctx, limit)
}

func (u *DocumentUseCase) Search(ctx context.Context, query string) ([]domain.Document, error) {
	return u.repo.Search(ctx, query)
}

func (u *DocumentUseCase) CategoryCounts(ctx context.Context) ([]domain.CategoryCount, error) {
	return u.repo.CategoryCounts(ctx)
}

func (u *DocumentUseCase) Stats(ctx context.Context) (domain.VaultStats, error) {
	return u.repo.Stats(ctx)
}

// OpenToTemp decrypts the document into a temporary file and returns its path.
// The caller owns the file and removes it when done.
func (u *DocumentUseCase) OpenToTemp(ctx context.Context, documentID string) (string, error) {
	if _, err := u.repo.GetByID(ctx, documentID); err != nil {
		return "", err
	}
	return u.vault.DecryptToTemp(ctx, documentID)
}

// Delete removes the database row first so a half-failed delete leaves an
// unreachable vault object rather than a dangling row.
func (u *DocumentUseCase) Delete(ctx context.Context, documentID string) error {
	if err := u.repo.DeleteByID(ctx, documentID); err != nil {
		return err
	}
	if err := u.vault.Remove(ctx, documentID); err != nil {
		u.logger.Error("vault object removal failed", "id", documentID, "error", err)
	}
	return nil
}
