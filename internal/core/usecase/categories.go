package usecase

import (
	"context"
	"strings"

	"github.com/mkravets/docvault/internal/core/domain"
	"github.com/mkravets/docvault/internal/core/ports"
)

// CategoryUseCase merges the fixed built-in category set, categories
// contributed by a vocabulary file, and user-defined ones from storage.
type CategoryUseCase struct {
	repo       ports.CategoryRepository
	vocabulary []domain.CategoryInfo
}

func NewCategoryUseCase(repo ports.CategoryRepository, vocabulary []domain.CategoryInfo) *CategoryUseCase {
	return &CategoryUseCase{repo: repo, vocabulary: vocabulary}
}

// List returns every known category, built-ins first. Names already covered by
// an earlier source are skipped so a stored duplicate cannot shadow a built-in.
func (u *CategoryUseCase) List(ctx context.Context) ([]domain.CategoryInfo, error) {
	custom, err := u.repo.ListCustom(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var out []domain.CategoryInfo
	for _, group := range [][]domain.CategoryInfo{domain.BuiltinCategories(), u.vocabulary, custom} {
		for _, c := range group {
			key := strings.ToLower(c.Name)
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, c)
		}
	}
	return out, nil
}

func (u *CategoryUseCase) Add(ctx context.Context, category domain.CategoryInfo) error {
	category.Name = strings.TrimSpace(category.Name)
	if category.Name == "" {
		return domain.WrapError(domain.ErrInvalidInput, "add category", errEmptyValue)
	}
	if u.isReserved(category.Name) {
		return domain.WrapError(domain.ErrInvalidInput, "add category", errReservedCategory)
	}
	if category.Emoji == "" {
		category.Emoji = "📁"
	}
	return u.repo.AddCustom(ctx, category)
}

// Delete removes a user-defined category. Built-ins and vocabulary categories
// are not deletable.
func (u *CategoryUseCase) Delete(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.WrapError(domain.ErrInvalidInput, "delete category", errEmptyValue)
	}
	if u.isReserved(name) {
		return domain.WrapError(domain.ErrInvalidInput, "delete category", errReservedCategory)
	}
	return u.repo.DeleteCustom(ctx, name)
}

func (u *CategoryUseCase) isReserved(name string) bool {
	for _, group := range [][]domain.CategoryInfo{domain.BuiltinCategories(), u.vocabulary} {
		for _, c := range group {
			if strings.EqualFold(c.Name, name) {
				return true
			}
		}
	}
	return false
}
