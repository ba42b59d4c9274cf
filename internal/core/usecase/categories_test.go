package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/mkravets/docvault/internal/core/domain"
)

type fakeCategories struct {
	stored []domain.CategoryInfo
}

func (f *fakeCategories) ListCustom(_ context.Context) ([]domain.CategoryInfo, error) {
	return f.stored, nil
}

func (f *fakeCategories) AddCustom(_ context.Context, category domain.CategoryInfo) error {
	for i, c := range f.stored {
		if c.Name == category.Name {
			f.stored[i] = category
			return nil
		}
	}
	f.stored = append(f.stored, category)
	return nil
}

func (f *fakeCategories) DeleteCustom(_ context.Context, name string) error {
	for i, c := range f.stored {
		if c.Name == name {
			f.stored = append(f.stored[:i], f.stored[i+1:]...)
			return nil
		}
	}
	return domain.WrapError(domain.ErrNotFound, "delete custom category", errors.New("no rows"))
}

func TestListMergesSourcesInOrder(t *testing.T) {
	repo := &fakeCategories{stored: []domain.CategoryInfo{
		{Name: "Warranty", Emoji: "🧰"},
		{Name: "financial", Emoji: "💸"}, // shadows a built-in, must be skipped
	}}
	uc := NewCategoryUseCase(repo, []domain.CategoryInfo{{Name: "Travel", Emoji: "✈️"}})

	list, err := uc.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}

	builtins := domain.BuiltinCategories()
	if len(list) != len(builtins)+2 {
		t.Fatalf("got %d categories, want %d", len(list), len(builtins)+2)
	}
	if list[0].Name != builtins[0].Name {
		t.Fatalf("built-ins must come first, got %q", list[0].Name)
	}
	if got := list[len(builtins)].Name; got != "Travel" {
		t.Fatalf("vocabulary category = %q, want Travel", got)
	}
	if got := list[len(list)-1].Name; got != "Warranty" {
		t.Fatalf("custom category = %q, want Warranty", got)
	}
}

func TestAddRejectsReservedAndEmptyNames(t *testing.T) {
	uc := NewCategoryUseCase(&fakeCategories{}, nil)

	for _, name := range []string{"", "   ", "Financial", "financial"} {
		err := uc.Add(context.Background(), domain.CategoryInfo{Name: name})
		if !domain.IsKind(err, domain.ErrInvalidInput) {
			t.Fatalf("Add(%q) error = %v, want invalid input", name, err)
		}
	}
}

func TestAddDefaultsEmoji(t *testing.T) {
	repo := &fakeCategories{}
	uc := NewCategoryUseCase(repo, nil)

	if err := uc.Add(context.Background(), domain.CategoryInfo{Name: "Warranty"}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if len(repo.stored) != 1 || repo.stored[0].Emoji == "" {
		t.Fatalf("stored = %+v", repo.stored)
	}
}

func TestDeleteGuardsBuiltins(t *testing.T) {
	repo := &fakeCategories{stored: []domain.CategoryInfo{{Name: "Warranty", Emoji: "🧰"}}}
	uc := NewCategoryUseCase(repo, nil)

	if err := uc.Delete(context.Background(), "Medical"); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("deleting a built-in: %v", err)
	}
	if err := uc.Delete(context.Background(), "Warranty"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := uc.Delete(context.Background(), "Warranty"); !domain.IsKind(err, domain.ErrNotFound) {
		t.Fatalf("second delete: %v", err)
	}
}
