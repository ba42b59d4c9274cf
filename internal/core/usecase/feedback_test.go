package usecase

import (
	"context"
	"testing"

	"github.com/mkravets/docvault/internal/core/domain"
)

func seedDocument(t *testing.T, repo *fakeRepo, id, title, filename string) {
	t.Helper()
	err := repo.Insert(context.Background(), &domain.Document{
		ID:                         id,
		OriginalFileName:           filename,
		OriginalContentFingerprint: "fp-" + id,
		Title:                      title,
		Category:                   domain.CategoryOther,
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
}

func TestCorrectCategoryLearnsKeywords(t *testing.T) {
	repo := newFakeRepo()
	keywords := &fakeKeywords{}
	uc := NewCorrectionUseCase(repo, keywords, testLogger())
	seedDocument(t, repo, "d1", "Apollo_Prescription_2024-01-05", "apollo scan.pdf")

	if err := uc.CorrectCategory(context.Background(), "d1", domain.CategoryMedical); err != nil {
		t.Fatalf("CorrectCategory: %v", err)
	}

	doc, _ := repo.GetByID(context.Background(), "d1")
	if doc.EffectiveCategory() != domain.CategoryMedical {
		t.Fatalf("effective category %q", doc.EffectiveCategory())
	}

	learned, _ := keywords.List(context.Background())
	byWord := make(map[string]domain.LearnedKeyword)
	for _, kw := range learned {
		byWord[kw.Keyword] = kw
	}
	for _, want := range []string{"apollo", "prescription", "scan"} {
		kw, ok := byWord[want]
		if !ok {
			t.Fatalf("keyword %q not learned, have %v", want, learned)
		}
		if kw.AssignedCategory != domain.CategoryMedical {
			t.Fatalf("keyword %q assigned %q", want, kw.AssignedCategory)
		}
	}
	if _, ok := byWord["2024-01-05"]; ok {
		t.Fatal("date token should not be learned")
	}
}

func TestCorrectCategoryIncrementsFrequency(t *testing.T) {
	repo := newFakeRepo()
	keywords := &fakeKeywords{}
	uc := NewCorrectionUseCase(repo, keywords, testLogger())
	seedDocument(t, repo, "d1", "Apollo_Receipt", "a.pdf")
	seedDocument(t, repo, "d2", "Apollo_Invoice", "b.pdf")

	if err := uc.CorrectCategory(context.Background(), "d1", domain.CategoryMedical); err != nil {
		t.Fatalf("first correction: %v", err)
	}
	if err := uc.CorrectCategory(context.Background(), "d2", domain.CategoryMedical); err != nil {
		t.Fatalf("second correction: %v", err)
	}

	learned, _ := keywords.List(context.Background())
	for _, kw := range learned {
		if kw.Keyword == "apollo" {
			if kw.Frequency != 2 {
				t.Fatalf("apollo frequency %d, want 2", kw.Frequency)
			}
			return
		}
	}
	t.Fatal("apollo keyword missing")
}

func TestCorrectCategoryRejectsEmpty(t *testing.T) {
	repo := newFakeRepo()
	uc := NewCorrectionUseCase(repo, &fakeKeywords{}, testLogger())
	seedDocument(t, repo, "d1", "T", "a.pdf")

	err := uc.CorrectCategory(context.Background(), "d1", "   ")
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("got %v, want invalid input", err)
	}
}

func TestCorrectCategoryUnknownDocument(t *testing.T) {
	uc := NewCorrectionUseCase(newFakeRepo(), &fakeKeywords{}, testLogger())
	err := uc.CorrectCategory(context.Background(), "missing", domain.CategoryMedical)
	if !domain.IsKind(err, domain.ErrDocumentNotFound) {
		t.Fatalf("got %v, want not found", err)
	}
}

func TestCorrectTitle(t *testing.T) {
	repo := newFakeRepo()
	uc := NewCorrectionUseCase(repo, &fakeKeywords{}, testLogger())
	seedDocument(t, repo, "d1", "Generated_Title", "a.pdf")

	if err := uc.CorrectTitle(context.Background(), "d1", "March rent receipt"); err != nil {
		t.Fatalf("CorrectTitle: %v", err)
	}
	doc, _ := repo.GetByID(context.Background(), "d1")
	if doc.EffectiveTitle() != "March rent receipt" {
		t.Fatalf("effective title %q", doc.EffectiveTitle())
	}
	if doc.Title != "Generated_Title" {
		t.Fatalf("generated title overwritten: %q", doc.Title)
	}
}

func TestDeleteRemovesRowAndVaultObject(t *testing.T) {
	repo := newFakeRepo()
	vault := newFakeVault()
	coord := newCoordinator(repo, vault)
	drain(t, coord.ImportFiles(context.Background(), []domain.ScannedFile{pdfFile("a.pdf", "fp-a")}))

	var id string
	for docID := range repo.docs {
		id = docID
	}

	uc := NewDocumentUseCase(repo, vault, testLogger())
	if err := uc.Delete(context.Background(), id); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if repo.count() != 0 {
		t.Fatal("row survived delete")
	}
	if _, err := vault.DecryptToTemp(context.Background(), id); !domain.IsKind(err, domain.ErrUnavailable) {
		t.Fatalf("vault object survived delete: %v", err)
	}

	// Deleting again reports not found.
	if err := uc.Delete(context.Background(), id); !domain.IsKind(err, domain.ErrDocumentNotFound) {
		t.Fatalf("second delete: %v", err)
	}
}

func TestOpenToTempUnknownDocument(t *testing.T) {
	uc := NewDocumentUseCase(newFakeRepo(), newFakeVault(), testLogger())
	if _, err := uc.OpenToTemp(context.Background(), "missing"); !domain.IsKind(err, domain.ErrDocumentNotFound) {
		t.Fatalf("got %v, want not found", err)
	}
}
