package httpadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mkravets/docvault/internal/core/domain"
	"github.com/mkravets/docvault/internal/infrastructure/export"
)

type stubStore struct {
	docs      map[string]domain.Document
	published [][]domain.ScannedFile
	scanBatch []domain.ScannedFile
}

func newStubStore() *stubStore {
	return &stubStore{docs: make(map[string]domain.Document)}
}

func (s *stubStore) GetByID(_ context.Context, id string) (*domain.Document, error) {
	doc, ok := s.docs[id]
	if !ok {
		return nil, domain.WrapError(domain.ErrDocumentNotFound, "stub.get", fmt.Errorf("no row"))
	}
	return &doc, nil
}

func (s *stubStore) Recent(_ context.Context, limit int) ([]domain.Document, error) {
	var out []domain.Document
	for _, doc := range s.docs {
		out = append(out, doc)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *stubStore) Search(context.Context, string) ([]domain.Document, error) {
	return nil, nil
}

func (s *stubStore) CategoryCounts(context.Context) ([]domain.CategoryCount, error) {
	return []domain.CategoryCount{{Category: "Financial", Count: 2}}, nil
}

func (s *stubStore) Stats(context.Context) (domain.VaultStats, error) {
	var size int64
	for _, doc := range s.docs {
		size += doc.FileSizeBytes
	}
	return domain.VaultStats{TotalDocuments: int64(len(s.docs)), TotalSizeBytes: size}, nil
}

func (s *stubStore) OpenToTemp(_ context.Context, id string) (string, error) {
	if _, ok := s.docs[id]; !ok {
		return "", domain.WrapError(domain.ErrDocumentNotFound, "stub.open", fmt.Errorf("no row"))
	}
	return "", domain.WrapError(domain.ErrUnavailable, "stub.open", fmt.Errorf("no vault in test"))
}

func (s *stubStore) Delete(_ context.Context, id string) error {
	if _, ok := s.docs[id]; !ok {
		return domain.WrapError(domain.ErrDocumentNotFound, "stub.delete", fmt.Errorf("no row"))
	}
	delete(s.docs, id)
	return nil
}

func (s *stubStore) CorrectCategory(_ context.Context, id, category string) error {
	doc, ok := s.docs[id]
	if !ok {
		return domain.WrapError(domain.ErrDocumentNotFound, "stub.correct", fmt.Errorf("no row"))
	}
	doc.UserCategory = &category
	s.docs[id] = doc
	return nil
}

func (s *stubStore) CorrectTitle(_ context.Context, id, title string) error {
	doc, ok := s.docs[id]
	if !ok {
		return domain.WrapError(domain.ErrDocumentNotFound, "stub.correct", fmt.Errorf("no row"))
	}
	doc.UserTitle = &title
	s.docs[id] = doc
	return nil
}

func (s *stubStore) SetFavorite(_ context.Context, id string, favorite bool) error {
	doc, ok := s.docs[id]
	if !ok {
		return domain.WrapError(domain.ErrDocumentNotFound, "stub.favorite", fmt.Errorf("no row"))
	}
	doc.IsFavorite = favorite
	s.docs[id] = doc
	return nil
}

func (s *stubStore) Scan(context.Context) ([]domain.ScannedFile, error) {
	return s.scanBatch, nil
}

func (s *stubStore) PublishImportBatch(_ context.Context, batch []domain.ScannedFile) error {
	s.published = append(s.published, batch)
	return nil
}

func (s *stubStore) SubscribeImportBatches(context.Context, func(context.Context, []domain.ScannedFile) error) error {
	return nil
}

func (s *stubStore) EncryptAndStore(context.Context, string, string) (*domain.VaultObject, error) {
	return nil, fmt.Errorf("not used")
}

func (s *stubStore) EncryptThumbnail(context.Context, string, string) (*domain.VaultObject, error) {
	return nil, fmt.Errorf("not used")
}

func (s *stubStore) DecryptToTemp(context.Context, string) (string, error) {
	return "", domain.WrapError(domain.ErrUnavailable, "stub.decrypt", fmt.Errorf("no vault in test"))
}

func (s *stubStore) DecryptThumbnailToTemp(context.Context, string) (string, error) {
	return "", domain.WrapError(domain.ErrUnavailable, "stub.decrypt", fmt.Errorf("no vault in test"))
}

func (s *stubStore) Remove(context.Context, string) error { return nil }

// stubRepo backs the XLSX exporter in tests.
type stubRepo struct {
	stubStore
}

func (r *stubRepo) ExistsByFingerprint(context.Context, string) (bool, error) { return false, nil }
func (r *stubRepo) Insert(context.Context, *domain.Document) error            { return nil }
func (r *stubRepo) ListAll(context.Context) ([]domain.Document, error) {
	var out []domain.Document
	for _, doc := range r.docs {
		out = append(out, doc)
	}
	return out, nil
}
func (r *stubRepo) UpdateCategory(ctx context.Context, id, category string) error {
	return r.CorrectCategory(ctx, id, category)
}
func (r *stubRepo) UpdateTitle(ctx context.Context, id, title string) error {
	return r.CorrectTitle(ctx, id, title)
}
func (r *stubRepo) DeleteByID(ctx context.Context, id string) error {
	return r.Delete(ctx, id)
}

type stubCategories struct {
	custom []domain.CategoryInfo
}

func (s *stubCategories) List(context.Context) ([]domain.CategoryInfo, error) {
	return append(domain.BuiltinCategories(), s.custom...), nil
}

func (s *stubCategories) Add(_ context.Context, category domain.CategoryInfo) error {
	if strings.TrimSpace(category.Name) == "" {
		return domain.WrapError(domain.ErrInvalidInput, "stub.add", fmt.Errorf("empty name"))
	}
	s.custom = append(s.custom, category)
	return nil
}

func (s *stubCategories) Delete(_ context.Context, name string) error {
	for i, c := range s.custom {
		if c.Name == name {
			s.custom = append(s.custom[:i], s.custom[i+1:]...)
			return nil
		}
	}
	return domain.WrapError(domain.ErrNotFound, "stub.delete", fmt.Errorf("no row"))
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestRouter(store *stubStore) http.Handler {
	repo := &stubRepo{stubStore: *newStubStore()}
	exporter := export.NewService(repo, testLogger())
	rt := NewRouter(store, store, store, store, store, store, &stubCategories{}, exporter, testLogger(), 0)
	return rt.Handler()
}

func seedStore() *stubStore {
	store := newStubStore()
	store.docs["d1"] = domain.Document{
		ID:               "d1",
		OriginalFileName: "scan.jpg",
		Title:            "Amazon_Invoice",
		Category:         "Receipts",
		MimeType:         "image/jpeg",
		FileSizeBytes:    2048,
		ImportedAt:       time.Now(),
	}
	return store
}

func TestHealthz(t *testing.T) {
	handler := newTestRouter(newStubStore())
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	if rec.Header().Get("X-Request-Id") == "" {
		t.Fatal("missing request id header")
	}
}

func TestGetDocument(t *testing.T) {
	handler := newTestRouter(seedStore())
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/documents/d1", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, body %s", rec.Code, rec.Body)
	}
	var doc domain.Document
	if err := json.Unmarshal(rec.Body.Bytes(), &doc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if doc.Title != "Amazon_Invoice" {
		t.Fatalf("title %q", doc.Title)
	}
}

func TestGetDocumentNotFound(t *testing.T) {
	handler := newTestRouter(newStubStore())
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/documents/missing", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status %d", rec.Code)
	}
}

func TestCorrectCategory(t *testing.T) {
	store := seedStore()
	handler := newTestRouter(store)

	body := strings.NewReader(`{"category":"Financial"}`)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/documents/d1/category", body))

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, body %s", rec.Code, rec.Body)
	}
	doc := store.docs["d1"]
	if doc.UserCategory == nil || *doc.UserCategory != "Financial" {
		t.Fatalf("user category not applied: %+v", doc)
	}
}

func TestEnqueueImport(t *testing.T) {
	store := seedStore()
	handler := newTestRouter(store)

	body := strings.NewReader(`[{"display_name":"a.pdf","source_path":"/in/a.pdf","mime_type":"application/pdf","content_fingerprint":"fp-a"}]`)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/import", body))

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status %d, body %s", rec.Code, rec.Body)
	}
	if len(store.published) != 1 || len(store.published[0]) != 1 {
		t.Fatalf("published %+v", store.published)
	}
}

func TestEnqueueImportRejectsEmptyBatch(t *testing.T) {
	handler := newTestRouter(newStubStore())
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/import", strings.NewReader(`[]`)))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d", rec.Code)
	}
}

func TestScanPublishesCandidates(t *testing.T) {
	store := seedStore()
	store.scanBatch = []domain.ScannedFile{{DisplayName: "a.pdf", ContentFingerprint: "fp-a"}}
	handler := newTestRouter(store)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/scan", nil))

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status %d", rec.Code)
	}
	if len(store.published) != 1 {
		t.Fatalf("published %+v", store.published)
	}
}

func TestSearchRequiresQuery(t *testing.T) {
	handler := newTestRouter(newStubStore())
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/search", nil))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d", rec.Code)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	handler := newTestRouter(seedStore())
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/v1/documents/d1", nil))

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status %d", rec.Code)
	}
}

func TestCategoryCounts(t *testing.T) {
	handler := newTestRouter(seedStore())
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/categories/counts", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	var counts []domain.CategoryCount
	if err := json.Unmarshal(rec.Body.Bytes(), &counts); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(counts) != 1 || counts[0].Category != "Financial" {
		t.Fatalf("counts %+v", counts)
	}
}

func TestStats(t *testing.T) {
	handler := newTestRouter(seedStore())
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/stats", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	var stats domain.VaultStats
	if err := json.Unmarshal(rec.Body.Bytes(), &stats); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if stats.TotalDocuments != 1 || stats.TotalSizeBytes != 2048 {
		t.Fatalf("stats %+v", stats)
	}
}

func TestCategoryLifecycle(t *testing.T) {
	store := seedStore()
	repo := &stubRepo{stubStore: *newStubStore()}
	categories := &stubCategories{}
	rt := NewRouter(store, store, store, store, store, store, categories,
		export.NewService(repo, testLogger()), testLogger(), 0)
	handler := rt.Handler()

	body := strings.NewReader(`{"name":"Warranty","emoji":"🧰"}`)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/categories", body))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status %d: %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/categories", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("list status %d", rec.Code)
	}
	var list []domain.CategoryInfo
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(list) != len(domain.BuiltinCategories())+1 {
		t.Fatalf("got %d categories", len(list))
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/v1/categories/Warranty", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status %d: %s", rec.Code, rec.Body.String())
	}
	if len(categories.custom) != 0 {
		t.Fatalf("custom categories not removed: %+v", categories.custom)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/v1/categories/Warranty", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("second delete status %d", rec.Code)
	}
}

func TestRateLimit(t *testing.T) {
	store := seedStore()
	repo := &stubRepo{stubStore: *newStubStore()}
	exporter := export.NewService(repo, testLogger())
	rt := NewRouter(store, store, store, store, store, store, &stubCategories{}, exporter, testLogger(), 1)
	handler := rt.Handler()

	limited := false
	for i := 0; i < 10; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		if rec.Code == http.StatusTooManyRequests {
			limited = true
		}
	}
	if !limited {
		t.Fatal("rate limit never triggered")
	}
}
