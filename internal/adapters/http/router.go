package httpadapter

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/mkravets/docvault/internal/core/domain"
	"github.com/mkravets/docvault/internal/core/ports"
	"github.com/mkravets/docvault/internal/infrastructure/export"
)

type Router struct {
	reader     ports.DocumentReader
	opener     ports.DocumentOpener
	corrector  ports.Corrector
	scanner    ports.Scanner
	queue      ports.ImportQueue
	vault      ports.Vault
	categories ports.CategoryManager
	exporter   *export.Service
	logger     *slog.Logger

	rateLimit float64
}

func NewRouter(
	reader ports.DocumentReader,
	opener ports.DocumentOpener,
	corrector ports.Corrector,
	scanner ports.Scanner,
	queue ports.ImportQueue,
	vault ports.Vault,
	categories ports.CategoryManager,
	exporter *export.Service,
	logger *slog.Logger,
	rateLimit float64,
) *Router {
	return &Router{
		reader:     reader,
		opener:     opener,
		corrector:  corrector,
		scanner:    scanner,
		queue:      queue,
		vault:      vault,
		categories: categories,
		exporter:   exporter,
		logger:     logger,
		rateLimit:  rateLimit,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/import", rt.enqueueImport)
	mux.HandleFunc("/v1/scan", rt.scanAndEnqueue)
	mux.HandleFunc("/v1/documents/recent", rt.recentDocuments)
	mux.HandleFunc("/v1/documents/", rt.documentByID)
	mux.HandleFunc("/v1/search", rt.search)
	mux.HandleFunc("/v1/stats", rt.stats)
	mux.HandleFunc("/v1/categories", rt.listOrAddCategories)
	mux.HandleFunc("/v1/categories/", rt.deleteCategory)
	mux.HandleFunc("/v1/categories/counts", rt.categoryCounts)
	mux.HandleFunc("/v1/export/inventory", rt.exportInventory)

	var handler http.Handler = mux
	handler = rateLimitMiddleware(rt.rateLimit, handler)
	handler = accessLogMiddleware(rt.logger, handler)
	handler = requestIDMiddleware(handler)
	return handler
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) enqueueImport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var batch []domain.ScannedFile
	if err := json.NewDecoder(r.Body).Decode(&batch); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if len(batch) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "batch is empty"})
		return
	}

	if err := rt.queue.PublishImportBatch(r.Context(), batch); err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]int{"queued": len(batch)})
}

func (rt *Router) scanAndEnqueue(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	batch, err := rt.scanner.Scan(r.Context())
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	if len(batch) > 0 {
		if err := rt.queue.PublishImportBatch(r.Context(), batch); err != nil {
			rt.writeError(w, r, err)
			return
		}
	}
	writeJSON(w, http.StatusAccepted, map[string]int{"candidates": len(batch)})
}

func (rt *Router) recentDocuments(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	docs, err := rt.reader.Recent(r.Context(), limit)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, docs)
}

// documentByID fans out /v1/documents/{id} and its sub-resources.
func (rt *Router) documentByID(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/v1/documents/")
	id, action, _ := strings.Cut(rest, "/")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "document id is required"})
		return
	}

	switch {
	case action == "" && r.Method == http.MethodGet:
		rt.getDocument(w, r, id)
	case action == "" && r.Method == http.MethodDelete:
		rt.deleteDocument(w, r, id)
	case action == "content" && r.Method == http.MethodGet:
		rt.serveContent(w, r, id)
	case action == "thumbnail" && r.Method == http.MethodGet:
		rt.serveThumbnail(w, r, id)
	case action == "category" && r.Method == http.MethodPost:
		rt.correctCategory(w, r, id)
	case action == "title" && r.Method == http.MethodPost:
		rt.correctTitle(w, r, id)
	case action == "favorite" && r.Method == http.MethodPost:
		rt.setFavorite(w, r, id)
	default:
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
	}
}

func (rt *Router) getDocument(w http.ResponseWriter, r *http.Request, id string) {
	doc, err := rt.reader.GetByID(r.Context(), id)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (rt *Router) deleteDocument(w http.ResponseWriter, r *http.Request, id string) {
	if err := rt.opener.Delete(r.Context(), id); err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (rt *Router) serveContent(w http.ResponseWriter, r *http.Request, id string) {
	doc, err := rt.reader.GetByID(r.Context(), id)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}

	path, err := rt.opener.OpenToTemp(r.Context(), id)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	defer os.Remove(path)

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `inline; filename="`+doc.EffectiveTitle()+`.pdf"`)
	http.ServeFile(w, r, path)
}

func (rt *Router) serveThumbnail(w http.ResponseWriter, r *http.Request, id string) {
	path, err := rt.vault.DecryptThumbnailToTemp(r.Context(), id)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	defer os.Remove(path)

	http.ServeFile(w, r, path)
}

func (rt *Router) correctCategory(w http.ResponseWriter, r *http.Request, id string) {
	var req struct {
		Category string `json:"category"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if err := rt.corrector.CorrectCategory(r.Context(), id, req.Category); err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (rt *Router) correctTitle(w http.ResponseWriter, r *http.Request, id string) {
	var req struct {
		Title string `json:"title"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if err := rt.corrector.CorrectTitle(r.Context(), id, req.Title); err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (rt *Router) setFavorite(w http.ResponseWriter, r *http.Request, id string) {
	var req struct {
		Favorite bool `json:"favorite"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if err := rt.corrector.SetFavorite(r.Context(), id, req.Favorite); err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (rt *Router) search(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "query parameter 'q' is required"})
		return
	}

	docs, err := rt.reader.Search(r.Context(), query)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, docs)
}

func (rt *Router) stats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	stats, err := rt.reader.Stats(r.Context())
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (rt *Router) listOrAddCategories(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		list, err := rt.categories.List(r.Context())
		if err != nil {
			rt.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	case http.MethodPost:
		var req domain.CategoryInfo
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
			return
		}
		if err := rt.categories.Add(r.Context(), req); err != nil {
			rt.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]string{"status": "created"})
	default:
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
	}
}

func (rt *Router) deleteCategory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	name := strings.TrimPrefix(r.URL.Path, "/v1/categories/")
	if err := rt.categories.Delete(r.Context(), name); err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (rt *Router) categoryCounts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	counts, err := rt.reader.CategoryCounts(r.Context())
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, counts)
}

func (rt *Router) exportInventory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	payload, err := rt.exporter.InventoryXLSX(r.Context())
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="documents.xlsx"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(payload)
}

func (rt *Router) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := mapErrorToHTTPStatus(err)
	if status >= 500 {
		rt.logger.Error("request failed",
			"request_id", requestIDFromContext(r.Context()), "error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
