// Package postgres persists documents and learned keywords in PostgreSQL over
// database/sql with the pgx driver.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/mkravets/docvault/internal/core/domain"
)

const uniqueViolation = "23505"

type DocumentRepository struct {
	db *sql.DB
}

func NewDocumentRepository(db *sql.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *DocumentRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026083101)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS documents (
	id TEXT PRIMARY KEY,
	original_file_name TEXT NOT NULL,
	original_content_fingerprint TEXT NOT NULL,
	vault_object_name TEXT NOT NULL,
	title TEXT NOT NULL,
	category TEXT NOT NULL,
	user_category TEXT,
	user_title TEXT,
	extracted_text TEXT NOT NULL DEFAULT '',
	metadata_blob TEXT NOT NULL DEFAULT '{}',
	confidence DOUBLE PRECISION NOT NULL DEFAULT 0,
	file_size_bytes BIGINT NOT NULL,
	mime_type TEXT NOT NULL,
	source_folder TEXT NOT NULL DEFAULT '',
	imported_at TIMESTAMPTZ NOT NULL,
	is_favorite BOOLEAN NOT NULL DEFAULT FALSE
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_documents_fingerprint ON documents(original_content_fingerprint);
CREATE INDEX IF NOT EXISTS idx_documents_imported_at ON documents(imported_at DESC);
CREATE INDEX IF NOT EXISTS idx_documents_category ON documents(category);

CREATE TABLE IF NOT EXISTS learned_keywords (
	keyword TEXT PRIMARY KEY,
	assigned_category TEXT NOT NULL,
	frequency INTEGER NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS custom_categories (
	name TEXT PRIMARY KEY,
	emoji TEXT NOT NULL DEFAULT ''
);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *DocumentRepository) ExistsByFingerprint(ctx context.Context, fingerprint string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM documents WHERE original_content_fingerprint = $1)`,
		fingerprint,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("fingerprint lookup: %w", err)
	}
	return exists, nil
}

func (r *DocumentRepository) Insert(ctx context.Context, doc *domain.Document) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO documents (
	id, original_file_name, original_content_fingerprint, vault_object_name,
	title, category, user_category, user_title, extracted_text, metadata_blob,
	confidence, file_size_bytes, mime_type, source_folder, imported_at, is_favorite
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
`,
		doc.ID, doc.OriginalFileName, doc.OriginalContentFingerprint, doc.VaultObjectName,
		doc.Title, doc.Category, doc.UserCategory, doc.UserTitle, doc.ExtractedText, doc.MetadataBlob,
		doc.Confidence, doc.FileSizeBytes, doc.MimeType, doc.SourceFolder, doc.ImportedAt, doc.IsFavorite,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.WrapError(domain.ErrDuplicate, "insert document", err)
		}
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

const documentColumns = `
id, original_file_name, original_content_fingerprint, vault_object_name,
title, category, user_category, user_title, extracted_text, metadata_blob,
confidence, file_size_bytes, mime_type, source_folder, imported_at, is_favorite`

func (r *DocumentRepository) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT`+documentColumns+` FROM documents WHERE id = $1`, id)

	doc, err := scanDocument(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrDocumentNotFound, "get document", err)
		}
		return nil, fmt.Errorf("get document: %w", err)
	}
	return doc, nil
}

func (r *DocumentRepository) ListAll(ctx context.Context) ([]domain.Document, error) {
	return r.queryDocuments(ctx,
		`SELECT`+documentColumns+` FROM documents ORDER BY imported_at DESC`)
}

func (r *DocumentRepository) Recent(ctx context.Context, limit int) ([]domain.Document, error) {
	return r.queryDocuments(ctx,
		`SELECT`+documentColumns+` FROM documents ORDER BY imported_at DESC LIMIT $1`, limit)
}

func (r *DocumentRepository) Search(ctx context.Context, query string) ([]domain.Document, error) {
	pattern := "%" + strings.TrimSpace(query) + "%"
	return r.queryDocuments(ctx, `
SELECT`+documentColumns+`
FROM documents
WHERE title ILIKE $1
   OR COALESCE(user_title, '') ILIKE $1
   OR original_file_name ILIKE $1
   OR extracted_text ILIKE $1
ORDER BY imported_at DESC`, pattern)
}

func (r *DocumentRepository) CategoryCounts(ctx context.Context) ([]domain.CategoryCount, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT COALESCE(NULLIF(user_category, ''), category) AS effective, COUNT(*)
FROM documents
GROUP BY effective
ORDER BY effective`)
	if err != nil {
		return nil, fmt.Errorf("category counts: %w", err)
	}
	defer rows.Close()

	var out []domain.CategoryCount
	for rows.Next() {
		var c domain.CategoryCount
		if err := rows.Scan(&c.Category, &c.Count); err != nil {
			return nil, fmt.Errorf("scan category count: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *DocumentRepository) Stats(ctx context.Context) (domain.VaultStats, error) {
	var stats domain.VaultStats
	err := r.db.QueryRowContext(ctx, `
SELECT COUNT(*), COALESCE(SUM(file_size_bytes), 0)
FROM documents`).Scan(&stats.TotalDocuments, &stats.TotalSizeBytes)
	if err != nil {
		return domain.VaultStats{}, fmt.Errorf("collection stats: %w", err)
	}
	return stats, nil
}

func (r *DocumentRepository) UpdateCategory(ctx context.Context, id, category string) error {
	return r.updateOne(ctx, "update category",
		`UPDATE documents SET user_category = $2 WHERE id = $1`, id, category)
}

func (r *DocumentRepository) UpdateTitle(ctx context.Context, id, title string) error {
	return r.updateOne(ctx, "update title",
		`UPDATE documents SET user_title = $2 WHERE id = $1`, id, title)
}

func (r *DocumentRepository) SetFavorite(ctx context.Context, id string, favorite bool) error {
	return r.updateOne(ctx, "set favorite",
		`UPDATE documents SET is_favorite = $2 WHERE id = $1`, id, favorite)
}

func (r *DocumentRepository) DeleteByID(ctx context.Context, id string) error {
	return r.updateOne(ctx, "delete document",
		`DELETE FROM documents WHERE id = $1`, id)
}

func (r *DocumentRepository) updateOne(ctx context.Context, operation, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", operation, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", operation, err)
	}
	if affected == 0 {
		return domain.WrapError(domain.ErrDocumentNotFound, operation, sql.ErrNoRows)
	}
	return nil
}

func (r *DocumentRepository) queryDocuments(ctx context.Context, query string, args ...any) ([]domain.Document, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	var out []domain.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		out = append(out, *doc)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*domain.Document, error) {
	var (
		doc          domain.Document
		userCategory sql.NullString
		userTitle    sql.NullString
	)
	err := row.Scan(
		&doc.ID, &doc.OriginalFileName, &doc.OriginalContentFingerprint, &doc.VaultObjectName,
		&doc.Title, &doc.Category, &userCategory, &userTitle, &doc.ExtractedText, &doc.MetadataBlob,
		&doc.Confidence, &doc.FileSizeBytes, &doc.MimeType, &doc.SourceFolder, &doc.ImportedAt, &doc.IsFavorite,
	)
	if err != nil {
		return nil, err
	}
	if userCategory.Valid {
		doc.UserCategory = &userCategory.String
	}
	if userTitle.Valid {
		doc.UserTitle = &userTitle.String
	}
	return &doc, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
