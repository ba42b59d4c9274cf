package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mkravets/docvault/internal/core/domain"
)

type KeywordRepository struct {
	db *sql.DB
}

func NewKeywordRepository(db *sql.DB) *KeywordRepository {
	return &KeywordRepository{db: db}
}

func (r *KeywordRepository) List(ctx context.Context) ([]domain.LearnedKeyword, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT keyword, assigned_category, frequency
FROM learned_keywords
ORDER BY keyword`)
	if err != nil {
		return nil, fmt.Errorf("list keywords: %w", err)
	}
	defer rows.Close()

	var out []domain.LearnedKeyword
	for rows.Next() {
		var kw domain.LearnedKeyword
		if err := rows.Scan(&kw.Keyword, &kw.AssignedCategory, &kw.Frequency); err != nil {
			return nil, fmt.Errorf("scan keyword: %w", err)
		}
		out = append(out, kw)
	}
	return out, rows.Err()
}

func (r *KeywordRepository) Upsert(ctx context.Context, kw domain.LearnedKeyword) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO learned_keywords (keyword, assigned_category, frequency)
VALUES ($1, $2, 1)
ON CONFLICT (keyword) DO UPDATE
SET assigned_category = EXCLUDED.assigned_category,
    frequency = learned_keywords.frequency + 1`,
		kw.Keyword, kw.AssignedCategory,
	)
	if err != nil {
		return fmt.Errorf("upsert keyword: %w", err)
	}
	return nil
}
