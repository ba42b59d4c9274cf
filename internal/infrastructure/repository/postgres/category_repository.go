package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mkravets/docvault/internal/core/domain"
)

type CategoryRepository struct {
	db *sql.DB
}

func NewCategoryRepository(db *sql.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

func (r *CategoryRepository) ListCustom(ctx context.Context) ([]domain.CategoryInfo, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT name, emoji FROM custom_categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list custom categories: %w", err)
	}
	defer rows.Close()

	var out []domain.CategoryInfo
	for rows.Next() {
		var c domain.CategoryInfo
		if err := rows.Scan(&c.Name, &c.Emoji); err != nil {
			return nil, fmt.Errorf("scan custom category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *CategoryRepository) AddCustom(ctx context.Context, category domain.CategoryInfo) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO custom_categories (name, emoji) VALUES ($1, $2)
ON CONFLICT (name) DO UPDATE SET emoji = EXCLUDED.emoji`,
		category.Name, category.Emoji,
	)
	if err != nil {
		return fmt.Errorf("add custom category: %w", err)
	}
	return nil
}

func (r *CategoryRepository) DeleteCustom(ctx context.Context, name string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM custom_categories WHERE name = $1`, name)
	if err != nil {
		return fmt.Errorf("delete custom category: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete custom category rows affected: %w", err)
	}
	if affected == 0 {
		return domain.WrapError(domain.ErrNotFound, "delete custom category", sql.ErrNoRows)
	}
	return nil
}
