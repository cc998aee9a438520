// Package repository provides database access for domain entities.
package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gitlab.com/yelinaung/club-ledger/internal/database"
	"gitlab.com/yelinaung/club-ledger/internal/models"
)

// CategoryRepository handles expense category database operations.
type CategoryRepository struct {
	db database.PGXDB
}

// NewCategoryRepository creates a new CategoryRepository.
func NewCategoryRepository(db database.PGXDB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// GetAll retrieves all categories.
func (r *CategoryRepository) GetAll(ctx context.Context) ([]models.ExpenseCategory, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, name, color, description, created_at FROM expense_categories ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	var categories []models.ExpenseCategory
	for rows.Next() {
		var cat models.ExpenseCategory
		var color, desc *string
		if err := rows.Scan(&cat.ID, &cat.Name, &color, &desc, &cat.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		cat.Color = deref(color)
		cat.Description = deref(desc)
		categories = append(categories, cat)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}
	return categories, nil
}

// GetByName retrieves a category by name (case-insensitive).
func (r *CategoryRepository) GetByName(ctx context.Context, name string) (*models.ExpenseCategory, error) {
	var cat models.ExpenseCategory
	var color, desc *string
	err := r.db.QueryRow(ctx, `
		SELECT id, name, color, description, created_at FROM expense_categories WHERE LOWER(name) = LOWER($1)
	`, name).Scan(&cat.ID, &cat.Name, &color, &desc, &cat.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to get category by name: %w", err)
	}
	cat.Color = deref(color)
	cat.Description = deref(desc)
	return &cat, nil
}

// Create adds a new category.
func (r *CategoryRepository) Create(ctx context.Context, cat *models.ExpenseCategory) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO expense_categories (name, color, description) VALUES ($1, $2, $3)
		RETURNING id, created_at
	`, cat.Name, nullString(cat.Color), nullString(cat.Description)).Scan(&cat.ID, &cat.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create category: %w", err)
	}
	return nil
}

// Delete removes a category. Expenses keep their rows with a NULL category.
func (r *CategoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.Exec(ctx, `DELETE FROM expense_categories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}
	return nil
}
