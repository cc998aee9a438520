package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/club-ledger/internal/database"
	"gitlab.com/yelinaung/club-ledger/internal/models"
)

const expenseSelect = `
	SELECT e.id, e.amount, e.date, e.category_id, e.type, e.description, e.payment_method, e.notes, e.created_at,
	       c.id, c.name, c.color
	FROM expenses e
	LEFT JOIN expense_categories c ON e.category_id = c.id`

// ExpenseRepository handles expense and revenue database operations.
type ExpenseRepository struct {
	db database.PGXDB
}

// NewExpenseRepository creates a new ExpenseRepository.
func NewExpenseRepository(db database.PGXDB) *ExpenseRepository {
	return &ExpenseRepository{db: db}
}

// Create adds a new expense or revenue entry.
func (r *ExpenseRepository) Create(ctx context.Context, expense *models.Expense) error {
	if expense.Type == "" {
		expense.Type = models.ExpenseTypeDespesa
	}
	err := r.db.QueryRow(ctx, `
		INSERT INTO expenses (amount, date, category_id, type, description, payment_method, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`, expense.Amount, expense.Date, expense.CategoryID, expense.Type,
		nullString(expense.Description), nullString(expense.PaymentMethod), nullString(expense.Notes),
	).Scan(&expense.ID, &expense.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create expense: %w", err)
	}
	return nil
}

// GetAll retrieves every entry, newest first.
func (r *ExpenseRepository) GetAll(ctx context.Context) ([]models.Expense, error) {
	rows, err := r.db.Query(ctx, expenseSelect+` ORDER BY e.date DESC, e.created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query expenses: %w", err)
	}
	defer rows.Close()

	return scanExpenses(rows)
}

// GetByDateRange retrieves entries with start <= date < end.
func (r *ExpenseRepository) GetByDateRange(ctx context.Context, start, end time.Time) ([]models.Expense, error) {
	rows, err := r.db.Query(ctx, expenseSelect+`
		WHERE e.date >= $1 AND e.date < $2
		ORDER BY e.date DESC, e.created_at DESC
	`, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query expenses by date range: %w", err)
	}
	defer rows.Close()

	return scanExpenses(rows)
}

// GetByID retrieves a single entry.
func (r *ExpenseRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Expense, error) {
	rows, err := r.db.Query(ctx, expenseSelect+` WHERE e.id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}
	defer rows.Close()

	expenses, err := scanExpenses(rows)
	if err != nil {
		return nil, err
	}
	if len(expenses) == 0 {
		return nil, fmt.Errorf("failed to get expense: %s not found", id)
	}
	return &expenses[0], nil
}

// GetTotalByDateRange sums entries of one type in a date range.
func (r *ExpenseRepository) GetTotalByDateRange(
	ctx context.Context,
	expenseType models.ExpenseType,
	start, end time.Time,
) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.db.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount), 0) FROM expenses
		WHERE type = $1 AND date >= $2 AND date < $3
	`, expenseType, start, end).Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to get total: %w", err)
	}
	return total, nil
}

// Delete removes an entry by ID.
func (r *ExpenseRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.Exec(ctx, `DELETE FROM expenses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	return nil
}

// scanExpenses is a helper to scan expense rows with category joins.
func scanExpenses(rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
},
) ([]models.Expense, error) {
	var expenses []models.Expense
	for rows.Next() {
		var exp models.Expense
		var desc, method, notes, catName, catColor *string
		var catID *uuid.UUID

		if err := rows.Scan(
			&exp.ID, &exp.Amount, &exp.Date, &exp.CategoryID, &exp.Type, &desc, &method, &notes, &exp.CreatedAt,
			&catID, &catName, &catColor,
		); err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}

		exp.Description = deref(desc)
		exp.PaymentMethod = deref(method)
		exp.Notes = deref(notes)
		if catID != nil {
			exp.Category = &models.ExpenseCategory{
				ID:    *catID,
				Name:  deref(catName),
				Color: deref(catColor),
			}
		}
		expenses = append(expenses, exp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating expenses: %w", err)
	}
	return expenses, nil
}
