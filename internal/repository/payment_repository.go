package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/club-ledger/internal/database"
	"gitlab.com/yelinaung/club-ledger/internal/logger"
	"gitlab.com/yelinaung/club-ledger/internal/models"
)

const paymentColumns = `id, member_id, amount, month, year, is_paid, date, payment_method, created_at`

// Retry policy for GetAllWithRetry.
const (
	paymentFetchAttempts = 3
	paymentRetryBackoff  = 250 * time.Millisecond
)

// PaymentRepository handles dues payment database operations.
type PaymentRepository struct {
	db      database.PGXDB
	backoff time.Duration
}

// NewPaymentRepository creates a new PaymentRepository.
func NewPaymentRepository(db database.PGXDB) *PaymentRepository {
	return &PaymentRepository{db: db, backoff: paymentRetryBackoff}
}

// GetAll retrieves every payment row.
func (r *PaymentRepository) GetAll(ctx context.Context) ([]models.Payment, error) {
	rows, err := r.db.Query(ctx, `SELECT `+paymentColumns+` FROM payments ORDER BY year DESC, month DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query payments: %w", err)
	}
	defer rows.Close()

	return scanPayments(rows)
}

// GetAllWithRetry retrieves every payment row, retrying failures that
// happened before the query reached the server.
func (r *PaymentRepository) GetAllWithRetry(ctx context.Context) ([]models.Payment, error) {
	var lastErr error
	for attempt := 1; attempt <= paymentFetchAttempts; attempt++ {
		payments, err := r.GetAll(ctx)
		if err == nil {
			return payments, nil
		}
		lastErr = err
		if !pgconn.SafeToRetry(err) || attempt == paymentFetchAttempts {
			break
		}

		logger.Log.Warn().Err(err).Int("attempt", attempt).Msg("Retrying payment fetch")
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(r.backoff * time.Duration(attempt)):
		}
	}
	return nil, lastErr
}

// GetByPeriod retrieves the payment rows of one month.
func (r *PaymentRepository) GetByPeriod(ctx context.Context, month string, year int) ([]models.Payment, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+paymentColumns+` FROM payments
		WHERE month = $1 AND year = $2
		ORDER BY created_at
	`, month, year)
	if err != nil {
		return nil, fmt.Errorf("failed to query payments by period: %w", err)
	}
	defer rows.Close()

	return scanPayments(rows)
}

// GetByMember retrieves a member's payment history, newest first.
func (r *PaymentRepository) GetByMember(ctx context.Context, memberID uuid.UUID) ([]models.Payment, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+paymentColumns+` FROM payments
		WHERE member_id = $1
		ORDER BY year DESC, month DESC, created_at DESC
	`, memberID)
	if err != nil {
		return nil, fmt.Errorf("failed to query member payments: %w", err)
	}
	defer rows.Close()

	return scanPayments(rows)
}

// GetMonthlyRecord computes the completion aggregate for one month.
// A member counts as paid when at least one of their rows is paid; the
// member universe is the roster plus anyone with a row in the month.
func (r *PaymentRepository) GetMonthlyRecord(ctx context.Context, month string, year int) (*models.MonthlyRecord, error) {
	rec := models.MonthlyRecord{Month: month, Year: year}
	var total, collected *decimal.Decimal
	err := r.db.QueryRow(ctx, `
		WITH period AS (
			SELECT member_id,
			       BOOL_OR(is_paid) AS paid,
			       SUM(amount) AS total,
			       SUM(amount) FILTER (WHERE is_paid) AS collected
			FROM payments
			WHERE month = $1 AND year = $2
			GROUP BY member_id
		),
		universe AS (
			SELECT id AS member_id FROM members
			UNION
			SELECT member_id FROM period
		)
		SELECT (SELECT COUNT(*) FROM universe),
		       (SELECT COUNT(*) FROM period WHERE paid),
		       (SELECT SUM(total) FROM period),
		       (SELECT SUM(collected) FROM period)
	`, month, year).Scan(&rec.TotalMembers, &rec.PaidMembers, &total, &collected)
	if err != nil {
		return nil, fmt.Errorf("failed to get monthly record: %w", err)
	}

	rec.UnpaidMembers = rec.TotalMembers - rec.PaidMembers
	rec.TotalAmount = decimal.Zero
	if total != nil {
		rec.TotalAmount = *total
	}
	rec.CollectedAmount = decimal.Zero
	if collected != nil {
		rec.CollectedAmount = *collected
	}
	return &rec, nil
}

// GetUnpaidMembers retrieves members without a paid row for the month.
func (r *PaymentRepository) GetUnpaidMembers(ctx context.Context, month string, year int) ([]models.Member, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+memberColumns+` FROM members m
		WHERE NOT EXISTS (
			SELECT 1 FROM payments p
			WHERE p.member_id = m.id AND p.month = $1 AND p.year = $2 AND p.is_paid
		)
		ORDER BY name
	`, month, year)
	if err != nil {
		return nil, fmt.Errorf("failed to query unpaid members: %w", err)
	}
	defer rows.Close()

	return scanMembers(rows)
}

// Create adds a new payment row.
func (r *PaymentRepository) Create(ctx context.Context, p *models.Payment) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO payments (member_id, amount, month, year, is_paid, date, payment_method)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`, p.MemberID, p.Amount, p.Month, p.Year, p.IsPaid, p.Date, nullString(p.PaymentMethod),
	).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create payment: %w", err)
	}
	return nil
}

// MarkPaid flags an existing row as paid.
func (r *PaymentRepository) MarkPaid(ctx context.Context, id uuid.UUID, paidAt time.Time, method string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE payments SET is_paid = TRUE, date = $2, payment_method = COALESCE($3, payment_method)
		WHERE id = $1
	`, id, paidAt, nullString(method))
	if err != nil {
		return fmt.Errorf("failed to mark payment paid: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("failed to mark payment paid: %w", pgx.ErrNoRows)
	}
	return nil
}

// Delete removes a payment row.
func (r *PaymentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.Exec(ctx, `DELETE FROM payments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete payment: %w", err)
	}
	return nil
}

func scanPayments(rows pgx.Rows) ([]models.Payment, error) {
	var payments []models.Payment
	for rows.Next() {
		var p models.Payment
		var method *string
		if err := rows.Scan(
			&p.ID, &p.MemberID, &p.Amount, &p.Month, &p.Year, &p.IsPaid, &p.Date, &method, &p.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		p.PaymentMethod = deref(method)
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating payments: %w", err)
	}
	return payments, nil
}
