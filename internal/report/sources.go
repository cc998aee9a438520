package report

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gitlab.com/yelinaung/club-ledger/internal/models"
)

// MemberSource reads the roster.
type MemberSource interface {
	GetAll(ctx context.Context) ([]models.Member, error)
	GetIDs(ctx context.Context) ([]uuid.UUID, error)
}

// PaymentSource reads dues payments.
type PaymentSource interface {
	GetAllWithRetry(ctx context.Context) ([]models.Payment, error)
	GetByPeriod(ctx context.Context, month string, year int) ([]models.Payment, error)
	GetMonthlyRecord(ctx context.Context, month string, year int) (*models.MonthlyRecord, error)
}

// ExpenseSource reads bookkeeping entries.
type ExpenseSource interface {
	GetByDateRange(ctx context.Context, start, end time.Time) ([]models.Expense, error)
}

// CategorySource reads expense categories.
type CategorySource interface {
	GetAll(ctx context.Context) ([]models.ExpenseCategory, error)
}
