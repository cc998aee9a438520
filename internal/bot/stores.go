package bot

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gitlab.com/yelinaung/club-ledger/internal/gemini"
	"gitlab.com/yelinaung/club-ledger/internal/models"
	"gitlab.com/yelinaung/club-ledger/internal/repository"
)

type memberStore interface {
	GetAll(ctx context.Context) ([]models.Member, error)
	GetIDs(ctx context.Context) ([]uuid.UUID, error)
	GetLinked(ctx context.Context) ([]models.Member, error)
	GetByName(ctx context.Context, name string) (*models.Member, error)
	GetByTelegramUserID(ctx context.Context, userID int64) (*models.Member, error)
	AddWarning(ctx context.Context, id uuid.UUID, w models.Warning) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.MemberStatus) error
	LinkTelegram(ctx context.Context, id uuid.UUID, userID int64) error
}

type paymentStore interface {
	GetByPeriod(ctx context.Context, month string, year int) ([]models.Payment, error)
	GetUnpaidMembers(ctx context.Context, month string, year int) ([]models.Member, error)
	GetByMember(ctx context.Context, memberID uuid.UUID) ([]models.Payment, error)
	Create(ctx context.Context, p *models.Payment) error
	MarkPaid(ctx context.Context, id uuid.UUID, paidAt time.Time, method string) error
}

type expenseStore interface {
	Create(ctx context.Context, expense *models.Expense) error
	GetByDateRange(ctx context.Context, start, end time.Time) ([]models.Expense, error)
}

type categoryStore interface {
	GetAll(ctx context.Context) ([]models.ExpenseCategory, error)
	GetByName(ctx context.Context, name string) (*models.ExpenseCategory, error)
}

type announcementStore interface {
	Publish(ctx context.Context, a *models.Announcement, memberIDs []uuid.UUID) error
	ListForMember(ctx context.Context, memberID uuid.UUID) ([]models.AnnouncementRecipient, error)
	MarkRead(ctx context.Context, recipientID uuid.UUID) error
	UnreadCount(ctx context.Context, memberID uuid.UUID) (int, error)
}

type categorySuggester interface {
	SuggestCategory(
		ctx context.Context,
		description string,
		entryType models.ExpenseType,
		categories []string,
	) (*gemini.Suggestion, error)
}

var (
	_ memberStore       = (*repository.MemberRepository)(nil)
	_ paymentStore      = (*repository.PaymentRepository)(nil)
	_ expenseStore      = (*repository.ExpenseRepository)(nil)
	_ categoryStore     = (*repository.CategoryRepository)(nil)
	_ announcementStore = (*repository.AnnouncementRepository)(nil)
	_ categorySuggester = (*gemini.Client)(nil)
)
