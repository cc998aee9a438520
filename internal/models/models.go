// Package models defines the domain entities for the club ledger.
package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MemberStatus is the attendance status of a club member.
type MemberStatus string

// Member statuses. Any other stored value is treated as unknown.
const (
	MemberStatusFrequentante MemberStatus = "frequentante"
	MemberStatusAfastado     MemberStatus = "afastado"
)

// Valid reports whether s is one of the known member statuses.
func (s MemberStatus) Valid() bool {
	return s == MemberStatusFrequentante || s == MemberStatusAfastado
}

// MaxMemberLevel is the highest level a member can hold.
const MaxMemberLevel = 5

// MaxCategoryNameLength is the maximum allowed length for category names.
const MaxCategoryNameLength = 50

// Warning is a note recorded against a member.
type Warning struct {
	Text string    `json:"text"`
	Date time.Time `json:"date"`
}

// Member represents a club member.
type Member struct {
	ID             uuid.UUID    `json:"id"`
	Name           string       `json:"name"`
	Status         MemberStatus `json:"status"`
	JoinDate       time.Time    `json:"joinDate"`
	Email          string       `json:"email,omitempty"`
	Phone          string       `json:"phone,omitempty"`
	Level          *int         `json:"level,omitempty"`
	PositionID     *uuid.UUID   `json:"positionId,omitempty"`
	TelegramUserID *int64       `json:"telegramUserId,omitempty"`
	Warnings       []Warning    `json:"warnings"`
	CreatedAt      time.Time    `json:"createdAt"`
	UpdatedAt      time.Time    `json:"updatedAt"`
}

// Payment is a monthly dues record for one member.
type Payment struct {
	ID            uuid.UUID       `json:"id"`
	MemberID      uuid.UUID       `json:"memberId"`
	Amount        decimal.Decimal `json:"amount"`
	Month         string          `json:"month"` // YYYY-MM
	Year          int             `json:"year"`
	IsPaid        bool            `json:"isPaid"`
	Date          *time.Time      `json:"date,omitempty"`
	PaymentMethod string          `json:"paymentMethod,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// ExpenseType distinguishes costs from revenue entries.
type ExpenseType string

// Expense types.
const (
	ExpenseTypeDespesa ExpenseType = "despesa"
	ExpenseTypeReceita ExpenseType = "receita"
)

// IsRevenue reports whether the entry counts as income.
func (t ExpenseType) IsRevenue() bool {
	return t == ExpenseTypeReceita
}

// ExpenseCategory groups expenses and revenue entries.
type ExpenseCategory struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Color       string    `json:"color,omitempty"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Expense is a bookkeeping entry. Entries of type receita are revenue.
type Expense struct {
	ID            uuid.UUID        `json:"id"`
	Amount        decimal.Decimal  `json:"amount"`
	Date          time.Time        `json:"date"`
	CategoryID    *uuid.UUID       `json:"categoryId,omitempty"`
	Category      *ExpenseCategory `json:"category,omitempty"`
	Type          ExpenseType      `json:"type"`
	Description   string           `json:"description,omitempty"`
	PaymentMethod string           `json:"paymentMethod,omitempty"`
	Notes         string           `json:"notes,omitempty"`
	CreatedAt     time.Time        `json:"createdAt"`
}

// MonthlyRecord is the derived payment completion for one month.
type MonthlyRecord struct {
	Month           string          `json:"month"`
	Year            int             `json:"year"`
	TotalMembers    int             `json:"totalMembers"`
	PaidMembers     int             `json:"paidMembers"`
	UnpaidMembers   int             `json:"unpaidMembers"`
	TotalAmount     decimal.Decimal `json:"totalAmount"`
	CollectedAmount decimal.Decimal `json:"collectedAmount"`
}

// Announcement is a message published to members.
type Announcement struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	AuthorID  int64     `json:"authorId"`
	CreatedAt time.Time `json:"createdAt"`
}

// AnnouncementRecipient tracks delivery and read state per member.
type AnnouncementRecipient struct {
	ID             uuid.UUID     `json:"id"`
	AnnouncementID uuid.UUID     `json:"announcementId"`
	MemberID       uuid.UUID     `json:"memberId"`
	IsRead         bool          `json:"isRead"`
	ReadAt         *time.Time    `json:"readAt,omitempty"`
	Announcement   *Announcement `json:"announcement,omitempty"`
}
