package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"gitlab.com/yelinaung/club-ledger/internal/database"
	"gitlab.com/yelinaung/club-ledger/internal/models"
)

const memberColumns = `id, name, status, join_date, email, phone, level, position_id,
	telegram_user_id, warnings, created_at, updated_at`

// MemberRepository handles member database operations.
type MemberRepository struct {
	db database.PGXDB
}

// NewMemberRepository creates a new MemberRepository.
func NewMemberRepository(db database.PGXDB) *MemberRepository {
	return &MemberRepository{db: db}
}

// GetAll retrieves the whole roster ordered by name.
func (r *MemberRepository) GetAll(ctx context.Context) ([]models.Member, error) {
	rows, err := r.db.Query(ctx, `SELECT `+memberColumns+` FROM members ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query members: %w", err)
	}
	defer rows.Close()

	return scanMembers(rows)
}

// GetIDs retrieves every member ID.
func (r *MemberRepository) GetIDs(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := r.db.Query(ctx, `SELECT id FROM members`)
	if err != nil {
		return nil, fmt.Errorf("failed to query member ids: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
	if err != nil {
		return nil, fmt.Errorf("failed to collect member ids: %w", err)
	}
	return ids, nil
}

// GetLinked retrieves members that have a Telegram account linked.
func (r *MemberRepository) GetLinked(ctx context.Context) ([]models.Member, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+memberColumns+` FROM members
		WHERE telegram_user_id IS NOT NULL
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query linked members: %w", err)
	}
	defer rows.Close()

	return scanMembers(rows)
}

// GetByID retrieves a member by ID.
func (r *MemberRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Member, error) {
	m, err := scanMember(r.db.QueryRow(ctx, `SELECT `+memberColumns+` FROM members WHERE id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get member: %w", err)
	}
	return m, nil
}

// GetByName retrieves a member by name (case-insensitive).
func (r *MemberRepository) GetByName(ctx context.Context, name string) (*models.Member, error) {
	m, err := scanMember(r.db.QueryRow(ctx,
		`SELECT `+memberColumns+` FROM members WHERE LOWER(name) = LOWER($1)`,
		strings.TrimSpace(name)))
	if err != nil {
		return nil, fmt.Errorf("failed to get member by name: %w", err)
	}
	return m, nil
}

// GetByTelegramUserID retrieves the member linked to a Telegram account.
func (r *MemberRepository) GetByTelegramUserID(ctx context.Context, userID int64) (*models.Member, error) {
	m, err := scanMember(r.db.QueryRow(ctx,
		`SELECT `+memberColumns+` FROM members WHERE telegram_user_id = $1`, userID))
	if err != nil {
		return nil, fmt.Errorf("failed to get member by telegram user: %w", err)
	}
	return m, nil
}

// Create adds a new member.
func (r *MemberRepository) Create(ctx context.Context, m *models.Member) error {
	if m.Status == "" {
		m.Status = models.MemberStatusFrequentante
	}
	if m.Warnings == nil {
		m.Warnings = []models.Warning{}
	}
	joinDate := any(nil)
	if !m.JoinDate.IsZero() {
		joinDate = m.JoinDate
	}

	err := r.db.QueryRow(ctx, `
		INSERT INTO members (name, status, join_date, email, phone, level, position_id, telegram_user_id, warnings)
		VALUES ($1, $2, COALESCE($3::date, CURRENT_DATE), $4, $5, $6, $7, $8, $9)
		RETURNING id, join_date, created_at, updated_at
	`, m.Name, m.Status, joinDate, nullString(m.Email), nullString(m.Phone),
		m.Level, m.PositionID, m.TelegramUserID, m.Warnings,
	).Scan(&m.ID, &m.JoinDate, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create member: %w", err)
	}
	return nil
}

// UpdateStatus changes a member's status.
func (r *MemberRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.MemberStatus) error {
	_, err := r.db.Exec(ctx, `
		UPDATE members SET status = $2, updated_at = NOW() WHERE id = $1
	`, id, status)
	if err != nil {
		return fmt.Errorf("failed to update member status: %w", err)
	}
	return nil
}

// LinkTelegram associates a Telegram account with a member.
func (r *MemberRepository) LinkTelegram(ctx context.Context, id uuid.UUID, userID int64) error {
	_, err := r.db.Exec(ctx, `
		UPDATE members SET telegram_user_id = $2, updated_at = NOW() WHERE id = $1
	`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to link telegram account: %w", err)
	}
	return nil
}

// AddWarning appends a warning to the member's record.
func (r *MemberRepository) AddWarning(ctx context.Context, id uuid.UUID, w models.Warning) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE members SET warnings = warnings || $2::jsonb, updated_at = NOW() WHERE id = $1
	`, id, []models.Warning{w})
	if err != nil {
		return fmt.Errorf("failed to add warning: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("failed to add warning: %w", pgx.ErrNoRows)
	}
	return nil
}

// Delete removes a member and, by cascade, their payments.
func (r *MemberRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.Exec(ctx, `DELETE FROM members WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete member: %w", err)
	}
	return nil
}

func scanMember(row pgx.Row) (*models.Member, error) {
	var m models.Member
	var email, phone *string
	if err := row.Scan(
		&m.ID, &m.Name, &m.Status, &m.JoinDate, &email, &phone, &m.Level, &m.PositionID,
		&m.TelegramUserID, &m.Warnings, &m.CreatedAt, &m.UpdatedAt,
	); err != nil {
		return nil, err
	}
	m.Email = deref(email)
	m.Phone = deref(phone)
	return &m, nil
}

func scanMembers(rows pgx.Rows) ([]models.Member, error) {
	var members []models.Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating members: %w", err)
	}
	return members, nil
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
