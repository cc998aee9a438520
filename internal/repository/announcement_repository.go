package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"gitlab.com/yelinaung/club-ledger/internal/database"
	"gitlab.com/yelinaung/club-ledger/internal/logger"
	"gitlab.com/yelinaung/club-ledger/internal/models"
)

// AnnouncementRepository handles announcements and their read receipts.
type AnnouncementRepository struct {
	db database.TxDB
}

// NewAnnouncementRepository creates a new AnnouncementRepository.
func NewAnnouncementRepository(db database.TxDB) *AnnouncementRepository {
	return &AnnouncementRepository{db: db}
}

// Publish stores the announcement and one unread recipient row per member.
func (r *AnnouncementRepository) Publish(ctx context.Context, a *models.Announcement, memberIDs []uuid.UUID) error {
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, `
			INSERT INTO announcements (title, body, author_id) VALUES ($1, $2, $3)
			RETURNING id, created_at
		`, a.Title, a.Body, a.AuthorID).Scan(&a.ID, &a.CreatedAt); err != nil {
			return fmt.Errorf("insert announcement: %w", err)
		}

		for _, memberID := range memberIDs {
			if _, err := tx.Exec(ctx, `
				INSERT INTO announcement_recipients (announcement_id, member_id) VALUES ($1, $2)
				ON CONFLICT (announcement_id, member_id) DO NOTHING
			`, a.ID, memberID); err != nil {
				return fmt.Errorf("insert recipient: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to publish announcement: %w", err)
	}
	return nil
}

// Recent retrieves the latest announcements.
func (r *AnnouncementRepository) Recent(ctx context.Context, limit int) ([]models.Announcement, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, title, body, author_id, created_at FROM announcements
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query announcements: %w", err)
	}
	announcements, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Announcement, error) {
		var a models.Announcement
		err := row.Scan(&a.ID, &a.Title, &a.Body, &a.AuthorID, &a.CreatedAt)
		return a, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan announcements: %w", err)
	}
	return announcements, nil
}

// ListForMember retrieves the member's inbox, newest first. Recipient rows
// pointing at a deleted announcement are marked read and left out.
func (r *AnnouncementRepository) ListForMember(ctx context.Context, memberID uuid.UUID) ([]models.AnnouncementRecipient, error) {
	rows, err := r.db.Query(ctx, `
		SELECT ar.id, ar.announcement_id, ar.member_id, ar.is_read, ar.read_at,
		       a.id, a.title, a.body, a.author_id, a.created_at
		FROM announcement_recipients ar
		LEFT JOIN announcements a ON a.id = ar.announcement_id
		WHERE ar.member_id = $1
		ORDER BY a.created_at DESC NULLS LAST
	`, memberID)
	if err != nil {
		return nil, fmt.Errorf("failed to query inbox: %w", err)
	}
	defer rows.Close()

	var inbox []models.AnnouncementRecipient
	var orphans []uuid.UUID
	for rows.Next() {
		var rcpt models.AnnouncementRecipient
		var annID *uuid.UUID
		var title, body *string
		var authorID *int64
		var createdAt *time.Time

		if err := rows.Scan(
			&rcpt.ID, &rcpt.AnnouncementID, &rcpt.MemberID, &rcpt.IsRead, &rcpt.ReadAt,
			&annID, &title, &body, &authorID, &createdAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan inbox row: %w", err)
		}

		if annID == nil {
			if !rcpt.IsRead {
				orphans = append(orphans, rcpt.ID)
			}
			continue
		}

		rcpt.Announcement = &models.Announcement{
			ID:        *annID,
			Title:     deref(title),
			Body:      deref(body),
			AuthorID:  *authorID,
			CreatedAt: *createdAt,
		}
		inbox = append(inbox, rcpt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating inbox: %w", err)
	}
	rows.Close()

	for _, id := range orphans {
		if err := r.MarkRead(ctx, id); err != nil {
			logger.Log.Warn().Err(err).Str("recipient_id", id.String()).Msg("Failed to repair orphan recipient")
			continue
		}
		logger.Log.Info().Str("recipient_id", id.String()).Msg("Marked orphan recipient as read")
	}

	return inbox, nil
}

// MarkRead flags a recipient row as read.
func (r *AnnouncementRepository) MarkRead(ctx context.Context, recipientID uuid.UUID) error {
	_, err := r.db.Exec(ctx, `
		UPDATE announcement_recipients SET is_read = TRUE, read_at = COALESCE(read_at, NOW())
		WHERE id = $1
	`, recipientID)
	if err != nil {
		return fmt.Errorf("failed to mark announcement read: %w", err)
	}
	return nil
}

// UnreadCount counts unread, non-orphan announcements for a member.
func (r *AnnouncementRepository) UnreadCount(ctx context.Context, memberID uuid.UUID) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM announcement_recipients ar
		JOIN announcements a ON a.id = ar.announcement_id
		WHERE ar.member_id = $1 AND NOT ar.is_read
	`, memberID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread announcements: %w", err)
	}
	return n, nil
}

// Delete removes an announcement. Recipient rows are left for lazy repair.
func (r *AnnouncementRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.Exec(ctx, `DELETE FROM announcements WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete announcement: %w", err)
	}
	return nil
}
