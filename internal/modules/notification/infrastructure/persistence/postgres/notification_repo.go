package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hasibdev/bazario/internal/modules/notification/domain"
	"github.com/jmoiron/sqlx"
)

type PgNotificationRepository struct {
	db *sqlx.DB
}

func NewPgNotificationRepository(db *sqlx.DB) *PgNotificationRepository {
	return &PgNotificationRepository{db: db}
}

func (r *PgNotificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	if n.Status == "" {
		n.Status = domain.StatusUnread
	}
	query := `
		INSERT INTO notifications (id, recipient_id, type, message, link, status, created_at)
		VALUES (:id, :recipient_id, :type, :message, :link, :status, :created_at)
	`
	_, err := r.db.NamedExecContext(ctx, query, n)
	return err
}

func (r *PgNotificationRepository) ListForRecipient(ctx context.Context, recipientID string, page, pageSize int, filter domain.StatusFilter) ([]domain.Notification, int, error) {
	if page < 1 {
		return nil, 0, domain.ErrInvalidPage
	}
	if !filter.Valid() {
		return nil, 0, domain.ErrInvalidStatusFilter
	}
	if pageSize < 1 {
		pageSize = 15
	}

	where := `WHERE recipient_id = $1`
	args := []any{recipientID}
	if filter != domain.FilterAll {
		where += ` AND status = $2`
		args = append(args, string(filter))
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM notifications `+where, args...); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT * FROM notifications ` + where + `
		ORDER BY created_at DESC
		LIMIT ` + placeholder(len(args)+1) + ` OFFSET ` + placeholder(len(args)+2)
	args = append(args, pageSize, (page-1)*pageSize)

	var notifications []domain.Notification
	if err := r.db.SelectContext(ctx, &notifications, query, args...); err != nil {
		return nil, 0, err
	}
	return notifications, total, nil
}

func (r *PgNotificationRepository) CountUnread(ctx context.Context, recipientID string) (int, error) {
	query := `
		SELECT COUNT(*) FROM notifications
		WHERE recipient_id = $1 AND status = 'unread'
	`
	var count int
	err := r.db.GetContext(ctx, &count, query, recipientID)
	return count, err
}

func (r *PgNotificationRepository) MarkRead(ctx context.Context, notificationID uuid.UUID, recipientID string) (*domain.Notification, bool, error) {
	query := `
		UPDATE notifications
		SET status = 'read'
		WHERE id = $1 AND recipient_id = $2 AND status = 'unread'
		RETURNING *
	`
	var n domain.Notification
	err := r.db.GetContext(ctx, &n, query, notificationID, recipientID)
	if err == nil {
		return &n, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, false, err
	}

	// Nothing flipped: missing, foreign, or already read.
	var existing domain.Notification
	err = r.db.GetContext(ctx, &existing, `SELECT * FROM notifications WHERE id = $1`, notificationID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, domain.ErrNotFound
	}
	if err != nil {
		return nil, false, err
	}
	if existing.RecipientID != recipientID {
		return nil, false, domain.ErrForbidden
	}
	return &existing, false, nil
}

func (r *PgNotificationRepository) MarkAllRead(ctx context.Context, recipientID string) (int64, error) {
	query := `
		UPDATE notifications
		SET status = 'read'
		WHERE recipient_id = $1 AND status = 'unread'
	`
	res, err := r.db.ExecContext(ctx, query, recipientID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *PgNotificationRepository) Delete(ctx context.Context, notificationID uuid.UUID, recipientID string) (bool, error) {
	query := `
		DELETE FROM notifications
		WHERE id = $1 AND recipient_id = $2
		RETURNING status
	`
	var status domain.Status
	err := r.db.GetContext(ctx, &status, query, notificationID, recipientID)
	if err == nil {
		return status == domain.StatusUnread, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return false, err
	}

	var owner string
	err = r.db.GetContext(ctx, &owner, `SELECT recipient_id FROM notifications WHERE id = $1`, notificationID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, domain.ErrNotFound
	}
	if err != nil {
		return false, err
	}
	return false, domain.ErrForbidden
}

func (r *PgNotificationRepository) DeleteAllForRecipient(ctx context.Context, recipientID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM notifications WHERE recipient_id = $1`, recipientID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func placeholder(n int) string {
	return fmt.Sprintf("$%d", n)
}
