package domain

import (
	"context"

	"github.com/google/uuid"
)

// NotificationRepository is the durable store and the single source of truth
// for unread counts; nothing above it caches counts.
type NotificationRepository interface {
	Create(ctx context.Context, notification *Notification) error

	// ListForRecipient returns one page, newest first, plus the total the
	// filter matches.
	ListForRecipient(ctx context.Context, recipientID string, page, pageSize int, filter StatusFilter) ([]Notification, int, error)

	CountUnread(ctx context.Context, recipientID string) (int, error)

	// MarkRead flips unread -> read for an owned record. Returns the record
	// and whether this call changed it; an already-read record comes back
	// unchanged with changed == false.
	MarkRead(ctx context.Context, notificationID uuid.UUID, recipientID string) (*Notification, bool, error)

	// MarkAllRead returns how many records it flipped.
	MarkAllRead(ctx context.Context, recipientID string) (int64, error)

	// Delete removes an owned record and reports whether it was still unread,
	// which decides whether a recount push is needed.
	Delete(ctx context.Context, notificationID uuid.UUID, recipientID string) (wasUnread bool, err error)

	// DeleteAllForRecipient returns how many records it removed.
	DeleteAllForRecipient(ctx context.Context, recipientID string) (int64, error)
}
