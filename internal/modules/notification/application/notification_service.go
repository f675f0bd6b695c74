package application

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hasibdev/bazario/internal/modules/notification/domain"
	"github.com/hasibdev/bazario/internal/realtime"
	"github.com/hasibdev/bazario/internal/shared/identity"
)

// RoomEmitter delivers an event to every live connection of one recipient
// identity. Delivery is best effort; a miss is not an error.
type RoomEmitter interface {
	EmitToRoom(room, event string, data any)
}

// NotificationPush is the payload of a new_notification event.
type NotificationPush struct {
	domain.Notification
	UnreadCount int `json:"unreadCount"`
}

type unreadCountPayload struct {
	UnreadCount int `json:"unreadCount"`
}

// ListInvalidator drops a recipient's cached list page after a mutation so
// the next REST poll reads the store. A nil invalidator disables caching.
type ListInvalidator interface {
	InvalidateList(ctx context.Context, recipientID string)
}

// NotificationService is the single choke point that keeps the persisted
// unread count and the pushed unread count consistent. Counts are always
// re-derived from the store, never incremented in memory, so a missed push
// self-corrects on the next push or REST poll.
type NotificationService struct {
	repo    domain.NotificationRepository
	emitter RoomEmitter
	cache   ListInvalidator
}

func NewNotificationService(repo domain.NotificationRepository, emitter RoomEmitter, cache ListInvalidator) *NotificationService {
	return &NotificationService{repo: repo, emitter: emitter, cache: cache}
}

// NotifyAndPush persists a notification and pushes it, with a freshly
// recomputed unread count, to the recipient's room. The push happens after
// the create committed: transport failure leaves the record durably
// queryable over REST.
func (s *NotificationService) NotifyAndPush(ctx context.Context, recipient identity.Identity, typ domain.Type, message, link string) (*domain.Notification, error) {
	message = strings.TrimSpace(message)
	if !typ.Valid() {
		return nil, domain.ErrInvalidType
	}
	if message == "" {
		return nil, domain.ErrEmptyMessage
	}

	n := &domain.Notification{
		ID:          uuid.New(),
		RecipientID: recipient.ID(),
		Type:        typ,
		Message:     message,
		Link:        strings.TrimSpace(link),
		Status:      domain.StatusUnread,
		CreatedAt:   time.Now(),
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return nil, err
	}
	s.invalidateList(ctx, n.RecipientID)

	count, err := s.repo.CountUnread(ctx, n.RecipientID)
	if err != nil {
		log.Printf("[NotificationService] Recount after create failed for %s: %v", n.RecipientID, err)
		return n, nil
	}
	s.emitter.EmitToRoom(n.RecipientID, realtime.EventNewNotification, NotificationPush{Notification: *n, UnreadCount: count})
	s.emitter.EmitToRoom(n.RecipientID, realtime.EventUnreadCountUpdate, unreadCountPayload{UnreadCount: count})
	return n, nil
}

func (s *NotificationService) List(ctx context.Context, recipient identity.Identity, page, pageSize int, filter domain.StatusFilter) ([]domain.Notification, int, error) {
	return s.repo.ListForRecipient(ctx, recipient.ID(), page, pageSize, filter)
}

func (s *NotificationService) UnreadCount(ctx context.Context, recipient identity.Identity) (int, error) {
	return s.repo.CountUnread(ctx, recipient.ID())
}

// MarkRead flips one owned record to read. Marking an already-read record is
// a no-op that still succeeds; only an actual flip triggers a recount push.
func (s *NotificationService) MarkRead(ctx context.Context, recipient identity.Identity, notificationID uuid.UUID) (*domain.Notification, error) {
	n, changed, err := s.repo.MarkRead(ctx, notificationID, recipient.ID())
	if err != nil {
		return nil, err
	}
	if changed {
		s.invalidateList(ctx, recipient.ID())
		s.pushRecount(ctx, recipient.ID())
	}
	return n, nil
}

// MarkAllRead returns the number of records flipped and pushes a zero count
// only when the bulk update actually changed something.
func (s *NotificationService) MarkAllRead(ctx context.Context, recipient identity.Identity) (int64, error) {
	changed, err := s.repo.MarkAllRead(ctx, recipient.ID())
	if err != nil {
		return 0, err
	}
	if changed > 0 {
		s.invalidateList(ctx, recipient.ID())
		s.emitter.EmitToRoom(recipient.ID(), realtime.EventUnreadCountUpdate, unreadCountPayload{UnreadCount: 0})
	}
	return changed, nil
}

// Delete removes one owned record; a recount push fires only when the
// deleted record was still unread.
func (s *NotificationService) Delete(ctx context.Context, recipient identity.Identity, notificationID uuid.UUID) error {
	wasUnread, err := s.repo.Delete(ctx, notificationID, recipient.ID())
	if err != nil {
		return err
	}
	s.invalidateList(ctx, recipient.ID())
	if wasUnread {
		s.pushRecount(ctx, recipient.ID())
	}
	return nil
}

// ClearAll removes every record the recipient owns and always pushes zero.
func (s *NotificationService) ClearAll(ctx context.Context, recipient identity.Identity) (int64, error) {
	deleted, err := s.repo.DeleteAllForRecipient(ctx, recipient.ID())
	if err != nil {
		return 0, err
	}
	s.invalidateList(ctx, recipient.ID())
	s.emitter.EmitToRoom(recipient.ID(), realtime.EventUnreadCountUpdate, unreadCountPayload{UnreadCount: 0})
	return deleted, nil
}

func (s *NotificationService) invalidateList(ctx context.Context, recipientID string) {
	if s.cache != nil {
		s.cache.InvalidateList(ctx, recipientID)
	}
}

func (s *NotificationService) pushRecount(ctx context.Context, recipientID string) {
	count, err := s.repo.CountUnread(ctx, recipientID)
	if err != nil {
		log.Printf("[NotificationService] Recount failed for %s: %v", recipientID, err)
		return
	}
	s.emitter.EmitToRoom(recipientID, realtime.EventUnreadCountUpdate, unreadCountPayload{UnreadCount: count})
}
