package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Type is the closed set of notification categories.
type Type string

const (
	TypeOrder         Type = "order"
	TypeMessage       Type = "message"
	TypeSellerRequest Type = "seller_request"
	TypeGeneral       Type = "general"
	TypeWithdrawal    Type = "withdrawal"
	TypeBooking       Type = "booking"
)

func (t Type) Valid() bool {
	switch t {
	case TypeOrder, TypeMessage, TypeSellerRequest, TypeGeneral, TypeWithdrawal, TypeBooking:
		return true
	}
	return false
}

type Status string

const (
	StatusUnread Status = "unread"
	StatusRead   Status = "read"
)

// StatusFilter narrows list queries.
type StatusFilter string

const (
	FilterAll    StatusFilter = "all"
	FilterRead   StatusFilter = "read"
	FilterUnread StatusFilter = "unread"
)

func (f StatusFilter) Valid() bool {
	return f == FilterAll || f == FilterRead || f == FilterUnread
}

// Notification is a durable message for one recipient identity. Status only
// ever moves unread -> read; records are born unread.
type Notification struct {
	ID          uuid.UUID `json:"id" db:"id"`
	RecipientID string    `json:"recipientId" db:"recipient_id"`
	Type        Type      `json:"type" db:"type"`
	Message     string    `json:"message" db:"message"`
	Link        string    `json:"link,omitempty" db:"link"`
	Status      Status    `json:"status" db:"status"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
}

var (
	ErrNotFound            = errors.New("notification not found")
	ErrForbidden           = errors.New("notification belongs to another recipient")
	ErrInvalidType         = errors.New("unsupported notification type")
	ErrEmptyMessage        = errors.New("notification message is required")
	ErrInvalidPage         = errors.New("page must be >= 1")
	ErrInvalidStatusFilter = errors.New("status filter must be all, read or unread")
)
