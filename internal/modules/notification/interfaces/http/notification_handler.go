package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/hasibdev/bazario/internal/gateway/middleware"
	"github.com/hasibdev/bazario/internal/modules/notification/application"
	"github.com/hasibdev/bazario/internal/modules/notification/domain"
	"github.com/hasibdev/bazario/internal/modules/notification/infrastructure/cache"
	"github.com/hasibdev/bazario/internal/realtime"
	"github.com/hasibdev/bazario/internal/shared/identity"
)

const defaultPageSize = 15

// NotificationHandler serves reads, possibly from the list cache. All cache
// invalidation happens inside the service so writes from business
// collaborators invalidate too.
type NotificationHandler struct {
	service *application.NotificationService
	hub     *realtime.Hub
	cache   *cache.RedisListCache // nil disables caching
}

func NewNotificationHandler(service *application.NotificationService, hub *realtime.Hub, listCache *cache.RedisListCache) *NotificationHandler {
	return &NotificationHandler{service: service, hub: hub, cache: listCache}
}

// Subscribe upgrades the request to the realtime websocket. The identity
// attaches later via the registration events; auth only gates the upgrade.
func (h *NotificationHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.IdentityFromContext(r.Context()); !ok {
		http.Error(w, `{"error": "unauthorized"}`, http.StatusUnauthorized)
		return
	}
	realtime.ServeWs(h.hub, w, r)
}

type createRequest struct {
	RecipientID   string `json:"recipientId,omitempty"`
	RecipientRole string `json:"recipientRole,omitempty"`
	Type          string `json:"type"`
	Message       string `json:"message"`
	Link          string `json:"link,omitempty"`
}

// Create persists and pushes a notification for the caller, or, when the
// caller is the admin, for an arbitrary recipient named in the body.
func (h *NotificationHandler) Create(w http.ResponseWriter, r *http.Request) {
	ident, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		http.Error(w, `{"error": "could not identify recipient"}`, http.StatusUnauthorized)
		return
	}

	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error": "invalid request body"}`, http.StatusBadRequest)
		return
	}
	if req.Type == "" || req.Message == "" {
		http.Error(w, `{"error": "type and message are required"}`, http.StatusBadRequest)
		return
	}

	target := ident
	if req.RecipientID != "" && req.RecipientID != ident.ID() {
		if !ident.IsAdmin() {
			http.Error(w, `{"error": "only the admin may address other recipients"}`, http.StatusForbidden)
			return
		}
		var err error
		target, err = resolveRecipient(req.RecipientID, req.RecipientRole)
		if err != nil {
			http.Error(w, `{"error": "invalid recipient"}`, http.StatusBadRequest)
			return
		}
	}

	n, err := h.service.NotifyAndPush(r.Context(), target, domain.Type(req.Type), req.Message, req.Link)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidType) || errors.Is(err, domain.ErrEmptyMessage) {
			http.Error(w, `{"error": "`+err.Error()+`"}`, http.StatusBadRequest)
			return
		}
		log.Printf("[NotificationHandler] Create failed for %s: %v", target.ID(), err)
		http.Error(w, `{"error": "failed to create notification"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"message":      "Notification created",
		"notification": n,
	})
}

func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	ident, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		http.Error(w, `{"error": "could not identify recipient"}`, http.StatusUnauthorized)
		return
	}

	page := 1
	pageSize := defaultPageSize
	filter := domain.FilterAll

	if v := r.URL.Query().Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			http.Error(w, `{"error": "page must be >= 1"}`, http.StatusBadRequest)
			return
		}
		page = n
	}
	if v := r.URL.Query().Get("parPage"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			pageSize = n
		}
	}
	if v := r.URL.Query().Get("status"); v != "" {
		filter = domain.StatusFilter(v)
		if !filter.Valid() {
			http.Error(w, `{"error": "status filter must be all, read or unread"}`, http.StatusBadRequest)
			return
		}
	}

	// The default view is the hot path; serve it from cache when possible.
	cacheable := h.cache != nil && page == 1 && pageSize == defaultPageSize && filter == domain.FilterAll
	if cacheable {
		if cached, ok := h.cache.GetList(r.Context(), ident.ID()); ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			w.Write(cached)
			return
		}
	}

	notifications, total, err := h.service.List(r.Context(), ident, page, pageSize, filter)
	if err != nil {
		log.Printf("[NotificationHandler] List failed for %s: %v", ident.ID(), err)
		http.Error(w, `{"error": "failed to fetch notifications"}`, http.StatusInternalServerError)
		return
	}
	if notifications == nil {
		notifications = []domain.Notification{}
	}

	body := map[string]any{
		"notifications":      notifications,
		"totalNotifications": total,
		"currentPage":        page,
		"totalPages":         (total + pageSize - 1) / pageSize,
	}
	if cacheable {
		if raw, err := json.Marshal(body); err == nil {
			h.cache.SetList(context.Background(), ident.ID(), raw)
		}
	}
	writeJSON(w, http.StatusOK, body)
}

func (h *NotificationHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	ident, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		http.Error(w, `{"error": "could not identify recipient"}`, http.StatusUnauthorized)
		return
	}

	count, err := h.service.UnreadCount(r.Context(), ident)
	if err != nil {
		log.Printf("[NotificationHandler] Unread count failed for %s: %v", ident.ID(), err)
		http.Error(w, `{"error": "failed to get unread count"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"unreadCount": count})
}

func (h *NotificationHandler) MarkAsRead(w http.ResponseWriter, r *http.Request) {
	ident, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		http.Error(w, `{"error": "could not identify recipient"}`, http.StatusUnauthorized)
		return
	}
	notificationID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, `{"error": "invalid notification id"}`, http.StatusBadRequest)
		return
	}

	n, err := h.service.MarkRead(r.Context(), ident, notificationID)
	if err != nil {
		h.writeOwnershipError(w, ident, notificationID, err, "mark notification as read")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":      "Notification marked as read.",
		"notification": n,
	})
}

func (h *NotificationHandler) MarkAllAsRead(w http.ResponseWriter, r *http.Request) {
	ident, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		http.Error(w, `{"error": "could not identify recipient"}`, http.StatusUnauthorized)
		return
	}

	changed, err := h.service.MarkAllRead(r.Context(), ident)
	if err != nil {
		log.Printf("[NotificationHandler] Mark all read failed for %s: %v", ident.ID(), err)
		http.Error(w, `{"error": "failed to mark all as read"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Marked %d notifications as read.", changed),
	})
}

func (h *NotificationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ident, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		http.Error(w, `{"error": "could not identify recipient"}`, http.StatusUnauthorized)
		return
	}
	notificationID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, `{"error": "invalid notification id"}`, http.StatusBadRequest)
		return
	}

	if err := h.service.Delete(r.Context(), ident, notificationID); err != nil {
		h.writeOwnershipError(w, ident, notificationID, err, "delete notification")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Notification deleted successfully."})
}

func (h *NotificationHandler) ClearAll(w http.ResponseWriter, r *http.Request) {
	ident, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		http.Error(w, `{"error": "could not identify recipient"}`, http.StatusUnauthorized)
		return
	}

	deleted, err := h.service.ClearAll(r.Context(), ident)
	if err != nil {
		log.Printf("[NotificationHandler] Clear all failed for %s: %v", ident.ID(), err)
		http.Error(w, `{"error": "failed to clear notifications"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Cleared %d notifications.", deleted),
	})
}

func (h *NotificationHandler) writeOwnershipError(w http.ResponseWriter, ident identity.Identity, id uuid.UUID, err error, action string) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		http.Error(w, `{"error": "notification not found"}`, http.StatusNotFound)
	case errors.Is(err, domain.ErrForbidden):
		http.Error(w, `{"error": "access denied"}`, http.StatusForbidden)
	default:
		log.Printf("[NotificationHandler] Failed to %s %s for %s: %v", action, id, ident.ID(), err)
		http.Error(w, `{"error": "internal server error"}`, http.StatusInternalServerError)
	}
}

// resolveRecipient maps an admin-supplied recipient to an identity. The role
// tag defaults to seller, the common case for admin-authored notices.
func resolveRecipient(recipientID, role string) (identity.Identity, error) {
	if recipientID == identity.AdminID {
		return identity.Admin(), nil
	}
	if role == "" {
		role = string(identity.RoleSeller)
	}
	return identity.FromRole(identity.Role(role), recipientID)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("[NotificationHandler] Encode error: %v", err)
	}
}
