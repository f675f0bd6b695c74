package notification

import (
	"github.com/hasibdev/bazario/internal/modules/notification/application"
	"github.com/hasibdev/bazario/internal/modules/notification/infrastructure/cache"
	"github.com/hasibdev/bazario/internal/modules/notification/infrastructure/persistence/postgres"
	notification_http "github.com/hasibdev/bazario/internal/modules/notification/interfaces/http"
	"github.com/hasibdev/bazario/internal/realtime"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
)

type Module struct {
	service *application.NotificationService
	handler *notification_http.NotificationHandler
	hub     *realtime.Hub
}

// NewModule wires the notification store, the emitter and the HTTP surface
// onto a shared realtime hub. The hub is owned by the caller; this module
// never starts or stops it.
func NewModule(db *sqlx.DB, hub *realtime.Hub, redisClient *redis.Client) *Module {
	repo := postgres.NewPgNotificationRepository(db)
	listCache := cache.NewRedisListCache(redisClient)
	service := application.NewNotificationService(repo, hub, listCache)
	handler := notification_http.NewNotificationHandler(service, hub, listCache)

	return &Module{
		service: service,
		handler: handler,
		hub:     hub,
	}
}

func (m *Module) HTTPHandler() *notification_http.NotificationHandler {
	return m.handler
}

func (m *Module) Service() *application.NotificationService {
	return m.service
}
