package gateway

import (
	"net/http"

	"github.com/hasibdev/bazario/internal/gateway/middleware"
	notification_http "github.com/hasibdev/bazario/internal/modules/notification/interfaces/http"
	order_http "github.com/hasibdev/bazario/internal/modules/order/interfaces/http"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterConfig holds all the handlers and middleware needed for routing
type RouterConfig struct {
	AuthMiddleware      *middleware.AuthMiddleware
	NotificationHandler *notification_http.NotificationHandler
	OrderHandler        *order_http.OrderHandler
}

// SetupRoutes creates and configures all application routes
func SetupRoutes(config RouterConfig) *http.ServeMux {
	mux := http.NewServeMux()

	// Health Check
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Prometheus Metrics Endpoint
	mux.Handle("/metrics", promhttp.Handler())

	// Notification Routes
	mux.Handle("POST /notifications", config.AuthMiddleware.RequireAuth(http.HandlerFunc(config.NotificationHandler.Create)))
	mux.Handle("GET /notifications", config.AuthMiddleware.RequireAuth(http.HandlerFunc(config.NotificationHandler.List)))
	mux.Handle("GET /notifications/unread-count", config.AuthMiddleware.RequireAuth(http.HandlerFunc(config.NotificationHandler.UnreadCount)))
	mux.Handle("PATCH /notifications/{id}/read", config.AuthMiddleware.RequireAuth(http.HandlerFunc(config.NotificationHandler.MarkAsRead)))
	mux.Handle("PATCH /notifications/read-all", config.AuthMiddleware.RequireAuth(http.HandlerFunc(config.NotificationHandler.MarkAllAsRead)))
	// The literal clear-all segment wins over the {id} wildcard, so both
	// patterns can coexist.
	mux.Handle("DELETE /notifications/clear-all", config.AuthMiddleware.RequireAuth(http.HandlerFunc(config.NotificationHandler.ClearAll)))
	mux.Handle("DELETE /notifications/{id}", config.AuthMiddleware.RequireAuth(http.HandlerFunc(config.NotificationHandler.Delete)))

	// Realtime socket; the token rides in ?token= because browsers cannot
	// set headers on a websocket upgrade.
	mux.Handle("GET /ws", config.AuthMiddleware.RequireAuth(http.HandlerFunc(config.NotificationHandler.Subscribe)))

	// Order Routes
	mux.Handle("POST /orders", config.AuthMiddleware.RequireAuth(http.HandlerFunc(config.OrderHandler.Place)))
	mux.Handle("GET /orders", config.AuthMiddleware.RequireAuth(http.HandlerFunc(config.OrderHandler.List)))
	mux.Handle("GET /orders/{id}", config.AuthMiddleware.RequireAuth(http.HandlerFunc(config.OrderHandler.Get)))
	mux.Handle("POST /payments/verify", config.AuthMiddleware.RequireAuth(http.HandlerFunc(config.OrderHandler.VerifyPayment)))

	return mux
}
