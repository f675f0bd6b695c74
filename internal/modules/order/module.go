package order

import (
	"time"

	"github.com/hasibdev/bazario/internal/modules/order/application"
	"github.com/hasibdev/bazario/internal/modules/order/infrastructure/persistence/postgres"
	orderhttp "github.com/hasibdev/bazario/internal/modules/order/interfaces/http"
	"github.com/jmoiron/sqlx"
	"github.com/razorpay/razorpay-go"
)

// Module bundles the order collaborator: persistence, payment watchdog and
// HTTP surface. Notifications flow through the injected Notifier.
type Module struct {
	service *application.OrderService
	handler *orderhttp.OrderHandler
}

func NewModule(db *sqlx.DB, notifier application.Notifier, paymentTimeout time.Duration, rzpClient *razorpay.Client, rzpSecret string) *Module {
	repo := postgres.NewPgOrderRepository(db)
	service := application.NewOrderService(repo, notifier, paymentTimeout, rzpClient, rzpSecret)
	return &Module{
		service: service,
		handler: orderhttp.NewOrderHandler(service),
	}
}

func (m *Module) HTTPHandler() *orderhttp.OrderHandler {
	return m.handler
}

func (m *Module) Service() *application.OrderService {
	return m.service
}
