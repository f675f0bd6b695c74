package http_test

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hasibdev/bazario/internal/gateway/middleware"
	notifdomain "github.com/hasibdev/bazario/internal/modules/notification/domain"
	"github.com/hasibdev/bazario/internal/modules/order/application"
	"github.com/hasibdev/bazario/internal/modules/order/domain"
	orderhttp "github.com/hasibdev/bazario/internal/modules/order/interfaces/http"
	"github.com/hasibdev/bazario/internal/shared/identity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "handler-secret"

type nopNotifier struct{}

func (nopNotifier) NotifyAndPush(context.Context, identity.Identity, notifdomain.Type, string, string) (*notifdomain.Notification, error) {
	return &notifdomain.Notification{ID: uuid.New()}, nil
}

type stubOrderRepo struct {
	orders       map[uuid.UUID]*domain.Order
	sellerOrders map[uuid.UUID][]domain.SellerOrder
}

func newStubOrderRepo() *stubOrderRepo {
	return &stubOrderRepo{
		orders:       make(map[uuid.UUID]*domain.Order),
		sellerOrders: make(map[uuid.UUID][]domain.SellerOrder),
	}
}

func (r *stubOrderRepo) Create(_ context.Context, order *domain.Order, sellerOrders []domain.SellerOrder) error {
	cp := *order
	r.orders[order.ID] = &cp
	r.sellerOrders[order.ID] = sellerOrders
	return nil
}

func (r *stubOrderRepo) GetByID(_ context.Context, orderID uuid.UUID) (*domain.Order, error) {
	order, ok := r.orders[orderID]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	cp := *order
	return &cp, nil
}

func (r *stubOrderRepo) SellerOrdersForOrder(_ context.Context, orderID uuid.UUID) ([]domain.SellerOrder, error) {
	return r.sellerOrders[orderID], nil
}

func (r *stubOrderRepo) ListForCustomer(_ context.Context, customerID string) ([]domain.Order, error) {
	var out []domain.Order
	for _, o := range r.orders {
		if o.CustomerID == customerID {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (r *stubOrderRepo) MarkPaid(_ context.Context, orderID uuid.UUID) (bool, error) {
	order, ok := r.orders[orderID]
	if !ok || order.PaymentStatus != domain.PaymentUnpaid {
		return false, nil
	}
	order.PaymentStatus = domain.PaymentPaid
	return true, nil
}

func (r *stubOrderRepo) CancelIfUnpaid(_ context.Context, orderID uuid.UUID) (bool, error) {
	order, ok := r.orders[orderID]
	if !ok || order.PaymentStatus != domain.PaymentUnpaid || order.DeliveryStatus != domain.DeliveryPending {
		return false, nil
	}
	order.DeliveryStatus = domain.DeliveryCancelled
	return true, nil
}

func (r *stubOrderRepo) ListPendingUnpaid(_ context.Context) ([]domain.Order, error) {
	return nil, nil
}

func newOrderHandler(t *testing.T) (*orderhttp.OrderHandler, *stubOrderRepo) {
	t.Helper()
	repo := newStubOrderRepo()
	svc := application.NewOrderService(repo, nopNotifier{}, time.Hour, nil, testSecret)
	t.Cleanup(svc.Shutdown)
	return orderhttp.NewOrderHandler(svc), repo
}

func asIdentity(t *testing.T, req *http.Request, ident identity.Identity) *http.Request {
	t.Helper()
	return req.WithContext(context.WithValue(req.Context(), middleware.ContextKeyIdentity, ident))
}

func customer(t *testing.T, id string) identity.Identity {
	t.Helper()
	ident, err := identity.Customer(id)
	require.NoError(t, err)
	return ident
}

func placeBody() string {
	return `{
		"shippingFee": 5,
		"shippingAddress": "42 Test Lane",
		"products": [
			{"sellerId": "seller_1", "products": [{"productId": "p1", "name": "Widget", "price": 10, "quantity": 2}]}
		]
	}`
}

func TestPlaceEndpoint(t *testing.T) {
	t.Run("creates the order for the caller", func(t *testing.T) {
		handler, repo := newOrderHandler(t)
		rec := httptest.NewRecorder()
		req := asIdentity(t, httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader(placeBody())), customer(t, "customer_9"))

		handler.Place(rec, req)

		require.Equal(t, http.StatusCreated, rec.Code)
		var resp struct {
			Order domain.Order `json:"order"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "customer_9", resp.Order.CustomerID)
		assert.InDelta(t, 25, resp.Order.Price, 0.001)
		assert.Contains(t, repo.orders, resp.Order.ID)
	})

	t.Run("empty basket yields 400", func(t *testing.T) {
		handler, _ := newOrderHandler(t)
		rec := httptest.NewRecorder()
		req := asIdentity(t, httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader(`{"products": []}`)), customer(t, "customer_9"))

		handler.Place(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("missing identity yields 401", func(t *testing.T) {
		handler, _ := newOrderHandler(t)
		rec := httptest.NewRecorder()
		handler.Place(rec, httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader(placeBody())))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestGetEndpointOwnership(t *testing.T) {
	handler, repo := newOrderHandler(t)
	orderID := uuid.New()
	repo.orders[orderID] = &domain.Order{ID: orderID, CustomerID: "customer_9"}

	t.Run("owner reads the order", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := asIdentity(t, httptest.NewRequest(http.MethodGet, "/orders/"+orderID.String(), nil), customer(t, "customer_9"))
		req.SetPathValue("id", orderID.String())

		handler.Get(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("admin reads any order", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := asIdentity(t, httptest.NewRequest(http.MethodGet, "/orders/"+orderID.String(), nil), identity.Admin())
		req.SetPathValue("id", orderID.String())

		handler.Get(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("stranger gets 403", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := asIdentity(t, httptest.NewRequest(http.MethodGet, "/orders/"+orderID.String(), nil), customer(t, "customer_7"))
		req.SetPathValue("id", orderID.String())

		handler.Get(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("unknown order gets 404", func(t *testing.T) {
		missing := uuid.New()
		rec := httptest.NewRecorder()
		req := asIdentity(t, httptest.NewRequest(http.MethodGet, "/orders/"+missing.String(), nil), customer(t, "customer_9"))
		req.SetPathValue("id", missing.String())

		handler.Get(rec, req)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestListEndpoint(t *testing.T) {
	handler, repo := newOrderHandler(t)
	orderID := uuid.New()
	repo.orders[orderID] = &domain.Order{ID: orderID, CustomerID: "customer_9"}

	rec := httptest.NewRecorder()
	handler.List(rec, asIdentity(t, httptest.NewRequest(http.MethodGet, "/orders", nil), customer(t, "customer_9")))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Orders []domain.Order `json:"orders"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Orders, 1)

	rec = httptest.NewRecorder()
	handler.List(rec, asIdentity(t, httptest.NewRequest(http.MethodGet, "/orders", nil), customer(t, "customer_7")))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"orders":[]`)
}

func TestVerifyPaymentEndpoint(t *testing.T) {
	handler, repo := newOrderHandler(t)
	orderID := uuid.New()
	repo.orders[orderID] = &domain.Order{
		ID: orderID, CustomerID: "customer_9",
		PaymentStatus: domain.PaymentUnpaid, DeliveryStatus: domain.DeliveryPending,
	}

	mac := hmac.New(sha256.New, []byte(testSecret))
	mac.Write([]byte(orderID.String() + "|pay_1"))
	sig := hex.EncodeToString(mac.Sum(nil))

	t.Run("valid signature verifies", func(t *testing.T) {
		rec := httptest.NewRecorder()
		body := `{"orderId": "` + orderID.String() + `", "paymentId": "pay_1", "signature": "` + sig + `"}`
		req := asIdentity(t, httptest.NewRequest(http.MethodPost, "/payments/verify", strings.NewReader(body)), customer(t, "customer_9"))

		handler.VerifyPayment(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, domain.PaymentPaid, repo.orders[orderID].PaymentStatus)
	})

	t.Run("second verify conflicts", func(t *testing.T) {
		rec := httptest.NewRecorder()
		body := `{"orderId": "` + orderID.String() + `", "paymentId": "pay_1", "signature": "` + sig + `"}`
		req := asIdentity(t, httptest.NewRequest(http.MethodPost, "/payments/verify", strings.NewReader(body)), customer(t, "customer_9"))

		handler.VerifyPayment(rec, req)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("forged signature rejected", func(t *testing.T) {
		other := uuid.New()
		repo.orders[other] = &domain.Order{ID: other, PaymentStatus: domain.PaymentUnpaid, DeliveryStatus: domain.DeliveryPending}

		rec := httptest.NewRecorder()
		body := `{"orderId": "` + other.String() + `", "paymentId": "pay_1", "signature": "forged"}`
		req := asIdentity(t, httptest.NewRequest(http.MethodPost, "/payments/verify", strings.NewReader(body)), customer(t, "customer_9"))

		handler.VerifyPayment(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
