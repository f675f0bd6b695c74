package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/hasibdev/bazario/internal/gateway/middleware"
	"github.com/hasibdev/bazario/internal/modules/order/application"
	"github.com/hasibdev/bazario/internal/modules/order/domain"
)

type OrderHandler struct {
	service *application.OrderService
}

func NewOrderHandler(service *application.OrderService) *OrderHandler {
	return &OrderHandler{service: service}
}

// Place handles POST /orders.
func (h *OrderHandler) Place(w http.ResponseWriter, r *http.Request) {
	ident, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		http.Error(w, `{"error": "Unauthorized"}`, http.StatusUnauthorized)
		return
	}

	var req application.PlaceOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error": "Invalid request body"}`, http.StatusBadRequest)
		return
	}

	order, err := h.service.PlaceOrder(r.Context(), ident.ID(), req)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrEmptyOrder), errors.Is(err, domain.ErrMissingSeller):
			http.Error(w, `{"error": "`+err.Error()+`"}`, http.StatusBadRequest)
		default:
			log.Printf("[OrderHandler] Failed to place order: %v", err)
			http.Error(w, `{"error": "Failed to place order"}`, http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Order placed successfully",
		"order":   order,
	})
}

// List handles GET /orders for the authenticated customer.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	ident, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		http.Error(w, `{"error": "Unauthorized"}`, http.StatusUnauthorized)
		return
	}

	orders, err := h.service.ListForCustomer(r.Context(), ident.ID())
	if err != nil {
		log.Printf("[OrderHandler] Failed to list orders: %v", err)
		http.Error(w, `{"error": "Failed to list orders"}`, http.StatusInternalServerError)
		return
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"orders": orders})
}

// Get handles GET /orders/{id}.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	ident, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		http.Error(w, `{"error": "Unauthorized"}`, http.StatusUnauthorized)
		return
	}

	orderID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, `{"error": "Invalid order ID"}`, http.StatusBadRequest)
		return
	}

	order, err := h.service.GetOrder(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			http.Error(w, `{"error": "Order not found"}`, http.StatusNotFound)
			return
		}
		log.Printf("[OrderHandler] Failed to get order %s: %v", orderID, err)
		http.Error(w, `{"error": "Failed to get order"}`, http.StatusInternalServerError)
		return
	}
	if !ident.IsAdmin() && order.CustomerID != ident.ID() {
		http.Error(w, `{"error": "Forbidden"}`, http.StatusForbidden)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"order": order})
}

type verifyPaymentRequest struct {
	OrderID   string `json:"orderId"`
	PaymentID string `json:"paymentId"`
	Signature string `json:"signature"`
}

// VerifyPayment handles POST /payments/verify.
func (h *OrderHandler) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.IdentityFromContext(r.Context()); !ok {
		http.Error(w, `{"error": "Unauthorized"}`, http.StatusUnauthorized)
		return
	}

	var req verifyPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error": "Invalid request body"}`, http.StatusBadRequest)
		return
	}
	orderID, err := uuid.Parse(req.OrderID)
	if err != nil {
		http.Error(w, `{"error": "Invalid order ID"}`, http.StatusBadRequest)
		return
	}

	err = h.service.ConfirmPayment(r.Context(), orderID, req.PaymentID, req.Signature)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]any{"message": "Payment verified"})
	case errors.Is(err, domain.ErrOrderNotFound):
		http.Error(w, `{"error": "Order not found"}`, http.StatusNotFound)
	case errors.Is(err, domain.ErrOrderAlreadyPaid):
		http.Error(w, `{"error": "Order already paid"}`, http.StatusConflict)
	case errors.Is(err, domain.ErrInvalidSignature):
		http.Error(w, `{"error": "Invalid payment signature"}`, http.StatusBadRequest)
	default:
		log.Printf("[OrderHandler] Payment verification for order %s failed: %v", orderID, err)
		http.Error(w, `{"error": "Payment verification failed"}`, http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("[OrderHandler] Failed to encode response: %v", err)
	}
}
