package application

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	notifdomain "github.com/hasibdev/bazario/internal/modules/notification/domain"
	"github.com/hasibdev/bazario/internal/modules/order/domain"
	"github.com/hasibdev/bazario/internal/shared/identity"
	"github.com/razorpay/razorpay-go"
)

// Notifier is the notification emitter this collaborator calls into.
// Notification failures are logged and swallowed: a notification is a side
// effect, never a transactional participant in the order flow.
type Notifier interface {
	NotifyAndPush(ctx context.Context, recipient identity.Identity, typ notifdomain.Type, message, link string) (*notifdomain.Notification, error)
}

type PlaceOrderItem struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
}

type PlaceOrderGroup struct {
	SellerID string           `json:"sellerId"`
	Products []PlaceOrderItem `json:"products"`
}

type PlaceOrderRequest struct {
	ShippingFee     float64           `json:"shippingFee"`
	ShippingAddress string            `json:"shippingAddress"`
	Groups          []PlaceOrderGroup `json:"products"`
}

type OrderService struct {
	repo     domain.OrderRepository
	notifier Notifier
	watchdog *PaymentWatchdog

	rzpClient *razorpay.Client // nil skips remote payment lookups
	rzpSecret string
}

func NewOrderService(repo domain.OrderRepository, notifier Notifier, paymentTimeout time.Duration, rzpClient *razorpay.Client, rzpSecret string) *OrderService {
	s := &OrderService{
		repo:      repo,
		notifier:  notifier,
		rzpClient: rzpClient,
		rzpSecret: rzpSecret,
	}
	s.watchdog = NewPaymentWatchdog(paymentTimeout, s.expireOrder)
	return s
}

// PlaceOrder persists the order with its per-seller suborders and arms the
// payment watchdog. The order starts unpaid; payment confirmation, not
// placement, triggers the notification fan-out.
func (s *OrderService) PlaceOrder(ctx context.Context, customerID string, req PlaceOrderRequest) (*domain.Order, error) {
	if len(req.Groups) == 0 {
		return nil, domain.ErrEmptyOrder
	}

	now := time.Now()
	order := &domain.Order{
		ID:              uuid.New(),
		CustomerID:      customerID,
		ShippingFee:     req.ShippingFee,
		ShippingAddress: req.ShippingAddress,
		PaymentStatus:   domain.PaymentUnpaid,
		DeliveryStatus:  domain.DeliveryPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	sellerOrders := make([]domain.SellerOrder, 0, len(req.Groups))
	for _, group := range req.Groups {
		if group.SellerID == "" {
			return nil, domain.ErrMissingSeller
		}
		if len(group.Products) == 0 {
			return nil, domain.ErrEmptyOrder
		}
		var groupTotal float64
		items := make([]domain.OrderItem, 0, len(group.Products))
		for _, p := range group.Products {
			items = append(items, domain.OrderItem{
				ProductID: p.ProductID,
				Name:      p.Name,
				Price:     p.Price,
				Quantity:  p.Quantity,
			})
			groupTotal += p.Price * float64(p.Quantity)
		}
		sellerOrders = append(sellerOrders, domain.SellerOrder{
			ID:             uuid.New(),
			OrderID:        order.ID,
			SellerID:       group.SellerID,
			Price:          groupTotal,
			Items:          items,
			PaymentStatus:  domain.PaymentUnpaid,
			DeliveryStatus: domain.DeliveryPending,
			CreatedAt:      now,
		})
		order.Price += groupTotal
	}
	order.Price += req.ShippingFee

	if err := s.repo.Create(ctx, order, sellerOrders); err != nil {
		return nil, err
	}

	s.watchdog.Schedule(order.ID)
	log.Printf("[OrderService] Order %s placed, payment window armed", order.ID)
	return order, nil
}

// ConfirmPayment verifies the gateway signature, marks the order paid,
// disarms its watchdog timer and fans out notifications to the admin room
// and every involved seller's room.
func (s *OrderService) ConfirmPayment(ctx context.Context, orderID uuid.UUID, paymentID, signature string) error {
	order, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return err
	}
	if order.PaymentStatus == domain.PaymentPaid {
		return domain.ErrOrderAlreadyPaid
	}

	reference := order.ID.String()
	if order.RazorpayOrderID != nil {
		reference = *order.RazorpayOrderID
	}
	if s.signPayment(reference, paymentID) != signature {
		return domain.ErrInvalidSignature
	}
	if s.rzpClient != nil {
		if _, err := s.rzpClient.Payment.Fetch(paymentID, nil, nil); err != nil {
			return fmt.Errorf("failed to fetch payment %s: %w", paymentID, err)
		}
	}

	changed, err := s.repo.MarkPaid(ctx, orderID)
	if err != nil {
		return err
	}
	if !changed {
		return domain.ErrOrderAlreadyPaid
	}

	s.watchdog.Cancel(orderID)
	s.fanOutPaymentNotifications(ctx, order)
	return nil
}

func (s *OrderService) GetOrder(ctx context.Context, orderID uuid.UUID) (*domain.Order, error) {
	return s.repo.GetByID(ctx, orderID)
}

func (s *OrderService) ListForCustomer(ctx context.Context, customerID string) ([]domain.Order, error) {
	return s.repo.ListForCustomer(ctx, customerID)
}

// ResumeWatchdogs re-arms payment timers from the store after a restart.
// Orders whose window already elapsed are cancelled immediately.
func (s *OrderService) ResumeWatchdogs(ctx context.Context) error {
	orders, err := s.repo.ListPendingUnpaid(ctx)
	if err != nil {
		return err
	}
	for _, order := range orders {
		remaining := s.watchdog.timeout - time.Since(order.CreatedAt)
		if remaining <= 0 {
			s.expireOrder(order.ID)
			continue
		}
		s.watchdog.ScheduleIn(order.ID, remaining)
	}
	log.Printf("[OrderService] Resumed %d payment watchdogs", len(orders))
	return nil
}

func (s *OrderService) Watchdog() *PaymentWatchdog {
	return s.watchdog
}

func (s *OrderService) Shutdown() {
	s.watchdog.Stop()
}

func (s *OrderService) expireOrder(orderID uuid.UUID) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cancelled, err := s.repo.CancelIfUnpaid(ctx, orderID)
	if err != nil {
		log.Printf("[OrderService] Payment check for order %s failed: %v", orderID, err)
		return
	}
	if cancelled {
		log.Printf("[OrderService] Order %s unpaid after timeout, cancelled", orderID)
	}
}

func (s *OrderService) fanOutPaymentNotifications(ctx context.Context, order *domain.Order) {
	msg := fmt.Sprintf("Payment received for order %s", order.ID)
	if _, err := s.notifier.NotifyAndPush(ctx, identity.Admin(), notifdomain.TypeOrder, msg, "/admin/orders/"+order.ID.String()); err != nil {
		log.Printf("[OrderService] Admin notification for order %s failed: %v", order.ID, err)
	}

	sellerOrders, err := s.repo.SellerOrdersForOrder(ctx, order.ID)
	if err != nil {
		log.Printf("[OrderService] Could not load seller orders for %s: %v", order.ID, err)
		return
	}
	for _, so := range sellerOrders {
		seller, err := identity.Seller(so.SellerID)
		if err != nil {
			log.Printf("[OrderService] Skipping notification for invalid seller id %q: %v", so.SellerID, err)
			continue
		}
		msg := fmt.Sprintf("You have a new paid order worth %.2f", so.Price)
		if _, err := s.notifier.NotifyAndPush(ctx, seller, notifdomain.TypeOrder, msg, "/seller/orders/"+so.ID.String()); err != nil {
			log.Printf("[OrderService] Seller notification for order %s failed: %v", so.ID, err)
		}
	}
}

func (s *OrderService) signPayment(orderRef, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(s.rzpSecret))
	mac.Write([]byte(orderRef + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}
