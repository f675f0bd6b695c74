package application

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// PaymentWatchdog owns one cancellable timer per order awaiting payment.
// Unlike a fire-and-forget timer, pending entries can be enumerated,
// cancelled on payment, and re-armed from the store after a restart.
type PaymentWatchdog struct {
	mu      sync.Mutex
	timers  map[uuid.UUID]*time.Timer
	timeout time.Duration
	expire  func(orderID uuid.UUID)
	stopped bool
}

func NewPaymentWatchdog(timeout time.Duration, expire func(orderID uuid.UUID)) *PaymentWatchdog {
	return &PaymentWatchdog{
		timers:  make(map[uuid.UUID]*time.Timer),
		timeout: timeout,
		expire:  expire,
	}
}

// Schedule arms the full payment window for a freshly placed order.
func (w *PaymentWatchdog) Schedule(orderID uuid.UUID) {
	w.ScheduleIn(orderID, w.timeout)
}

// ScheduleIn arms a timer with an explicit remaining window, used when
// resuming orders that already spent part of their window before a restart.
// Re-scheduling an order replaces its previous timer.
func (w *PaymentWatchdog) ScheduleIn(orderID uuid.UUID, d time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return
	}
	if old, ok := w.timers[orderID]; ok {
		old.Stop()
	}
	w.timers[orderID] = time.AfterFunc(d, func() {
		w.mu.Lock()
		delete(w.timers, orderID)
		w.mu.Unlock()
		w.expire(orderID)
	})
}

// Cancel disarms a pending timer, reporting whether one was armed.
func (w *PaymentWatchdog) Cancel(orderID uuid.UUID) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	timer, ok := w.timers[orderID]
	if !ok {
		return false
	}
	timer.Stop()
	delete(w.timers, orderID)
	return true
}

// Pending lists the orders currently under watch.
func (w *PaymentWatchdog) Pending() []uuid.UUID {
	w.mu.Lock()
	defer w.mu.Unlock()
	ids := make([]uuid.UUID, 0, len(w.timers))
	for id := range w.timers {
		ids = append(ids, id)
	}
	return ids
}

// Stop disarms every timer and refuses new schedules.
func (w *PaymentWatchdog) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stopped = true
	for id, timer := range w.timers {
		timer.Stop()
		delete(w.timers, id)
	}
}
