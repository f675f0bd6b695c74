package realtime

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient() *Client {
	return &Client{
		send:   make(chan []byte, 8),
		id:     uuid.New(),
		joined: make(map[string]struct{}),
	}
}

func waitFrame(t *testing.T, c *Client) Envelope {
	t.Helper()
	select {
	case raw, ok := <-c.send:
		require.True(t, ok, "send channel closed")
		var env Envelope
		require.NoError(t, json.Unmarshal(raw, &env))
		return env
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for frame")
		return Envelope{}
	}
}

func assertNoFrame(t *testing.T, c *Client) {
	t.Helper()
	select {
	case raw := <-c.send:
		t.Fatalf("unexpected frame: %s", raw)
	default:
	}
}

func TestHub_EmitToRoom_DeliversToAllRoomMembers(t *testing.T) {
	h := NewHub()
	first := newTestClient()
	second := newTestClient()
	outsider := newTestClient()
	h.clients[first] = true
	h.clients[second] = true
	h.clients[outsider] = true
	h.rooms["seller_42"] = map[*Client]struct{}{first: {}, second: {}}
	first.joined["seller_42"] = struct{}{}
	second.joined["seller_42"] = struct{}{}

	go h.Run()
	defer h.Stop()

	h.EmitToRoom("seller_42", EventUnreadCountUpdate, map[string]int{"unreadCount": 3})

	for _, c := range []*Client{first, second} {
		env := waitFrame(t, c)
		assert.Equal(t, EventUnreadCountUpdate, env.Event)
		assert.JSONEq(t, `{"unreadCount":3}`, string(env.Data))
	}
	assertNoFrame(t, outsider)
}

func TestHub_EmitToRoom_EmptyRoomIsNoop(t *testing.T) {
	h := NewHub()
	member := newTestClient()
	h.clients[member] = true
	h.rooms["present"] = map[*Client]struct{}{member: {}}
	member.joined["present"] = struct{}{}

	go h.Run()
	defer h.Stop()

	h.EmitToRoom("nobody_home", EventNewNotification, map[string]string{"message": "hi"})

	// Loop is still alive and serving other rooms.
	h.EmitToRoom("present", EventUnreadCountUpdate, map[string]int{"unreadCount": 0})
	env := waitFrame(t, member)
	assert.Equal(t, EventUnreadCountUpdate, env.Event)
}

func registerSeller(t *testing.T, h *Hub, c *Client, sellerID string) {
	t.Helper()
	data, err := json.Marshal(map[string]any{"sellerId": sellerID, "info": map[string]string{"shop": "test"}})
	require.NoError(t, err)
	h.inbound <- inboundEvent{client: c, env: Envelope{Event: EventAddSeller, Data: data}}
}

func registerCustomer(t *testing.T, h *Hub, c *Client, customerID string) {
	t.Helper()
	data, err := json.Marshal(map[string]any{"customerId": customerID})
	require.NoError(t, err)
	h.inbound <- inboundEvent{client: c, env: Envelope{Event: EventAddCustomer, Data: data}}
}

func TestHub_AddSellerJoinsRoomAndBroadcastsPresence(t *testing.T) {
	h := NewHub()
	seller := newTestClient()
	h.clients[seller] = true

	go h.Run()
	defer h.Stop()

	registerSeller(t, h, seller, "seller_42")

	env := waitFrame(t, seller)
	assert.Equal(t, EventActiveSellers, env.Event)
	assert.Contains(t, string(env.Data), "seller_42")

	h.EmitToRoom("seller_42", EventNewNotification, map[string]string{"message": "New order #1"})
	env = waitFrame(t, seller)
	assert.Equal(t, EventNewNotification, env.Event)
	assert.Contains(t, string(env.Data), "New order #1")
}

func TestHub_RelayCustomerToSeller(t *testing.T) {
	h := NewHub()
	seller := newTestClient()
	customer := newTestClient()
	h.clients[seller] = true
	h.clients[customer] = true

	go h.Run()
	defer h.Stop()

	registerSeller(t, h, seller, "seller_1")
	// Both connections receive the presence broadcast triggered by the
	// seller's registration.
	waitFrame(t, seller)
	waitFrame(t, customer)
	registerCustomer(t, h, customer, "cust_1")

	msg, err := json.Marshal(map[string]string{"receiverId": "seller_1", "text": "is this in stock?"})
	require.NoError(t, err)
	h.inbound <- inboundEvent{client: customer, env: Envelope{Event: EventSendCustomerMessage, Data: msg}}

	env := waitFrame(t, seller)
	assert.Equal(t, EventCustomerMessage, env.Event)
	assert.Contains(t, string(env.Data), "is this in stock?")
	assertNoFrame(t, customer)
}

func TestHub_RelayToAbsentTargetIsDroppedSilently(t *testing.T) {
	h := NewHub()
	customer := newTestClient()
	h.clients[customer] = true

	go h.Run()
	defer h.Stop()

	registerCustomer(t, h, customer, "cust_1")

	msg, err := json.Marshal(map[string]string{"receiverId": "ghost_seller", "text": "hello?"})
	require.NoError(t, err)
	h.inbound <- inboundEvent{client: customer, env: Envelope{Event: EventSendCustomerMessage, Data: msg}}

	// Sender gets no failure signal and the loop keeps serving.
	assertNoFrame(t, customer)
	registerSeller(t, h, customer, "seller_9")
	env := waitFrame(t, customer)
	assert.Equal(t, EventActiveSellers, env.Event)
}

func TestHub_AdminRegistrationAndSellerAdminRelay(t *testing.T) {
	h := NewHub()
	admin := newTestClient()
	seller := newTestClient()
	h.clients[admin] = true
	h.clients[seller] = true

	go h.Run()
	defer h.Stop()

	data, err := json.Marshal(map[string]any{"info": map[string]string{"name": "root"}})
	require.NoError(t, err)
	h.inbound <- inboundEvent{client: admin, env: Envelope{Event: EventAddAdmin, Data: data}}
	waitFrame(t, admin)
	waitFrame(t, seller)

	registerSeller(t, h, seller, "seller_1")
	waitFrame(t, admin)
	waitFrame(t, seller)

	msg, err := json.Marshal(map[string]string{"receiverId": "", "text": "withdrawal request"})
	require.NoError(t, err)
	h.inbound <- inboundEvent{client: seller, env: Envelope{Event: EventSendSellerAdminMessage, Data: msg}}

	env := waitFrame(t, admin)
	assert.Equal(t, EventSellerAdminMessage, env.Event)
	assert.Contains(t, string(env.Data), "withdrawal request")

	// Admin room addressing works for the emitter too.
	h.EmitToRoom("admin", EventUnreadCountUpdate, map[string]int{"unreadCount": 7})
	env = waitFrame(t, admin)
	assert.Equal(t, EventUnreadCountUpdate, env.Event)
}

func TestHub_DisconnectLeavesRoomsAndPresence(t *testing.T) {
	h := NewHub()
	seller := newTestClient()
	watcher := newTestClient()
	h.clients[seller] = true
	h.clients[watcher] = true

	go h.Run()
	defer h.Stop()

	registerSeller(t, h, seller, "seller_1")
	waitFrame(t, seller)
	env := waitFrame(t, watcher)
	assert.Contains(t, string(env.Data), "seller_1")

	h.unregister <- seller

	// Disconnect re-broadcasts the (now empty) seller presence list.
	env = waitFrame(t, watcher)
	assert.Equal(t, EventActiveSellers, env.Event)
	assert.NotContains(t, string(env.Data), "seller_1")

	// Emits to the departed seller's room are delivery misses now.
	h.EmitToRoom("seller_1", EventNewNotification, map[string]string{"message": "late"})
	assertNoFrame(t, watcher)
}

func TestHub_StopClosesAllClients(t *testing.T) {
	h := NewHub()
	c := newTestClient()
	h.clients[c] = true

	go h.Run()
	h.Stop()

	select {
	case _, ok := <-c.send:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("expected send channel to be closed")
	}

	// EmitToRoom after Stop returns without blocking.
	h.EmitToRoom("seller_1", EventNewNotification, map[string]string{"message": "x"})
}
