package realtime

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/hasibdev/bazario/internal/shared/identity"
)

type inboundEvent struct {
	client *Client
	env    Envelope
}

type roomEmit struct {
	room  string
	event string
	frame []byte
}

// Hub owns the presence registry and the room membership tables and
// serializes every mutation of them on a single run loop. Connection
// registration, protocol events and room emits all funnel through its
// channels, so no locking is needed around the registry.
type Hub struct {
	// Register requests from new connections.
	register chan *Client

	// Unregister requests from closing connections.
	unregister chan *Client

	// Protocol events read from client connections.
	inbound chan inboundEvent

	// Room-addressed emits from the notification emitter.
	emits chan roomEmit

	stop     chan struct{}
	stopOnce sync.Once

	clients  map[*Client]bool
	rooms    map[string]map[*Client]struct{}
	presence *Presence
}

func NewHub() *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		inbound:    make(chan inboundEvent),
		emits:      make(chan roomEmit),
		stop:       make(chan struct{}),

		clients:  make(map[*Client]bool),
		rooms:    make(map[string]map[*Client]struct{}),
		presence: NewPresence(),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
			connectedClients.Inc()
			log.Printf("[Realtime Hub] Client connected: %s (total: %d)", client.id, len(h.clients))
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				h.removeClient(client)
				h.broadcastActiveSellers()
				log.Printf("[Realtime Hub] Client disconnected: %s (total: %d)", client.id, len(h.clients))
			}
		case ev := <-h.inbound:
			h.dispatch(ev.client, ev.env)
		case em := <-h.emits:
			h.deliverToRoom(em.room, em.event, em.frame)
		case <-h.stop:
			log.Println("[Realtime Hub] Stopping hub")
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
				connectedClients.Dec()
			}
			return
		}
	}
}

func (h *Hub) Stop() {
	h.stopOnce.Do(func() {
		close(h.stop)
	})
}

// EmitToRoom delivers an event to every live connection in the room named
// after the recipient identity. An empty room is a delivery miss, not an
// error: the caller's store state is already committed and REST polling is
// the durable fallback.
func (h *Hub) EmitToRoom(room, event string, data any) {
	frame, err := encodeEnvelope(event, data)
	if err != nil {
		log.Printf("[Realtime Hub] Failed to encode %s for room %s: %v", event, room, err)
		return
	}
	select {
	case h.emits <- roomEmit{room: room, event: event, frame: frame}:
	case <-h.stop:
	}
}

// dispatch handles one protocol event. Runs on the hub loop.
func (h *Hub) dispatch(c *Client, env Envelope) {
	switch env.Event {
	case EventAddCustomer:
		var p registerPayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			log.Printf("[Realtime Hub] Malformed %s payload: %v", env.Event, err)
			return
		}
		ident, err := identity.Customer(p.CustomerID)
		if err != nil {
			log.Printf("[Realtime Hub] Rejected customer registration: %v", err)
			return
		}
		h.rebind(c, ident)
		h.presence.RegisterCustomer(p.CustomerID, c, p.Info)
		log.Printf("[Realtime Hub] Customer registered: %s", p.CustomerID)
	case EventAddSeller:
		var p registerPayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			log.Printf("[Realtime Hub] Malformed %s payload: %v", env.Event, err)
			return
		}
		ident, err := identity.Seller(p.SellerID)
		if err != nil {
			log.Printf("[Realtime Hub] Rejected seller registration: %v", err)
			return
		}
		h.rebind(c, ident)
		h.presence.RegisterSeller(p.SellerID, c, p.Info)
		h.joinRoom(c, ident.Room())
		h.broadcastActiveSellers()
		log.Printf("[Realtime Hub] Seller registered and joined room: %s", p.SellerID)
	case EventAddAdmin:
		var p registerPayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			log.Printf("[Realtime Hub] Malformed %s payload: %v", env.Event, err)
			return
		}
		ident := identity.Admin()
		h.rebind(c, ident)
		h.presence.RegisterAdmin(p.Info, c)
		h.joinRoom(c, ident.Room())
		h.broadcastActiveSellers()
		log.Println("[Realtime Hub] Admin registered and joined admin room")
	case EventSendCustomerMessage:
		h.relay(env, EventCustomerMessage, h.presence.LookupSeller)
	case EventSendSellerMessage:
		h.relay(env, EventSellerMessage, h.presence.LookupCustomer)
	case EventSendAdminMessage:
		h.relay(env, EventAdminMessage, h.presence.LookupSeller)
	case EventSendSellerAdminMessage:
		h.relay(env, EventSellerAdminMessage, func(string) (*Client, bool) { return h.presence.LookupAdmin() })
	default:
		log.Printf("[Realtime Hub] Unknown event from client %s: %q", c.id, env.Event)
	}
}

// relay forwards a direct chat message to the target's current connection.
// When the target has no live connection the message is silently dropped;
// the sender gets no delivery signal.
func (h *Hub) relay(env Envelope, deliverAs string, lookup func(string) (*Client, bool)) {
	var p relayPayload
	if err := json.Unmarshal(env.Data, &p); err != nil {
		log.Printf("[Realtime Hub] Malformed %s payload: %v", env.Event, err)
		return
	}
	target, ok := lookup(p.ReceiverID)
	if !ok {
		pushesDropped.WithLabelValues(deliverAs).Inc()
		log.Printf("[Realtime Hub] Relay target %q not connected, dropping %s", p.ReceiverID, deliverAs)
		return
	}
	frame, err := json.Marshal(Envelope{Event: deliverAs, Data: env.Data})
	if err != nil {
		log.Printf("[Realtime Hub] Failed to encode relay %s: %v", deliverAs, err)
		return
	}
	h.send(target, deliverAs, frame)
}

// rebind points the connection at a new identity, undoing any previous
// registration on the same connection first.
func (h *Hub) rebind(c *Client, ident identity.Identity) {
	if !c.identity.IsZero() {
		h.presence.Remove(c)
		h.leaveRooms(c)
	}
	c.identity = ident
}

func (h *Hub) joinRoom(c *Client, room string) {
	members, ok := h.rooms[room]
	if !ok {
		members = make(map[*Client]struct{})
		h.rooms[room] = members
	}
	members[c] = struct{}{}
	c.joined[room] = struct{}{}
}

func (h *Hub) leaveRooms(c *Client) {
	for room := range c.joined {
		if members, ok := h.rooms[room]; ok {
			delete(members, c)
			if len(members) == 0 {
				delete(h.rooms, room)
			}
		}
		delete(c.joined, room)
	}
}

func (h *Hub) deliverToRoom(room, event string, frame []byte) {
	members := h.rooms[room]
	if len(members) == 0 {
		pushesDropped.WithLabelValues(event).Inc()
		return
	}
	for client := range members {
		h.send(client, event, frame)
	}
}

func (h *Hub) broadcastActiveSellers() {
	frame, err := encodeEnvelope(EventActiveSellers, h.presence.SnapshotSellers())
	if err != nil {
		log.Printf("[Realtime Hub] Failed to encode active sellers list: %v", err)
		return
	}
	for client := range h.clients {
		h.send(client, EventActiveSellers, frame)
	}
}

// send enqueues a frame on the client's outbound buffer; a client that
// cannot keep up is dropped, matching the write-or-evict policy of the
// broadcast loop.
func (h *Hub) send(c *Client, event string, frame []byte) {
	select {
	case c.send <- frame:
		pushesDelivered.WithLabelValues(event).Inc()
	default:
		pushesDropped.WithLabelValues(event).Inc()
		h.removeClient(c)
	}
}

// removeClient fully unhooks a connection: outbound buffer, presence entry
// and room memberships. Runs on the hub loop.
func (h *Hub) removeClient(c *Client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
	h.presence.Remove(c)
	h.leaveRooms(c)
	connectedClients.Dec()
}
