package realtime

import (
	"encoding/json"

	"github.com/hasibdev/bazario/internal/shared/identity"
)

// SellerPresence is one entry of the active-sellers broadcast.
type SellerPresence struct {
	SellerID string          `json:"sellerId"`
	Info     json.RawMessage `json:"info,omitempty"`
}

// presenceEntry tracks every live connection of one identity. An identity is
// present iff its connection set is non-empty; removing the last connection
// deletes the entry.
type presenceEntry struct {
	conns   map[*Client]struct{}
	latest  *Client
	profile json.RawMessage
}

func newPresenceEntry() *presenceEntry {
	return &presenceEntry{conns: make(map[*Client]struct{})}
}

func (e *presenceEntry) add(c *Client, profile json.RawMessage) {
	e.conns[c] = struct{}{}
	e.latest = c
	if len(profile) > 0 {
		e.profile = profile
	}
}

func (e *presenceEntry) remove(c *Client) {
	delete(e.conns, c)
	if e.latest == c {
		e.latest = nil
		for other := range e.conns {
			e.latest = other
			break
		}
	}
}

// Presence maps recipient identities to their live connections. It holds no
// lock of its own: all mutation and every read happens on the hub run loop.
type Presence struct {
	customers map[string]*presenceEntry
	sellers   map[string]*presenceEntry
	admin     *presenceEntry
}

func NewPresence() *Presence {
	return &Presence{
		customers: make(map[string]*presenceEntry),
		sellers:   make(map[string]*presenceEntry),
	}
}

func (p *Presence) RegisterCustomer(customerID string, c *Client, profile json.RawMessage) {
	entry, ok := p.customers[customerID]
	if !ok {
		entry = newPresenceEntry()
		p.customers[customerID] = entry
	}
	entry.add(c, profile)
}

func (p *Presence) RegisterSeller(sellerID string, c *Client, profile json.RawMessage) {
	entry, ok := p.sellers[sellerID]
	if !ok {
		entry = newPresenceEntry()
		p.sellers[sellerID] = entry
	}
	entry.add(c, profile)
}

func (p *Presence) RegisterAdmin(profile json.RawMessage, c *Client) {
	if p.admin == nil {
		p.admin = newPresenceEntry()
	}
	p.admin.add(c, profile)
}

// LookupCustomer returns the most recently registered live connection of the
// customer, or false when the customer has no live connection.
func (p *Presence) LookupCustomer(customerID string) (*Client, bool) {
	entry, ok := p.customers[customerID]
	if !ok || entry.latest == nil {
		return nil, false
	}
	return entry.latest, true
}

func (p *Presence) LookupSeller(sellerID string) (*Client, bool) {
	entry, ok := p.sellers[sellerID]
	if !ok || entry.latest == nil {
		return nil, false
	}
	return entry.latest, true
}

func (p *Presence) LookupAdmin() (*Client, bool) {
	if p.admin == nil || p.admin.latest == nil {
		return nil, false
	}
	return p.admin.latest, true
}

// Remove drops exactly the disconnecting connection from whichever entry
// holds it. A connection that never registered is a no-op.
func (p *Presence) Remove(c *Client) {
	switch c.identity.Role() {
	case identity.RoleCustomer:
		if entry, ok := p.customers[c.identity.ID()]; ok {
			entry.remove(c)
			if len(entry.conns) == 0 {
				delete(p.customers, c.identity.ID())
			}
		}
	case identity.RoleSeller:
		if entry, ok := p.sellers[c.identity.ID()]; ok {
			entry.remove(c)
			if len(entry.conns) == 0 {
				delete(p.sellers, c.identity.ID())
			}
		}
	case identity.RoleAdmin:
		if p.admin != nil {
			p.admin.remove(c)
			if len(p.admin.conns) == 0 {
				p.admin = nil
			}
		}
	}
}

// SnapshotSellers returns the currently present sellers with their last
// known profile, for the active-sellers broadcast.
func (p *Presence) SnapshotSellers() []SellerPresence {
	snapshot := make([]SellerPresence, 0, len(p.sellers))
	for sellerID, entry := range p.sellers {
		snapshot = append(snapshot, SellerPresence{SellerID: sellerID, Info: entry.profile})
	}
	return snapshot
}
