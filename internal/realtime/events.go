package realtime

import "encoding/json"

// Client -> server events.
const (
	EventAddCustomer            = "add_user"
	EventAddSeller              = "add_seller"
	EventAddAdmin               = "add_admin"
	EventSendCustomerMessage    = "send_customer_message"
	EventSendSellerMessage      = "send_seller_message"
	EventSendAdminMessage       = "send_admin_message"
	EventSendSellerAdminMessage = "send_seller_admin_message"
)

// Server -> client events.
const (
	EventNewNotification    = "new_notification"
	EventUnreadCountUpdate  = "unread_count_update"
	EventCustomerMessage    = "customer_message"
	EventSellerMessage      = "seller_message"
	EventAdminMessage       = "admin_message"
	EventSellerAdminMessage = "seller_admin_message"
	EventActiveSellers      = "active_sellers_list"
)

// Envelope is the wire frame for every websocket message in both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

func encodeEnvelope(event string, data any) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Event: event, Data: raw})
}

// registerPayload carries the registration events. Info is the optional
// profile snapshot the client supplies at connect time.
type registerPayload struct {
	CustomerID string          `json:"customerId,omitempty"`
	SellerID   string          `json:"sellerId,omitempty"`
	Info       json.RawMessage `json:"info,omitempty"`
}

// relayPayload is peeked from direct chat relays; everything else in the
// message is forwarded verbatim to the target connection.
type relayPayload struct {
	ReceiverID string `json:"receiverId"`
}
