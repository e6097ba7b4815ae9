package domain

import "time"

type EventType string

const (
	EventGroupOrderCreated          EventType = "GroupOrderCreated"
	EventParticipantJoined          EventType = "ParticipantJoined"
	EventParticipantQuantityUpdated EventType = "ParticipantQuantityUpdated"
	EventGroupOrderClosed           EventType = "GroupOrderClosed"
	EventGroupOrderCancelled        EventType = "GroupOrderCancelled"
)

// Event is the outbox payload recorded for every committed mutation.
type Event struct {
	Type          EventType `json:"type"`
	GroupOrderID  string    `json:"group_order_id"`
	ProductID     string    `json:"product_id"`
	SupplierID    string    `json:"supplier_id"`
	VendorID      string    `json:"vendor_id,omitempty"`
	Quantity      int       `json:"quantity,omitempty"`
	TotalQuantity int64     `json:"total_quantity"`
	Status        Status    `json:"status"`
	Participants  []string  `json:"participants,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// ChangesStatus is true for events that move the aggregate into a new
// lifecycle state (creation counts as entering open).
func (e Event) ChangesStatus() bool {
	switch e.Type {
	case EventGroupOrderCreated, EventGroupOrderClosed, EventGroupOrderCancelled:
		return true
	}
	return false
}

func (e Event) StatusChange() (StatusChanged, bool) {
	if !e.ChangesStatus() {
		return StatusChanged{}, false
	}
	return StatusChanged{GroupOrderID: e.GroupOrderID, Status: e.Status, Timestamp: e.OccurredAt}, true
}

// StatusChanged is handed to the notification sink after commit.
type StatusChanged struct {
	GroupOrderID string    `json:"order_id"`
	Status       Status    `json:"status"`
	Timestamp    time.Time `json:"timestamp"`
}
