// Package domain describes what the notification service consumes from the
// group-order stream and what it delivers to clients.
package domain

import (
	"fmt"
	"time"
)

// Event mirrors the group-order outbox payload.
type Event struct {
	Type          string    `json:"type"`
	GroupOrderID  string    `json:"group_order_id"`
	ProductID     string    `json:"product_id"`
	VendorID      string    `json:"vendor_id,omitempty"`
	Quantity      int       `json:"quantity,omitempty"`
	TotalQuantity int64     `json:"total_quantity"`
	Status        string    `json:"status"`
	Participants  []string  `json:"participants,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

const (
	TypeCreated         = "GroupOrderCreated"
	TypeJoined          = "ParticipantJoined"
	TypeQuantityUpdated = "ParticipantQuantityUpdated"
	TypeClosed          = "GroupOrderClosed"
	TypeCancelled       = "GroupOrderCancelled"
)

// RoomUpdate is broadcast to everyone watching one group order.
type RoomUpdate struct {
	OrderID       string    `json:"order_id"`
	Type          string    `json:"type"`
	VendorID      string    `json:"vendor_id,omitempty"`
	Quantity      int       `json:"quantity,omitempty"`
	TotalQuantity int64     `json:"total_quantity"`
	Timestamp     time.Time `json:"timestamp"`
}

type Push struct {
	Title string   `json:"title"`
	Body  string   `json:"body"`
	Data  PushData `json:"data"`
}

type PushData struct {
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
	URL     string `json:"url"`
}

func StatusPush(orderID, status string) Push {
	return Push{
		Title: "Order Status Update",
		Body:  fmt.Sprintf("Your order #%s is now %s", orderID, status),
		Data: PushData{
			OrderID: orderID,
			Status:  status,
			URL:     "/orders/" + orderID,
		},
	}
}

func RoomChannel(orderID string) string { return "order:" + orderID }
func UserChannel(vendorID string) string { return "user:" + vendorID }
