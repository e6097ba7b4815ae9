package domain

import (
	"fmt"
	"time"
)

// ProductRef is what the aggregate needs to know about the product it pools.
type ProductRef struct {
	ID         string
	SupplierID string
	Unit       string
}

// GroupOrder is the consistency boundary: one product, one supplier, the
// participant ledger and the lifecycle status. It is not safe for concurrent
// use; callers serialize mutations through the repository.
type GroupOrder struct {
	ID           string
	ProductID    string
	SupplierID   string
	Unit         string
	Participants Ledger
	Status       Status
	CreatedBy    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	ClosedAt     *time.Time
	Version      int64

	events []Event
}

// New creates an open group order seeded with the initiating vendor.
func New(id string, product ProductRef, vendorID string, qty int, now time.Time) (*GroupOrder, error) {
	if err := ValidateQuantity(qty); err != nil {
		return nil, err
	}
	now = now.UTC()
	o := &GroupOrder{
		ID:           id,
		ProductID:    product.ID,
		SupplierID:   product.SupplierID,
		Unit:         product.Unit,
		Participants: Ledger{{VendorID: vendorID, Quantity: qty}},
		Status:       StatusOpen,
		CreatedBy:    vendorID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	o.record(EventGroupOrderCreated, vendorID, qty, now)
	return o, nil
}

func (o *GroupOrder) TotalQuantity() int64 {
	return o.Participants.Total()
}

func (o *GroupOrder) HasParticipant(vendorID string) bool {
	return o.Participants.Has(vendorID)
}

func (o *GroupOrder) require(next Status, op string) error {
	if o.Status != StatusOpen || !o.Status.CanTransitionTo(next) {
		return fmt.Errorf("cannot %s a %s order: %w", op, o.Status, ErrInvalidState)
	}
	return nil
}

// Join adds qty to the vendor's commitment, appending the vendor if new.
func (o *GroupOrder) Join(vendorID string, qty int, now time.Time) error {
	if err := o.require(StatusOpen, "join"); err != nil {
		return err
	}
	if err := o.Participants.AddOrMerge(vendorID, qty); err != nil {
		return err
	}
	o.touch(now)
	o.record(EventParticipantJoined, vendorID, qty, o.UpdatedAt)
	return nil
}

// UpdateQuantity replaces the commitment of a vendor that already joined.
func (o *GroupOrder) UpdateQuantity(vendorID string, qty int, now time.Time) error {
	if err := o.require(StatusOpen, "modify"); err != nil {
		return err
	}
	if err := o.Participants.SetQuantity(vendorID, qty); err != nil {
		return err
	}
	o.touch(now)
	o.record(EventParticipantQuantityUpdated, vendorID, qty, o.UpdatedAt)
	return nil
}

// Close finalizes the order. Status and ClosedAt change together.
func (o *GroupOrder) Close(now time.Time) error {
	if err := o.require(StatusCompleted, "close"); err != nil {
		return err
	}
	o.touch(now)
	closedAt := o.UpdatedAt
	o.Status = StatusCompleted
	o.ClosedAt = &closedAt
	o.record(EventGroupOrderClosed, "", 0, closedAt)
	return nil
}

// Cancel abandons an open order. Only the initiating vendor may cancel.
func (o *GroupOrder) Cancel(callerID string, now time.Time) error {
	if err := o.require(StatusCancelled, "cancel"); err != nil {
		return err
	}
	if callerID != o.CreatedBy {
		return fmt.Errorf("only the creator may cancel: %w", ErrForbidden)
	}
	o.touch(now)
	o.Status = StatusCancelled
	o.record(EventGroupOrderCancelled, "", 0, o.UpdatedAt)
	return nil
}

func (o *GroupOrder) touch(now time.Time) {
	o.UpdatedAt = now.UTC()
}

func (o *GroupOrder) record(t EventType, vendorID string, qty int, at time.Time) {
	ev := Event{
		Type:          t,
		GroupOrderID:  o.ID,
		ProductID:     o.ProductID,
		SupplierID:    o.SupplierID,
		VendorID:      vendorID,
		Quantity:      qty,
		TotalQuantity: o.TotalQuantity(),
		Status:        o.Status,
		OccurredAt:    at,
	}
	if ev.ChangesStatus() {
		ev.Participants = o.Participants.VendorIDs()
	}
	o.events = append(o.events, ev)
}

// PendingEvents returns the events recorded since the last drain.
func (o *GroupOrder) PendingEvents() []Event {
	return append([]Event(nil), o.events...)
}

// DrainEvents returns and clears the pending events.
func (o *GroupOrder) DrainEvents() []Event {
	evs := o.events
	o.events = nil
	return evs
}

// Clone returns a deep copy, pending events included.
func (o *GroupOrder) Clone() *GroupOrder {
	if o == nil {
		return nil
	}
	c := *o
	c.Participants = o.Participants.Clone()
	if o.ClosedAt != nil {
		t := *o.ClosedAt
		c.ClosedAt = &t
	}
	c.events = append([]Event(nil), o.events...)
	return &c
}
