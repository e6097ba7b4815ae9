package domain

import (
	"fmt"
	"math"
)

// MaxQuantity bounds a single vendor commitment to the storage column range.
const MaxQuantity = math.MaxInt32

type Participant struct {
	VendorID string
	Quantity int
}

// Ledger is the ordered, vendor-unique set of commitments inside one group
// order. Order is join order.
type Ledger []Participant

func ValidateQuantity(qty int) error {
	if qty <= 0 || qty > MaxQuantity {
		return fmt.Errorf("quantity %d: %w", qty, ErrInvalidQuantity)
	}
	return nil
}

func (l Ledger) indexOf(vendorID string) int {
	for i := range l {
		if l[i].VendorID == vendorID {
			return i
		}
	}
	return -1
}

func (l Ledger) Has(vendorID string) bool {
	return l.indexOf(vendorID) >= 0
}

// QuantityOf returns the committed quantity for vendorID, or false if absent.
func (l Ledger) QuantityOf(vendorID string) (int, bool) {
	i := l.indexOf(vendorID)
	if i < 0 {
		return 0, false
	}
	return l[i].Quantity, true
}

// AddOrMerge adds qty to an existing commitment or appends a new entry.
func (l *Ledger) AddOrMerge(vendorID string, qty int) error {
	if err := ValidateQuantity(qty); err != nil {
		return err
	}
	i := l.indexOf(vendorID)
	if i < 0 {
		*l = append(*l, Participant{VendorID: vendorID, Quantity: qty})
		return nil
	}
	cur := (*l)[i].Quantity
	if cur > MaxQuantity-qty {
		return fmt.Errorf("merged quantity exceeds %d: %w", MaxQuantity, ErrInvalidQuantity)
	}
	(*l)[i].Quantity = cur + qty
	return nil
}

// SetQuantity replaces the commitment of an existing participant.
func (l Ledger) SetQuantity(vendorID string, qty int) error {
	if err := ValidateQuantity(qty); err != nil {
		return err
	}
	i := l.indexOf(vendorID)
	if i < 0 {
		return fmt.Errorf("vendor %s: %w", vendorID, ErrNotAParticipant)
	}
	l[i].Quantity = qty
	return nil
}

func (l Ledger) Total() int64 {
	var total int64
	for _, p := range l {
		total += int64(p.Quantity)
	}
	return total
}

func (l Ledger) VendorIDs() []string {
	ids := make([]string, 0, len(l))
	for _, p := range l {
		ids = append(ids, p.VendorID)
	}
	return ids
}

func (l Ledger) Clone() Ledger {
	if l == nil {
		return nil
	}
	out := make(Ledger, len(l))
	copy(out, l)
	return out
}
