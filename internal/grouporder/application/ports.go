package application

import (
	"context"
	"time"

	"github.com/dmehra2102/streetfood-connect/internal/grouporder/domain"
)

// Repository persists group orders. Update is an atomic read-modify-write
// on one aggregate: mutate runs against the current committed state; if it
// returns an error nothing is written. Implementations persist the
// aggregate's pending events in the same unit of work.
type Repository interface {
	Create(ctx context.Context, o *domain.GroupOrder) error
	Get(ctx context.Context, id string) (*domain.GroupOrder, error)
	Update(ctx context.Context, id string, mutate func(o *domain.GroupOrder) error) (*domain.GroupOrder, error)
	ListByVendor(ctx context.Context, vendorID string, limit int) ([]*domain.GroupOrder, error)
}

type ProductResolver interface {
	Resolve(ctx context.Context, productID string) (domain.ProductRef, error)
}

// EventSink receives lifecycle changes after they commit. Delivery is best
// effort.
type EventSink interface {
	Publish(ctx context.Context, ev domain.StatusChanged) error
}

type Hooks interface {
	ObserveOperation(op, outcome string, dur time.Duration)
	IncConflict(op string)
}

type noopHooks struct{}

func (noopHooks) ObserveOperation(string, string, time.Duration) {}
func (noopHooks) IncConflict(string)                             {}

type noopSink struct{}

func (noopSink) Publish(context.Context, domain.StatusChanged) error { return nil }
