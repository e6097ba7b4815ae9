package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/dmehra2102/streetfood-connect/internal/grouporder/domain"
)

// Repository keeps group orders in process memory. Writers on the same id
// are serialized by a per-id mutex; readers only take the map read lock and
// see the last committed snapshot.
type Repository struct {
	mu     sync.RWMutex
	orders map[string]*domain.GroupOrder
	locks  map[string]*sync.Mutex
	keepLog bool
	events  []domain.Event
}

type Option func(*Repository)

// WithEventLog retains every committed event for Events. The log is
// unbounded, so it is off unless asked for.
func WithEventLog() Option {
	return func(r *Repository) { r.keepLog = true }
}

func NewRepository(opts ...Option) *Repository {
	r := &Repository{
		orders: make(map[string]*domain.GroupOrder),
		locks:  make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Repository) Create(ctx context.Context, o *domain.GroupOrder) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orders[o.ID]; ok {
		return fmt.Errorf("group order %s already exists: %w", o.ID, domain.ErrConcurrentModification)
	}
	o.Version = 1
	r.commitLocked(o)
	r.locks[o.ID] = &sync.Mutex{}
	return nil
}

func (r *Repository) Get(ctx context.Context, id string) (*domain.GroupOrder, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, fmt.Errorf("group order %s: %w", id, domain.ErrAggregateNotFound)
	}
	return o.Clone(), nil
}

func (r *Repository) Update(ctx context.Context, id string, mutate func(o *domain.GroupOrder) error) (*domain.GroupOrder, error) {
	r.mu.RLock()
	lock, ok := r.locks[id]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("group order %s: %w", id, domain.ErrAggregateNotFound)
	}

	lock.Lock()
	defer lock.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	current := r.orders[id]
	r.mu.RUnlock()

	working := current.Clone()
	if err := mutate(working); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.orders[id].Version != current.Version {
		return nil, fmt.Errorf("group order %s changed underneath: %w", id, domain.ErrConcurrentModification)
	}
	working.Version = current.Version + 1
	r.commitLocked(working)
	return working, nil
}

// commitLocked stores a snapshot without pending events and, when the event
// log is on, appends them to it. Caller holds r.mu.
func (r *Repository) commitLocked(o *domain.GroupOrder) {
	if r.keepLog {
		r.events = append(r.events, o.PendingEvents()...)
	}
	snapshot := o.Clone()
	snapshot.DrainEvents()
	r.orders[o.ID] = snapshot
}

func (r *Repository) ListByVendor(ctx context.Context, vendorID string, limit int) ([]*domain.GroupOrder, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	out := make([]*domain.GroupOrder, 0)
	for _, o := range r.orders {
		if o.HasParticipant(vendorID) {
			out = append(out, o.Clone())
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Events returns every event committed so far, in commit order. It is empty
// unless the repository was built WithEventLog.
func (r *Repository) Events() []domain.Event {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]domain.Event(nil), r.events...)
}
