package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dmehra2102/streetfood-connect/internal/grouporder/domain"
)

// ListLimit caps how many group orders ListMine returns.
const ListLimit = 100

type Service struct {
	log      *slog.Logger
	repo     Repository
	products ProductResolver
	sink     EventSink
	hooks    Hooks
	now      func() time.Time
	newID    func() string
}

type Option func(*Service)

func WithEventSink(sink EventSink) Option { return func(s *Service) { s.sink = sink } }
func WithHooks(h Hooks) Option            { return func(s *Service) { s.hooks = h } }
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}
func WithIDGenerator(newID func() string) Option {
	return func(s *Service) { s.newID = newID }
}

func NewService(log *slog.Logger, repo Repository, products ProductResolver, opts ...Option) *Service {
	s := &Service{
		log:      log.With("component", "grouporder-service"),
		repo:     repo,
		products: products,
		sink:     noopSink{},
		hooks:    noopHooks{},
		now:      func() time.Time { return time.Now().UTC() },
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*domain.GroupOrder, error) {
	start := time.Now()
	o, err := s.create(ctx, in)
	s.observe("create", start, err)
	return o, err
}

func (s *Service) create(ctx context.Context, in CreateInput) (*domain.GroupOrder, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	product, err := s.products.Resolve(ctx, in.ProductID)
	if err != nil {
		return nil, err
	}
	o, err := domain.New(s.newID(), product, in.CallerID, in.Quantity, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, o); err != nil {
		return nil, fmt.Errorf("create group order: %w", err)
	}
	s.log.Info("group order created", "group_order_id", o.ID, "product_id", o.ProductID, "vendor_id", in.CallerID, "quantity", in.Quantity)
	s.publish(ctx, o)
	return o, nil
}

func (s *Service) Join(ctx context.Context, in JoinInput) (*domain.GroupOrder, error) {
	return s.mutate(ctx, "join", in, in.GroupOrderID, func(o *domain.GroupOrder) error {
		return o.Join(in.CallerID, in.Quantity, s.now())
	})
}

func (s *Service) UpdateQuantity(ctx context.Context, in UpdateQuantityInput) (*domain.GroupOrder, error) {
	return s.mutate(ctx, "update_quantity", in, in.GroupOrderID, func(o *domain.GroupOrder) error {
		return o.UpdateQuantity(in.CallerID, in.Quantity, s.now())
	})
}

func (s *Service) Close(ctx context.Context, in CloseInput) (*domain.GroupOrder, error) {
	return s.mutate(ctx, "close", in, in.GroupOrderID, func(o *domain.GroupOrder) error {
		return o.Close(s.now())
	})
}

func (s *Service) Cancel(ctx context.Context, in CancelInput) (*domain.GroupOrder, error) {
	return s.mutate(ctx, "cancel", in, in.GroupOrderID, func(o *domain.GroupOrder) error {
		return o.Cancel(in.CallerID, s.now())
	})
}

func (s *Service) Get(ctx context.Context, id string) (*domain.GroupOrder, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) ListMine(ctx context.Context, callerID string) ([]*domain.GroupOrder, error) {
	if callerID == "" {
		return nil, fmt.Errorf("caller_id: %w", ErrMissingField)
	}
	return s.repo.ListByVendor(ctx, callerID, ListLimit)
}

type validator interface {
	Validate() error
}

// mutate is the single gate for writes: the status check inside fn runs in
// the same atomic unit as the write. Rejected input is observed like any
// other outcome.
func (s *Service) mutate(ctx context.Context, op string, in validator, id string, fn func(o *domain.GroupOrder) error) (*domain.GroupOrder, error) {
	start := time.Now()
	if err := in.Validate(); err != nil {
		s.observe(op, start, err)
		return nil, err
	}
	o, err := s.repo.Update(ctx, id, fn)
	s.observe(op, start, err)
	if err != nil {
		s.log.Warn("group order mutation rejected", "op", op, "group_order_id", id, "kind", domain.KindOf(err), "err", err)
		return nil, err
	}
	s.log.Info("group order updated", "op", op, "group_order_id", o.ID, "status", o.Status, "version", o.Version)
	s.publish(ctx, o)
	return o, nil
}

func (s *Service) publish(ctx context.Context, o *domain.GroupOrder) {
	for _, ev := range o.DrainEvents() {
		change, ok := ev.StatusChange()
		if !ok {
			continue
		}
		if err := s.sink.Publish(ctx, change); err != nil {
			s.log.Warn("status notification failed", "group_order_id", change.GroupOrderID, "status", change.Status, "err", err)
		}
	}
}

func (s *Service) observe(op string, start time.Time, err error) {
	outcome := "success"
	if err != nil {
		kind := domain.KindOf(err)
		if errors.Is(err, ErrMissingField) {
			kind = "invalid_input"
		}
		outcome = string(kind)
		if kind == domain.KindConcurrentModification {
			s.hooks.IncConflict(op)
		}
	}
	s.hooks.ObserveOperation(op, outcome, time.Since(start))
}
