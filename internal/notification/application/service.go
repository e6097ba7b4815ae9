package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dmehra2102/streetfood-connect/internal/notification/domain"
)

type Publisher interface {
	PublishRoom(ctx context.Context, u domain.RoomUpdate) error
	PublishUser(ctx context.Context, vendorID string, p domain.Push) error
}

type Service struct {
	log *slog.Logger
	pub Publisher
}

func NewService(log *slog.Logger, pub Publisher) *Service {
	return &Service{log: log.With("component", "notification-service"), pub: pub}
}

// Handle fans one group-order event out. Participant changes are broadcast
// to the order room; closing and cancelling push a status notice to every
// participant. A failed recipient is logged and the rest are still tried;
// the joined error reports every failure.
func (s *Service) Handle(ctx context.Context, ev domain.Event) error {
	switch ev.Type {
	case domain.TypeJoined, domain.TypeQuantityUpdated:
		err := s.pub.PublishRoom(ctx, domain.RoomUpdate{
			OrderID:       ev.GroupOrderID,
			Type:          ev.Type,
			VendorID:      ev.VendorID,
			Quantity:      ev.Quantity,
			TotalQuantity: ev.TotalQuantity,
			Timestamp:     ev.OccurredAt,
		})
		if err != nil {
			s.log.Warn("room update failed", "group_order_id", ev.GroupOrderID, "err", err)
			return err
		}
		return nil
	case domain.TypeClosed, domain.TypeCancelled:
		return s.pushStatus(ctx, ev)
	case domain.TypeCreated:
		return nil
	default:
		s.log.Debug("ignoring event", "type", ev.Type, "group_order_id", ev.GroupOrderID)
		return nil
	}
}

func (s *Service) pushStatus(ctx context.Context, ev domain.Event) error {
	push := domain.StatusPush(ev.GroupOrderID, ev.Status)
	var errs []error
	sent := 0
	for _, vendorID := range ev.Participants {
		if err := s.pub.PublishUser(ctx, vendorID, push); err != nil {
			s.log.Warn("push failed", "group_order_id", ev.GroupOrderID, "vendor_id", vendorID, "err", err)
			errs = append(errs, fmt.Errorf("vendor %s: %w", vendorID, err))
			continue
		}
		sent++
	}
	s.log.Info("status pushed", "group_order_id", ev.GroupOrderID, "status", ev.Status, "sent", sent, "failed", len(errs))
	return errors.Join(errs...)
}
