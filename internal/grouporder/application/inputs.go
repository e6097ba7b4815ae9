package application

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dmehra2102/streetfood-connect/internal/grouporder/domain"
)

var ErrMissingField = errors.New("missing required field")

type CreateInput struct {
	ProductID string
	Quantity  int
	CallerID  string
}

func (in CreateInput) Validate() error {
	if err := required("product_id", in.ProductID, "caller_id", in.CallerID); err != nil {
		return err
	}
	return domain.ValidateQuantity(in.Quantity)
}

type JoinInput struct {
	GroupOrderID string
	Quantity     int
	CallerID     string
}

func (in JoinInput) Validate() error {
	if err := required("group_order_id", in.GroupOrderID, "caller_id", in.CallerID); err != nil {
		return err
	}
	return domain.ValidateQuantity(in.Quantity)
}

type UpdateQuantityInput struct {
	GroupOrderID string
	Quantity     int
	CallerID     string
}

func (in UpdateQuantityInput) Validate() error {
	if err := required("group_order_id", in.GroupOrderID, "caller_id", in.CallerID); err != nil {
		return err
	}
	return domain.ValidateQuantity(in.Quantity)
}

type CloseInput struct {
	GroupOrderID string
	CallerID     string
}

func (in CloseInput) Validate() error {
	return required("group_order_id", in.GroupOrderID, "caller_id", in.CallerID)
}

type CancelInput struct {
	GroupOrderID string
	CallerID     string
}

func (in CancelInput) Validate() error {
	return required("group_order_id", in.GroupOrderID, "caller_id", in.CallerID)
}

// required takes name/value pairs.
func required(pairs ...string) error {
	for i := 0; i+1 < len(pairs); i += 2 {
		if strings.TrimSpace(pairs[i+1]) == "" {
			return fmt.Errorf("%s: %w", pairs[i], ErrMissingField)
		}
	}
	return nil
}
