package http

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dmehra2102/streetfood-connect/internal/grouporder/domain"
)

type createReq struct {
	ProductID string      `json:"product_id"`
	Quantity  json.Number `json:"quantity"`
}

type quantityReq struct {
	Quantity json.Number `json:"quantity"`
}

// quantity turns the raw JSON number into a commitment. Fractions and values
// outside the storage range are quantity errors, not malformed bodies. A
// missing field reads as zero and is rejected by the service.
func quantity(n json.Number) (int, error) {
	if n == "" {
		return 0, nil
	}
	v, err := n.Int64()
	if err != nil || v > domain.MaxQuantity || v < -domain.MaxQuantity {
		return 0, fmt.Errorf("quantity %s: %w", n, domain.ErrInvalidQuantity)
	}
	return int(v), nil
}

type participantResp struct {
	VendorID string `json:"vendor_id"`
	Quantity int    `json:"quantity"`
}

type groupOrderResp struct {
	ID            string            `json:"id"`
	ProductID     string            `json:"product_id"`
	SupplierID    string            `json:"supplier_id"`
	Unit          string            `json:"unit,omitempty"`
	Participants  []participantResp `json:"participants"`
	TotalQuantity int64             `json:"total_quantity"`
	Status        domain.Status     `json:"status"`
	CreatedBy     string            `json:"created_by"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
	ClosedAt      *time.Time        `json:"closed_at,omitempty"`
	Version       int64             `json:"version"`
}

func toResp(o *domain.GroupOrder) groupOrderResp {
	ps := make([]participantResp, 0, len(o.Participants))
	for _, p := range o.Participants {
		ps = append(ps, participantResp{VendorID: p.VendorID, Quantity: p.Quantity})
	}
	return groupOrderResp{
		ID:            o.ID,
		ProductID:     o.ProductID,
		SupplierID:    o.SupplierID,
		Unit:          o.Unit,
		Participants:  ps,
		TotalQuantity: o.TotalQuantity(),
		Status:        o.Status,
		CreatedBy:     o.CreatedBy,
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
		ClosedAt:      o.ClosedAt,
		Version:       o.Version,
	}
}

type errorResp struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
}
