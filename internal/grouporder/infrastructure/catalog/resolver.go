// Package catalog adapts the product read model to the group-order
// ProductResolver port.
package catalog

import (
	"context"
	"errors"
	"fmt"

	catalogdomain "github.com/dmehra2102/streetfood-connect/internal/catalog/domain"
	"github.com/dmehra2102/streetfood-connect/internal/grouporder/domain"
)

type Source interface {
	Get(ctx context.Context, id string) (catalogdomain.Product, error)
}

type Resolver struct {
	source Source
}

func NewResolver(source Source) *Resolver {
	return &Resolver{source: source}
}

func (r *Resolver) Resolve(ctx context.Context, productID string) (domain.ProductRef, error) {
	p, err := r.source.Get(ctx, productID)
	if errors.Is(err, catalogdomain.ErrProductNotFound) {
		return domain.ProductRef{}, fmt.Errorf("product %s: %w", productID, domain.ErrProductNotFound)
	}
	if err != nil {
		return domain.ProductRef{}, fmt.Errorf("resolve product %s: %w", productID, err)
	}
	return domain.ProductRef{ID: p.ID, SupplierID: p.SupplierID, Unit: p.Unit}, nil
}

// Static resolves from a fixed set of products. It backs the in-memory
// store mode and tests.
type Static map[string]catalogdomain.Product

func (s Static) Get(_ context.Context, id string) (catalogdomain.Product, error) {
	p, ok := s[id]
	if !ok {
		return catalogdomain.Product{}, catalogdomain.ErrProductNotFound
	}
	return p, nil
}
