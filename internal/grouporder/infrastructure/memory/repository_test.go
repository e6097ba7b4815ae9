package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmehra2102/streetfood-connect/internal/grouporder/domain"
)

var base = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func seed(t *testing.T, r *Repository, id, vendor string, at time.Time) *domain.GroupOrder {
	t.Helper()
	o, err := domain.New(id, domain.ProductRef{ID: "p1", SupplierID: "s1"}, vendor, 1, at)
	require.NoError(t, err)
	require.NoError(t, r.Create(context.Background(), o))
	return o
}

func TestCreateAndGet(t *testing.T) {
	r := NewRepository()
	seed(t, r, "g1", "v1", base)

	got, err := r.Get(context.Background(), "g1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Version)
	assert.Empty(t, got.PendingEvents())

	_, err = r.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrAggregateNotFound)

	dup, _ := domain.New("g1", domain.ProductRef{ID: "p1"}, "v1", 1, base)
	assert.ErrorIs(t, r.Create(context.Background(), dup), domain.ErrConcurrentModification)
}

func TestEventLogOffByDefault(t *testing.T) {
	r := NewRepository()
	seed(t, r, "g1", "v1", base)
	_, err := r.Update(context.Background(), "g1", func(o *domain.GroupOrder) error {
		return o.Join("v2", 2, base.Add(time.Minute))
	})
	require.NoError(t, err)
	_, err = r.Update(context.Background(), "g1", func(o *domain.GroupOrder) error {
		return o.UpdateQuantity("v2", 5, base.Add(2*time.Minute))
	})
	require.NoError(t, err)

	assert.Empty(t, r.Events())
	got, err := r.Get(context.Background(), "g1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), got.Version)
	assert.Empty(t, got.PendingEvents())
}

func TestUpdateFailureLeavesStateUntouched(t *testing.T) {
	r := NewRepository(WithEventLog())
	seed(t, r, "g1", "v1", base)

	_, err := r.Update(context.Background(), "g1", func(o *domain.GroupOrder) error {
		o.Participants[0].Quantity = 50
		return domain.ErrInvalidState
	})
	require.ErrorIs(t, err, domain.ErrInvalidState)

	got, err := r.Get(context.Background(), "g1")
	require.NoError(t, err)
	assert.Equal(t, 1, got.Participants[0].Quantity)
	assert.Equal(t, int64(1), got.Version)
	assert.Len(t, r.Events(), 1)

	_, err = r.Update(context.Background(), "missing", func(*domain.GroupOrder) error { return nil })
	assert.ErrorIs(t, err, domain.ErrAggregateNotFound)
}

func TestConcurrentJoinsAreSerialized(t *testing.T) {
	r := NewRepository()
	seed(t, r, "g1", "v0", base)

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := r.Update(context.Background(), "g1", func(o *domain.GroupOrder) error {
				return o.Join(fmt.Sprintf("v%d", i+1), 2, base)
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	got, err := r.Get(context.Background(), "g1")
	require.NoError(t, err)
	assert.Len(t, got.Participants, n+1)
	assert.Equal(t, int64(1+2*n), got.TotalQuantity())
	assert.Equal(t, int64(n+1), got.Version)
}

func TestListByVendor(t *testing.T) {
	r := NewRepository()
	for i := 0; i < 5; i++ {
		seed(t, r, fmt.Sprintf("g%d", i), "v1", base.Add(time.Duration(i)*time.Minute))
	}
	seed(t, r, "other", "v2", base)

	got, err := r.ListByVendor(context.Background(), "v1", 3)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "g4", got[0].ID)
	assert.Equal(t, "g2", got[2].ID)

	none, err := r.ListByVendor(context.Background(), "v9", 100)
	require.NoError(t, err)
	assert.Empty(t, none)
}
