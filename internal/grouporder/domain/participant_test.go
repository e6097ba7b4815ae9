package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedgerAddOrMerge(t *testing.T) {
	var l Ledger

	require.NoError(t, l.AddOrMerge("v1", 5))
	require.NoError(t, l.AddOrMerge("v2", 2))
	require.NoError(t, l.AddOrMerge("v1", 3))

	assert.Equal(t, Ledger{{"v1", 8}, {"v2", 2}}, l)
	assert.Equal(t, int64(10), l.Total())
	assert.Equal(t, []string{"v1", "v2"}, l.VendorIDs())
}

func TestLedgerMergeOverflow(t *testing.T) {
	l := Ledger{{"v1", MaxQuantity - 1}}

	err := l.AddOrMerge("v1", 2)

	assert.ErrorIs(t, err, ErrInvalidQuantity)
	assert.Equal(t, MaxQuantity-1, l[0].Quantity)
}

func TestLedgerSetQuantity(t *testing.T) {
	l := Ledger{{"v1", 8}, {"v2", 2}}

	require.NoError(t, l.SetQuantity("v2", 10))
	assert.Equal(t, Ledger{{"v1", 8}, {"v2", 10}}, l)

	err := l.SetQuantity("v3", 1)
	assert.ErrorIs(t, err, ErrNotAParticipant)
	assert.Len(t, l, 2)
}

func TestLedgerRejectsNonPositive(t *testing.T) {
	for _, qty := range []int{0, -1} {
		var l Ledger
		assert.ErrorIs(t, l.AddOrMerge("v1", qty), ErrInvalidQuantity)
		assert.Empty(t, l)

		l = Ledger{{"v1", 1}}
		assert.ErrorIs(t, l.SetQuantity("v1", qty), ErrInvalidQuantity)
		assert.Equal(t, 1, l[0].Quantity)
	}
}

func TestLedgerClone(t *testing.T) {
	l := Ledger{{"v1", 1}}
	c := l.Clone()
	c[0].Quantity = 99

	assert.Equal(t, 1, l[0].Quantity)
	assert.Nil(t, Ledger(nil).Clone())
}
