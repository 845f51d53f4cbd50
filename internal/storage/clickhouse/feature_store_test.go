package clickhouse

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dex-spillover-lab/internal/domain"
	"dex-spillover-lab/internal/storage"
)

func TestFeatureStore_InsertAndGetByVariant(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewFeatureStore(conn)
	cols := []string{"blockNumber", "s0", "binance-count-01"}

	rows := []*domain.FeatureRow{
		{Variant: "500", BlockNumber: 120, ReferenceBlock: 100, Label: 3, Horizon: 10, HashID: 77, PoolID: "500",
			Columns: cols, Values: []*float64{ptr(120.0), ptr(3000.0), nil}},
		{Variant: "500", BlockNumber: 100, ReferenceBlock: 100, Label: 1, HashID: 77, PoolID: "500",
			Columns: cols, Values: []*float64{ptr(100.0), ptr(3000.0), ptr(12.5)}},
	}
	require.NoError(t, store.InsertBulk(ctx, rows))

	got, err := store.GetByVariant(ctx, "500")
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, int64(100), got[0].BlockNumber)
	assert.Equal(t, cols, got[1].Columns)
	assert.Equal(t, 3, got[1].Label)
	v, ok := got[1].Value("binance-count-01")
	require.True(t, ok)
	assert.Nil(t, v)
	v, _ = got[0].Value("binance-count-01")
	require.NotNil(t, v)
	assert.InDelta(t, 12.5, *v, 1e-9)
}

func TestFeatureStore_Errors(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewFeatureStore(conn)

	bad := &domain.FeatureRow{Variant: "500", Columns: []string{"a", "b"}, Values: []*float64{nil}}
	assert.ErrorIs(t, store.InsertBulk(ctx, []*domain.FeatureRow{bad}), storage.ErrInvalidInput)

	row := &domain.FeatureRow{Variant: "500", BlockNumber: 5, Columns: []string{"a"}, Values: []*float64{nil}}
	require.NoError(t, store.InsertBulk(ctx, []*domain.FeatureRow{row}))
	assert.ErrorIs(t, store.InsertBulk(ctx, []*domain.FeatureRow{row}), storage.ErrDuplicateKey)
}
