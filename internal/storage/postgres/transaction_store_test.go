package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dex-spillover-lab/internal/domain"
	"dex-spillover-lab/internal/storage"
)

func testTransactions() []*domain.Transaction {
	return []*domain.Transaction{
		{
			ID: "0xaa#1", Hash: "0xaa", PoolID: "500", Type: domain.TransactionMint,
			BlockNumber: 100, Timestamp: 1655593200, Amount0: 1, Amount1: 1500, AmountUSD: 3000,
			TickLower: ptr(int64(-120)), TickUpper: ptr(int64(60)), Size: 3000, Width: ptr(180.0),
		},
		{
			ID: "0xbb#0", Hash: "0xbb", PoolID: "500", Type: domain.TransactionSwap,
			BlockNumber: 101, Timestamp: 1655593212, Amount0: -0.5, Amount1: 750, AmountUSD: 750,
			Size: 750, PoolPrice: ptr(1500.0),
		},
		{
			ID: "0xcc#3", Hash: "0xcc", PoolID: "3000", Type: domain.TransactionBurn,
			BlockNumber: 101, Timestamp: 1655593212, Amount0: 2, Amount1: 10, AmountUSD: 40, Size: 40,
		},
	}
}

func TestTransactionStore_InsertAndGetByPool(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewTransactionStore(pool)

	require.NoError(t, store.InsertBulk(ctx, testTransactions()))

	txs, err := store.GetByPool(ctx, "500")
	require.NoError(t, err)
	require.Len(t, txs, 2)

	assert.Equal(t, "0xaa#1", txs[0].ID)
	assert.Equal(t, domain.TransactionMint, txs[0].Type)
	require.NotNil(t, txs[0].Width)
	assert.InDelta(t, 180.0, *txs[0].Width, 0.0001)
	assert.Equal(t, int64(-120), *txs[0].TickLower)
	assert.Nil(t, txs[0].PoolPrice)

	assert.Equal(t, domain.TransactionSwap, txs[1].Type)
	require.NotNil(t, txs[1].PoolPrice)
	assert.InDelta(t, 1500.0, *txs[1].PoolPrice, 0.0001)
	assert.Nil(t, txs[1].TickLower)
}

func TestTransactionStore_GetByBlockRange(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewTransactionStore(pool)
	require.NoError(t, store.InsertBulk(ctx, testTransactions()))

	txs, err := store.GetByBlockRange(ctx, 101, 200)
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, "0xbb#0", txs[0].ID)
	assert.Equal(t, "0xcc#3", txs[1].ID)
}

func TestTransactionStore_DuplicateRejectsBatch(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewTransactionStore(pool)
	txs := testTransactions()
	require.NoError(t, store.InsertBulk(ctx, txs[:1]))

	err := store.InsertBulk(ctx, txs)
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	all, err := store.GetByBlockRange(ctx, 0, 1000)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
