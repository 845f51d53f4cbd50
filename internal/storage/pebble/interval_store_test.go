package pebble

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"dex-spillover-lab/internal/domain"
	"dex-spillover-lab/internal/storage"
)

func newTestStore(t *testing.T) *IntervalStore {
	t.Helper()

	dbDir, err := os.MkdirTemp("", "pebble_test")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dbDir) })

	store, err := NewIntervalStore(dbDir)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return store
}

func TestIntervalStore_InsertAndGet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	records := []*domain.IntervalRecord{
		{HashID: 42, Side: domain.SideOther, Label: 0, PoolID: "3000", Lo: 130, Hi: 200, BlockTime: 70, Start: 3, End: 4},
		{HashID: 42, Side: domain.SideSame, Label: 1, PoolID: "500", Lo: 100, Hi: 100, Terminal: true, BlockTime: 100},
		{HashID: 42, Side: domain.SideSame, Label: 0, PoolID: "500", Lo: 100, Hi: 200, BlockTime: 100, Start: 1, End: 7},
		{HashID: 43, Side: domain.SideSame, Label: 0, PoolID: "500", Lo: 200, Hi: 300},
	}
	require.NoError(t, store.InsertBulk(ctx, records))

	got, err := store.GetByHashID(ctx, 42)
	require.NoError(t, err)
	require.Len(t, got, 3)

	testData := []struct {
		name     string
		side     domain.ChainSide
		label    int
		terminal bool
	}{
		{name: "same_0", side: domain.SideSame, label: 0},
		{name: "same_1", side: domain.SideSame, label: 1, terminal: true},
		{name: "other_0", side: domain.SideOther, label: 0},
	}
	for i, tt := range testData {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.side, got[i].Side)
			require.Equal(t, tt.label, got[i].Label)
			require.Equal(t, tt.terminal, got[i].Terminal)
		})
	}
	require.Equal(t, 6, got[0].Len())
	require.Equal(t, int64(70), got[2].BlockTime)

	none, err := store.GetByHashID(ctx, 7)
	require.NoError(t, err)
	require.Empty(t, none)
}

func TestIntervalStore_Duplicate(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	rec := &domain.IntervalRecord{HashID: 1, Side: domain.SideSame, Label: 0, PoolID: "500"}
	require.ErrorIs(t, store.InsertBulk(ctx, []*domain.IntervalRecord{rec, rec}), storage.ErrDuplicateKey)

	require.NoError(t, store.InsertBulk(ctx, []*domain.IntervalRecord{rec}))
	require.ErrorIs(t, store.InsertBulk(ctx, []*domain.IntervalRecord{rec}), storage.ErrDuplicateKey)
}

func TestIntervalStore_InvalidInput(t *testing.T) {
	store := newTestStore(t)

	bad := &domain.IntervalRecord{HashID: 1, Side: "left", PoolID: "500"}
	require.ErrorIs(t, store.InsertBulk(context.Background(), []*domain.IntervalRecord{bad}), storage.ErrInvalidInput)
}
