package memory

import (
	"context"
	"errors"
	"testing"

	"dex-spillover-lab/internal/domain"
	"dex-spillover-lab/internal/storage"
)

func TestMintChainStore_InsertAndGet(t *testing.T) {
	store := NewMintChainStore()
	ctx := context.Background()

	chains := []*domain.MintChains{
		{HashID: 2, PoolID: "500", BlockNumber: 150, Same: domain.ChainFromBlocks(4, []int64{150, 100}), Other: domain.ChainFromBlocks(4, []int64{150, 120})},
		{HashID: 1, PoolID: "500", BlockNumber: 100, Same: domain.ChainFromBlocks(4, []int64{100}), Other: domain.ChainFromBlocks(4, []int64{100})},
		{HashID: 3, PoolID: "3000", BlockNumber: 120, Same: domain.ChainFromBlocks(4, []int64{120}), Other: domain.ChainFromBlocks(4, []int64{120, 100})},
	}
	if err := store.InsertBulk(ctx, chains); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	got, err := store.GetByHashID(ctx, 2)
	if err != nil {
		t.Fatalf("GetByHashID failed: %v", err)
	}
	if got.Same.Valid != 2 || got.Same.Blocks[1] != 100 {
		t.Errorf("Same chain mismatch: %+v", got.Same)
	}

	// Returned rows must not alias stored state
	got.Same.Blocks[1] = 999
	again, _ := store.GetByHashID(ctx, 2)
	if again.Same.Blocks[1] != 100 {
		t.Errorf("Store was mutated through returned row")
	}

	pool, err := store.GetByPool(ctx, "500")
	if err != nil {
		t.Fatalf("GetByPool failed: %v", err)
	}
	if len(pool) != 2 || pool[0].BlockNumber != 100 {
		t.Errorf("GetByPool order mismatch: got %d rows", len(pool))
	}
}

func TestMintChainStore_NotFound(t *testing.T) {
	store := NewMintChainStore()

	_, err := store.GetByHashID(context.Background(), 42)
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestMintChainStore_DuplicateKey(t *testing.T) {
	store := NewMintChainStore()
	ctx := context.Background()

	c := &domain.MintChains{HashID: 1, PoolID: "500", Same: domain.NewChain(4), Other: domain.NewChain(4)}
	if err := store.InsertBulk(ctx, []*domain.MintChains{c}); err != nil {
		t.Fatalf("First insert failed: %v", err)
	}
	if err := store.InsertBulk(ctx, []*domain.MintChains{c}); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
}
