package memory

import (
	"context"
	"errors"
	"testing"

	"dex-spillover-lab/internal/domain"
	"dex-spillover-lab/internal/storage"
)

func TestFeatureStore_InsertAndGet(t *testing.T) {
	store := NewFeatureStore()
	ctx := context.Background()

	cols := []string{"blockNumber", "s0"}
	rows := []*domain.FeatureRow{
		{Variant: "500", BlockNumber: 110, ReferenceBlock: 100, Label: 2, Columns: cols, Values: []*float64{fptr(110), nil}},
		{Variant: "500", BlockNumber: 100, ReferenceBlock: 100, Label: 1, Columns: cols, Values: []*float64{fptr(100), fptr(3)}},
	}
	if err := store.InsertBulk(ctx, rows); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	got, err := store.GetByVariant(ctx, "500")
	if err != nil {
		t.Fatalf("GetByVariant failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Expected 2 rows, got %d", len(got))
	}
	if got[0].BlockNumber != 100 {
		t.Errorf("Rows not ordered by block")
	}
	if v, ok := got[1].Value("s0"); !ok || v != nil {
		t.Errorf("Missing value should round-trip as nil")
	}

	none, _ := store.GetByVariant(ctx, "base")
	if len(none) != 0 {
		t.Errorf("Expected no base rows, got %d", len(none))
	}
}

func TestFeatureStore_Errors(t *testing.T) {
	store := NewFeatureStore()
	ctx := context.Background()

	bad := &domain.FeatureRow{Variant: "500", Columns: []string{"a"}, Values: nil}
	if err := store.InsertBulk(ctx, []*domain.FeatureRow{bad}); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput, got %v", err)
	}

	row := &domain.FeatureRow{Variant: "500", BlockNumber: 1}
	if err := store.InsertBulk(ctx, []*domain.FeatureRow{row}); err != nil {
		t.Fatalf("First insert failed: %v", err)
	}
	if err := store.InsertBulk(ctx, []*domain.FeatureRow{row}); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
}
