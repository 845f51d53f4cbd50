package memory

import (
	"context"
	"sort"
	"sync"

	"dex-spillover-lab/internal/domain"
	"dex-spillover-lab/internal/storage"
)

// FeatureStore is an in-memory implementation of storage.FeatureStore.
type FeatureStore struct {
	mu   sync.RWMutex
	data map[variantKey]*domain.FeatureRow
}

// NewFeatureStore creates a new in-memory feature store.
func NewFeatureStore() *FeatureStore {
	return &FeatureStore{
		data: make(map[variantKey]*domain.FeatureRow),
	}
}

// InsertBulk adds multiple rows atomically. Fails entire batch on any duplicate.
func (s *FeatureStore) InsertBulk(_ context.Context, rows []*domain.FeatureRow) error {
	if len(rows) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[variantKey]struct{}, len(rows))
	for _, r := range rows {
		if r == nil || r.Variant == "" || len(r.Columns) != len(r.Values) {
			return storage.ErrInvalidInput
		}
		key := variantKey{r.Variant, r.BlockNumber}
		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	for _, r := range rows {
		s.data[variantKey{r.Variant, r.BlockNumber}] = cloneFeatureRow(r)
	}

	return nil
}

// GetByVariant retrieves the feature rows of one variant, ordered by block ASC.
func (s *FeatureStore) GetByVariant(_ context.Context, variant string) ([]*domain.FeatureRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.FeatureRow
	for k, r := range s.data {
		if k.variant == variant {
			result = append(result, cloneFeatureRow(r))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].BlockNumber < result[j].BlockNumber
	})

	return result, nil
}

func cloneFeatureRow(r *domain.FeatureRow) *domain.FeatureRow {
	out := *r
	out.Columns = append([]string(nil), r.Columns...)
	out.Values = cloneValues(r.Values)
	return &out
}

var _ storage.FeatureStore = (*FeatureStore)(nil)
