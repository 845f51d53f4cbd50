package memory

import (
	"context"
	"sort"
	"sync"

	"dex-spillover-lab/internal/domain"
	"dex-spillover-lab/internal/storage"
)

type variantKey struct {
	variant string
	block   int64
}

// HorizonStore is an in-memory implementation of storage.HorizonStore.
type HorizonStore struct {
	mu   sync.RWMutex
	data map[variantKey]*domain.HorizonRow
}

// NewHorizonStore creates a new in-memory horizon store.
func NewHorizonStore() *HorizonStore {
	return &HorizonStore{
		data: make(map[variantKey]*domain.HorizonRow),
	}
}

// InsertBulk adds multiple rows atomically. Fails entire batch on any duplicate.
func (s *HorizonStore) InsertBulk(_ context.Context, rows []*domain.HorizonRow) error {
	if len(rows) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[variantKey]struct{}, len(rows))
	for _, r := range rows {
		if r == nil || r.Variant == "" {
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
		s.data[variantKey{r.Variant, r.BlockNumber}] = cloneHorizonRow(r)
	}

	return nil
}

// GetByVariant retrieves the horizon table of one variant, ordered by block ASC.
func (s *HorizonStore) GetByVariant(_ context.Context, variant string) ([]*domain.HorizonRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.HorizonRow
	for k, r := range s.data {
		if k.variant == variant {
			result = append(result, cloneHorizonRow(r))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].BlockNumber < result[j].BlockNumber
	})

	return result, nil
}

func cloneHorizonRow(r *domain.HorizonRow) *domain.HorizonRow {
	out := *r
	out.Pools = append([]string(nil), r.Pools...)
	out.CumVolumes = cloneValues(r.CumVolumes)
	out.CumVolumeBase = cloneValue(r.CumVolumeBase)
	return &out
}

func cloneValues(in []*float64) []*float64 {
	if in == nil {
		return nil
	}
	out := make([]*float64, len(in))
	for i := range in {
		out[i] = cloneValue(in[i])
	}
	return out
}

func cloneValue(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

var _ storage.HorizonStore = (*HorizonStore)(nil)
