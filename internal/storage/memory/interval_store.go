package memory

import (
	"context"
	"sort"
	"sync"

	"dex-spillover-lab/internal/domain"
	"dex-spillover-lab/internal/storage"
)

type intervalKey struct {
	hashID int64
	side   domain.ChainSide
	label  int
}

// IntervalStore is an in-memory implementation of storage.IntervalStore.
type IntervalStore struct {
	mu   sync.RWMutex
	data map[intervalKey]*domain.IntervalRecord
}

// NewIntervalStore creates a new in-memory interval store.
func NewIntervalStore() *IntervalStore {
	return &IntervalStore{
		data: make(map[intervalKey]*domain.IntervalRecord),
	}
}

// InsertBulk adds multiple records atomically. Fails entire batch on any duplicate.
func (s *IntervalStore) InsertBulk(_ context.Context, records []*domain.IntervalRecord) error {
	if len(records) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[intervalKey]struct{}, len(records))
	for _, r := range records {
		if r == nil || r.PoolID == "" || (r.Side != domain.SideSame && r.Side != domain.SideOther) {
			return storage.ErrInvalidInput
		}
		key := intervalKey{r.HashID, r.Side, r.Label}
		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	for _, r := range records {
		c := *r
		s.data[intervalKey{r.HashID, r.Side, r.Label}] = &c
	}

	return nil
}

// GetByHashID retrieves the records of one event, ordered by (side, label) ASC.
func (s *IntervalStore) GetByHashID(_ context.Context, hashID int64) ([]*domain.IntervalRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.IntervalRecord
	for k, r := range s.data {
		if k.hashID == hashID {
			c := *r
			result = append(result, &c)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Side != result[j].Side {
			return result[i].Side == domain.SideSame
		}
		return result[i].Label < result[j].Label
	})

	return result, nil
}

var _ storage.IntervalStore = (*IntervalStore)(nil)
