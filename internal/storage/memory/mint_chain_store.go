package memory

import (
	"context"
	"sort"
	"sync"

	"dex-spillover-lab/internal/domain"
	"dex-spillover-lab/internal/storage"
)

// MintChainStore is an in-memory implementation of storage.MintChainStore.
type MintChainStore struct {
	mu   sync.RWMutex
	data map[int64]*domain.MintChains // keyed by hashid
}

// NewMintChainStore creates a new in-memory mint chain store.
func NewMintChainStore() *MintChainStore {
	return &MintChainStore{
		data: make(map[int64]*domain.MintChains),
	}
}

// InsertBulk adds multiple chain rows atomically. Fails entire batch on any duplicate.
func (s *MintChainStore) InsertBulk(_ context.Context, chains []*domain.MintChains) error {
	if len(chains) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[int64]struct{}, len(chains))
	for _, c := range chains {
		if c == nil || c.PoolID == "" {
			return storage.ErrInvalidInput
		}
		if _, exists := s.data[c.HashID]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[c.HashID]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[c.HashID] = struct{}{}
	}

	for _, c := range chains {
		s.data[c.HashID] = cloneChains(c)
	}

	return nil
}

// GetByHashID retrieves one chain row. Returns ErrNotFound if not exists.
func (s *MintChainStore) GetByHashID(_ context.Context, hashID int64) (*domain.MintChains, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.data[hashID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return cloneChains(c), nil
}

// GetByPool retrieves all chain rows of a pool, ordered by block ASC.
func (s *MintChainStore) GetByPool(_ context.Context, poolID string) ([]*domain.MintChains, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.MintChains
	for _, c := range s.data {
		if c.PoolID == poolID {
			result = append(result, cloneChains(c))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].BlockNumber < result[j].BlockNumber
	})

	return result, nil
}

func cloneChains(c *domain.MintChains) *domain.MintChains {
	out := *c
	out.Same = domain.ChainFromBlocks(c.Same.Depth(), c.Same.ValidBlocks())
	out.Other = domain.ChainFromBlocks(c.Other.Depth(), c.Other.ValidBlocks())
	return &out
}

var _ storage.MintChainStore = (*MintChainStore)(nil)
