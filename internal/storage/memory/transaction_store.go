package memory

import (
	"context"
	"sort"
	"sync"

	"dex-spillover-lab/internal/domain"
	"dex-spillover-lab/internal/storage"
)

// TransactionStore is an in-memory implementation of storage.TransactionStore.
type TransactionStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Transaction // keyed by subgraph id
}

// NewTransactionStore creates a new in-memory transaction store.
func NewTransactionStore() *TransactionStore {
	return &TransactionStore{
		data: make(map[string]*domain.Transaction),
	}
}

// InsertBulk adds multiple transactions atomically. Fails entire batch on any duplicate.
func (s *TransactionStore) InsertBulk(_ context.Context, txs []*domain.Transaction) error {
	if len(txs) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[string]struct{}, len(txs))
	for _, tx := range txs {
		if tx == nil || tx.ID == "" || tx.PoolID == "" {
			return storage.ErrInvalidInput
		}
		if _, exists := s.data[tx.ID]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[tx.ID]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[tx.ID] = struct{}{}
	}

	for _, tx := range txs {
		c := *tx
		s.data[tx.ID] = &c
	}

	return nil
}

// GetByPool retrieves all transactions of a pool, ordered by (block, timestamp, id) ASC.
func (s *TransactionStore) GetByPool(_ context.Context, poolID string) ([]*domain.Transaction, error) {
	return s.filter(func(tx *domain.Transaction) bool {
		return tx.PoolID == poolID
	}), nil
}

// GetByBlockRange retrieves transactions within [start, end] (inclusive).
func (s *TransactionStore) GetByBlockRange(_ context.Context, start, end int64) ([]*domain.Transaction, error) {
	return s.filter(func(tx *domain.Transaction) bool {
		return tx.BlockNumber >= start && tx.BlockNumber <= end
	}), nil
}

func (s *TransactionStore) filter(keep func(*domain.Transaction) bool) []*domain.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Transaction
	for _, tx := range s.data {
		if keep(tx) {
			c := *tx
			result = append(result, &c)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].BlockNumber != result[j].BlockNumber {
			return result[i].BlockNumber < result[j].BlockNumber
		}
		if result[i].Timestamp != result[j].Timestamp {
			return result[i].Timestamp < result[j].Timestamp
		}
		return result[i].ID < result[j].ID
	})

	return result
}

var _ storage.TransactionStore = (*TransactionStore)(nil)
