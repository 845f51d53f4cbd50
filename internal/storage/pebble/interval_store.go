// Package pebble persists interval records in an embedded Pebble key-value store.
package pebble

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/cockroachdb/pebble"

	"dex-spillover-lab/internal/domain"
	"dex-spillover-lab/internal/storage"
)

const (
	intervalKeyPrefix = 0x01
	storeName         = "interval-store"
)

// IntervalStore implements storage.IntervalStore on Pebble.
// Keys are prefix | hashid (uint64 BE) | side byte | label (uint32 BE),
// so a prefix scan returns one event's records ordered by side then label.
type IntervalStore struct {
	mu sync.Mutex // serializes check-then-write in InsertBulk
	db *pebble.DB
}

// NewIntervalStore opens (or creates) the store under dir.
func NewIntervalStore(dir string) (*IntervalStore, error) {
	db, err := pebble.Open(filepath.Join(dir, storeName), &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("opening pebble db: %w", err)
	}
	return &IntervalStore{db: db}, nil
}

// Compile-time interface check.
var _ storage.IntervalStore = (*IntervalStore)(nil)

func sideByte(side domain.ChainSide) (byte, bool) {
	switch side {
	case domain.SideSame:
		return 0, true
	case domain.SideOther:
		return 1, true
	}
	return 0, false
}

func hashPrefix(hashID int64) []byte {
	key := []byte{intervalKeyPrefix}
	return binary.BigEndian.AppendUint64(key, uint64(hashID))
}

func recordKey(r *domain.IntervalRecord) ([]byte, error) {
	side, ok := sideByte(r.Side)
	if !ok || r.Label < 0 {
		return nil, storage.ErrInvalidInput
	}
	key := hashPrefix(r.HashID)
	key = append(key, side)
	return binary.BigEndian.AppendUint32(key, uint32(r.Label)), nil
}

// InsertBulk adds multiple records atomically. Fails entire batch on any duplicate.
func (s *IntervalStore) InsertBulk(_ context.Context, records []*domain.IntervalRecord) error {
	if len(records) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	keys := make([][]byte, len(records))
	batchKeys := make(map[string]struct{}, len(records))
	for i, r := range records {
		if r == nil || r.PoolID == "" {
			return storage.ErrInvalidInput
		}
		key, err := recordKey(r)
		if err != nil {
			return err
		}
		if _, exists := batchKeys[string(key)]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[string(key)] = struct{}{}

		_, closer, err := s.db.Get(key)
		if err == nil {
			closer.Close()
			return storage.ErrDuplicateKey
		}
		if !errors.Is(err, pebble.ErrNotFound) {
			return fmt.Errorf("checking interval key: %w", err)
		}
		keys[i] = key
	}

	batch := s.db.NewBatch()
	defer batch.Close()

	for i, r := range records {
		value, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("encoding interval record: %w", err)
		}
		if err := batch.Set(keys[i], value, nil); err != nil {
			return fmt.Errorf("staging interval record: %w", err)
		}
	}

	if err := batch.Commit(pebble.Sync); err != nil {
		return fmt.Errorf("committing interval batch: %w", err)
	}
	return nil
}

// GetByHashID retrieves the records of one event, ordered by (side, label) ASC.
func (s *IntervalStore) GetByHashID(_ context.Context, hashID int64) ([]*domain.IntervalRecord, error) {
	lower := hashPrefix(hashID)
	upper := hashPrefix(hashID + 1)

	iter, err := s.db.NewIter(&pebble.IterOptions{LowerBound: lower, UpperBound: upper})
	if err != nil {
		return nil, fmt.Errorf("opening interval iterator: %w", err)
	}
	defer iter.Close()

	var result []*domain.IntervalRecord
	for iter.First(); iter.Valid(); iter.Next() {
		var r domain.IntervalRecord
		if err := json.Unmarshal(iter.Value(), &r); err != nil {
			return nil, fmt.Errorf("decoding interval record: %w", err)
		}
		result = append(result, &r)
	}
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("iterating interval records: %w", err)
	}

	return result, nil
}

// Close closes the underlying database.
func (s *IntervalStore) Close() error {
	return s.db.Close()
}
