package idhash

import (
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// ErrDuplicateHashID is returned when two distinct (pool, block) pairs
// map to the same event identifier, or a pair occurs twice.
var ErrDuplicateHashID = errors.New("duplicate hashid")

// ComputeEventID computes a deterministic event identifier using SHA256.
// Formula: SHA256(pool|block_number), first 8 bytes big-endian, sign bit cleared.
func ComputeEventID(poolID string, blockNumber int64) int64 {
	data := fmt.Sprintf("%s|%d", poolID, blockNumber)

	hash := sha256.Sum256([]byte(data))
	return int64(binary.BigEndian.Uint64(hash[:8]) & math.MaxInt64)
}

// EventKey identifies a mint event before hashing.
type EventKey struct {
	PoolID      string
	BlockNumber int64
}

// ValidateUnique checks that keys are unique and that their identifiers
// do not collide. The returned error names the offending pair.
func ValidateUnique(keys []EventKey) error {
	seenKeys := make(map[EventKey]struct{}, len(keys))
	seenIDs := make(map[int64]EventKey, len(keys))

	for _, k := range keys {
		if _, ok := seenKeys[k]; ok {
			return fmt.Errorf("%w: pool=%s block=%d occurs twice", ErrDuplicateHashID, k.PoolID, k.BlockNumber)
		}
		seenKeys[k] = struct{}{}

		id := ComputeEventID(k.PoolID, k.BlockNumber)
		if prev, ok := seenIDs[id]; ok {
			return fmt.Errorf("%w: hashid=%d shared by pool=%s block=%d and pool=%s block=%d",
				ErrDuplicateHashID, id, prev.PoolID, prev.BlockNumber, k.PoolID, k.BlockNumber)
		}
		seenIDs[id] = k
	}

	return nil
}
