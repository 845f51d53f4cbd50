// Package interval partitions each mint event's chains into block intervals
// and computes per-interval position statistics.
package interval

import (
	"errors"
	"fmt"
	"sort"

	"dex-spillover-lab/internal/domain"
	"dex-spillover-lab/internal/lookup"
)

var (
	// ErrUnknownPool is returned when a transaction or chain references a pool outside the pair.
	ErrUnknownPool = errors.New("unknown pool")

	// ErrAmbiguousMint is returned when an interval holds more than one mint.
	ErrAmbiguousMint = errors.New("interval contains more than one mint")

	// ErrOverlap is returned when intervals of one chain overlap or leave gaps.
	ErrOverlap = errors.New("intervals overlap or leave gaps")

	// ErrSchemaViolation is returned when emitted columns drift from the enumerated schema.
	ErrSchemaViolation = errors.New("schema violation")
)

// poolSlice is the block-sorted transaction list of one pool.
type poolSlice struct {
	txs    []domain.Transaction
	blocks []int64 // blocks[i] == txs[i].BlockNumber
}

// Arena is an immutable per-pool view of the reduced transaction table.
// Intervals reference it by index range instead of copying transactions.
type Arena struct {
	pair  [2]string
	pools map[string]*poolSlice
}

// NewArena partitions txs by pool. Within a pool, transactions keep
// (block, timestamp, id) order.
func NewArena(pair [2]string, txs []domain.Transaction) (*Arena, error) {
	a := &Arena{
		pair:  pair,
		pools: make(map[string]*poolSlice, 2),
	}
	for _, p := range pair {
		a.pools[p] = &poolSlice{}
	}

	for i := range txs {
		ps, ok := a.pools[txs[i].PoolID]
		if !ok {
			return nil, fmt.Errorf("%w: transaction %s on pool %s", ErrUnknownPool, txs[i].ID, txs[i].PoolID)
		}
		ps.txs = append(ps.txs, txs[i])
	}

	for _, ps := range a.pools {
		sort.SliceStable(ps.txs, func(i, j int) bool {
			return compareTx(&ps.txs[i], &ps.txs[j]) < 0
		})
		ps.blocks = make([]int64, len(ps.txs))
		for i := range ps.txs {
			ps.blocks[i] = ps.txs[i].BlockNumber
		}
	}

	return a, nil
}

func compareTx(a, b *domain.Transaction) int {
	switch {
	case a.BlockNumber != b.BlockNumber:
		if a.BlockNumber < b.BlockNumber {
			return -1
		}
		return 1
	case a.Timestamp != b.Timestamp:
		if a.Timestamp < b.Timestamp {
			return -1
		}
		return 1
	case a.ID < b.ID:
		return -1
	case a.ID > b.ID:
		return 1
	}
	return 0
}

// Pair returns the configured pool pair.
func (a *Arena) Pair() [2]string {
	return a.pair
}

// Other returns the other pool of the pair.
func (a *Arena) Other(pool string) (string, error) {
	switch pool {
	case a.pair[0]:
		return a.pair[1], nil
	case a.pair[1]:
		return a.pair[0], nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownPool, pool)
}

// Len returns the number of transactions of a pool.
func (a *Arena) Len(pool string) int {
	ps, ok := a.pools[pool]
	if !ok {
		return 0
	}
	return len(ps.txs)
}

// Range returns the index range [start, end) of pool transactions with block in (lo, hi].
func (a *Arena) Range(pool string, lo, hi int64) (int, int) {
	ps, ok := a.pools[pool]
	if !ok {
		return 0, 0
	}
	return lookup.Range(ps.blocks, lo, hi)
}

// At returns the index range [start, end) of pool transactions at exactly block.
func (a *Arena) At(pool string, block int64) (int, int) {
	ps, ok := a.pools[pool]
	if !ok {
		return 0, 0
	}
	return lookup.Exact(ps.blocks, block)
}

// Slice returns the arena sub-slice [start, end) of a pool. The result must not be modified.
func (a *Arena) Slice(pool string, start, end int) []domain.Transaction {
	ps, ok := a.pools[pool]
	if !ok || start >= end {
		return nil
	}
	return ps.txs[start:end:end]
}
