// Package chain builds, for every mint event, the chains of preceding mint
// block numbers on its own pool and on the other pool.
package chain

import (
	"errors"
	"fmt"

	"github.com/google/btree"

	"dex-spillover-lab/internal/domain"
)

var (
	// ErrUnsortedMints is returned when input mints are not sorted by block or not unique.
	ErrUnsortedMints = errors.New("mint events must be sorted by block and unique per pool")

	// ErrUnknownPool is returned for a mint on a pool outside the configured pair.
	ErrUnknownPool = errors.New("mint on unknown pool")

	// ErrChainNotCausal is returned when a chain element is not strictly older than its predecessor.
	ErrChainNotCausal = errors.New("chain is not strictly decreasing")
)

// btreeDegree is the node fan-out of the per-pool mint index.
const btreeDegree = 32

// mintRef is an entry of the per-pool mint index.
type mintRef struct {
	block int64
	idx   int // position in the input slice
}

func lessMintRef(a, b mintRef) bool {
	return a.block < b.block
}

// Builder computes same and other chains of a fixed depth for a pool pair.
type Builder struct {
	depth int
	pools [2]string
}

// NewBuilder creates a chain builder. depth is the number of chain positions,
// including position 0 (the event itself).
func NewBuilder(depth int, poolA, poolB string) *Builder {
	return &Builder{depth: depth, pools: [2]string{poolA, poolB}}
}

// Depth returns the number of chain positions.
func (b *Builder) Depth() int {
	return b.depth
}

func (b *Builder) other(pool string) (string, bool) {
	switch pool {
	case b.pools[0]:
		return b.pools[1], true
	case b.pools[1]:
		return b.pools[0], true
	}
	return "", false
}

// Build returns one MintChains per input event, in input order.
// Input must be sorted by block ascending and unique per (pool, block).
func (b *Builder) Build(mints []domain.MintEvent) ([]domain.MintChains, error) {
	if err := checkSorted(mints); err != nil {
		return nil, err
	}

	result := make([]domain.MintChains, len(mints))
	perPool := make(map[string][]int, 2)
	index := make(map[string]*btree.BTreeG[mintRef], 2)
	for _, p := range b.pools {
		index[p] = btree.NewG[mintRef](btreeDegree, lessMintRef)
	}

	// Same chains: shift backwards within the pool.
	for i := range mints {
		m := &mints[i]
		tree, ok := index[m.PoolID]
		if !ok {
			return nil, fmt.Errorf("%w: pool %s block %d", ErrUnknownPool, m.PoolID, m.BlockNumber)
		}

		prior := perPool[m.PoolID]
		blocks := make([]int64, 0, b.depth)
		blocks = append(blocks, m.BlockNumber)
		for j := len(prior) - 1; j >= 0 && len(blocks) < b.depth; j-- {
			blocks = append(blocks, mints[prior[j]].BlockNumber)
		}

		result[i] = domain.MintChains{
			HashID:      m.HashID,
			PoolID:      m.PoolID,
			BlockNumber: m.BlockNumber,
			Timestamp:   m.Timestamp,
			Same:        domain.ChainFromBlocks(b.depth, blocks),
		}

		perPool[m.PoolID] = append(prior, i)
		tree.ReplaceOrInsert(mintRef{block: m.BlockNumber, idx: i})
	}

	// Other chains: anchor the latest strictly earlier other-pool mint's same chain.
	for i := range mints {
		m := &mints[i]
		otherPool, _ := b.other(m.PoolID)

		ref, found := latestBefore(index[otherPool], m.BlockNumber)
		if !found {
			result[i].Other = domain.ChainFromBlocks(b.depth, []int64{m.BlockNumber})
			continue
		}

		template := result[ref.idx].Same.ValidBlocks()
		blocks := make([]int64, 0, b.depth)
		blocks = append(blocks, m.BlockNumber)
		for _, blk := range template {
			if len(blocks) == b.depth {
				break
			}
			blocks = append(blocks, blk)
		}
		result[i].Other = domain.ChainFromBlocks(b.depth, blocks)
	}

	return result, nil
}

// latestBefore returns the entry with the largest block strictly below block.
func latestBefore(tree *btree.BTreeG[mintRef], block int64) (mintRef, bool) {
	var (
		found mintRef
		ok    bool
	)
	tree.DescendLessOrEqual(mintRef{block: block - 1}, func(item mintRef) bool {
		found, ok = item, true
		return false
	})
	return found, ok
}

func checkSorted(mints []domain.MintEvent) error {
	type key struct {
		pool  string
		block int64
	}
	seen := make(map[key]struct{}, len(mints))
	for i := range mints {
		k := key{mints[i].PoolID, mints[i].BlockNumber}
		if _, dup := seen[k]; dup {
			return fmt.Errorf("%w: duplicate pool %s block %d", ErrUnsortedMints, k.pool, k.block)
		}
		seen[k] = struct{}{}
		if i > 0 && mints[i-1].BlockNumber > mints[i].BlockNumber {
			return fmt.Errorf("%w: block %d after block %d", ErrUnsortedMints, mints[i].BlockNumber, mints[i-1].BlockNumber)
		}
	}
	return nil
}

// ValidateCausality checks that every chain starts at the event's own block and
// that non-null elements strictly decrease.
func ValidateCausality(chains []domain.MintChains) error {
	for i := range chains {
		c := &chains[i]
		for _, side := range []struct {
			name  domain.ChainSide
			chain domain.Chain
		}{
			{domain.SideSame, c.Same},
			{domain.SideOther, c.Other},
		} {
			head, ok := side.chain.At(0)
			if !ok || head != c.BlockNumber {
				return fmt.Errorf("%w: hashid %d %s chain does not start at block %d", ErrChainNotCausal, c.HashID, side.name, c.BlockNumber)
			}
			blocks := side.chain.ValidBlocks()
			for j := 1; j < len(blocks); j++ {
				if blocks[j] >= blocks[j-1] {
					return fmt.Errorf("%w: hashid %d %s chain position %d (%d) >= position %d (%d)",
						ErrChainNotCausal, c.HashID, side.name, j, blocks[j], j-1, blocks[j-1])
				}
			}
		}
	}
	return nil
}
