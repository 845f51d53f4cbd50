package domain

// Chain is a fixed-depth list of mint block numbers in descending order.
// Positions at or beyond Valid are null.
type Chain struct {
	Blocks []int64 // len == depth; entries at index >= Valid are unset
	Valid  int     // number of leading non-null positions
}

// NewChain returns an all-null chain of the given depth.
func NewChain(depth int) Chain {
	return Chain{Blocks: make([]int64, depth)}
}

// ChainFromBlocks builds a chain of the given depth from its non-null prefix.
func ChainFromBlocks(depth int, blocks []int64) Chain {
	c := NewChain(depth)
	n := copy(c.Blocks, blocks)
	c.Valid = n
	return c
}

// Depth returns the number of positions, null or not.
func (c Chain) Depth() int {
	return len(c.Blocks)
}

// At returns the block at position i and whether it is non-null.
func (c Chain) At(i int) (int64, bool) {
	if i < 0 || i >= c.Valid {
		return 0, false
	}
	return c.Blocks[i], true
}

// MaxValidIndex returns the index of the oldest non-null position, -1 for an empty chain.
func (c Chain) MaxValidIndex() int {
	return c.Valid - 1
}

// ValidBlocks returns the non-null prefix.
func (c Chain) ValidBlocks() []int64 {
	return c.Blocks[:c.Valid]
}

// MintChains is one row of the per-mint chain/hash table.
// Corresponds to mint_chains table in PostgreSQL.
type MintChains struct {
	HashID      int64  // event identifier
	PoolID      string // pool of the mint
	BlockNumber int64  // block of the mint, equals Same.Blocks[0]
	Timestamp   int64  // Unix timestamp in seconds
	Same        Chain  // prior mints on the same pool
	Other       Chain  // prior mints on the other pool, anchored at BlockNumber
}
