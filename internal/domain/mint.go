package domain

// MintEvent is a deduplicated liquidity-provision event.
// (PoolID, BlockNumber) is unique across all mint events.
type MintEvent struct {
	HashID      int64    // event identifier derived from (PoolID, BlockNumber)
	PoolID      string   // pool identifier
	BlockNumber int64    // block height
	Timestamp   int64    // Unix timestamp in seconds
	Size        float64  // sum of merged sizes
	AmountUSD   float64  // sum of merged USD amounts
	Width       *float64 // mean of merged widths, NULL if none
	PoolPrice   *float64 // mean of merged pool prices, NULL if none
	Merged      int      // number of source rows collapsed into this event
}
