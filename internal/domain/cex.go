package domain

// CEXTrade is one raw exchange trade (or pre-aggregated bucket).
type CEXTrade struct {
	ID           int64   // exchange trade id
	TimeMs       int64   // Unix timestamp in milliseconds
	Price        float64 // execution price
	Qty          float64 // base asset quantity
	QuoteQty     float64 // quote asset quantity
	Count        float64 // trades represented by the row, 1 for raw trades
	IsBuyerMaker bool
	IsBestMatch  bool
}

// CEXBar is a 1-second resampled exchange bar.
type CEXBar struct {
	Time        int64   // Unix timestamp in seconds (bar open)
	MidPrice    float64 // latest price
	VolumeBTC   float64 // spread base volume
	QuoteVolume float64 // spread quote volume
	TradeCount  float64 // spread trade count
}

// CEXWindowStats aggregates bars aligned to one interval. NULL means no bars.
type CEXWindowStats struct {
	Count     *float64 // sum of trade counts
	VolumeBTC *float64 // sum of base volume
	MidPrice  *float64 // mean mid price
}

// SpilloverRecord holds CEX statistics over a mint event's same-pool intervals.
type SpilloverRecord struct {
	HashID      int64            // event identifier
	PoolID      string           // pool of the mint
	BlockNumber int64            // block of the mint
	Windows     []CEXWindowStats // indexed by interval label
}
