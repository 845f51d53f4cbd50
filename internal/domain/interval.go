package domain

// ChainSide selects which chain an interval was derived from.
type ChainSide string

const (
	SideSame  ChainSide = "same"
	SideOther ChainSide = "other"
)

// IntervalRecord is one interval of a mint event's chain.
// Regular intervals cover blocks (Lo, Hi]; terminal intervals cover exactly Hi.
type IntervalRecord struct {
	HashID    int64     // owning mint event
	Side      ChainSide // same | other
	Label     int       // chain position
	PoolID    string    // pool whose transactions the interval filters
	Lo        int64     // exclusive lower block bound (== Hi for terminal)
	Hi        int64     // inclusive upper block bound
	Terminal  bool      // singleton interval at the oldest valid chain position
	BlockTime int64     // blocks elapsed from the interval's far edge to chain[0]
	Start     int       // first index into the pool's transaction arena
	End       int       // one past the last index into the pool's transaction arena
}

// Contains reports whether block falls inside the interval.
func (r *IntervalRecord) Contains(block int64) bool {
	if r.Terminal {
		return block == r.Hi
	}
	return block > r.Lo && block <= r.Hi
}

// Len returns the number of transactions in the interval.
func (r *IntervalRecord) Len() int {
	return r.End - r.Start
}

// PositionStats holds the statistics of one chain position. NULL means missing.
type PositionStats struct {
	BlockTime  *float64 // chain[0] - far edge of the interval
	Size       *float64 // size of the mint inside the interval
	Width      *float64 // width of the mint inside the interval
	Volatility *float64 // same side only, cumulative from position 0
	RateUSD    *float64 // USD volume per trading day
	RateCount  *float64 // non-burn trade count
	AvgUSD     *float64 // mean USD volume per trade
}

// DirectPoolRecord collects same and other side statistics of one mint event.
type DirectPoolRecord struct {
	HashID      int64           // event identifier
	PoolID      string          // pool of the mint
	BlockNumber int64           // block of the mint
	Same        []PositionStats // indexed by chain position
	Other       []PositionStats // indexed by chain position
}
