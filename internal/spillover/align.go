// Package spillover aligns centralized-exchange bars with DEX blocks and
// aggregates them over each mint event's same-pool chain windows.
package spillover

import (
	"errors"
	"fmt"
	"sort"

	"gonum.org/v1/gonum/stat"

	"dex-spillover-lab/internal/domain"
	"dex-spillover-lab/internal/lookup"
)

// ErrNonMonotonicClock is returned when block timestamps decrease with block height.
var ErrNonMonotonicClock = errors.New("block timestamps are not monotonic")

// BlockClock maps DEX blocks to their timestamps, ordered by block.
type BlockClock struct {
	blocks []int64
	times  []int64
}

// NewBlockClock derives the block clock from transactions.
func NewBlockClock(txs []domain.Transaction) (*BlockClock, error) {
	seen := make(map[int64]int64, len(txs))
	for i := range txs {
		if ts, ok := seen[txs[i].BlockNumber]; !ok || txs[i].Timestamp < ts {
			seen[txs[i].BlockNumber] = txs[i].Timestamp
		}
	}

	c := &BlockClock{
		blocks: make([]int64, 0, len(seen)),
		times:  make([]int64, 0, len(seen)),
	}
	for b := range seen {
		c.blocks = append(c.blocks, b)
	}
	sort.Slice(c.blocks, func(i, j int) bool { return c.blocks[i] < c.blocks[j] })
	for i, b := range c.blocks {
		ts := seen[b]
		if i > 0 && ts < c.times[i-1] {
			return nil, fmt.Errorf("%w: block %d at %d precedes block %d at %d",
				ErrNonMonotonicClock, b, ts, c.blocks[i-1], c.times[i-1])
		}
		c.times = append(c.times, ts)
	}
	return c, nil
}

// Len returns the number of known blocks.
func (c *BlockClock) Len() int {
	return len(c.blocks)
}

// BlockBefore returns the last block whose timestamp is strictly before ts.
func (c *BlockClock) BlockBefore(ts int64) (int64, bool) {
	i, ok := lookup.StrictlyBefore(c.times, ts)
	if !ok {
		return 0, false
	}
	// equal timestamps resolve to the highest block
	return c.blocks[i], true
}

// BlockBars aggregates the bars aligned to one block.
type BlockBars struct {
	Block      int64
	TradeCount float64 // sum
	VolumeBTC  float64 // sum
	MidPrice   float64 // mean
	Bars       int
}

// Aligned is the per-block aggregate of all bars, ordered by block.
type Aligned struct {
	blocks []int64
	rows   []BlockBars
}

// Align assigns every bar to the last block strictly before its time and
// aggregates per block. Bars before the first block are dropped and counted.
func Align(bars []domain.CEXBar, clock *BlockClock) (*Aligned, int) {
	type acc struct {
		count, btc float64
		mids       []float64
	}
	perBlock := make(map[int64]*acc)
	dropped := 0

	for i := range bars {
		b, ok := clock.BlockBefore(bars[i].Time)
		if !ok {
			dropped++
			continue
		}
		a, ok := perBlock[b]
		if !ok {
			a = &acc{}
			perBlock[b] = a
		}
		a.count += bars[i].TradeCount
		a.btc += bars[i].VolumeBTC
		a.mids = append(a.mids, bars[i].MidPrice)
	}

	out := &Aligned{
		blocks: make([]int64, 0, len(perBlock)),
		rows:   make([]BlockBars, 0, len(perBlock)),
	}
	for b := range perBlock {
		out.blocks = append(out.blocks, b)
	}
	sort.Slice(out.blocks, func(i, j int) bool { return out.blocks[i] < out.blocks[j] })
	for _, b := range out.blocks {
		a := perBlock[b]
		out.rows = append(out.rows, BlockBars{
			Block:      b,
			TradeCount: a.count,
			VolumeBTC:  a.btc,
			MidPrice:   stat.Mean(a.mids, nil),
			Bars:       len(a.mids),
		})
	}
	return out, dropped
}

// Rows returns the per-block aggregates.
func (a *Aligned) Rows() []BlockBars {
	return a.rows
}

// Window aggregates the blocks in [lo, hi): counts and volumes are summed,
// mid prices averaged over blocks. Empty windows yield missing values.
func (a *Aligned) Window(lo, hi int64) domain.CEXWindowStats {
	start := lookup.FirstAtOrAfter(a.blocks, lo)
	end := lookup.FirstAtOrAfter(a.blocks, hi)
	if start >= end {
		return domain.CEXWindowStats{}
	}

	var count, btc float64
	mids := make([]float64, 0, end-start)
	for _, r := range a.rows[start:end] {
		count += r.TradeCount
		btc += r.VolumeBTC
		mids = append(mids, r.MidPrice)
	}
	mid := stat.Mean(mids, nil)
	return domain.CEXWindowStats{Count: &count, VolumeBTC: &btc, MidPrice: &mid}
}
