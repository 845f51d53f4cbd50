package spillover

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"dex-spillover-lab/internal/domain"
)

// ColumnPrefix is the exchange name used in spillover column names.
const ColumnPrefix = "binance"

// Engine computes spillover records for mint events.
type Engine struct {
	Aligned *Aligned
	Depth   int
	Workers int // 0 means GOMAXPROCS
}

// Run computes one record per chain, in input order. Window i covers the
// blocks [chain[i+1], chain[i]) of the same-pool chain.
func (e *Engine) Run(ctx context.Context, chains []domain.MintChains) ([]domain.SpilloverRecord, error) {
	workers := e.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	results := make([]domain.SpilloverRecord, len(chains))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i := range chains {
		if ctx.Err() != nil {
			break
		}
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = e.record(&chains[i])
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

func (e *Engine) record(c *domain.MintChains) domain.SpilloverRecord {
	rec := domain.SpilloverRecord{
		HashID:      c.HashID,
		PoolID:      c.PoolID,
		BlockNumber: c.BlockNumber,
		Windows:     make([]domain.CEXWindowStats, e.Depth-1),
	}
	blocks := c.Same.ValidBlocks()
	for i := 0; i+1 < len(blocks) && i < len(rec.Windows); i++ {
		rec.Windows[i] = e.Aligned.Window(blocks[i+1], blocks[i])
	}
	return rec
}

// Columns returns the spillover column names for a chain depth, window by window.
func Columns(depth int) []string {
	var cols []string
	for l := 0; l < depth-1; l++ {
		for _, metric := range []string{"count", "btc", "midprice"} {
			cols = append(cols, fmt.Sprintf("%s-%s-%d%d", ColumnPrefix, metric, l, l+1))
		}
	}
	return cols
}

// Flatten maps a record onto Columns(depth).
func Flatten(rec *domain.SpilloverRecord, depth int) []*float64 {
	out := make([]*float64, 0, 3*(depth-1))
	for l := 0; l < depth-1; l++ {
		var w domain.CEXWindowStats
		if l < len(rec.Windows) {
			w = rec.Windows[l]
		}
		out = append(out, w.Count, w.VolumeBTC, w.MidPrice)
	}
	return out
}
