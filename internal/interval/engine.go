package interval

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"

	"golang.org/x/sync/errgroup"

	"dex-spillover-lab/internal/domain"
)

// ErrIncompleteRecord is returned when a record builder is missing a side.
var ErrIncompleteRecord = errors.New("incomplete direct-pool record")

// Engine computes direct-pool records over an arena.
type Engine struct {
	Arena   *Arena
	Depth   int
	Workers int // 0 means GOMAXPROCS
	Logger  *slog.Logger
}

// Run partitions chains and computes one record per chain, in input order.
// Every chain yields a record; missing statistics stay nil.
func (e *Engine) Run(ctx context.Context, chains []domain.MintChains) ([]domain.DirectPoolRecord, *IntervalSet, error) {
	set, err := Partition(e.Arena, chains)
	if err != nil {
		return nil, nil, err
	}
	if err := set.Validate(); err != nil {
		return nil, nil, err
	}

	workers := e.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	results := make([]domain.DirectPoolRecord, len(chains))
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
			rec, err := e.record(set, &chains[i])
			if err != nil {
				return err
			}
			results[i] = rec
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	if e.Logger != nil {
		e.Logger.Debug("interval records computed",
			slog.Int("events", len(results)),
			slog.Int("intervals", len(set.All())),
		)
	}

	return results, set, nil
}

func (e *Engine) record(set *IntervalSet, c *domain.MintChains) (domain.DirectPoolRecord, error) {
	b := newRecordBuilder(c, e.Depth)

	for _, side := range []domain.ChainSide{domain.SideSame, domain.SideOther} {
		recs := set.Records(c.HashID, side)
		for i := range recs {
			st, err := windowStats(&recs[i], set.Transactions(&recs[i]))
			if err != nil {
				return domain.DirectPoolRecord{}, err
			}
			if side == domain.SideSame && !recs[i].Terminal {
				// cumulative from position 0: (chain[i+1], chain[0]]
				start, end := set.Arena().Range(recs[i].PoolID, recs[i].Lo, c.BlockNumber)
				st.Volatility = volatility(set.Arena().Slice(recs[i].PoolID, start, end))
			}
			if err := b.set(side, recs[i].Label, st); err != nil {
				return domain.DirectPoolRecord{}, err
			}
		}
		b.done(side)
	}

	return b.build()
}

// recordBuilder accumulates per-position stats for both sides of one event.
type recordBuilder struct {
	rec  domain.DirectPoolRecord
	seen map[domain.ChainSide]bool
}

func newRecordBuilder(c *domain.MintChains, depth int) *recordBuilder {
	return &recordBuilder{
		rec: domain.DirectPoolRecord{
			HashID:      c.HashID,
			PoolID:      c.PoolID,
			BlockNumber: c.BlockNumber,
			Same:        make([]domain.PositionStats, depth),
			Other:       make([]domain.PositionStats, depth),
		},
		seen: make(map[domain.ChainSide]bool, 2),
	}
}

func (b *recordBuilder) set(side domain.ChainSide, pos int, st domain.PositionStats) error {
	stats := b.rec.Same
	if side == domain.SideOther {
		stats = b.rec.Other
	}
	if pos < 0 || pos >= len(stats) {
		return fmt.Errorf("%w: hashid %d %s position %d outside depth %d",
			ErrIncompleteRecord, b.rec.HashID, side, pos, len(stats))
	}
	stats[pos] = st
	return nil
}

func (b *recordBuilder) done(side domain.ChainSide) {
	b.seen[side] = true
}

func (b *recordBuilder) build() (domain.DirectPoolRecord, error) {
	if !b.seen[domain.SideSame] || !b.seen[domain.SideOther] {
		return domain.DirectPoolRecord{}, fmt.Errorf("%w: hashid %d", ErrIncompleteRecord, b.rec.HashID)
	}
	return b.rec, nil
}
