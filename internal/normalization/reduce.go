package normalization

import (
	"fmt"
	"sort"

	"dex-spillover-lab/internal/domain"
	"dex-spillover-lab/internal/idhash"
)

type mintKey struct {
	pool  string
	block int64
}

type mintGroup struct {
	first   *domain.Transaction
	sizes   []float64
	amounts []float64
	widths  []float64
	prices  []float64
	rows    int
}

// ReduceMints collapses mints sharing (pool, block) into single events:
// sizes and USD amounts are summed, widths and prices averaged over non-NULL values.
// Events are returned sorted by (block ASC, pool ASC) with hashids assigned.
func ReduceMints(txs []domain.Transaction) ([]domain.MintEvent, error) {
	groups := make(map[mintKey]*mintGroup)
	var order []mintKey

	for i := range txs {
		tx := &txs[i]
		if tx.Type != domain.TransactionMint {
			continue
		}

		k := mintKey{pool: tx.PoolID, block: tx.BlockNumber}
		g, ok := groups[k]
		if !ok {
			g = &mintGroup{first: tx}
			groups[k] = g
			order = append(order, k)
		}
		if tx.Timestamp != g.first.Timestamp {
			return nil, fmt.Errorf("%w: pool %s block %d has timestamps %d and %d",
				ErrOrderingViolation, k.pool, k.block, g.first.Timestamp, tx.Timestamp)
		}

		g.rows++
		g.sizes = append(g.sizes, tx.Size)
		g.amounts = append(g.amounts, tx.AmountUSD)
		if tx.Width != nil {
			g.widths = append(g.widths, *tx.Width)
		}
		if tx.PoolPrice != nil {
			g.prices = append(g.prices, *tx.PoolPrice)
		}
	}

	events := make([]domain.MintEvent, 0, len(order))
	keys := make([]idhash.EventKey, 0, len(order))
	for _, k := range order {
		g := groups[k]
		events = append(events, domain.MintEvent{
			HashID:      idhash.ComputeEventID(k.pool, k.block),
			PoolID:      k.pool,
			BlockNumber: k.block,
			Timestamp:   g.first.Timestamp,
			Size:        sumDecimal(g.sizes),
			AmountUSD:   sumDecimal(g.amounts),
			Width:       mean(g.widths),
			PoolPrice:   mean(g.prices),
			Merged:      g.rows,
		})
		keys = append(keys, idhash.EventKey{PoolID: k.pool, BlockNumber: k.block})
	}

	if err := idhash.ValidateUnique(keys); err != nil {
		return nil, err
	}

	SortMintEvents(events)
	return events, nil
}

// SortMintEvents orders events by (block_number ASC, pool ASC).
func SortMintEvents(events []domain.MintEvent) {
	sort.Slice(events, func(i, j int) bool {
		if events[i].BlockNumber != events[j].BlockNumber {
			return events[i].BlockNumber < events[j].BlockNumber
		}
		return events[i].PoolID < events[j].PoolID
	})
}

// ValidateMintEvents checks sort order and (pool, block) uniqueness.
func ValidateMintEvents(events []domain.MintEvent) error {
	seen := make(map[mintKey]struct{}, len(events))
	for i := range events {
		e := &events[i]
		k := mintKey{pool: e.PoolID, block: e.BlockNumber}
		if _, ok := seen[k]; ok {
			return fmt.Errorf("%w: pool %s block %d", ErrDuplicateMint, e.PoolID, e.BlockNumber)
		}
		seen[k] = struct{}{}

		if i > 0 && events[i-1].BlockNumber > e.BlockNumber {
			return fmt.Errorf("%w: mint at block %d after block %d", ErrOrderingViolation, e.BlockNumber, events[i-1].BlockNumber)
		}
	}
	return nil
}

// ReduceTransactions returns the reduced transaction table: every non-mint row
// plus one row per mint event carrying the aggregated values.
func ReduceTransactions(txs []domain.Transaction, events []domain.MintEvent) []domain.Transaction {
	byKey := make(map[mintKey]*domain.MintEvent, len(events))
	for i := range events {
		byKey[mintKey{pool: events[i].PoolID, block: events[i].BlockNumber}] = &events[i]
	}

	emitted := make(map[mintKey]struct{}, len(events))
	out := make([]domain.Transaction, 0, len(txs))
	for _, tx := range txs {
		if tx.Type != domain.TransactionMint {
			out = append(out, tx)
			continue
		}

		k := mintKey{pool: tx.PoolID, block: tx.BlockNumber}
		if _, done := emitted[k]; done {
			continue
		}
		emitted[k] = struct{}{}

		ev, ok := byKey[k]
		if !ok {
			out = append(out, tx)
			continue
		}
		tx.Size = ev.Size
		tx.AmountUSD = ev.AmountUSD
		tx.Width = ev.Width
		tx.PoolPrice = ev.PoolPrice
		out = append(out, tx)
	}

	SortTransactions(out)
	return out
}

func mean(values []float64) *float64 {
	if len(values) == 0 {
		return nil
	}
	m := sumDecimal(values) / float64(len(values))
	return &m
}
