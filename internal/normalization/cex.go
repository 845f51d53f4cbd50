package normalization

import (
	"sort"

	"dex-spillover-lab/internal/domain"
)

// ResampleCEX converts trades into contiguous 1-second bars. Each bar takes the
// first trade of its second; empty seconds repeat the previous bar. Quantities
// and counts are divided by spreadSeconds to spread them uniformly.
func ResampleCEX(trades []domain.CEXTrade, spreadSeconds int) []domain.CEXBar {
	if len(trades) == 0 || spreadSeconds <= 0 {
		return nil
	}

	sorted := make([]domain.CEXTrade, len(trades))
	copy(sorted, trades)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].TimeMs != sorted[j].TimeMs {
			return sorted[i].TimeMs < sorted[j].TimeMs
		}
		return sorted[i].ID < sorted[j].ID
	})

	first := floorSecond(sorted[0].TimeMs)
	last := floorSecond(sorted[len(sorted)-1].TimeMs)
	spread := float64(spreadSeconds)

	bars := make([]domain.CEXBar, 0, last-first+1)
	var current domain.CEXBar
	idx := 0
	for sec := first; sec <= last; sec++ {
		if idx < len(sorted) && floorSecond(sorted[idx].TimeMs) == sec {
			t := sorted[idx]
			current = domain.CEXBar{
				MidPrice:    t.Price,
				VolumeBTC:   t.Qty / spread,
				QuoteVolume: t.QuoteQty / spread,
				TradeCount:  t.Count / spread,
			}
			for idx < len(sorted) && floorSecond(sorted[idx].TimeMs) == sec {
				idx++
			}
		}
		current.Time = sec
		bars = append(bars, current)
	}

	return bars
}

func floorSecond(ms int64) int64 {
	if ms < 0 && ms%1000 != 0 {
		return ms/1000 - 1
	}
	return ms / 1000
}
