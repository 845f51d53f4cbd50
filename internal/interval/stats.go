package interval

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"dex-spillover-lab/internal/domain"
)

const secondsPerDay = 86400

// windowStats computes the statistics of one interval. Rate, count and
// average are left missing for terminal intervals.
func windowStats(rec *domain.IntervalRecord, txs []domain.Transaction) (domain.PositionStats, error) {
	st := domain.PositionStats{BlockTime: ptr(float64(rec.BlockTime))}

	mint, err := singleMint(rec, txs)
	if err != nil {
		return st, err
	}
	if mint != nil {
		st.Size = ptr(mint.Size)
		st.Width = copyPtr(mint.Width)
	}

	if rec.Terminal {
		return st, nil
	}

	volumes := make([]float64, 0, len(txs))
	days := make(map[int64]struct{})
	for i := range txs {
		if txs[i].IsBurn() {
			continue
		}
		volumes = append(volumes, txs[i].AmountUSD)
		days[utcDay(txs[i].Timestamp)] = struct{}{}
	}

	if len(volumes) == 0 {
		return st, nil
	}

	st.RateUSD = ptr(floats.Sum(volumes) / float64(len(days)))
	st.RateCount = ptr(float64(len(volumes)))
	st.AvgUSD = ptr(stat.Mean(volumes, nil))
	return st, nil
}

func singleMint(rec *domain.IntervalRecord, txs []domain.Transaction) (*domain.Transaction, error) {
	var found *domain.Transaction
	for i := range txs {
		if txs[i].Type != domain.TransactionMint {
			continue
		}
		if found != nil {
			return nil, fmt.Errorf("%w: hashid %d %s label %d blocks (%d, %d]: mints at %d and %d",
				ErrAmbiguousMint, rec.HashID, rec.Side, rec.Label, rec.Lo, rec.Hi, found.BlockNumber, txs[i].BlockNumber)
		}
		found = &txs[i]
	}
	return found, nil
}

// volatility is the root of the summed squared first differences of
// consecutive pool prices, divided by the number of differences.
func volatility(txs []domain.Transaction) *float64 {
	prices := make([]float64, 0, len(txs))
	for i := range txs {
		if txs[i].PoolPrice != nil {
			prices = append(prices, *txs[i].PoolPrice)
		}
	}
	if len(prices) < 2 {
		return nil
	}

	diffs := make([]float64, len(prices)-1)
	floats.SubTo(diffs, prices[1:], prices[:len(prices)-1])
	v := floats.Norm(diffs, 2) / float64(len(diffs))
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func utcDay(ts int64) int64 {
	d := ts / secondsPerDay
	if ts < 0 && ts%secondsPerDay != 0 {
		d--
	}
	return d
}

func ptr(v float64) *float64 {
	return &v
}

func copyPtr(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
