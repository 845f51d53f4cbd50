package normalization

import (
	"github.com/shopspring/decimal"

	"dex-spillover-lab/internal/domain"
)

// Derive builds a normalized transaction from a raw subgraph row and its block.
//
//	size      = amountUSD
//	width     = tickUpper - tickLower  (mints and burns)
//	poolPrice = |amount1 / amount0|    (swaps with non-zero amount0)
func Derive(raw domain.RawDEXTransaction, hash string, blockNumber int64) domain.Transaction {
	tx := domain.Transaction{
		ID:          raw.ID,
		Hash:        hash,
		PoolID:      raw.PoolID,
		Type:        raw.Type,
		BlockNumber: blockNumber,
		Timestamp:   raw.Timestamp,
		Amount0:     raw.Amount0.InexactFloat64(),
		Amount1:     raw.Amount1.InexactFloat64(),
		AmountUSD:   raw.AmountUSD.InexactFloat64(),
		TickLower:   raw.TickLower,
		TickUpper:   raw.TickUpper,
	}
	tx.Size = tx.AmountUSD

	if raw.Type != domain.TransactionSwap && raw.TickLower != nil && raw.TickUpper != nil {
		w := float64(*raw.TickUpper - *raw.TickLower)
		tx.Width = &w
	}

	if raw.Type == domain.TransactionSwap && !raw.Amount0.IsZero() {
		p := raw.Amount1.DivRound(raw.Amount0, 18).Abs().InexactFloat64()
		tx.PoolPrice = &p
	}

	return tx
}

// sumDecimal adds float64 values through decimal to keep aggregate sums
// independent of summation order.
func sumDecimal(values []float64) float64 {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(decimal.NewFromFloat(v))
	}
	return total.InexactFloat64()
}
