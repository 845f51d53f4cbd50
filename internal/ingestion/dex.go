package ingestion

import (
	"fmt"
	"io"

	"github.com/shopspring/decimal"

	"dex-spillover-lab/internal/domain"
)

// DEX export columns.
const (
	colID        = "id"
	colTimestamp = "timestamp"
	colPool      = "pool"
	colTxType    = "transaction_type"
	colAmount0   = "amount0"
	colAmount1   = "amount1"
	colAmountUSD = "amountUSD"
	colTickLower = "tickLower"
	colTickUpper = "tickUpper"
)

var dexColumns = []string{
	colID, colTimestamp, colPool, colTxType,
	colAmount0, colAmount1, colAmountUSD, colTickLower, colTickUpper,
}

// ReadDEXTransactions parses the subgraph transaction export.
// Amounts are parsed as decimals; empty amounts read as zero.
func ReadDEXTransactions(r io.Reader) ([]domain.RawDEXTransaction, error) {
	t, err := readTable(r, dexColumns)
	if err != nil {
		return nil, fmt.Errorf("dex transactions: %w", err)
	}

	result := make([]domain.RawDEXTransaction, 0, len(t.rows))
	for i, row := range t.rows {
		line := i + 2

		raw := domain.RawDEXTransaction{
			ID:     t.cell(row, colID),
			PoolID: t.cell(row, colPool),
		}

		txType, ok := domain.ParseTransactionType(t.cell(row, colTxType))
		if !ok {
			return nil, malformed(line, colTxType, t.cell(row, colTxType), fmt.Errorf("unknown transaction type"))
		}
		raw.Type = txType

		ts := t.cell(row, colTimestamp)
		if raw.Timestamp, err = parseInt(ts); err != nil {
			return nil, malformed(line, colTimestamp, ts, err)
		}

		for _, f := range []struct {
			column string
			dst    *decimal.Decimal
		}{
			{colAmount0, &raw.Amount0},
			{colAmount1, &raw.Amount1},
			{colAmountUSD, &raw.AmountUSD},
		} {
			v := t.cell(row, f.column)
			if v == "" {
				continue
			}
			if *f.dst, err = decimal.NewFromString(v); err != nil {
				return nil, malformed(line, f.column, v, err)
			}
		}

		for _, f := range []struct {
			column string
			dst    **int64
		}{
			{colTickLower, &raw.TickLower},
			{colTickUpper, &raw.TickUpper},
		} {
			v := t.cell(row, f.column)
			if *f.dst, err = parseOptionalInt(v); err != nil {
				return nil, malformed(line, f.column, v, err)
			}
		}

		result = append(result, raw)
	}

	return result, nil
}
