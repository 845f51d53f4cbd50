package ingestion

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"dex-spillover-lab/internal/domain"
)

const (
	colTradeID      = "id"
	colTime         = "time"
	colPrice        = "price"
	colQty          = "qty"
	colQuoteQty     = "quoteQty"
	colCount        = "count"
	colBuyerMaker   = "isBuyerMaker"
	colBestMatch    = "isBestMatch"
	defaultCEXCount = 1
)

// timeLayouts are accepted for non-numeric time cells.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05-07:00",
	"2006-01-02 15:04:05",
}

// ReadCEXTrades parses the exchange trade export. Numeric times are
// milliseconds since the epoch; textual times are parsed as UTC.
func ReadCEXTrades(r io.Reader) ([]domain.CEXTrade, error) {
	t, err := readTable(r, []string{colTime, colPrice, colQty, colQuoteQty})
	if err != nil {
		return nil, fmt.Errorf("cex trades: %w", err)
	}

	result := make([]domain.CEXTrade, 0, len(t.rows))
	for i, row := range t.rows {
		line := i + 2
		trade := domain.CEXTrade{Count: defaultCEXCount}

		if t.has(colTradeID) {
			if v := t.cell(row, colTradeID); v != "" {
				if trade.ID, err = parseInt(v); err != nil {
					return nil, malformed(line, colTradeID, v, err)
				}
			}
		}

		tv := t.cell(row, colTime)
		if trade.TimeMs, err = parseTimeMs(tv); err != nil {
			return nil, malformed(line, colTime, tv, err)
		}

		for _, f := range []struct {
			column string
			dst    *float64
		}{
			{colPrice, &trade.Price},
			{colQty, &trade.Qty},
			{colQuoteQty, &trade.QuoteQty},
		} {
			v := t.cell(row, f.column)
			d, err := decimal.NewFromString(v)
			if err != nil {
				return nil, malformed(line, f.column, v, err)
			}
			*f.dst = d.InexactFloat64()
		}

		if t.has(colCount) {
			if v := t.cell(row, colCount); v != "" {
				if trade.Count, err = strconv.ParseFloat(v, 64); err != nil {
					return nil, malformed(line, colCount, v, err)
				}
			}
		}
		trade.IsBuyerMaker, _ = strconv.ParseBool(t.cell(row, colBuyerMaker))
		trade.IsBestMatch, _ = strconv.ParseBool(t.cell(row, colBestMatch))

		result = append(result, trade)
	}

	return result, nil
}

func parseTimeMs(s string) (int64, error) {
	if v, err := parseInt(s); err == nil {
		return v, nil
	}
	for _, layout := range timeLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts.UTC().UnixMilli(), nil
		}
	}
	return 0, fmt.Errorf("unrecognized time format")
}
