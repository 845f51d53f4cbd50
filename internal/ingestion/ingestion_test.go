package ingestion

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dex-spillover-lab/internal/domain"
)

const dexCSV = `id,timestamp,pool,transaction_type,amount0,amount1,amountUSD,tickLower,tickUpper
0xaaa#1,1655593210,500,mints,1.5,21.75,30000.25,256000,258000
0xbbb#7,1655593222,3000,swaps,-0.25,3.6,5000.5,,
0xccc#2,1655593230,500,burns,0.5,7.1,9000,256000.0,258000.0
`

func TestReadDEXTransactions(t *testing.T) {
	got, err := ReadDEXTransactions(strings.NewReader(dexCSV))
	require.NoError(t, err)
	require.Len(t, got, 3)

	mint := got[0]
	assert.Equal(t, "0xaaa#1", mint.ID)
	assert.Equal(t, "500", mint.PoolID)
	assert.Equal(t, domain.TransactionMint, mint.Type)
	assert.Equal(t, int64(1655593210), mint.Timestamp)
	assert.Equal(t, "30000.25", mint.AmountUSD.String())
	require.NotNil(t, mint.TickLower)
	assert.Equal(t, int64(2000), *mint.TickUpper-*mint.TickLower)

	swap := got[1]
	assert.Equal(t, domain.TransactionSwap, swap.Type)
	assert.Nil(t, swap.TickLower)
	assert.Nil(t, swap.TickUpper)
	assert.Equal(t, "-0.25", swap.Amount0.String())

	burn := got[2]
	assert.Equal(t, domain.TransactionBurn, burn.Type)
	require.NotNil(t, burn.TickLower)
	assert.Equal(t, int64(256000), *burn.TickLower)
}

func TestReadDEXTransactions_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{
			name:    "missing columns",
			input:   "id,timestamp,pool\n0xaaa#1,1,500\n",
			wantErr: ErrMissingColumn,
		},
		{
			name:    "empty file",
			input:   "",
			wantErr: ErrMissingColumn,
		},
		{
			name:    "unknown type",
			input:   "id,timestamp,pool,transaction_type,amount0,amount1,amountUSD,tickLower,tickUpper\n0xa#1,1,500,collects,1,1,1,,\n",
			wantErr: ErrMalformedRow,
		},
		{
			name:    "bad amount",
			input:   "id,timestamp,pool,transaction_type,amount0,amount1,amountUSD,tickLower,tickUpper\n0xa#1,1,500,swaps,abc,1,1,,\n",
			wantErr: ErrMalformedRow,
		},
		{
			name:    "fractional tick",
			input:   "id,timestamp,pool,transaction_type,amount0,amount1,amountUSD,tickLower,tickUpper\n0xa#1,1,500,mints,1,1,1,1.5,3\n",
			wantErr: ErrMalformedRow,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadDEXTransactions(strings.NewReader(tt.input))
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestReadChainMetadata(t *testing.T) {
	input := "hash,blockNumber,gasUsed\n0xaaa,0xe48b4e,21000\n0xbbb,14977935,30000\n"

	got, err := ReadChainMetadata(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, []domain.ChainMetadata{
		{Hash: "0xaaa", BlockNumber: "0xe48b4e"},
		{Hash: "0xbbb", BlockNumber: "14977935"},
	}, got)

	_, err = ReadChainMetadata(strings.NewReader("hash\n0xaaa\n"))
	assert.ErrorIs(t, err, ErrMissingColumn)
}

func TestReadCEXTrades(t *testing.T) {
	input := `id,price,qty,quoteQty,time,isBuyerMaker,isBestMatch
101,20550.5,0.12,2466.06,1655593200123,true,true
102,20551,0.3,6165.3,2022-06-18 23:00:01+00:00,false,true
`
	got, err := ReadCEXTrades(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, int64(101), got[0].ID)
	assert.Equal(t, int64(1655593200123), got[0].TimeMs)
	assert.InDelta(t, 20550.5, got[0].Price, 1e-9)
	assert.True(t, got[0].IsBuyerMaker)
	assert.Equal(t, 1.0, got[0].Count)

	assert.Equal(t, int64(1655593201000), got[1].TimeMs)
	assert.False(t, got[1].IsBuyerMaker)

	_, err = ReadCEXTrades(strings.NewReader("time,price,qty,quoteQty\nyesterday,1,1,1\n"))
	assert.ErrorIs(t, err, ErrMalformedRow)
}

func TestCSVSources(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "uniswap.csv")
	require.NoError(t, os.WriteFile(path, []byte(dexCSV), 0o600))

	src := &CSVDEXSource{Path: path}
	got, err := src.Fetch(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 3)

	_, err = (&CSVMetadataSource{Path: filepath.Join(dir, "absent.csv")}).Fetch(context.Background())
	assert.Error(t, err)
}
