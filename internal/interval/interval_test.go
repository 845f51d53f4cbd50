package interval

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"dex-spillover-lab/internal/domain"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var pair = [2]string{"500", "3000"}

func f(v float64) *float64 { return &v }

func swap(id, pool string, block, day int64, usd, price float64) domain.Transaction {
	return domain.Transaction{
		ID: id, PoolID: pool, Type: domain.TransactionSwap,
		BlockNumber: block, Timestamp: day*secondsPerDay + block,
		AmountUSD: usd, Size: usd, PoolPrice: f(price),
	}
}

func mintTx(id, pool string, block, day int64, size, width float64) domain.Transaction {
	return domain.Transaction{
		ID: id, PoolID: pool, Type: domain.TransactionMint,
		BlockNumber: block, Timestamp: day*secondsPerDay + block,
		AmountUSD: size, Size: size, Width: f(width),
	}
}

func burnTx(id, pool string, block, day int64, usd float64) domain.Transaction {
	return domain.Transaction{
		ID: id, PoolID: pool, Type: domain.TransactionBurn,
		BlockNumber: block, Timestamp: day*secondsPerDay + block,
		AmountUSD: usd, Size: usd,
	}
}

func fixture() []domain.Transaction {
	return []domain.Transaction{
		mintTx("a", "500", 100, 0, 10, 60),
		swap("b", "500", 105, 0, 100, 2.0),
		burnTx("c", "500", 110, 0, 50),
		swap("d", "500", 120, 0, 300, 2.2),
		mintTx("e", "500", 150, 0, 20, 120),
		swap("f", "500", 150, 0, 200, 2.1),
		swap("g", "500", 170, 1, 400, 2.4),
		mintTx("h", "500", 200, 2, 30, 10),
		mintTx("i", "3000", 130, 0, 5, 20),
		swap("j", "3000", 140, 0, 10, 1.0),
		mintTx("k", "3000", 300, 3, 7, 20),
	}
}

func chains(hash int64, pool string, same, other []int64) domain.MintChains {
	return domain.MintChains{
		HashID:      hash,
		PoolID:      pool,
		BlockNumber: same[0],
		Same:        domain.ChainFromBlocks(4, same),
		Other:       domain.ChainFromBlocks(4, other),
	}
}

func TestArena(t *testing.T) {
	arena, err := NewArena(pair, fixture())
	require.NoError(t, err)

	assert.Equal(t, 8, arena.Len("500"))
	assert.Equal(t, 3, arena.Len("3000"))

	start, end := arena.Range("500", 100, 150)
	got := arena.Slice("500", start, end)
	require.Len(t, got, 5)
	assert.Equal(t, "b", got[0].ID)
	assert.Equal(t, "f", got[4].ID)

	start, end = arena.At("500", 150)
	assert.Equal(t, 2, end-start)

	other, err := arena.Other("3000")
	require.NoError(t, err)
	assert.Equal(t, "500", other)

	_, err = arena.Other("10000")
	assert.ErrorIs(t, err, ErrUnknownPool)

	_, err = NewArena(pair, []domain.Transaction{swap("x", "10000", 1, 0, 1, 1)})
	assert.ErrorIs(t, err, ErrUnknownPool)
}

func TestPartition(t *testing.T) {
	arena, err := NewArena(pair, fixture())
	require.NoError(t, err)

	set, err := Partition(arena, []domain.MintChains{
		chains(1, "500", []int64{100}, []int64{100}),
		chains(2, "500", []int64{200, 150, 100}, []int64{200, 130}),
	})
	require.NoError(t, err)
	require.NoError(t, set.Validate())

	assert.Empty(t, set.Records(1, domain.SideSame), "chain without history has no intervals")
	assert.Empty(t, set.Records(1, domain.SideOther))

	same := set.Records(2, domain.SideSame)
	require.Len(t, same, 3)
	assert.Equal(t, int64(150), same[0].Lo)
	assert.Equal(t, int64(200), same[0].Hi)
	assert.Equal(t, int64(50), same[0].BlockTime)
	assert.Equal(t, int64(100), same[1].BlockTime)
	assert.True(t, same[2].Terminal)
	assert.Equal(t, int64(100), same[2].Hi)
	assert.Equal(t, int64(100), same[2].BlockTime)
	assert.Equal(t, 1, same[2].Len())

	other := set.Records(2, domain.SideOther)
	require.Len(t, other, 2)
	assert.Equal(t, "3000", other[0].PoolID)
	assert.Equal(t, 1, other[0].Len())

	rec, ok := set.Record(2, domain.SideSame, 1)
	require.True(t, ok)
	for _, tx := range set.Transactions(&rec) {
		assert.True(t, rec.Contains(tx.BlockNumber), "block %d outside (%d, %d]", tx.BlockNumber, rec.Lo, rec.Hi)
		assert.LessOrEqual(t, tx.BlockNumber, int64(200), "interval reaches past the reference block")
	}

	_, ok = set.Record(2, domain.SideSame, 3)
	assert.False(t, ok)
	assert.Len(t, set.All(), 5)
}

func TestPartition_Coverage(t *testing.T) {
	var txs []domain.Transaction
	for b := int64(1); b <= 400; b++ {
		txs = append(txs, swap("s"+string(rune('a'+b%26))+string(rune('a'+b/26)), "500", b, b/100, float64(b), float64(b)))
	}
	arena, err := NewArena(pair, txs)
	require.NoError(t, err)

	cs := []domain.MintChains{
		chains(1, "500", []int64{400, 390, 250, 3}, []int64{400}),
		chains(2, "500", []int64{90, 45}, []int64{90}),
		chains(3, "500", []int64{300, 299, 298, 1}, []int64{300}),
	}
	set, err := Partition(arena, cs)
	require.NoError(t, err)
	require.NoError(t, set.Validate())

	for _, c := range cs {
		recs := set.Records(c.HashID, domain.SideSame)
		oldest := c.Same.ValidBlocks()[c.Same.MaxValidIndex()]
		start, end := arena.Range("500", oldest, c.BlockNumber)

		covered := 0
		for i := range recs {
			if !recs[i].Terminal {
				covered += recs[i].Len()
			}
		}
		assert.Equal(t, end-start, covered, "hashid %d regular intervals must tile (oldest, head]", c.HashID)
	}
}

func TestEngine_Run(t *testing.T) {
	arena, err := NewArena(pair, fixture())
	require.NoError(t, err)

	engine := &Engine{Arena: arena, Depth: 4, Workers: 2}
	records, set, err := engine.Run(context.Background(), []domain.MintChains{
		chains(1, "500", []int64{100}, []int64{100}),
		chains(2, "500", []int64{200, 150, 100}, []int64{200, 130}),
	})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, 2, set.Len())

	t.Run("event without history yields missing values", func(t *testing.T) {
		values := Flatten(&records[0], Schema(4))
		for i, v := range values {
			assert.Nil(t, v, "column %s", Schema(4)[i].Name)
		}
	})

	t.Run("same and other statistics", func(t *testing.T) {
		cols := Schema(4)
		values := Flatten(&records[1], cols)
		got := make(map[string]*float64, len(cols))
		for i := range cols {
			got[cols[i].Name] = values[i]
		}

		want := map[string]float64{
			"s0":                   30,
			"w0":                   10,
			"blsame_1":             100,
			"slsame_1":             20,
			"wlsame_1":             120,
			"blsame_2":             100,
			"slsame_2":             10,
			"wlsame_2":             60,
			"vol_0_2":              math.Sqrt(0.14) / 3,
			"rate-USD-isame_01":    215,
			"rate-USD-isame_12":    620,
			"rate-count-isame_01":  2,
			"rate-count-isame_12":  4,
			"avg-USD-isame_01":     215,
			"avg-USD-isame_12":     155,
			"blother_1":            70,
			"slother_1":            5,
			"wlother_1":            20,
			"rate-USD-iother_01":   10,
			"rate-count-iother_01": 1,
			"avg-USD-iother_01":    10,
		}
		for name, w := range want {
			require.NotNil(t, got[name], "column %s", name)
			assert.InDelta(t, w, *got[name], 1e-9, "column %s", name)
		}

		for _, name := range []string{"blsame_3", "slsame_3", "vol_0_1", "vol_0_3", "rate-USD-isame_23", "blother_2", "rate-USD-iother_12"} {
			assert.Nil(t, got[name], "column %s", name)
		}
	})
}

func TestEngine_AmbiguousMint(t *testing.T) {
	arena, err := NewArena(pair, fixture())
	require.NoError(t, err)

	engine := &Engine{Arena: arena, Depth: 4, Workers: 1}
	_, _, err = engine.Run(context.Background(), []domain.MintChains{
		chains(9, "500", []int64{200, 100}, []int64{200}),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAmbiguousMint)
	assert.Contains(t, err.Error(), "hashid 9")
}

func TestEngine_Cancelled(t *testing.T) {
	arena, err := NewArena(pair, fixture())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	engine := &Engine{Arena: arena, Depth: 4}
	_, _, err = engine.Run(ctx, []domain.MintChains{
		chains(2, "500", []int64{200, 150, 100}, []int64{200, 130}),
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestVolatility(t *testing.T) {
	tests := []struct {
		name   string
		prices []float64
		want   *float64
	}{
		{name: "no prices", prices: nil, want: nil},
		{name: "single price", prices: []float64{1}, want: nil},
		{name: "two prices", prices: []float64{1, 4}, want: f(3)},
		{name: "three prices", prices: []float64{1, 4, 0}, want: f(5.0 / 2)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			txs := make([]domain.Transaction, 0, len(tt.prices)+1)
			txs = append(txs, mintTx("m", "500", 1, 0, 1, 1))
			for i, p := range tt.prices {
				txs = append(txs, swap("s", "500", int64(i+2), 0, 1, p))
			}
			got := volatility(txs)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.InDelta(t, *tt.want, *got, 1e-12)
		})
	}
}

func TestSchema(t *testing.T) {
	cols := Schema(4)
	names := ColumnNames(cols)

	assert.Len(t, names, 41)
	assert.Equal(t, []string{"s0", "w0", "blsame_1"}, names[:3])
	assert.Contains(t, names, "vol_0_3")
	assert.Contains(t, names, "rate-count-isame_23")
	assert.NotContains(t, names, "vol_0_4")
	assert.NotContains(t, names, "s0other")
	assert.Equal(t, "avg-USD-iother_23", names[len(names)-1])

	require.NoError(t, ValidateColumns(names, ColumnNames(Schema(4))))
}

func TestValidateColumns(t *testing.T) {
	expected := []string{"a", "b", "c"}

	tests := []struct {
		name    string
		actual  []string
		wantErr bool
		msg     string
	}{
		{name: "identical", actual: []string{"a", "b", "c"}},
		{name: "missing column", actual: []string{"a", "b"}, wantErr: true, msg: "missing [c]"},
		{name: "extra column", actual: []string{"a", "b", "c", "d"}, wantErr: true, msg: "unexpected [d]"},
		{name: "reordered", actual: []string{"a", "c", "b"}, wantErr: true, msg: "column 1"},
		{name: "duplicated", actual: []string{"a", "b", "c", "c"}, wantErr: true, msg: "4 columns"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateColumns(expected, tt.actual)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, ErrSchemaViolation)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}
