package chain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dex-spillover-lab/internal/domain"
	"dex-spillover-lab/internal/idhash"
)

func mint(pool string, block int64) domain.MintEvent {
	return domain.MintEvent{
		HashID:      idhash.ComputeEventID(pool, block),
		PoolID:      pool,
		BlockNumber: block,
		Timestamp:   block * 12,
	}
}

func TestBuilder_Build(t *testing.T) {
	mints := []domain.MintEvent{
		mint("500", 100),
		mint("3000", 120),
		mint("500", 150),
		mint("3000", 150),
		mint("500", 180),
		mint("500", 220),
		mint("500", 260),
	}

	chains, err := NewBuilder(4, "500", "3000").Build(mints)
	require.NoError(t, err)
	require.Len(t, chains, len(mints))
	require.NoError(t, ValidateCausality(chains))

	tests := []struct {
		name      string
		idx       int
		wantSame  []int64
		wantOther []int64
	}{
		{name: "first mint has no history", idx: 0, wantSame: []int64{100}, wantOther: []int64{100}},
		{name: "first other-pool mint", idx: 1, wantSame: []int64{120}, wantOther: []int64{120, 100}},
		{name: "same-block other mint is excluded", idx: 2, wantSame: []int64{150, 100}, wantOther: []int64{150, 120}},
		{name: "3000 at 150 sees 500 at 100", idx: 3, wantSame: []int64{150, 120}, wantOther: []int64{150, 100}},
		{name: "template is truncated to depth", idx: 6, wantSame: []int64{260, 220, 180, 150}, wantOther: []int64{260, 150, 120}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := chains[tt.idx]
			assert.Equal(t, mints[tt.idx].HashID, c.HashID)
			assert.Equal(t, tt.wantSame, c.Same.ValidBlocks())
			assert.Equal(t, tt.wantOther, c.Other.ValidBlocks())
			assert.Equal(t, 4, c.Same.Depth())
			assert.Equal(t, 4, c.Other.Depth())
		})
	}
}

func TestBuilder_Build_MissingOtherPool(t *testing.T) {
	mints := []domain.MintEvent{mint("500", 100), mint("500", 150), mint("500", 220)}

	chains, err := NewBuilder(4, "500", "3000").Build(mints)
	require.NoError(t, err)

	for _, c := range chains {
		assert.Equal(t, 0, c.Other.MaxValidIndex())
		head, ok := c.Other.At(0)
		assert.True(t, ok)
		assert.Equal(t, c.BlockNumber, head)
		for i := 1; i < 4; i++ {
			_, ok := c.Other.At(i)
			assert.False(t, ok, "position %d should be null", i)
		}
	}
}

func TestBuilder_Build_FullTemplate(t *testing.T) {
	mints := []domain.MintEvent{
		mint("3000", 10), mint("3000", 20), mint("3000", 30), mint("3000", 40),
		mint("500", 45),
	}

	chains, err := NewBuilder(4, "500", "3000").Build(mints)
	require.NoError(t, err)

	// the oldest template element (10) is dropped to keep depth 4
	assert.Equal(t, []int64{45, 40, 30, 20}, chains[4].Other.ValidBlocks())
	assert.Equal(t, 3, chains[4].Other.MaxValidIndex())
}

func TestBuilder_Build_Errors(t *testing.T) {
	b := NewBuilder(4, "500", "3000")

	_, err := b.Build([]domain.MintEvent{mint("500", 150), mint("500", 100)})
	assert.ErrorIs(t, err, ErrUnsortedMints)

	_, err = b.Build([]domain.MintEvent{mint("500", 100), mint("500", 100)})
	assert.ErrorIs(t, err, ErrUnsortedMints)

	_, err = b.Build([]domain.MintEvent{mint("10000", 100)})
	assert.ErrorIs(t, err, ErrUnknownPool)
}

func TestValidateCausality(t *testing.T) {
	good := domain.MintChains{
		HashID:      1,
		BlockNumber: 100,
		Same:        domain.ChainFromBlocks(4, []int64{100, 90}),
		Other:       domain.ChainFromBlocks(4, []int64{100}),
	}
	assert.NoError(t, ValidateCausality([]domain.MintChains{good}))

	bad := good
	bad.Same = domain.ChainFromBlocks(4, []int64{100, 100})
	assert.ErrorIs(t, ValidateCausality([]domain.MintChains{bad}), ErrChainNotCausal)

	unanchored := good
	unanchored.Other = domain.ChainFromBlocks(4, []int64{95})
	assert.ErrorIs(t, ValidateCausality([]domain.MintChains{unanchored}), ErrChainNotCausal)
}
