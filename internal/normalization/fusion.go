package normalization

import (
	"fmt"
	"strings"

	"dex-spillover-lab/internal/domain"
)

// Loss stage names reported by Fuse.
const (
	StageFusion      = "fusion"
	StageFusionMints = "fusion:mints"
)

// FusionResult holds fused transactions and the rows lost by the hash join.
type FusionResult struct {
	Transactions []domain.Transaction
	Loss         domain.LossReport // all rows
	MintLoss     domain.LossReport // mint rows only
}

// TxHash extracts the transaction hash from a subgraph id ("<hash>#<log index>").
func TxHash(id string) string {
	if i := strings.IndexByte(id, '#'); i >= 0 {
		return id[:i]
	}
	return id
}

// Fuse inner-joins subgraph rows with chain metadata on transaction hash and derives
// per-transaction fields. Rows without metadata are dropped and counted.
// The result is sorted and its ordering invariant validated.
func Fuse(dex []domain.RawDEXTransaction, meta []domain.ChainMetadata) (*FusionResult, error) {
	blocks := make(map[string]int64, len(meta))
	for _, m := range meta {
		block, err := ParseBlockNumber(m.BlockNumber)
		if err != nil {
			return nil, fmt.Errorf("hash %s: %w", m.Hash, err)
		}
		if prev, ok := blocks[m.Hash]; ok && prev != block {
			return nil, fmt.Errorf("%w: hash %s has blocks %d and %d", ErrConflictingMetadata, m.Hash, prev, block)
		}
		blocks[m.Hash] = block
	}

	result := &FusionResult{
		Transactions: make([]domain.Transaction, 0, len(dex)),
		Loss:         domain.LossReport{Stage: StageFusion, Before: len(dex)},
		MintLoss:     domain.LossReport{Stage: StageFusionMints},
	}

	for _, raw := range dex {
		isMint := raw.Type == domain.TransactionMint
		if isMint {
			result.MintLoss.Before++
		}

		hash := TxHash(raw.ID)
		block, ok := blocks[hash]
		if !ok {
			continue
		}

		result.Transactions = append(result.Transactions, Derive(raw, hash, block))
		if isMint {
			result.MintLoss.After++
		}
	}
	result.Loss.After = len(result.Transactions)

	SortTransactions(result.Transactions)
	if err := ValidateOrdering(result.Transactions); err != nil {
		return nil, err
	}

	return result, nil
}

// FilterSpan keeps transactions with timestamp in [start, end).
func FilterSpan(txs []domain.Transaction, start, end int64) ([]domain.Transaction, domain.LossReport) {
	out := make([]domain.Transaction, 0, len(txs))
	for _, tx := range txs {
		if tx.Timestamp >= start && tx.Timestamp < end {
			out = append(out, tx)
		}
	}
	return out, domain.LossReport{Stage: "span", Before: len(txs), After: len(out)}
}
