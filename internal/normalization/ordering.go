package normalization

import (
	"fmt"
	"sort"

	"dex-spillover-lab/internal/domain"
)

// SortTransactions orders transactions by (block_number ASC, timestamp ASC, id ASC).
func SortTransactions(txs []domain.Transaction) {
	sort.Slice(txs, func(i, j int) bool {
		return compareTransactions(&txs[i], &txs[j]) < 0
	})
}

// ValidateOrdering checks that transactions sorted by block number are also
// sorted by timestamp, so that both orders agree. The input must already be
// sorted with SortTransactions.
func ValidateOrdering(txs []domain.Transaction) error {
	for i := 1; i < len(txs); i++ {
		prev, cur := &txs[i-1], &txs[i]
		if compareTransactions(prev, cur) > 0 {
			return fmt.Errorf("%w: %s (block %d) sorted after %s (block %d)",
				ErrOrderingViolation, prev.ID, prev.BlockNumber, cur.ID, cur.BlockNumber)
		}
		if prev.Timestamp > cur.Timestamp {
			return fmt.Errorf("%w: %s (block %d, ts %d) precedes %s (block %d, ts %d)",
				ErrOrderingViolation, prev.ID, prev.BlockNumber, prev.Timestamp, cur.ID, cur.BlockNumber, cur.Timestamp)
		}
	}
	return nil
}

// compareTransactions returns:
//   - negative if a < b
//   - zero if a == b
//   - positive if a > b
func compareTransactions(a, b *domain.Transaction) int {
	if a.BlockNumber != b.BlockNumber {
		if a.BlockNumber < b.BlockNumber {
			return -1
		}
		return 1
	}
	if a.Timestamp != b.Timestamp {
		if a.Timestamp < b.Timestamp {
			return -1
		}
		return 1
	}
	if a.ID != b.ID {
		if a.ID < b.ID {
			return -1
		}
		return 1
	}
	return 0
}
