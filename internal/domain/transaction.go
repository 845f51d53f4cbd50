package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// TransactionType is the DEX event kind of a transaction.
type TransactionType string

const (
	TransactionMint TransactionType = "mint"
	TransactionBurn TransactionType = "burn"
	TransactionSwap TransactionType = "swap"
)

// String returns the string representation of TransactionType.
func (t TransactionType) String() string {
	return string(t)
}

// IsValid checks if the transaction type is a known value.
func (t TransactionType) IsValid() bool {
	return t == TransactionMint || t == TransactionBurn || t == TransactionSwap
}

// ParseTransactionType accepts both the subgraph plural form ("mints")
// and the singular form, case-insensitively.
func ParseTransactionType(s string) (TransactionType, bool) {
	t := TransactionType(strings.TrimSuffix(strings.ToLower(strings.TrimSpace(s)), "s"))
	return t, t.IsValid()
}

// RawDEXTransaction is one row of the subgraph export before fusion.
type RawDEXTransaction struct {
	ID        string          // "<tx hash>#<log index>"
	Timestamp int64           // Unix timestamp in seconds
	PoolID    string          // pool identifier (fee tier label)
	Type      TransactionType // mint | burn | swap
	Amount0   decimal.Decimal // token0 amount
	Amount1   decimal.Decimal // token1 amount
	AmountUSD decimal.Decimal // USD value reported by the subgraph
	TickLower *int64          // lower tick, NULL for swaps
	TickUpper *int64          // upper tick, NULL for swaps
}

// ChainMetadata is one row of the on-chain transaction metadata export.
type ChainMetadata struct {
	Hash        string // transaction hash
	BlockNumber string // block number as exported (hex "0x..." or decimal)
}

// Transaction is a fused, normalized DEX event.
// Corresponds to transactions table in PostgreSQL.
type Transaction struct {
	ID          string          // subgraph id, unique
	Hash        string          // transaction hash
	PoolID      string          // pool identifier
	Type        TransactionType // mint | burn | swap
	BlockNumber int64           // block height
	Timestamp   int64           // Unix timestamp in seconds (UTC)
	Amount0     float64         // token0 amount
	Amount1     float64         // token1 amount
	AmountUSD   float64         // USD value
	TickLower   *int64          // NULL for swaps
	TickUpper   *int64          // NULL for swaps
	Size        float64         // AmountUSD
	Width       *float64        // TickUpper - TickLower, NULL for swaps
	PoolPrice   *float64        // Amount1 / Amount0 for swaps, NULL otherwise
}

// IsBurn reports whether the transaction is excluded from volume and count statistics.
func (t *Transaction) IsBurn() bool {
	return t.Type == TransactionBurn
}
