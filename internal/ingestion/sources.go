package ingestion

import (
	"context"
	"fmt"
	"os"

	"dex-spillover-lab/internal/domain"
)

// DEXSource provides raw subgraph transactions.
type DEXSource interface {
	Fetch(ctx context.Context) ([]domain.RawDEXTransaction, error)
}

// MetadataSource provides on-chain transaction metadata.
type MetadataSource interface {
	Fetch(ctx context.Context) ([]domain.ChainMetadata, error)
}

// CEXSource provides exchange trades.
type CEXSource interface {
	Fetch(ctx context.Context) ([]domain.CEXTrade, error)
}

// CSVDEXSource reads the cleansed subgraph export.
type CSVDEXSource struct {
	Path string
}

// Fetch reads all rows of the file.
func (s *CSVDEXSource) Fetch(_ context.Context) ([]domain.RawDEXTransaction, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("open dex file: %w", err)
	}
	defer f.Close()

	return ReadDEXTransactions(f)
}

// CSVMetadataSource reads the cleansed Etherscan export.
type CSVMetadataSource struct {
	Path string
}

// Fetch reads all rows of the file.
func (s *CSVMetadataSource) Fetch(_ context.Context) ([]domain.ChainMetadata, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("open metadata file: %w", err)
	}
	defer f.Close()

	return ReadChainMetadata(f)
}

// CSVCEXSource reads the Binance trade export.
type CSVCEXSource struct {
	Path string
}

// Fetch reads all rows of the file.
func (s *CSVCEXSource) Fetch(_ context.Context) ([]domain.CEXTrade, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("open cex file: %w", err)
	}
	defer f.Close()

	return ReadCEXTrades(f)
}

var (
	_ DEXSource      = (*CSVDEXSource)(nil)
	_ MetadataSource = (*CSVMetadataSource)(nil)
	_ CEXSource      = (*CSVCEXSource)(nil)
)
