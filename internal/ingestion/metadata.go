package ingestion

import (
	"fmt"
	"io"

	"dex-spillover-lab/internal/domain"
)

const (
	colHash        = "hash"
	colBlockNumber = "blockNumber"
)

// ReadChainMetadata parses the Etherscan export. Extra columns are ignored;
// block numbers are kept verbatim and normalized during fusion.
func ReadChainMetadata(r io.Reader) ([]domain.ChainMetadata, error) {
	t, err := readTable(r, []string{colHash, colBlockNumber})
	if err != nil {
		return nil, fmt.Errorf("chain metadata: %w", err)
	}

	result := make([]domain.ChainMetadata, 0, len(t.rows))
	for i, row := range t.rows {
		m := domain.ChainMetadata{
			Hash:        t.cell(row, colHash),
			BlockNumber: t.cell(row, colBlockNumber),
		}
		if m.Hash == "" {
			return nil, malformed(i+2, colHash, m.Hash, fmt.Errorf("empty hash"))
		}
		result = append(result, m)
	}

	return result, nil
}
