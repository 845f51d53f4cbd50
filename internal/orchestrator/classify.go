package orchestrator

import (
	"errors"

	"dex-spillover-lab/internal/chain"
	"dex-spillover-lab/internal/config"
	"dex-spillover-lab/internal/horizon"
	"dex-spillover-lab/internal/idhash"
	"dex-spillover-lab/internal/ingestion"
	"dex-spillover-lab/internal/interval"
	"dex-spillover-lab/internal/normalization"
	"dex-spillover-lab/internal/observability"
	"dex-spillover-lab/internal/spillover"
	"dex-spillover-lab/internal/storage"
)

// Classify maps a fatal error to its metrics category.
func Classify(err error) string {
	switch {
	case errors.Is(err, normalization.ErrOrderingViolation),
		errors.Is(err, spillover.ErrNonMonotonicClock),
		errors.Is(err, chain.ErrUnsortedMints):
		return observability.CategoryOrdering
	case errors.Is(err, interval.ErrAmbiguousMint):
		return observability.CategoryAmbiguity
	case errors.Is(err, horizon.ErrCausality),
		errors.Is(err, horizon.ErrInconsistentVariant),
		errors.Is(err, chain.ErrChainNotCausal):
		return observability.CategoryCausality
	case errors.Is(err, interval.ErrSchemaViolation),
		errors.Is(err, interval.ErrOverlap),
		errors.Is(err, interval.ErrIncompleteRecord),
		errors.Is(err, idhash.ErrDuplicateHashID),
		errors.Is(err, normalization.ErrDuplicateMint),
		errors.Is(err, normalization.ErrConflictingMetadata):
		return observability.CategorySchema
	case errors.Is(err, ingestion.ErrMissingColumn),
		errors.Is(err, ingestion.ErrMalformedRow),
		errors.Is(err, normalization.ErrInvalidBlockNumber),
		errors.Is(err, config.ErrInvalidConfig):
		return observability.CategoryInput
	case errors.Is(err, storage.ErrDuplicateKey),
		errors.Is(err, storage.ErrInvalidInput),
		errors.Is(err, storage.ErrNotFound):
		return observability.CategoryStorage
	}
	return observability.CategoryOther
}
