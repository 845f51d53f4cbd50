package normalization

import "errors"

var (
	// ErrOrderingViolation is returned when block order and timestamp order disagree.
	ErrOrderingViolation = errors.New("ordering violation: timestamp order differs from block order")

	// ErrInvalidBlockNumber is returned when a block number cannot be parsed.
	ErrInvalidBlockNumber = errors.New("invalid block number")

	// ErrConflictingMetadata is returned when one hash maps to two block numbers.
	ErrConflictingMetadata = errors.New("conflicting metadata")

	// ErrDuplicateMint is returned when mint events are not unique per (pool, block).
	ErrDuplicateMint = errors.New("duplicate mint event")
)
