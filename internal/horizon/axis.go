// Package horizon builds fixed-step horizon tables anchored at mint events
// and attaches causal cumulative swap volume targets.
package horizon

import (
	"errors"
	"fmt"
	"sort"
)

var (
	// ErrInvalidStep is returned for a non-positive horizon step.
	ErrInvalidStep = errors.New("horizon step must be positive")

	// ErrUnknownPool is returned for a mint or swap outside the configured pools.
	ErrUnknownPool = errors.New("unknown pool")

	// ErrCausality is returned when a cumulative target includes blocks outside (reference, row].
	ErrCausality = errors.New("horizon target is not causal")

	// ErrInconsistentVariant is returned when per-variant tables disagree with the wide computation.
	ErrInconsistentVariant = errors.New("horizon variant inconsistent with wide table")
)

// BuildAxis returns the shared horizon axis: for each consecutive pair of
// distinct mint blocks (start, end) the blocks start, start+step, ... < end,
// followed by the last mint block.
func BuildAxis(mintBlocks []int64, step int64) ([]int64, error) {
	if step <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidStep, step)
	}

	blocks := uniqueSorted(mintBlocks)
	if len(blocks) == 0 {
		return nil, nil
	}

	var axis []int64
	for i := 0; i+1 < len(blocks); i++ {
		for b := blocks[i]; b < blocks[i+1]; b += step {
			axis = append(axis, b)
		}
	}
	return append(axis, blocks[len(blocks)-1]), nil
}

func uniqueSorted(in []int64) []int64 {
	out := make([]int64, len(in))
	copy(out, in)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })

	n := 0
	for i := range out {
		if n > 0 && out[n-1] == out[i] {
			continue
		}
		out[n] = out[i]
		n++
	}
	return out[:n]
}

// horizons returns block differences to the previous axis row, 0 for the first.
func horizons(axis []int64) []int64 {
	out := make([]int64, len(axis))
	for i := 1; i < len(axis); i++ {
		out[i] = axis[i] - axis[i-1]
	}
	return out
}
