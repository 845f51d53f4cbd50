// Package lookup provides causal nearest-block searches over sorted keys.
// All functions require keys sorted ascending; duplicates are allowed.
package lookup

import "sort"

// AtOrBefore returns the index of the last key <= target.
// Returns false if every key is greater than target.
func AtOrBefore(keys []int64, target int64) (int, bool) {
	i := sort.Search(len(keys), func(i int) bool { return keys[i] > target })
	if i == 0 {
		return 0, false
	}
	return i - 1, true
}

// StrictlyBefore returns the index of the last key < target.
// Returns false if no key is smaller than target.
func StrictlyBefore(keys []int64, target int64) (int, bool) {
	i := FirstAtOrAfter(keys, target)
	if i == 0 {
		return 0, false
	}
	return i - 1, true
}

// FirstAtOrAfter returns the index of the first key >= target, len(keys) if none.
func FirstAtOrAfter(keys []int64, target int64) int {
	return sort.Search(len(keys), func(i int) bool { return keys[i] >= target })
}

// FirstAfter returns the index of the first key > target, len(keys) if none.
func FirstAfter(keys []int64, target int64) int {
	return sort.Search(len(keys), func(i int) bool { return keys[i] > target })
}

// Range returns the half-open index range [start, end) of keys in (lo, hi].
func Range(keys []int64, lo, hi int64) (int, int) {
	if hi <= lo {
		i := FirstAfter(keys, hi)
		return i, i
	}
	return FirstAfter(keys, lo), FirstAfter(keys, hi)
}

// Exact returns the half-open index range [start, end) of keys equal to target.
func Exact(keys []int64, target int64) (int, int) {
	return FirstAtOrAfter(keys, target), FirstAfter(keys, target)
}
