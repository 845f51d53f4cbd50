package interval

import (
	"fmt"
	"sort"

	"dex-spillover-lab/internal/domain"
)

type recordKey struct {
	hashID int64
	side   domain.ChainSide
}

// IntervalSet holds the interval records of every mint event, indexed by
// (hashid, side) and ordered by label.
type IntervalSet struct {
	arena   *Arena
	records map[recordKey][]domain.IntervalRecord
	order   []int64 // hashids in input order
}

// Partition derives interval records from chains.
// For a chain with oldest valid position m >= 1, labels 0..m-1 cover
// (chain[i+1], chain[i]] and label m covers exactly chain[m].
// A chain with m == 0 yields no records.
func Partition(arena *Arena, chains []domain.MintChains) (*IntervalSet, error) {
	set := &IntervalSet{
		arena:   arena,
		records: make(map[recordKey][]domain.IntervalRecord, 2*len(chains)),
		order:   make([]int64, 0, len(chains)),
	}

	for i := range chains {
		c := &chains[i]
		otherPool, err := arena.Other(c.PoolID)
		if err != nil {
			return nil, fmt.Errorf("hashid %d: %w", c.HashID, err)
		}

		set.order = append(set.order, c.HashID)
		set.records[recordKey{c.HashID, domain.SideSame}] = partitionChain(arena, c.HashID, domain.SideSame, c.PoolID, c.Same)
		set.records[recordKey{c.HashID, domain.SideOther}] = partitionChain(arena, c.HashID, domain.SideOther, otherPool, c.Other)
	}

	return set, nil
}

func partitionChain(arena *Arena, hashID int64, side domain.ChainSide, pool string, chain domain.Chain) []domain.IntervalRecord {
	m := chain.MaxValidIndex()
	if m < 1 {
		return nil
	}

	blocks := chain.ValidBlocks()
	head := blocks[0]
	recs := make([]domain.IntervalRecord, 0, m+1)

	for i := 0; i < m; i++ {
		lo, hi := blocks[i+1], blocks[i]
		start, end := arena.Range(pool, lo, hi)
		recs = append(recs, domain.IntervalRecord{
			HashID:    hashID,
			Side:      side,
			Label:     i,
			PoolID:    pool,
			Lo:        lo,
			Hi:        hi,
			BlockTime: head - lo,
			Start:     start,
			End:       end,
		})
	}

	last := blocks[m]
	start, end := arena.At(pool, last)
	recs = append(recs, domain.IntervalRecord{
		HashID:    hashID,
		Side:      side,
		Label:     m,
		PoolID:    pool,
		Lo:        last,
		Hi:        last,
		Terminal:  true,
		BlockTime: head - last,
		Start:     start,
		End:       end,
	})

	return recs
}

// Arena returns the transaction arena the records index into.
func (s *IntervalSet) Arena() *Arena {
	return s.arena
}

// Records returns the records of one chain ordered by label.
func (s *IntervalSet) Records(hashID int64, side domain.ChainSide) []domain.IntervalRecord {
	return s.records[recordKey{hashID, side}]
}

// Record returns one record by label.
func (s *IntervalSet) Record(hashID int64, side domain.ChainSide, label int) (domain.IntervalRecord, bool) {
	recs := s.records[recordKey{hashID, side}]
	if label < 0 || label >= len(recs) {
		return domain.IntervalRecord{}, false
	}
	return recs[label], true
}

// Transactions returns the arena sub-slice covered by rec.
func (s *IntervalSet) Transactions(rec *domain.IntervalRecord) []domain.Transaction {
	return s.arena.Slice(rec.PoolID, rec.Start, rec.End)
}

// All returns every record ordered by input event, side, then label.
func (s *IntervalSet) All() []domain.IntervalRecord {
	var out []domain.IntervalRecord
	for _, h := range s.order {
		out = append(out, s.records[recordKey{h, domain.SideSame}]...)
		out = append(out, s.records[recordKey{h, domain.SideOther}]...)
	}
	return out
}

// Len returns the number of partitioned events.
func (s *IntervalSet) Len() int {
	return len(s.order)
}

// Validate checks that the regular intervals of each chain are contiguous
// and non-overlapping, and that the terminal interval sits at the oldest edge.
func (s *IntervalSet) Validate() error {
	keys := make([]recordKey, 0, len(s.records))
	for k := range s.records {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].hashID != keys[j].hashID {
			return keys[i].hashID < keys[j].hashID
		}
		return keys[i].side < keys[j].side
	})

	for _, k := range keys {
		recs := s.records[k]
		if len(recs) == 0 {
			continue
		}
		for i := range recs {
			r := &recs[i]
			if r.Label != i {
				return fmt.Errorf("%w: hashid %d %s label %d at index %d", ErrOverlap, k.hashID, k.side, r.Label, i)
			}
			if i == len(recs)-1 {
				if !r.Terminal || r.Lo != r.Hi {
					return fmt.Errorf("%w: hashid %d %s last record is not a terminal singleton", ErrOverlap, k.hashID, k.side)
				}
				if i > 0 && recs[i-1].Lo != r.Hi {
					return fmt.Errorf("%w: hashid %d %s terminal block %d does not close label %d", ErrOverlap, k.hashID, k.side, r.Hi, i-1)
				}
				continue
			}
			if r.Terminal || r.Lo >= r.Hi {
				return fmt.Errorf("%w: hashid %d %s label %d covers (%d, %d]", ErrOverlap, k.hashID, k.side, i, r.Lo, r.Hi)
			}
			if i > 0 && recs[i-1].Lo != r.Hi {
				return fmt.Errorf("%w: hashid %d %s label %d (%d, %d] does not meet label %d", ErrOverlap, k.hashID, k.side, i, r.Lo, r.Hi, i-1)
			}
		}
	}
	return nil
}
