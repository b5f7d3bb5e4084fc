package miner

import "github.com/rawblock/id-miner/pkg/target"

// Mode enumerates the candidate object-indices to probe for a given
// digest. Dispatch is a small inline switch on Kind rather than an
// interface/vtable — the switch sits on the engine's hot path and a
// fixed set of three variants does not need dynamic dispatch.
type Mode struct {
	Kind ModeKind
	// K is the exclusive upper bound for Multi (indices 0..K).
	K uint16
	// I is the single index probed by SingleIndex.
	I uint16
}

type ModeKind uint8

const (
	// Package probes object index 0 only — the canonical location of a
	// newly published package.
	Package ModeKind = iota
	// Multi probes indices 0..K — the canonical layout of a coin-split
	// transaction that creates K new coins.
	Multi
	// SingleIndex probes exactly index I — a generic call placing a
	// desired object at a known position.
	SingleIndex
)

// NewMulti builds a Multi mode, validating K >= 1 per spec (an empty
// index set is a configuration error, not a search that always misses).
func NewMulti(k uint16) (Mode, error) {
	if k == 0 {
		return Mode{}, errEmptyIndexSet
	}
	return Mode{Kind: Multi, K: k}, nil
}

// NewSingleIndex builds a SingleIndex mode for object index i.
func NewSingleIndex(i uint16) Mode {
	return Mode{Kind: SingleIndex, I: i}
}

// IndexRange reports the inclusive-exclusive bounds of the index set,
// used by GPU executors to size per-work-item loops.
func (m Mode) IndexRange() (start, end uint16) {
	switch m.Kind {
	case Package:
		return 0, 1
	case Multi:
		return 0, m.K
	case SingleIndex:
		return m.I, m.I + 1
	default:
		return 0, 0
	}
}

// Check enumerates the mode's index set against digest and returns the
// first (object_id, index) pair matching target. Ties are broken by
// lowest index — the loop below walks indices in ascending order and
// returns on first hit, which is exactly that tie-break.
func (m Mode) Check(digest [32]byte, t target.Target, h Hasher) (id [32]byte, index uint16, ok bool) {
	start, end := m.IndexRange()
	for i := start; i < end; i++ {
		candidate := h.DeriveObjectID(digest, uint64(i))
		if t.Matches(candidate) {
			return candidate, i, true
		}
	}
	return [32]byte{}, 0, false
}
