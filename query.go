package ecs

import (
	"sort"

	"github.com/TheBitDrifter/mask"
)

// QueryOp is the logical role a term plays when matching archetypes.
type QueryOp uint8

const (
	OpAll QueryOp = iota
	OpAny
	OpNot
)

// Access records whether a term's component will be read, written, or
// merely used for filtering (None).
type Access uint8

const (
	AccessNone Access = iota
	AccessRead
	AccessWrite
)

// Term is one clause of a query: match archetypes that do/don't carry
// id (possibly a pair, possibly a wildcard), optionally restricted to a
// fixed source entity (EntityBad meaning "the matched archetype itself").
type Term struct {
	Op     QueryOp
	Access Access
	ID     Entity
	Src    Entity
}

func (t Term) isIsTerm() bool {
	if !t.ID.IsPair() {
		return false
	}
	return Pair(t.ID).Relation() == relIs
}

// QuerySpec is the builder input: an ordered set of terms plus change
// filters and an optional group-by.
type QuerySpec struct {
	terms       []Term
	changedIDs  []Entity
	groupByFunc func(*Archetype) (Entity, bool)
	groupIDSet  map[Entity]struct{}
}

// NewQuery starts an empty query specification.
func NewQuery() *QuerySpec { return &QuerySpec{} }

// All adds ALL-matched (AND) terms for the given components/ids.
func (q *QuerySpec) All(ids ...Entity) *QuerySpec {
	return q.add(OpAll, AccessNone, ids...)
}

// Any adds ANY-matched (OR) terms.
func (q *QuerySpec) Any(ids ...Entity) *QuerySpec {
	return q.add(OpAny, AccessNone, ids...)
}

// No adds NOT-matched terms.
func (q *QuerySpec) No(ids ...Entity) *QuerySpec {
	return q.add(OpNot, AccessNone, ids...)
}

func (q *QuerySpec) add(op QueryOp, acc Access, ids ...Entity) *QuerySpec {
	for _, id := range ids {
		q.terms = append(q.terms, Term{Op: op, Access: acc, ID: id, Src: EntityBad})
	}
	return q
}

// AddTerm appends a fully specified term (source/access control).
func (q *QuerySpec) AddTerm(t Term) *QuerySpec {
	if t.Src == 0 {
		t.Src = EntityBad
	}
	q.terms = append(q.terms, t)
	return q
}

// Changed adds a changed() filter on id: chunks whose version for id
// has not advanced past the query's recorded version are skipped.
func (q *QuerySpec) Changed(id Entity) *QuerySpec {
	q.changedIDs = append(q.changedIDs, id)
	return q
}

// GroupBy partitions matched archetypes into ordered buckets keyed by
// fn(archetype); fn returns ok=false for archetypes outside any group.
func (q *QuerySpec) GroupBy(fn func(*Archetype) (Entity, bool)) *QuerySpec {
	q.groupByFunc = fn
	return q
}

// GroupID restricts iteration to the contiguous range of one group.
func (q *QuerySpec) GroupID(id Entity) *QuerySpec {
	if q.groupIDSet == nil {
		q.groupIDSet = make(map[Entity]struct{})
	}
	q.groupIDSet[id] = struct{}{}
	return q
}

// normalizedTerms stable-sorts terms by (op, id, src) and records the
// permutation so declaration-order component addressing still works,
// plus the firstAny/firstNot boundaries used by the compiler.
type normalizedTerms struct {
	terms      []Term
	remapping  []int // declaration index -> sorted index
	firstAny   int
	firstNot   int
	contentKey string

	// allMask ORs in a bit per fixed-source-free ALL term whose id is a
	// registered component (the only ids Archetype.sig ever marks; see
	// isSimpleID). An archetype whose sig
	// doesn't contain allMask is guaranteed to fail matchTerms, so the
	// VM can reject it without walking the term list (spec §4.5
	// fast-reject path).
	allMask mask.Mask256
}

func normalizeTerms(spec *QuerySpec) normalizedTerms {
	n := len(spec.terms)
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(i, j int) bool {
		a, b := spec.terms[idx[i]], spec.terms[idx[j]]
		if a.Op != b.Op {
			return a.Op < b.Op
		}
		if a.ID != b.ID {
			return a.ID < b.ID
		}
		return a.Src < b.Src
	})

	sorted := make([]Term, n)
	remapping := make([]int, n)
	for sortedPos, origPos := range idx {
		sorted[sortedPos] = spec.terms[origPos]
		remapping[origPos] = sortedPos
	}

	firstAny, firstNot := n, n
	for i, t := range sorted {
		if t.Op == OpAny && firstAny == n {
			firstAny = i
		}
		if t.Op == OpNot && firstNot == n {
			firstNot = i
		}
	}

	nt := normalizedTerms{terms: sorted, remapping: remapping, firstAny: firstAny, firstNot: firstNot}
	for _, t := range sorted {
		if t.Op == OpAll && t.Src == EntityBad && isSimpleID(t.ID) {
			nt.allMask.Mark(uint32(t.ID))
		}
	}
	nt.contentKey = nt.hashKey(spec)
	return nt
}

func (nt normalizedTerms) hashKey(spec *QuerySpec) string {
	b := make([]byte, 0, 16*len(nt.terms))
	for _, t := range nt.terms {
		b = appendUint64(b, uint64(t.Op))
		b = appendUint64(b, uint64(t.ID))
		b = appendUint64(b, uint64(t.Src))
		b = appendUint64(b, uint64(t.Access))
	}
	for _, id := range spec.changedIDs {
		b = append(b, 'c')
		b = appendUint64(b, uint64(id))
	}
	if spec.groupByFunc != nil {
		b = append(b, 'g')
	}
	return string(b)
}

func appendUint64(b []byte, v uint64) []byte {
	for i := 0; i < 8; i++ {
		b = append(b, byte(v))
		v >>= 8
	}
	return b
}
