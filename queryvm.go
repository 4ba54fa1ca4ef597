package ecs

// isSimpleID reports whether id is eligible for the sig-bitmask
// fast-reject in matchTerms: a plain, non-pair registered component id.
// newArchetype only ever marks Archetype.sig for ids with a
// componentcache entry (itemFor), which pair ids never have (they
// identify relationships, not storage), so a pair id's bit is never
// set on any archetype and can't be used to prove absence.
func isSimpleID(id Entity) bool {
	if id.IsPair() {
		return false
	}
	_, ok := itemFor(id)
	return ok
}

// matchID reports whether archetype a carries an id matching query id
// `want`, honoring wildcard and `Is`-transitive semantics (spec §4.5):
//   (*, *) matches any pair in the archetype.
//   (X, *) matches any archetype id whose relation equals X.
//   (*, Y) matches any archetype id whose target equals Y.
//   (Is, X) matches the literal pair or any (Is, Y) where Y isA X.
func matchID(w *World, a *Archetype, want Entity) bool {
	if !want.IsPair() {
		return a.Has(want)
	}
	wp := Pair(want)

	if wp.IsFullWildcard() {
		for _, id := range a.ids {
			if id.IsPair() {
				return true
			}
		}
		return false
	}
	if wp.Relation() == relIs && !wp.IsRelationWildcard() && !wp.IsTargetWildcard() {
		base := wp.Target()
		for _, id := range a.ids {
			if !id.IsPair() {
				continue
			}
			p := Pair(id)
			if p.Relation() != relIs {
				continue
			}
			if p.Target() == base || w.rel.isA(p.Target(), base) {
				return true
			}
		}
		return false
	}
	if wp.IsRelationWildcard() {
		target := wp.Target()
		for _, id := range a.ids {
			if id.IsPair() && Pair(id).Target() == target {
				return true
			}
		}
		return false
	}
	if wp.IsTargetWildcard() {
		rel := wp.Relation()
		for _, id := range a.ids {
			if id.IsPair() && Pair(id).Relation() == rel {
				return true
			}
		}
		return false
	}
	return a.Has(want)
}

// matchTerms evaluates every normalized term against archetype a. A
// term with a fixed Src is evaluated against that entity's own
// archetype instead of a (spec §4.5: "optional fixed-source entity").
func matchTerms(w *World, a *Archetype, nt normalizedTerms) bool {
	if !a.sig.ContainsAll(nt.allMask) {
		return false
	}

	allOK := true
	anyCount, anyOK := 0, false
	notViolated := false

	for _, t := range nt.terms {
		target := a
		if t.Src != EntityBad {
			rec, ok := w.entities.lookup(t.Src)
			if !ok {
				if t.Op == OpAll {
					allOK = false
				}
				continue
			}
			target = rec.archetype
		}
		hit := matchID(w, target, t.ID)
		switch t.Op {
		case OpAll:
			if !hit {
				allOK = false
			}
		case OpAny:
			anyCount++
			if hit {
				anyOK = true
			}
		case OpNot:
			if hit {
				notViolated = true
			}
		}
	}
	if !allOK {
		return false
	}
	if anyCount > 0 && !anyOK {
		return false
	}
	if notViolated {
		return false
	}
	return true
}

// idIndexMapping returns, for each term's id (in declaration order), its
// actual position within archetype a's sorted id list -- the cached
// "declaration order -> actual position" metadata from spec §4.5.
func idIndexMapping(a *Archetype, nt normalizedTerms) []int {
	out := make([]int, len(nt.terms))
	for decl, sortedPos := range nt.remapping {
		t := nt.terms[sortedPos]
		out[decl] = -1
		for pos, id := range a.ids {
			if id == t.ID {
				out[decl] = pos
				break
			}
		}
	}
	return out
}
