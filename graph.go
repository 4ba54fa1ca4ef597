package ecs

// bagHash computes an order-independent hash of an id set so two id
// lists with the same members (any order) land in the same bucket.
func bagHash(ids []Entity) uint64 {
	var h uint64
	for _, id := range ids {
		// splitmix64-style per-element mix, then XOR-combined so order
		// does not affect the result.
		x := uint64(id)
		x ^= x >> 33
		x *= 0xff51afd7ed558ccd
		x ^= x >> 33
		x *= 0xc4ceb9fe1a85ec53
		x ^= x >> 33
		h ^= x
	}
	return h
}

func sameIDSet(a, b []Entity) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// findOrCreateArchetype resolves the archetype with exactly ids
// (already sorted/deduped by the caller or by newArchetype), creating
// it if no existing archetype matches.
func (w *World) findOrCreateArchetype(ids []Entity) *Archetype {
	sorted := sortArchetypeIDs(ids)
	h := bagHash(sorted)
	for _, cand := range w.archetypesByHash[h] {
		if sameIDSet(cand.ids, sorted) {
			return cand
		}
	}
	w.nextArchetypeID++
	a := newArchetype(w, w.nextArchetypeID, sorted)
	w.archetypesByID[a.id] = a
	w.archetypesByHash[h] = append(w.archetypesByHash[h], a)
	w.rel.addArchetype(a)
	if w.queries != nil {
		w.queries.onArchetypeCreated(a)
	}
	if Config.events.OnArchetypeNew != nil {
		Config.events.OnArchetypeNew(a)
	}
	return a
}

// right follows (or lazily materializes) the add-X edge from a.
func (w *World) right(a *Archetype, id Entity) *Archetype {
	if dstID, ok := a.right[id]; ok {
		return w.archetypesByID[dstID]
	}
	ids := append(append([]Entity{}, a.ids...), id)
	dst := w.findOrCreateArchetype(ids)
	w.buildGraphEdges(a, dst, id)
	return dst
}

// left follows (or lazily materializes) the remove-X edge from a.
func (w *World) left(a *Archetype, id Entity) *Archetype {
	if dstID, ok := a.left[id]; ok {
		return w.archetypesByID[dstID]
	}
	ids := make([]Entity, 0, len(a.ids))
	for _, x := range a.ids {
		if x != id {
			ids = append(ids, x)
		}
	}
	dst := w.findOrCreateArchetype(ids)
	w.buildGraphEdges(dst, a, id)
	return dst
}

// buildGraphEdges wires the bidirectional add/remove edge on id
// between the smaller (src) and larger (dst = src U {id}) archetypes.
func (w *World) buildGraphEdges(src, dst *Archetype, id Entity) {
	src.right[id] = dst.id
	dst.left[id] = src.id
}

// delGraphEdges tears down the edge pair on id between src and dst.
func (w *World) delGraphEdges(src, dst *Archetype, id Entity) {
	delete(src.right, id)
	delete(dst.left, id)
}
