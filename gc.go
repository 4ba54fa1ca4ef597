package ecs

// requestDelete is phase 1 of the two-phase deletion protocol (spec
// §4.7): resolve cleanup rules, mark the entity DeleteRequested, remove
// it from its chunk, and enqueue the chunk for GC if it emptied out.
func (w *World) requestDelete(e Entity) {
	rec, ok := w.entities.lookup(e)
	if !ok {
		return
	}
	w.applyCleanupRules(e)

	rec, ok = w.entities.lookup(e)
	if !ok {
		return
	}
	ch := rec.chunk
	ch.removeEntity(rec.row, w.entities)
	if ch.count == 0 {
		ch.dying = true
		ch.countdown = maxChunkLifespan
	}

	rec.flags |= FlagDeleteRequested
	rec.archetype = nil
	rec.chunk = nil
	w.entities.set(e, rec)
	w.pendingFree = append(w.pendingFree, e)
}

// applyCleanupRules resolves (OnDelete, policy) / (OnDeleteTarget,
// policy) for every pair referencing e, per spec §7. e can appear on
// either side of a pair: as the relation itself ((e, tgt), governed by
// e's own OnDelete policy) or as a target ((rel, e), governed by rel's
// OnDeleteTarget policy). Ordering across cascaded (*, Delete)
// deletions is intentionally unspecified, matching the source's own
// lack of a guarantee (spec §9 Open Questions).
func (w *World) applyCleanupRules(e Entity) {
	if targets, ok := w.rel.relationToTargets[e]; ok {
		policy := w.onDeletePolicy(e)
		for tgt := range targets {
			w.applyPolicyToPair(policy, NewPair(e, tgt).Entity())
		}
	}
	if rels, ok := w.rel.targetToRelations[e]; ok {
		for rel := range rels {
			policy := w.onDeleteTargetPolicy(rel)
			w.applyPolicyToPair(policy, NewPair(rel, e).Entity())
		}
	}
}

// applyPolicyToPair carries out one (OnDelete[Target], policy) rule
// against every archetype currently holding pairID.
func (w *World) applyPolicyToPair(policy Entity, pairID Entity) {
	switch policy {
	case PolicyDelete:
		for _, a := range append([]*Archetype{}, w.rel.idToArchetypes[pairID]...) {
			for _, ch := range append([]*Chunk{}, a.chunks...) {
				for row := ch.count - 1; row >= 0; row-- {
					w.requestDelete(ch.entities[row])
				}
			}
		}
	case PolicyError:
		if len(w.rel.idToArchetypes[pairID]) > 0 {
			panic(errAssertTrace("delete blocked by (OnDelete/OnDeleteTarget, Error)"))
		}
	default:
		w.removeIDFromAllArchetypes(pairID)
	}
}

func (w *World) onDeletePolicy(e Entity) Entity {
	rec, ok := w.entities.lookup(e)
	if !ok {
		return PolicyRemove
	}
	switch {
	case rec.flags&FlagOnDeleteDelete != 0:
		return PolicyDelete
	case rec.flags&FlagOnDeleteError != 0:
		return PolicyError
	default:
		return PolicyRemove
	}
}

func (w *World) onDeleteTargetPolicy(rel Entity) Entity {
	rec, ok := w.entities.lookup(rel)
	if !ok {
		return PolicyRemove
	}
	switch {
	case rec.flags&FlagOnDeleteTargetDelete != 0:
		return PolicyDelete
	case rec.flags&FlagOnDeleteTargetError != 0:
		return PolicyError
	default:
		return PolicyRemove
	}
}

// removeIDFromAllArchetypes transitions every entity currently carrying
// id onto the archetype without it -- the (OnDelete, Remove) default.
func (w *World) removeIDFromAllArchetypes(id Entity) {
	archetypes, ok := w.rel.idToArchetypes[id]
	if !ok {
		return
	}
	for _, a := range append([]*Archetype{}, archetypes...) {
		for _, ch := range append([]*Chunk{}, a.chunks...) {
			for row := ch.count - 1; row >= 0; row-- {
				ent := ch.entities[row]
				w.del(ent, id)
			}
		}
	}
}

// gcTick runs one GC pass (spec §4.7 phase 2): free empty chunks/
// archetypes past their countdown, and finalize DeleteRequested
// entities no longer referenced anywhere.
func (w *World) gcTick() {
	for _, a := range w.archetypesSnapshot() {
		if a.dying && a.gcTick() {
			w.destroyArchetype(a)
			continue
		}
		var freedAny bool
		kept := a.chunks[:0]
		for _, ch := range a.chunks {
			if ch.count != 0 {
				ch.dying = false
				kept = append(kept, ch)
				continue
			}
			if !ch.dying {
				ch.dying = true
				ch.countdown = maxChunkLifespan
				kept = append(kept, ch)
				continue
			}
			ch.countdown--
			if ch.countdown > 0 {
				kept = append(kept, ch)
				continue
			}
			w.pool.Free(ch.block)
			freedAny = true
		}
		a.chunks = kept
		if freedAny {
			a.firstFreeIdx = 0
		}
	}

	remaining := make([]Entity, 0, len(w.pendingFree))
	for _, e := range w.pendingFree {
		rec, ok := w.entities.lookup(e)
		if !ok || rec.flags&FlagDeleteRequested == 0 {
			continue // already finalized in an earlier tick
		}
		if len(w.rel.idToArchetypes[e]) > 0 {
			// still referenced as a component/relation id elsewhere; defer
			remaining = append(remaining, e)
			continue
		}
		w.entities.release(e)
	}
	w.pendingFree = remaining
}

func (w *World) archetypesSnapshot() []*Archetype {
	out := make([]*Archetype, 0, len(w.archetypesByID))
	for _, a := range w.archetypesByID {
		out = append(out, a)
	}
	return out
}

func (w *World) destroyArchetype(a *Archetype) {
	delete(w.archetypesByID, a.id)
	h := bagHash(a.ids)
	if list, ok := w.archetypesByHash[h]; ok {
		out := list[:0]
		for _, x := range list {
			if x != a {
				out = append(out, x)
			}
		}
		if len(out) == 0 {
			delete(w.archetypesByHash, h)
		} else {
			w.archetypesByHash[h] = out
		}
	}
	w.rel.removeArchetype(a)
	w.queries.onArchetypeDestroyed(a)
	for id, dstID := range a.right {
		if dst, ok := w.archetypesByID[dstID]; ok {
			w.delGraphEdges(a, dst, id)
		}
	}
	for id, srcID := range a.left {
		if src, ok := w.archetypesByID[srcID]; ok {
			w.delGraphEdges(src, a, id)
		}
	}
	for _, ch := range a.chunks {
		w.pool.Free(ch.block)
	}
	if Config.events.OnArchetypeGone != nil {
		Config.events.OnArchetypeGone(a)
	}
}

// defragChunks moves up to maxMoves entities from the sparsest
// semi-full chunk of each non-dying archetype into its densest
// semi-full chunk. Pure data movement; no archetypes change, and
// uni-component values must match between the two chunks.
func (w *World) defragChunks(maxMoves int) int {
	moved := 0
	for _, a := range w.archetypesSnapshot() {
		if a.dying || moved >= maxMoves {
			continue
		}
		moved += defragArchetype(w, a, maxMoves-moved)
	}
	return moved
}

func defragArchetype(w *World, a *Archetype, budget int) int {
	if budget <= 0 || len(a.chunks) < 2 {
		return 0
	}
	var sparsest, densest *Chunk
	for _, ch := range a.chunks {
		if ch.count == 0 || ch.Full() {
			continue
		}
		if sparsest == nil || ch.count < sparsest.count {
			sparsest = ch
		}
		if densest == nil || ch.count > densest.count {
			densest = ch
		}
	}
	if sparsest == nil || densest == nil || sparsest == densest {
		return 0
	}
	if !uniValuesMatch(a, sparsest, densest) {
		return 0
	}

	moved := 0
	for moved < budget && sparsest.count > 0 && !densest.Full() {
		srcRow := sparsest.count - 1
		e := sparsest.entities[srcRow]
		dstRow := densest.addEntity(e)
		copyForeignEntityData(sparsest, srcRow, densest, dstRow)
		sparsest.removeEntity(srcRow, w.entities)
		rec, _ := w.entities.lookup(e)
		rec.chunk = densest
		rec.row = dstRow
		w.entities.set(e, rec)
		moved++
	}
	return moved
}

func uniValuesMatch(a *Archetype, x, y *Chunk) bool {
	for _, id := range a.ids {
		item := a.items[id]
		if item == nil || item.kind != KindUni || item.eqFn == nil {
			continue
		}
		px := x.rowPtr(id, 0)
		py := y.rowPtr(id, 0)
		if !item.eqFn(asPtr(px), asPtr(py)) {
			return false
		}
	}
	return true
}
