package ecs

// queryCache is the hash-keyed store of compiled queries, refcounted,
// invalidated by `Is` edits (spec §4.5/§4.6).
type queryCache struct {
	w       *World
	byKey   map[string]*CompiledQuery
	all     []*CompiledQuery
}

func newQueryCache(w *World) *queryCache {
	return &queryCache{w: w, byKey: make(map[string]*CompiledQuery)}
}

// acquire returns the cached compiled query for spec, compiling and
// refcounting a fresh one on first use.
func (qc *queryCache) acquire(spec *QuerySpec) *CompiledQuery {
	nt := normalizeTerms(spec)
	if cq, ok := qc.byKey[nt.contentKey]; ok {
		cq.refcount++
		return cq
	}
	cq := compile(qc.w, spec)
	cq.refcount = 1
	qc.byKey[nt.contentKey] = cq
	qc.all = append(qc.all, cq)
	return cq
}

// release decrements the refcount; queries are kept around at zero
// (cheap to keep, expensive to recompile) until the world is dropped.
func (qc *queryCache) release(cq *CompiledQuery) {
	if cq.refcount > 0 {
		cq.refcount--
	}
}

// onArchetypeCreated lets existing compiled queries pick the new
// archetype up incrementally the next time match() runs; nothing to do
// here beyond leaving lastArchetypeID where it is.
func (qc *queryCache) onArchetypeCreated(a *Archetype) {}

// onArchetypeDestroyed purges a from every compiled query's cache.
func (qc *queryCache) onArchetypeDestroyed(a *Archetype) {
	for _, cq := range qc.all {
		cq.removeArchetype(a)
	}
}

// invalidateIs resets every query referencing (Is, _) transitively,
// forcing a full re-match on next use.
func (qc *queryCache) invalidateIs() {
	for _, cq := range qc.all {
		if cq.referencesIs() {
			cq.reset()
		}
	}
}
