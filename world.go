package ecs

import (
	"github.com/gaia-ecs/core/internal/chunkpool"
)

// World owns the chunk-allocator pages, archetypes, the entity table,
// and the query cache (spec §3 Lifetimes). The component cache is not
// owned by a World: it is package-global and shared by every World. It
// is single-threaded: see spec §5.
type World struct {
	pool *chunkpool.Pool

	entities *entityStore

	archetypesByID   map[ArchetypeID]*Archetype
	archetypesByHash map[uint64][]*Archetype
	nextArchetypeID  ArchetypeID
	emptyArchetype   *Archetype

	rel     *relationIndex
	queries *queryCache
	names   *nameTable

	requires      map[Entity]Entity        // X -> Y for Requires(X, Y)
	exclusiveRel  map[Entity]bool           // relation marked Exclusive
	cantCombine   map[Entity]map[Entity]bool

	version     uint32
	pendingFree []Entity
}

// NewWorld creates an empty World with its builtin relations bootstrapped.
func NewWorld() *World {
	w := &World{
		pool:             chunkpool.New(),
		entities:         newEntityStore(),
		archetypesByID:   make(map[ArchetypeID]*Archetype),
		archetypesByHash: make(map[uint64][]*Archetype),
		rel:              newRelationIndex(),
		names:            newNameTable(),
		requires:         make(map[Entity]Entity),
		exclusiveRel:     make(map[Entity]bool),
		cantCombine:      make(map[Entity]map[Entity]bool),
	}
	w.queries = newQueryCache(w)
	w.bootstrapBuiltins()
	return w
}

// bootstrapBuiltins reserves the fixed low entity indices used by the
// built-in relations (Is, ChildOf, OnDelete, ...) and gives every world
// the same empty archetype for newly created, bare entities.
func (w *World) bootstrapBuiltins() {
	for i := 0; i < numBuiltinEntities; i++ {
		w.entities.records = append(w.entities.records, entityRecord{alive: true})
	}
	w.emptyArchetype = w.findOrCreateArchetype(nil)
	for i := 1; i <= numBuiltinEntities; i++ {
		idx := uint32(i)
		ch := w.emptyArchetype.focFreeChunk()
		row := ch.addEntity(newEntity(idx, 0, KindGen))
		w.entities.records[idx] = entityRecord{archetype: w.emptyArchetype, chunk: ch, row: row, alive: true}
	}
}

// Create adds a single bare entity (no components) and returns its handle.
func (w *World) Create() Entity {
	e := w.entities.alloc()
	ch := w.emptyArchetype.focFreeChunk()
	row := ch.addEntity(e)
	rec, _ := w.entities.lookup(e)
	rec.archetype = w.emptyArchetype
	rec.chunk = ch
	rec.row = row
	w.entities.set(e, rec)
	return e
}

// CreateN creates count bare entities, calling fn(i, entity) for each.
func (w *World) CreateN(count int, fn func(int, Entity)) []Entity {
	out := make([]Entity, count)
	for i := 0; i < count; i++ {
		out[i] = w.Create()
		if fn != nil {
			fn(i, out[i])
		}
	}
	return out
}

// Copy duplicates e's full component value set into a freshly created
// entity in the same archetype.
func (w *World) Copy(e Entity) Entity {
	rec, ok := w.entities.lookup(e)
	if !ok {
		return EntityBad
	}
	dst := w.Create()
	drec, _ := w.entities.lookup(dst)
	targetChunk := rec.archetype.focFreeChunk()
	if targetChunk != drec.chunk {
		row := targetChunk.addEntity(dst)
		drec.chunk.removeEntity(drec.row, w.entities)
		drec.chunk = targetChunk
		drec.row = row
	}
	drec.archetype = rec.archetype
	copyForeignEntityData(rec.chunk, rec.row, drec.chunk, drec.row)
	w.entities.set(dst, drec)
	return dst
}

// CopyN duplicates e count times, calling fn(i, copy) for each.
func (w *World) CopyN(e Entity, count int, fn func(int, Entity)) []Entity {
	out := make([]Entity, count)
	for i := 0; i < count; i++ {
		out[i] = w.Copy(e)
		if fn != nil {
			fn(i, out[i])
		}
	}
	return out
}

// Destroy runs cleanup rules, detaches e from its chunk, and schedules
// its slot for reuse once GC finalizes the request.
func (w *World) Destroy(e Entity) error {
	rec, ok := w.entities.lookup(e)
	if !ok {
		return InvalidEntityError{e}
	}
	if rec.chunk != nil && rec.chunk.locked > 0 {
		return LockedStorageError{}
	}
	w.requestDelete(e)
	return nil
}

// Valid reports whether e refers to a live entity with a matching generation.
func (w *World) Valid(e Entity) bool { return w.entities.valid(e) }

// Enable toggles e's enabled/disabled partition membership.
func (w *World) Enable(e Entity, enable bool) {
	rec, ok := w.entities.lookup(e)
	if !ok || rec.chunk == nil {
		return
	}
	rec.chunk.enableEntity(rec.row, enable, w.entities)
	rec, _ = w.entities.lookup(e) // enableEntity may have moved e's row
	if enable {
		rec.flags &^= FlagDisabled
	} else {
		rec.flags |= FlagDisabled
	}
	w.entities.set(e, rec)
}

// Enabled reports whether e is currently enabled.
func (w *World) Enabled(e Entity) bool {
	rec, ok := w.entities.lookup(e)
	if !ok {
		return false
	}
	return rec.flags&FlagDisabled == 0
}

// MarkExclusive declares relation rel as Exclusive: an entity may carry
// at most one (rel, _) pair at a time.
func (w *World) MarkExclusive(rel Entity) { w.exclusiveRel[rel] = true }

// MarkCantCombine declares that ids x and y may never coexist on the
// same entity.
func (w *World) MarkCantCombine(x, y Entity) {
	if w.cantCombine[x] == nil {
		w.cantCombine[x] = make(map[Entity]bool)
	}
	if w.cantCombine[y] == nil {
		w.cantCombine[y] = make(map[Entity]bool)
	}
	w.cantCombine[x][y] = true
	w.cantCombine[y][x] = true
}

// MarkRequires declares Requires(x, y): adding x auto-adds y, and
// deleting y while x is present is refused with RequiresUnsatisfiedError.
func (w *World) MarkRequires(x, y Entity) { w.requires[x] = y }

// MarkOnDelete declares rel's own (OnDelete, policy) cleanup rule: when
// rel itself is destroyed, every (rel, target) pair still outstanding is
// resolved per policy (PolicyRemove/PolicyDelete/PolicyError).
func (w *World) MarkOnDelete(rel Entity, policy Entity) {
	rec, ok := w.entities.lookup(rel)
	if !ok {
		return
	}
	rec.flags &^= FlagOnDeleteDelete | FlagOnDeleteError
	switch policy {
	case PolicyDelete:
		rec.flags |= FlagOnDeleteDelete
	case PolicyError:
		rec.flags |= FlagOnDeleteError
	}
	w.entities.set(rel, rec)
}

// MarkOnDeleteTarget declares rel's (OnDeleteTarget, policy) cleanup
// rule: when some target t is destroyed, every (rel, t) pair still
// outstanding is resolved per policy.
func (w *World) MarkOnDeleteTarget(rel Entity, policy Entity) {
	rec, ok := w.entities.lookup(rel)
	if !ok {
		return
	}
	rec.flags &^= FlagOnDeleteTargetDelete | FlagOnDeleteTargetError
	switch policy {
	case PolicyDelete:
		rec.flags |= FlagOnDeleteTargetDelete
	case PolicyError:
		rec.flags |= FlagOnDeleteTargetError
	}
	w.entities.set(rel, rec)
}

func (w *World) checkCantCombine(a *Archetype, id Entity) {
	forbidden, ok := w.cantCombine[id]
	if !ok {
		return
	}
	for _, existing := range a.ids {
		if forbidden[existing] {
			panic(errAssertTrace("CantCombine violation"))
		}
	}
}

func (w *World) checkExclusive(a *Archetype, id Entity) {
	if !id.IsPair() {
		return
	}
	rel := Pair(id).Relation()
	if !w.exclusiveRel[rel] {
		return
	}
	for _, existing := range a.ids {
		if existing.IsPair() && Pair(existing).Relation() == rel && existing != id {
			panic(errAssertTrace("Exclusive violation"))
		}
	}
}

// Add attaches id to e, transitioning it to the archetype A U {id},
// moving its row, and resolving Requires/Exclusive/CantCombine rules.
// A no-op if e already carries id.
func (w *World) Add(e Entity, id Entity) error {
	rec, ok := w.entities.lookup(e)
	if !ok {
		return InvalidEntityError{e}
	}
	if rec.archetype.Has(id) {
		return nil
	}
	if rec.chunk != nil && rec.chunk.locked > 0 {
		return LockedStorageError{}
	}
	w.checkCantCombine(rec.archetype, id)
	w.checkExclusive(rec.archetype, id)

	if req, ok := w.requires[id]; ok && !rec.archetype.Has(req) {
		if err := w.Add(e, req); err != nil {
			return err
		}
		rec, _ = w.entities.lookup(e)
	}

	src := rec.archetype
	dst := w.right(src, id)
	w.moveEntity(e, &rec, src, dst)

	if id.IsPair() {
		p := Pair(id)
		w.rel.registerPair(p)
		if p.Relation() == relIs {
			base := p.Target()
			if !w.Valid(base) {
				panic(errAssertTrace("Is target has no archetype of its own"))
			}
			w.rel.registerIs(e, base)
			w.queries.invalidateIs()
		}
	}
	return nil
}

// AddValue attaches component ct and sets its initial value. Returns
// ComponentExistsError if e already carries ct -- use Set to overwrite
// an existing value instead.
func AddValue[T any](w *World, e Entity, ct ComponentType[T], value T) error {
	rec, ok := w.entities.lookup(e)
	if !ok {
		return InvalidEntityError{e}
	}
	if rec.archetype.Has(ct.ID()) {
		return ComponentExistsError{Component: ct.Component}
	}
	if err := w.Add(e, ct.ID()); err != nil {
		return err
	}
	*ct.GetFromEntity(w, e) = value
	w.bumpVersionFor(e, ct.ID())
	return nil
}

// Set overwrites T's value on e and bumps the chunk's version counter
// for ct, so Changed() filters observe the write (spec §6 set<T>).
func Set[T any](w *World, e Entity, ct ComponentType[T], value T) error {
	rec, ok := w.entities.lookup(e)
	if !ok {
		return InvalidEntityError{e}
	}
	if !rec.archetype.Has(ct.ID()) {
		return ComponentNotFoundError{Component: ct.Component}
	}
	*ct.Get(rec.chunk, rec.row) = value
	rec.chunk.bumpVersion(ct.ID())
	return nil
}

// SSet is Set without the version bump (spec §6 sset<T>): a "silent"
// write that Changed() filters will not observe.
func SSet[T any](w *World, e Entity, ct ComponentType[T], value T) error {
	rec, ok := w.entities.lookup(e)
	if !ok {
		return InvalidEntityError{e}
	}
	if !rec.archetype.Has(ct.ID()) {
		return ComponentNotFoundError{Component: ct.Component}
	}
	*ct.Get(rec.chunk, rec.row) = value
	return nil
}

// Del detaches id from e, subject to the Requires delete-guard.
func (w *World) Del(e Entity, id Entity) error {
	rec, ok := w.entities.lookup(e)
	if !ok {
		return nil
	}
	if rec.chunk != nil && rec.chunk.locked > 0 {
		return LockedStorageError{}
	}
	return w.del(e, id)
}

func (w *World) del(e Entity, id Entity) error {
	rec, ok := w.entities.lookup(e)
	if !ok {
		return nil
	}
	if !rec.archetype.Has(id) {
		return nil
	}
	for x, y := range w.requires {
		if y == id && rec.archetype.Has(x) {
			return RequiresUnsatisfiedError{Required: id}
		}
	}

	src := rec.archetype
	dst := w.left(src, id)
	w.moveEntity(e, &rec, src, dst)

	if id.IsPair() {
		p := Pair(id)
		if p.Relation() == relIs {
			w.rel.unregisterIs(e, p.Target())
			w.queries.invalidateIs()
		}
	}
	return nil
}

// moveEntity transfers e's row from src to dst, copying every
// component both archetypes share, default-constructing dst-only ones,
// and destroying the vacated src row.
func (w *World) moveEntity(e Entity, rec *entityRecord, src, dst *Archetype) {
	srcChunk, srcRow := rec.chunk, rec.row
	dstChunk := dst.focFreeChunk()
	dstRow := dstChunk.addEntity(e)
	if srcChunk != nil {
		copyForeignEntityData(srcChunk, srcRow, dstChunk, dstRow)
		srcChunk.removeEntity(srcRow, w.entities)
	}
	rec.archetype = dst
	rec.chunk = dstChunk
	rec.row = dstRow
	w.entities.set(e, *rec)
	w.version++
}

func (w *World) bumpVersionFor(e Entity, id Entity) {
	rec, ok := w.entities.lookup(e)
	if !ok || rec.chunk == nil {
		return
	}
	rec.chunk.bumpVersion(id)
}

// As is shorthand for Add(e, Pair(Is, base)).
func (w *World) As(e, base Entity) error { return w.Add(e, NewPair(relIs, base).Entity()) }

// Child is shorthand for Add(e, Pair(ChildOf, parent)).
func (w *World) Child(e, parent Entity) error {
	return w.Add(e, NewPair(relChildOf, parent).Entity())
}

// Is reports whether e transitively `Is` base.
func (w *World) Is(e, base Entity) bool { return w.rel.isA(e, base) }

// In reports whether e is a ChildOf base (spec's `in(e, base)`).
func (w *World) In(e, base Entity) bool {
	rec, ok := w.entities.lookup(e)
	if !ok {
		return false
	}
	return rec.archetype.Has(NewPair(relChildOf, base).Entity())
}

// Relation returns the first relation r such that e carries (r, target).
func (w *World) Relation(e, target Entity) Entity {
	rec, ok := w.entities.lookup(e)
	if !ok {
		return EntityBad
	}
	for _, id := range rec.archetype.ids {
		if id.IsPair() && Pair(id).Target() == target {
			return Pair(id).Relation()
		}
	}
	return EntityBad
}

// Relations calls fn for every relation r such that e carries (r, target).
func (w *World) Relations(e, target Entity, fn func(Entity)) {
	rec, ok := w.entities.lookup(e)
	if !ok {
		return
	}
	for _, id := range rec.archetype.ids {
		if id.IsPair() && Pair(id).Target() == target {
			fn(Pair(id).Relation())
		}
	}
}

// Target returns the first target t such that e carries (rel, t).
func (w *World) Target(e, rel Entity) Entity {
	rec, ok := w.entities.lookup(e)
	if !ok {
		return EntityBad
	}
	for _, id := range rec.archetype.ids {
		if id.IsPair() && Pair(id).Relation() == rel {
			return Pair(id).Target()
		}
	}
	return EntityBad
}

// Targets calls fn for every target t such that e carries (rel, t).
func (w *World) Targets(e, rel Entity, fn func(Entity)) {
	rec, ok := w.entities.lookup(e)
	if !ok {
		return
	}
	for _, id := range rec.archetype.ids {
		if id.IsPair() && Pair(id).Relation() == rel {
			fn(Pair(id).Target())
		}
	}
}

// AsRelationsTrav calls fn for every entity that transitively `Is` target.
func (w *World) AsRelationsTrav(target Entity, fn func(Entity)) {
	w.rel.descendantsOf(target, func(e Entity) {
		if e != target {
			fn(e)
		}
	})
}

// AsTargetsTrav calls fn for every distinct target ever seen paired
// with rel, across any entity.
func (w *World) AsTargetsTrav(rel Entity, fn func(Entity)) {
	for target, rels := range w.rel.targetToRelations {
		if _, ok := rels[rel]; ok {
			fn(target)
		}
	}
}

// Name assigns str as e's symbolic name (copying str).
func (w *World) Name(e Entity, str string) { w.names.set(str, e) }

// NameRaw is the non-copying variant; Go strings are immutable so this
// is identical to Name, kept for API parity with spec §6.
func (w *World) NameRaw(e Entity, str string) { w.Name(e, str) }

// GetName returns e's symbolic name, or "" if unnamed.
func (w *World) GetName(e Entity) string { return w.names.nameOf(e) }

// GetByName resolves a symbolic name back to its entity.
func (w *World) GetByName(name string) (Entity, bool) { return w.names.entityOf(name) }

// Tick advances the structural-change/GC protocol by one step: GC pass
// followed by a bounded defragmentation pass.
func (w *World) Tick() {
	w.gcTick()
	w.defragChunks(Config.defragEntitiesPerTick)
}
