package ecs

// Built-in relation entities, reserved at fixed low indices so every
// World bootstraps them identically (see World.bootstrapBuiltins).
var (
	relIs             = newEntity(1, 0, KindGen)
	relChildOf        = newEntity(2, 0, KindGen)
	relOnDelete       = newEntity(3, 0, KindGen)
	relOnDeleteTarget = newEntity(4, 0, KindGen)
	relExclusive      = newEntity(5, 0, KindGen)
	relCantCombine    = newEntity(6, 0, KindGen)
	relRequires       = newEntity(7, 0, KindGen)
)

// OnDelete policy values, used as the target half of (OnDelete, policy) pairs.
var (
	PolicyRemove = newEntity(8, 0, KindGen)
	PolicyDelete = newEntity(9, 0, KindGen)
	PolicyError  = newEntity(10, 0, KindGen)
)

const numBuiltinEntities = 10

// relationIndex implements the four wildcard/relationship maps of
// spec §3 plus the id->archetypes index used by the query VM's All/Any
// opcodes to walk only archetypes that actually contain a given id.
type relationIndex struct {
	targetToRelations map[Entity]map[Entity]struct{} // target -> set of relations seen pointing at it
	relationToTargets map[Entity]map[Entity]struct{} // relation -> set of targets
	entityToIsTargets map[Entity]map[Entity]struct{} // entity -> bases it `Is`
	entityToIsRelated map[Entity]map[Entity]struct{} // base -> entities that `Is` it (reverse)

	idToArchetypes map[Entity][]*Archetype // id (incl. wildcard synthetic keys) -> archetypes containing it
}

func newRelationIndex() *relationIndex {
	return &relationIndex{
		targetToRelations: make(map[Entity]map[Entity]struct{}),
		relationToTargets: make(map[Entity]map[Entity]struct{}),
		entityToIsTargets: make(map[Entity]map[Entity]struct{}),
		entityToIsRelated: make(map[Entity]map[Entity]struct{}),
		idToArchetypes:    make(map[Entity][]*Archetype),
	}
}

func addToSet(m map[Entity]map[Entity]struct{}, key, val Entity) {
	set, ok := m[key]
	if !ok {
		set = make(map[Entity]struct{})
		m[key] = set
	}
	set[val] = struct{}{}
}

func delFromSet(m map[Entity]map[Entity]struct{}, key, val Entity) {
	if set, ok := m[key]; ok {
		delete(set, val)
		if len(set) == 0 {
			delete(m, key)
		}
	}
}

// registerPair records relation/target bookkeeping. The synthetic
// wildcard keys (X,*), (*,Y), (*,*) are indexed by addArchetype, not here.
func (r *relationIndex) registerPair(p Pair) {
	rel, tgt := p.Relation(), p.Target()
	addToSet(r.targetToRelations, tgt, rel)
	addToSet(r.relationToTargets, rel, tgt)
	// Is pairs additionally populate entityToIsTargets/entityToIsRelated,
	// but that requires the owning entity id, not just the pair -- World.Add
	// calls registerIs separately once it knows which entity carries this pair.
}

// registerIs records that e `Is` base, for transitive traversal and
// query invalidation.
func (r *relationIndex) registerIs(e, base Entity) {
	addToSet(r.entityToIsTargets, e, base)
	addToSet(r.entityToIsRelated, base, e)
}

func (r *relationIndex) unregisterIs(e, base Entity) {
	delFromSet(r.entityToIsTargets, e, base)
	delFromSet(r.entityToIsRelated, base, e)
}

// isA reports whether e transitively `Is` base, via iterative BFS over
// entityToIsTargets with an explicit visited set (bounded depth to
// avoid pathological chains, per design note).
func (r *relationIndex) isA(e, base Entity) bool {
	const maxDepth = 64
	visited := map[Entity]struct{}{e: {}}
	frontier := []Entity{e}
	for depth := 0; depth < maxDepth && len(frontier) > 0; depth++ {
		next := make([]Entity, 0, len(frontier))
		for _, cur := range frontier {
			for target := range r.entityToIsTargets[cur] {
				if target == base {
					return true
				}
				if _, seen := visited[target]; !seen {
					visited[target] = struct{}{}
					next = append(next, target)
				}
			}
		}
		frontier = next
	}
	return false
}

// descendantsOf returns every entity that (transitively) `Is` base,
// including base itself, used to expand (Is, X) query terms.
func (r *relationIndex) descendantsOf(base Entity, visit func(Entity)) {
	const maxDepth = 64
	visited := map[Entity]struct{}{base: {}}
	visit(base)
	frontier := []Entity{base}
	for depth := 0; depth < maxDepth && len(frontier) > 0; depth++ {
		next := make([]Entity, 0)
		for _, cur := range frontier {
			for child := range r.entityToIsRelated[cur] {
				if _, seen := visited[child]; !seen {
					visited[child] = struct{}{}
					visit(child)
					next = append(next, child)
				}
			}
		}
		frontier = next
	}
}

// addArchetype indexes a under every id it carries (and the synthetic
// wildcard keys for any pair ids), so All/Any opcodes can iterate only
// the relevant archetypes.
func (r *relationIndex) addArchetype(a *Archetype) {
	for _, id := range a.ids {
		r.idToArchetypes[id] = append(r.idToArchetypes[id], a)
		if id.IsPair() {
			p := Pair(id)
			r.idToArchetypes[NewPair(p.Relation(), Wildcard).Entity()] = append(r.idToArchetypes[NewPair(p.Relation(), Wildcard).Entity()], a)
			r.idToArchetypes[NewPair(Wildcard, p.Target()).Entity()] = append(r.idToArchetypes[NewPair(Wildcard, p.Target()).Entity()], a)
			r.idToArchetypes[NewPair(Wildcard, Wildcard).Entity()] = append(r.idToArchetypes[NewPair(Wildcard, Wildcard).Entity()], a)
		}
	}
}

// candidateKeyFor returns the idToArchetypes bucket key that safely
// over-approximates every archetype an ALL term for id could match:
// literal ids and the synthetic wildcard keys map directly, but an
// (Is, X) term also matches archetypes carrying (Is, Y) for any Y that
// isA X, so it widens to the (Is, *) bucket instead of the literal one.
func candidateKeyFor(id Entity) Entity {
	if !id.IsPair() {
		return id
	}
	p := Pair(id)
	if p.Relation() == relIs && !p.IsRelationWildcard() {
		return NewPair(relIs, Wildcard).Entity()
	}
	return id
}

// removeArchetype drops a from every id bucket it was registered under.
func (r *relationIndex) removeArchetype(a *Archetype) {
	for key, list := range r.idToArchetypes {
		out := list[:0]
		for _, x := range list {
			if x != a {
				out = append(out, x)
			}
		}
		if len(out) == 0 {
			delete(r.idToArchetypes, key)
		} else {
			r.idToArchetypes[key] = out
		}
	}
}
