package ecs

import "fmt"

// Kind distinguishes generic components (one value per entity-in-chunk)
// from unique components (one value per chunk regardless of row count).
type Kind uint8

const (
	// KindGen is the default: one component value per entity.
	KindGen Kind = iota
	// KindUni: one component value shared by every entity in a chunk.
	KindUni
)

// Entity is a 64-bit packed identifier: {index:32, generation:28,
// isEntity:1, isPair:1, kind:1, reserved:1}. Two Entities can be packed
// into a Pair, in which case the low 32 bits hold the first entity's
// index and the next 28 bits hold the second entity's index.
type Entity uint64

const (
	indexBits = 32
	genBits   = 28

	indexMask = (uint64(1) << indexBits) - 1
	genMask   = (uint64(1) << genBits) - 1

	genShift      = indexBits
	isEntityShift = indexBits + genBits     // bit 60
	isPairShift   = indexBits + genBits + 1 // bit 61
	kindShift     = indexBits + genBits + 2 // bit 62
)

// EntityBad is the all-ones sentinel used as "no entity" / wildcard source.
const EntityBad Entity = ^Entity(0)

// newEntity packs an index/generation pair into an Entity with the
// entity bit set.
func newEntity(index uint32, gen uint32, kind Kind) Entity {
	var e uint64
	e |= uint64(index) & indexMask
	e |= (uint64(gen) & genMask) << genShift
	e |= uint64(1) << isEntityShift
	if kind == KindUni {
		e |= uint64(1) << kindShift
	}
	return Entity(e)
}

// Index returns the 32-bit index component of the identifier. For a
// Pair this is the first entity's index.
func (e Entity) Index() uint32 {
	return uint32(uint64(e) & indexMask)
}

// Generation returns the 28-bit generation component. For a Pair this
// is the second entity's index (see Pair docs).
func (e Entity) Generation() uint32 {
	return uint32((uint64(e) >> genShift) & genMask)
}

// IsEntity reports whether this identifier represents a concrete entity.
func (e Entity) IsEntity() bool {
	return e != EntityBad && (uint64(e)>>isEntityShift)&1 == 1
}

// IsPair reports whether this identifier is a packed relationship pair.
func (e Entity) IsPair() bool {
	return (uint64(e)>>isPairShift)&1 == 1
}

// Kind returns whether the identifier names a generic or unique component.
func (e Entity) Kind() Kind {
	if (uint64(e)>>kindShift)&1 == 1 {
		return KindUni
	}
	return KindGen
}

// IsWildcard reports whether e is the `All`/`*` wildcard sentinel used
// only for matching, never stored on an entity.
func (e Entity) IsWildcard() bool {
	return e == Wildcard
}

func (e Entity) String() string {
	if e == EntityBad {
		return "Entity(bad)"
	}
	if e.IsPair() {
		p := Pair(e)
		return fmt.Sprintf("Pair(%s, %s)", p.Relation(), p.Target())
	}
	return fmt.Sprintf("Entity(%d:%d)", e.Index(), e.Generation())
}

// Pair is an ordered pair of entities acting as a compound identifier,
// typically a relationship (relation, target). It shares the Entity
// representation so it can be stored in the same id lists/archetypes.
type Pair Entity

// NewPair packs relation and target into a Pair identifier. Wildcards
// (Wildcard) are accepted for either side and are never stored on an
// entity -- only used for matching.
func NewPair(relation, target Entity) Pair {
	var e uint64
	e |= uint64(relation.Index()) & indexMask
	e |= (uint64(target.Index()) & genMask) << genShift
	e |= uint64(1) << isPairShift
	return Pair(e)
}

// Relation returns the relation side of the pair (e.g. Likes in (Likes, Apples)).
func (p Pair) Relation() Entity {
	return newEntity(Entity(p).Index(), 0, KindGen)
}

// Target returns the target side of the pair.
func (p Pair) Target() Entity {
	return newEntity(Entity(p).Generation(), 0, KindGen)
}

// Entity reinterprets the Pair as its raw Entity bit pattern, for
// storage in id lists alongside plain component/entity ids.
func (p Pair) Entity() Entity {
	return Entity(p)
}

// Wildcard is the `All` sentinel: used in queries/pair lookups to mean
// "any". Encoded as the maximum 32-bit index value with no entity/pair
// bits set so it never collides with a real entity.
const Wildcard Entity = Entity(indexMask)

// IsRelationWildcard reports whether p is (*, Y) for some Y -- matches
// any archetype id whose relation equals Wildcard.
func (p Pair) IsRelationWildcard() bool {
	return Entity(p).Index() == uint32(Wildcard)
}

// IsTargetWildcard reports whether p is (X, *).
func (p Pair) IsTargetWildcard() bool {
	return Entity(p).Generation() == uint32(Wildcard)&uint32(genMask)
}

// IsFullWildcard reports whether p is (*, *).
func (p Pair) IsFullWildcard() bool {
	return p.IsRelationWildcard() && p.IsTargetWildcard()
}
