/*
Package ecs provides an archetype-based Entity-Component-System core.

Entities are packed 64-bit identifiers; components are Go types
registered once and stored column-major in fixed-capacity chunks that
belong to an archetype (the set of component/relation ids an entity
carries). Moving an entity between archetypes -- adding or removing a
component -- follows a lazily materialized transition graph so repeated
Add/Del calls on the same id reuse the same edge instead of re-hashing
the destination id set every time.

Core Concepts:

  - Entity: a packed {index, generation, kind} identifier.
  - Component: a registered Go type, generic (per-entity) or unique
    (per-chunk, shared).
  - Pair: a packed (relation, target) identifier sharing the Entity
    representation, used for relationships such as ChildOf or a
    user-defined Likes.
  - Archetype: the immutable id set backing one chunk shape.
  - Query: a compiled, cached program of All/Any/Not terms executed
    over a world's archetypes.

Basic Usage:

	type Pos struct{ X, Y float32 }
	type Vel struct{ X, Y float32 }

	w := ecs.NewWorld()

	// Each distinct Go type is its own component; registering the same
	// type twice returns the same component.
	Position := ecs.NewComponentType[Pos]()
	Velocity := ecs.NewComponentType[Vel]()

	e := w.Create()
	ecs.AddValue(w, e, Position, Pos{})
	ecs.AddValue(w, e, Velocity, Vel{X: 1})

	q := w.Compile(ecs.NewQuery().All(Position.ID(), Velocity.ID()))
	defer q.Close()

	q.Each(ecs.EnabledOnly, func(c *ecs.Cursor) {
		pos := Position.GetFromCursor(c)
		vel := Velocity.GetFromCursor(c)
		pos.X += vel.X
		pos.Y += vel.Y
	})

	w.Tick() // advance the GC/defrag protocol

Relationships layer (Is)/ChildOf and wildcard queries ((rel, *), (*,
tgt), (*, *)) over the same archetype/query machinery; see
World.As, World.Child, and QuerySpec.All/Any/No for pair terms.
*/
package ecs
