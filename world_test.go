package ecs

import "testing"

type vec2 struct {
	X, Y float32
}

type velocity struct {
	X, Y float32
}

type tag struct{}

type tagB struct{}

func TestCreateAndValid(t *testing.T) {
	w := NewWorld()
	e := w.Create()
	if !w.Valid(e) {
		t.Fatalf("Valid(e) = false right after Create")
	}
	w.Destroy(e)
	w.Tick()
	if w.Valid(e) {
		t.Errorf("Valid(e) = true after Destroy+Tick, want false")
	}
}

func TestAddTransitionsArchetype(t *testing.T) {
	w := NewWorld()
	Position := NewComponentType[vec2]()

	e := w.Create()
	before, _ := w.entities.lookup(e)
	if err := AddValue(w, e, Position, vec2{X: 1, Y: 2}); err != nil {
		t.Fatalf("AddValue: %v", err)
	}
	after, _ := w.entities.lookup(e)
	if before.archetype == after.archetype {
		t.Errorf("archetype unchanged after Add; want a transition to a new archetype")
	}
	if !after.archetype.Has(Position.ID()) {
		t.Errorf("destination archetype does not carry Position")
	}
	got := Position.GetFromEntity(w, e)
	if got.X != 1 || got.Y != 2 {
		t.Errorf("GetFromEntity = %+v, want {1 2}", *got)
	}
}

func TestRemoveEntityPreservesSwappedRowData(t *testing.T) {
	w := NewWorld()
	Position := NewComponentType[vec2]()

	e1 := w.Create()
	e2 := w.Create()
	e3 := w.Create()
	AddValue(w, e1, Position, vec2{X: 1})
	AddValue(w, e2, Position, vec2{X: 2})
	AddValue(w, e3, Position, vec2{X: 3})

	w.Destroy(e1) // removes row 0, swapping e3 (the last row) into its place

	got := Position.GetFromEntity(w, e2)
	if got.X != 2 {
		t.Errorf("e2.Position.X = %v, want 2 (row data corrupted by the swap)", got.X)
	}
	got3 := Position.GetFromEntity(w, e3)
	if got3.X != 3 {
		t.Errorf("e3.Position.X = %v, want 3 after being swapped into e1's vacated row", got3.X)
	}
}

func TestWildcardRelationQuery(t *testing.T) {
	w := NewWorld()
	likes := w.Create()
	apples := w.Create()
	pears := w.Create()

	e1 := w.Create()
	w.Add(e1, NewPair(likes, apples).Entity())
	e2 := w.Create()
	w.Add(e2, NewPair(likes, pears).Entity())
	e3 := w.Create()
	_ = e3

	q := w.Compile(NewQuery().All(NewPair(likes, Wildcard).Entity()))
	defer q.Close()

	var seen []Entity
	q.Each(EnabledOnly, func(c *Cursor) {
		seen = append(seen, c.Entity())
	})
	if len(seen) != 2 {
		t.Fatalf("wildcard query matched %d entities, want 2", len(seen))
	}
}

func TestIsInheritanceQuery(t *testing.T) {
	w := NewWorld()
	unit := w.Create()
	soldier := w.Create()
	w.As(soldier, unit)

	e := w.Create()
	w.As(e, soldier)

	if !w.Is(e, unit) {
		t.Errorf("Is(e, unit) = false, want true (transitive through soldier)")
	}

	q := w.Compile(NewQuery().All(NewPair(relIs, unit).Entity()))
	defer q.Close()

	// soldier (Is unit directly) and e (Is soldier, transitively Is unit)
	// both match; unit itself carries no components.
	var count int
	q.Each(EnabledOnly, func(c *Cursor) { count++ })
	if count != 2 {
		t.Errorf("Is-inheritance query matched %d entities, want 2 (soldier + e)", count)
	}
}

func TestChangedFilter(t *testing.T) {
	w := NewWorld()
	Position := NewComponentType[vec2]()

	e := w.Create()
	AddValue(w, e, Position, vec2{X: 1})

	q := w.Compile(NewQuery().All(Position.ID()).Changed(Position.ID()))
	defer q.Close()

	var firstRun int
	q.Each(EnabledOnly, func(c *Cursor) { firstRun++ })
	if firstRun != 1 {
		t.Fatalf("first run matched %d, want 1 (queryVer==0 always matches)", firstRun)
	}

	var secondRun int
	q.Each(EnabledOnly, func(c *Cursor) { secondRun++ })
	if secondRun != 0 {
		t.Errorf("second run (no mutation) matched %d, want 0", secondRun)
	}

	if err := Set(w, e, Position, vec2{X: 2}); err != nil {
		t.Fatalf("Set: %v", err)
	}

	var thirdRun int
	q.Each(EnabledOnly, func(c *Cursor) { thirdRun++ })
	if thirdRun != 1 {
		t.Errorf("third run (after mutation) matched %d, want 1", thirdRun)
	}
}

func TestGroupByRestrictsIteration(t *testing.T) {
	w := NewWorld()
	teamA := w.Create()
	teamB := w.Create()
	Position := NewComponentType[vec2]()

	e1 := w.Create()
	AddValue(w, e1, Position, vec2{})
	w.As(e1, teamA)

	e2 := w.Create()
	AddValue(w, e2, Position, vec2{})
	w.As(e2, teamB)

	spec := NewQuery().All(Position.ID()).GroupBy(func(a *Archetype) (Entity, bool) {
		if a.Has(NewPair(relIs, teamA).Entity()) {
			return teamA, true
		}
		if a.Has(NewPair(relIs, teamB).Entity()) {
			return teamB, true
		}
		return EntityBad, false
	}).GroupID(teamA)
	q := w.Compile(spec)
	defer q.Close()

	var seen []Entity
	q.Each(EnabledOnly, func(c *Cursor) { seen = append(seen, c.Entity()) })
	if len(seen) != 1 || seen[0] != e1 {
		t.Errorf("GroupID(teamA) matched %v, want [e1]", seen)
	}
}

func TestRequiresAutoAdd(t *testing.T) {
	w := NewWorld()
	Velocity := NewComponentType[velocity]()
	Position := NewComponentType[vec2]()
	w.MarkRequires(Velocity.ID(), Position.ID())

	e := w.Create()
	if err := w.Add(e, Velocity.ID()); err != nil {
		t.Fatalf("Add(Velocity): %v", err)
	}
	rec, _ := w.entities.lookup(e)
	if !rec.archetype.Has(Position.ID()) {
		t.Errorf("Requires(Velocity, Position) did not auto-add Position")
	}
}

func TestDelBlockedByRequires(t *testing.T) {
	w := NewWorld()
	x := NewComponentType[tag]()
	y := NewComponentType[tagB]()
	w.MarkRequires(x.ID(), y.ID())

	e := w.Create()
	w.Add(e, x.ID())

	if err := w.Del(e, y.ID()); err == nil {
		t.Errorf("Del(y) succeeded despite Requires(x, y) with x still present")
	}
	rec, _ := w.entities.lookup(e)
	if !rec.archetype.Has(y.ID()) {
		t.Errorf("y was removed despite the Requires guard")
	}
}

func TestNameLookup(t *testing.T) {
	w := NewWorld()
	e := w.Create()
	w.Name(e, "player")

	got, ok := w.GetByName("player")
	if !ok || got != e {
		t.Errorf("GetByName(player) = (%v, %v), want (%v, true)", got, ok, e)
	}
	if w.GetName(e) != "player" {
		t.Errorf("GetName(e) = %q, want %q", w.GetName(e), "player")
	}
}
