package ecs

import "testing"

func TestNewEntityRoundtrip(t *testing.T) {
	e := newEntity(42, 7, KindGen)
	if e.Index() != 42 {
		t.Errorf("Index() = %d, want 42", e.Index())
	}
	if e.Generation() != 7 {
		t.Errorf("Generation() = %d, want 7", e.Generation())
	}
	if !e.IsEntity() {
		t.Errorf("IsEntity() = false, want true")
	}
	if e.IsPair() {
		t.Errorf("IsPair() = true, want false")
	}
	if e.Kind() != KindGen {
		t.Errorf("Kind() = %v, want KindGen", e.Kind())
	}
}

func TestNewEntityUniKind(t *testing.T) {
	e := newEntity(1, 0, KindUni)
	if e.Kind() != KindUni {
		t.Errorf("Kind() = %v, want KindUni", e.Kind())
	}
}

func TestPairRoundtrip(t *testing.T) {
	rel := newEntity(3, 0, KindGen)
	tgt := newEntity(9, 0, KindGen)
	p := NewPair(rel, tgt)

	if !Entity(p).IsPair() {
		t.Fatalf("Entity(p).IsPair() = false, want true")
	}
	if p.Relation().Index() != rel.Index() {
		t.Errorf("Relation().Index() = %d, want %d", p.Relation().Index(), rel.Index())
	}
	if p.Target().Index() != tgt.Index() {
		t.Errorf("Target().Index() = %d, want %d", p.Target().Index(), tgt.Index())
	}
}

func TestPairWildcards(t *testing.T) {
	rel := newEntity(5, 0, KindGen)
	tgt := newEntity(6, 0, KindGen)

	relWild := NewPair(rel, Wildcard)
	if !relWild.IsTargetWildcard() {
		t.Errorf("(rel, *) IsTargetWildcard() = false, want true")
	}
	if relWild.IsRelationWildcard() {
		t.Errorf("(rel, *) IsRelationWildcard() = true, want false")
	}

	tgtWild := NewPair(Wildcard, tgt)
	if !tgtWild.IsRelationWildcard() {
		t.Errorf("(*, tgt) IsRelationWildcard() = false, want true")
	}

	full := NewPair(Wildcard, Wildcard)
	if !full.IsFullWildcard() {
		t.Errorf("(*, *) IsFullWildcard() = false, want true")
	}
}

func TestEntityBadIsSentinel(t *testing.T) {
	if EntityBad.IsEntity() {
		t.Errorf("EntityBad.IsEntity() = true, want false")
	}
	if EntityBad == newEntity(0, 0, KindGen) {
		t.Errorf("EntityBad collides with a valid zero-index entity")
	}
}
