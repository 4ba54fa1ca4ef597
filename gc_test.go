package ecs

import "testing"

func TestOnDeletePolicyDeleteCascades(t *testing.T) {
	w := NewWorld()
	likes := w.Create()
	w.MarkOnDelete(likes, PolicyDelete)

	apples := w.Create()
	e := w.Create()
	if err := w.Add(e, NewPair(likes, apples).Entity()); err != nil {
		t.Fatalf("Add: %v", err)
	}

	if err := w.Destroy(likes); err != nil {
		t.Fatalf("Destroy(likes): %v", err)
	}
	w.Tick()
	w.Tick()

	if w.Valid(e) {
		t.Errorf("e should have been cascade-deleted when relation %v was destroyed under PolicyDelete", likes)
	}
}

func TestOnDeletePolicyErrorBlocksDelete(t *testing.T) {
	w := NewWorld()
	likes := w.Create()
	w.MarkOnDelete(likes, PolicyError)

	apples := w.Create()
	e := w.Create()
	if err := w.Add(e, NewPair(likes, apples).Entity()); err != nil {
		t.Fatalf("Add: %v", err)
	}

	defer func() {
		if r := recover(); r == nil {
			t.Errorf("Destroy(likes) did not panic despite (OnDelete, Error) with e still carrying the pair")
		}
	}()
	w.Destroy(likes)
}

func TestOnDeleteTargetPolicyDeleteCascades(t *testing.T) {
	w := NewWorld()
	likes := w.Create()
	w.MarkOnDeleteTarget(likes, PolicyDelete)

	apples := w.Create()
	e := w.Create()
	if err := w.Add(e, NewPair(likes, apples).Entity()); err != nil {
		t.Fatalf("Add: %v", err)
	}

	if err := w.Destroy(apples); err != nil {
		t.Fatalf("Destroy(apples): %v", err)
	}
	w.Tick()
	w.Tick()

	if w.Valid(e) {
		t.Errorf("e should have been cascade-deleted when target %v was destroyed under (OnDeleteTarget, Delete)", apples)
	}
}

func TestOnDeleteTargetPolicyErrorBlocksDelete(t *testing.T) {
	w := NewWorld()
	likes := w.Create()
	w.MarkOnDeleteTarget(likes, PolicyError)

	apples := w.Create()
	e := w.Create()
	if err := w.Add(e, NewPair(likes, apples).Entity()); err != nil {
		t.Fatalf("Add: %v", err)
	}

	defer func() {
		if r := recover(); r == nil {
			t.Errorf("Destroy(apples) did not panic despite (OnDeleteTarget, Error) with e still carrying the pair")
		}
	}()
	w.Destroy(apples)
}

func TestOnDeleteTargetDefaultPolicyRemovesPair(t *testing.T) {
	w := NewWorld()
	likes := w.Create()
	apples := w.Create()

	e := w.Create()
	if err := w.Add(e, NewPair(likes, apples).Entity()); err != nil {
		t.Fatalf("Add: %v", err)
	}

	if err := w.Destroy(apples); err != nil {
		t.Fatalf("Destroy(apples): %v", err)
	}

	rec, ok := w.entities.lookup(e)
	if !ok {
		t.Fatalf("e should still be valid under the default (OnDeleteTarget, Remove) policy")
	}
	if rec.archetype.Has(NewPair(likes, apples).Entity()) {
		t.Errorf("(likes, apples) pair should have been removed from e when apples was destroyed under the default policy")
	}
}
