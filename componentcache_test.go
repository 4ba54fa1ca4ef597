package ecs

import (
	"reflect"
	"testing"
)

type cacheProbeA struct{ V int }
type cacheProbeB struct{ V int }

func TestRegisterComponentIsIdempotentPerType(t *testing.T) {
	a1 := NewComponentType[cacheProbeA]()
	a2 := NewComponentType[cacheProbeA]()
	if a1.ID() != a2.ID() {
		t.Errorf("re-registering the same Go type produced different ids: %v != %v", a1.ID(), a2.ID())
	}

	b := NewComponentType[cacheProbeB]()
	if b.ID() == a1.ID() {
		t.Errorf("distinct Go types produced the same component id")
	}
}

func TestIsTrivialClassification(t *testing.T) {
	type trivial struct{ X, Y float32 }
	type withSlice struct{ Items []int }

	if !isTrivial(reflect.TypeOf(trivial{})) {
		t.Errorf("isTrivial(trivial) = false, want true")
	}
	if isTrivial(reflect.TypeOf(withSlice{})) {
		t.Errorf("isTrivial(withSlice) = true, want false")
	}
}
