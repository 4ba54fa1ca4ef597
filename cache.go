package ecs

import "fmt"

// maxNameCapacity bounds the symbolic name table, mirroring the
// teacher's fixed-capacity SimpleCache registries.
const maxNameCapacity = 1 << 20

// SimpleCache is a string-keyed, append-only registry with an index
// back-reference, the same shape as the teacher's component/prefab
// caches. Reused here for the entity name table.
type SimpleCache[T any] struct {
	items       []T
	itemIndices map[string]int
	maxCapacity int
}

// NewSimpleCache creates an empty cache bounded at maxCapacity entries.
func NewSimpleCache[T any](maxCapacity int) *SimpleCache[T] {
	return &SimpleCache[T]{
		itemIndices: make(map[string]int),
		maxCapacity: maxCapacity,
	}
}

// GetIndex returns the slot index registered under key.
func (c *SimpleCache[T]) GetIndex(key string) (int, bool) {
	index, ok := c.itemIndices[key]
	return index, ok
}

// GetItem returns a pointer to the item at index.
func (c *SimpleCache[T]) GetItem(index int) *T {
	return &c.items[index]
}

// Register appends item under key, failing once maxCapacity is reached.
func (c *SimpleCache[T]) Register(key string, item T) (int, error) {
	if len(c.itemIndices) >= c.maxCapacity {
		return -1, fmt.Errorf("cache at maximum capacity (%d)", c.maxCapacity)
	}
	idx := len(c.items)
	c.itemIndices[key] = idx
	c.items = append(c.items, item)
	return idx, nil
}

// Clear empties the cache back to zero entries.
func (c *SimpleCache[T]) Clear() {
	c.items = c.items[:0]
	c.itemIndices = make(map[string]int)
}

// nameTable is the bidirectional name<->Entity registry backing
// World.Name/GetName/GetByName (spec's supplemented "named entities"
// feature, SPEC_FULL.md §5), built on SimpleCache the way the teacher
// layers prefab lookup over its own cache.
type nameTable struct {
	byName   *SimpleCache[Entity]
	byEntity map[Entity]string
}

func newNameTable() *nameTable {
	return &nameTable{
		byName:   NewSimpleCache[Entity](maxNameCapacity),
		byEntity: make(map[Entity]string),
	}
}

// set assigns name to e, overwriting any prior name e held and
// reclaiming any prior owner of name.
func (t *nameTable) set(name string, e Entity) {
	if old, ok := t.byEntity[e]; ok && old != name {
		if idx, ok := t.byName.GetIndex(old); ok {
			*t.byName.GetItem(idx) = EntityBad
		}
	}
	if idx, ok := t.byName.GetIndex(name); ok {
		if prev := *t.byName.GetItem(idx); prev != e {
			delete(t.byEntity, prev)
		}
		*t.byName.GetItem(idx) = e
	} else {
		t.byName.Register(name, e)
	}
	t.byEntity[e] = name
}

func (t *nameTable) nameOf(e Entity) string { return t.byEntity[e] }

func (t *nameTable) entityOf(name string) (Entity, bool) {
	idx, ok := t.byName.GetIndex(name)
	if !ok {
		return EntityBad, false
	}
	e := *t.byName.GetItem(idx)
	return e, e != EntityBad
}
