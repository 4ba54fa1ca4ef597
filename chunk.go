package ecs

import (
	"unsafe"

	"github.com/TheBitDrifter/bark"

	"github.com/gaia-ecs/core/internal/chunkpool"
)

const (
	chunkpoolSizeSmall = chunkpool.SizeSmall
	chunkpoolSizeLarge = chunkpool.SizeLarge

	// entityRowBytes is the per-row cost of the entity-id column.
	entityRowBytes = 8

	// maxChunkLock is the largest value the structural-change lock
	// counter may reach (spec §5, "max 7").
	maxChunkLock = 7
)

// Chunk is a fixed-capacity container storing one archetype's entities
// contiguously, with per-component arrays (AoS or SoA), per-component
// versions, the enabled/disabled partition, and a lifetime countdown.
type Chunk struct {
	archetype *Archetype
	block     *chunkpool.Block
	data      []byte

	entities []Entity // row -> entity

	count           int
	countEnabled    int
	rowFirstEnabled int

	versions map[Entity]uint32
	worldVer *uint32

	locked int

	dying     bool
	countdown int
}

func newChunk(a *Archetype) *Chunk {
	block := a.world.pool.Alloc(a.chunkBytes)
	versions := make(map[Entity]uint32, len(a.ids))
	for _, id := range a.ids {
		versions[id] = 0
	}
	ch := &Chunk{
		archetype: a,
		block:     block,
		data:      block.Bytes(),
		entities:  make([]Entity, 0, a.capacity),
		versions:  versions,
		worldVer:  &a.world.version,
	}
	ch.callUniCtors()
	return ch
}

// callUniCtors default-constructs the single shared row-0 slot of every
// unique component, trivial ones included. Needed because a reclaimed
// pool block may carry stale bytes from a previous tenant archetype.
func (c *Chunk) callUniCtors() {
	for _, id := range c.archetype.ids {
		item := c.archetype.items[id]
		if item == nil || item.kind != KindUni || item.ctor == nil {
			continue
		}
		item.ctor(unsafe.Pointer(c.rowPtr(id, 0)))
	}
}

// Count returns the number of occupied rows.
func (c *Chunk) Count() int { return c.count }

// Capacity returns the fixed row capacity of the chunk.
func (c *Chunk) Capacity() int { return c.archetype.capacity }

// Full reports whether the chunk has no spare rows.
func (c *Chunk) Full() bool { return c.count >= c.archetype.capacity }

func (c *Chunk) assertUnlocked() {
	if c.locked > 0 {
		panic(bark.AddTrace(componentErr("structural change on locked chunk")))
	}
}

// lock increments the structural-change lock counter on iteration entry.
func (c *Chunk) lock() {
	if c.locked >= maxChunkLock {
		panic(bark.AddTrace(componentErr("chunk lock counter overflow")))
	}
	c.locked++
}

// unlock decrements the lock counter on iteration exit.
func (c *Chunk) unlock() {
	if c.locked > 0 {
		c.locked--
	}
}

// addEntity appends e to the entity row, bumping count/version, and
// default-constructs the new row of every non-trivial generic component.
// Returns the inserted row.
func (c *Chunk) addEntity(e Entity) int {
	c.assertUnlocked()
	if c.Full() {
		panic(bark.AddTrace(componentErr("add_entity on full chunk")))
	}
	row := c.count
	c.entities = append(c.entities, e)
	c.count++
	c.countEnabled++
	c.bumpAllVersions()
	c.callGenCtors(row, 1)
	c.dying = false
	if Config.events.OnEntityAdded != nil {
		Config.events.OnEntityAdded(e, c.archetype)
	}
	return row
}

func (c *Chunk) bumpAllVersions() {
	*c.worldVer++
	for id := range c.versions {
		c.versions[id] = *c.worldVer
	}
}

func (c *Chunk) bumpVersion(id Entity) {
	*c.worldVer++
	c.versions[id] = *c.worldVer
}

// Version returns the current version counter for component id.
func (c *Chunk) Version(id Entity) uint32 { return c.versions[id] }

// changed reports whether compVer has advanced past queryVer, honoring
// wrap-around (sign-extended subtraction) semantics, or whether
// queryVer==0 (never run before).
func changed(queryVer, compVer uint32) bool {
	if queryVer == 0 {
		return true
	}
	return int32(compVer-queryVer) > 0
}

// callGenCtors default-constructs n rows starting at row for every
// non-trivial generic component.
func (c *Chunk) callGenCtors(row, n int) {
	for _, id := range c.archetype.ids {
		item := c.archetype.items[id]
		if item == nil || item.kind != KindGen || item.trivial || item.ctor == nil {
			continue
		}
		base := c.rowPtr(id, row)
		sz := uintptr(item.size)
		for i := 0; i < n; i++ {
			item.ctor(unsafe.Pointer(base + uintptr(i)*sz))
		}
	}
}

// callAllDtors destroys every non-trivial component's value at row.
func (c *Chunk) callAllDtors(row int) {
	for _, id := range c.archetype.ids {
		item := c.archetype.items[id]
		if item == nil || item.trivial || item.dtor == nil {
			continue
		}
		if item.kind == KindUni && row != 0 {
			continue
		}
		item.dtor(unsafe.Pointer(c.rowPtr(id, row)))
	}
}

// rowPtr returns the base address of component id's value at row.
func (c *Chunk) rowPtr(id Entity, row int) uintptr {
	off := c.archetype.offsets[id]
	item := c.archetype.items[id]
	r := row
	if item != nil && item.kind == KindUni {
		r = 0
	}
	sz := uintptr(0)
	if item != nil {
		sz = uintptr(item.size)
	}
	return uintptr(unsafe.Pointer(&c.data[0])) + off + uintptr(r)*sz
}

// removeEntity removes row, swap-moving the trailing row into its
// place (or destroying in place if row is already last). Patches the
// moved entity's container record via entities table.
func (c *Chunk) removeEntity(row int, store *entityStore) {
	c.assertUnlocked()
	last := c.count - 1
	if row < 0 || row > last {
		panic(bark.AddTrace(componentErr("remove_entity: row out of range")))
	}
	removed := c.entities[row]
	if row < last {
		movedEntity := c.entities[last]
		c.callAllDtors(row)
		c.copyRow(last, row)
		c.entities[row] = movedEntity
		if rec, ok := store.lookup(movedEntity); ok {
			rec.row = row
			store.set(movedEntity, rec)
		}
	} else {
		c.callAllDtors(row)
	}
	c.entities = c.entities[:last]
	c.count--
	c.archetype.firstFreeIdx = 0
	if c.rowFirstEnabled > c.count {
		c.rowFirstEnabled = c.count
	}
	if row >= c.rowFirstEnabled {
		c.countEnabled--
	}
	c.bumpAllVersions()
	if c.count == 0 {
		c.archetype.noteEmpty()
	}
	if Config.events.OnEntityRemoved != nil {
		Config.events.OnEntityRemoved(removed, c.archetype)
	}
}

// copyRow moves every generic component's value from src row to dst row.
func (c *Chunk) copyRow(src, dst int) {
	for _, id := range c.archetype.ids {
		item := c.archetype.items[id]
		if item == nil || item.kind != KindGen {
			continue
		}
		s := c.rowPtr(id, src)
		d := c.rowPtr(id, dst)
		if item.moveFn != nil {
			item.moveFn(unsafe.Pointer(d), unsafe.Pointer(s))
		}
	}
}

// enableEntity toggles the enabled/disabled state of row, swapping it
// with the boundary row to maintain the partition invariant.
func (c *Chunk) enableEntity(row int, enable bool, store *entityStore) {
	c.assertUnlocked()
	currentlyDisabled := row < c.rowFirstEnabled
	if currentlyDisabled == !enable {
		return
	}
	var boundary int
	if enable {
		boundary = c.rowFirstEnabled - 1
		c.rowFirstEnabled--
		c.countEnabled++
	} else {
		boundary = c.rowFirstEnabled
		c.rowFirstEnabled++
		c.countEnabled--
	}
	if boundary != row {
		c.swapRows(row, boundary, store)
	}
}

func (c *Chunk) swapRows(a, b int, store *entityStore) {
	ea, eb := c.entities[a], c.entities[b]
	for _, id := range c.archetype.ids {
		item := c.archetype.items[id]
		if item == nil || item.kind != KindGen || item.swapFn == nil {
			continue
		}
		pa := c.rowPtr(id, a)
		pb := c.rowPtr(id, b)
		item.swapFn(unsafe.Pointer(pa), unsafe.Pointer(pb))
	}
	c.entities[a], c.entities[b] = eb, ea
	if rec, ok := store.lookup(ea); ok {
		rec.row = b
		store.set(ea, rec)
	}
	if rec, ok := store.lookup(eb); ok {
		rec.row = a
		store.set(eb, rec)
	}
}

// copyForeignEntityData copies every component present in both src's
// and dst's archetypes from srcRow to dstRow; destination-only
// components are default-constructed.
func copyForeignEntityData(src *Chunk, srcRow int, dst *Chunk, dstRow int) {
	for _, id := range dst.archetype.ids {
		item := dst.archetype.items[id]
		if item == nil || item.kind != KindGen {
			continue
		}
		d := dst.rowPtr(id, dstRow)
		if src.archetype.Has(id) {
			s := src.rowPtr(id, srcRow)
			if item.copyFn != nil {
				item.copyFn(unsafe.Pointer(d), unsafe.Pointer(s))
			}
		} else if item.ctor != nil {
			item.ctor(unsafe.Pointer(d))
		}
	}
}

// moveForeignEntityData is copyForeignEntityData with move semantics:
// each component present in both archetypes is moved out of the source
// row (which resets it to T's zero value). Source-only components are
// left untouched.
func moveForeignEntityData(src *Chunk, srcRow int, dst *Chunk, dstRow int) {
	for _, id := range dst.archetype.ids {
		item := dst.archetype.items[id]
		if item == nil || item.kind != KindGen {
			continue
		}
		d := dst.rowPtr(id, dstRow)
		if src.archetype.Has(id) {
			s := src.rowPtr(id, srcRow)
			if item.moveFn != nil {
				item.moveFn(unsafe.Pointer(d), unsafe.Pointer(s))
			} else if item.copyFn != nil {
				item.copyFn(unsafe.Pointer(d), unsafe.Pointer(s))
			}
		} else if item.ctor != nil {
			item.ctor(unsafe.Pointer(d))
		}
	}
}
