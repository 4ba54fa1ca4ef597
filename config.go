package ecs

// ChunkEvents are optional structural-change observer hooks, the core's
// equivalent of the teacher's table.TableEvents -- collaborators (the
// command buffer, the scheduler) set these to observe mutation without
// the core depending on a logger itself.
type ChunkEvents struct {
	OnEntityAdded   func(Entity, *Archetype)
	OnEntityRemoved func(Entity, *Archetype)
	OnArchetypeNew  func(*Archetype)
	OnArchetypeGone func(*Archetype)
}

// config holds global, pre-first-use tunables. Mirrors the teacher's
// package-level Config singleton (config.go).
type config struct {
	events ChunkEvents

	maxArchetypeLifespan int
	defragEntitiesPerTick int
	iterBatchSize        int
}

// Config is the package-level configuration singleton.
var Config = config{
	maxArchetypeLifespan:  maxArchetypeLifespan,
	defragEntitiesPerTick: defaultDefragPerTick,
	iterBatchSize:         iterBatchSize,
}

// SetChunkEvents installs the structural-change observer hooks.
func (c *config) SetChunkEvents(ev ChunkEvents) {
	c.events = ev
}

const (
	// maxArchetypeLifespan is the GC grace countdown (ticks) before an
	// empty archetype is destroyed, per spec §4.3/§4.7.
	maxArchetypeLifespan = 60

	// maxChunkLifespan mirrors the same grace period for empty chunks.
	maxChunkLifespan = 60

	// defaultDefragPerTick bounds per-tick defragmentation work.
	defaultDefragPerTick = 32
)
