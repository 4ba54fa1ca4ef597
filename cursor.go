package ecs

// ChunkConstraint selects which rows of a chunk an iteration visits.
type ChunkConstraint uint8

const (
	EnabledOnly ChunkConstraint = iota
	DisabledOnly
	AllRows
)

// iterBatchSize is the chunk count at which Each resets its batch
// counter. The counter does not change how chunks are visited: Each
// walks matched chunks one at a time, with no batching or prefetching.
const iterBatchSize = 32

// Query is an acquired, executable handle to a compiled query: builder
// pattern execution (each/count/empty/arr) per spec §6.
type Query struct {
	w    *World
	cq   *CompiledQuery
	spec *QuerySpec
}

// Compile acquires (compiling if necessary) a Query for spec.
func (w *World) Compile(spec *QuerySpec) *Query {
	return &Query{w: w, cq: w.queries.acquire(spec), spec: spec}
}

// Close releases the query's refcount in the cache.
func (q *Query) Close() { q.w.queries.release(q.cq) }

// Cursor is the chunk iterator a query's Each/manual loop drives. It
// exposes the current entity, row and chunk; component values are read
// through ComponentType accessors, which address AoS row storage only
// (the archetype's SoA sub-array offsets are not used).
type Cursor struct {
	w          *World
	constraint ChunkConstraint

	chunk *Chunk
	row   int

	from, to int
}

func rowBounds(ch *Chunk, c ChunkConstraint) (from, to int) {
	switch c {
	case EnabledOnly:
		return ch.rowFirstEnabled, ch.count
	case DisabledOnly:
		return 0, ch.rowFirstEnabled
	default:
		return 0, ch.count
	}
}

// Entity returns the entity at the cursor's current row.
func (c *Cursor) Entity() Entity { return c.chunk.entities[c.row] }

// Row returns the current row index within the chunk.
func (c *Cursor) Row() int { return c.row }

// Chunk exposes the underlying chunk for manual/advanced access.
func (c *Cursor) Chunk() *Chunk { return c.chunk }

// Each runs fn once per matching entity across every matched, non-
// filtered-out chunk, honoring the constraint and any changed() filters.
// Matching chunks are visited one at a time, each locked for the
// duration of its callbacks, forbidding structural changes.
func (q *Query) Each(constraint ChunkConstraint, fn func(*Cursor)) {
	cq := q.cq
	w := q.w
	cq.match(w)

	cur := &Cursor{w: w, constraint: constraint}
	batch := 0
	for _, m := range cq.cache {
		if cq.groupByFunc != nil && len(cq.groupIDSet) > 0 {
			if !m.hasGrp {
				continue
			}
			if _, want := cq.groupIDSet[m.groupID]; !want {
				continue
			}
		}
		for _, ch := range m.arch.chunks {
			if ch.count == 0 {
				continue
			}
			if !passesChangedFilter(cq, ch) {
				continue
			}
			from, to := rowBounds(ch, constraint)
			if from >= to {
				continue
			}
			ch.lock()
			cur.chunk = ch
			for row := from; row < to; row++ {
				cur.row = row
				fn(cur)
			}
			ch.unlock()
			batch++
			if batch >= iterBatchSize {
				batch = 0
			}
		}
	}
	cq.recordedVersion = w.version
}

func passesChangedFilter(cq *CompiledQuery, ch *Chunk) bool {
	if len(cq.changedIDs) == 0 {
		return true
	}
	for _, id := range cq.changedIDs {
		if changed(cq.recordedVersion, ch.Version(id)) {
			return true
		}
	}
	return false
}

// Count returns the number of enabled entities currently matching the
// query (the EnabledOnly constraint; disabled rows are not counted).
func (q *Query) Count() int {
	q.cq.match(q.w)
	total := 0
	for _, m := range q.cq.cache {
		for _, ch := range m.arch.chunks {
			from, to := rowBounds(ch, EnabledOnly)
			total += to - from
		}
	}
	return total
}

// Empty reports whether the query currently matches zero entities.
func (q *Query) Empty() bool { return q.Count() == 0 }

// Arr appends every matching entity into out and returns it.
func (q *Query) Arr(out []Entity) []Entity {
	q.Each(EnabledOnly, func(c *Cursor) {
		out = append(out, c.Entity())
	})
	return out
}
