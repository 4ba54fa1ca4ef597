package ecs

import (
	"sort"

	"github.com/TheBitDrifter/bark"
	"github.com/TheBitDrifter/mask"
)

// MaxComponents bounds the number of ids an archetype may carry (spec
// MAX_COMPONENTS).
const MaxComponents = 32

// ArchetypeID identifies an archetype within a World. Arena-style: a
// small integer handed out by the world's archetype registry rather
// than a raw pointer, per the "archetype graph as arena-addressed
// nodes" design note.
type ArchetypeID uint32

const headerBytes = 64

// Archetype is the immutable set of ids defining a chunk shape. It owns
// its chunk list, offset/capacity table, and graph edges.
type Archetype struct {
	world *World
	id    ArchetypeID

	ids      []Entity // sorted: generics first, then unique, each ascending
	genCount int
	isPairAt []int // positions of (Is, X) pairs within ids
	sig      mask.Mask256

	offsets  map[Entity]uintptr
	items    map[Entity]*ComponentItem
	soaOff   map[Entity][]uintptr

	rowBytes   int
	capacity   int
	blockSize  int
	chunkBytes int

	chunks       []*Chunk
	firstFreeIdx int

	dying     bool
	countdown int

	right map[Entity]ArchetypeID
	left  map[Entity]ArchetypeID
}

// isUniID reports whether id names a component registered as KindUni.
func isUniID(id Entity) bool {
	item, ok := itemFor(id)
	return ok && item.kind == KindUni
}

// sortArchetypeIDs orders ids per spec: generic ids strictly precede
// unique ids; within each group ids ascend; duplicates are removed.
func sortArchetypeIDs(ids []Entity) []Entity {
	uniq := make(map[Entity]struct{}, len(ids))
	out := make([]Entity, 0, len(ids))
	for _, id := range ids {
		if _, dup := uniq[id]; dup {
			continue
		}
		uniq[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool {
		ui, uj := isUniID(out[i]), isUniID(out[j])
		if ui != uj {
			return !ui // generics first
		}
		return out[i] < out[j]
	})
	return out
}

func newArchetype(w *World, id ArchetypeID, ids []Entity) *Archetype {
	ids = sortArchetypeIDs(ids)
	if len(ids) > MaxComponents {
		panic(bark.AddTrace(componentErr("archetype exceeds MAX_COMPONENTS")))
	}

	a := &Archetype{
		world:   w,
		id:      id,
		ids:     ids,
		offsets: make(map[Entity]uintptr),
		items:   make(map[Entity]*ComponentItem),
		soaOff:  make(map[Entity][]uintptr),
		right:   make(map[Entity]ArchetypeID),
		left:    make(map[Entity]ArchetypeID),
	}

	for i, id := range ids {
		if item, ok := itemFor(id); ok {
			a.items[id] = item
			a.sig.Mark(uint32(id))
		}
		if rel, isPair := pairRelationIfIs(id); isPair {
			_ = rel
			a.isPairAt = append(a.isPairAt, i)
		}
	}
	for i, id := range ids {
		if isUniID(id) {
			break
		}
		a.genCount = i + 1
	}
	a.layout()
	return a
}

// pairRelationIfIs reports whether id is a (Is, X) pair, returning the
// target X.
func pairRelationIfIs(id Entity) (Entity, bool) {
	if !id.IsPair() {
		return EntityBad, false
	}
	p := Pair(id)
	if p.Relation() == relIs {
		return p.Target(), true
	}
	return EntityBad, false
}

// layout computes per-component byte offsets and the chunk row
// capacity, per spec §4.3: an initial estimate against the large block,
// shrunk until content fits, then downsized to the small class if it
// comfortably fits there.
func (a *Archetype) layout() {
	genBytes, uniBytes := 0, 0
	for _, id := range a.ids {
		item, ok := a.items[id]
		if !ok {
			continue
		}
		if item.kind == KindUni {
			uniBytes += int(item.size)
		} else {
			genBytes += int(item.size)
		}
	}
	rowBytes := entityRowBytes + genBytes
	a.rowBytes = rowBytes

	capFor := func(blockSize int) int {
		avail := blockSize - headerBytes - uniBytes
		if avail <= 0 || rowBytes == 0 {
			return 0
		}
		return avail / rowBytes
	}

	capLarge := capFor(chunkpoolSizeLarge)
	blockSize := chunkpoolSizeLarge
	capacity := capLarge

	capSmall := capFor(chunkpoolSizeSmall)
	if capSmall > 0 && capSmall*rowBytes+uniBytes+headerBytes <= chunkpoolSizeSmall {
		blockSize = chunkpoolSizeSmall
		capacity = capSmall
	}
	if capacity < 1 {
		capacity = 1
		blockSize = chunkpoolSizeLarge
	}

	a.capacity = capacity
	a.blockSize = blockSize
	a.chunkBytes = headerBytes + uniBytes + capacity*rowBytes

	cursor := uintptr(headerBytes)
	for _, id := range a.ids {
		item, ok := a.items[id]
		if !ok {
			continue
		}
		a.offsets[id] = cursor
		if item.kind == KindUni {
			cursor += uintptr(item.size)
			continue
		}
		if item.soa {
			offs := make([]uintptr, len(item.soaSize))
			fc := cursor
			for i, fsz := range item.soaSize {
				align := soaAlignment(fsz)
				fc = (fc + align - 1) &^ (align - 1)
				offs[i] = fc
				fc += uintptr(capacity) * uintptr(fsz)
			}
			a.soaOff[id] = offs
		}
		cursor += uintptr(capacity) * uintptr(item.size)
	}
}

// offsetOf returns the byte offset of component id's storage within a
// chunk's data buffer.
func (a *Archetype) offsetOf(id Entity) (uintptr, bool) {
	off, ok := a.offsets[id]
	return off, ok
}

// bitFor returns the single-bit mask newArchetype marks into
// Archetype.sig for id, truncating to the low 32 bits the same way.
func bitFor(id Entity) mask.Mask256 {
	var m mask.Mask256
	m.Mark(uint32(id))
	return m
}

// Has reports whether the archetype declares id. For registered
// component ids, which are the only ones newArchetype ever marks into
// sig, a clear bit proves absence without touching the offsets map or
// scanning ids; a set bit only proves "maybe" (ids are truncated to 32
// bits to fit the mask) and falls through to the authoritative check.
// Pair ids and plain entity ids that are not registered components have
// no sig bit to consult and go straight to the authoritative check.
func (a *Archetype) Has(id Entity) bool {
	if isSimpleID(id) && !a.sig.ContainsAll(bitFor(id)) {
		return false
	}
	_, ok := a.offsets[id]
	if ok {
		return true
	}
	for _, x := range a.ids {
		if x == id {
			return true
		}
	}
	return false
}

// IDs returns the archetype's sorted id list. Callers must not mutate it.
func (a *Archetype) IDs() []Entity { return a.ids }

// focFreeChunk returns the first chunk with spare capacity, allocating
// a new one if none exists.
func (a *Archetype) focFreeChunk() *Chunk {
	for i := a.firstFreeIdx; i < len(a.chunks); i++ {
		if a.chunks[i].count < a.capacity {
			a.firstFreeIdx = i
			return a.chunks[i]
		}
	}
	ch := newChunk(a)
	a.chunks = append(a.chunks, ch)
	a.firstFreeIdx = len(a.chunks) - 1
	a.revive()
	return ch
}

// revive cancels any pending dying countdown -- a new entity arrived.
func (a *Archetype) revive() {
	a.dying = false
	a.countdown = 0
}

// noteEmpty marks the archetype dying if it has become fully empty.
func (a *Archetype) noteEmpty() {
	if a.dying {
		return
	}
	for _, ch := range a.chunks {
		if ch.count > 0 {
			return
		}
	}
	a.dying = true
	a.countdown = maxArchetypeLifespan
}

// gcTick advances the dying countdown; returns true when the archetype
// should be destroyed.
func (a *Archetype) gcTick() bool {
	if !a.dying {
		return false
	}
	a.countdown--
	return a.countdown <= 0
}
