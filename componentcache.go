package ecs

import (
	"reflect"
	"sync"
	"unsafe"

	"github.com/TheBitDrifter/bark"
)

// ComponentItem is the component cache entry: size, alignment, SoA
// member sizes, and the lifecycle function pointers the chunk calls
// into. Trivial types omit ctor/dtor (copy/move degrade to memmove).
type ComponentItem struct {
	entity Entity
	name   string
	goType reflect.Type

	size  uint8 // bytes, <= 255
	align uint16 // <= 1023
	kind  Kind

	trivial bool
	soa     bool
	soaSize []uint8 // per-field sizes, arity 0..15

	ctor   func(dst unsafe.Pointer)
	dtor   func(dst unsafe.Pointer)
	copyFn func(dst, src unsafe.Pointer)
	moveFn func(dst, src unsafe.Pointer)
	swapFn func(a, b unsafe.Pointer)
	eqFn   func(a, b unsafe.Pointer) bool
}

// Name returns the symbolic name of the component, derived from its Go
// type, e.g. "Position".
func (ci *ComponentItem) Name() string { return ci.name }

// Size returns the byte size of one component value.
func (ci *ComponentItem) Size() uint8 { return ci.size }

var errTooManyComponents = componentErr("component registry exceeds MAX_COMPONENTS capacity")

type componentErr string

func (e componentErr) Error() string { return string(e) }

type componentCache struct {
	mu        sync.RWMutex
	byType    map[reflect.Type]*ComponentItem
	byEntity  map[Entity]*ComponentItem
	nextIndex uint32
}

var globalComponents = &componentCache{
	byType:    make(map[reflect.Type]*ComponentItem),
	byEntity:  make(map[Entity]*ComponentItem),
	nextIndex: 1,
}

// registerComponent returns the cached ComponentItem for T, creating it
// (and assigning it a fresh component entity id) on first use. The
// metadata is reused on re-registration of the same Go type.
func registerComponent[T any]() *ComponentItem {
	var zero T
	typ := reflect.TypeOf(zero)

	globalComponents.mu.RLock()
	if item, ok := globalComponents.byType[typ]; ok {
		globalComponents.mu.RUnlock()
		return item
	}
	globalComponents.mu.RUnlock()

	globalComponents.mu.Lock()
	defer globalComponents.mu.Unlock()
	if item, ok := globalComponents.byType[typ]; ok {
		return item
	}

	idx := globalComponents.nextIndex
	globalComponents.nextIndex++
	ent := newEntity(idx, 0, KindGen)

	size := typ.Size()
	if size > 255 {
		panic(bark.AddTrace(componentErr("component size exceeds 255 bytes: " + typ.String())))
	}
	align := typ.Align()
	if align > 1023 {
		panic(bark.AddTrace(componentErr("component alignment exceeds 1023: " + typ.String())))
	}

	item := &ComponentItem{
		entity:  ent,
		name:    typeName(typ),
		goType:  typ,
		size:    uint8(size),
		align:   uint16(align),
		kind:    KindGen,
		trivial: isTrivial(typ),
	}
	item.soaSize, item.soa = soaLayout(typ)
	item.ctor, item.dtor, item.copyFn, item.moveFn, item.swapFn, item.eqFn = lifecycleFuncs[T]()

	globalComponents.byType[typ] = item
	globalComponents.byEntity[ent] = item
	return item
}

func itemFor(e Entity) (*ComponentItem, bool) {
	globalComponents.mu.RLock()
	defer globalComponents.mu.RUnlock()
	item, ok := globalComponents.byEntity[e]
	return item, ok
}

func typeName(t reflect.Type) string {
	name := t.String()
	if i := lastIndexByte(name, '.'); i >= 0 {
		return name[i+1:]
	}
	return name
}

func lastIndexByte(s string, b byte) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == b {
			return i
		}
	}
	return -1
}

// isTrivial reports whether T needs no ctor/dtor -- it contains no
// pointers, slices, maps, strings, interfaces, or channels anywhere.
func isTrivial(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Bool, reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return true
	case reflect.Array:
		return isTrivial(t.Elem())
	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			if !isTrivial(t.Field(i).Type) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// lifecycleFuncs builds the ctor/dtor/copy/move/swap/eq closures for T
// via unsafe pointer casts -- the monomorphized-routine-per-T strategy
// described for reimplementing function-pointer component caches.
func lifecycleFuncs[T any]() (
	ctor func(unsafe.Pointer),
	dtor func(unsafe.Pointer),
	cp func(dst, src unsafe.Pointer),
	mv func(dst, src unsafe.Pointer),
	swap func(a, b unsafe.Pointer),
	eq func(a, b unsafe.Pointer) bool,
) {
	ctor = func(dst unsafe.Pointer) {
		*(*T)(dst) = *new(T)
	}
	dtor = func(dst unsafe.Pointer) {
		*(*T)(dst) = *new(T)
	}
	cp = func(dst, src unsafe.Pointer) {
		*(*T)(dst) = *(*T)(src)
	}
	mv = func(dst, src unsafe.Pointer) {
		*(*T)(dst) = *(*T)(src)
		*(*T)(src) = *new(T)
	}
	swap = func(a, b unsafe.Pointer) {
		ta, tb := (*T)(a), (*T)(b)
		*ta, *tb = *tb, *ta
	}
	eq = func(a, b unsafe.Pointer) bool {
		return reflect.DeepEqual(*(*T)(a), *(*T)(b))
	}
	return
}

// chunkElem returns a typed pointer into the chunk's row storage for
// component item at the given row.
func chunkElem[T any](ch *Chunk, item *ComponentItem, row int) *T {
	off, ok := ch.archetype.offsetOf(item.entity)
	if !ok {
		panic(bark.AddTrace(componentErr("component not present in archetype: " + item.name)))
	}
	r := row
	if item.kind == KindUni {
		r = 0
	}
	base := uintptr(unsafe.Pointer(&ch.data[0])) + off + uintptr(r)*uintptr(item.size)
	return (*T)(unsafe.Pointer(base))
}
