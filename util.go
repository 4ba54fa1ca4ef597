package ecs

import (
	"unsafe"

	"github.com/TheBitDrifter/bark"
)

// errAssertTrace panics with a traced error for the programming-error
// conditions spec §7 describes as "asserted, no recovery".
func errAssertTrace(msg string) error {
	return bark.AddTrace(componentErr(msg))
}

// asPtr reinterprets a raw address as an unsafe.Pointer for passing
// into ComponentItem's lifecycle functions.
func asPtr(addr uintptr) unsafe.Pointer {
	return unsafe.Pointer(addr)
}
