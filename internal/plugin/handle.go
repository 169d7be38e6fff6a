package plugin

import "unsafe"

// EntrySymbol is the exported creation symbol every dynamic plugin library
// must provide: a niladic function returning a Handle.
const EntrySymbol = "TaigaPluginCreate"

// CreateFunc is the signature of the exported creation symbol.
type CreateFunc = func() Handle

// Handle is the opaque two-word form of a Plugin interface value: the
// interface table pointer and the data pointer, exactly as the runtime lays
// them out. Passing the two raw words across a loaded-library boundary avoids
// any assumption about interface identity between host and library builds.
//
// Contract: reconstruct a given handle with Capability at most once, and only
// while the library that produced it remains mapped. Neither rule is checked
// at runtime; both are caller obligations.
type Handle struct {
	tab  unsafe.Pointer
	data unsafe.Pointer
}

// Export converts a capability into its raw handle form. The caller gives up
// ownership; the capability must stay reachable through the handle only.
func Export(p Plugin) Handle {
	return *(*Handle)(unsafe.Pointer(&p))
}

// Capability reconstructs the capability from its raw handle form. See the
// Handle contract for the single-use and library-lifetime obligations.
func (h Handle) Capability() Plugin {
	return *(*Plugin)(unsafe.Pointer(&h))
}

// IsNil reports whether the handle's data pointer is null. Creation functions
// signal failure by returning a handle with a null data pointer.
func (h Handle) IsNil() bool {
	return h.data == nil
}
